// Package services defines the shared error taxonomy for export
// orchestration.
//
// Sentinel errors classify failures by kind so callers can decide whether a
// failure aborts the export, is recovered locally, or indicates an internal
// bug. Wrap attaches component and operation context plus a remediation hint
// so a terminal error is diagnosable without re-running the export.
package services
