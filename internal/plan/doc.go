// Package plan decides how much re-encoding an export requires.
//
// Analyze inspects the timeline and media catalog and emits an immutable
// Plan selecting exactly one strategy: stream-copy concatenation
// (DirectCopy), per-source normalization before concatenation (Normalize),
// or frame-by-frame compositing (FullReencode). Downstream components never
// re-derive or downgrade the selected strategy; a plan that matches no
// strategy is an analyzer bug surfaced as ErrInvalidExportConfiguration.
//
// Analyze is pure: source properties arrive as a ProbeSet gathered by the
// caller, so identical inputs always produce identical plans.
package plan
