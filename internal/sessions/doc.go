// Package sessions persists export session history in SQLite. Each export
// run becomes one row that tracks phase transitions, progress, and the final
// outcome, so the CLI can show what happened after the process exits.
package sessions
