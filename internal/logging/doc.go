// Package logging assembles the structured slog loggers used across
// reelforge components.
//
// It centralizes level and output plumbing, standardizes attribute keys for
// export sessions (session IDs, strategies, phases, handle IDs), and exposes
// a no-op logger for tests and wiring code that cannot fail. Prefer these
// constructors over hand-rolled slog setup so every component emits log
// lines with the same shape.
package logging
