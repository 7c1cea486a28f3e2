// Package export orchestrates a full export run: it loads and validates the
// timeline, asks the analyzer for a strategy, pins in-memory resources for
// the duration of the run, resolves every referenced source to an on-disk
// file, drives the encoder passes for the chosen strategy, and finalizes the
// output. One export runs at a time per machine; a lock file rejects
// concurrent runs across processes.
package export
