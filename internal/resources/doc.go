// Package resources manages reference-counted handles for in-memory media
// blobs that have no filesystem path.
//
// Callers hold only opaque handle IDs; the manager owns the handle table and
// every refcount mutation goes through Acquire/Release. A periodic idle
// sweep reclaims handles that are both old and unreferenced, and is
// suspended entirely while any export holds the export lock. This pairing
// guarantees that a long-running export can never have a resource reclaimed
// out from under it, even when unrelated components release their own
// references mid-export.
package resources
