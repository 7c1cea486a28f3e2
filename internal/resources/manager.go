package resources

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"reelforge/internal/logging"
	"reelforge/internal/services"
)

// Blob is an in-memory media resource registered by the owning subsystem.
type Blob struct {
	ID   string
	Data []byte
}

type handle struct {
	id         string
	resourceID string
	data       []byte
	createdAt  time.Time
	refCount   uint32
	tags       []string
}

// Manager owns the handle table and the export-lock counter.
type Manager struct {
	logger *slog.Logger
	maxAge time.Duration

	mu          sync.Mutex
	byResource  map[string]*handle
	byHandle    map[string]*handle
	exportLocks int

	now func() time.Time
}

// NewManager constructs a lifecycle manager. maxAge bounds how long an
// unreferenced handle survives between sweeps.
func NewManager(logger *slog.Logger, maxAge time.Duration) *Manager {
	return &Manager{
		logger:     logging.NewComponentLogger(logger, "resources"),
		maxAge:     maxAge,
		byResource: make(map[string]*handle),
		byHandle:   make(map[string]*handle),
		now:        time.Now,
	}
}

// Acquire returns a handle ID for the blob, creating a handle on first
// reference or incrementing the refcount of an existing one. A blob whose
// backing data has been discarded fails with ErrResourceUnavailable.
func (m *Manager) Acquire(blob Blob, tag string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byResource[blob.ID]; ok {
		existing.refCount++
		existing.tags = append(existing.tags, tag)
		return existing.id, nil
	}

	if len(blob.Data) == 0 {
		return "", services.Wrap(services.ErrResourceUnavailable, "resources", "acquire",
			fmt.Sprintf("resource %s has no backing data", blob.ID), nil)
	}

	h := &handle{
		id:         uuid.NewString(),
		resourceID: blob.ID,
		data:       blob.Data,
		createdAt:  m.now(),
		refCount:   1,
		tags:       []string{tag},
	}
	m.byResource[blob.ID] = h
	m.byHandle[h.id] = h
	m.logger.Debug("handle created",
		logging.String(logging.FieldHandleID, h.id),
		logging.String("resource_id", blob.ID),
		logging.String("tag", tag),
	)
	return h.id, nil
}

// AcquireExisting increments the refcount of the handle backing resourceID.
// Used by the export preparer, which knows only the catalog's resource
// reference. Fails with ErrResourceUnavailable when the resource was never
// registered or has already been reclaimed.
func (m *Manager) AcquireExisting(resourceID, tag string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.byResource[resourceID]
	if !ok {
		return "", services.Wrap(services.ErrResourceUnavailable, "resources", "acquire",
			fmt.Sprintf("resource %s is not registered or was reclaimed", resourceID), nil)
	}
	h.refCount++
	h.tags = append(h.tags, tag)
	return h.id, nil
}

// Release decrements the refcount for the handle. Releasing an unknown
// handle is a logged no-op: destruction is the sweep's job, never Release's.
func (m *Manager) Release(handleID, tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.byHandle[handleID]
	if !ok {
		m.logger.Warn("release of unknown handle ignored",
			logging.String(logging.FieldHandleID, handleID),
			logging.String("tag", tag),
			logging.String(logging.FieldEventType, "resource_release_unknown"),
			logging.String(logging.FieldErrorHint, "a component may be double-releasing its reference"),
		)
		return
	}
	if h.refCount == 0 {
		m.logger.Warn("release below zero ignored",
			logging.String(logging.FieldHandleID, handleID),
			logging.String("tag", tag),
			logging.String(logging.FieldEventType, "resource_release_underflow"),
			logging.String(logging.FieldErrorHint, "a component may be double-releasing its reference"),
		)
		return
	}
	h.refCount--
	for i, t := range h.tags {
		if t == tag {
			h.tags = append(h.tags[:i], h.tags[i+1:]...)
			break
		}
	}
}

// Data returns the backing bytes for a handle.
func (m *Manager) Data(handleID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.byHandle[handleID]
	if !ok {
		return nil, services.Wrap(services.ErrResourceUnavailable, "resources", "read",
			fmt.Sprintf("handle %s does not exist", handleID), nil)
	}
	return h.data, nil
}

// RefCount reports the current refcount for a handle; -1 if unknown.
func (m *Manager) RefCount(handleID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.byHandle[handleID]; ok {
		return int(h.refCount)
	}
	return -1
}

// ExportGuard suspends idle reclamation for the duration of an export.
// Close is idempotent: the lock counter is decremented exactly once no
// matter how many exit paths run it.
type ExportGuard struct {
	mgr  *Manager
	once sync.Once
}

// PinForExport increments the export-lock counter and returns the guard
// that releases it.
func (m *Manager) PinForExport() *ExportGuard {
	m.mu.Lock()
	m.exportLocks++
	m.mu.Unlock()
	return &ExportGuard{mgr: m}
}

// Close releases the export lock. Safe to call multiple times.
func (g *ExportGuard) Close() {
	g.once.Do(func() {
		g.mgr.mu.Lock()
		if g.mgr.exportLocks > 0 {
			g.mgr.exportLocks--
		}
		g.mgr.mu.Unlock()
	})
}

// ExportLocked reports whether any export currently pins the handle table.
func (m *Manager) ExportLocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exportLocks > 0
}

// HandleCount reports the number of live handles.
func (m *Manager) HandleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byHandle)
}

// sweepOnce destroys every handle that is both unreferenced and older than
// maxAge. The sweep is a complete no-op while any export lock is held.
func (m *Manager) sweepOnce(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.exportLocks > 0 {
		return 0
	}

	destroyed := 0
	for id, h := range m.byHandle {
		if h.refCount > 0 {
			continue
		}
		if now.Sub(h.createdAt) <= m.maxAge {
			continue
		}
		delete(m.byHandle, id)
		delete(m.byResource, h.resourceID)
		destroyed++
		m.logger.Debug("idle handle destroyed",
			logging.String(logging.FieldHandleID, id),
			logging.String("resource_id", h.resourceID),
			logging.Duration("age", now.Sub(h.createdAt)),
		)
	}
	return destroyed
}

// ForceRelease destroys a handle immediately regardless of age, provided it
// is unreferenced and no export lock is held. Returns false when the handle
// is protected or unknown.
func (m *Manager) ForceRelease(handleID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.exportLocks > 0 {
		return false
	}
	h, ok := m.byHandle[handleID]
	if !ok || h.refCount > 0 {
		return false
	}
	delete(m.byHandle, handleID)
	delete(m.byResource, h.resourceID)
	return true
}
