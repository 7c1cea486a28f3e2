package testsupport

import (
	"context"
	"testing"

	"reelforge/internal/config"
	"reelforge/internal/sessions"
)

// MustOpenStore opens a sessions.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *sessions.Store {
	t.Helper()

	store, err := sessions.Open(cfg)
	if err != nil {
		t.Fatalf("sessions.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// StartSession creates a new export session for tests using the provided
// store.
func StartSession(t testing.TB, store *sessions.Store, timelinePath string) *sessions.Session {
	t.Helper()

	session, err := store.Start(context.Background(), timelinePath)
	if err != nil {
		t.Fatalf("store.Start: %v", err)
	}
	return session
}
