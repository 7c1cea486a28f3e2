package sessions_test

import (
	"context"
	"errors"
	"testing"

	"reelforge/internal/sessions"
	"reelforge/internal/testsupport"
)

func TestStartSessionDefaults(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	session := testsupport.StartSession(t, store, "/tmp/timeline.yaml")

	if session.ID == "" {
		t.Fatal("expected generated session ID")
	}
	if session.Phase != sessions.PhasePreparing {
		t.Fatalf("phase = %q, want %q", session.Phase, sessions.PhasePreparing)
	}
	if session.TimelinePath != "/tmp/timeline.yaml" {
		t.Fatalf("timeline path = %q", session.TimelinePath)
	}
	if session.CompletedAt != nil {
		t.Fatal("new session should not be completed")
	}
}

func TestPhaseTransitionsAndCompletion(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	session := testsupport.StartSession(t, store, "/tmp/timeline.yaml")
	ctx := context.Background()

	if err := store.SetStrategy(ctx, session.ID, "normalize"); err != nil {
		t.Fatalf("SetStrategy: %v", err)
	}
	if err := store.SetPhase(ctx, session.ID, sessions.PhaseEncoding); err != nil {
		t.Fatalf("SetPhase: %v", err)
	}
	if err := store.UpdateProgress(ctx, session.ID, 42.5, "pass 1 of 2"); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if err := store.Complete(ctx, session.ID, "/out/final.mp4"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	got, err := store.GetByID(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Strategy != "normalize" {
		t.Fatalf("strategy = %q", got.Strategy)
	}
	if got.Phase != sessions.PhaseCompleted {
		t.Fatalf("phase = %q", got.Phase)
	}
	if got.ProgressPercent != 100 {
		t.Fatalf("progress = %v, want 100", got.ProgressPercent)
	}
	if got.OutputPath != "/out/final.mp4" {
		t.Fatalf("output path = %q", got.OutputPath)
	}
	if got.CompletedAt == nil {
		t.Fatal("completed session should carry completion time")
	}
}

func TestFailRecordsErrorMessage(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	session := testsupport.StartSession(t, store, "/tmp/timeline.yaml")
	ctx := context.Background()

	if err := store.Fail(ctx, session.ID, "encoder exited with status 1"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	got, err := store.GetByID(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Phase != sessions.PhaseFailed {
		t.Fatalf("phase = %q", got.Phase)
	}
	if got.ErrorMessage != "encoder exited with status 1" {
		t.Fatalf("error message = %q", got.ErrorMessage)
	}
}

func TestProgressClamped(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	session := testsupport.StartSession(t, store, "/tmp/timeline.yaml")
	ctx := context.Background()

	if err := store.UpdateProgress(ctx, session.ID, 180, ""); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	got, err := store.GetByID(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ProgressPercent != 100 {
		t.Fatalf("progress = %v, want 100", got.ProgressPercent)
	}
}

func TestSetPhaseRejectsUnknownPhase(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	session := testsupport.StartSession(t, store, "/tmp/timeline.yaml")

	if err := store.SetPhase(context.Background(), session.ID, sessions.Phase("shipping")); err == nil {
		t.Fatal("expected error for unknown phase")
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.StartSession(t, store, "/tmp/a.yaml")
	second := testsupport.StartSession(t, store, "/tmp/b.yaml")
	third := testsupport.StartSession(t, store, "/tmp/c.yaml")

	listed, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(listed))
	}
	if listed[0].ID != third.ID || listed[1].ID != second.ID {
		t.Fatalf("unexpected order: %s, %s (first was %s)", listed[0].ID, listed[1].ID, first.ID)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, sessions.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
