package memory

import (
	"context"
	"testing"
	"time"

	"codequest-quiz-service/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore(0)

	store.Put(app.NewSession("attempt-1", "Science", "alice", app.SessionConfig{}))
	session, ok := store.Get("attempt-1")
	if !ok {
		t.Fatalf("expected session present")
	}
	if session.Subject() != "Science" {
		t.Fatalf("unexpected subject %q", session.Subject())
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}

	store.Delete("attempt-1")
	if _, ok := store.Get("attempt-1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreEvictsIdleAttempts(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	store := NewSessionStore(time.Hour)
	store.now = func() time.Time { return now }

	idle := app.NewSession("idle", "Science", "alice", app.SessionConfig{})
	active := app.NewSession("active", "Science", "bob", app.SessionConfig{})
	store.Put(idle)
	store.Put(active)

	now = now.Add(40 * time.Minute)
	if _, ok := store.Get("active"); !ok {
		t.Fatalf("expected active session present")
	}

	now = now.Add(30 * time.Minute)
	if removed := store.Sweep(context.Background()); removed != 1 {
		t.Fatalf("expected one idle attempt swept, got %d", removed)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session left, got %d", store.Len())
	}
	if !idle.Snapshot().Closed {
		t.Fatalf("expected swept session closed")
	}

	now = now.Add(2 * time.Hour)
	if _, ok := store.Get("active"); ok {
		t.Fatalf("expected expired session evicted on access")
	}
	if store.Len() != 0 || !active.Snapshot().Closed {
		t.Fatalf("expected expired session closed and removed")
	}
}
