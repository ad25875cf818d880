package redis

import (
	"context"
	"testing"
	"time"

	"codequest-quiz-service/internal/app"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr := runMiniredis(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	store.Put(app.NewSession("attempt-1", "Science", "alice", app.SessionConfig{}))
	if !mr.Exists("quiz:attempt:attempt-1") {
		t.Fatalf("expected redis key to be set")
	}
	if got := mr.HGet("quiz:attempt:attempt-1", "username"); got != "alice" {
		t.Fatalf("expected username in liveness hash, got %q", got)
	}
	if ttl := mr.TTL("quiz:attempt:attempt-1"); ttl != time.Minute {
		t.Fatalf("expected ttl of a minute, got %v", ttl)
	}

	mr.FastForward(30 * time.Second)
	if _, ok := store.Get("attempt-1"); !ok {
		t.Fatalf("expected session present")
	}
	if ttl := mr.TTL("quiz:attempt:attempt-1"); ttl != time.Minute {
		t.Fatalf("expected ttl refreshed on access, got %v", ttl)
	}

	store.Delete("attempt-1")
	if mr.Exists("quiz:attempt:attempt-1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("attempt-1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreEvictsExpiredAttempts(t *testing.T) {
	mr := runMiniredis(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	idle := app.NewSession("idle", "Science", "alice", app.SessionConfig{})
	stale := app.NewSession("stale", "Science", "bob", app.SessionConfig{})
	store.Put(idle)
	store.Put(stale)

	mr.FastForward(2 * time.Hour)
	if mr.Exists("quiz:attempt:stale") {
		t.Fatalf("expected liveness key expired")
	}
	if _, ok := store.Get("stale"); ok {
		t.Fatalf("expected expired attempt to be gone")
	}
	if !stale.Snapshot().Closed {
		t.Fatalf("expected expired attempt closed")
	}
	if store.Len() != 1 {
		t.Fatalf("expected one attempt left locally, got %d", store.Len())
	}

	if removed := store.Sweep(ctx); removed != 1 {
		t.Fatalf("expected sweep to remove the idle attempt, got %d", removed)
	}
	if store.Len() != 0 || !idle.Snapshot().Closed {
		t.Fatalf("expected idle attempt closed and removed")
	}
}

func runMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr
}
