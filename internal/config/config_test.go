package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: \"9090\"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("unexpected port %q", cfg.Server.Port)
	}
	if cfg.Quiz.Source != SourceTrivia || cfg.Leaderboard.Store != StoreMemory {
		t.Fatalf("unexpected backends %q %q", cfg.Quiz.Source, cfg.Leaderboard.Store)
	}
	if cfg.Quiz.TimeBudget != 60 || cfg.Trivia.Amount != 10 || cfg.Trivia.Type != "multiple" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadParsesSections(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
redis:
  addr: localhost:6379
  ttl: 30m
trivia:
  amount: 5
  timeout: 3s
  categories:
    Computers: 18
quiz:
  source: static
  time_budget: 90
  tick: 500ms
leaderboard:
  store: redis
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Trivia.Categories["Computers"] != 18 || cfg.Trivia.Amount != 5 {
		t.Fatalf("unexpected trivia section %+v", cfg.Trivia)
	}
	if Duration(cfg.Redis.TTL, time.Minute) != 30*time.Minute {
		t.Fatalf("unexpected ttl %q", cfg.Redis.TTL)
	}
	if Duration(cfg.Quiz.Tick, time.Second) != 500*time.Millisecond {
		t.Fatalf("unexpected tick %q", cfg.Quiz.Tick)
	}
}

func TestValidateRequiresConnectionSettings(t *testing.T) {
	if _, err := Load(writeConfig(t, "leaderboard:\n  store: postgres\n")); err == nil {
		t.Fatalf("expected error without postgres.url")
	}
	if _, err := Load(writeConfig(t, "quiz:\n  source: carrier-pigeon\n")); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}

func TestValidateRejectsBadDurations(t *testing.T) {
	for _, body := range []string{
		"quiz:\n  tick: soon\n",
		"trivia:\n  timeout: 10\n",
		"redis:\n  ttl: -5m\n",
		"quiz:\n  session_ttl: forever\n",
	} {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("expected error for %q", body)
		}
	}
	if _, err := Load(writeConfig(t, "quiz:\n  tick: 250ms\n  session_ttl: 1h\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	cfg := Config{}
	env := map[string]string{"POSTGRES_URL": "postgres://x", "REDIS_ADDR": "redis:6379"}
	cfg.applyEnv(func(k string) string { return env[k] })
	if cfg.Postgres.URL != "postgres://x" || cfg.Redis.Addr != "redis:6379" {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestDurationFallback(t *testing.T) {
	if got := Duration("", time.Second); got != time.Second {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := Duration("soon", time.Second); got != time.Second {
		t.Fatalf("expected fallback for invalid value, got %v", got)
	}
}
