package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Source and store backends accepted in the config file.
const (
	SourceTrivia   = "trivia"
	SourcePostgres = "postgres"
	SourceStatic   = "static"

	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Trivia struct {
		BaseURL    string         `yaml:"base_url"`
		Amount     int            `yaml:"amount"`
		Type       string         `yaml:"type"`
		Timeout    string         `yaml:"timeout"`
		Categories map[string]int `yaml:"categories"`
	} `yaml:"trivia"`
	Quiz struct {
		Source      string `yaml:"source"`
		TimeBudget  int    `yaml:"time_budget"`
		Tick        string `yaml:"tick"`
		LoadTimeout string `yaml:"load_timeout"`
		SessionTTL  string `yaml:"session_ttl"`
	} `yaml:"quiz"`
	Leaderboard struct {
		Store string `yaml:"store"`
	} `yaml:"leaderboard"`
}

// Load reads YAML config from path, applies environment overrides and fills defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

// applyEnv lets deployment secrets live outside the YAML file (.env or the process environment).
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := getenv("POSTGRES_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := getenv("SQLITE_PATH"); v != "" {
		c.SQLite.Path = v
	}
	if v := getenv("TRIVIA_BASE_URL"); v != "" {
		c.Trivia.BaseURL = v
	}
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Trivia.BaseURL == "" {
		c.Trivia.BaseURL = "https://opentdb.com"
	}
	if c.Trivia.Amount <= 0 {
		c.Trivia.Amount = 10
	}
	if c.Trivia.Type == "" {
		c.Trivia.Type = "multiple"
	}
	if c.Quiz.Source == "" {
		c.Quiz.Source = SourceTrivia
	}
	if c.Quiz.SessionTTL == "" {
		c.Quiz.SessionTTL = "30m"
	}
	if c.Quiz.TimeBudget <= 0 {
		c.Quiz.TimeBudget = 60
	}
	if c.Leaderboard.Store == "" {
		c.Leaderboard.Store = StoreMemory
	}
	if c.SQLite.Path == "" {
		c.SQLite.Path = "file:leaderboard.db"
	}
}

// Validate checks duration settings and backend selections against the
// connection settings they need.
func (c Config) Validate() error {
	for _, d := range []struct{ key, raw string }{
		{"quiz.tick", c.Quiz.Tick},
		{"quiz.load_timeout", c.Quiz.LoadTimeout},
		{"quiz.session_ttl", c.Quiz.SessionTTL},
		{"trivia.timeout", c.Trivia.Timeout},
		{"redis.ttl", c.Redis.TTL},
	} {
		if d.raw == "" {
			continue
		}
		if v, err := time.ParseDuration(d.raw); err != nil || v < 0 {
			return fmt.Errorf("%s: invalid duration %q", d.key, d.raw)
		}
	}
	switch c.Quiz.Source {
	case SourceTrivia, SourceStatic:
	case SourcePostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("quiz.source %q requires postgres.url", c.Quiz.Source)
		}
	default:
		return fmt.Errorf("unknown quiz.source %q", c.Quiz.Source)
	}
	switch c.Leaderboard.Store {
	case StoreMemory, StoreSQLite:
	case StoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("leaderboard.store %q requires redis.addr", c.Leaderboard.Store)
		}
	case StorePostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("leaderboard.store %q requires postgres.url", c.Leaderboard.Store)
		}
	default:
		return fmt.Errorf("unknown leaderboard.store %q", c.Leaderboard.Store)
	}
	return nil
}

// Duration parses a duration string or returns the fallback if empty or
// invalid. Load has already rejected invalid values.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
