package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"codequest-quiz-service/internal/app"
	"codequest-quiz-service/internal/config"
	"codequest-quiz-service/internal/infra/memory"
	"codequest-quiz-service/internal/infra/postgres"
	infraredis "codequest-quiz-service/internal/infra/redis"
	"codequest-quiz-service/internal/infra/sqlite"
	"codequest-quiz-service/internal/infra/trivia"
	"codequest-quiz-service/internal/logging"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// loadConfig reads the config file and installs the configured logger.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	logging.SetDefault(logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout))
	return cfg, nil
}

// closers releases backend clients in reverse order.
type closers []func()

func (c closers) Close() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func newRedisClient(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func newQuestionSource(ctx context.Context, cfg config.Config, cleanup *closers) (app.QuestionSource, error) {
	switch cfg.Quiz.Source {
	case config.SourcePostgres:
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		*cleanup = append(*cleanup, pool.Close)
		return postgres.NewQuestionStore(pool), nil
	case config.SourceStatic:
		return memory.NewStaticQuestionSource(memory.DemoQuestions()), nil
	default:
		return trivia.New(trivia.Options{
			BaseURL:    cfg.Trivia.BaseURL,
			Amount:     cfg.Trivia.Amount,
			Type:       cfg.Trivia.Type,
			Categories: cfg.Trivia.Categories,
			HTTPClient: &http.Client{Timeout: config.Duration(cfg.Trivia.Timeout, 10*time.Second)},
		}), nil
	}
}

func newScoreStore(ctx context.Context, cfg config.Config, cleanup *closers) (app.ScoreStore, error) {
	switch cfg.Leaderboard.Store {
	case config.StoreRedis:
		client := newRedisClient(cfg)
		*cleanup = append(*cleanup, func() { _ = client.Close() })
		return infraredis.NewScoreStore(client), nil
	case config.StorePostgres:
		db := openBun(cfg.Postgres.URL)
		*cleanup = append(*cleanup, func() { _ = db.Close() })
		return postgres.NewScoreStore(db), nil
	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		*cleanup = append(*cleanup, func() { _ = db.Close() })
		return sqlite.NewScoreStore(db), nil
	default:
		return memory.NewScoreStore(), nil
	}
}

func newSessionStore(cfg config.Config, cleanup *closers) app.SessionRepository {
	ttl := config.Duration(cfg.Quiz.SessionTTL, 30*time.Minute)
	if cfg.Redis.Addr == "" {
		return memory.NewSessionStore(ttl)
	}
	client := newRedisClient(cfg)
	*cleanup = append(*cleanup, func() { _ = client.Close() })
	return infraredis.NewSessionStore(client, config.Duration(cfg.Redis.TTL, ttl))
}

// buildService wires the configured backends into a QuizService.
func buildService(ctx context.Context, cfg config.Config) (*app.QuizService, closers, error) {
	var cleanup closers

	source, err := newQuestionSource(ctx, cfg, &cleanup)
	if err != nil {
		cleanup.Close()
		return nil, nil, err
	}
	scores, err := newScoreStore(ctx, cfg, &cleanup)
	if err != nil {
		cleanup.Close()
		return nil, nil, err
	}
	sessions := newSessionStore(cfg, &cleanup)

	service := app.NewQuizService(sessions, source, app.NewLeaderboard(scores), app.ServiceConfig{
		Session: app.SessionConfig{
			TimeBudget:   cfg.Quiz.TimeBudget,
			TickInterval: config.Duration(cfg.Quiz.Tick, time.Second),
			NewTicker:    app.NewRealTicker,
		},
		LoadTimeout: config.Duration(cfg.Quiz.LoadTimeout, 15*time.Second),
	})
	return service, cleanup, nil
}
