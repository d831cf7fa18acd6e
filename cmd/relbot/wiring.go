package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kalambet/relbot/internal/answer"
	"github.com/kalambet/relbot/internal/assistant"
	"github.com/kalambet/relbot/internal/completion"
	"github.com/kalambet/relbot/internal/config"
	"github.com/kalambet/relbot/internal/dataset"
	"github.com/kalambet/relbot/internal/logging"
	"github.com/kalambet/relbot/internal/session"
	"github.com/kalambet/relbot/internal/sheets"
	"github.com/kalambet/relbot/internal/storage"
)

func newLogger(cfg config.Config) zerolog.Logger {
	format := cfg.Log.Format
	if format == "" {
		format = "json"
		if cfg.Debug() {
			format = "console"
		}
	}
	return logging.New(logging.Config{Level: cfg.Log.Level, Format: format})
}

func newCompletionClient(cfg config.Config) *completion.Client {
	return completion.NewClient(cfg.OpenAI.APIKey,
		completion.WithBaseURL(cfg.OpenAI.BaseURL),
		completion.WithTimeout(cfg.OpenAI.Timeout),
		completion.WithRequestsPerMinute(cfg.OpenAI.RequestsPerMinute),
	)
}

func newAssistant(cfg config.Config, logger zerolog.Logger) *assistant.Service {
	gen := answer.NewGenerator(newCompletionClient(cfg), answer.Params{
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
	})
	return assistant.New(
		dataset.NewFile(cfg.Dataset.CSVFile),
		gen,
		sheets.NewClient(cfg.Sheets.ScriptURL, cfg.Sheets.Timeout),
		logger,
	)
}

// sessionStore is the backend chosen by SESSION_BACKEND together with what
// must be released on shutdown.
type sessionStore struct {
	backend session.Backend
	sqlite  *session.SQLiteBackend
	close   func() error
}

func openSessionStore(ctx context.Context, cfg config.Config) (*sessionStore, error) {
	switch cfg.Session.Backend {
	case config.BackendSQLite:
		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening storage: %w", err)
		}
		b := session.NewSQLiteBackend(store)
		return &sessionStore{backend: b, sqlite: b, close: store.Close}, nil
	case config.BackendRedis:
		b, err := session.NewRedisBackend(ctx, session.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		return &sessionStore{backend: b, close: b.Close}, nil
	default:
		return &sessionStore{backend: session.NewMemoryBackend(), close: func() error { return nil }}, nil
	}
}
