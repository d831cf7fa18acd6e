package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kalambet/relbot/internal/escalation"
)

const defaultRedisPrefix = "relbot:session:"

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisBackend stores state as JSON values with a TTL, so several server
// processes can share sessions.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend connects to Redis and verifies the connection.
func NewRedisBackend(ctx context.Context, cfg RedisConfig) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisBackend{client: client, prefix: prefix}, nil
}

func (b *RedisBackend) Get(ctx context.Context, id string) (escalation.PendingContact, error) {
	raw, err := b.client.Get(ctx, b.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return escalation.PendingContact{}, ErrNotFound
	}
	if err != nil {
		return escalation.PendingContact{}, fmt.Errorf("redis get: %w", err)
	}

	var p escalation.PendingContact
	if err := json.Unmarshal(raw, &p); err != nil {
		return escalation.PendingContact{}, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return p, nil
}

func (b *RedisBackend) Put(ctx context.Context, id string, p escalation.PendingContact, ttl time.Duration) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := b.client.Set(ctx, b.prefix+id, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, id string) error {
	if err := b.client.Del(ctx, b.prefix+id).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
