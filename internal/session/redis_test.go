package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/kalambet/relbot/internal/escalation"
)

func TestRedisBackend(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	addr := uri[len("redis://"):]

	b, err := NewRedisBackend(ctx, RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	backendContract(t, b)

	require.NoError(t, b.Put(ctx, "short", escalation.Begin("q", "a"), time.Second))
	ttl, err := b.client.TTL(ctx, defaultRedisPrefix+"short").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestNewRedisBackend_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedisBackend(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	require.Error(t, err)
}
