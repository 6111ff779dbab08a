package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitdesk/visitdesk/pkg/redis"
)

func testConfig(addr string) redis.Config {
	return redis.Config{
		ConnectionURL:  "redis://" + addr,
		RetryAttempts:  1,
		RetryInterval:  10 * time.Millisecond,
		ConnectTimeout: 2 * time.Second,
	}
}

func TestConnect(t *testing.T) {
	t.Parallel()

	t.Run("connects to a running server", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)
		client, err := redis.Connect(context.Background(), testConfig(mr.Addr()))
		require.NoError(t, err)
		defer client.Close()

		require.NoError(t, client.Ping(context.Background()).Err())
	})

	t.Run("empty connection URL", func(t *testing.T) {
		t.Parallel()

		_, err := redis.Connect(context.Background(), redis.Config{})
		assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
	})

	t.Run("invalid connection URL", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig("localhost:6379")
		cfg.ConnectionURL = "not-a-url"
		_, err := redis.Connect(context.Background(), cfg)
		assert.ErrorIs(t, err, redis.ErrInvalidConnectionURL)
	})

	t.Run("unreachable server exhausts retries", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := testConfig(addr)
		cfg.RetryAttempts = 2
		cfg.ConnectTimeout = 500 * time.Millisecond
		_, err := redis.Connect(context.Background(), cfg)
		assert.ErrorIs(t, err, redis.ErrRedisNotReady)
	})
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client, err := redis.Connect(context.Background(), testConfig(mr.Addr()))
	require.NoError(t, err)
	defer client.Close()

	probe := redis.Healthcheck(client)
	require.NoError(t, probe(context.Background()))

	mr.Close()
	assert.ErrorIs(t, probe(context.Background()), redis.ErrHealthcheckFailed)
}
