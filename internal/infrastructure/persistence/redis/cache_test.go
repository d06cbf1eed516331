package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/activity-hub/internal/domain/user"
	"github.com/learnhub/activity-hub/pkg/circuitbreaker"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "identity:u-1", IdentityKey("u-1"))
	assert.Equal(t, "lock:prune_activities", LockKey("prune_activities"))
}

func TestConfig_Options(t *testing.T) {
	t.Run("host and port", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Host = "cache"
		cfg.Port = 6380

		opts, err := cfg.Options()
		require.NoError(t, err)
		assert.Equal(t, "cache:6380", opts.Addr)
		assert.Equal(t, 10, opts.PoolSize)
		assert.Equal(t, 3*time.Second, opts.ReadTimeout)
	})

	t.Run("url overrides host", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.URL = "redis://:secret@redis.internal:6379/2"

		opts, err := cfg.Options()
		require.NoError(t, err)
		assert.Equal(t, "redis.internal:6379", opts.Addr)
		assert.Equal(t, "secret", opts.Password)
		assert.Equal(t, 2, opts.DB)
	})

	t.Run("bad url", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.URL = "http://nope"

		_, err := cfg.Options()
		assert.ErrorIs(t, err, ErrCacheConnection)
	})
}

func TestNewIdentityCache_DefaultTTL(t *testing.T) {
	c := NewIdentityCache(nil, 0)
	assert.Equal(t, TTLIdentity, c.ttl)

	c = NewIdentityCache(nil, time.Minute)
	assert.Equal(t, time.Minute, c.ttl)
}

func TestIdentityCache_OpenBreakerFailsFast(t *testing.T) {
	cb := circuitbreaker.New("identity-cache", circuitbreaker.Settings{FailureThreshold: 1, OpenTimeout: time.Hour})
	_ = cb.Execute(context.Background(), func(context.Context) error { return errors.New("dial tcp: refused") })
	require.Equal(t, circuitbreaker.StateOpen, cb.State())

	// nil cache: any call reaching Redis would panic
	c := NewIdentityCache(nil, time.Minute).WithBreaker(cb)

	_, err := c.GetMany(context.Background(), []string{"alice"})
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)

	err = c.SetMany(context.Background(), []user.Identity{{ID: "alice", Name: "Alice"}})
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)

	got, err := c.GetMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
