package redis

import (
	"context"
	"time"

	"github.com/learnhub/activity-hub/internal/domain/user"
	"github.com/learnhub/activity-hub/pkg/circuitbreaker"
)

// IdentityCache caches resolved feed identities by user ID.
// Misses and decode failures are indistinguishable to callers: both mean
// "resolve from the source".
type IdentityCache struct {
	cache   *Cache
	ttl     time.Duration
	breaker *circuitbreaker.CircuitBreaker
}

// NewIdentityCache creates an IdentityCache. A non-positive ttl selects TTLIdentity.
func NewIdentityCache(cache *Cache, ttl time.Duration) *IdentityCache {
	if ttl <= 0 {
		ttl = TTLIdentity
	}
	return &IdentityCache{cache: cache, ttl: ttl}
}

// WithBreaker routes every Redis round-trip through cb. While cb is open
// calls fail fast with circuitbreaker.ErrCircuitOpen and the enricher
// falls back to the repositories.
func (c *IdentityCache) WithBreaker(cb *circuitbreaker.CircuitBreaker) *IdentityCache {
	c.breaker = cb
	return c
}

func (c *IdentityCache) do(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.breaker == nil {
		return fn(ctx)
	}
	return c.breaker.Execute(ctx, fn)
}

// GetMany returns cached identities for the given IDs. Missing keys are absent from the map.
func (c *IdentityCache) GetMany(ctx context.Context, userIDs []string) (map[string]user.Identity, error) {
	if len(userIDs) == 0 {
		return map[string]user.Identity{}, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = IdentityKey(id)
	}

	var byKey map[string]user.Identity
	err := c.do(ctx, func(ctx context.Context) error {
		var err error
		byKey, err = mgetJSON[user.Identity](ctx, c.cache, keys)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]user.Identity, len(byKey))
	for i, id := range userIDs {
		if ident, ok := byKey[keys[i]]; ok {
			out[id] = ident
		}
	}
	return out, nil
}

// SetMany stores identities keyed by their ID.
func (c *IdentityCache) SetMany(ctx context.Context, identities []user.Identity) error {
	if len(identities) == 0 {
		return nil
	}
	pairs := make(map[string]user.Identity, len(identities))
	for _, ident := range identities {
		pairs[IdentityKey(ident.ID)] = ident
	}
	return c.do(ctx, func(ctx context.Context) error {
		return msetJSON(ctx, c.cache, pairs, c.ttl)
	})
}
