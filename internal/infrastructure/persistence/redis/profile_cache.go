package redis

import (
	"context"
	"time"

	"github.com/mdi-hub/attendance-hub/internal/domain/profile"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ProfileCache implements profile.Cache using the generic Redis Cache.
type ProfileCache struct {
	cache *Cache
}

// NewProfileCache creates a new ProfileCache.
func NewProfileCache(cache *Cache) *ProfileCache {
	return &ProfileCache{cache: cache}
}

// Get gets a profile from cache.
// Returns ErrCacheMiss when nothing is cached.
func (c *ProfileCache) Get(ctx context.Context, userID shared.UserID) (*profile.Profile, error) {
	var p profile.Profile
	if err := c.cache.Get(ctx, ProfileKey(userID.String()), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Set stores a profile in cache.
func (c *ProfileCache) Set(ctx context.Context, userID shared.UserID, p *profile.Profile, ttl time.Duration) error {
	if p == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = TTLProfile
	}
	return c.cache.Set(ctx, ProfileKey(userID.String()), p, ttl)
}

// Invalidate drops a user's cached profile.
func (c *ProfileCache) Invalidate(ctx context.Context, userID shared.UserID) error {
	return c.cache.Delete(ctx, ProfileKey(userID.String()))
}

var _ profile.Cache = (*ProfileCache)(nil)
