package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codeassist/assistant-api/internal/model"
)

const (
	// identityCachePrefix is the Redis key prefix for verified identities.
	identityCachePrefix = "auth:identity:"
)

// CachedIdentity represents an identity stored in Redis.
type CachedIdentity struct {
	UID       string         `json:"uid"`
	Email     string         `json:"email,omitempty"`
	Claims    map[string]any `json:"claims,omitempty"`
	ExpiresAt int64          `json:"expires_at,omitempty"`
}

// GetIdentity retrieves a cached identity by token hash.
// Returns nil if not found (cache miss).
func (c *Cache) GetIdentity(ctx context.Context, tokenHash string) (*model.Identity, error) {
	data, err := c.client.Get(ctx, identityCachePrefix+tokenHash).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached CachedIdentity
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - evict and treat as miss
		_ = c.DeleteIdentity(ctx, tokenHash)
		return nil, nil //nolint:nilerr
	}

	identity := &model.Identity{
		UID:    cached.UID,
		Email:  cached.Email,
		Claims: cached.Claims,
	}
	if cached.ExpiresAt > 0 {
		identity.ExpiresAt = time.Unix(cached.ExpiresAt, 0)
	}
	return identity, nil
}

// SetIdentity caches a verified identity for ttl.
func (c *Cache) SetIdentity(ctx context.Context, tokenHash string, identity *model.Identity, ttl time.Duration) error {
	cached := CachedIdentity{
		UID:    identity.UID,
		Email:  identity.Email,
		Claims: identity.Claims,
	}
	if !identity.ExpiresAt.IsZero() {
		cached.ExpiresAt = identity.ExpiresAt.Unix()
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	return c.client.Set(ctx, identityCachePrefix+tokenHash, data, ttl).Err()
}

// DeleteIdentity removes a cached identity.
func (c *Cache) DeleteIdentity(ctx context.Context, tokenHash string) error {
	return c.client.Del(ctx, identityCachePrefix+tokenHash).Err()
}
