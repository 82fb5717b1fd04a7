package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeassist/assistant-api/internal/model"
)

// IdentityStore persists verified identities for a bounded time.
type IdentityStore interface {
	GetIdentity(ctx context.Context, key string) (*model.Identity, error)
	SetIdentity(ctx context.Context, key string, identity *model.Identity, ttl time.Duration) error
}

// CachedTokenVerifier serves repeat tokens from an IdentityStore.
// Only successful verifications are stored.
type CachedTokenVerifier struct {
	next   TokenVerifier
	store  IdentityStore
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewCachedTokenVerifier wraps next with a cache. Entries never outlive the token itself.
func NewCachedTokenVerifier(next TokenVerifier, store IdentityStore, ttl time.Duration, logger *slog.Logger) *CachedTokenVerifier {
	return &CachedTokenVerifier{
		next:   next,
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// VerifyToken returns the cached identity or verifies the token upstream.
func (v *CachedTokenVerifier) VerifyToken(ctx context.Context, token string) (*model.Identity, error) {
	key := QuickHash(token)

	// Store errors are treated as a miss.
	if cached, _ := v.store.GetIdentity(ctx, key); cached != nil {
		if cached.ExpiresAt.IsZero() || v.now().Before(cached.ExpiresAt) {
			return cached, nil
		}
	}

	identity, err := v.next.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}

	ttl := v.ttl
	if !identity.ExpiresAt.IsZero() {
		if remaining := identity.ExpiresAt.Sub(v.now()); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl > 0 {
		if err := v.store.SetIdentity(ctx, key, identity, ttl); err != nil {
			v.logger.Warn("identity cache write failed",
				slog.String("error", err.Error()),
				slog.String("token_hash", key),
			)
		}
	}

	return identity, nil
}
