package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/codeassist/assistant-api/internal/model"
)

// BearerPrefix is the required scheme prefix of the Authorization header.
const BearerPrefix = "Bearer "

// Authentication errors. All of them wrap ErrUnauthenticated.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrMissingToken     = fmt.Errorf("%w: missing authorization header", ErrUnauthenticated)
	ErrInvalidFormat    = fmt.Errorf("%w: invalid token format", ErrUnauthenticated)
	ErrInvalidOrExpired = fmt.Errorf("%w: invalid or expired token", ErrUnauthenticated)
)

// Verifier validates the Authorization header of a request.
type Verifier interface {
	Verify(ctx context.Context, authorization string) (*model.Identity, error)
}

// TokenVerifier checks a raw ID token against an identity provider.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*model.Identity, error)
}

// TestVerifier accepts every request and returns the fixed test identity.
type TestVerifier struct{}

// NewTestVerifier creates a verifier for TEST_MODE.
func NewTestVerifier() *TestVerifier {
	return &TestVerifier{}
}

// Verify always succeeds, whatever the header holds.
func (v *TestVerifier) Verify(ctx context.Context, authorization string) (*model.Identity, error) {
	return model.TestIdentity(), nil
}

// BearerVerifier enforces the "Bearer " scheme and delegates the token to a TokenVerifier.
type BearerVerifier struct {
	tokens TokenVerifier
}

// NewBearerVerifier creates a production verifier backed by the given token verifier.
func NewBearerVerifier(tokens TokenVerifier) *BearerVerifier {
	return &BearerVerifier{tokens: tokens}
}

// Verify parses the header and verifies the token.
// Provider errors are reported as ErrInvalidOrExpired.
func (v *BearerVerifier) Verify(ctx context.Context, authorization string) (*model.Identity, error) {
	token, err := ParseBearer(authorization)
	if err != nil {
		return nil, err
	}

	identity, err := v.tokens.VerifyToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrExpired, err)
	}
	return identity, nil
}

// ParseBearer extracts the token from an Authorization header value.
func ParseBearer(authorization string) (string, error) {
	if authorization == "" {
		return "", ErrMissingToken
	}
	if !strings.HasPrefix(authorization, BearerPrefix) {
		return "", ErrInvalidFormat
	}

	token := strings.TrimSpace(strings.TrimPrefix(authorization, BearerPrefix))
	if token == "" {
		return "", ErrInvalidFormat
	}
	return token, nil
}

// QuickHash creates a short, non-reversible fingerprint of a token for cache keys and logs.
func QuickHash(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16]) // Use first 16 bytes (32 hex chars)
}
