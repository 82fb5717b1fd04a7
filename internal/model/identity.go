// Package model defines domain entities for the application.
package model

import "time"

// Test identity returned by the verifier when TEST_MODE is enabled.
const (
	TestUserID    = "test_user"
	TestUserEmail = "test@example.com"
)

// Identity is the authenticated caller of a request.
// It lives for a single request and is never persisted.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	// Claims holds the full decoded claim set when issued by the identity provider.
	Claims map[string]any `json:"claims,omitempty"`
	// ExpiresAt is the token expiry; zero when unknown.
	ExpiresAt time.Time `json:"-"`
}

// TestIdentity returns the fixed identity used in test mode.
func TestIdentity() *Identity {
	return &Identity{
		UID:   TestUserID,
		Email: TestUserEmail,
	}
}
