package auth

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/codeassist/assistant-api/internal/model"
)

// FirebaseVerifier verifies Firebase ID tokens.
type FirebaseVerifier struct {
	client *fbauth.Client
}

// NewFirebaseVerifier registers the service credential with Firebase and
// creates the auth client. It is called once during startup.
func NewFirebaseVerifier(ctx context.Context, credentialJSON []byte) (*FirebaseVerifier, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsJSON(credentialJSON))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase auth client: %w", err)
	}

	return &FirebaseVerifier{client: client}, nil
}

// VerifyToken checks signature, audience and expiry of an ID token.
func (v *FirebaseVerifier) VerifyToken(ctx context.Context, token string) (*model.Identity, error) {
	decoded, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return identityFromToken(decoded), nil
}

func identityFromToken(token *fbauth.Token) *model.Identity {
	identity := &model.Identity{
		UID:    token.UID,
		Claims: token.Claims,
	}
	if email, ok := token.Claims["email"].(string); ok {
		identity.Email = email
	}
	if token.Expires > 0 {
		identity.ExpiresAt = time.Unix(token.Expires, 0)
	}
	return identity
}
