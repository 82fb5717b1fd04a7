package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/codeassist/assistant-api/internal/auth"
	"github.com/codeassist/assistant-api/internal/metrics"
)

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier auth.Verifier
	Metrics  metrics.Recorder
}

// Auth returns a middleware that verifies the Authorization header and
// injects the caller Identity into the request context.
// Every failure is answered with 401 and a generic detail.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := cfg.Verifier.Verify(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				reason, detail := authFailure(err)
				recorder.IncAuthFailure(reason)

				attrs := []any{
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				}
				if reason == "invalid_token" {
					attrs = append(attrs, slog.String("error", err.Error()))
				}
				cfg.Logger.Warn("authentication failed", attrs...)

				writeDetail(w, http.StatusUnauthorized, detail)
				return
			}

			cfg.Logger.Debug("authentication successful",
				slog.String("uid", identity.UID),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authFailure maps a verifier error to a metric reason and a client-safe detail.
func authFailure(err error) (reason, detail string) {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "missing_token", "Not authenticated"
	case errors.Is(err, auth.ErrInvalidFormat):
		return "invalid_format", "Invalid token format"
	default:
		return "invalid_token", "Invalid or expired token"
	}
}
