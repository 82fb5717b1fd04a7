// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Gateway backends.
const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"
	BackendStatic = "static"
)

// Startup errors for the identity provider credential.
var (
	ErrMissingCredential = errors.New("missing FIREBASE_CREDENTIAL_JSON environment variable")
	ErrInvalidCredential = errors.New("invalid FIREBASE_CREDENTIAL_JSON: not valid JSON")
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	Port     int    `env:"PORT" envDefault:"7860"`
	// TestMode bypasses credential verification. Only the exact value "true" enables it.
	TestMode string `env:"TEST_MODE"`

	// Identity provider service account, raw JSON.
	FirebaseCredentialJSON string `env:"FIREBASE_CREDENTIAL_JSON"`

	// Database (MongoDB or PostgreSQL, chosen by URL scheme)
	DatabaseURL  string `env:"DATABASE_URL,required,notEmpty"`
	DatabaseName string `env:"DATABASE_NAME" envDefault:"code_assistant"`

	// Optional Redis cache for verified identities
	RedisURL         string        `env:"REDIS_URL"`
	IdentityCacheTTL time.Duration `env:"IDENTITY_CACHE_TTL" envDefault:"5m"`

	// Model gateway
	GatewayBackend   string `env:"GATEWAY_BACKEND"`
	GatewayModel     string `env:"GATEWAY_MODEL"`
	GatewayEndpoint  string `env:"GATEWAY_ENDPOINT"`
	GatewayAPIKey    string `env:"GATEWAY_API_KEY"`
	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	GatewayMaxTokens int    `env:"GATEWAY_MAX_TOKENS" envDefault:"1024"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts. WriteTimeout is disabled by default so slow model calls are waited on.
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"0s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsTestMode reports whether TEST_MODE is exactly "true".
func (c *Config) IsTestMode() bool {
	return c.TestMode == "true"
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Backend returns the configured gateway backend.
// Test mode falls back to the static backend when none is set.
func (c *Config) Backend() string {
	if c.GatewayBackend != "" {
		return strings.ToLower(c.GatewayBackend)
	}
	if c.IsTestMode() {
		return BackendStatic
	}
	return BackendGemini
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks settings that cannot be expressed with struct tags.
func (c *Config) Validate() error {
	if !c.IsTestMode() {
		if c.FirebaseCredentialJSON == "" {
			return ErrMissingCredential
		}
		if !json.Valid([]byte(c.FirebaseCredentialJSON)) {
			return ErrInvalidCredential
		}
	}

	switch c.Backend() {
	case BackendGemini, BackendOpenAI, BackendStatic:
	default:
		return fmt.Errorf("unknown GATEWAY_BACKEND %q", c.GatewayBackend)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}

	return nil
}

// Load parses environment variables and returns a validated Config.
// A .env file in the working directory is read first; variables already
// present in the environment take precedence.
// Returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
