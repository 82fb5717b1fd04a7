// Package main is the entrypoint for the Code Assistant API server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/codeassist/assistant-api/internal/auth"
	"github.com/codeassist/assistant-api/internal/cache"
	"github.com/codeassist/assistant-api/internal/config"
	"github.com/codeassist/assistant-api/internal/database"
	"github.com/codeassist/assistant-api/internal/gateway"
	"github.com/codeassist/assistant-api/internal/handler"
	"github.com/codeassist/assistant-api/internal/lifecycle"
	"github.com/codeassist/assistant-api/internal/metrics"
	"github.com/codeassist/assistant-api/internal/middleware"
	"github.com/codeassist/assistant-api/internal/server"
	"github.com/codeassist/assistant-api/internal/service"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)
	recorder := metrics.NewPrometheus()

	// Model gateway
	backend, err := gateway.NewBackend(gateway.Options{
		Backend:      cfg.Backend(),
		Model:        cfg.GatewayModel,
		Endpoint:     cfg.GatewayEndpoint,
		APIKey:       cfg.GatewayAPIKey,
		GeminiAPIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		logger.Error("failed to configure model gateway", slog.String("error", err.Error()))
		os.Exit(1)
	}
	model := gateway.NewModel(backend, cfg.GatewayMaxTokens)

	// Database
	db, err := database.New(cfg.DatabaseURL, cfg.DatabaseName)
	if err != nil {
		logger.Error(
			"failed to configure database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}

	// Optional identity cache
	var cacheClient *cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		logger.Info("connected to Redis")
	}

	verifier, err := newVerifier(ctx, cfg, cacheClient, logger)
	if err != nil {
		logger.Error("failed to initialize token verifier", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Preload the model, then connect the database
	lc := lifecycle.New(model, db, logger)
	if err := lc.Start(ctx); err != nil {
		logger.Error("startup failed", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
		if cacheClient != nil {
			_ = cacheClient.Close()
		}
		os.Exit(1)
	}
	logger.Info("connected to database", slog.String("driver", db.Driver()))

	assistant := service.NewAssistantService(model, logger, recorder)

	var cacheChecker handler.HealthChecker
	if cacheClient != nil {
		cacheChecker = cacheClient
	}

	r := setupRouter(routerDeps{
		cfg:            cfg,
		logger:         logger,
		recorder:       recorder,
		metricsHandler: recorder.Handler(),
		verifier:       verifier,
		assistant:      assistant,
		health:         handler.NewHealthHandler(assistant, db, cacheChecker),
	})

	srv := server.New(r, server.Options{
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// LIFO: the lifecycle stops before the cache closes.
	if cacheClient != nil {
		srv.OnShutdown("identity-cache", func(ctx context.Context) error {
			return cacheClient.Close()
		})
	}
	srv.OnShutdown("lifecycle", lc.Stop)

	logger.Info("starting server",
		"addr", srv.Addr(),
		"env", cfg.AppEnv,
		"test_mode", cfg.IsTestMode(),
		"gateway", model.Backend(),
	)

	if err := serve(ctx, srv, lc, logger); err != nil {
		if cacheClient != nil {
			_ = cacheClient.Close()
		}
		os.Exit(1)
	}
}

// serve runs the server. When it fails outside a graceful shutdown the
// lifecycle is stopped so the database is still closed.
func serve(ctx context.Context, srv *server.Server, lc *lifecycle.Lifecycle, logger *slog.Logger) error {
	err := srv.Run(ctx)
	if err == nil {
		return nil
	}

	logger.Error("server error", "error", err)
	if stopErr := lc.Stop(ctx); stopErr != nil {
		logger.Error("lifecycle stop failed", "error", stopErr)
	}
	return err
}

// newVerifier picks the test verifier or the identity provider, optionally cached.
func newVerifier(ctx context.Context, cfg *config.Config, cacheClient *cache.Cache, logger *slog.Logger) (auth.Verifier, error) {
	if cfg.IsTestMode() {
		if !cfg.IsDevelopment() {
			logger.Warn("TEST_MODE enabled outside development", "env", cfg.AppEnv)
		}
		logger.Warn("TEST_MODE enabled: authentication is bypassed")
		return auth.NewTestVerifier(), nil
	}

	firebaseVerifier, err := auth.NewFirebaseVerifier(ctx, []byte(cfg.FirebaseCredentialJSON))
	if err != nil {
		return nil, err
	}

	var tokens auth.TokenVerifier = firebaseVerifier

	if cacheClient != nil {
		tokens = auth.NewCachedTokenVerifier(tokens, cacheClient, cfg.IdentityCacheTTL, logger)
	}
	return auth.NewBearerVerifier(tokens), nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	cfg            *config.Config
	logger         *slog.Logger
	recorder       metrics.Recorder
	metricsHandler http.Handler
	verifier       auth.Verifier
	assistant      *service.AssistantService
	health         *handler.HealthHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	h := handler.New(d.logger)
	assistantHandler := handler.NewAssistantHandler(d.assistant, d.logger)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = d.cfg.GetCORSAllowedOrigins()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger, d.recorder))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.SecurityHeaders(d.cfg.IsProduction()))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(d.cfg.MaxRequestBodySize))

	// Info and health endpoints (no auth required)
	r.Get("/", h.Root)
	r.Get("/ping", h.Ping)
	r.Get("/health", d.health.Health)
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	if d.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.metricsHandler)
	}

	authCfg := middleware.AuthConfig{
		Logger:   d.logger,
		Verifier: d.verifier,
		Metrics:  d.recorder,
	}

	r.Route("/api/assistant", func(r chi.Router) {
		r.Get("/test", h.AssistantTest)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))

			r.Post("/generate", assistantHandler.Generate)
			r.Post("/autocomplete", assistantHandler.Autocomplete)
			r.Post("/reply", assistantHandler.Reply)
			r.Post("/reply-code-only", assistantHandler.ReplyCodeOnly)
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
