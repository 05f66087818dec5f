// Package main is the entrypoint for the Iconforge API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/iconforge/iconforge/internal/billing"
	"github.com/iconforge/iconforge/internal/cache"
	"github.com/iconforge/iconforge/internal/config"
	"github.com/iconforge/iconforge/internal/handler"
	"github.com/iconforge/iconforge/internal/imagegen"
	"github.com/iconforge/iconforge/internal/metrics"
	"github.com/iconforge/iconforge/internal/middleware"
	"github.com/iconforge/iconforge/internal/repository"
	"github.com/iconforge/iconforge/internal/server"
	"github.com/iconforge/iconforge/internal/service"
	"github.com/iconforge/iconforge/internal/storage"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize object storage
	store, err := storage.New(ctx, storage.Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logger.Error("failed to configure object storage", "error", err)
		os.Exit(1)
	}

	// Initialize image generation and billing clients
	generator := imagegen.New(cfg.OpenAIAPIKey)
	billingClient := billing.New(billing.Config{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		PriceID:       cfg.StripePriceID,
		RedirectURL:   cfg.BaseURL,
	})

	// Initialize services
	metricsRecorder := metrics.NewInMemory()
	iconService := service.NewIconService(
		repo,
		repo,
		generator,
		store,
		cacheClient,
		service.MockOptions{
			Enabled:  cfg.MockGeneration,
			ImageURL: cfg.MockImageURL,
		},
		cfg.MaxIconsPerRequest,
		metricsRecorder,
	)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	iconHandler := handler.NewIconHandler(iconService, logger)
	creditsHandler := handler.NewCreditsHandler(logger, repo)
	checkoutHandler := handler.NewCheckoutHandler(logger, billingClient)
	webhookHandler := handler.NewStripeWebhookHandler(logger, billingClient, repo, cfg.CreditsPerPurchase, metricsRecorder)
	apiKeyHandler := handler.NewAPIKeyHandler(logger, repo)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder)

	// Setup router
	r := setupRouter(routerDeps{
		base:     h,
		health:   healthHandler,
		icons:    iconHandler,
		credits:  creditsHandler,
		checkout: checkoutHandler,
		webhook:  webhookHandler,
		apiKeys:  apiKeyHandler,
		metrics:  metricsHandler,
		repo:     repo,
		cache:    cacheClient,
		cfg:      cfg,
		logger:   logger,
	})

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
		"mock_generation", cfg.MockGeneration,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
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
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	base     *handler.Handler
	health   *handler.HealthHandler
	icons    *handler.IconHandler
	credits  *handler.CreditsHandler
	checkout *handler.CheckoutHandler
	webhook  *handler.StripeWebhookHandler
	apiKeys  *handler.APIKeyHandler
	metrics  *handler.MetricsHandler
	repo     *repository.Repository
	cache    *cache.Cache
	cfg      *config.Config
	logger   *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.DefaultSecurityConfig()))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: d.cfg.GetCORSAllowedOrigins(),
	}))
	r.Use(middleware.MaxBodySize(d.cfg.MaxRequestBodySize))

	// Health endpoints (no auth required)
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)

	// Root info endpoint
	r.Get("/", d.base.Hello)

	// Auth middleware configuration
	authCfg := middleware.AuthConfig{
		Logger:     d.logger,
		Repository: d.repo,
		Cache:      d.cache,
	}

	// Rate limit middleware configuration
	rateLimitCfg := middleware.RateLimitConfig{
		Logger:           d.logger,
		Cache:            d.cache,
		APIEnabled:       d.cfg.RateLimitAPIEnabled,
		CommunityEnabled: d.cfg.RateLimitCommunityEnabled,
		CommunityRPS:     d.cfg.RateLimitCommunityRPS,
		CommunityBurst:   d.cfg.RateLimitCommunityBurst,
	}

	// API v1 routes (require authentication)
	r.Route("/api/v1", func(r chi.Router) {
		// Apply auth and rate limit middleware to all API routes
		r.Use(middleware.Auth(authCfg))
		r.Use(middleware.RateLimitAPI(rateLimitCfg))

		// Icon generation and listing (write scope spends credits)
		r.Route("/icons", func(r chi.Router) {
			r.With(middleware.RequireWrite()).Post("/", d.icons.Generate)
			r.With(middleware.RequireRead()).Get("/", d.icons.ListMine)
		})

		// Credits and billing
		r.With(middleware.RequireRead()).Get("/credits", d.credits.Balance)
		r.With(middleware.RequireWrite()).Post("/checkout", d.checkout.Create)

		// API key management (requires admin scope for mutations)
		r.Route("/api-keys", func(r chi.Router) {
			r.With(middleware.RequireRead()).Get("/", d.apiKeys.ListAPIKeys)
			r.With(middleware.RequireAdmin()).Post("/", d.apiKeys.CreateAPIKey)
			r.With(middleware.RequireAdmin()).Delete("/{key_id}", d.apiKeys.RevokeAPIKey)
			r.With(middleware.RequireAdmin()).Post("/{key_id}/rotate", d.apiKeys.RotateAPIKey)
		})
	})

	// Public community feed with IP-based rate limiting (no auth required)
	r.With(middleware.RateLimitIP(rateLimitCfg)).Get("/community/icons", d.icons.Community)

	// Stripe webhook; authenticated by signature, not API key
	r.Post("/webhooks/stripe", d.webhook.Handle)

	// Operational metrics (admin scope)
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))
		r.Use(middleware.RequireAdmin())
		r.Get("/metrics", d.metrics.Metrics)
	})

	// 404 and 405 handlers
	r.NotFound(d.base.NotFound)
	r.MethodNotAllowed(d.base.MethodNotAllowed)

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
