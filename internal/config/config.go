// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Public base URL of this API (used for checkout redirects)
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Image generation (OpenAI)
	OpenAIAPIKey string `env:"OPENAI_API_KEY,required"`

	// Mock mode: skip credits, generation and storage entirely and
	// return MockImageURL. For UI development without provider cost.
	MockGeneration bool   `env:"MOCK_GENERATION" envDefault:"false"`
	MockImageURL   string `env:"MOCK_IMAGE_URL" envDefault:"https://iconforge-assets.s3.us-east-1.amazonaws.com/mock-icon.png"`

	// Object storage (S3)
	S3Bucket          string `env:"S3_BUCKET,required"`
	S3Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID,required"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY,required"`

	// Billing (Stripe)
	StripeSecretKey     string `env:"STRIPE_SECRET_KEY,required"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
	StripePriceID       string `env:"STRIPE_PRICE_ID,required"`

	// Credits added per completed checkout session
	CreditsPerPurchase int `env:"CREDITS_PER_PURCHASE" envDefault:"100"`

	// Maximum icons per generation request
	MaxIconsPerRequest int `env:"MAX_ICONS_PER_REQUEST" envDefault:"10"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting
	RateLimitAPIEnabled       bool `env:"RATE_LIMIT_API_ENABLED" envDefault:"true"`
	RateLimitCommunityEnabled bool `env:"RATE_LIMIT_COMMUNITY_ENABLED" envDefault:"true"`
	RateLimitCommunityRPS     int  `env:"RATE_LIMIT_COMMUNITY_RPS" envDefault:"20"`
	RateLimitCommunityBurst   int  `env:"RATE_LIMIT_COMMUNITY_BURST" envDefault:"10"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 64KB; requests are small JSON)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"65536"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
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

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
