// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`
	Port   int    `env:"PORT" envDefault:"8080"`

	// Text-generation provider (OpenAI-compatible chat completions).
	GroqAPIKey         string        `env:"GROQ_API_KEY"`
	GroqBaseURL        string        `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	GroqModel          string        `env:"GROQ_MODEL" envDefault:"llama-3.1-8b-instant"`
	GroqFallbackModels []string      `env:"GROQ_FALLBACK_MODELS" envSeparator:","`
	GroqTimeout        time.Duration `env:"GROQ_TIMEOUT" envDefault:"30s"`

	// Job board provider.
	JobsBaseURL string        `env:"JOBS_BASE_URL" envDefault:"https://remotive.com/api/remote-jobs"`
	JobsLimit   int           `env:"JOBS_LIMIT" envDefault:"20"`
	JobsTimeout time.Duration `env:"JOBS_TIMEOUT" envDefault:"15s"`

	// Optional shared cache backend; empty selects the in-process cache.
	RedisURL string `env:"REDIS_URL"`

	// Cache TTLs by volatility class (see usecase.TTLFor).
	CacheTTLDefault      time.Duration `env:"CACHE_TTL_DEFAULT" envDefault:"24h"`
	CacheTTLLong         time.Duration `env:"CACHE_TTL_LONG" envDefault:"168h"`
	CacheTTLAutocomplete time.Duration `env:"CACHE_TTL_AUTOCOMPLETE" envDefault:"2h"`
	CacheSweepCron       string        `env:"CACHE_SWEEP_CRON" envDefault:"0 * * * *"`

	// Prompt budgets. The source material truncated aggressively for cost
	// control; the limits are configurable rather than baked in.
	TitleMaxChars        int `env:"TITLE_MAX_CHARS" envDefault:"120"`
	DescMaxChars         int `env:"DESC_MAX_CHARS" envDefault:"800"`
	AutocompleteMaxChars int `env:"AUTOCOMPLETE_MAX_CHARS" envDefault:"40"`
	CourseMaxChars       int `env:"COURSE_MAX_CHARS" envDefault:"120"`

	// Course fallback applied when the model finds nothing and the query
	// mentions the topic.
	CourseFallbackTopic string `env:"COURSE_FALLBACK_TOPIC" envDefault:"sql"`
	CourseFallbackTitle string `env:"COURSE_FALLBACK_TITLE" envDefault:"SQL for Data Analysis"`
	CourseFallbackURL   string `env:"COURSE_FALLBACK_URL" envDefault:"https://www.coursera.org/learn/sql-for-data-science"`

	// Ingress rate limiting (per caller IP, trailing 60s window).
	RateLimitPerMin int `env:"RATE_LIMIT_PER_MIN" envDefault:"20"`

	// Batch scoring throttle.
	ScoreBatchSize  int           `env:"SCORE_BATCH_SIZE" envDefault:"4"`
	ScoreBatchDelay time.Duration `env:"SCORE_BATCH_DELAY" envDefault:"1s"`

	// AI backoff configuration.
	AIBackoffMaxElapsedTime  time.Duration `env:"AI_BACKOFF_MAX_ELAPSED_TIME" envDefault:"60s"`
	AIBackoffInitialInterval time.Duration `env:"AI_BACKOFF_INITIAL_INTERVAL" envDefault:"2s"`
	AIBackoffMaxInterval     time.Duration `env:"AI_BACKOFF_MAX_INTERVAL" envDefault:"20s"`
	AIBackoffMultiplier      float64       `env:"AI_BACKOFF_MULTIPLIER" envDefault:"2.0"`

	CORSAllowOrigins      string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	HTTPIdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ServiceName           string        `env:"SERVICE_NAME" envDefault:"careerbuddy"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// GetAIBackoffConfig returns backoff configuration appropriate for the current
// environment. Test environments get much shorter intervals.
func (c Config) GetAIBackoffConfig() (maxElapsedTime, initialInterval, maxInterval time.Duration, multiplier float64) {
	if c.IsTest() {
		return 2 * time.Second, 10 * time.Millisecond, 100 * time.Millisecond, 2.0
	}
	return c.AIBackoffMaxElapsedTime, c.AIBackoffInitialInterval, c.AIBackoffMaxInterval, c.AIBackoffMultiplier
}
