package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"halomind/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	AI            AIConfig
	Storage       StorageConfig
	Redis         RedisConfig
	ErrorTracking ErrorTrackingConfig
	Metrics       MetricsConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"halomind"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type HTTPConfig struct {
	Host           string        `envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port           int           `envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout    time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"30s"`
	WriteTimeout   time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"0s"` // streaming responses outlive any fixed write deadline
	IdleTimeout    time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"120s"`
	AllowedOrigins []string      `envconfig:"HTTP_ALLOWED_ORIGINS" default:"http://localhost:*,https://*"`
	MaxBodyBytes   int64         `envconfig:"HTTP_MAX_BODY_BYTES" default:"26214400"`
}

func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type AIConfig struct {
	// GeminiKey seeds the credential store on first start; the stored value wins afterwards
	GeminiKey    string `envconfig:"GEMINI_API_KEY"`
	DefaultModel string `envconfig:"AI_DEFAULT_MODEL" default:"gemini-2.5-flash"`

	OpenRouterKey     string `envconfig:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string `envconfig:"OPENROUTER_BASE_URL" default:"https://openrouter.ai/api/v1"`
	OpenRouterReferer string `envconfig:"OPENROUTER_REFERER" default:"https://halomind.app"`
	OpenRouterTitle   string `envconfig:"OPENROUTER_TITLE" default:"Halomind"`
	FallbackEnabled   bool   `envconfig:"AI_FALLBACK_ENABLED" default:"true"`

	RetryMaxAttempts  int           `envconfig:"AI_RETRY_MAX_ATTEMPTS" default:"3"`
	RetryInitialDelay time.Duration `envconfig:"AI_RETRY_INITIAL_DELAY" default:"1s"`
	RetryJitter       float64       `envconfig:"AI_RETRY_JITTER" default:"0.2"`
	CallTimeout       time.Duration `envconfig:"AI_CALL_TIMEOUT" default:"120s"`

	ChatIdleTTL     time.Duration `envconfig:"AI_CHAT_IDLE_TTL" default:"30m"`
	ChatMaxSessions int           `envconfig:"AI_CHAT_MAX_SESSIONS" default:"1000"`

	PrimaryRPS   float64 `envconfig:"AI_PRIMARY_RPS" default:"5"`
	PrimaryBurst int     `envconfig:"AI_PRIMARY_BURST" default:"10"`

	// USD per million tokens
	GeminiInputPrice      string `envconfig:"AI_GEMINI_INPUT_PRICE" default:"0.30"`
	GeminiOutputPrice     string `envconfig:"AI_GEMINI_OUTPUT_PRICE" default:"2.50"`
	OpenRouterInputPrice  string `envconfig:"AI_OPENROUTER_INPUT_PRICE" default:"0.30"`
	OpenRouterOutputPrice string `envconfig:"AI_OPENROUTER_OUTPUT_PRICE" default:"2.50"`
}

// Price is a per-million-token input/output price pair
type Price struct {
	Input  decimal.Decimal
	Output decimal.Decimal
}

// Prices parses the configured token prices
func (c AIConfig) Prices() (primary Price, fallback Price, err error) {
	parse := func(name, v string) decimal.Decimal {
		if err != nil {
			return decimal.Zero
		}
		d, perr := decimal.NewFromString(v)
		if perr != nil {
			err = errors.Wrapf(perr, "invalid %s", name)
		}
		return d
	}
	primary = Price{
		Input:  parse("AI_GEMINI_INPUT_PRICE", c.GeminiInputPrice),
		Output: parse("AI_GEMINI_OUTPUT_PRICE", c.GeminiOutputPrice),
	}
	fallback = Price{
		Input:  parse("AI_OPENROUTER_INPUT_PRICE", c.OpenRouterInputPrice),
		Output: parse("AI_OPENROUTER_OUTPUT_PRICE", c.OpenRouterOutputPrice),
	}
	return primary, fallback, err
}

type StorageConfig struct {
	Driver    string `envconfig:"STORAGE_DRIVER" default:"memory"` // memory | redis
	KeyPrefix string `envconfig:"STORAGE_KEY_PREFIX"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type ErrorTrackingConfig struct {
	Enabled     bool    `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	Provider    string  `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string  `envconfig:"SENTRY_DSN"`
	Environment string  `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
	SampleRate  float64 `envconfig:"SENTRY_SAMPLE_RATE" default:"1.0"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"METRICS_PATH" default:"/metrics"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express
func (c *Config) Validate() error {
	var errs errors.MultiError

	switch c.Storage.Driver {
	case "memory", "redis":
	default:
		errs.Add(errors.NewValidationError("STORAGE_DRIVER", "must be memory or redis"))
	}
	if c.AI.RetryMaxAttempts < 1 {
		errs.Add(errors.NewValidationError("AI_RETRY_MAX_ATTEMPTS", "must be at least 1"))
	}
	if c.AI.RetryJitter < 0 || c.AI.RetryJitter > 1 {
		errs.Add(errors.NewValidationError("AI_RETRY_JITTER", "must be within [0, 1]"))
	}
	if c.AI.PrimaryRPS <= 0 || c.AI.PrimaryBurst < 1 {
		errs.Add(errors.NewValidationError("AI_PRIMARY_RPS", "rate limit must be positive"))
	}
	if c.ErrorTracking.Enabled && c.ErrorTracking.Provider == "sentry" && c.ErrorTracking.SentryDSN == "" {
		errs.Add(errors.NewValidationError("SENTRY_DSN", "required when error tracking is enabled"))
	}
	if _, _, err := c.AI.Prices(); err != nil {
		errs.Add(err)
	}

	return errs.ToError()
}
