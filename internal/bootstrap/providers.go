package bootstrap

import (
	"context"
	"time"

	"halomind/internal/adapters/ai"
	"halomind/internal/adapters/config"
	errnoop "halomind/internal/adapters/errors/noop"
	"halomind/internal/adapters/errors/sentry"
	"halomind/internal/adapters/ratelimit"
	redisclient "halomind/internal/adapters/redis"
	"halomind/internal/adapters/retry"
	"halomind/internal/adapters/storage"
	"halomind/internal/api"
	"halomind/internal/api/health"
	"halomind/internal/metrics"
	"halomind/internal/services/study"
	"halomind/pkg/errors"
	"halomind/pkg/logger"
)

const connectTimeout = 5 * time.Second

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure opens the settings store (Redis or memory)
func (c *Container) MustInitInfrastructure() {
	switch c.Config.Storage.Driver {
	case "redis":
		c.Log.Infow("Connecting to Redis...", "addr", c.Config.Redis.Addr())
		ctx, cancel := context.WithTimeout(c.Context, connectTimeout)
		defer cancel()

		client, err := redisclient.NewClient(ctx, c.Config.Redis, redisclient.WithKeyPrefix(c.Config.Storage.KeyPrefix))
		if err != nil {
			c.Log.Fatalf("failed to connect redis: %v", err)
		}
		c.Redis = client
		c.Store = client
		c.Log.Info("Redis connected")
	default:
		c.Log.Warn("Using in-memory settings store, settings are lost on restart")
		c.Store = storage.NewMemoryStore()
	}

	c.Settings = storage.NewSettings(c.Store, c.Log)
}

// ========================================
// Phase 3: Generation layer
// ========================================

// MustInitAI wires credentials, model resolution, providers and resilience
func (c *Container) MustInitAI() {
	cfg := c.Config.AI

	c.AI.Credentials = ai.NewCredentialHolder(ai.NewGeminiFactory(ai.GeminiOptions{}), c.Settings, c.Log)
	ctx, cancel := context.WithTimeout(c.Context, connectTimeout)
	defer cancel()
	if err := c.AI.Credentials.LoadFromStore(ctx, cfg.GeminiKey); err != nil {
		c.Log.Fatalf("failed to initialize primary client: %v", err)
	}

	c.AI.Resolver = ai.NewModelResolver(c.Settings, cfg.DefaultModel, c.Log)
	c.AI.Limiter = ratelimit.NewLimiter(ai.ProviderGemini.String(), cfg.PrimaryRPS, cfg.PrimaryBurst)
	c.AI.Fallback = provideFallback(cfg, c.Log)

	usage, err := provideUsageTracker(cfg)
	if err != nil {
		c.Log.Fatalf("invalid token prices: %v", err)
	}
	c.AI.Usage = usage

	c.AI.Resilience = ai.NewResilience(retry.Config{
		MaxAttempts:    cfg.RetryMaxAttempts,
		InitialDelay:   cfg.RetryInitialDelay,
		Multiplier:     2.0,
		JitterFraction: cfg.RetryJitter,
	}, c.Log,
		ai.WithPrimaryLimiter(c.AI.Limiter),
		ai.WithFallbackEnabled(cfg.FallbackEnabled),
		ai.WithErrorTracker(c.ErrorTracker),
	)

	deps := ai.Deps{
		Holder:      c.AI.Credentials,
		Resolver:    c.AI.Resolver,
		Translator:  ai.NewTranslator(ai.DefaultMapping()),
		Fallback:    c.AI.Fallback,
		Resilience:  c.AI.Resilience,
		Usage:       c.AI.Usage,
		CallTimeout: cfg.CallTimeout,
		Logger:      c.Log,
	}
	c.AI.Orchestrator = ai.NewOrchestrator(deps)

	c.Log.Infow("Generation layer ready",
		"default_model", cfg.DefaultModel,
		"fallback_configured", c.AI.Fallback != nil,
		"fallback_enabled", cfg.FallbackEnabled,
	)
}

// ========================================
// Phase 4: Domain services
// ========================================

// MustInitServices initializes the study service
func (c *Container) MustInitServices() {
	c.Study = study.NewService(c.AI.Orchestrator, c.Log)
}

// ========================================
// Phase 5: Application Layer
// ========================================

// MustInitApplication builds the HTTP API and registers metrics
func (c *Container) MustInitApplication() {
	c.Application.Chats = api.NewChatRegistry(c.Config.AI.ChatIdleTTL, c.Config.AI.ChatMaxSessions)
	c.Application.HealthHandler = health.New(c.Log, health.Checks{
		Credential: c.AI.Credentials.HasCredential,
		Store:      c.Settings.Health,
	}, c.Config.App.Name, Version)

	if c.Config.Metrics.Enabled {
		metrics.Init()
		metrics.RegisterCustomCollector(metrics.NewCustomCollector(c.Log, metrics.StateSource{
			CredentialConfigured: c.AI.Credentials.HasCredential,
			StoreHealth:          c.Settings.Health,
			ActiveChatSessions:   c.Application.Chats.Len,
		}))
	}

	handler := api.NewHandler(c.Study, c.AI.Orchestrator, c.Application.Chats, c.Config.HTTP.MaxBodyBytes, c.Log)
	router := api.NewRouter(api.RouterConfig{
		HTTP:    c.Config.HTTP,
		Metrics: c.Config.Metrics,
	}, handler, c.Application.HealthHandler, c.Log)

	c.Application.HTTPServer = api.NewServer(c.Config.HTTP, router, c.Log)
}

// ========================================
// Providers
// ========================================

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(sentry.Options{
		DSN:         cfg.ErrorTracking.SentryDSN,
		Environment: cfg.ErrorTracking.Environment,
		Release:     cfg.App.Name + "@" + Version,
		SampleRate:  cfg.ErrorTracking.SampleRate,
	})
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// provideFallback builds the OpenRouter client, nil when no key is set
func provideFallback(cfg config.AIConfig, log *logger.Logger) ai.FallbackClient {
	if cfg.OpenRouterKey == "" {
		log.Warn("OPENROUTER_API_KEY not set, fallback provider disabled")
		return nil
	}

	client, err := ai.NewOpenRouterClient(ai.OpenRouterConfig{
		APIKey:  cfg.OpenRouterKey,
		BaseURL: cfg.OpenRouterBaseURL,
		Referer: cfg.OpenRouterReferer,
		Title:   cfg.OpenRouterTitle,
	}, log)
	if err != nil {
		log.Warnw("Failed to initialize fallback provider", "error", err)
		return nil
	}
	return client
}

func provideUsageTracker(cfg config.AIConfig) (*ai.UsageTracker, error) {
	primary, fallback, err := cfg.Prices()
	if err != nil {
		return nil, err
	}
	return ai.NewUsageTracker(map[ai.ProviderName]ai.Price{
		ai.ProviderGemini:     {Input: primary.Input, Output: primary.Output},
		ai.ProviderOpenRouter: {Input: fallback.Input, Output: fallback.Output},
	}), nil
}
