package bootstrap

import (
	"context"

	"golang.org/x/sync/errgroup"

	"halomind/internal/adapters/ai"
	"halomind/internal/adapters/config"
	"halomind/internal/adapters/ratelimit"
	redisclient "halomind/internal/adapters/redis"
	"halomind/internal/adapters/storage"
	"halomind/internal/api"
	"halomind/internal/api/health"
	"halomind/internal/services/study"
	"halomind/pkg/errors"
	"halomind/pkg/logger"
)

// Version is stamped at build time
var Version = "dev"

// Container holds all application dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure Layer
	Redis    *redisclient.Client // nil unless STORAGE_DRIVER=redis
	Store    storage.Store
	Settings *storage.Settings

	// Generation layer
	AI *AI

	// Domain services
	Study *study.Service

	// Application Layer
	Application *Application

	// Lifecycle management
	Lifecycle *Lifecycle
	Context   context.Context
	Cancel    context.CancelFunc
}

// AI groups the orchestration components
type AI struct {
	Credentials  *ai.CredentialHolder
	Resolver     *ai.ModelResolver
	Limiter      *ratelimit.Limiter
	Resilience   *ai.Resilience
	Fallback     ai.FallbackClient // nil when no fallback key is configured
	Usage        *ai.UsageTracker
	Orchestrator *ai.Orchestrator
}

// Application groups application layer components
type Application struct {
	HTTPServer    *api.Server
	HealthHandler *health.Handler
	Chats         *api.ChatRegistry
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		AI:          &AI{},
		Application: &Application{},
		Lifecycle:   NewLifecycle(),
		Context:     ctx,
		Cancel:      cancel,
	}
}

// MustInit initializes all components in the correct order
// Panics on any initialization error (fail-fast at startup)
func (c *Container) MustInit() {
	c.MustInitCore()
	c.MustInitApplication()
}

// MustInitCore initializes everything except the HTTP surface; one-shot
// CLI commands stop here
func (c *Container) MustInitCore() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitAI()
	c.MustInitServices()
}

// Serve runs the HTTP server until it fails or ctx is done, then shuts
// everything down
func (c *Container) Serve(ctx context.Context) error {
	if c.Application.HTTPServer == nil {
		return errors.New("application layer not initialized")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.Application.HTTPServer.Start()
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-c.Context.Done():
		}
		c.Shutdown()
		return nil
	})

	c.Log.Infow("All systems operational",
		"addr", c.Application.HTTPServer.Addr(),
		"fallback", c.AI.Fallback != nil,
		"credential", c.AI.Credentials.HasCredential(),
	)
	return g.Wait()
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")
	c.Cancel()

	c.Lifecycle.Shutdown(
		c.Application.HTTPServer,
		c.AI.Resolver,
		c.Redis,
		c.ErrorTracker,
		c.Log,
	)
}

// Close releases resources of a container initialized with MustInitCore
func (c *Container) Close() {
	c.Cancel()
	if c.AI.Resolver != nil {
		c.AI.Resolver.Wait()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Log.Warnw("redis close failed", "error", err)
		}
	}
	if c.ErrorTracker != nil {
		_ = c.ErrorTracker.Flush(context.Background())
	}
	_ = logger.Sync()
}
