package bootstrap

import (
	"context"
	"sync"
	"time"

	"halomind/internal/adapters/ai"
	redisclient "halomind/internal/adapters/redis"
	"halomind/internal/api"
	"halomind/pkg/errors"
	"halomind/pkg/logger"
)

// Lifecycle manages graceful shutdown of components
type Lifecycle struct {
	shutdownTimeout time.Duration
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		shutdownTimeout: 30 * time.Second,
	}
}

// Shutdown performs coordinated cleanup of all components in order:
// 1. No new requests accepted, open streams drained
// 2. Background model-id saves joined
// 3. Errors flushed and logs synced
// 4. Store connection closed last
func (l *Lifecycle) Shutdown(
	httpServer *api.Server,
	resolver *ai.ModelResolver,
	redisClient *redisclient.Client,
	errorTracker errors.Tracker,
	log *logger.Logger,
) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer shutdownCancel()

	// ========================================
	// Step 1: Stop HTTP Server
	// ========================================
	log.Info("[1/5] Stopping HTTP server...")
	if httpServer != nil {
		httpCtx, httpCancel := context.WithTimeout(shutdownCtx, 10*time.Second)
		if err := httpServer.Shutdown(httpCtx); err != nil {
			log.Errorw("HTTP server shutdown failed", "error", err)
		}
		httpCancel()
	}

	// ========================================
	// Step 2: Join pending settings writes
	// ========================================
	log.Info("[2/5] Waiting for pending settings writes...")
	if resolver != nil {
		l.waitForGoroutines(waitGroupOf(resolver.Wait), 5*time.Second, log)
	}

	// ========================================
	// Step 3: Flush Error Tracker
	// ========================================
	log.Info("[3/5] Flushing error tracker...")
	l.flushErrorTracker(shutdownCtx, errorTracker, log)

	// ========================================
	// Step 4: Sync Logs
	// ========================================
	log.Info("[4/5] Syncing logs...")
	if err := logger.Sync(); err != nil {
		log.Debug("Log sync completed with warnings")
	}

	// ========================================
	// Step 5: Close store connection
	// ========================================
	log.Info("[5/5] Closing store connection...")
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Errorw("Redis close failed", "error", err)
		}
	}

	log.Info("Graceful shutdown complete")
}

// waitGroupOf adapts a blocking wait function to a WaitGroup
func waitGroupOf(wait func()) *sync.WaitGroup {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		wait()
	}()
	return &wg
}

// waitForGoroutines waits for all goroutines with a timeout
func (l *Lifecycle) waitForGoroutines(wg *sync.WaitGroup, timeout time.Duration, log *logger.Logger) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		log.Warnw("Some goroutines did not finish within timeout", "timeout", timeout)
	}
}

// flushErrorTracker flushes the error tracker (Sentry, etc.)
func (l *Lifecycle) flushErrorTracker(ctx context.Context, tracker errors.Tracker, log *logger.Logger) {
	if tracker == nil {
		return
	}

	flushCtx, flushCancel := context.WithTimeout(ctx, 3*time.Second)
	defer flushCancel()

	if err := tracker.Flush(flushCtx); err != nil {
		log.Warnw("Error tracker flush failed", "error", err)
	}
}
