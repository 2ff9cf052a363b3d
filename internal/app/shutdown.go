package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)

	// Cancel context to stop the scanner between cycles
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	err := a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	// Wait for the scanner to finish its current cycle before closing
	// what it writes to.
	a.wg.Wait()

	a.closeAll()

	a.logger.Info("application-shutdown-complete")

	return nil
}

// closeAll releases every component that was set up. It tolerates a
// partially constructed App.
func (a *App) closeAll() {
	a.cancel()

	if a.hub != nil {
		a.hub.Close()
	}

	if a.storage != nil {
		err := a.storage.Close()
		if err != nil {
			a.logger.Error("storage-close-error", zap.Error(err))
		}
	}

	if a.redis != nil {
		err := a.redis.Close()
		if err != nil {
			a.logger.Error("redis-close-error", zap.Error(err))
		}
	}

	if a.providerCache != nil {
		a.providerCache.Close()
	}
}
