package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application. The feed closes before
// the processor is awaited so no event is left half-settled, and storage
// closes last.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	err := a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	if a.feed != nil {
		err = a.feed.Close()
		if err != nil {
			a.logger.Error("ledger-feed-close-error", zap.Error(err))
		}
	}

	// The processor exits once the feed channel is closed; cancel covers
	// the case where the feed never started.
	a.cancel()
	a.processor.Wait()

	err = a.storage.Close()
	if err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}

	a.cache.Close()

	a.wg.Wait()

	a.logger.Info("application-shutdown-complete")

	return nil
}
