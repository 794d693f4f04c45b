package feed

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BackoffConfig controls reconnect pacing.
type BackoffConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64 // 0.2 = up to 20% extra
}

// Backoff is an exponential backoff with jitter, shared by every reconnect
// attempt of one subscriber.
type Backoff struct {
	config  BackoffConfig
	logger  *zap.Logger
	mu      sync.Mutex
	current time.Duration
}

// NewBackoff creates a backoff starting at cfg.InitialDelay.
func NewBackoff(cfg BackoffConfig, logger *zap.Logger) *Backoff {
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	return &Backoff{config: cfg, logger: logger, current: cfg.InitialDelay}
}

// Retry calls connect until it succeeds or ctx is done, sleeping between
// attempts. The delay is reset after a successful attempt.
func (b *Backoff) Retry(ctx context.Context, connect func(context.Context) error) error {
	for {
		delay := b.Next()
		b.logger.Info("feed-reconnect-scheduled", zap.Duration("delay", delay))
		ReconnectAttemptsTotal.Inc()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		err := connect(ctx)
		if err == nil {
			b.Reset()
			b.logger.Info("feed-reconnected")
			return nil
		}

		ReconnectFailuresTotal.Inc()
		b.logger.Warn("feed-reconnect-failed", zap.Error(err))
		b.grow()
	}
}

// Next returns the current delay with jitter applied.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	return time.Duration(float64(b.current) * (1 + rand.Float64()*b.config.Jitter))
}

// Reset returns the delay to its initial value.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = b.config.InitialDelay
}

func (b *Backoff) grow() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = time.Duration(float64(b.current) * b.config.Multiplier)
	if b.current > b.config.MaxDelay {
		b.current = b.config.MaxDelay
	}
}
