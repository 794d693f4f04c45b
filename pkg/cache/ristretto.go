package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

// RistrettoCache is a Cache backed by Ristretto. Every entry costs 1, so
// MaxCost is an item count.
type RistrettoCache struct {
	cache  *ristretto.Cache
	logger *zap.Logger
}

// RistrettoConfig holds configuration for Ristretto cache.
type RistrettoConfig struct {
	NumCounters int64 // ~10x expected items
	MaxCost     int64 // max items
	BufferItems int64
	Logger      *zap.Logger
}

// DefaultRistrettoConfig sizes the cache for maxItems entries.
func DefaultRistrettoConfig(maxItems int64, logger *zap.Logger) *RistrettoConfig {
	return &RistrettoConfig{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,
		Logger:      logger,
	}
}

// NewRistrettoCache creates a new Ristretto-backed cache.
func NewRistrettoCache(cfg *RistrettoConfig) (*RistrettoCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, err
	}

	return &RistrettoCache{cache: cache, logger: cfg.Logger}, nil
}

// Get retrieves a value from the cache.
func (r *RistrettoCache) Get(key string) (interface{}, bool) {
	value, found := r.cache.Get(key)
	if found {
		HitsTotal.WithLabelValues(namespaceOf(key)).Inc()
	} else {
		MissesTotal.WithLabelValues(namespaceOf(key)).Inc()
	}
	return value, found
}

// Set stores a value with a TTL. A false return means Ristretto dropped it.
func (r *RistrettoCache) Set(key string, value interface{}, ttl time.Duration) bool {
	ok := r.cache.SetWithTTL(key, value, 1, ttl)
	if ok {
		SetsTotal.WithLabelValues(namespaceOf(key)).Inc()
	} else {
		r.logger.Debug("cache-set-dropped", zap.String("key", key))
	}
	return ok
}

// Delete removes a value from the cache.
func (r *RistrettoCache) Delete(key string) {
	r.cache.Del(key)
}

// Clear removes all values from the cache.
func (r *RistrettoCache) Clear() {
	r.cache.Clear()
	r.logger.Info("cache-cleared")
}

// Close releases the cache's goroutines.
func (r *RistrettoCache) Close() {
	r.cache.Close()
	r.logger.Info("cache-closed")
}

// Wait blocks until pending writes are applied.
func (r *RistrettoCache) Wait() {
	r.cache.Wait()
}
