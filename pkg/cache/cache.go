// Package cache memoises reputation lookups for the HTTP API.
package cache

import (
	"strings"
	"time"
)

// Cache is a TTL key-value cache. Keys are namespaced as "<namespace>:<id>".
type Cache interface {
	// Get returns (value, true) if found.
	Get(key string) (interface{}, bool)

	// Set stores value for ttl. Admission is best-effort.
	Set(key string, value interface{}, ttl time.Duration) bool

	Delete(key string)
	Clear()
	Close()
}

func namespaceOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "default"
}
