package cache

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRistrettoCache(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	cache, err := NewRistrettoCache(DefaultRistrettoConfig(100, logger))
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	defer cache.Close()

	t.Run("set-and-get", func(t *testing.T) {
		if !cache.Set("record:a", "value", time.Hour) {
			t.Error("expected Set to succeed")
		}
		cache.Wait()

		got, found := cache.Get("record:a")
		if !found || got != "value" {
			t.Errorf("expected cached value, got %v (found=%t)", got, found)
		}
	})

	t.Run("get-missing-key", func(t *testing.T) {
		if _, found := cache.Get("record:missing"); found {
			t.Error("expected key to not be found")
		}
	})

	t.Run("delete", func(t *testing.T) {
		cache.Set("record:b", "value", time.Hour)
		cache.Wait()

		cache.Delete("record:b")
		if _, found := cache.Get("record:b"); found {
			t.Error("expected key to be deleted")
		}
	})

	t.Run("ttl-expiration", func(t *testing.T) {
		cache.Set("record:ttl", "value", 200*time.Millisecond)
		cache.Wait()

		if _, found := cache.Get("record:ttl"); !found {
			t.Error("expected key to exist before TTL expires")
		}

		time.Sleep(300 * time.Millisecond)
		if _, found := cache.Get("record:ttl"); found {
			t.Error("expected key to be expired after TTL")
		}
	})
}

func TestNamespaceOf(t *testing.T) {
	tests := map[string]string{
		"record:0xabc": "record",
		"summary:0x12": "summary",
		"plain":        "default",
		":leading":     "default",
	}
	for key, want := range tests {
		if got := namespaceOf(key); got != want {
			t.Errorf("namespaceOf(%q) = %q, want %q", key, got, want)
		}
	}
}
