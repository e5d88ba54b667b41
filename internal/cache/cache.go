package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a namespaced cache key. The namespace keeps registry
// snapshots and web-search responses from colliding in a shared cache.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return "memoir-v1-" + namespace + "-" + hex.EncodeToString(h.Sum(nil))
}

// New builds a cache for the given settings: layered (memory + disk) when a
// disk directory is configured, memory-only otherwise.
func New(dir string, ttl time.Duration) Cache {
	if dir != "" {
		return NewLayeredCache(ttl, dir, ttl)
	}
	return NewMemoryCache(ttl, 10*time.Minute)
}
