package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/newsguard/internal/model"
)

// Cache stores serialized predictions. Implementations are safe for
// concurrent use.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from a namespace (classifier identity) and the
// text being classified.
func Key(namespace, text string) string {
	hash := sha256.Sum256([]byte(text))
	return "newsguard:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}

// New builds the cache described by config: nil when disabled, memory only
// when no directory is set, memory in front of disk otherwise.
func New(config model.CacheConfig) Cache {
	if !config.Enabled {
		return nil
	}
	memory := NewMemoryCache(config.MemoryTTL, 10*time.Minute)
	if config.Dir == "" {
		return memory
	}
	return NewLayeredCache(memory, NewDiskCache(config.Dir, config.DiskTTL))
}
