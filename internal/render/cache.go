package render

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// key hashes everything that determines an artifact: the engine version and
// settings, the preamble flag and the exact source handed to the engine.
func key(version, settings string, usePreamble bool, source []byte) string {
	h := sha256.New()

	h.Write([]byte(version))
	h.Write([]byte{0})
	h.Write([]byte(settings))
	h.Write([]byte{0})

	if usePreamble {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}

	h.Write(source)

	return hex.EncodeToString(h.Sum(nil))
}

// Cache is a content-addressed artifact cache. Concurrent requests for the
// same key share a single computation. Failures are not cached.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Artifact
	group   singleflight.Group
	store   *Store
	logger  *slog.Logger
}

// NewCache returns an in-memory cache backed by store, which may be nil.
func NewCache(store *Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}

	return &Cache{
		entries: make(map[string]Artifact),
		store:   store,
		logger:  logger,
	}
}

// Do returns the artifact for key, calling compile at most once per key among
// concurrent callers when it is neither in memory nor in the store.
func (c *Cache) Do(key string, compile func() (Artifact, error)) (Artifact, error) {
	if artifact, ok := c.lookup(key); ok {
		return artifact, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if artifact, ok := c.lookup(key); ok {
			return artifact, nil
		}

		artifact, err := compile()
		if err != nil {
			return nil, err
		}

		c.insert(key, artifact)

		return artifact, nil
	})
	if err != nil {
		return Artifact{}, err
	}

	return v.(Artifact), nil
}

func (c *Cache) lookup(key string) (Artifact, bool) {
	c.mu.RLock()
	artifact, ok := c.entries[key]
	c.mu.RUnlock()

	if ok || c.store == nil {
		return artifact, ok
	}

	artifact, ok, err := c.store.Load(key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)

		return Artifact{}, false
	}

	if ok {
		c.mu.Lock()
		c.entries[key] = artifact
		c.mu.Unlock()
	}

	return artifact, ok
}

func (c *Cache) insert(key string, artifact Artifact) {
	c.mu.Lock()
	c.entries[key] = artifact
	c.mu.Unlock()

	if c.store == nil {
		return
	}

	if err := c.store.Save(key, artifact); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}
