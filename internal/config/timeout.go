package config

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// timeoutCacheTTL bounds how stale a cached timeout may get before
	// the config file is consulted again.
	timeoutCacheTTL = 60 * time.Second
	defaultTimeout  = 30 * time.Second
)

// CachedTimeout reads the tool execution timeout from configuration and
// caches it so hot dispatch paths do not re-read the file on every call.
// It satisfies the engine's TimeoutSource interface.
type CachedTimeout struct {
	loader *Loader

	mu        sync.Mutex
	cached    time.Duration
	fetchedAt time.Time
	ttl       time.Duration
}

// NewCachedTimeout creates a timeout source backed by the given loader.
func NewCachedTimeout(loader *Loader) *CachedTimeout {
	return &CachedTimeout{loader: loader, ttl: timeoutCacheTTL}
}

// Timeout returns the configured per-candidate timeout, refreshing the
// cache when stale. Any load failure degrades to the 30 s default.
func (c *CachedTimeout) Timeout() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.fetchedAt.IsZero() && time.Since(c.fetchedAt) < c.ttl {
		return c.cached
	}

	c.cached = defaultTimeout
	c.fetchedAt = time.Now()

	cfg, err := c.loader.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using default tool timeout")
		return c.cached
	}
	if cfg.Tools.Timeout > 0 {
		c.cached = time.Duration(cfg.Tools.Timeout) * time.Second
	}
	return c.cached
}

// Invalidate drops the cached value so the next read hits the file.
func (c *CachedTimeout) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchedAt = time.Time{}
}
