package sampler

import (
	"context"
	"sync"
	"time"

	"github.com/maximewewer/timedata/pkg/logger"
)

// CacheConfig bounds how long resolved peer sets are reused
type CacheConfig struct {
	MinTTL time.Duration // after a failed lookup (default: 5min)
	MaxTTL time.Duration // after repeated successful lookups (default: 60min)
}

type cacheEntry struct {
	peers      []string
	expiresAt  time.Time
	ttl        time.Duration
	errorCount int
}

// CachingResolver reuses peer sets between rounds. A failed refresh falls
// back to the stale set, and servers with a failure history are refreshed
// sooner.
type CachingResolver struct {
	mu      sync.Mutex
	next    Resolver
	entries map[string]*cacheEntry
	minTTL  time.Duration
	maxTTL  time.Duration
	now     func() time.Time
}

// NewCachingResolver wraps next with a peer set cache
func NewCachingResolver(next Resolver, cfg CacheConfig) *CachingResolver {
	if cfg.MinTTL <= 0 {
		cfg.MinTTL = 5 * time.Minute
	}
	if cfg.MaxTTL < cfg.MinTTL {
		cfg.MaxTTL = 12 * cfg.MinTTL
	}

	return &CachingResolver{
		next:    next,
		entries: make(map[string]*cacheEntry),
		minTTL:  cfg.MinTTL,
		maxTTL:  cfg.MaxTTL,
		now:     time.Now,
	}
}

// Resolve returns the cached peers of server, refreshing them once expired
func (c *CachingResolver) Resolve(ctx context.Context, server string) ([]string, error) {
	c.mu.Lock()
	entry, exists := c.entries[server]
	if exists && c.now().Before(entry.expiresAt) {
		peers := entry.peers
		c.mu.Unlock()
		return peers, nil
	}
	c.mu.Unlock()

	peers, err := c.next.Resolve(ctx, server)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		if !exists {
			return nil, err
		}
		entry.errorCount++
		entry.expiresAt = c.now().Add(c.minTTL)

		logger.SafeWarn("sampler", "Peer resolution failed, using stale peers", map[string]interface{}{
			"server":      server,
			"error":       err.Error(),
			"error_count": entry.errorCount,
		})
		return entry.peers, nil
	}

	ttl := c.ttl(exists, entry)
	c.entries[server] = &cacheEntry{
		peers:     peers,
		expiresAt: c.now().Add(ttl),
		ttl:       ttl,
	}

	return peers, nil
}

// ttl starts halfway between the bounds, then follows the lookup history
func (c *CachingResolver) ttl(exists bool, entry *cacheEntry) time.Duration {
	switch {
	case !exists:
		return (c.minTTL + c.maxTTL) / 2
	case entry.errorCount > 0:
		return c.minTTL
	default:
		return c.maxTTL
	}
}

// Invalidate drops the cached peers of server
func (c *CachingResolver) Invalidate(server string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, server)
}

// Len returns the number of cached servers
func (c *CachingResolver) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
