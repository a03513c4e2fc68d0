// Package ratelimit provides a global plus per-peer token bucket limiter.
//
// The sampler uses it to pace outbound queries and the HTTP server uses it
// to throttle inbound handshakes by remote address.
package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

const (
	// DefaultMaxPeers bounds the number of per-peer limiters kept in memory
	DefaultMaxPeers = 4096

	// Unlimited disables the limit it is passed for
	Unlimited = float64(rate.Inf)
)

// RateLimiter manages rate limiting keyed by peer
type RateLimiter struct {
	global      *rate.Limiter
	perPeer     map[string]*rate.Limiter
	mu          sync.RWMutex
	perPeerRate float64
	burstSize   int
	maxPeers    int
}

// NewRateLimiter creates a new rate limiter. Rates are events per second.
func NewRateLimiter(globalRate, perPeerRate float64, burstSize int) *RateLimiter {
	return &RateLimiter{
		global:      rate.NewLimiter(rate.Limit(globalRate), burstSize),
		perPeer:     make(map[string]*rate.Limiter),
		perPeerRate: perPeerRate,
		burstSize:   burstSize,
		maxPeers:    DefaultMaxPeers,
	}
}

// Wait blocks until both the global and the peer's limiter grant a token
func (rl *RateLimiter) Wait(ctx context.Context, peer string) error {
	if err := rl.global.Wait(ctx); err != nil {
		return fmt.Errorf("global rate limit: %w", err)
	}

	limiter := rl.getLimiterForPeer(peer)
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("per-peer rate limit for %s: %w", peer, err)
	}

	return nil
}

// Allow reports whether a request from peer may proceed now, without waiting
func (rl *RateLimiter) Allow(peer string) bool {
	if !rl.global.Allow() {
		return false
	}
	return rl.getLimiterForPeer(peer).Allow()
}

// Peers returns the number of peers currently tracked
func (rl *RateLimiter) Peers() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.perPeer)
}

// getLimiterForPeer gets or creates a rate limiter for a peer
func (rl *RateLimiter) getLimiterForPeer(peer string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.perPeer[peer]
	rl.mu.RUnlock()

	if exists {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := rl.perPeer[peer]; exists {
		return limiter
	}

	// Start over rather than grow without bound on many distinct peers
	if len(rl.perPeer) >= rl.maxPeers {
		rl.perPeer = make(map[string]*rate.Limiter)
	}

	limiter = rate.NewLimiter(rate.Limit(rl.perPeerRate), rl.burstSize)
	rl.perPeer[peer] = limiter
	return limiter
}
