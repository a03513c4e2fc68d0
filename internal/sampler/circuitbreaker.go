package sampler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/maximewewer/timedata/pkg/logger"
	"github.com/sony/gobreaker"
)

// CircuitBreakerClient wraps a Querier with one circuit breaker per peer,
// so a dead peer stops costing a timeout on every round.
type CircuitBreakerClient struct {
	querier  Querier
	breakers map[string]*gobreaker.CircuitBreaker
	mu       sync.RWMutex
	config   CircuitBreakerConfig
}

// CircuitBreakerConfig holds configuration for circuit breakers.
type CircuitBreakerConfig struct {
	// MaxRequests is the maximum number of requests allowed to pass through
	// when the CircuitBreaker is half-open.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state
	// for the CircuitBreaker to clear the internal Counts.
	Interval time.Duration

	// Timeout is the period of the open state,
	// after which the state becomes half-open.
	Timeout time.Duration

	// ReadyToTrip is called with a copy of Counts whenever a request fails in the closed state.
	ReadyToTrip func(counts gobreaker.Counts) bool
}

// DefaultCircuitBreakerConfig returns the default breaker settings
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return NewCircuitBreakerConfigWithThreshold(3, 60*time.Second, 30*time.Second, 0.6)
}

// NewCircuitBreakerConfigWithThreshold creates a config that trips once at
// least three requests were made and the failure ratio reaches failureThreshold.
func NewCircuitBreakerConfigWithThreshold(maxRequests uint32, interval, timeout time.Duration, failureThreshold float64) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxRequests: maxRequests,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 3 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= failureThreshold
		},
	}
}

// NewCircuitBreakerClient creates a new circuit breaker protected client.
func NewCircuitBreakerClient(querier Querier, config CircuitBreakerConfig) *CircuitBreakerClient {
	if config.MaxRequests == 0 {
		config = DefaultCircuitBreakerConfig()
	}

	return &CircuitBreakerClient{
		querier:  querier,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		config:   config,
	}
}

// getBreakerForPeer returns or creates the circuit breaker for peer.
func (cb *CircuitBreakerClient) getBreakerForPeer(peer string) *gobreaker.CircuitBreaker {
	cb.mu.RLock()
	breaker, exists := cb.breakers[peer]
	cb.mu.RUnlock()

	if exists {
		return breaker
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	// Double-check after acquiring write lock
	if breaker, exists := cb.breakers[peer]; exists {
		return breaker
	}

	breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        peer,
		MaxRequests: cb.config.MaxRequests,
		Interval:    cb.config.Interval,
		Timeout:     cb.config.Timeout,
		ReadyToTrip: cb.config.ReadyToTrip,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.SafeInfo("sampler", "Circuit breaker state changed", map[string]interface{}{
				"peer": name,
				"from": from.String(),
				"to":   to.String(),
			})
		},
	})

	cb.breakers[peer] = breaker
	return breaker
}

// Query performs a single query with circuit breaker protection.
func (cb *CircuitBreakerClient) Query(ctx context.Context, peer string) (*Response, error) {
	breaker := cb.getBreakerForPeer(peer)

	result, err := breaker.Execute(func() (interface{}, error) {
		return cb.querier.Query(ctx, peer)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("circuit breaker open for %s: %w", peer, err)
		}
		return nil, err
	}

	return result.(*Response), nil
}

// GetState returns the current state of the circuit breaker for a peer.
func (cb *CircuitBreakerClient) GetState(peer string) gobreaker.State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	breaker, exists := cb.breakers[peer]
	if !exists {
		return gobreaker.StateClosed
	}

	return breaker.State()
}

// GetCounts returns the current counts for a peer's circuit breaker.
func (cb *CircuitBreakerClient) GetCounts(peer string) gobreaker.Counts {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	breaker, exists := cb.breakers[peer]
	if !exists {
		return gobreaker.Counts{}
	}

	return breaker.Counts()
}

// GetAllStates returns the states of all circuit breakers.
func (cb *CircuitBreakerClient) GetAllStates() map[string]gobreaker.State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	states := make(map[string]gobreaker.State, len(cb.breakers))
	for peer, breaker := range cb.breakers {
		states[peer] = breaker.State()
	}

	return states
}
