package sampler

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/ntp"
	"github.com/maximewewer/timedata/pkg/logger"
	"github.com/maximewewer/timedata/pkg/ratelimit"
)

// Querier asks a single peer for its clock
type Querier interface {
	Query(ctx context.Context, peer string) (*Response, error)
}

// QuerierFunc adapts a function to Querier
type QuerierFunc func(ctx context.Context, peer string) (*Response, error)

// Query calls f
func (f QuerierFunc) Query(ctx context.Context, peer string) (*Response, error) {
	return f(ctx, peer)
}

// Client queries peers over NTP
type Client struct {
	timeout     time.Duration
	version     int
	rateLimiter *ratelimit.RateLimiter
}

// Response is a peer's answer, reduced to what sampling needs
type Response struct {
	Peer          string
	Offset        time.Duration
	RTT           time.Duration
	Stratum       uint8
	ReferenceID   uint32
	Time          time.Time
	RootDistance  time.Duration
	LeapIndicator uint8
	KissCode      string
	ValidateError error
}

// NewClient creates a new client without rate limiting
func NewClient(timeout time.Duration, version int) *Client {
	return &Client{
		timeout: timeout,
		version: version,
	}
}

// NewClientWithRateLimit creates a new client pacing queries globally and per peer
func NewClientWithRateLimit(timeout time.Duration, version int, globalRate, perPeerRate, burstSize int) *Client {
	var limiter *ratelimit.RateLimiter
	if globalRate > 0 {
		limiter = ratelimit.NewRateLimiter(float64(globalRate), float64(perPeerRate), burstSize)
	}

	return &Client{
		timeout:     timeout,
		version:     version,
		rateLimiter: limiter,
	}
}

// Query performs a single query to peer, given as host, IP or host:port
func (c *Client) Query(ctx context.Context, peer string) (*Response, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx, peer); err != nil {
			return nil, fmt.Errorf("rate limit exceeded: %w", err)
		}
	}

	opts := ntp.QueryOptions{
		Timeout: c.timeout,
		Version: c.version,
	}

	type queryResult struct {
		response *ntp.Response
		err      error
	}

	// Buffered so the query goroutine never blocks after cancellation
	resultChan := make(chan queryResult, 1)

	go func() {
		resp, err := ntp.QueryWithOptions(peer, opts)
		resultChan <- queryResult{response: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("query context cancelled: %w", ctx.Err())
	case result := <-resultChan:
		if result.err != nil {
			logger.Peer("query_failed", peer, map[string]interface{}{
				"error": result.err.Error(),
			})
			return nil, fmt.Errorf("query to %s failed: %w", peer, result.err)
		}

		resp := fromNTP(peer, result.response)

		logger.Peer("query", peer, map[string]interface{}{
			"offset":  resp.Offset.Seconds(),
			"rtt":     resp.RTT.Seconds(),
			"stratum": resp.Stratum,
		})

		return resp, nil
	}
}

func fromNTP(peer string, r *ntp.Response) *Response {
	return &Response{
		Peer:          peer,
		Offset:        r.ClockOffset,
		RTT:           r.RTT,
		Stratum:       r.Stratum,
		ReferenceID:   r.ReferenceID,
		Time:          r.Time,
		RootDistance:  r.RootDistance,
		LeapIndicator: uint8(r.Leap),
		KissCode:      r.KissCode,
		ValidateError: r.Validate(),
	}
}

// IsKissOfDeath checks if the response contains a Kiss-of-Death code
func (r *Response) IsKissOfDeath() bool {
	return r.KissCode != ""
}

// IsValid checks if the response passed validation
func (r *Response) IsValid() bool {
	return r.ValidateError == nil
}

// SuspicionReason names why the response must not become a sample, or
// returns "" for a usable response. The offset itself is never judged
// here; implausible offsets are the estimator's decision.
func (r *Response) SuspicionReason() string {
	switch {
	case r.IsKissOfDeath():
		return ReasonKissOfDeath
	case r.Stratum < MinValidStratum || r.Stratum > MaxValidStratum:
		return ReasonInvalidStratum
	case !r.IsValid():
		return ReasonValidation
	case r.RTT > MaxAcceptableRTT:
		return ReasonHighRTT
	default:
		return ""
	}
}

// IsSuspicious checks if the response has suspicious characteristics
func (r *Response) IsSuspicious() bool {
	return r.SuspicionReason() != ""
}

// OffsetSeconds returns the clock offset in whole seconds, truncated toward zero
func (r *Response) OffsetSeconds() int64 {
	return int64(r.Offset / time.Second)
}
