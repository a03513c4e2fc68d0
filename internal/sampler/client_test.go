package sampler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/maximewewer/timedata/pkg/testing"
)

func TestFromNTP(t *testing.T) {
	tests := []struct {
		name       string
		resp       func() *Response
		suspicious string
		seconds    int64
	}{
		{
			name:    "healthy peer ahead",
			resp:    func() *Response { return fromNTP("192.0.2.10", testutil.NTPResponse(2500*time.Millisecond, 2)) },
			seconds: 2,
		},
		{
			name:    "healthy peer behind",
			resp:    func() *Response { return fromNTP("192.0.2.10", testutil.NTPResponse(-90*time.Second, 3)) },
			seconds: -90,
		},
		{
			name:       "kiss of death",
			resp:       func() *Response { return fromNTP("192.0.2.11", testutil.KoDNTPResponse("DENY")) },
			suspicious: ReasonKissOfDeath,
		},
		{
			name:       "unsynchronized",
			resp:       func() *Response { return fromNTP("192.0.2.12", testutil.UnsynchronizedNTPResponse()) },
			suspicious: ReasonInvalidStratum,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.resp()

			assert.Equal(t, tt.suspicious, r.SuspicionReason())
			if tt.suspicious == "" {
				assert.True(t, r.IsValid())
				assert.Equal(t, tt.seconds, r.OffsetSeconds())
			}
		})
	}
}

func TestResponse_SuspicionReason(t *testing.T) {
	healthy := func() *Response {
		return &Response{Stratum: 2, RTT: 20 * time.Millisecond}
	}

	tests := []struct {
		name   string
		mutate func(*Response)
		want   string
	}{
		{"healthy", func(*Response) {}, ""},
		{"large offset is not suspicious", func(r *Response) { r.Offset = 3 * time.Hour }, ""},
		{"kiss of death", func(r *Response) { r.KissCode = "RATE"; r.Stratum = 0 }, ReasonKissOfDeath},
		{"stratum zero", func(r *Response) { r.Stratum = 0 }, ReasonInvalidStratum},
		{"stratum sixteen", func(r *Response) { r.Stratum = 16 }, ReasonInvalidStratum},
		{"validation error", func(r *Response) { r.ValidateError = errors.New("bad") }, ReasonValidation},
		{"rtt too high", func(r *Response) { r.RTT = 11 * time.Second }, ReasonHighRTT},
		{"rtt at limit", func(r *Response) { r.RTT = MaxAcceptableRTT }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := healthy()
			tt.mutate(r)

			assert.Equal(t, tt.want, r.SuspicionReason())
			assert.Equal(t, tt.want != "", r.IsSuspicious())
		})
	}
}

func TestResponse_OffsetSeconds(t *testing.T) {
	tests := []struct {
		offset time.Duration
		want   int64
	}{
		{0, 0},
		{999 * time.Millisecond, 0},
		{1500 * time.Millisecond, 1},
		{-1500 * time.Millisecond, -1},
		{-999 * time.Millisecond, 0},
		{2 * time.Hour, 7200},
	}

	for _, tt := range tests {
		r := &Response{Offset: tt.offset}
		assert.Equal(t, tt.want, r.OffsetSeconds(), "offset %s", tt.offset)
	}
}

func TestNewClient(t *testing.T) {
	c := NewClient(3*time.Second, 4)
	assert.Equal(t, 3*time.Second, c.timeout)
	assert.Equal(t, 4, c.version)
	assert.Nil(t, c.rateLimiter)

	c = NewClientWithRateLimit(3*time.Second, 4, 0, 1, 1)
	assert.Nil(t, c.rateLimiter, "zero global rate disables limiting")

	c = NewClientWithRateLimit(3*time.Second, 4, 10, 1, 1)
	assert.NotNil(t, c.rateLimiter)
}

func TestClient_QueryRateLimitedCancelled(t *testing.T) {
	c := NewClientWithRateLimit(time.Second, 4, 1, 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := c.Query(ctx, "192.0.2.1")

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "rate limit exceeded")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_QueryRealPeer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test in short mode")
	}

	c := NewClient(5*time.Second, 4)
	resp, err := c.Query(context.Background(), "time.google.com")
	if err != nil {
		t.Skipf("network unavailable: %v", err)
	}

	assert.Equal(t, "time.google.com", resp.Peer)
	assert.False(t, resp.IsSuspicious())
}
