package timedata

import (
	"sync"
	"time"
)

// Clock reads the local wall clock
type Clock interface {
	Now() time.Time
}

// SystemClock reads the process wall clock
type SystemClock struct{}

// Now returns time.Now
func (SystemClock) Now() time.Time { return time.Now() }

// MockClock is a settable clock for tests and replays
type MockClock struct {
	mu      sync.Mutex
	current time.Time
}

// NewMockClock creates a clock fixed at initial
func NewMockClock(initial time.Time) *MockClock {
	return &MockClock{current: initial}
}

// Now returns the mocked time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Set moves the clock to t
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

// Advance moves the clock forward by d
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

var (
	_ Clock = SystemClock{}
	_ Clock = (*MockClock)(nil)
)
