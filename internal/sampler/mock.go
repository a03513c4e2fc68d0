package sampler

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MockClient is a Querier with scripted answers for tests
type MockClient struct {
	mu         sync.RWMutex
	responses  map[string]*Response
	errors     map[string]error
	delays     map[string]time.Duration
	callCounts map[string]int
}

// NewMockClient creates an empty mock
func NewMockClient() *MockClient {
	return &MockClient{
		responses:  make(map[string]*Response),
		errors:     make(map[string]error),
		delays:     make(map[string]time.Duration),
		callCounts: make(map[string]int),
	}
}

// Query returns the scripted answer for peer
func (m *MockClient) Query(ctx context.Context, peer string) (*Response, error) {
	m.mu.Lock()
	m.callCounts[peer]++
	delay, hasDelay := m.delays[peer]
	m.mu.Unlock()

	if hasDelay {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, ok := m.errors[peer]; ok {
		return nil, err
	}
	if resp, ok := m.responses[peer]; ok {
		clone := *resp
		return &clone, nil
	}
	return nil, errors.New("peer not configured in mock")
}

// SetupSuccessfulPeer makes peer answer with a healthy response at offset
func (m *MockClient) SetupSuccessfulPeer(peer string, offset time.Duration, stratum uint8) {
	m.SetResponse(peer, &Response{
		Peer:         peer,
		Offset:       offset,
		RTT:          50 * time.Millisecond,
		Stratum:      stratum,
		ReferenceID:  0x4E495354,
		Time:         time.Now(),
		RootDistance: 15 * time.Millisecond,
	})
}

// SetupKoDPeer makes peer answer with a Kiss-of-Death
func (m *MockClient) SetupKoDPeer(peer, code string) {
	m.SetResponse(peer, &Response{
		Peer:          peer,
		RTT:           50 * time.Millisecond,
		LeapIndicator: 3,
		Time:          time.Now(),
		KissCode:      code,
	})
}

// SetupUnreachablePeer makes every query to peer fail
func (m *MockClient) SetupUnreachablePeer(peer string) {
	m.SetError(peer, errors.New("i/o timeout"))
}

// SetResponse sets a custom response for a peer
func (m *MockClient) SetResponse(peer string, resp *Response) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.errors, peer)
	m.responses[peer] = resp
}

// SetError sets a custom error for a peer
func (m *MockClient) SetError(peer string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errors[peer] = err
}

// SetDelay sets a delay before responding
func (m *MockClient) SetDelay(peer string, delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.delays[peer] = delay
}

// GetCallCount returns the number of times a peer was queried
func (m *MockClient) GetCallCount(peer string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.callCounts[peer]
}
