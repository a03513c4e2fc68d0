package sampler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerPool(t *testing.T) {
	tests := []struct {
		name         string
		size         int
		expectedSize int
	}{
		{"Normal size", 5, 5},
		{"Zero size defaults to 1", 0, 1},
		{"Negative size defaults to 1", -5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewWorkerPool(tt.size, NewMockClient())
			assert.Equal(t, tt.expectedSize, pool.Size())
		})
	}
}

func TestWorkerPool_Execute(t *testing.T) {
	mock := NewMockClient()
	mock.SetupSuccessfulPeer("peer1", 5*time.Second, 2)
	mock.SetupSuccessfulPeer("peer2", 10*time.Second, 2)
	mock.SetupUnreachablePeer("peer3")

	pool := NewWorkerPool(2, mock)
	results, err := pool.Execute(context.Background(), []string{"peer1", "peer2", "peer3"})

	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NoError(t, results["peer1"].Error)
	assert.Equal(t, 5*time.Second, results["peer1"].Response.Offset)
	assert.NoError(t, results["peer2"].Error)
	assert.Error(t, results["peer3"].Error)
	assert.Nil(t, results["peer3"].Response)
}

func TestWorkerPool_NoPeers(t *testing.T) {
	pool := NewWorkerPool(2, NewMockClient())

	_, err := pool.Execute(context.Background(), nil)

	assert.ErrorIs(t, err, ErrNoPeers)
}

// blockingQuerier counts concurrent queries and blocks until released
type blockingQuerier struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	release  chan struct{}
}

func (q *blockingQuerier) Query(ctx context.Context, peer string) (*Response, error) {
	n := q.inFlight.Add(1)
	defer q.inFlight.Add(-1)
	for {
		seen := q.maxSeen.Load()
		if n <= seen || q.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	select {
	case <-q.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &Response{Peer: peer, Stratum: 2}, nil
}

func TestWorkerPool_BoundedConcurrency(t *testing.T) {
	q := &blockingQuerier{release: make(chan struct{})}
	pool := NewWorkerPool(3, q)

	peers := make([]string, 10)
	for i := range peers {
		peers[i] = fmt.Sprintf("peer%d", i)
	}

	done := make(chan map[string]JobResult)
	go func() {
		results, _ := pool.Execute(context.Background(), peers)
		done <- results
	}()

	time.Sleep(20 * time.Millisecond)
	close(q.release)
	results := <-done

	assert.Len(t, results, 10)
	assert.LessOrEqual(t, q.maxSeen.Load(), int32(3))
}

func TestWorkerPool_AlreadyRunning(t *testing.T) {
	q := &blockingQuerier{release: make(chan struct{})}
	pool := NewWorkerPool(1, q)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = pool.Execute(context.Background(), []string{"peer"})
	}()

	require.Eventually(t, func() bool { return q.inFlight.Load() == 1 }, time.Second, time.Millisecond)

	_, err := pool.Execute(context.Background(), []string{"other"})
	assert.ErrorIs(t, err, ErrPoolRunning)

	close(q.release)
	wg.Wait()
}

func TestWorkerPool_ContextCancelled(t *testing.T) {
	mock := NewMockClient()
	mock.SetupSuccessfulPeer("slow", 0, 2)
	mock.SetDelay("slow", time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	results, err := NewWorkerPool(1, mock).Execute(ctx, []string{"slow", "never"})

	require.NoError(t, err)
	assert.ErrorIs(t, results["slow"].Error, context.DeadlineExceeded)
	assert.ErrorIs(t, results["never"].Error, context.DeadlineExceeded)
	assert.Equal(t, 0, mock.GetCallCount("never"))
}

func TestWorkerPool_EmptyResponse(t *testing.T) {
	pool := NewWorkerPool(1, QuerierFunc(func(context.Context, string) (*Response, error) {
		return nil, nil
	}))

	results, err := pool.Execute(context.Background(), []string{"peer"})

	require.NoError(t, err)
	assert.Error(t, results["peer"].Error)
}
