package sampler

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrNoPeers is returned when a round has nothing to query
	ErrNoPeers = errors.New("no peers to query")

	// ErrPoolRunning is returned when Execute is called while a batch is in flight
	ErrPoolRunning = errors.New("worker pool already running")

	errEmptyResponse = errors.New("querier returned no response")
)

// WorkerPool queries peers with bounded parallelism.
type WorkerPool struct {
	size    int
	querier Querier
	mu      sync.Mutex
	running bool
}

// JobResult contains the result of querying one peer.
type JobResult struct {
	Peer     string
	Response *Response
	Error    error
	Duration time.Duration
}

// NewWorkerPool creates a new worker pool running at most size queries at once.
func NewWorkerPool(size int, querier Querier) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		querier: querier,
	}
}

// Execute queries every peer once and collects the results keyed by peer.
// Peers not reached before ctx is done are reported with ctx.Err().
func (wp *WorkerPool) Execute(ctx context.Context, peers []string) (map[string]JobResult, error) {
	if len(peers) == 0 {
		return nil, ErrNoPeers
	}

	wp.mu.Lock()
	if wp.running {
		wp.mu.Unlock()
		return nil, ErrPoolRunning
	}
	wp.running = true
	wp.mu.Unlock()

	defer func() {
		wp.mu.Lock()
		wp.running = false
		wp.mu.Unlock()
	}()

	jobs := make(chan string, len(peers))
	for _, peer := range peers {
		jobs <- peer
	}
	close(jobs)

	resultsCh := make(chan JobResult, len(peers))

	workerCount := min(wp.size, len(peers))

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go wp.worker(ctx, jobs, resultsCh, &wg)
	}

	wg.Wait()
	close(resultsCh)

	results := make(map[string]JobResult, len(peers))
	for result := range resultsCh {
		results[result.Peer] = result
	}

	return results, nil
}

// worker processes peers from the jobs channel.
func (wp *WorkerPool) worker(ctx context.Context, jobs <-chan string, results chan<- JobResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for peer := range jobs {
		if err := ctx.Err(); err != nil {
			results <- JobResult{Peer: peer, Error: err}
			continue
		}
		results <- wp.processJob(ctx, peer)
	}
}

// processJob executes a single query.
func (wp *WorkerPool) processJob(ctx context.Context, peer string) JobResult {
	start := time.Now()

	resp, err := wp.querier.Query(ctx, peer)
	if err == nil && resp == nil {
		err = errEmptyResponse
	}

	return JobResult{
		Peer:     peer,
		Response: resp,
		Error:    err,
		Duration: time.Since(start),
	}
}

// Size returns the configured worker pool size.
func (wp *WorkerPool) Size() int {
	return wp.size
}
