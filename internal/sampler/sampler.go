// Package sampler feeds the offset estimator from configured peers.
//
// Every round resolves the configured servers into peer addresses, queries
// them in parallel through the rate-limited, circuit-broken client, drops
// suspicious answers and hands each remaining offset, in whole seconds, to
// the estimator.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maximewewer/timedata/internal/timedata"
	"github.com/maximewewer/timedata/pkg/logger"
	"github.com/maximewewer/timedata/pkg/metrics"
)

// SampleSink receives peer offsets
type SampleSink interface {
	AddSample(peer timedata.PeerID, offsetSeconds int64)
}

// Config controls which peers are sampled and how often
type Config struct {
	Servers        []string
	Interval       time.Duration // 0 runs the bootstrap round only
	MaxConcurrency int
}

// RoundResult summarizes one sampling round
type RoundResult struct {
	Peers      int
	Sampled    int
	Suspicious int
	Failed     int
	Duration   time.Duration
}

// Sampler runs sampling rounds against the configured servers
type Sampler struct {
	cfg      Config
	resolver Resolver
	pool     *WorkerPool
	sink     SampleSink
	metrics  *metrics.TimeDataMetrics
}

// New creates a sampler. m may be nil.
func New(cfg Config, querier Querier, resolver Resolver, sink SampleSink, m *metrics.TimeDataMetrics) *Sampler {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultConcurrency
	}
	return &Sampler{
		cfg:      cfg,
		resolver: resolver,
		pool:     NewWorkerPool(cfg.MaxConcurrency, querier),
		sink:     sink,
		metrics:  m,
	}
}

// Run performs the bootstrap round, then repeats every Interval until ctx is done.
func (s *Sampler) Run(ctx context.Context) error {
	if _, err := s.Round(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("sampler", "Bootstrap sampling round failed", err)
	}

	if s.cfg.Interval <= 0 {
		logger.Info("sampler", "Bootstrap round complete, periodic sampling disabled")
		return nil
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Round(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("sampler", "Sampling round failed", err)
			}
		}
	}
}

// Round queries every peer once and feeds usable offsets to the sink
func (s *Sampler) Round(ctx context.Context) (RoundResult, error) {
	start := time.Now()

	peers, origin := s.resolvePeers(ctx)
	result := RoundResult{Peers: len(peers)}

	jobs, err := s.pool.Execute(ctx, peers)
	if err != nil {
		s.observeRound("error", start)
		return result, fmt.Errorf("sampling round: %w", err)
	}

	for _, peer := range peers {
		job := jobs[peer]
		server := origin[peer]

		switch {
		case job.Error != nil:
			result.Failed++
			s.observePeer(server, "error", job.Duration)
			logger.Peer("query_error", peer, map[string]interface{}{
				"server": server,
				"error":  job.Error.Error(),
			})

		case job.Response.IsSuspicious():
			result.Suspicious++
			s.observePeer(server, "suspicious", job.Duration)
			logger.Security("suspicious_peer_response", job.Response.SuspicionReason(), map[string]interface{}{
				"peer":    peer,
				"server":  server,
				"stratum": job.Response.Stratum,
				"kiss":    job.Response.KissCode,
			})

		default:
			result.Sampled++
			s.observePeer(server, "ok", job.Duration)
			if s.metrics != nil {
				s.metrics.PeerOffsetSeconds.WithLabelValues(server).Set(job.Response.Offset.Seconds())
			}
			s.sink.AddSample(timedata.PeerID(peer), job.Response.OffsetSeconds())
		}
	}

	result.Duration = time.Since(start)
	s.observeRound("ok", start)

	logger.SafeInfo("sampler", "Sampling round complete", map[string]interface{}{
		"peers":      result.Peers,
		"sampled":    result.Sampled,
		"suspicious": result.Suspicious,
		"failed":     result.Failed,
		"duration":   result.Duration.String(),
	})

	return result, nil
}

// resolvePeers expands the configured servers into unique peer addresses,
// remembering which server each address came from.
func (s *Sampler) resolvePeers(ctx context.Context) ([]string, map[string]string) {
	var peers []string
	origin := make(map[string]string)

	for _, server := range s.cfg.Servers {
		addrs, err := s.resolver.Resolve(ctx, server)
		if err != nil {
			logger.SafeWarn("sampler", "Failed to resolve peer server", map[string]interface{}{
				"server": server,
				"error":  err.Error(),
			})
			s.observePeer(server, "resolve_error", 0)
			continue
		}

		for _, addr := range addrs {
			if _, seen := origin[addr]; seen {
				continue
			}
			origin[addr] = server
			peers = append(peers, addr)
		}
	}

	return peers, origin
}

func (s *Sampler) observePeer(server, result string, d time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.PeerQueriesTotal.WithLabelValues(server, result).Inc()
	if d > 0 {
		s.metrics.PeerQueryDurationSeconds.WithLabelValues(server).Observe(d.Seconds())
	}
}

func (s *Sampler) observeRound(result string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.SamplerRoundsTotal.WithLabelValues(result).Inc()
	s.metrics.SamplerRoundDuration.Observe(time.Since(start).Seconds())
}
