// Package timedata estimates the offset between the local clock and the
// time perceived by network peers.
//
// "Never go to sea with two chronometers; take one or three." The three
// sources are the system clock, the median of peer clocks, and the operator,
// who is asked to fix the system clock when the first two disagree.
//
// Peers report their clock offset in whole seconds. Each peer contributes at
// most one sample per recency window; the median of the stored samples
// becomes the offset once enough samples exist, is rejected when it implies
// an implausible skew, and is frozen once the window is full.
package timedata

import (
	"sync"

	"github.com/maximewewer/timedata/pkg/logger"
)

// PeerID identifies a remote peer, typically its network address
type PeerID string

// TrustSource supplies the operator's trust-local-clock setting. It is
// consulted on every evaluation, so changes take effect immediately.
type TrustSource interface {
	TrustLocalClock() bool
}

// TrustFunc adapts a function to TrustSource
type TrustFunc func() bool

// TrustLocalClock calls f
func (f TrustFunc) TrustLocalClock() bool { return f() }

// Option configures a Service
type Option func(*options)

type options struct {
	capacity   int
	seedCounts bool
	clock      Clock
	trust      TrustSource
	notifier   Notifier
	observer   Observer
}

// WithCapacity sets the recency window and median filter capacity
func WithCapacity(capacity int) Option {
	return func(o *options) { o.capacity = capacity }
}

// WithSeedCounted stores the filter seed as a real sample
func WithSeedCounted() Option {
	return func(o *options) { o.seedCounts = true }
}

// WithClock sets the wall clock used by GetAdjustedTime
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithTrustSource sets where the trust-local-clock flag is read from
func WithTrustSource(t TrustSource) Option {
	return func(o *options) { o.trust = t }
}

// WithNotifier sets the operator notification sink
func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithObserver sets the pipeline observer
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// Service owns the offset estimate. A single mutex guards the gate, the
// filter, the offset and the warning status, and AddSample runs as one
// critical section so readers never see a half-applied update.
type Service struct {
	mu      sync.Mutex
	gate    *Gate[PeerID]
	filter  *MedianFilter
	policy  OffsetPolicy
	warning *DivergenceWarning
	offset  int64
	median  int64
	status  string

	clock    Clock
	trust    TrustSource
	notifier Notifier
	observer Observer
}

// outcome records what a single AddSample call did
type outcome struct {
	admitted     bool
	samples      int
	evaluated    bool
	median       int64
	decision     Decision
	offset       int64
	sorted       []int64
	disagree     bool
	warningFired bool
}

// New creates a service with an empty window and a zero offset
func New(opts ...Option) *Service {
	o := options{
		capacity: DefaultCapacity,
		clock:    SystemClock{},
		trust:    TrustFunc(func() bool { return false }),
		notifier: LogNotifier{},
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Service{
		gate:     NewGate[PeerID](o.capacity),
		filter:   NewMedianFilter(o.capacity, DefaultSeed, o.seedCounts),
		policy:   DefaultOffsetPolicy(o.capacity),
		warning:  NewDivergenceWarning(),
		clock:    o.clock,
		trust:    o.trust,
		notifier: o.notifier,
		observer: o.observer,
	}
}

// AddSample records that peer reported a clock offset of offsetSeconds
// relative to the local clock. Duplicates within the window are ignored.
func (s *Service) AddSample(peer PeerID, offsetSeconds int64) {
	s.report(peer, offsetSeconds, s.addSample(peer, offsetSeconds))
}

func (s *Service) addSample(peer PeerID, offsetSeconds int64) outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.gate.Admit(peer) {
		return outcome{offset: s.offset}
	}

	s.filter.Input(offsetSeconds)
	out := outcome{admitted: true, samples: s.filter.Size()}

	if s.policy.Ready(out.samples) {
		out.evaluated = true
		out.median = s.filter.TruncatedMedian()
		out.sorted = s.filter.Sorted()
		s.offset, out.decision = s.policy.Evaluate(out.median, out.samples, s.trust.TrustLocalClock(), s.offset)
		s.median = out.median

		out.disagree, out.warningFired = s.warning.Check(out.sorted, out.median)
		if out.disagree {
			s.status = ClockWarningMessage
		}
	}

	out.offset = s.offset
	return out
}

// report logs and publishes an outcome outside the critical section
func (s *Service) report(peer PeerID, offsetSeconds int64, out outcome) {
	if !out.admitted {
		logger.SafeDebug("timedata", "Ignored duplicate time sample", map[string]interface{}{
			"peer": string(peer),
		})
		s.observer.SampleDuplicate(peer)
		return
	}

	logger.TimeSample(string(peer), offsetSeconds, out.samples)
	s.observer.SampleAdmitted(peer, offsetSeconds, out.samples)

	if !out.evaluated {
		return
	}

	if out.disagree {
		logger.Warnf("timedata", "*** %s", ClockWarningMessage)
	}
	if out.warningFired {
		s.observer.WarningRaised()
		s.notifier.Notify(ClockWarningMessage, SeverityWarning)
	}

	logger.TimeOffset(out.offset, out.median, string(out.decision), out.sorted)
	s.observer.OffsetEvaluated(out.decision, out.median, out.offset)
}

// GetTimeOffset returns the accepted offset in seconds
func (s *Service) GetTimeOffset() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// GetOffset is an alias for GetTimeOffset
func (s *Service) GetOffset() int64 {
	return s.GetTimeOffset()
}

// GetAdjustedTime returns the local Unix time in seconds corrected by the offset
func (s *Service) GetAdjustedTime() int64 {
	return s.clock.Now().Unix() + s.GetTimeOffset()
}

// Warning returns the clock warning text once disagreement has been detected
func (s *Service) Warning() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot is a consistent view of the estimator state
type Snapshot struct {
	Offset          int64   `json:"offset"`
	AdjustedTime    int64   `json:"adjusted_time"`
	Samples         int     `json:"samples"`
	Peers           int     `json:"peers"`
	Capacity        int     `json:"capacity"`
	Median          int64   `json:"median"`
	SortedOffsets   []int64 `json:"sorted_offsets"`
	Frozen          bool    `json:"frozen"`
	Warning         string  `json:"warning,omitempty"`
	WarningLatched  bool    `json:"warning_latched"`
	TrustLocalClock bool    `json:"trust_local_clock"`
}

// Snapshot returns the current state, read under the service lock
func (s *Service) Snapshot() Snapshot {
	now := s.clock.Now().Unix()

	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Offset:          s.offset,
		AdjustedTime:    now + s.offset,
		Samples:         s.filter.Size(),
		Peers:           s.gate.Len(),
		Capacity:        s.filter.Capacity(),
		Median:          s.median,
		SortedOffsets:   s.filter.Sorted(),
		Frozen:          s.filter.Size() >= s.policy.Capacity,
		Warning:         s.status,
		WarningLatched:  s.warning.Latched(),
		TrustLocalClock: s.trust.TrustLocalClock(),
	}
}
