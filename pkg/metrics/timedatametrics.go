package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TimeDataMetrics encapsulates all timedata metrics
type TimeDataMetrics struct {
	// Offset estimator
	OffsetSeconds       prometheus.Gauge
	MedianOffsetSeconds prometheus.Gauge
	SamplesStored       prometheus.Gauge
	SamplesTotal        *prometheus.CounterVec
	DecisionsTotal      *prometheus.CounterVec
	ClockWarning        prometheus.Gauge

	// Outbound peer sampling
	PeerQueriesTotal         *prometheus.CounterVec
	PeerQueryDurationSeconds *prometheus.HistogramVec
	PeerOffsetSeconds        *prometheus.GaugeVec
	SamplerRoundsTotal       *prometheus.CounterVec
	SamplerRoundDuration     prometheus.Histogram

	// Inbound handshakes
	HandshakesTotal *prometheus.CounterVec

	// HTTP surface
	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds *prometheus.HistogramVec

	BuildInfo *prometheus.GaugeVec
}

// NewTimeDataMetricsWithConfig creates all metrics under the given namespace and subsystem
func NewTimeDataMetricsWithConfig(namespace, subsystem string) *TimeDataMetrics {
	return &TimeDataMetrics{
		OffsetSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "offset_seconds",
				Help:      "Accepted offset added to the local clock to obtain network-adjusted time",
			},
		),
		MedianOffsetSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "median_offset_seconds",
				Help:      "Median of the stored peer offsets at the last evaluation",
			},
		),
		SamplesStored: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "samples_stored",
				Help:      "Number of peer offsets currently held by the median filter",
			},
		),
		SamplesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "samples_total",
				Help:      "Peer offset samples received, by result (admitted, duplicate)",
			},
			[]string{"result"},
		),
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "offset_decisions_total",
				Help:      "Offset policy evaluations, by decision",
			},
			[]string{"decision"},
		),
		ClockWarning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "clock_warning",
				Help:      "Whether peers and the local clock were found to disagree (1) or not (0)",
			},
		),
		PeerQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "peer_queries_total",
				Help:      "Outbound peer time queries, by peer and result",
			},
			[]string{"peer", "result"},
		),
		PeerQueryDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "peer_query_duration_seconds",
				Help:      "Duration of outbound peer time queries",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"peer"},
		),
		PeerOffsetSeconds: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "peer_offset_seconds",
				Help:      "Last raw clock offset reported by a peer",
			},
			[]string{"peer"},
		),
		SamplerRoundsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sampler_rounds_total",
				Help:      "Peer sampling rounds, by result (success, failure)",
			},
			[]string{"result"},
		),
		SamplerRoundDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sampler_round_duration_seconds",
				Help:      "Duration of a peer sampling round",
				Buckets:   prometheus.DefBuckets,
			},
		),
		HandshakesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "handshakes_total",
				Help:      "Inbound peer handshakes, by result (accepted, rejected, rate_limited)",
			},
			[]string{"result"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_total",
				Help:      "HTTP requests served, by path and status code",
			},
			[]string{"path", "code"},
		),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"path"},
		),
		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "build_info",
				Help:      "Build information",
			},
			[]string{"version", "goversion"},
		),
	}
}

// NewTimeDataMetrics creates all metrics with the default namespace
func NewTimeDataMetrics() *TimeDataMetrics {
	return NewTimeDataMetricsWithConfig(DefaultNamespace, "")
}

// getAllMetrics returns all metric collectors
func (m *TimeDataMetrics) getAllMetrics() []prometheus.Collector {
	return []prometheus.Collector{
		m.OffsetSeconds,
		m.MedianOffsetSeconds,
		m.SamplesStored,
		m.SamplesTotal,
		m.DecisionsTotal,
		m.ClockWarning,

		m.PeerQueriesTotal,
		m.PeerQueryDurationSeconds,
		m.PeerOffsetSeconds,
		m.SamplerRoundsTotal,
		m.SamplerRoundDuration,

		m.HandshakesTotal,

		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,

		m.BuildInfo,
	}
}

// Describe implements prometheus.Collector interface
func (m *TimeDataMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, metric := range m.getAllMetrics() {
		metric.Describe(ch)
	}
}

// Collect implements prometheus.Collector interface
func (m *TimeDataMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, metric := range m.getAllMetrics() {
		metric.Collect(ch)
	}
}
