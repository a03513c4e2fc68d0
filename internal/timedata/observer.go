package timedata

import "github.com/maximewewer/timedata/pkg/metrics"

// Observer is told about each step of the sample pipeline. Calls are made
// after the service lock has been released.
type Observer interface {
	SampleDuplicate(peer PeerID)
	SampleAdmitted(peer PeerID, offset int64, stored int)
	OffsetEvaluated(decision Decision, median, offset int64)
	WarningRaised()
}

type nopObserver struct{}

func (nopObserver) SampleDuplicate(PeerID)                 {}
func (nopObserver) SampleAdmitted(PeerID, int64, int)      {}
func (nopObserver) OffsetEvaluated(Decision, int64, int64) {}
func (nopObserver) WarningRaised()                         {}

// MetricsObserver records the pipeline in Prometheus metrics
type MetricsObserver struct {
	metrics *metrics.TimeDataMetrics
}

// NewMetricsObserver creates an observer writing to m
func NewMetricsObserver(m *metrics.TimeDataMetrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

// SampleDuplicate counts a sample dropped by the gate
func (o *MetricsObserver) SampleDuplicate(PeerID) {
	o.metrics.SamplesTotal.WithLabelValues("duplicate").Inc()
}

// SampleAdmitted counts an admitted sample and records the filter size
func (o *MetricsObserver) SampleAdmitted(_ PeerID, _ int64, stored int) {
	o.metrics.SamplesTotal.WithLabelValues("admitted").Inc()
	o.metrics.SamplesStored.Set(float64(stored))
}

// OffsetEvaluated records the policy decision and resulting offset
func (o *MetricsObserver) OffsetEvaluated(decision Decision, median, offset int64) {
	o.metrics.DecisionsTotal.WithLabelValues(string(decision)).Inc()
	o.metrics.MedianOffsetSeconds.Set(float64(median))
	o.metrics.OffsetSeconds.Set(float64(offset))
}

// WarningRaised flags the clock warning
func (o *MetricsObserver) WarningRaised() {
	o.metrics.ClockWarning.Set(1)
}
