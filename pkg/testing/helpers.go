// Package testutil holds helpers shared by the package tests.
package testutil

import (
	"math/rand"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/beevik/ntp"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

var (
	metricNamePattern = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)
	labelNamePattern  = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// NTPResponse creates a well-formed peer response whose clock is offset from ours
func NTPResponse(offset time.Duration, stratum uint8) *ntp.Response {
	now := time.Now()
	return &ntp.Response{
		Time:           now.Add(offset),
		ClockOffset:    offset,
		RTT:            50 * time.Millisecond,
		Precision:      time.Microsecond,
		Stratum:        stratum,
		ReferenceID:    0x4E495354, // NIST
		ReferenceTime:  now.Add(-1 * time.Hour),
		RootDelay:      10 * time.Millisecond,
		RootDispersion: 5 * time.Millisecond,
		RootDistance:   15 * time.Millisecond,
		Leap:           ntp.LeapNoWarning,
		MinError:       time.Millisecond,
		Poll:           6,
	}
}

// UnsynchronizedNTPResponse creates a response from a peer that lost its reference
func UnsynchronizedNTPResponse() *ntp.Response {
	resp := NTPResponse(0, 16)
	resp.Leap = ntp.LeapNotInSync
	return resp
}

// KoDNTPResponse creates a Kiss-of-Death response carrying code
func KoDNTPResponse(code string) *ntp.Response {
	resp := NTPResponse(0, 0)
	resp.KissCode = code
	return resp
}

// OffsetSamples returns n deterministic offsets in [-spread, spread]
func OffsetSamples(seed int64, n int, spread int64) []int64 {
	r := rand.New(rand.NewSource(seed))

	out := make([]int64, n)
	for i := range out {
		out[i] = r.Int63n(2*spread+1) - spread
	}
	return out
}

// AssertMetricValue validates a Prometheus metric value
func AssertMetricValue(t *testing.T, registry *prometheus.Registry, metricName string, labels map[string]string, expected float64) {
	t.Helper()

	m, mtype := findMetric(t, registry, metricName, labels)
	if m == nil {
		t.Errorf("Metric %s with labels %v not found", metricName, labels)
		return
	}

	var value float64
	switch mtype {
	case dto.MetricType_GAUGE:
		value = m.GetGauge().GetValue()
	case dto.MetricType_COUNTER:
		value = m.GetCounter().GetValue()
	case dto.MetricType_HISTOGRAM:
		value = m.GetHistogram().GetSampleSum()
	default:
		t.Fatalf("Unsupported metric type: %v", mtype)
	}

	if value != expected {
		t.Errorf("Metric %s with labels %v: expected %f, got %f", metricName, labels, expected, value)
	}
}

// AssertMetricExists checks if a metric exists with given labels
func AssertMetricExists(t *testing.T, registry *prometheus.Registry, metricName string, labels map[string]string) {
	t.Helper()

	if m, _ := findMetric(t, registry, metricName, labels); m == nil {
		t.Errorf("Metric %s with labels %v not found", metricName, labels)
	}
}

func findMetric(t *testing.T, registry *prometheus.Registry, metricName string, labels map[string]string) (*dto.Metric, dto.MetricType) {
	t.Helper()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	for _, mf := range families {
		if mf.GetName() != metricName {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m.GetLabel(), labels) {
				return m, mf.GetType()
			}
		}
	}
	return nil, dto.MetricType_UNTYPED
}

// labelsMatch checks if metric labels match expected labels
func labelsMatch(metricLabels []*dto.LabelPair, expected map[string]string) bool {
	if len(metricLabels) != len(expected) {
		return false
	}

	for _, label := range metricLabels {
		expectedValue, exists := expected[label.GetName()]
		if !exists || expectedValue != label.GetValue() {
			return false
		}
	}

	return true
}

// WaitForCondition waits for a condition to be true with timeout
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration, message string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("Timeout waiting for condition: %s", message)
		}
		<-ticker.C
	}
}

// NewTestHTTPServer creates a test HTTP server closed at the end of the test
func NewTestHTTPServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return server
}

// ValidatePrometheusMetricName validates that a metric name follows Prometheus
// conventions and carries the given namespace prefix
func ValidatePrometheusMetricName(t *testing.T, namespace, name string) {
	t.Helper()

	if name == "" {
		t.Error("Metric name cannot be empty")
		return
	}
	if !metricNamePattern.MatchString(name) {
		t.Errorf("Invalid metric name: %s (must match [a-zA-Z_:][a-zA-Z0-9_:]*)", name)
	}
	if !strings.HasPrefix(name, namespace+"_") {
		t.Errorf("Metric name %s should have %s_ prefix", name, namespace)
	}
}

// ValidatePrometheusLabelName validates that a label name follows Prometheus conventions
func ValidatePrometheusLabelName(t *testing.T, name string) {
	t.Helper()

	if !labelNamePattern.MatchString(name) {
		t.Errorf("Invalid label name: %s (must match [a-zA-Z_][a-zA-Z0-9_]*)", name)
	}

	switch name {
	case "__name__", "job", "instance":
		t.Errorf("Label name %s is reserved", name)
	}
}
