package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/netip"

	"github.com/maximewewer/timedata/internal/config"
	"github.com/maximewewer/timedata/internal/timedata"
	"github.com/maximewewer/timedata/pkg/logger"
	"github.com/maximewewer/timedata/pkg/metrics"
	"github.com/maximewewer/timedata/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxHandshakeBody bounds the handshake request body
const maxHandshakeBody = 1 << 10

// Estimator is the offset estimator the handlers expose
type Estimator interface {
	AddSample(peer timedata.PeerID, offsetSeconds int64)
	GetTimeOffset() int64
	GetAdjustedTime() int64
	Warning() string
	Snapshot() timedata.Snapshot
}

// Handlers contains HTTP request handlers
type Handlers struct {
	config    *config.Config
	registry  *prometheus.Registry
	estimator Estimator
	clock     timedata.Clock
	limiter   *ratelimit.RateLimiter
	metrics   *metrics.TimeDataMetrics
	nodeID    string
}

// HandshakeRequest is the body of POST /v1/handshake
type HandshakeRequest struct {
	Timestamp *int64 `json:"timestamp"`
}

// HandshakeResponse answers a handshake with our own view of time
type HandshakeResponse struct {
	Timestamp    int64 `json:"timestamp"`
	Offset       int64 `json:"offset"`
	AdjustedTime int64 `json:"adjusted_time"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	NodeID  string `json:"node_id"`
	Warning string `json:"warning,omitempty"`
}

// NewHandlers creates a new handlers instance. m may be nil.
func NewHandlers(cfg *config.Config, registry *prometheus.Registry, est Estimator, clock timedata.Clock, m *metrics.TimeDataMetrics, nodeID string) *Handlers {
	return &Handlers{
		config:    cfg,
		registry:  registry,
		estimator: est,
		clock:     clock,
		limiter:   ratelimit.NewRateLimiter(ratelimit.Unlimited, cfg.Server.HandshakeRate, cfg.Server.HandshakeBurst),
		metrics:   m,
		nodeID:    nodeID,
	}
}

// MetricsHandler serves Prometheus metrics
func (h *Handlers) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	handler := promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{
		ErrorLog:      &loggerAdapter{},
		ErrorHandling: promhttp.ContinueOnError,
	})

	handler.ServeHTTP(w, r)
}

// HealthHandler reports "degraded" once peers and the local clock disagree
func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:  "healthy",
		Service: "timedata",
		NodeID:  h.nodeID,
	}
	if warning := h.estimator.Warning(); warning != "" {
		response.Status = "degraded"
		response.Warning = warning
	}

	writeJSON(w, http.StatusOK, response)
}

// TimeHandler returns the estimator snapshot
func (h *Handlers) TimeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, h.estimator.Snapshot())
}

// HandshakeHandler accepts a peer's clock as a sample and answers with ours.
// The peer is identified by its remote IP and its offset is its timestamp
// minus our local clock.
func (h *Handlers) HandshakeHandler(w http.ResponseWriter, r *http.Request) {
	if !h.config.Server.HandshakeEnabled {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	addrPort, err := netip.ParseAddrPort(r.RemoteAddr)
	if err != nil {
		h.countHandshake("malformed")
		writeError(w, http.StatusBadRequest, "unrecognized remote address")
		return
	}
	peer := addrPort.Addr().Unmap().String()

	if !h.limiter.Allow(peer) {
		h.countHandshake("limited")
		logger.Security("handshake_rate_limited", "too many handshakes", map[string]interface{}{
			"peer": peer,
		})
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	req, err := decodeHandshake(r.Body)
	if err != nil {
		h.countHandshake("malformed")
		logger.SafeDebug("server", "Rejected malformed handshake", map[string]interface{}{
			"peer":  peer,
			"error": err.Error(),
		})
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := h.clock.Now().Unix()
	h.estimator.AddSample(timedata.PeerID(peer), *req.Timestamp-now)
	h.countHandshake("accepted")

	offset := h.estimator.GetTimeOffset()
	writeJSON(w, http.StatusOK, HandshakeResponse{
		Timestamp:    now,
		Offset:       offset,
		AdjustedTime: now + offset,
	})
}

func decodeHandshake(body io.Reader) (*HandshakeRequest, error) {
	dec := json.NewDecoder(io.LimitReader(body, maxHandshakeBody))
	dec.DisallowUnknownFields()

	var req HandshakeRequest
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid handshake body: %w", err)
	}
	if req.Timestamp == nil {
		return nil, errors.New("invalid handshake body: timestamp is required")
	}
	return &req, nil
}

func (h *Handlers) countHandshake(result string) {
	if h.metrics != nil {
		h.metrics.HandshakesTotal.WithLabelValues(result).Inc()
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>timedata</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        h1 { color: #333; }
        ul { list-style-type: none; padding: 0; }
        li { margin: 10px 0; }
        a { color: #0066cc; text-decoration: none; }
        a:hover { text-decoration: underline; }
        .info { background-color: #f0f0f0; padding: 15px; border-radius: 5px; }
    </style>
</head>
<body>
    <h1>timedata</h1>
    <div class="info">
        <h2>Available Endpoints:</h2>
        <ul>
            <li><a href="/metrics">/metrics</a> - Prometheus metrics</li>
            <li><a href="/health">/health</a> - Health check</li>
            <li><a href="/v1/time">/v1/time</a> - Offset estimate</li>
            {{if .Handshake}}<li>POST /v1/handshake - Exchange clocks</li>{{end}}
        </ul>
        <h2>Estimator:</h2>
        <ul>
            <li>Offset: {{.Offset}}s</li>
            <li>Samples: {{.Samples}} / {{.Capacity}}</li>
            <li>Peer servers: {{.Servers}} configured</li>
        </ul>
    </div>
</body>
</html>`))

// IndexHandler serves the index page
func (h *Handlers) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	snap := h.estimator.Snapshot()
	data := struct {
		Handshake bool
		Offset    int64
		Samples   int
		Capacity  int
		Servers   int
	}{
		Handshake: h.config.Server.HandshakeEnabled,
		Offset:    snap.Offset,
		Samples:   snap.Samples,
		Capacity:  snap.Capacity,
		Servers:   len(h.config.Peers.Servers),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		logger.Error("server", "Failed to render index page", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("server", "Failed to encode response", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// loggerAdapter adapts pkg/logger to promhttp logger interface
type loggerAdapter struct{}

func (l *loggerAdapter) Println(v ...interface{}) {
	logger.Error("promhttp", fmt.Sprint(v...), nil)
}
