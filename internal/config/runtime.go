package config

import "sync/atomic"

// Runtime holds the settings that may change while the process runs.
// The estimator reads TrustLocalClock on every sample, so a SIGHUP reload
// takes effect with the next evaluation.
type Runtime struct {
	trustLocalClock atomic.Bool
}

// NewRuntime creates runtime settings from cfg
func NewRuntime(cfg *Config) *Runtime {
	r := &Runtime{}
	r.Apply(cfg)
	return r
}

// TrustLocalClock reports whether the operator trusts the local clock
func (r *Runtime) TrustLocalClock() bool {
	return r.trustLocalClock.Load()
}

// SetTrustLocalClock overrides the trust flag
func (r *Runtime) SetTrustLocalClock(trust bool) {
	r.trustLocalClock.Store(trust)
}

// Apply copies the reloadable settings from cfg and reports whether any changed
func (r *Runtime) Apply(cfg *Config) bool {
	return r.trustLocalClock.Swap(cfg.TimeData.TrustLocalClock) != cfg.TimeData.TrustLocalClock
}
