package config

import "time"

// Defaults shared with the estimator and the sampler
const (
	DefaultPort           = 9560
	DefaultCapacity       = 200
	DefaultHandshakeRate  = 1.0
	DefaultHandshakeBurst = 5
)

// ApplyDefaults sets default values for unspecified configuration fields
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Address == "" {
		cfg.Server.Address = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Second
	}
	// Default CORS origins (empty = no CORS)
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{}
	}
	if cfg.Server.HandshakeRate == 0 {
		cfg.Server.HandshakeRate = DefaultHandshakeRate
	}
	if cfg.Server.HandshakeBurst == 0 {
		cfg.Server.HandshakeBurst = DefaultHandshakeBurst
	}

	// Estimator defaults (trust_local_clock and count_seed_sample stay false)
	if cfg.TimeData.Capacity == 0 {
		cfg.TimeData.Capacity = DefaultCapacity
	}

	// Peer defaults, interval stays 0 so only the bootstrap round runs
	if len(cfg.Peers.Servers) == 0 {
		cfg.Peers.Servers = []string{
			"pool.ntp.org",
			"time.google.com",
		}
	}
	if cfg.Peers.Timeout == 0 {
		cfg.Peers.Timeout = 5 * time.Second
	}
	if cfg.Peers.Version == 0 {
		cfg.Peers.Version = 4
	}
	if cfg.Peers.MaxConcurrency == 0 {
		cfg.Peers.MaxConcurrency = 10
	}

	// Rate limiting defaults
	if cfg.Peers.RateLimit.GlobalRate == 0 {
		cfg.Peers.RateLimit.GlobalRate = 1000
	}
	if cfg.Peers.RateLimit.PerPeerRate == 0 {
		cfg.Peers.RateLimit.PerPeerRate = 60
	}
	if cfg.Peers.RateLimit.BurstSize == 0 {
		cfg.Peers.RateLimit.BurstSize = 10
	}

	// Circuit breaker defaults (enabled by default for fault tolerance)
	cfg.Peers.CircuitBreaker.Enabled = true
	if cfg.Peers.CircuitBreaker.MaxRequests == 0 {
		cfg.Peers.CircuitBreaker.MaxRequests = 3
	}
	if cfg.Peers.CircuitBreaker.Interval == 0 {
		cfg.Peers.CircuitBreaker.Interval = 60 * time.Second
	}
	if cfg.Peers.CircuitBreaker.Timeout == 0 {
		cfg.Peers.CircuitBreaker.Timeout = 30 * time.Second
	}
	if cfg.Peers.CircuitBreaker.FailureThreshold == 0 {
		cfg.Peers.CircuitBreaker.FailureThreshold = 0.6 // 60%
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 100
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 3
	}
	if cfg.Logging.MaxAgeDays == 0 {
		cfg.Logging.MaxAgeDays = 28
	}

	// Metrics defaults
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "timedata"
	}
}

// DefaultConfig returns a configuration with all defaults applied
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
