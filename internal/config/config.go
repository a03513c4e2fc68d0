// Package config provides configuration loading with explicit naming
//
// Available functions:
//
//   LoadFromEnvVarsOnly()                     - Environment variables ONLY
//                                               Use: Docker, Kubernetes (no ConfigMap)
//
//   LoadFromYamlFile(path)                    - YAML file ONLY (no env overrides)
//                                               Use: Local development, testing
//
//   LoadFromYamlWithEnvOverrides(path)        - YAML base + Environment overrides
//                                               Use: Kubernetes (ConfigMap + env vars)
//                                               Priority: Env Vars > YAML > Defaults
//
// Environment variables supported:
//
//   SERVER:
//     - TIMEDATA_ADDRESS, TIMEDATA_PORT
//     - SERVER_READ_TIMEOUT, SERVER_WRITE_TIMEOUT
//     - TLS_ENABLED, TLS_CERT_FILE, TLS_KEY_FILE
//     - ENABLE_CORS, ALLOWED_ORIGINS (comma-separated)
//     - HANDSHAKE_ENABLED, HANDSHAKE_RATE, HANDSHAKE_BURST
//
//   TIMEDATA:
//     - TRUST_LOCAL_CLOCK, COUNT_SEED_SAMPLE, TIMEDATA_CAPACITY
//
//   PEERS:
//     - PEER_SERVERS (comma-separated), PEER_TIMEOUT, PEER_VERSION
//     - PEER_INTERVAL, PEER_MAX_CONCURRENCY
//
//   RATE_LIMIT:
//     - RATE_LIMIT_ENABLED, RATE_LIMIT_GLOBAL, RATE_LIMIT_PER_PEER
//     - RATE_LIMIT_BURST_SIZE
//
//   CIRCUIT_BREAKER:
//     - CIRCUIT_BREAKER_ENABLED, CIRCUIT_BREAKER_MAX_REQUESTS
//     - CIRCUIT_BREAKER_INTERVAL, CIRCUIT_BREAKER_TIMEOUT
//     - CIRCUIT_BREAKER_FAILURE_THRESHOLD
//
//   LOGGING:
//     - LOG_LEVEL (trace|debug|info|warn|error|fatal|panic)
//     - LOG_FORMAT (json|console)
//     - LOG_ENABLE_FILE, LOG_FILE_PATH
//     - LOG_MAX_SIZE_MB, LOG_MAX_BACKUPS, LOG_MAX_AGE_DAYS, LOG_COMPRESS
//
//   METRICS:
//     - METRICS_NAMESPACE, METRICS_SUBSYSTEM
//
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/maximewewer/timedata/pkg/logger"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	TimeData TimeDataConfig `yaml:"timedata"`
	Peers    PeersConfig    `yaml:"peers"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Address          string        `yaml:"address"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	EnableCORS       bool          `yaml:"enable_cors"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
	TLSEnabled       bool          `yaml:"tls_enabled"`
	TLSCertFile      string        `yaml:"tls_cert_file"`
	TLSKeyFile       string        `yaml:"tls_key_file"`
	HandshakeEnabled bool          `yaml:"handshake_enabled"`
	HandshakeRate    float64       `yaml:"handshake_rate"`  // requests per second per remote IP
	HandshakeBurst   int           `yaml:"handshake_burst"` // burst per remote IP
}

// TimeDataConfig contains offset estimator configuration
type TimeDataConfig struct {
	TrustLocalClock bool `yaml:"trust_local_clock"`
	CountSeedSample bool `yaml:"count_seed_sample"`
	Capacity        int  `yaml:"capacity"`
}

// PeersConfig contains outbound peer sampling configuration
type PeersConfig struct {
	Servers        []string             `yaml:"servers"`
	Timeout        time.Duration        `yaml:"timeout"`
	Version        int                  `yaml:"version"`
	Interval       time.Duration        `yaml:"interval"` // 0 runs the bootstrap round only
	MaxConcurrency int                  `yaml:"max_concurrency"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled     bool `yaml:"enabled"`
	GlobalRate  int  `yaml:"global_rate"`
	PerPeerRate int  `yaml:"per_peer_rate"`
	BurstSize   int  `yaml:"burst_size"`
}

// CircuitBreakerConfig contains circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold float64       `yaml:"failure_threshold"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	EnableFile bool   `yaml:"enable_file"`
	FilePath   string `yaml:"file_path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`
}

// LoggerConfig converts the logging section for logger.InitLogger
func (c LoggingConfig) LoggerConfig(component string) logger.Config {
	return logger.Config{
		Level:      c.Level,
		Format:     c.Format,
		Output:     c.Output,
		FilePath:   c.FilePath,
		Component:  component,
		EnableFile: c.EnableFile,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// LoadFromYamlFile reads configuration from a YAML file only (no env var overrides)
// Use case: Local development, testing
func LoadFromYamlFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("config", "Failed to read config file", err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		logger.Error("config", "Failed to parse config file", err)
		return nil, fmt.Errorf("failed to parse YAML config file %s: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		logger.Error("config", "Invalid configuration", err)
		return nil, fmt.Errorf("configuration validation failed for %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromYamlWithEnvOverrides loads base config from YAML, then overrides with environment variables
// Use case: Kubernetes with ConfigMaps + env vars, Docker with config file + env vars
// Priority: Environment Variables > YAML File > Defaults
func LoadFromYamlWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadFromYamlFile(path)
	if err != nil {
		logger.Warn("config", "Failed to load YAML config file, falling back to env vars only")
		cfg = &Config{}
		ApplyDefaults(cfg)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		logger.Error("config", "Invalid configuration after env overrides", err)
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFromEnvVarsOnly loads configuration from environment variables only (no YAML file)
// Use case: Docker containers, Kubernetes pods without ConfigMaps
// Priority: Environment Variables > Defaults
func LoadFromEnvVarsOnly() (*Config, error) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		logger.Error("config", "Invalid configuration from environment", err)
		return nil, fmt.Errorf("environment configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to an existing config.
// Values that fail to parse are ignored and the previous value is kept.
func applyEnvOverrides(cfg *Config) {
	// ---------------------------------------------------------------------------
	// SERVER - HTTP Server configuration
	// ---------------------------------------------------------------------------
	envString("TIMEDATA_ADDRESS", &cfg.Server.Address)
	envInt("TIMEDATA_PORT", &cfg.Server.Port)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envBool("TLS_ENABLED", &cfg.Server.TLSEnabled)
	envString("TLS_CERT_FILE", &cfg.Server.TLSCertFile)
	envString("TLS_KEY_FILE", &cfg.Server.TLSKeyFile)
	envBool("ENABLE_CORS", &cfg.Server.EnableCORS)
	if allowedOrigins := os.Getenv("ALLOWED_ORIGINS"); allowedOrigins != "" {
		cfg.Server.AllowedOrigins = parseCommaSeparated(allowedOrigins)
	}
	envBool("HANDSHAKE_ENABLED", &cfg.Server.HandshakeEnabled)
	envFloat("HANDSHAKE_RATE", &cfg.Server.HandshakeRate)
	envInt("HANDSHAKE_BURST", &cfg.Server.HandshakeBurst)

	// ---------------------------------------------------------------------------
	// TIMEDATA - Offset estimator configuration
	// ---------------------------------------------------------------------------
	envBool("TRUST_LOCAL_CLOCK", &cfg.TimeData.TrustLocalClock)
	envBool("COUNT_SEED_SAMPLE", &cfg.TimeData.CountSeedSample)
	envInt("TIMEDATA_CAPACITY", &cfg.TimeData.Capacity)

	// ---------------------------------------------------------------------------
	// PEERS - Outbound sampling configuration
	// ---------------------------------------------------------------------------
	if servers := os.Getenv("PEER_SERVERS"); servers != "" {
		cfg.Peers.Servers = parseCommaSeparated(servers)
	}
	envDuration("PEER_TIMEOUT", &cfg.Peers.Timeout)
	envInt("PEER_VERSION", &cfg.Peers.Version)
	envDuration("PEER_INTERVAL", &cfg.Peers.Interval)
	envInt("PEER_MAX_CONCURRENCY", &cfg.Peers.MaxConcurrency)

	// ---------------------------------------------------------------------------
	// RATE LIMIT - Rate limiting configuration
	// ---------------------------------------------------------------------------
	envBool("RATE_LIMIT_ENABLED", &cfg.Peers.RateLimit.Enabled)
	envInt("RATE_LIMIT_GLOBAL", &cfg.Peers.RateLimit.GlobalRate)
	envInt("RATE_LIMIT_PER_PEER", &cfg.Peers.RateLimit.PerPeerRate)
	envInt("RATE_LIMIT_BURST_SIZE", &cfg.Peers.RateLimit.BurstSize)

	// ---------------------------------------------------------------------------
	// CIRCUIT BREAKER - Circuit breaker configuration
	// ---------------------------------------------------------------------------
	envBool("CIRCUIT_BREAKER_ENABLED", &cfg.Peers.CircuitBreaker.Enabled)
	if maxRequests := os.Getenv("CIRCUIT_BREAKER_MAX_REQUESTS"); maxRequests != "" {
		if r, err := strconv.ParseUint(maxRequests, 10, 32); err == nil {
			cfg.Peers.CircuitBreaker.MaxRequests = uint32(r)
		}
	}
	envDuration("CIRCUIT_BREAKER_INTERVAL", &cfg.Peers.CircuitBreaker.Interval)
	envDuration("CIRCUIT_BREAKER_TIMEOUT", &cfg.Peers.CircuitBreaker.Timeout)
	envFloat("CIRCUIT_BREAKER_FAILURE_THRESHOLD", &cfg.Peers.CircuitBreaker.FailureThreshold)

	// ---------------------------------------------------------------------------
	// LOGGING - Logging configuration
	// ---------------------------------------------------------------------------
	envString("LOG_LEVEL", &cfg.Logging.Level)
	envString("LOG_FORMAT", &cfg.Logging.Format)
	envBool("LOG_ENABLE_FILE", &cfg.Logging.EnableFile)
	envString("LOG_FILE_PATH", &cfg.Logging.FilePath)
	envInt("LOG_MAX_SIZE_MB", &cfg.Logging.MaxSizeMB)
	envInt("LOG_MAX_BACKUPS", &cfg.Logging.MaxBackups)
	envInt("LOG_MAX_AGE_DAYS", &cfg.Logging.MaxAgeDays)
	envBool("LOG_COMPRESS", &cfg.Logging.Compress)

	// ---------------------------------------------------------------------------
	// METRICS - Prometheus metrics configuration
	// ---------------------------------------------------------------------------
	envString("METRICS_NAMESPACE", &cfg.Metrics.Namespace)
	envString("METRICS_SUBSYSTEM", &cfg.Metrics.Subsystem)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// parseCommaSeparated splits a comma-separated string, dropping empty items
func parseCommaSeparated(s string) []string {
	var result []string
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
