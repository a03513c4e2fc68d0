package config

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	hostnamePattern  = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?)*$`)
	maliciousPattern = regexp.MustCompile(`[;&|<>$` + "`" + `\x00]`)
)

// Validate checks if the configuration is valid
func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return err
	}

	if err := validateTimeData(&cfg.TimeData); err != nil {
		return err
	}

	if err := validatePeers(&cfg.Peers); err != nil {
		return err
	}

	if err := validateLogging(&cfg.Logging); err != nil {
		return err
	}

	if err := validateMetrics(&cfg.Metrics); err != nil {
		return err
	}

	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return errors.New("port must be between 1 and 65535, got " + strconv.Itoa(cfg.Port))
	}

	if cfg.ReadTimeout < 1*time.Second || cfg.ReadTimeout > 60*time.Second {
		return errors.New("read_timeout must be between 1s and 60s")
	}

	if cfg.WriteTimeout < 1*time.Second || cfg.WriteTimeout > 60*time.Second {
		return errors.New("write_timeout must be between 1s and 60s")
	}

	if cfg.TLSEnabled {
		if cfg.TLSCertFile == "" {
			return errors.New("tls_cert_file is required when tls_enabled is true")
		}
		if cfg.TLSKeyFile == "" {
			return errors.New("tls_key_file is required when tls_enabled is true")
		}
	}

	if cfg.HandshakeEnabled {
		if cfg.HandshakeRate <= 0 {
			return errors.New("handshake_rate must be positive")
		}
		if cfg.HandshakeBurst < 1 {
			return errors.New("handshake_burst must be at least 1, got " + strconv.Itoa(cfg.HandshakeBurst))
		}
	}

	return nil
}

func validateTimeData(cfg *TimeDataConfig) error {
	// The window must hold more than the minimum sample count or no median is ever accepted
	if cfg.Capacity < 6 || cfg.Capacity > 100000 {
		return errors.New("capacity must be between 6 and 100000, got " + strconv.Itoa(cfg.Capacity))
	}

	return nil
}

func validatePeers(cfg *PeersConfig) error {
	if len(cfg.Servers) == 0 {
		return errors.New("at least one peer server must be configured")
	}
	for _, server := range cfg.Servers {
		if err := ValidatePeerAddress(server); err != nil {
			return fmt.Errorf("invalid peer server %q: %w", server, err)
		}
	}

	if cfg.Timeout < 1*time.Second || cfg.Timeout > 60*time.Second {
		return errors.New("timeout must be between 1s and 60s")
	}

	if cfg.Version < 2 || cfg.Version > 4 {
		return errors.New("ntp version must be 2, 3, or 4, got " + strconv.Itoa(cfg.Version))
	}

	if cfg.Interval < 0 {
		return errors.New("interval must not be negative")
	}
	if cfg.Interval > 0 && cfg.Interval < 10*time.Second {
		return errors.New("interval must be 0 or at least 10s")
	}

	if cfg.MaxConcurrency < 1 || cfg.MaxConcurrency > 100 {
		return errors.New("max_concurrency must be between 1 and 100, got " + strconv.Itoa(cfg.MaxConcurrency))
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.GlobalRate < 1 {
			return errors.New("rate_limit.global_rate must be at least 1")
		}
		if cfg.RateLimit.PerPeerRate < 1 {
			return errors.New("rate_limit.per_peer_rate must be at least 1")
		}
		if cfg.RateLimit.BurstSize < 1 {
			return errors.New("rate_limit.burst_size must be at least 1")
		}
	}

	if cfg.CircuitBreaker.Enabled {
		if cfg.CircuitBreaker.MaxRequests < 1 {
			return errors.New("circuit_breaker.max_requests must be at least 1")
		}
		if cfg.CircuitBreaker.FailureThreshold <= 0 || cfg.CircuitBreaker.FailureThreshold > 1 {
			return errors.New("circuit_breaker.failure_threshold must be in (0, 1]")
		}
	}

	return nil
}

func validateLogging(cfg *LoggingConfig) error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
		"panic": true,
	}

	if !validLevels[cfg.Level] {
		return errors.New("invalid log level (must be trace, debug, info, warn, error, fatal, or panic)")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[cfg.Format] {
		return errors.New("invalid log format (must be json or console)")
	}

	if cfg.EnableFile && cfg.FilePath == "" {
		return errors.New("file_path is required when enable_file is true")
	}

	if cfg.MaxSizeMB < 0 || cfg.MaxBackups < 0 || cfg.MaxAgeDays < 0 {
		return errors.New("log rotation settings must not be negative")
	}

	return nil
}

func validateMetrics(cfg *MetricsConfig) error {
	if cfg.Namespace == "" {
		return errors.New("namespace is required")
	}

	return nil
}

// ValidatePeerAddress checks that address is a hostname or IP, optionally
// followed by a port
func ValidatePeerAddress(address string) error {
	if address == "" {
		return errors.New("address is empty")
	}
	if len(address) > 255 {
		return errors.New("address is too long")
	}
	if maliciousPattern.MatchString(address) {
		return errors.New("address contains invalid characters")
	}

	host := address
	if h, port, err := net.SplitHostPort(address); err == nil {
		p, err := strconv.Atoi(port)
		if err != nil || p < 1 || p > 65535 {
			return errors.New("invalid port " + port)
		}
		host = h
	}

	if _, err := netip.ParseAddr(host); err == nil {
		return nil
	}
	if strings.Contains(host, ":") || !hostnamePattern.MatchString(host) {
		return errors.New("invalid address format")
	}

	return nil
}
