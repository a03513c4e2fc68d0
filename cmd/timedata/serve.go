package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/maximewewer/timedata/internal/config"
	"github.com/maximewewer/timedata/internal/sampler"
	"github.com/maximewewer/timedata/internal/server"
	"github.com/maximewewer/timedata/internal/timedata"
	"github.com/maximewewer/timedata/pkg/logger"
	"github.com/maximewewer/timedata/pkg/metrics"
)

func newServeCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the estimator daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configFile)
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to configuration file")

	return cmd
}

func runServe(parent context.Context, configFile string) error {
	// Load configuration (before logger is initialized)
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	if err := logger.InitLogger(cfg.Logging.LoggerConfig("timedata")); err != nil {
		return err
	}

	nodeID := uuid.NewString()
	logger.Startup(version, commit, map[string]interface{}{
		"go_version": runtime.Version(),
		"node_id":    nodeID,
		"config":     cfg,
	})

	registry := metrics.NewRegistryWithConfig(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	if err := registry.Register(); err != nil {
		return err
	}
	m := registry.GetMetrics()
	m.BuildInfo.WithLabelValues(version, runtime.Version()).Set(1)

	trust := config.NewRuntime(cfg)
	svc := timedata.New(newServiceOptions(cfg, trust, m)...)

	s := sampler.New(sampler.Config{
		Servers:        cfg.Peers.Servers,
		Interval:       cfg.Peers.Interval,
		MaxConcurrency: cfg.Peers.MaxConcurrency,
	}, newQuerier(cfg.Peers), newResolver(cfg.Peers), svc, m)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	srv := server.New(cfg, registry.GetRegistry(), m, svc, server.WithNodeID(nodeID))
	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- srv.Start(ctx)
	}()

	samplerErrChan := make(chan error, 1)
	go func() {
		samplerErrChan <- s.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	var runErr error
loop:
	for {
		select {
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				reload(configFile, trust)
				continue
			}
			logger.SafeInfo("main", "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			break loop
		case err := <-serverErrChan:
			if err != nil {
				logger.Error("main", "Server error", err)
				runErr = err
			}
			break loop
		case err := <-samplerErrChan:
			// The sampler returns after the bootstrap round when no interval is set
			if err != nil {
				logger.Error("main", "Sampler error", err)
			}
		case <-ctx.Done():
			break loop
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main", "Server shutdown error", err)
	}

	logger.Shutdown("graceful")
	return runErr
}

// loadConfig loads configuration based on whether a config file is specified
func loadConfig(configFile string) (*config.Config, error) {
	if configFile != "" {
		// Priority: Environment Variables > YAML File > Defaults
		return config.LoadFromYamlWithEnvOverrides(configFile)
	}
	// Priority: Environment Variables > Defaults
	return config.LoadFromEnvVarsOnly()
}

// reload re-reads the configuration and applies the settings that can change at runtime
func reload(configFile string, trust *config.Runtime) {
	cfg, err := loadConfig(configFile)
	if err != nil {
		logger.Error("main", "Configuration reload failed, keeping current settings", err)
		return
	}

	changed := trust.Apply(cfg)
	logger.SafeInfo("main", "Configuration reloaded", map[string]interface{}{
		"trust_local_clock": trust.TrustLocalClock(),
		"changed":           changed,
	})
}

func newServiceOptions(cfg *config.Config, trust timedata.TrustSource, m *metrics.TimeDataMetrics) []timedata.Option {
	opts := []timedata.Option{
		timedata.WithCapacity(cfg.TimeData.Capacity),
		timedata.WithTrustSource(trust),
	}
	if cfg.TimeData.CountSeedSample {
		opts = append(opts, timedata.WithSeedCounted())
	}
	if m != nil {
		opts = append(opts, timedata.WithObserver(timedata.NewMetricsObserver(m)))
	}
	return opts
}

// newQuerier stacks the peer client behind the configured rate limit and circuit breaker
func newQuerier(cfg config.PeersConfig) sampler.Querier {
	var client *sampler.Client
	if cfg.RateLimit.Enabled {
		client = sampler.NewClientWithRateLimit(cfg.Timeout, cfg.Version,
			cfg.RateLimit.GlobalRate, cfg.RateLimit.PerPeerRate, cfg.RateLimit.BurstSize)
	} else {
		client = sampler.NewClient(cfg.Timeout, cfg.Version)
	}

	if !cfg.CircuitBreaker.Enabled {
		return client
	}

	cb := cfg.CircuitBreaker
	return sampler.NewCircuitBreakerClient(client, sampler.NewCircuitBreakerConfigWithThreshold(
		cb.MaxRequests, cb.Interval, cb.Timeout, cb.FailureThreshold))
}

// newResolver caches peer sets between rounds when sampling periodically
func newResolver(cfg config.PeersConfig) sampler.Resolver {
	dns := sampler.NewDNSResolver(cfg.Timeout)
	if cfg.Interval <= 0 {
		return dns
	}
	return sampler.NewCachingResolver(dns, sampler.CacheConfig{})
}
