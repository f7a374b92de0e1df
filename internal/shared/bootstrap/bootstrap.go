// Package bootstrap performs the startup steps every service mode shares.
package bootstrap

import (
	"context"
	"time"

	"git.platform.alem.school/amibragim/shop-events/internal/shared/config"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/logger"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/metrics"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/tracing"
)

// Runtime is the ambient state of a running service.
type Runtime struct {
	Service string
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.Registry

	shutdownTracing func(context.Context) error
}

// Start loads the environment config, builds the logger and metrics registry
// and installs tracing. Errors are logged before being returned.
func Start(ctx context.Context, service string) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		logger.NewLogger(service, "info").Error(ctx, "config_load_failed", "Failed to load configuration", err)
		return nil, err
	}

	log := logger.NewLogger(service, cfg.LogLevel)

	serviceName := cfg.Tracing.ServiceName
	if serviceName == "" {
		serviceName = service
	}
	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: serviceName,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Error(ctx, "tracing_setup_failed", "Failed to set up tracing", err)
		return nil, err
	}

	return &Runtime{
		Service:         service,
		Config:          cfg,
		Logger:          log,
		Metrics:         metrics.NewRegistry(service),
		shutdownTracing: shutdown,
	}, nil
}

// Close flushes traces and logs.
func (rt *Runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.shutdownTracing(ctx); err != nil {
		rt.Logger.Error(ctx, "tracing_shutdown_failed", "Failed to flush traces", err)
	}
	rt.Logger.Sync()
}
