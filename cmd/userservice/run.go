package userservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	service "git.platform.alem.school/amibragim/shop-events/internal/app/userservice"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/bootstrap"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/httpx"
	pg "git.platform.alem.school/amibragim/shop-events/internal/shared/postgres"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/rabbitmq"

	"golang.org/x/sync/errgroup"
)

// Run wires the user service and blocks until ctx is cancelled.
// It returns the first terminal error (server or startup failure).
func Run(ctx context.Context, port int, maxConcurrent int) error {
	rt, err := bootstrap.Start(ctx, "user-service")
	if err != nil {
		return err
	}
	defer rt.Close()

	logger := rt.Logger
	startCtx := logger.WithRequestID(ctx, "startup-001")

	// set up a Postgres connection pool
	pool, err := pg.NewPool(startCtx, rt.Config.Database.URL, logger)
	if err != nil {
		logger.Error(startCtx, "db_connection_failed", "Failed to initialize Postgres pool", err)
		return err
	}
	defer pool.Close()

	if err := pg.EnsureSchema(startCtx, pool); err != nil {
		logger.Error(startCtx, "db_schema_failed", "Failed to ensure schema", err)
		return err
	}

	// the broker connects in the background; publishes fail until it does
	rmq := rabbitmq.NewClient(rt.Config.RabbitMQ.URL, logger, rabbitmq.WithMetrics(rt.Metrics))
	publisher := rabbitmq.NewPublisher(rmq, rt.Metrics)

	// set up repositories, unit of work, and application service
	svc := service.New(pg.NewUnitOfWork(pool), pg.NewUsersRepo(), publisher, logger)

	mux := http.NewServeMux()
	service.NewUserHTTPHandler(svc, logger).Register(mux)
	mux.Handle("GET /metrics", rt.Metrics.Handler())
	mux.Handle("GET /healthz", httpx.HealthHandler(map[string]httpx.Check{
		"postgres": pg.Health(pool),
		"rabbitmq": rmq.Health,
	}))

	srv := httpx.NewServer(ctx, port, httpx.WithRequestID(logger, httpx.WithConcurrencyLimit(maxConcurrent, mux)))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := rmq.Open(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-rmq.Lost():
			logger.Warn(gctx, "publishing_degraded", "RabbitMQ connection lost; events will not be published until restart", nil)
		}
		return nil
	})
	g.Go(func() error {
		return httpx.Serve(gctx, srv)
	})

	logger.Info(startCtx, "service_started",
		fmt.Sprintf("User Service started on port %d", port),
		map[string]any{"port": port, "max_concurrent": maxConcurrent},
	)

	err = g.Wait()
	rmq.Close()
	logger.Info(logger.WithRequestID(context.Background(), "shutdown-001"), "graceful_shutdown", "Shutting down user service", nil)
	return err
}
