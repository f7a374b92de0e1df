package notificationhub

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	service "git.platform.alem.school/amibragim/shop-events/internal/app/notificationhub"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/bootstrap"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/httpx"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/mailer"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/rabbitmq"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/userclient"

	"golang.org/x/sync/errgroup"
)

// ErrConnectionLost is returned when the broker drops the connection after
// startup. The hub does not redial; its supervisor restarts it.
var ErrConnectionLost = errors.New("rabbitmq connection lost")

// Run connects to RabbitMQ, declares the hub topology and consumes every hub
// queue until ctx is cancelled or the connection is lost.
func Run(ctx context.Context, port int) error {
	rt, err := bootstrap.Start(ctx, "notification-hub")
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := rt.Config
	logger := rt.Logger
	startCtx := logger.WithRequestID(ctx, "startup-001")

	// blocks until connected; only shutdown interrupts it
	rmq, err := rabbitmq.Connect(startCtx, cfg.RabbitMQ.URL, logger, rabbitmq.WithMetrics(rt.Metrics))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	defer rmq.Close()

	ch, err := rmq.Channel()
	if err != nil {
		return err
	}

	bindings, err := rabbitmq.DeclareTopology(ch)
	if err != nil {
		logger.Error(startCtx, "rabbitmq_topology_failed", "Failed to declare hub queues", err)
		return err
	}

	// order_placed -> resolver -> notifier
	users := userclient.New(cfg.UserService.URL, cfg.UserService.LookupTimeout)
	mail := mailer.New(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, logger, rt.Metrics)
	resolver := service.NewResolver(users, cfg.AdminEmail, mail.From(), logger, rt.Metrics)
	dispatcher := service.NewDispatcher(service.NewNotifier(resolver, mail, logger), logger)

	consumer, err := service.NewConsumer(ch, dispatcher, cfg.HandlerFailurePolicy, logger, rt.Metrics)
	if err != nil {
		logger.Error(startCtx, "rabbitmq_qos_failed", "Failed to set prefetch", err)
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", rt.Metrics.Handler())
	mux.Handle("GET /healthz", httpx.HealthHandler(map[string]httpx.Check{"rabbitmq": rmq.Health}))
	srv := httpx.NewServer(ctx, port, httpx.WithRequestID(logger, mux))

	g, gctx := errgroup.WithContext(ctx)

	// one sequential consumer per queue
	for _, b := range bindings {
		queue := b.Queue
		g.Go(func() error {
			return consumer.Run(gctx, queue)
		})
	}
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-rmq.Lost():
			return ErrConnectionLost
		}
	})
	g.Go(func() error {
		return httpx.Serve(gctx, srv)
	})

	logger.Info(startCtx, "service_started",
		fmt.Sprintf("Notification hub started on port %d", port),
		map[string]any{"port": port, "queues": len(bindings), "failure_policy": cfg.HandlerFailurePolicy},
	)

	err = g.Wait()
	logger.Info(logger.WithRequestID(context.Background(), "shutdown-001"), "graceful_shutdown", "Shutting down notification hub", nil)
	return err
}
