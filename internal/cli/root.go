// Package cli defines the shop-events command line.
package cli

import (
	"context"
	"fmt"

	"git.platform.alem.school/amibragim/shop-events/cmd/notificationhub"
	"git.platform.alem.school/amibragim/shop-events/cmd/productservice"
	"git.platform.alem.school/amibragim/shop-events/cmd/userservice"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
)

var version = "dev"

// NewRootCmd builds the command tree. Every mode blocks until ctx is cancelled.
func NewRootCmd(ctx context.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shop-events",
		Short: "Event-driven shop services on a shared RabbitMQ exchange",
		Long: `shop-events runs one of the shop services. Producers publish domain events to
the durable "events" exchange; the notification hub consumes them and emails
order notifications.`,
		Example: `  shop-events user-service --port=3002
  shop-events product-service --port=3001 --max-concurrent=50
  shop-events notification-hub --port=3003
  shop-events --mode=notification-hub`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newHTTPServiceCmd(ctx, ModeUser, "HTTP API for registration, login and user lookups", 3002, userservice.Run),
		newHTTPServiceCmd(ctx, ModeProduct, "HTTP API for the catalog and order placement", 3001, productservice.Run),
		newHubCmd(ctx),
	)
	return rootCmd
}

type httpRunFunc func(ctx context.Context, port, maxConcurrent int) error

func newHTTPServiceCmd(ctx context.Context, mode, short string, fallbackPort int, run httpRunFunc) *cobra.Command {
	var port, maxConcurrent int

	cmd := &cobra.Command{
		Use:   mode,
		Short: short,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validatePort(port); err != nil {
				return err
			}
			if maxConcurrent <= 0 {
				return fmt.Errorf("--max-concurrent must be > 0")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(ctx, port, maxConcurrent)
		},
	}

	cmd.Flags().IntVar(&port, "port", defaultPort(fallbackPort), "HTTP port for the API (env HTTP_PORT)")
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 50, "Maximum number of requests served at once")
	return cmd
}

func newHubCmd(ctx context.Context) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   ModeHub,
		Short: "RabbitMQ consumer that turns order events into email notifications",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validatePort(port)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return notificationhub.Run(ctx, port)
		},
	}

	cmd.Flags().IntVar(&port, "port", defaultPort(3003), "HTTP port for /healthz and /metrics (env HTTP_PORT)")
	return cmd
}

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("--port must be between 1 and 65535")
	}
	return nil
}

// defaultPort returns HTTP_PORT when it is set and valid, else fallback.
func defaultPort(fallback int) int {
	var portEnv struct {
		Port int `env:"HTTP_PORT"`
	}
	if err := env.Parse(&portEnv); err != nil || portEnv.Port == 0 {
		return fallback
	}
	return portEnv.Port
}
