package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"git.platform.alem.school/amibragim/shop-events/internal/cli"
)

func main() {
	// create context cancelled on SIGINT/SIGTERM signals ensuring graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := cli.NewRootCmd(ctx)
	root.SetArgs(cli.NormalizeArgs(os.Args[1:]))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
