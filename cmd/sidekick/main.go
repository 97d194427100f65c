package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dohr-michael/sidekick/cmd/commands"
	"github.com/dohr-michael/sidekick/internal/config"
	"github.com/dohr-michael/sidekick/internal/models"
)

func main() {
	if err := config.LoadDotenv(config.DotenvPath()); err != nil {
		slog.Warn("failed to load .env", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := commands.NewRootCommand()
	if err := cmd.Run(ctx, os.Args); err != nil {
		var connErr *models.ConnectivityError
		if errors.As(err, &connErr) {
			fmt.Fprintf(os.Stderr, "Cannot reach %s: %v\n", connErr.Provider, connErr.Err)
			os.Exit(1)
		}
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
