package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/clipdoc/internal/app"
	"github.com/MrSnakeDoc/clipdoc/internal/config"
	"github.com/MrSnakeDoc/clipdoc/internal/logger"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the clipdoc daemon",
		Long: `Run the daemon: the background clipboard watcher, the delivery owner and
the local control API used by the other commands and the browser helper.

Configuration comes from the environment (CLIPDOC_*), an optional .env file
and $XDG_CONFIG_HOME/clipdoc/config.yaml.`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = loggerClient.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, loggerClient)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}
