package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amaumene/popcorn/internal/app"
	"github.com/amaumene/popcorn/internal/config"
	"github.com/amaumene/popcorn/internal/tracing"
	"github.com/amaumene/popcorn/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "popcorn",
		Short:         "Search movies, rate them and keep a watched list",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config-dir", "", "directory holding the watched list (default ~/.config/popcorn)")
	flags.String("storage", "", "storage driver: bolt, sqlite, file or memory")
	flags.String("log-level", "", "log level")
	viper.BindPFlag("CONFIG_DIR", flags.Lookup("config-dir"))
	viper.BindPFlag("STORAGE_DRIVER", flags.Lookup("storage"))
	viper.BindPFlag("LOG_LEVEL", flags.Lookup("log-level"))

	root.AddCommand(
		newServeCmd(),
		newSearchCmd(),
		newDetailCmd(),
		newWatchedCmd(),
		newStatsCmd(),
	)
	return root
}

// session loads the configuration and wires the application.
// One-shot commands log to stderr so their output stays clean.
func session(cmd *cobra.Command, oneShot bool) (*app.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := utils.NewLogger(cfg.LogLevel)
	if oneShot {
		logger.SetOutput(os.Stderr)
		if !cmd.Flags().Changed("log-level") && os.Getenv("LOG_LEVEL") == "" {
			logger.SetLevel(logrus.WarnLevel)
		}
	}
	logger.WithField("config_dir", cfg.ConfigDir).Debug("Configuration loaded")

	shutdownTracing, err := tracing.Setup(cfg.TracingEnabled, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	a, cleanup, err := app.InitializeApp(cfg, logger)
	if err != nil {
		shutdownTracing(context.Background())
		return nil, nil, fmt.Errorf("failed to initialize application: %w", err)
	}

	return a, func() {
		cleanup()
		if err := shutdownTracing(context.Background()); err != nil {
			logger.WithError(err).Warn("Failed to flush traces")
		}
	}, nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd)
		},
	}
	cmd.Flags().String("port", "", "HTTP port (default 8080)")
	viper.BindPFlag("SERVER_PORT", cmd.Flags().Lookup("port"))
	return cmd
}

func serve(cmd *cobra.Command) error {
	a, cleanup, err := session(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	logger := a.Logger
	logger.WithField("watched", len(a.Browser.Watched())).Info("Starting Popcorn")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := a.Server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Popcorn is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := a.Server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("Popcorn stopped")
	return nil
}
