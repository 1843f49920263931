package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Arturia169/my-homepage/internal/app"
	"github.com/Arturia169/my-homepage/internal/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "liveapi",
	Short:         "Live status aggregator for Bilibili rooms and YouTube channels",
	Long:          `HTTP API serving /api/live. Commands: serve, once, snapshot, version.`,
	RunE:          runServe, // default: same as "liveapi serve"
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	config.LoadEnvFile()
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("liveapi: %v", err)
	}
}

// bootstrap loads config, builds the logger and wires the app. The returned
// cleanup closes the app and flushes the logger.
func bootstrap(ctx context.Context) (*app.App, func(), error) {
	cfg := config.Load()
	logger, err := app.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return a, func() {
		a.Close()
		_ = logger.Sync()
	}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
