package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Philipp01105/logging-framework/internal/app"
	"github.com/Philipp01105/logging-framework/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ingestion server",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := config.Load(configPath, zap.NewNop())
	if portOverride != 0 {
		cfg.ServerPort = portOverride
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log, err := buildLogger(cfg.LogLevel)
	handleFatal(err, "failed to build logger")
	defer log.Sync()

	srv, err := app.New(cfg, log)
	handleFatal(err, "failed to start server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv.Run(ctx)
}

// buildLogger constructs a zap logger at the requested level, falling back
// to "info" for an unrecognised value rather than failing startup.
func buildLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	return cfg.Build()
}
