package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/csms/core/internal/app/bootstrap"
)

func main() {
	configPath := flag.String("config", "", "path to config file (falls back to IOT_CONFIG env var / configs/example.yaml)")
	flag.Parse()

	app, err := bootstrap.Build(*configPath)
	if err != nil {
		panic(err)
	}
	logger := app.Logger()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		logger.Error("csms exited with error", zap.Error(err))
		os.Exit(1)
	}
}
