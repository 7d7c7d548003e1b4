package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/courseloom/backend/internal/app"
	"github.com/courseloom/backend/internal/config"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
		cancel()
	}()

	cfg := config.LoadConfig()
	logger, err := newLogger(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	application, err := app.NewApp(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalw("startup failed", "error", err)
	}
	defer application.Close()

	application.Start(ctx)
	sugar.Info("courseloom backend is running")

	<-ctx.Done()
	sugar.Info("shutting down...")
}

func newLogger(mode string) (*zap.Logger, error) {
	switch strings.ToLower(mode) {
	case "prod", "production":
		return zap.NewProduction()
	default:
		return zap.NewDevelopment()
	}
}
