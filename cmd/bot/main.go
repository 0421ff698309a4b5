package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ykvlv/oazis/internal/app"
	"github.com/ykvlv/oazis/internal/config"
	"github.com/ykvlv/oazis/internal/logger"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code: 2 for startup misconfiguration, 1 for
// runtime failures.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "oazis: %v\n", err)
		return 2
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oazis: logger: %v\n", err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	bot, err := app.New(cfg, log)
	if err != nil {
		log.Error("telegram client init failed", zap.Error(err))
		return 2
	}

	if err := bot.Run(context.Background()); err != nil {
		log.Error("oazis stopped with error", zap.Error(err))
		return 1
	}
	log.Info("oazis stopped")
	return 0
}
