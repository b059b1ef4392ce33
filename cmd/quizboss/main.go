// Package main runs the quizboss server: boss fights over Telnet plus the
// gRPC admin endpoint.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/quizboss/internal/config"
	"github.com/cory-johannsen/quizboss/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting quizboss",
		zap.String("server", cfg.Server.Name),
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.Bool("admin", cfg.Admin.Enabled),
		zap.String("content_source", cfg.Content.Source),
	)

	ctx := context.Background()
	a, cleanup, err := initializeApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("initializing server", zap.Error(err))
	}
	defer cleanup()

	logger.Info("server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("default_pack", cfg.Content.DefaultPack),
	)

	if err := a.run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
	}
}
