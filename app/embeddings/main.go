package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"vidShare/domain"
	"vidShare/internal/wiring"
	"vidShare/pkg/config"
	"vidShare/pkg/logger"
)

func main() {
	kindFlag := flag.String("kind", "all", "content kinds to backfill: video, post, blog or all")
	batchSize := flag.Int("batch-size", 100, "entities per batch")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.App.Environment)

	kinds, err := domain.ParseContentKinds(*kindFlag)
	if err != nil {
		logger.Fatal("Invalid --kind", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := wiring.Build(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialise services", "error", err)
	}
	defer cleanup()

	for _, kind := range kinds {
		stats, err := app.Embeddings.Backfill(ctx, kind, *batchSize)
		if err != nil {
			logger.Error("Backfill aborted", "kind", kind, "error", err)
			return
		}
		logger.Info("Backfill done",
			"kind", stats.Kind,
			"total", stats.Total,
			"success", stats.Success,
			"failed", stats.Failed,
		)
	}
}
