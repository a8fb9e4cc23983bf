package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"vidShare/internal/wiring"
	"vidShare/pkg/config"
	"vidShare/pkg/logger"
	"vidShare/pkg/metrics"
)

func main() {
	loop := flag.Bool("loop", false, "keep running, one cycle per interval")
	interval := flag.Duration("interval", 0, "time between cycles in loop mode (default PRECOMPUTE_INTERVAL)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := wiring.Build(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialise services", "error", err)
	}
	defer cleanup()

	if !*loop {
		res, err := app.Scheduler.RunCycle(ctx)
		if err != nil {
			logger.Error("Precompute failed", "error", err)
			return
		}
		logger.Info("Precompute done", "succeeded", res.Succeeded, "failed", res.Failed)
		return
	}

	every := *interval
	if every <= 0 {
		every = cfg.Precompute.Interval
	}
	logger.Info("Precompute scheduler starting", "interval", every.String())
	app.Scheduler.Run(ctx, every)
}
