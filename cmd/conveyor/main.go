package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/seantiz/conveyor/internal/api"
	"github.com/seantiz/conveyor/internal/config"
	"github.com/seantiz/conveyor/internal/engine"
	"github.com/seantiz/conveyor/internal/handler"
	"github.com/seantiz/conveyor/internal/handler/builtin"
	"github.com/seantiz/conveyor/internal/store"
)

const engineStopTimeout = 30 * time.Second

func main() {
	// Optional .env file for local development; the environment always wins.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	logger.Info("conveyor: starting",
		"listen_addr", cfg.ListenAddr,
		"workers", cfg.Workers,
		"retention", cfg.Retention.String(),
		"sweep_interval", cfg.SweepInterval.String(),
	)

	s := store.NewMemoryStore(logger)
	defer s.Close()

	registry := handler.NewRegistry()
	if err := builtin.RegisterAll(registry); err != nil {
		log.Fatalf("failed to register handlers: %v", err)
	}

	eng := engine.New(s, registry, logger,
		engine.WithWorkers(cfg.Workers),
		engine.WithRetention(cfg.Retention),
		engine.WithSweepInterval(cfg.SweepInterval),
	)
	if err := eng.Start(context.Background()); err != nil {
		log.Fatalf("failed to start engine: %v", err)
	}

	srv := api.NewServer(cfg.ListenAddr, s, registry, eng, logger, cfg.SubmitRate)

	if err := srv.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}

	// Let in-flight jobs finish before exiting.
	ctx, cancel := context.WithTimeout(context.Background(), engineStopTimeout)
	defer cancel()
	if err := eng.Stop(ctx); err != nil {
		log.Fatalf("engine shutdown error: %v", err)
	}
}
