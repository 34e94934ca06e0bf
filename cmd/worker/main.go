package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"scriba/internal/config"
	"scriba/internal/storage"
	"scriba/internal/version"
	"scriba/internal/worker"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatal(err)
	}

	db, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	pipeline := worker.NewPipeline(cfg)
	defer pipeline.Close()

	w := worker.NewWorker(
		storage.NewJobRepository(db),
		storage.NewTranscriptRepository(db),
		pipeline,
		cfg.PollInterval,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Starting Scriba worker v%s (model: %s, poll: %s, auto-ingest: %v)",
		version.Version, cfg.DefaultModel, cfg.PollInterval, cfg.AutoIngestEnabled)
	w.Start(ctx)

	<-ctx.Done()
	log.Println("Shutting down...")
	w.Stop()
}
