package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"winstack/adapters/api"
	"winstack/adapters/excel"
	"winstack/adapters/learners"
	"winstack/adapters/memory"
	"winstack/adapters/postgres"
	"winstack/app"
	"winstack/domain/dataset"
	"winstack/internal"
	"winstack/internal/config"
	"winstack/internal/testkit"
	"winstack/ports"
)

// Runs the super-learner pipeline once and serves the resulting artifacts
// over HTTP. Use cmd/pipeline for a batch-only run.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}
	logger := internal.NewDefaultLogger()

	ctx := context.Background()
	source, err := observationSource(cfg, logger)
	if err != nil {
		log.Fatalf("data source: %v", err)
	}
	ds, err := source.LoadObservations(ctx)
	if err != nil {
		log.Fatalf("loading observations: %v", err)
	}

	learnerSet, err := learners.FromNames(cfg.Pipeline.Learners)
	if err != nil {
		log.Fatalf("learner registry: %v", err)
	}

	runs := memory.NewRunRepository()
	service := app.NewPipelineService(runs, logger)
	result, err := service.Run(ctx, app.RunRequest{
		Dataset:  ds,
		Learners: learnerSet,
		Config:   cfg.Pipeline,
	})
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}
	logger.Info("serving artifacts for run %s", result.RunID)

	server := api.NewServer(runs, logger)
	if err := server.ListenAndServe(cfg.Server.Port); err != nil {
		log.Fatalf("artifact API: %v", err)
	}
}

// observationSource picks the configured data source: Postgres over a data
// file, falling back to a seeded synthetic simulation when neither is set.
func observationSource(cfg *config.Config, logger *internal.Logger) (ports.ObservationRepository, error) {
	if cfg.Data.DatabaseURL != "" {
		db, err := postgres.Connect(cfg.Data.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return postgres.NewObservationRepository(db, cfg.Data.Table), nil
	}
	if cfg.Data.DataFile != "" {
		return excel.NewObservationReader(cfg.Data.DataFile), nil
	}
	logger.Warn("no data source configured, simulating games with seed %d", cfg.Pipeline.Seed)
	return syntheticSource{seed: cfg.Pipeline.Seed}, nil
}

type syntheticSource struct {
	seed int64
}

func (s syntheticSource) LoadObservations(ctx context.Context) (*dataset.Dataset, error) {
	return testkit.GenerateGames(200, 60, s.seed)
}
