package main

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/joho/godotenv"

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

// Batch run: execute the pipeline once and print the artifact tables.
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

	service := app.NewPipelineService(memory.NewRunRepository(), logger)
	result, err := service.Run(ctx, app.RunRequest{
		Dataset:  ds,
		Learners: learnerSet,
		Config:   cfg.Pipeline,
	})
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}

	fmt.Printf("run %s (%s, %d folds, %d observations)\n",
		result.RunID, result.Method, result.Folds, result.Observations)

	fmt.Println("\ncombination weights:")
	names := make([]string, 0, len(result.Weights))
	for name := range result.Weights {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-12s %.6f\n", name, result.Weights[name])
	}

	fmt.Println("\ncross-validated AUC:")
	for _, est := range result.LearnerAUC {
		fmt.Printf("  %-12s %.4f  [%.4f, %.4f]\n", est.Learner, est.AUC, est.CILower, est.CIUpper)
	}
	fmt.Printf("  %-12s %.4f  (no interval: weights were fit on the evaluated folds)\n",
		"ensemble", result.Ensemble.AUC)

	fmt.Printf("\ncalibration (%d bins):\n", len(result.Calibration))
	for _, bin := range result.Calibration {
		empirical := "      -"
		if bin.MeanEmpirical != nil {
			empirical = fmt.Sprintf("%.4f", *bin.MeanEmpirical)
		}
		fmt.Printf("  (%.3f, %.3f]  predicted %.4f  empirical %s  n=%d\n",
			bin.Lower, bin.Upper, bin.MeanPredicted, empirical, bin.Count)
	}
}

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
