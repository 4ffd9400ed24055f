package config

import (
	"os"
	"strconv"
	"strings"

	"winstack/domain/stats"
	"winstack/internal/errors"
)

// Combination methods accepted by the weight solver.
const (
	MethodNNLS     = "nnls"
	MethodNNLogLik = "nnloglik"
)

// Config represents the complete pipeline configuration. All of it is
// validated before any training starts.
type Config struct {
	Pipeline PipelineConfig
	Data     DataConfig
	Server   ServerConfig
}

// PipelineConfig holds the stacking and evaluation parameters.
type PipelineConfig struct {
	Folds    int
	Shuffle  bool
	Seed     int64
	Method   string
	BinWidth float64
	Learners []string
	TimeLeft stats.Range
	Diff     stats.Range
}

// DataConfig selects the observation source. DatabaseURL wins over DataFile;
// with neither set the caller falls back to synthetic data.
type DataConfig struct {
	DatabaseURL string
	Table       string
	DataFile    string
}

// ServerConfig holds the artifact API settings.
type ServerConfig struct {
	Port string
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Pipeline: PipelineConfig{
			Folds:    getEnvIntOrDefault("FOLDS", 10),
			Shuffle:  getEnvBoolOrDefault("SHUFFLE", false),
			Seed:     int64(getEnvIntOrDefault("SEED", 1)),
			Method:   getEnvOrDefault("COMBINATION_METHOD", MethodNNLogLik),
			BinWidth: getEnvFloatOrDefault("CALIBRATION_BIN_WIDTH", 0.01),
			Learners: splitList(getEnvOrDefault("LEARNERS", "logistic,knn,cellfreq,prior")),
			TimeLeft: stats.Range{
				Min: getEnvIntOrDefault("TIME_LEFT_MIN", 1),
				Max: getEnvIntOrDefault("TIME_LEFT_MAX", 600),
			},
			Diff: stats.Range{
				Min: getEnvIntOrDefault("DIFF_MIN", -30),
				Max: getEnvIntOrDefault("DIFF_MAX", 30),
			},
		},
		Data: DataConfig{
			DatabaseURL: getEnvOrDefault("DATABASE_URL", ""),
			Table:       getEnvOrDefault("OBSERVATIONS_TABLE", "observations"),
			DataFile:    getEnvOrDefault("DATA_FILE", ""),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
	}

	if err := cfg.Pipeline.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// Validate rejects invalid pipeline parameters before any training starts.
func (c PipelineConfig) Validate() error {
	if c.Folds < 2 {
		return errors.ConfigInvalid("FOLDS must be at least 2")
	}
	if c.Method != MethodNNLS && c.Method != MethodNNLogLik {
		return errors.ConfigInvalid("COMBINATION_METHOD must be nnls or nnloglik")
	}
	if c.BinWidth <= 0 || c.BinWidth > 1 {
		return errors.ConfigInvalid("CALIBRATION_BIN_WIDTH must be in (0, 1]")
	}
	if len(c.Learners) == 0 {
		return errors.ConfigInvalid("LEARNERS must name at least one learner")
	}
	if err := c.TimeLeft.Validate(); err != nil {
		return errors.Wrap(err, "TIME_LEFT range")
	}
	if err := c.Diff.Validate(); err != nil {
		return errors.Wrap(err, "DIFF range")
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Helper functions for environment variable parsing

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
