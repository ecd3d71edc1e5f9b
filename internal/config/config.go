// Package config reads process configuration from the environment.
package config

import (
	"os"
	"strconv"
)

// Config holds all prguard configuration.
type Config struct {
	Train    TrainConfig
	Serve    ServeConfig
	LogLevel string
}

// TrainConfig holds training-job settings.
type TrainConfig struct {
	InputPath     string
	ModelPath     string
	MetaPath      string
	Contamination float64
	NEstimators   int
	Seed          int64
}

// ServeConfig holds serving settings.
type ServeConfig struct {
	ModelPath string
	Port      int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		Train: TrainConfig{
			InputPath:     getenv("INPUT_DATA_PATH", "data/alldata.csv"),
			ModelPath:     getenv("OUTPUT_MODEL_PATH", "models/model.gob"),
			MetaPath:      getenv("OUTPUT_META_PATH", "models/metadata.json"),
			Contamination: getenvFloat("CONTAMINATION", 0.05),
			NEstimators:   getenvInt("N_ESTIMATORS", 200),
			Seed:          int64(getenvInt("RANDOM_STATE", 42)),
		},
		Serve: ServeConfig{
			ModelPath: getenv("MODEL_PATH", "models/model.gob"),
			Port:      getenvInt("PORT", 8080),
		},
		LogLevel: getenv("LOG_LEVEL", "info"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
