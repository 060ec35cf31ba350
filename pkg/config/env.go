package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"coloccount/internal/models"
)

// Environment variables recognized by ApplyEnv
const (
	EnvStrategy       = "COLOC_STRATEGY"
	EnvCoordinates    = "COLOC_COORDINATES"
	EnvWindowMode     = "COLOC_WINDOW_MODE"
	EnvWindow         = "COLOC_WINDOW"
	EnvPixelThreshold = "COLOC_PIXEL_THRESHOLD"
	EnvResultsDir     = "COLOC_RESULTS_DIR"
	EnvLogLevel       = "COLOC_LOG_LEVEL"
)

// LoadEnvFile loads variables from a .env file into the process environment.
// A missing file is not an error. Variables already set are kept.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides configuration fields from COLOC_* environment variables.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvStrategy); v != "" {
		cfg.Colocalization.Strategy = v
	}
	if v := os.Getenv(EnvCoordinates); v != "" {
		cfg.Colocalization.Coordinates = v
	}
	if v := os.Getenv(EnvWindowMode); v != "" {
		cfg.Colocalization.Window.Mode = v
	}
	if v := os.Getenv(EnvWindow); v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return models.NewConfigurationError(EnvWindow, "not a number: %q", v)
		}
		cfg.Colocalization.Window.Mode = WindowFixed
		cfg.Colocalization.Window.Fixed = w
	}
	if v := os.Getenv(EnvPixelThreshold); v != "" {
		th, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return models.NewConfigurationError(EnvPixelThreshold, "not a number: %q", v)
		}
		cfg.Protein.PixelThreshold = th
	}
	if v := os.Getenv(EnvResultsDir); v != "" {
		cfg.Output.ResultsDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Output.LogLevel = v
	}
	return nil
}
