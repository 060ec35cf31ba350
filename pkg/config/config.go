// Package config provides configuration loading and management for coloccount.
// It handles loading configuration from YAML files, environment overrides and
// provides default values for the nucleus counting protocol.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"coloccount/internal/models"
	"coloccount/pkg/coloc"
)

// Colocalization strategies
const (
	StrategyCentroidMatch = "centroid-match"
	StrategyPixelFraction = "pixel-fraction"
)

// Window modes
const (
	WindowNucleiSize = "nuclei-size"
	WindowFixed      = "fixed"
)

// ChannelConfig holds the detection bounds of one image channel
type ChannelConfig struct {
	// Channel is the 1-based channel index in the source stack
	Channel int `yaml:"channel"`

	// ThresholdMin and ThresholdMax bound the intensity threshold used by the detector
	ThresholdMin int `yaml:"thresholdMin"`
	ThresholdMax int `yaml:"thresholdMax"`

	// CircularityMin rejects particles less round than this (0 accepts all)
	CircularityMin float64 `yaml:"circularityMin"`

	// SizeMin and SizeMax bound the particle area in pixels
	SizeMin float64 `yaml:"sizeMin"`
	SizeMax float64 `yaml:"sizeMax"`

	// Preprocess asks the detector to enhance and threshold the channel first
	Preprocess bool `yaml:"preprocess"`
}

// Config represents the application configuration loaded from YAML
type Config struct {
	// Nuclei channel detection parameters
	Nuclei ChannelConfig `yaml:"nuclei"`

	// Protein (signal) channel parameters
	Protein struct {
		ChannelConfig `yaml:",inline"`

		// PixelThreshold is the intensity a signal pixel must exceed in the
		// pixel-fraction strategy
		PixelThreshold float64 `yaml:"pixelThreshold"`
	} `yaml:"protein"`

	// Preprocessing parameters handed to the detector
	Preprocessing struct {
		EnhanceContrastSaturated  float64 `yaml:"enhanceContrastSaturated"`
		SubtractBackgroundRolling int     `yaml:"subtractBackgroundRolling"`
	} `yaml:"preprocessing"`

	// Colocalization decision parameters
	Colocalization struct {
		// Strategy is "centroid-match" or "pixel-fraction"
		Strategy string `yaml:"strategy"`

		// Coordinates is "nucleus", "clamped-nucleus" or "signal"
		Coordinates string `yaml:"coordinates"`

		// Window configures the coarse prefilter half width
		Window struct {
			// Mode is "nuclei-size" (2 * nuclei.sizeMax) or "fixed"
			Mode string `yaml:"mode"`

			// Fixed is the half width used in fixed mode
			Fixed float64 `yaml:"fixed"`
		} `yaml:"window"`

		// ImageWidth and ImageHeight bound clamped coordinates. Zero means
		// take them from the signal image.
		ImageWidth  int `yaml:"imageWidth"`
		ImageHeight int `yaml:"imageHeight"`
	} `yaml:"colocalization"`

	// Output parameters
	Output struct {
		// ResultsDir receives the marker file
		ResultsDir string `yaml:"resultsDir"`

		// MarkerFile is the marker file name inside ResultsDir
		MarkerFile string `yaml:"markerFile"`

		// LogLevel is a zerolog level name
		LogLevel string `yaml:"logLevel"`

		// Verbose prints the run summary
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Nuclei = ChannelConfig{
		Channel:        1,
		ThresholdMin:   50,
		ThresholdMax:   255,
		CircularityMin: 0.40,
		SizeMin:        40,
		SizeMax:        4000,
	}

	cfg.Protein.ChannelConfig = ChannelConfig{
		Channel:      4,
		ThresholdMin: 100,
		ThresholdMax: 255,
		SizeMin:      40,
		SizeMax:      4000,
	}
	cfg.Protein.PixelThreshold = 100

	cfg.Preprocessing.EnhanceContrastSaturated = 0.4
	cfg.Preprocessing.SubtractBackgroundRolling = 50

	cfg.Colocalization.Strategy = StrategyCentroidMatch
	cfg.Colocalization.Coordinates = coloc.NucleusCentroid.String()
	cfg.Colocalization.Window.Mode = WindowNucleiSize
	cfg.Colocalization.Window.Fixed = 1500

	cfg.Output.ResultsDir = "results"
	cfg.Output.MarkerFile = "result.xml"
	cfg.Output.LogLevel = "info"
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// Validate checks that every parameter the algorithms read is usable.
// All failures are *models.ConfigurationError.
func (c *Config) Validate() error {
	if err := validateChannel("nuclei", c.Nuclei); err != nil {
		return err
	}
	if err := validateChannel("protein", c.Protein.ChannelConfig); err != nil {
		return err
	}
	if math.IsNaN(c.Protein.PixelThreshold) || c.Protein.PixelThreshold < 0 {
		return models.NewConfigurationError("protein.pixelThreshold", "must be non-negative, got %v", c.Protein.PixelThreshold)
	}

	switch c.Colocalization.Strategy {
	case StrategyCentroidMatch, StrategyPixelFraction:
	default:
		return models.NewConfigurationError("colocalization.strategy", "unknown strategy %q", c.Colocalization.Strategy)
	}
	if _, err := coloc.ParseCoordinatePolicy(c.Colocalization.Coordinates); err != nil {
		return err
	}
	if _, err := c.Window(); err != nil {
		return err
	}
	if c.Colocalization.ImageWidth < 0 || c.Colocalization.ImageHeight < 0 {
		return models.NewConfigurationError("colocalization.imageSize", "must not be negative")
	}

	if c.Output.MarkerFile == "" {
		return models.NewConfigurationError("output.markerFile", "is required")
	}
	return nil
}

func validateChannel(name string, ch ChannelConfig) error {
	if ch.Channel < 1 {
		return models.NewConfigurationError(name+".channel", "must be at least 1, got %d", ch.Channel)
	}
	if ch.ThresholdMin < 0 || ch.ThresholdMax < ch.ThresholdMin {
		return models.NewConfigurationError(name+".threshold", "invalid range %d-%d", ch.ThresholdMin, ch.ThresholdMax)
	}
	if ch.CircularityMin < 0 || ch.CircularityMin > 1 {
		return models.NewConfigurationError(name+".circularityMin", "must be in [0,1], got %v", ch.CircularityMin)
	}
	if !(ch.SizeMin > 0) || ch.SizeMax < ch.SizeMin {
		return models.NewConfigurationError(name+".size", "invalid range %v-%v", ch.SizeMin, ch.SizeMax)
	}
	return nil
}

// Window returns the coarse prefilter half width selected by the window mode.
func (c *Config) Window() (float64, error) {
	var w float64
	switch c.Colocalization.Window.Mode {
	case WindowNucleiSize:
		w = 2 * c.Nuclei.SizeMax
	case WindowFixed:
		w = c.Colocalization.Window.Fixed
	default:
		return 0, models.NewConfigurationError("colocalization.window.mode", "unknown mode %q", c.Colocalization.Window.Mode)
	}
	if !(w > 0) {
		return 0, models.NewConfigurationError("colocalization.window", "must be positive, got %v", w)
	}
	return w, nil
}

// ColocOptions derives the matcher options. width and height are used for
// clamped coordinates when the configuration leaves the image size at zero.
func (c *Config) ColocOptions(width, height int) (coloc.Options, error) {
	w, err := c.Window()
	if err != nil {
		return coloc.Options{}, err
	}
	policy, err := coloc.ParseCoordinatePolicy(c.Colocalization.Coordinates)
	if err != nil {
		return coloc.Options{}, err
	}
	opts := coloc.Options{
		Window:      w,
		Coordinates: policy,
		ImageWidth:  c.Colocalization.ImageWidth,
		ImageHeight: c.Colocalization.ImageHeight,
	}
	if opts.ImageWidth == 0 {
		opts.ImageWidth = width
	}
	if opts.ImageHeight == 0 {
		opts.ImageHeight = height
	}
	return opts, opts.Validate()
}

// MarkerPath returns the full path of the marker file.
func (c *Config) MarkerPath() string {
	return filepath.Join(c.Output.ResultsDir, c.Output.MarkerFile)
}
