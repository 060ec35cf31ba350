package analysis

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"coloccount/internal/logger"
	"coloccount/internal/models"
	"coloccount/pkg/coloc"
	"coloccount/pkg/config"
	"coloccount/pkg/intensity"
	"coloccount/pkg/marker"
	"coloccount/pkg/particles"
)

// markerNamePrefix is prepended to the image name in the marker file header,
// matching the window title the cell counter shows.
const markerNamePrefix = "Counter Window - "

// Params holds the inputs of one analysis run.
type Params struct {
	// NucleiFile is the results table of the nuclei particle analysis
	NucleiFile string

	// SignalFile is the results table of the signal particle analysis.
	// Required by the centroid-match strategy.
	SignalFile string

	// SignalImage is the signal channel image. Required by the
	// pixel-fraction strategy; used for the image size otherwise.
	SignalImage string

	// SourceName is the image name written to the marker file. Defaults to
	// the base name of SignalImage or NucleiFile.
	SourceName string

	// Config holds the validated run configuration
	Config *config.Config
}

// Analyzer runs one colocalization analysis: load detections, decide, export.
//
// The steps are:
// 1. Loading the nuclei detection set and applying the nuclei bounds
// 2. Running the configured strategy (centroid match or pixel fraction)
// 3. Building the marker document from the positive observations
// 4. Writing the marker file and computing the run summary
//
// An Analyzer holds the state of a single run and is not meant to be reused.
type Analyzer struct {
	params *Params
	log    zerolog.Logger

	nuclei  models.DetectionSet
	signals models.DetectionSet
	matches []models.MatchRecord
	labels  []bool
	points  []models.MarkerPoint

	summary Summary
}

// NewAnalyzer creates an analyzer for the given run parameters.
func NewAnalyzer(params *Params, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		params: params,
		log:    logger.Component(log, "analysis"),
	}
}

// Process runs the complete analysis. Nothing is written unless every step
// succeeds.
func (a *Analyzer) Process() error {
	cfg := a.params.Config
	if cfg == nil {
		return models.NewConfigurationError("config", "is required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := a.checkParams(); err != nil {
		return err
	}

	a.log.Info().Str("strategy", cfg.Colocalization.Strategy).Str("nuclei", a.params.NucleiFile).Msg("starting analysis")

	nuclei, err := loadDetections(a.params.NucleiFile, particles.Bounds{
		SizeMin:        cfg.Nuclei.SizeMin,
		SizeMax:        cfg.Nuclei.SizeMax,
		CircularityMin: cfg.Nuclei.CircularityMin,
	})
	if err != nil {
		return fmt.Errorf("failed to load nuclei: %w", err)
	}
	a.nuclei = nuclei
	a.log.Debug().Int("count", len(nuclei)).Msg("nuclei loaded")

	switch cfg.Colocalization.Strategy {
	case config.StrategyCentroidMatch:
		err = a.runCentroidMatch()
	case config.StrategyPixelFraction:
		err = a.runPixelFraction()
	}
	if err != nil {
		return err
	}

	doc := marker.Format(a.points, markerNamePrefix+a.sourceName())
	path := cfg.MarkerPath()
	if err := marker.WriteFile(path, doc); err != nil {
		return err
	}

	a.summary = computeSummary(cfg.Colocalization.Strategy, a.nuclei, a.signals, a.matches, a.labels)
	a.summary.MarkerPath = path
	a.summary.Markers = len(a.points)

	a.log.Info().
		Int("nuclei", a.summary.Nuclei).
		Int("positives", a.summary.Positives).
		Int("markers", a.summary.Markers).
		Str("marker_file", path).
		Msg("analysis complete")
	return nil
}

func (a *Analyzer) checkParams() error {
	if a.params.NucleiFile == "" {
		return models.NewConfigurationError("nuclei", "results table is required")
	}
	switch a.params.Config.Colocalization.Strategy {
	case config.StrategyCentroidMatch:
		if a.params.SignalFile == "" {
			return models.NewConfigurationError("signals", "results table is required by %s", config.StrategyCentroidMatch)
		}
	case config.StrategyPixelFraction:
		if a.params.SignalImage == "" {
			return models.NewConfigurationError("image", "signal image is required by %s", config.StrategyPixelFraction)
		}
	}
	return nil
}

func (a *Analyzer) runCentroidMatch() error {
	cfg := a.params.Config

	signals, err := loadDetections(a.params.SignalFile, particles.Bounds{
		SizeMin:        cfg.Protein.SizeMin,
		SizeMax:        cfg.Protein.SizeMax,
		CircularityMin: cfg.Protein.CircularityMin,
	})
	if err != nil {
		return fmt.Errorf("failed to load signals: %w", err)
	}
	a.signals = signals

	var width, height int
	if a.params.SignalImage != "" {
		img, err := intensity.Load(a.params.SignalImage)
		if err != nil {
			return err
		}
		width, height = intensity.Size(img)
	}

	opts, err := cfg.ColocOptions(width, height)
	if err != nil {
		return err
	}
	matcher, err := coloc.NewColocalizer(opts)
	if err != nil {
		return err
	}

	a.matches = matcher.Match(a.nuclei, a.signals)
	a.points = coloc.MarkerPoints(a.matches)
	a.log.Debug().
		Int("signals", len(a.signals)).
		Int("matched", len(a.points)).
		Float64("window", opts.Window).
		Str("coordinates", opts.Coordinates.String()).
		Msg("centroid match done")
	return nil
}

func (a *Analyzer) runPixelFraction() error {
	signal, err := intensity.Load(a.params.SignalImage)
	if err != nil {
		return err
	}

	classifier := coloc.NewClassifier(a.params.Config.Protein.PixelThreshold)
	labels, err := classifier.Classify(a.nuclei, signal)
	if err != nil {
		return fmt.Errorf("pixel fraction classification failed: %w", err)
	}
	a.labels = labels
	a.points = coloc.PositiveNuclei(a.nuclei, labels)
	a.log.Debug().
		Int("positives", coloc.CountPositives(labels)).
		Float64("threshold", classifier.Threshold()).
		Msg("pixel fraction done")
	return nil
}

func (a *Analyzer) sourceName() string {
	if a.params.SourceName != "" {
		return a.params.SourceName
	}
	base := a.params.SignalImage
	if base == "" {
		base = a.params.NucleiFile
	}
	base = filepath.Base(base)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func loadDetections(path string, bounds particles.Bounds) (models.DetectionSet, error) {
	set, err := particles.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return particles.Filter(set, bounds), nil
}

// GetSummary returns the statistics of the last successful run.
func (a *Analyzer) GetSummary() Summary {
	return a.summary
}

// Matches returns the centroid match records, one per signal.
func (a *Analyzer) Matches() []models.MatchRecord {
	return a.matches
}

// Labels returns the pixel fraction labels, one per nucleus.
func (a *Analyzer) Labels() []bool {
	return a.labels
}

// MarkerPoints returns the exported marker coordinates.
func (a *Analyzer) MarkerPoints() []models.MarkerPoint {
	return a.points
}
