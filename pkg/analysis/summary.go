// Package analysis orchestrates one colocalization run over detection tables
// and a signal image, and reports its statistics.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"coloccount/internal/models"
	"coloccount/pkg/coloc"
	"coloccount/pkg/config"
)

// Summary holds the statistics of a run
type Summary struct {
	// Strategy is the colocalization strategy that produced the result
	Strategy string

	// Nuclei and Signals are the particle counts after size filtering
	Nuclei  int
	Signals int

	// Matched and Unmatched count signal particles (centroid match only)
	Matched   int
	Unmatched int

	// Positives is the number of distinct nuclei counted as positive
	Positives int

	// PositiveFraction is Positives / Nuclei, 0 without nuclei
	PositiveFraction float64

	// MeanNucleusArea and StdNucleusArea describe the nuclei sizes in pixels
	MeanNucleusArea float64
	StdNucleusArea  float64

	// MeanMatchDistance is the mean centroid distance of matched signals
	MeanMatchDistance float64

	// Markers is the number of points written to the marker file
	Markers int

	// MarkerPath is where the marker file was written
	MarkerPath string
}

func computeSummary(strategy string, nuclei, signals models.DetectionSet, matches []models.MatchRecord, labels []bool) Summary {
	s := Summary{
		Strategy: strategy,
		Nuclei:   len(nuclei),
		Signals:  len(signals),
	}

	areas := nuclei.Areas()
	if len(areas) > 0 {
		s.MeanNucleusArea = stat.Mean(areas, nil)
	}
	if len(areas) > 1 {
		s.StdNucleusArea = stat.StdDev(areas, nil)
	}

	switch strategy {
	case config.StrategyCentroidMatch:
		positive := make(map[int]bool)
		distances := make([]float64, 0, len(matches))
		for _, m := range coloc.Positives(matches) {
			positive[m.Nucleus] = true
			distances = append(distances, math.Sqrt(m.SquaredDistance))
		}
		s.Matched = len(distances)
		s.Unmatched = len(matches) - s.Matched
		s.Positives = len(positive)
		if len(distances) > 0 {
			s.MeanMatchDistance = stat.Mean(distances, nil)
		}
	case config.StrategyPixelFraction:
		s.Positives = coloc.CountPositives(labels)
	}

	if s.Nuclei > 0 {
		s.PositiveFraction = float64(s.Positives) / float64(s.Nuclei)
	}
	return s
}
