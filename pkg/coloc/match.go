package coloc

import (
	"math"

	"coloccount/internal/models"
)

// indexThreshold is the nuclei count from which Match consults a kd-tree
// instead of scanning every nucleus.
const indexThreshold = 64

// Colocalizer pairs signal particles with nucleus particles
type Colocalizer struct {
	opts Options
}

// NewColocalizer validates the options and returns a matcher.
func NewColocalizer(opts Options) (*Colocalizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Colocalizer{opts: opts}, nil
}

// Options returns the options the matcher was built with.
func (c *Colocalizer) Options() Options {
	return c.opts
}

// Match decides, for every signal particle, which nucleus it belongs to.
//
// Signals are visited in detector order. For each signal the nuclei are
// tested in detector order and the first nucleus that passes both the
// coarse window test and the acceptance test wins. This is a first-match
// rule, not a nearest-match rule: a signal binds to the earliest eligible
// nucleus even when a later one is closer, and a nucleus may be claimed by
// several signals.
//
// The result holds one record per signal in signal order. Signals that no
// nucleus accepted carry models.Unmatched. Neither input is modified.
func (c *Colocalizer) Match(nuclei, signals models.DetectionSet) []models.MatchRecord {
	records := make([]models.MatchRecord, 0, len(signals))
	if len(signals) == 0 {
		return records
	}

	var index *nucleusIndex
	if len(nuclei) >= indexThreshold {
		index = newNucleusIndex(nuclei)
	}

	for i, signal := range signals {
		var record models.MatchRecord
		if index != nil {
			record = c.matchCandidates(nuclei, index.candidates(signal.Centroid, c.opts.Window), i, signal)
		} else {
			record = c.matchLinear(nuclei, i, signal)
		}
		records = append(records, record)
	}
	return records
}

func (c *Colocalizer) matchLinear(nuclei models.DetectionSet, i int, signal models.Particle) models.MatchRecord {
	for j := range nuclei {
		if d, ok := c.accepts(nuclei[j], signal); ok {
			return c.record(i, j, nuclei[j], signal, d)
		}
	}
	return models.MatchRecord{Signal: i, Nucleus: models.Unmatched}
}

// matchCandidates runs the same tests as matchLinear over a subset of nuclei.
// candidates must be sorted by ascending detector index.
func (c *Colocalizer) matchCandidates(nuclei models.DetectionSet, candidates []int, i int, signal models.Particle) models.MatchRecord {
	for _, j := range candidates {
		if d, ok := c.accepts(nuclei[j], signal); ok {
			return c.record(i, j, nuclei[j], signal, d)
		}
	}
	return models.MatchRecord{Signal: i, Nucleus: models.Unmatched}
}

// accepts applies the window prefilter and the acceptance test, returning
// the squared centroid distance when the nucleus accepts the signal.
func (c *Colocalizer) accepts(nucleus, signal models.Particle) (float64, bool) {
	dx := nucleus.Centroid.X - signal.Centroid.X
	dy := nucleus.Centroid.Y - signal.Centroid.Y
	if math.Abs(dx) >= c.opts.Window || math.Abs(dy) >= c.opts.Window {
		return 0, false
	}
	d := dx*dx + dy*dy
	return d, d <= acceptanceBound(nucleus.Area, nucleus.Roundness)
}

// acceptanceBound is the largest squared centroid distance a nucleus accepts.
//
// radius is area/pi, not sqrt(area/pi); the bound is therefore not a circle
// equation. Kept as measured by the counting protocol.
func acceptanceBound(area, roundness float64) float64 {
	radius := area / math.Pi
	return radius + 2*radius*roundness + roundness*roundness
}

func (c *Colocalizer) record(i, j int, nucleus, signal models.Particle, squaredDistance float64) models.MatchRecord {
	return models.MatchRecord{
		Signal:          i,
		Nucleus:         j,
		Marker:          c.markerCoordinate(nucleus, signal),
		SquaredDistance: squaredDistance,
	}
}

func (c *Colocalizer) markerCoordinate(nucleus, signal models.Particle) models.Point {
	switch c.opts.Coordinates {
	case SignalCentroid:
		return signal.Centroid
	case ClampedNucleusCentroid:
		return models.Point{
			X: clampAxis(nucleus.Centroid.X, float64(c.opts.ImageWidth)),
			Y: clampAxis(nucleus.Centroid.Y, float64(c.opts.ImageHeight)),
		}
	default:
		return nucleus.Centroid
	}
}

// clampAxis limits v to at most min(2*v, dim).
func clampAxis(v, dim float64) float64 {
	return math.Min(v, math.Min(2*v, dim))
}
