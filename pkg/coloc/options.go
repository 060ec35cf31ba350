// Package coloc decides which signal observations belong to which cell nucleus.
//
// Two strategies are provided. The Colocalizer pairs signal particles with
// nucleus particles by centroid distance; the Classifier inspects the raw
// signal intensities inside each nucleus bounding box. Both are pure
// functions of their inputs and are safe for concurrent use.
package coloc

import (
	"fmt"
	"math"

	"coloccount/internal/models"
)

// CoordinatePolicy selects the coordinate exported for an accepted match
type CoordinatePolicy int

const (
	// NucleusCentroid exports the raw centroid of the accepting nucleus
	NucleusCentroid CoordinatePolicy = iota

	// ClampedNucleusCentroid exports the nucleus centroid clamped per axis
	// to min(2*v, image dimension)
	ClampedNucleusCentroid

	// SignalCentroid exports the centroid of the signal particle itself
	SignalCentroid
)

func (p CoordinatePolicy) String() string {
	switch p {
	case NucleusCentroid:
		return "nucleus"
	case ClampedNucleusCentroid:
		return "clamped-nucleus"
	case SignalCentroid:
		return "signal"
	default:
		return fmt.Sprintf("CoordinatePolicy(%d)", int(p))
	}
}

// ParseCoordinatePolicy maps a configuration name to a policy.
func ParseCoordinatePolicy(name string) (CoordinatePolicy, error) {
	switch name {
	case "", "nucleus":
		return NucleusCentroid, nil
	case "clamped-nucleus":
		return ClampedNucleusCentroid, nil
	case "signal":
		return SignalCentroid, nil
	}
	return 0, models.NewConfigurationError("coordinates", "unknown coordinate policy %q", name)
}

// Options holds the tunables of the centroid matching strategy
type Options struct {
	// Window is the half width W of the square prefilter around each signal.
	// A nucleus is only tested when both |dx| < W and |dy| < W.
	Window float64

	// Coordinates selects which centroid is exported for a match
	Coordinates CoordinatePolicy

	// ImageWidth and ImageHeight bound the clamped coordinate policy.
	// They are ignored by the other policies.
	ImageWidth  int
	ImageHeight int
}

// DefaultOptions mirrors the plugin defaults: W = 2 * maximum nucleus size.
func DefaultOptions() Options {
	return Options{
		Window:      2 * 4000,
		Coordinates: NucleusCentroid,
	}
}

// Validate reports the first unusable option.
func (o Options) Validate() error {
	if math.IsNaN(o.Window) || o.Window <= 0 {
		return models.NewConfigurationError("window", "must be positive, got %v", o.Window)
	}
	switch o.Coordinates {
	case NucleusCentroid, SignalCentroid:
	case ClampedNucleusCentroid:
		if o.ImageWidth <= 0 || o.ImageHeight <= 0 {
			return models.NewConfigurationError("imageSize",
				"clamped coordinates need positive image dimensions, got %dx%d", o.ImageWidth, o.ImageHeight)
		}
	default:
		return models.NewConfigurationError("coordinates", "unknown coordinate policy %d", int(o.Coordinates))
	}
	return nil
}
