package models

import (
	"fmt"
	"math"
)

// Point is a position in image pixel coordinates
type Point struct {
	X, Y float64
}

// BoundingBox is the integer rectangle enclosing a particle.
// A zero Width or Height means the detector did not measure the box.
type BoundingBox struct {
	X, Y          int
	Width, Height int
}

// Measured reports whether the detector supplied a bounding box.
func (b BoundingBox) Measured() bool {
	return b.Width > 0 && b.Height > 0
}

// Particle is one blob detected by a particle analysis pass over one channel
type Particle struct {
	// Centroid is the center of mass of the blob
	Centroid Point

	// Area is the blob size in pixels, always positive
	Area float64

	// Roundness is the circularity index in [0,1], 1 being a perfect circle
	Roundness float64

	// Box is the bounding rectangle of the blob
	Box BoundingBox
}

// NewParticle validates the measurements and returns the particle.
func NewParticle(centroid Point, area, roundness float64, box BoundingBox) (Particle, error) {
	p := Particle{
		Centroid:  centroid,
		Area:      area,
		Roundness: roundness,
		Box:       box,
	}
	if err := p.Validate(); err != nil {
		return Particle{}, err
	}
	return p, nil
}

// Validate checks the invariants every consumer relies on.
func (p Particle) Validate() error {
	if math.IsNaN(p.Area) || p.Area <= 0 {
		return NewConfigurationError("area", "must be positive, got %v", p.Area)
	}
	if math.IsNaN(p.Roundness) || p.Roundness < 0 || p.Roundness > 1 {
		return NewConfigurationError("roundness", "must be in [0,1], got %v", p.Roundness)
	}
	if p.Box.Width < 0 || p.Box.Height < 0 {
		return NewConfigurationError("boundingBox", "negative size %dx%d", p.Box.Width, p.Box.Height)
	}
	return nil
}

// DetectionSet is the ordered output of one particle analysis pass.
// Order is assigned by the detector and is significant for matching.
type DetectionSet []Particle

// Validate checks every particle and reports the first failing index.
func (s DetectionSet) Validate() error {
	for i, p := range s {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("particle %d: %w", i, err)
		}
	}
	return nil
}

// Areas returns the particle areas in detector order.
func (s DetectionSet) Areas() []float64 {
	areas := make([]float64, len(s))
	for i, p := range s {
		areas[i] = p.Area
	}
	return areas
}
