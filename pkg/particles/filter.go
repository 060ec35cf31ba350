package particles

import "coloccount/internal/models"

// Bounds are the size and shape limits of a particle analysis pass
type Bounds struct {
	SizeMin, SizeMax float64
	CircularityMin   float64
}

// Accepts reports whether p lies within the bounds (inclusive).
func (b Bounds) Accepts(p models.Particle) bool {
	return p.Area >= b.SizeMin && p.Area <= b.SizeMax && p.Roundness >= b.CircularityMin
}

// Filter returns the particles within bounds, preserving detector order.
func Filter(set models.DetectionSet, b Bounds) models.DetectionSet {
	kept := make(models.DetectionSet, 0, len(set))
	for _, p := range set {
		if b.Accepts(p) {
			kept = append(kept, p)
		}
	}
	return kept
}
