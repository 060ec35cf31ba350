package models

// Unmatched is the nucleus index of a signal that no nucleus accepted
const Unmatched = -1

// MatchRecord is the colocalization decision for one signal particle
type MatchRecord struct {
	// Signal is the index of the signal particle in its detection set
	Signal int

	// Nucleus is the index of the accepting nucleus, or Unmatched
	Nucleus int

	// Marker is the coordinate exported for this match. Which centroid it
	// comes from depends on the coordinate policy. Zero when unmatched.
	Marker Point

	// SquaredDistance between the signal and nucleus centroids
	SquaredDistance float64
}

// Matched reports whether a nucleus accepted the signal.
func (m MatchRecord) Matched() bool {
	return m.Nucleus != Unmatched
}

// MarkerPoint is an integer marker coordinate as written to a marker file
type MarkerPoint struct {
	X, Y int
}

// ToMarkerPoint truncates a coordinate to integer pixels.
func ToMarkerPoint(p Point) MarkerPoint {
	return MarkerPoint{X: int(p.X), Y: int(p.Y)}
}
