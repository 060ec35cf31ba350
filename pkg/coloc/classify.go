package coloc

import (
	"gonum.org/v1/gonum/mat"

	"coloccount/internal/models"
)

// positiveFraction is the share of above-threshold pixels a nucleus must
// exceed (strictly) to count as positive
const positiveFraction = 0.5

// Classifier labels nuclei positive from the raw signal intensities inside
// their bounding boxes, without detecting particles on the signal channel.
type Classifier struct {
	threshold float64
}

// NewClassifier returns a classifier counting pixels strictly brighter than threshold.
func NewClassifier(threshold float64) *Classifier {
	return &Classifier{threshold: threshold}
}

// Threshold returns the pixel intensity threshold.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// Classify returns one label per nucleus, true meaning positive.
//
// Parameters:
//   - nuclei: nucleus particles with measured bounding boxes
//   - signal: signal channel intensities, indexed (row = y, col = x)
//
// For each nucleus the pixels of its bounding box above the threshold are
// counted and divided by the nucleus particle area (not by the box pixel
// count). The nucleus is positive when that fraction exceeds 0.5.
//
// Errors:
//   - *models.ConfigurationError when a nucleus has a non-positive area or
//     no measured bounding box
//   - *models.OutOfRangeError when a bounding box reaches past the image edges
//
// Any error aborts the call; no partial labels are returned.
func (c *Classifier) Classify(nuclei models.DetectionSet, signal mat.Matrix) ([]bool, error) {
	rows, cols := signal.Dims()
	labels := make([]bool, len(nuclei))

	for j, n := range nuclei {
		if !(n.Area > 0) {
			return nil, models.NewConfigurationError("area", "nucleus %d: area must be positive, got %v", j, n.Area)
		}
		box := n.Box
		if !box.Measured() {
			return nil, models.NewConfigurationError("boundingBox", "nucleus %d: bounding box not measured", j)
		}
		if box.X < 0 || box.Y < 0 || box.X+box.Width > cols || box.Y+box.Height > rows {
			return nil, &models.OutOfRangeError{Index: j, Box: box, Width: cols, Height: rows}
		}

		above := 0
		for x := box.X; x < box.X+box.Width; x++ {
			for y := box.Y; y < box.Y+box.Height; y++ {
				if signal.At(y, x) > c.threshold {
					above++
				}
			}
		}
		labels[j] = float64(above)/n.Area > positiveFraction
	}
	return labels, nil
}

// CountPositives returns how many labels are positive.
func CountPositives(labels []bool) int {
	n := 0
	for _, positive := range labels {
		if positive {
			n++
		}
	}
	return n
}
