package coloc

import "coloccount/internal/models"

// Positives keeps only the matched records, in their original order.
func Positives(records []models.MatchRecord) []models.MatchRecord {
	kept := make([]models.MatchRecord, 0, len(records))
	for _, r := range records {
		if r.Matched() {
			kept = append(kept, r)
		}
	}
	return kept
}

// MarkerPoints converts the matched records to integer marker coordinates.
func MarkerPoints(records []models.MatchRecord) []models.MarkerPoint {
	points := make([]models.MarkerPoint, 0, len(records))
	for _, r := range records {
		if r.Matched() {
			points = append(points, models.ToMarkerPoint(r.Marker))
		}
	}
	return points
}

// PositiveNuclei returns the marker coordinates of the nuclei labelled
// positive. labels must have one entry per nucleus.
func PositiveNuclei(nuclei models.DetectionSet, labels []bool) []models.MarkerPoint {
	points := make([]models.MarkerPoint, 0, len(nuclei))
	for j, positive := range labels {
		if positive && j < len(nuclei) {
			points = append(points, models.ToMarkerPoint(nuclei[j].Centroid))
		}
	}
	return points
}
