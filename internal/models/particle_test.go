package models

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestNewParticle(t *testing.T) {
	box := BoundingBox{X: 1, Y: 2, Width: 3, Height: 4}
	p, err := NewParticle(Point{X: 2.5, Y: 4}, 12, 0.8, box)
	if err != nil {
		t.Fatalf("NewParticle failed: %v", err)
	}
	if p.Area != 12 || p.Roundness != 0.8 || p.Box != box {
		t.Errorf("Unexpected particle %+v", p)
	}
	if !p.Box.Measured() {
		t.Error("Expected the box to be measured")
	}

	// signal passes may omit the bounding box
	if _, err := NewParticle(Point{}, 5, 1, BoundingBox{}); err != nil {
		t.Errorf("Expected an unmeasured box to be accepted, got %v", err)
	}
}

func TestNewParticleRejects(t *testing.T) {
	tests := []struct {
		name      string
		area      float64
		roundness float64
		box       BoundingBox
		field     string
	}{
		{"zero area", 0, 0.5, BoundingBox{}, "area"},
		{"negative area", -1, 0.5, BoundingBox{}, "area"},
		{"nan area", math.NaN(), 0.5, BoundingBox{}, "area"},
		{"roundness above one", 5, 1.01, BoundingBox{}, "roundness"},
		{"negative roundness", 5, -0.1, BoundingBox{}, "roundness"},
		{"negative width", 5, 0.5, BoundingBox{Width: -1, Height: 2}, "boundingBox"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParticle(Point{}, tt.area, tt.roundness, tt.box)
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected ConfigurationError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, cfgErr.Field)
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Error("Expected the error to unwrap to ErrConfiguration")
			}
		})
	}
}

func TestDetectionSetValidate(t *testing.T) {
	set := DetectionSet{
		{Area: 3, Roundness: 1},
		{Area: 0, Roundness: 1},
	}
	err := set.Validate()
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("Expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "particle 1") {
		t.Errorf("Expected the failing index in %q", err.Error())
	}
	if got := set.Areas(); len(got) != 2 || got[0] != 3 {
		t.Errorf("Unexpected areas %v", got)
	}
}

func TestOutOfRangeError(t *testing.T) {
	err := error(&OutOfRangeError{Index: 2, Box: BoundingBox{X: 8, Y: 0, Width: 4, Height: 4}, Width: 10, Height: 10})
	if !errors.Is(err, ErrOutOfRange) {
		t.Error("Expected the error to unwrap to ErrOutOfRange")
	}
	if errors.Is(err, ErrConfiguration) {
		t.Error("Out of range must not be a configuration error")
	}
	if !strings.Contains(err.Error(), "nucleus 2") {
		t.Errorf("Expected the nucleus index in %q", err.Error())
	}
}

func TestMatchRecord(t *testing.T) {
	if (MatchRecord{Nucleus: Unmatched}).Matched() {
		t.Error("Expected Unmatched to report false")
	}
	if !(MatchRecord{Nucleus: 0}).Matched() {
		t.Error("Expected nucleus 0 to report a match")
	}
	if got := ToMarkerPoint(Point{X: 12.99, Y: 0.5}); got != (MarkerPoint{X: 12, Y: 0}) {
		t.Errorf("Expected truncation to (12,0), got %+v", got)
	}
}
