package coloc

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"coloccount/internal/models"
)

func particle(x, y, area, roundness float64) models.Particle {
	return models.Particle{Centroid: models.Point{X: x, Y: y}, Area: area, Roundness: roundness}
}

func mustColocalizer(t *testing.T, opts Options) *Colocalizer {
	t.Helper()
	c, err := NewColocalizer(opts)
	if err != nil {
		t.Fatalf("NewColocalizer failed: %v", err)
	}
	return c
}

// referenceMatch is the plain double loop the Colocalizer must agree with
func referenceMatch(nuclei, signals models.DetectionSet, w float64) []int {
	out := make([]int, len(signals))
	for i, s := range signals {
		out[i] = models.Unmatched
		for j, n := range nuclei {
			dx := n.Centroid.X - s.Centroid.X
			dy := n.Centroid.Y - s.Centroid.Y
			if math.Abs(dx) < w && math.Abs(dy) < w {
				r := n.Area / math.Pi
				c := n.Roundness
				if dx*dx+dy*dy <= r+2*r*c+c*c {
					out[i] = j
					break
				}
			}
		}
	}
	return out
}

// TestMatchScenario checks a hand-computed case: a round nucleus of area 25*pi
func TestMatchScenario(t *testing.T) {
	nuclei := models.DetectionSet{particle(100, 100, math.Pi*25, 1.0)}
	signals := models.DetectionSet{
		particle(103, 100, 10, 0.5),
		particle(200, 100, 10, 0.5),
	}

	c := mustColocalizer(t, DefaultOptions())
	records := c.Match(nuclei, signals)

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Nucleus != 0 {
		t.Errorf("Expected signal 0 to match nucleus 0, got %d", records[0].Nucleus)
	}
	if records[0].SquaredDistance != 9 {
		t.Errorf("Expected squared distance 9, got %f", records[0].SquaredDistance)
	}
	if records[0].Marker != (models.Point{X: 100, Y: 100}) {
		t.Errorf("Expected marker at nucleus centroid, got %+v", records[0].Marker)
	}
	if records[1].Matched() {
		t.Errorf("Expected signal 1 to be unmatched, got nucleus %d", records[1].Nucleus)
	}
	if records[1].Signal != 1 {
		t.Errorf("Expected record 1 to reference signal 1, got %d", records[1].Signal)
	}
}

func TestAcceptanceBound(t *testing.T) {
	if got := acceptanceBound(math.Pi*25, 1.0); math.Abs(got-76) > 1e-9 {
		t.Errorf("Expected bound 76, got %f", got)
	}
	if got := acceptanceBound(math.Pi*10, 0); math.Abs(got-10) > 1e-9 {
		t.Errorf("Expected bound 10, got %f", got)
	}
}

func TestMatchEmptyInputs(t *testing.T) {
	c := mustColocalizer(t, DefaultOptions())
	signals := models.DetectionSet{particle(1, 1, 5, 1), particle(2, 2, 5, 1)}

	records := c.Match(nil, signals)
	if len(records) != len(signals) {
		t.Fatalf("Expected %d records, got %d", len(signals), len(records))
	}
	for i, r := range records {
		if r.Matched() {
			t.Errorf("Record %d: expected unmatched with no nuclei", i)
		}
	}

	records = c.Match(models.DetectionSet{particle(1, 1, 50, 1)}, nil)
	if len(records) != 0 {
		t.Errorf("Expected no records without signals, got %d", len(records))
	}
}

// TestMatchCoincidentCentroid verifies a zero distance is always accepted
func TestMatchCoincidentCentroid(t *testing.T) {
	c := mustColocalizer(t, DefaultOptions())
	for _, roundness := range []float64{0, 0.3, 1} {
		nuclei := models.DetectionSet{particle(42.5, 17.25, 1e-6, roundness)}
		signals := models.DetectionSet{particle(42.5, 17.25, 3, 0.2)}
		records := c.Match(nuclei, signals)
		if records[0].Nucleus != 0 {
			t.Errorf("Roundness %v: expected coincident signal to match", roundness)
		}
	}
}

// TestMatchFirstEligibleWins checks that detector order beats proximity
func TestMatchFirstEligibleWins(t *testing.T) {
	nuclei := models.DetectionSet{
		particle(0, 0, math.Pi*100, 0), // bound 100, signal at distance^2 25
		particle(5, 0, math.Pi*100, 0), // exactly under the signal
	}
	signals := models.DetectionSet{particle(5, 0, 4, 1)}

	c := mustColocalizer(t, DefaultOptions())
	records := c.Match(nuclei, signals)
	if records[0].Nucleus != 0 {
		t.Errorf("Expected the lower index nucleus 0, got %d", records[0].Nucleus)
	}

	// two signals may claim the same nucleus
	signals = append(signals, particle(1, 1, 4, 1))
	records = c.Match(nuclei, signals)
	if records[0].Nucleus != 0 || records[1].Nucleus != 0 {
		t.Errorf("Expected both signals on nucleus 0, got %d and %d", records[0].Nucleus, records[1].Nucleus)
	}
}

func TestMatchWindowIsStrict(t *testing.T) {
	opts := DefaultOptions()
	opts.Window = 2
	c := mustColocalizer(t, opts)

	nuclei := models.DetectionSet{particle(0, 0, math.Pi*1e6, 1)}
	signals := models.DetectionSet{
		particle(2, 0, 5, 1),
		particle(1.5, -1.5, 5, 1),
		particle(0, -2, 5, 1),
	}
	records := c.Match(nuclei, signals)

	want := []int{models.Unmatched, 0, models.Unmatched}
	for i, r := range records {
		if r.Nucleus != want[i] {
			t.Errorf("Signal %d: expected nucleus %d, got %d", i, want[i], r.Nucleus)
		}
	}
}

func TestMatchCoordinatePolicies(t *testing.T) {
	nuclei := models.DetectionSet{particle(100, 50, math.Pi*400, 1)}
	signals := models.DetectionSet{particle(95.5, 52.25, 5, 1)}

	tests := []struct {
		name string
		opts Options
		want models.Point
	}{
		{"nucleus", Options{Window: 1500, Coordinates: NucleusCentroid}, models.Point{X: 100, Y: 50}},
		{"signal", Options{Window: 1500, Coordinates: SignalCentroid}, models.Point{X: 95.5, Y: 52.25}},
		{"clamped", Options{Window: 1500, Coordinates: ClampedNucleusCentroid, ImageWidth: 80, ImageHeight: 200}, models.Point{X: 80, Y: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := mustColocalizer(t, tt.opts).Match(nuclei, signals)
			if !records[0].Matched() {
				t.Fatal("Expected a match")
			}
			if records[0].Marker != tt.want {
				t.Errorf("Expected marker %+v, got %+v", tt.want, records[0].Marker)
			}
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"zero window", Options{Window: 0}},
		{"negative window", Options{Window: -3}},
		{"nan window", Options{Window: math.NaN()}},
		{"clamped without image size", Options{Window: 10, Coordinates: ClampedNucleusCentroid}},
		{"unknown policy", Options{Window: 10, Coordinates: CoordinatePolicy(9)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewColocalizer(tt.opts)
			if !errors.Is(err, models.ErrConfiguration) {
				t.Errorf("Expected configuration error, got %v", err)
			}
		})
	}
}

func TestParseCoordinatePolicy(t *testing.T) {
	for _, p := range []CoordinatePolicy{NucleusCentroid, ClampedNucleusCentroid, SignalCentroid} {
		got, err := ParseCoordinatePolicy(p.String())
		if err != nil || got != p {
			t.Errorf("Expected %v, got %v (%v)", p, got, err)
		}
	}
	if _, err := ParseCoordinatePolicy("centroid"); !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("Expected configuration error, got %v", err)
	}
}

// TestMatchDeterministic runs the same inputs twice and checks the inputs survive
func TestMatchDeterministic(t *testing.T) {
	nuclei, signals := randomSets(rand.New(rand.NewSource(7)), 20, 60)
	nucleiCopy := append(models.DetectionSet(nil), nuclei...)
	signalsCopy := append(models.DetectionSet(nil), signals...)

	c := mustColocalizer(t, DefaultOptions())
	first := c.Match(nuclei, signals)
	second := c.Match(nuclei, signals)

	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical results on repeated runs")
	}
	if !reflect.DeepEqual(nuclei, nucleiCopy) || !reflect.DeepEqual(signals, signalsCopy) {
		t.Error("Match modified its inputs")
	}
}

// TestMatchIndexAgreesWithScan covers the kd-tree path on large nuclei sets
func TestMatchIndexAgreesWithScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nuclei, signals := randomSets(rng, 300, 900)
	if len(nuclei) < indexThreshold {
		t.Fatalf("Test set too small to exercise the index: %d", len(nuclei))
	}

	for _, w := range []float64{3, 15, 40, 1500, 8000} {
		c := mustColocalizer(t, Options{Window: w})
		records := c.Match(nuclei, signals)
		want := referenceMatch(nuclei, signals, w)

		matched := 0
		for i, r := range records {
			if r.Nucleus != want[i] {
				t.Errorf("Window %v, signal %d: expected nucleus %d, got %d", w, i, want[i], r.Nucleus)
			}
			if r.Matched() {
				matched++
			}
		}
		if w >= 15 && matched == 0 {
			t.Errorf("Window %v: expected some matches in the random set", w)
		}
	}
}

func randomSets(rng *rand.Rand, nNuclei, nSignals int) (models.DetectionSet, models.DetectionSet) {
	nuclei := make(models.DetectionSet, nNuclei)
	for j := range nuclei {
		nuclei[j] = particle(rng.Float64()*1000, rng.Float64()*1000, 40+rng.Float64()*400, rng.Float64())
	}
	signals := make(models.DetectionSet, nSignals)
	for i := range signals {
		if i%2 == 0 {
			n := nuclei[rng.Intn(len(nuclei))]
			signals[i] = particle(n.Centroid.X+rng.Float64()*30-15, n.Centroid.Y+rng.Float64()*30-15, 50, rng.Float64())
		} else {
			signals[i] = particle(rng.Float64()*1000, rng.Float64()*1000, 50, rng.Float64())
		}
	}
	return nuclei, signals
}
