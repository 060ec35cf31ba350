// Package particles reads detection sets produced by an external particle
// analysis pass.
//
// The supported format is the CSV "Results" table exported after Analyze
// Particles, with the area, centroid, bounding rectangle and shape
// descriptor measurements enabled. Rows are kept in file order, which is the
// detector order the colocalization strategies depend on.
package particles

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"coloccount/internal/models"
)

// Result table column names
const (
	colArea   = "Area"
	colX      = "X"
	colY      = "Y"
	colXM     = "XM"
	colYM     = "YM"
	colBX     = "BX"
	colBY     = "BY"
	colWidth  = "Width"
	colHeight = "Height"
	colRound  = "Round"
	colCirc   = "Circ."
)

// columns maps the measurements to their position in a row
type columns struct {
	area, x, y, roundness int
	bx, by, width, height int
	hasBox                bool
}

func resolveColumns(header []string) (columns, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.TrimSpace(name)] = i
	}
	lookup := func(names ...string) (int, bool) {
		for _, n := range names {
			if i, ok := pos[n]; ok {
				return i, true
			}
		}
		return -1, false
	}

	var c columns
	var ok bool
	if c.area, ok = lookup(colArea); !ok {
		return c, models.NewConfigurationError("results.columns", "missing %s column", colArea)
	}
	// center of mass is preferred over the geometric centroid
	if c.x, ok = lookup(colXM, colX); !ok {
		return c, models.NewConfigurationError("results.columns", "missing %s or %s column", colXM, colX)
	}
	if c.y, ok = lookup(colYM, colY); !ok {
		return c, models.NewConfigurationError("results.columns", "missing %s or %s column", colYM, colY)
	}
	if c.roundness, ok = lookup(colRound, colCirc); !ok {
		return c, models.NewConfigurationError("results.columns", "missing %s or %s column", colRound, colCirc)
	}

	bx, okX := lookup(colBX)
	by, okY := lookup(colBY)
	w, okW := lookup(colWidth)
	h, okH := lookup(colHeight)
	if okX && okY && okW && okH {
		c.bx, c.by, c.width, c.height = bx, by, w, h
		c.hasBox = true
	}
	return c, nil
}

// ReadCSV parses a results table into a detection set.
func ReadCSV(r io.Reader) (models.DetectionSet, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, models.NewConfigurationError("results", "empty results table")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read results header: %w", err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	set := make(models.DetectionSet, 0)
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read results row %d: %w", row, err)
		}
		p, err := parseRow(record, cols)
		if err != nil {
			return nil, fmt.Errorf("results row %d: %w", row, err)
		}
		set = append(set, p)
	}
	return set, nil
}

func parseRow(record []string, cols columns) (models.Particle, error) {
	num := func(i int, name string) (float64, error) {
		if i >= len(record) {
			return 0, models.NewConfigurationError(name, "missing value")
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
		if err != nil {
			return 0, models.NewConfigurationError(name, "not a number: %q", record[i])
		}
		return v, nil
	}

	area, err := num(cols.area, colArea)
	if err != nil {
		return models.Particle{}, err
	}
	x, err := num(cols.x, colX)
	if err != nil {
		return models.Particle{}, err
	}
	y, err := num(cols.y, colY)
	if err != nil {
		return models.Particle{}, err
	}
	roundness, err := num(cols.roundness, colRound)
	if err != nil {
		return models.Particle{}, err
	}

	var box models.BoundingBox
	if cols.hasBox {
		vals := make([]float64, 4)
		for k, c := range []struct {
			i    int
			name string
		}{{cols.bx, colBX}, {cols.by, colBY}, {cols.width, colWidth}, {cols.height, colHeight}} {
			if vals[k], err = num(c.i, c.name); err != nil {
				return models.Particle{}, err
			}
		}
		box = models.BoundingBox{X: int(vals[0]), Y: int(vals[1]), Width: int(vals[2]), Height: int(vals[3])}
	}

	return models.NewParticle(models.Point{X: x, Y: y}, area, roundness, box)
}

// LoadFile reads a results table from disk.
func LoadFile(path string) (models.DetectionSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results table: %w", err)
	}
	defer f.Close()

	set, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}
