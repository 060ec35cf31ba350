// Package marker writes CellCounter marker files.
//
// A marker file lists the positions of counted cells so that they can be
// reviewed in a cell-counting viewer. The schema is fixed by the viewer:
// the first marker type holds every point and seven further, empty marker
// types (2 to 8) must be present even when unused.
package marker

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"coloccount/internal/models"
)

const (
	// CountedType is the marker type holding the exported points
	CountedType = 1

	// LastType is the highest marker type the viewer expects
	LastType = 8

	markerZ = 1
)

// Document is the in-memory form of a marker file
type Document struct {
	XMLName         xml.Name        `xml:"CellCounter_Marker_File"`
	ImageProperties ImageProperties `xml:"Image_Properties"`
	MarkerData      MarkerData      `xml:"Marker_Data"`
}

// ImageProperties names the image the markers were placed on
type ImageProperties struct {
	Filename string `xml:"Image_Filename"`
}

// MarkerData holds the marker types in order
type MarkerData struct {
	CurrentType int          `xml:"Current_Type"`
	Types       []MarkerType `xml:"Marker_Type"`
}

// MarkerType groups the markers of one counter
type MarkerType struct {
	Type    int      `xml:"Type"`
	Markers []Marker `xml:"Marker"`
}

// Marker is a single counted position
type Marker struct {
	X int `xml:"MarkerX"`
	Y int `xml:"MarkerY"`
	Z int `xml:"MarkerZ"`
}

// Format builds the marker document for the given points. It performs no
// I/O and always succeeds; an empty point list gives a document without
// markers.
func Format(points []models.MarkerPoint, sourceName string) *Document {
	counted := MarkerType{Type: CountedType, Markers: make([]Marker, 0, len(points))}
	for _, p := range points {
		counted.Markers = append(counted.Markers, Marker{X: p.X, Y: p.Y, Z: markerZ})
	}

	types := make([]MarkerType, 0, LastType)
	types = append(types, counted)
	for t := CountedType + 1; t <= LastType; t++ {
		types = append(types, MarkerType{Type: t})
	}

	return &Document{
		ImageProperties: ImageProperties{Filename: sourceName},
		MarkerData: MarkerData{
			CurrentType: CountedType,
			Types:       types,
		},
	}
}

// Points returns the positions stored under the counted marker type.
func (d *Document) Points() []models.MarkerPoint {
	for _, mt := range d.MarkerData.Types {
		if mt.Type != CountedType {
			continue
		}
		points := make([]models.MarkerPoint, len(mt.Markers))
		for i, m := range mt.Markers {
			points[i] = models.MarkerPoint{X: m.X, Y: m.Y}
		}
		return points
	}
	return nil
}

// Encode writes the XML declaration followed by the indented document.
func (d *Document) Encode(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write xml header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("failed to encode marker document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush marker document: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Bytes returns the encoded document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a marker file.
func Decode(r io.Reader) (*Document, error) {
	var d Document
	if err := xml.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode marker document: %w", err)
	}
	return &d, nil
}

// WriteFile encodes the document to path, creating parent directories.
func WriteFile(path string, d *Document) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create marker directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write marker file: %w", err)
	}
	return nil
}

// ReadFile loads a marker file from disk.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open marker file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
