// Package intensity turns a signal channel image into an intensity matrix.
package intensity

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/mat"
)

// Load decodes an image file (PNG, JPEG, GIF, TIFF or BMP) and returns its
// 8-bit luminance as a matrix indexed (row = y, col = x).
func Load(path string) (*mat.Dense, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open signal image: %w", err)
	}
	return FromImage(img)
}

// FromImage converts any image to an 8-bit luminance matrix. The image
// origin is moved to (0,0).
func FromImage(img image.Image) (*mat.Dense, error) {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("signal image is empty")
	}

	data := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w*4]
		for x := 0; x < w; x++ {
			// grayscale NRGBA: R == G == B
			data[y*w+x] = float64(row[x*4])
		}
	}
	return mat.NewDense(h, w, data), nil
}

// Size returns the image width and height of an intensity matrix.
func Size(m mat.Matrix) (width, height int) {
	rows, cols := m.Dims()
	return cols, rows
}
