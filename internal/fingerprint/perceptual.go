package fingerprint

import (
	"bytes"
	"fmt"
	"image"

	// Register decoders for the raster formats the product accepts
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/spf13/afero"
)

const (
	// hashGridSize is the edge of the sampling grid; each of the 8 rows
	// contributes 8 gradient bits for a 64-bit signature
	hashGridSize = 8

	// PerceptualHashLength is the length of the hash string: 64 bits as 16
	// lowercase hex characters
	PerceptualHashLength = 16
)

// DecodeError indicates malformed or unsupported image bytes. Callers treat
// it as "no perceptual signal for this file", never as a batch failure.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// LengthMismatchError indicates two hashes from different hash configurations
// were compared. This is a contract violation between signals, fatal for the
// pair only.
type LengthMismatchError struct {
	LenA, LenB int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("hash length mismatch: %d vs %d", e.LenA, e.LenB)
}

// PerceptualHasher computes 64-bit gradient hashes for image-class files.
// Visually similar images (resized, recompressed) map to hashes with low
// Hamming distance. Rotation robustness is not a goal.
type PerceptualHasher struct {
	fs afero.Fs
}

// NewPerceptualHasher creates a PerceptualHasher that resolves paths against fs.
func NewPerceptualHasher(fs afero.Fs) *PerceptualHasher {
	return &PerceptualHasher{fs: fs}
}

// HashBytes decodes an image from raw bytes and hashes it.
func (p *PerceptualHasher) HashBytes(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", &DecodeError{Err: err}
	}
	return HashImage(img), nil
}

// HashFile reads and hashes the image at path.
func (p *PerceptualHasher) HashFile(path string) (string, error) {
	data, err := afero.ReadFile(p.fs, path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return p.HashBytes(data)
}

// HashImage computes the gradient hash of a decoded image: downsample to an
// 8x9 grayscale grid, then emit one bit per cell encoding whether it is
// brighter than its right-hand neighbor. Deterministic for a given image.
func HashImage(img image.Image) string {
	cells := downsampleGray(img, hashGridSize+1, hashGridSize)

	var bits uint64
	for row := 0; row < hashGridSize; row++ {
		for col := 0; col < hashGridSize; col++ {
			bits <<= 1
			if cells[row][col] > cells[row][col+1] {
				bits |= 1
			}
		}
	}
	return fmt.Sprintf("%016x", bits)
}

// downsampleGray box-filters the image into a cols x rows grid of average
// luminance values.
func downsampleGray(img image.Image, cols, rows int) [][]float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	cells := make([][]float64, rows)
	for row := 0; row < rows; row++ {
		cells[row] = make([]float64, cols)
		for col := 0; col < cols; col++ {
			x0 := bounds.Min.X + col*w/cols
			x1 := bounds.Min.X + (col+1)*w/cols
			y0 := bounds.Min.Y + row*h/rows
			y1 := bounds.Min.Y + (row+1)*h/rows
			// Tiny images map several cells to the same pixel
			if x1 <= x0 {
				x1 = x0 + 1
			}
			if y1 <= y0 {
				y1 = y0 + 1
			}
			if x1 > bounds.Max.X {
				x1 = bounds.Max.X
				x0 = x1 - 1
			}
			if y1 > bounds.Max.Y {
				y1 = bounds.Max.Y
				y0 = y1 - 1
			}

			var sum float64
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					r, g, b, _ := img.At(x, y).RGBA()
					// ITU-R BT.601 luma on 16-bit channel values
					sum += 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
				}
			}
			cells[row][col] = sum / float64((x1-x0)*(y1-y0))
		}
	}
	return cells
}

// HammingDistance counts differing character positions between two hashes of
// equal length. Hashes from different configurations are a contract violation.
func HammingDistance(a, b string) (int, error) {
	if len(a) != len(b) {
		return 0, &LengthMismatchError{LenA: len(a), LenB: len(b)}
	}
	dist := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			dist++
		}
	}
	return dist, nil
}

// HammingSimilarity converts a Hamming distance into a similarity score:
// 1 - distance/length, clamped to [0,1].
func HammingSimilarity(a, b string) (float64, error) {
	dist, err := HammingDistance(a, b)
	if err != nil {
		return 0, err
	}
	if len(a) == 0 {
		return 1.0, nil
	}
	sim := 1.0 - float64(dist)/float64(len(a))
	if sim < 0 {
		sim = 0
	}
	if sim > 1 {
		sim = 1
	}
	return sim, nil
}
