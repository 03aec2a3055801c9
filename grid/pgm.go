package grid

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"pmcts/dynamics"

	"github.com/spakin/netpbm"
)

// MaxMapCells bounds the size of a PGM map read from an untrusted header.
const MaxMapCells = 1 << 26

// ReadPGM decodes a PGM image (plain or raw, 8 or 16 bit) into an occupancy
// grid. Intensities are normalized to (v - min) / max and cells darker than
// threshold are occupied.
func ReadPGM(r io.Reader, threshold float64) (*Occupancy, error) {
	var header bytes.Buffer
	cfg, err := netpbm.DecodeConfig(io.TeeReader(r, &header))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read PGM header: %v", dynamics.ErrInvalidInput, err)
	}
	if cfg.Width < 1 || cfg.Height < 1 || cfg.Width > MaxMapCells/cfg.Height {
		return nil, fmt.Errorf("%w: PGM map of %dx%d pixels exceeds %d cells",
			dynamics.ErrInvalidInput, cfg.Width, cfg.Height, MaxMapCells)
	}

	img, err := netpbm.Decode(io.MultiReader(&header, r), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decode PGM map: %w", err)
	}
	if img.Format() != netpbm.PGM {
		return nil, fmt.Errorf("%w: not a PGM map (format %v)", dynamics.ErrInvalidInput, img.Format())
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pixels := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gray := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
			pixels[y*width+x] = float64(gray.Y)
		}
	}

	lo, hi := pixels[0], pixels[0]
	for _, v := range pixels {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	o, err := NewOccupancy(height, width)
	if err != nil {
		return nil, err
	}
	for k, v := range pixels {
		normalized := 0.0
		if hi > 0 {
			normalized = (v - lo) / hi
		}
		o.cells[k] = normalized < threshold
	}
	return o, nil
}
