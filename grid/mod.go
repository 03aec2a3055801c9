package grid

import (
	"fmt"
	"math"

	"pmcts/dynamics"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
)

// Decimals kept before clamping so that points on a cell border do not flap
// between neighbouring cells.
const precision = 1e6

// Index addresses a grid cell.
type Index struct {
	Row int
	Col int
}

// NewExtent returns the workspace [xmin, xmax] × [ymin, ymax].
func NewExtent(xmin, xmax, ymin, ymax float64) (r2.Rect, error) {
	if !(xmin < xmax) || !(ymin < ymax) {
		return r2.EmptyRect(), fmt.Errorf("%w: extent [%v, %v, %v, %v] is empty",
			dynamics.ErrInvalidConfiguration, xmin, xmax, ymin, ymax)
	}
	return r2.Rect{
		X: r1.Interval{Lo: xmin, Hi: xmax},
		Y: r1.Interval{Lo: ymin, Hi: ymax},
	}, nil
}

// ToGrid maps x onto columns [0, maxCol] and y onto rows [0, maxRow].
// Points outside the extent are clamped to the nearest border cell.
func ToGrid(points []r2.Point, extent r2.Rect, maxRow, maxCol int) []Index {
	indices := make([]Index, len(points))
	for k, p := range points {
		indices[k] = Index{
			Row: toCell(p.Y, extent.Y, maxRow),
			Col: toCell(p.X, extent.X, maxCol),
		}
	}
	return indices
}

func toCell(v float64, interval r1.Interval, last int) int {
	scaled := (v - interval.Lo) / interval.Length() * float64(last)
	scaled = math.RoundToEven(scaled*precision) / precision
	if !(scaled > 0) { // NaN lands in the first cell
		return 0
	}
	if scaled > float64(last) {
		return last
	}
	return int(scaled)
}

// Inside reports whether every point lies strictly inside the extent.
func Inside(points []r2.Point, extent r2.Rect) bool {
	for _, p := range points {
		if !extent.InteriorContainsPoint(p) {
			return false
		}
	}
	return true
}
