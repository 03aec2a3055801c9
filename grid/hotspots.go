package grid

import (
	"fmt"
	"math"

	"pmcts/dynamics"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Hotspot is a bivariate Gaussian over grid coordinates (row, col). The
// covariance must be symmetric positive definite.
type Hotspot struct {
	Mean       [2]float64
	Covariance [2][2]float64
}

func (h Hotspot) normal() (*distmv.Normal, bool) {
	c := h.Covariance
	if c[0][1] != c[1][0] {
		return nil, false
	}
	sigma := mat.NewSymDense(2, []float64{c[0][0], c[0][1], c[1][0], c[1][1]})
	return distmv.NewNormal(h.Mean[:], sigma, nil)
}

// Hotspots sums the hotspot densities at every cell and normalizes the result
// to (r - min) / max.
func Hotspots(rows, cols int, spots []Hotspot) (*Rewards, error) {
	if len(spots) == 0 {
		return nil, fmt.Errorf("%w: no hotspots", dynamics.ErrInvalidInput)
	}
	normals := make([]*distmv.Normal, len(spots))
	for k, s := range spots {
		n, ok := s.normal()
		if !ok {
			return nil, fmt.Errorf("%w: hotspot %d covariance is not symmetric positive definite", dynamics.ErrInvalidInput, k)
		}
		normals[k] = n
	}
	r, err := NewRewards(rows, cols, 1)
	if err != nil {
		return nil, err
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := 0.0
			for _, n := range normals {
				v += n.Prob([]float64{float64(i), float64(j)})
			}
			r.cells[i*cols+j] = v
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if hi > 0 {
		for k := range r.cells {
			r.cells[k] = (r.cells[k] - lo) / hi
		}
	}
	return r, nil
}
