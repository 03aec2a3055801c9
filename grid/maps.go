package grid

import (
	"fmt"

	"pmcts/dynamics"
)

// Rewards is a dense row-major grid whose cells hold reward vectors of a fixed
// dimension. Scalar reward maps have dimension 1.
type Rewards struct {
	rows  int
	cols  int
	dim   int
	cells []float64
}

func NewRewards(rows, cols, dim int) (*Rewards, error) {
	if rows < 1 || cols < 1 || dim < 1 {
		return nil, fmt.Errorf("%w: reward grid %dx%d with dimension %d", dynamics.ErrInvalidInput, rows, cols, dim)
	}
	return &Rewards{
		rows:  rows,
		cols:  cols,
		dim:   dim,
		cells: make([]float64, rows*cols*dim),
	}, nil
}

// NewScalarRewards copies a rectangular matrix into a reward grid of dimension 1.
func NewScalarRewards(values [][]float64) (*Rewards, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty reward matrix", dynamics.ErrInvalidInput)
	}
	r, err := NewRewards(len(values), len(values[0]), 1)
	if err != nil {
		return nil, err
	}
	for i, row := range values {
		if len(row) != r.cols {
			return nil, fmt.Errorf("%w: reward row %d has %d columns, want %d", dynamics.ErrInvalidInput, i, len(row), r.cols)
		}
		copy(r.cells[i*r.cols:], row)
	}
	return r, nil
}

func (r *Rewards) Shape() (rows, cols int) {
	return r.rows, r.cols
}

func (r *Rewards) Dim() int {
	return r.dim
}

// At returns a view of cell (i, j); callers must not modify it.
func (r *Rewards) At(i, j int) []float64 {
	offset := (i*r.cols + j) * r.dim
	return r.cells[offset : offset+r.dim : offset+r.dim]
}

func (r *Rewards) Set(i, j int, values ...float64) {
	if len(values) != r.dim {
		panic(fmt.Sprintf("reward cell expects %d values, got %d", r.dim, len(values)))
	}
	copy(r.At(i, j), values)
}

// Sum adds up the reward vectors of the given cells, once per occurrence.
func (r *Rewards) Sum(cells []Index) []float64 {
	total := make([]float64, r.dim)
	for _, c := range cells {
		for k, v := range r.At(c.Row, c.Col) {
			total[k] += v
		}
	}
	return total
}

// Occupancy marks obstacle cells.
type Occupancy struct {
	rows  int
	cols  int
	cells []bool
}

func NewOccupancy(rows, cols int) (*Occupancy, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: occupancy grid %dx%d", dynamics.ErrInvalidInput, rows, cols)
	}
	return &Occupancy{rows: rows, cols: cols, cells: make([]bool, rows*cols)}, nil
}

// NewOccupancyFrom copies a rectangular boolean matrix.
func NewOccupancyFrom(values [][]bool) (*Occupancy, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty occupancy matrix", dynamics.ErrInvalidInput)
	}
	o, err := NewOccupancy(len(values), len(values[0]))
	if err != nil {
		return nil, err
	}
	for i, row := range values {
		if len(row) != o.cols {
			return nil, fmt.Errorf("%w: occupancy row %d has %d columns, want %d", dynamics.ErrInvalidInput, i, len(row), o.cols)
		}
		copy(o.cells[i*o.cols:], row)
	}
	return o, nil
}

func (o *Occupancy) Shape() (rows, cols int) {
	return o.rows, o.cols
}

func (o *Occupancy) Set(i, j int, occupied bool) {
	o.cells[i*o.cols+j] = occupied
}

func (o *Occupancy) Occupied(i, j int) bool {
	return o.cells[i*o.cols+j]
}

// Any reports whether at least one of the cells is occupied.
func (o *Occupancy) Any(cells []Index) bool {
	for _, c := range cells {
		if o.Occupied(c.Row, c.Col) {
			return true
		}
	}
	return false
}
