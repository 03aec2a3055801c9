package searcher

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
)

// Pareto ranks children of a vector reward tree. Each child gets a score vector
// q/n + (weight * elementwise max(q/n)) * sqrt((4*ln(N) + ln(D)) / (2n)), and
// the child is drawn uniformly among the non-dominated score vectors.
type Pareto struct {
	weight float64
	rng    *rand.Rand
}

func NewPareto(weight float64, rng *rand.Rand) *Pareto {
	if rng == nil {
		panic("pareto selector needs a random generator")
	}
	return &Pareto{weight: weight, rng: rng}
}

func (p *Pareto) Name() string {
	return "pareto"
}

func (p *Pareto) Validate(dim int) error {
	if dim < 1 {
		return fmt.Errorf("%w: reward dimension %d", ErrInvalidInput, dim)
	}
	return nil
}

func (p *Pareto) Select(parentVisits int, children []Stats) int {
	if parentVisits == 0 {
		panic("N cannot be 0")
	}
	dim := len(children[0].Reward)
	numerator := 4*math.Log(float64(parentVisits)) + math.Log(float64(dim))

	exploitation := make([][]float64, len(children))
	best := make([]float64, dim)
	for k := range best {
		best[k] = math.Inf(-1)
	}
	for i, child := range children {
		if child.Visits == 0 {
			panic("n cannot be 0")
		}
		exploitation[i] = make([]float64, dim)
		for k, r := range child.Reward {
			exploitation[i][k] = r / float64(child.Visits)
			best[k] = math.Max(best[k], exploitation[i][k])
		}
	}

	scores := make([][]float64, len(children))
	for i, child := range children {
		exploration := math.Sqrt(numerator / (2 * float64(child.Visits)))
		scores[i] = make([]float64, dim)
		for k := range scores[i] {
			scores[i][k] = exploitation[i][k] + p.weight*best[k]*exploration
		}
	}

	front := ParetoFront(scores)
	return front[p.rng.Intn(len(front))]
}

// ParetoFront returns, in ascending order, the indices of the vectors that no
// other vector dominates. Vectors are maximized: a dominates b when a is no
// smaller in every dimension and larger in at least one.
func ParetoFront(vectors [][]float64) []int {
	front := make([]int, 0, len(vectors))
	for i := range vectors {
		dominated := false
		for j := range vectors {
			if i != j && dominates(vectors[j], vectors[i]) {
				dominated = true
				break
			}
		}
		if !dominated {
			front = append(front, i)
		}
	}
	return front
}

func dominates(a, b []float64) bool {
	better := false
	for k := range a {
		if a[k] < b[k] {
			return false
		}
		if a[k] > b[k] {
			better = true
		}
	}
	return better
}
