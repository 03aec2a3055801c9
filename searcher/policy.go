package searcher

import (
	"fmt"
	"math"

	"pmcts/utils"
)

type uct struct {
	numerator float64
}

func newUCT(cSquared float64, N float64) *uct {
	if N == 0 {
		panic("N cannot be 0")
	}
	return &uct{numerator: cSquared * math.Log(N)}
}

// explore = sqrt(c^2*ln(N)/n)
func (u uct) explore(n float64) float64 {
	if n == 0 {
		panic("n cannot be 0")
	}
	return math.Sqrt(u.numerator / n)
}

// UCB ranks children of a scalar reward tree by
// q/n + weight * max(q/n) * sqrt(c^2*ln(N)/n), first child on ties.
type UCB struct {
	weight float64
}

func NewUCB(weight float64) *UCB {
	return &UCB{weight: weight}
}

func (u *UCB) Name() string {
	return "ucb"
}

func (u *UCB) Validate(dim int) error {
	if dim != 1 {
		return fmt.Errorf("%w: UCB needs scalar rewards, got dimension %d", ErrInvalidInput, dim)
	}
	return nil
}

func (u *UCB) Select(parentVisits int, children []Stats) int {
	policy := newUCT(CSquared, float64(parentVisits))

	exploitation := make([]float64, len(children))
	for i, child := range children {
		exploitation[i] = child.Reward[0] / float64(child.Visits)
	}
	scale := u.weight * exploitation[utils.ArgMax(exploitation)]

	scores := make([]float64, len(children))
	for i, child := range children {
		scores[i] = exploitation[i] + scale*policy.explore(float64(child.Visits))
	}
	return utils.ArgMax(scores)
}
