package searcher

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// referenceFront compares every pair of vectors independently of ParetoFront.
func referenceFront(vectors [][]float64) []int {
	front := []int{}
	for i, a := range vectors {
		kept := true
		for j, b := range vectors {
			if i == j {
				continue
			}
			allGreaterOrEqual, anyGreater := true, false
			for k := range a {
				allGreaterOrEqual = allGreaterOrEqual && b[k] >= a[k]
				anyGreater = anyGreater || b[k] > a[k]
			}
			if allGreaterOrEqual && anyGreater {
				kept = false
			}
		}
		if kept {
			front = append(front, i)
		}
	}
	return front
}

func TestParetoFront(t *testing.T) {
	t.Run("keeping only non-dominated vectors", func(t *testing.T) {
		vectors := [][]float64{
			{1, 5},
			{2, 2},
			{3, 1},
			{1, 1},
			{0, 6},
			{2, 1},
		}

		require.Equal(t, []int{0, 1, 2, 4}, ParetoFront(vectors))
	})

	t.Run("keeping equal vectors together", func(t *testing.T) {
		vectors := [][]float64{{1, 1}, {1, 1}, {0, 1}}

		require.Equal(t, []int{0, 1}, ParetoFront(vectors))
	})

	t.Run("handling a single vector and scalars", func(t *testing.T) {
		require.Equal(t, []int{0}, ParetoFront([][]float64{{-4, 2, 7}}))
		require.Equal(t, []int{1, 3}, ParetoFront([][]float64{{1}, {3}, {2}, {3}}))
	})

	t.Run("matching a pairwise reference and staying idempotent", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		for trial := 0; trial < 200; trial++ {
			dim := 1 + rng.Intn(4)
			vectors := make([][]float64, 1+rng.Intn(12))
			for i := range vectors {
				vectors[i] = make([]float64, dim)
				for k := range vectors[i] {
					vectors[i][k] = float64(rng.Intn(5)) // Small range to force ties
				}
			}

			front := ParetoFront(vectors)
			require.Equal(t, referenceFront(vectors), front)
			require.NotEmpty(t, front)

			survivors := make([][]float64, len(front))
			for i, idx := range front {
				survivors[i] = vectors[idx]
			}
			again := ParetoFront(survivors)
			require.Len(t, again, len(survivors), "Filtering the front again should keep every vector")
		}
	})
}

func TestParetoSelect(t *testing.T) {
	t.Run("drawing only from the non-dominated children", func(t *testing.T) {
		children := []Stats{
			{Reward: []float64{4, 0}, Visits: 2}, // Front
			{Reward: []float64{1, 1}, Visits: 2}, // Dominated by child 3
			{Reward: []float64{0, 4}, Visits: 2}, // Front
			{Reward: []float64{2, 2}, Visits: 2}, // Front
		}
		p := NewPareto(0.3, rand.New(rand.NewSource(1)))

		seen := map[int]int{}
		for i := 0; i < 300; i++ {
			seen[p.Select(8, children)]++
		}

		require.Zero(t, seen[1], "Dominated child should never be selected")
		require.Positive(t, seen[0])
		require.Positive(t, seen[2])
		require.Positive(t, seen[3])
	})

	t.Run("repeating choices under the same seed", func(t *testing.T) {
		children := []Stats{
			{Reward: []float64{4, 0}, Visits: 2},
			{Reward: []float64{0, 4}, Visits: 2},
			{Reward: []float64{2, 2}, Visits: 2},
		}
		first := NewPareto(0.3, rand.New(rand.NewSource(7)))
		second := NewPareto(0.3, rand.New(rand.NewSource(7)))

		for i := 0; i < 50; i++ {
			require.Equal(t, first.Select(6, children), second.Select(6, children))
		}
	})

	t.Run("favouring a rarely visited child through exploration", func(t *testing.T) {
		// Equal means, so only the exploration term separates the children
		children := []Stats{
			{Reward: []float64{10, 10}, Visits: 10},
			{Reward: []float64{1, 1}, Visits: 1},
		}
		p := NewPareto(1, rand.New(rand.NewSource(3)))

		require.Equal(t, 1, p.Select(11, children))
	})

	t.Run("accepting any positive dimension", func(t *testing.T) {
		p := NewPareto(0.3, rand.New(rand.NewSource(1)))

		require.NoError(t, p.Validate(1))
		require.NoError(t, p.Validate(3))
		require.ErrorIs(t, p.Validate(0), ErrInvalidInput)
	})

	t.Run("panics without a random generator", func(t *testing.T) {
		require.Panics(t, func() { NewPareto(0.3, nil) })
	})
}
