package utils

import "golang.org/x/exp/constraints"

// ArgMax returns the index of the first largest element, or -1 for an empty slice.
func ArgMax[T constraints.Ordered](slice []T) int {
	best := -1
	for i, v := range slice {
		if best == -1 || v > slice[best] {
			best = i
		}
	}
	return best
}

// ArgMaxFunc is ArgMax over key(element).
func ArgMaxFunc[E any, T constraints.Ordered](slice []E, key func(E) T) int {
	best := -1
	var bestKey T
	for i, e := range slice {
		if k := key(e); best == -1 || k > bestKey {
			best, bestKey = i, k
		}
	}
	return best
}
