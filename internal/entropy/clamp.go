package entropy

import "golang.org/x/exp/constraints"

// Clamp bounds v to [lo, hi].
func Clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Floor bounds v from below.
func Floor[T constraints.Integer | constraints.Float](v, lo T) T {
	if v < lo {
		return lo
	}
	return v
}
