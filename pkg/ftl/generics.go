package ftl

import "golang.org/x/exp/constraints"

// minOf and maxOf back the erase-count spread scan in gc.go's
// updateWearMetrics.
func minOf[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func maxOf[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}
