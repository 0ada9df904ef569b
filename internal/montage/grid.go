package montage

import "math"

// Grid picks a near-square layout for n tiles. Up to three images stay on
// a single row; beyond that columns are ceil(sqrt(n)) and rows grow to
// cover the remainder.
func Grid(n int) (rows, cols int) {
	if n <= 0 {
		return 0, 0
	}
	if n <= 3 {
		return 1, n
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = int(math.Ceil(float64(n) / float64(cols)))
	return rows, cols
}
