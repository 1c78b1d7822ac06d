package interp

import "math"

// Linear2 interpolates between x0 and x1 at fraction t in [0,1].
func Linear2(t, x0, x1 float64) float64 {
	return x0 + t*(x1-x0)
}

// RingLinear reads buf at the fractional position pos, treating buf as
// circular. Returns 0 for an empty buffer.
func RingLinear(buf []float64, pos float64) float64 {
	n := len(buf)
	if n == 0 {
		return 0
	}

	fl := math.Floor(pos)
	idx := wrapIndex(int(fl), n)
	next := idx + 1
	if next == n {
		next = 0
	}

	return Linear2(pos-fl, buf[idx], buf[next])
}

func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
