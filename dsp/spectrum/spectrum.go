package spectrum

import (
	"github.com/cwbudde/algo-vecmath"
)

// SplitComplex copies real and imaginary parts of bins into re and im.
// Only the common prefix of the three slices is written.
func SplitComplex(re, im []float64, bins []complex128) {
	n := min(len(re), len(im), len(bins))
	for i := 0; i < n; i++ {
		re[i] = real(bins[i])
		im[i] = imag(bins[i])
	}
}

// MagnitudeFromParts computes |X[k]| = sqrt(re[k]^2 + im[k]^2) into dst.
//
// All three slices must have the same length.
func MagnitudeFromParts(dst, re, im []float64) {
	vecmath.Magnitude(dst, re, im)
}

// PowerTo computes |X[k]|^2 of bins into dst, using re and im as scratch.
// All four slices must have the same length.
func PowerTo(dst, re, im []float64, bins []complex128) {
	SplitComplex(re, im, bins)
	vecmath.Power(dst, re, im)
}

// BinFrequency returns the center frequency of bin k for an FFT of size
// fftSize.
func BinFrequency(k, fftSize int, sampleRate float64) float64 {
	if fftSize <= 0 {
		return 0
	}
	return float64(k) * sampleRate / float64(fftSize)
}

// SmoothTo writes a centered moving average of src with the given half
// width into dst. Edges use the truncated neighbourhood. dst and src must
// not alias.
func SmoothTo(dst, src []float64, halfWidth int) {
	n := min(len(dst), len(src))
	if n == 0 {
		return
	}
	if halfWidth <= 0 {
		copy(dst[:n], src[:n])
		return
	}

	sum := 0.0
	lo, hi := 0, 0 // window is src[lo:hi]
	for i := 0; i < n; i++ {
		wantHi := min(n, i+halfWidth+1)
		for hi < wantHi {
			sum += src[hi]
			hi++
		}
		wantLo := max(0, i-halfWidth)
		for lo < wantLo {
			sum -= src[lo]
			lo++
		}
		dst[i] = sum / float64(hi-lo)
	}
}

// ParabolicPeak refines the position of a local maximum at index i by
// fitting a parabola through y[i-1], y[i], y[i+1]. It returns the
// fractional offset in [-0.5, 0.5] and the interpolated peak value. At the
// edges, or for a degenerate fit, the offset is 0 and the value is y[i].
func ParabolicPeak(y []float64, i int) (offset, value float64) {
	if i <= 0 || i >= len(y)-1 {
		if i >= 0 && i < len(y) {
			return 0, y[i]
		}
		return 0, 0
	}

	a, b, c := y[i-1], y[i], y[i+1]
	den := a - 2*b + c
	if den == 0 {
		return 0, b
	}

	offset = 0.5 * (a - c) / den
	if offset > 0.5 {
		offset = 0.5
	} else if offset < -0.5 {
		offset = -0.5
	}

	return offset, b - 0.25*(a-c)*offset
}
