// Package frequency provides spectral shape statistics over one-sided
// magnitude spectra.
package frequency

import "math"

// binFreq returns the frequency in Hz of bin i for a one-sided spectrum
// with binCount bins (fftSize = 2 * (binCount - 1)).
func binFreq(i int, sampleRate float64, binCount int) float64 {
	return float64(i) * sampleRate / float64(2*(binCount-1))
}

// Centroid returns the spectral centroid in Hz.
//
//	centroid = sum(f_i * |X_i|) / sum(|X_i|)
func Centroid(magnitude []float64, sampleRate float64) float64 {
	n := len(magnitude)
	if n < 2 {
		return 0
	}

	sum, weighted := 0.0, 0.0
	for i, v := range magnitude {
		sum += v
		weighted += binFreq(i, sampleRate, n) * v
	}

	if sum == 0 {
		return 0
	}

	return weighted / sum
}

// Flatness returns the spectral flatness (Wiener entropy) in the range 0..1.
//
// Flatness = exp(mean(log(|X_i|))) / mean(|X_i|)
//
// DC bin (index 0) is excluded from the computation. If all considered bins
// are zero, 0 is returned.
func Flatness(magnitude []float64) float64 {
	n := len(magnitude)
	if n < 2 {
		return 0
	}

	nBins := n - 1
	sumLin := 0.0
	sumLog := 0.0

	for i := 1; i < n; i++ {
		v := magnitude[i]
		if v <= 0 {
			// Geometric mean collapses to zero.
			return 0
		}
		sumLin += v
		sumLog += math.Log(v)
	}

	meanLin := sumLin / float64(nBins)

	return math.Exp(sumLog/float64(nBins)) / meanLin
}

