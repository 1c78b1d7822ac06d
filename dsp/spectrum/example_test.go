package spectrum_test

import (
	"fmt"

	"github.com/cwbudde/algo-vocal/dsp/spectrum"
)

func ExampleParabolicPeak() {
	y := []float64{0, 3, 4, 3.5, 0}
	off, val := spectrum.ParabolicPeak(y, 2)
	fmt.Printf("%.3f %.3f\n", off, val)
	// Output:
	// 0.167 4.021
}

func ExamplePowerTo() {
	bins := []complex128{1 + 1i, 2}
	dst := make([]float64, 2)
	spectrum.PowerTo(dst, make([]float64, 2), make([]float64, 2), bins)
	fmt.Printf("%.1f %.1f\n", dst[0], dst[1])
	// Output:
	// 2.0 4.0
}
