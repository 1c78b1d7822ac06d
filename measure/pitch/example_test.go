package pitch_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vocal/measure/pitch"
)

func ExampleNoteFromFrequency() {
	note, cents := pitch.NoteFromFrequency(446, 440)
	fmt.Printf("%s %+.1f\n", note, cents)
	// Output:
	// A4 +23.4
}

func ExampleDetector() {
	d, err := pitch.NewDetector(pitch.WithSampleRate(44100), pitch.WithBlockSize(1024))
	if err != nil {
		panic(err)
	}

	block := make([]float64, 1024)
	var est pitch.Estimate
	for b := range 4 {
		for i := range block {
			n := float64(b*len(block) + i)
			block[i] = 0.5 * math.Sin(2*math.Pi*440*n/44100)
		}
		est = d.Detect(block)
	}

	fmt.Println(est.Note, est.Voiced)
	// Output:
	// A4 true
}
