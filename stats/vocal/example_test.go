package vocal_test

import (
	"fmt"

	"github.com/cwbudde/algo-vocal/measure/pitch"
	"github.com/cwbudde/algo-vocal/stats/vocal"
)

func ExampleAggregator() {
	agg, err := vocal.NewAggregator()
	if err != nil {
		panic(err)
	}

	note, cents := pitch.NoteFromFrequency(440, pitch.DefaultReference)
	est := pitch.Estimate{Frequency: 440, Note: note, Cents: cents, Voiced: true}

	for range 30 {
		agg.Update(est, 0.1)
	}

	s := agg.Snapshot()
	fmt.Printf("consistency=%.0f%% notes=%d volume=%.0f%%\n",
		s.Stability.PitchConsistency, s.Session.NotesHit.Len(), s.Volume.Current)
	// Output:
	// consistency=100% notes=1 volume=67%
}
