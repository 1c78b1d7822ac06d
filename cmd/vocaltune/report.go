package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/algo-vocal/stats/vocal"
)

// statusLine renders a one-line live view.
func statusLine(s vocal.Snapshot) string {
	note := "--"
	if s.Estimate.Voiced {
		note = fmt.Sprintf("%-3s %+4.0fc %7.1f Hz", s.Estimate.Note, s.Estimate.Cents, s.Estimate.Frequency)
	}

	vib := ""
	if s.Vibrato.Detected {
		vib = fmt.Sprintf(" vibrato %.1f Hz/%.0fc", s.Vibrato.Rate, s.Vibrato.Depth)
	}

	return fmt.Sprintf("%-22s vol %3.0f%% pk %3.0f%% stab %3.0f%%%s   ",
		note, s.Volume.Current, s.Volume.Peak, s.Stability.PitchConsistency, vib)
}

// printReport writes the session summary.
func printReport(w io.Writer, s vocal.Snapshot) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	target := "free"
	if s.TargetFixed {
		target = s.Target.String()
	}

	fmt.Fprintf(tw, "Session\t%s\n", s.Session.ID)
	fmt.Fprintf(tw, "Duration\t%s\n", s.Session.Duration.Round(time.Millisecond))
	fmt.Fprintf(tw, "Voiced\t%s\n", s.Session.VoicedTime.Round(time.Millisecond))
	fmt.Fprintf(tw, "Target\t%s\n", target)
	fmt.Fprintf(tw, "Accuracy\t%.0f%%\n", s.Session.AccuracyScore)
	fmt.Fprintf(tw, "Consistency\t%.0f%%\n", s.Stability.PitchConsistency)
	fmt.Fprintf(tw, "Avg deviation\t%.1f cents\n", s.Stability.AverageDeviation)

	if s.Vibrato.Detected {
		fmt.Fprintf(tw, "Vibrato\t%.1f Hz, %.0f cents\n", s.Vibrato.Rate, s.Vibrato.Depth)
	} else {
		fmt.Fprintf(tw, "Vibrato\tnone\n")
	}

	if s.Formant.Valid {
		fmt.Fprintf(tw, "Formants\tF1 %.0f Hz, F2 %.0f Hz (%s)\n", s.Formant.F1, s.Formant.F2, s.Formant.Vowel)
	}

	fmt.Fprintf(tw, "Volume\t%.0f%% avg\n", s.Volume.Average)

	notes := s.Session.NotesHit.Notes()
	names := make([]string, len(notes))
	for i, n := range notes {
		names[i] = n.String()
	}
	fmt.Fprintf(tw, "Notes hit\t%d %s\n", len(notes), strings.Join(names, " "))

	tw.Flush()
}
