package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"

	pitchshift "github.com/cwbudde/algo-vocal/dsp/effects/pitch"
	"github.com/cwbudde/algo-vocal/internal/config"
	"github.com/cwbudde/algo-vocal/internal/device"
	"github.com/cwbudde/algo-vocal/internal/playback"
	"github.com/cwbudde/algo-vocal/tuner"
)

// refreshInterval is the live display update period.
const refreshInterval = 250 * time.Millisecond

func newController(cfg config.Config, src tuner.Source, logger *slog.Logger, extra ...tuner.Option) (*tuner.Controller, error) {
	opts := append(cfg.TunerOptions(), tuner.WithLogger(logger))
	opts = append(opts, extra...)

	c, err := tuner.New(src, opts...)
	if err != nil {
		return nil, err
	}

	if n, ok := cfg.Target(); ok {
		c.SetTarget(n)
	}
	return c, nil
}

func runAnalyze(ctx context.Context, cfg config.Config, path string, realtime bool, logger *slog.Logger) error {
	src, err := device.NewFile(path, device.WithRealtime(realtime), device.WithFileLogger(logger))
	if err != nil {
		return err
	}

	// Files are analysed without a backing track, so there is nothing to retune.
	c, err := newController(cfg, src, logger, tuner.WithRetune(false))
	if err != nil {
		return err
	}

	if err := c.Start(); err != nil {
		return err
	}

	select {
	case <-src.Done():
	case <-ctx.Done():
	}

	if err := c.Stop(); err != nil {
		return err
	}

	printReport(os.Stdout, c.Snapshot())
	return ctx.Err()
}

func runLive(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	capture, err := device.NewCapture(device.WithDevice(cfg.Audio.Device), device.WithCaptureLogger(logger))
	if err != nil {
		return err
	}

	if cfg.Shift.Retune && cfg.Shift.Backing == "" {
		return fmt.Errorf("retune needs a backing track")
	}

	var extra []tuner.Option
	if cfg.Shift.Backing != "" {
		shifter, err := pitchshift.NewShifter(cfg.ShifterOptions()...)
		if err != nil {
			return err
		}

		closeBacking, err := playBacking(cfg, shifter, logger)
		if err != nil {
			return err
		}
		defer closeBacking()

		extra = append(extra, tuner.WithShifter(shifter))
	}

	c, err := newController(cfg, capture, logger, extra...)
	if err != nil {
		return err
	}

	if err := c.Start(); err != nil {
		return err
	}
	defer c.Stop()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := c.Stop(); err != nil {
				return err
			}
			fmt.Println()
			printReport(os.Stdout, c.Snapshot())
			return nil
		case <-ticker.C:
			fmt.Printf("\r%s", statusLine(c.Snapshot()))
		}
	}
}

// playBacking starts the backing track through the shifter on the default
// output device.
func playBacking(cfg config.Config, shifter *pitchshift.Shifter, logger *slog.Logger) (func(), error) {
	fh, err := os.Open(cfg.Shift.Backing)
	if err != nil {
		return nil, fmt.Errorf("backing track: %w", err)
	}

	var (
		st     beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(cfg.Shift.Backing)) {
	case ".mp3":
		st, format, err = mp3.Decode(fh)
	default:
		st, format, err = wav.Decode(fh)
	}
	if err != nil {
		_ = fh.Close()
		return nil, fmt.Errorf("backing track: %w", err)
	}

	sr := beep.SampleRate(int(cfg.Audio.SampleRate))

	var s beep.Streamer = st
	if format.SampleRate != sr {
		s = beep.Resample(4, format.SampleRate, sr, s)
	}

	shifted, err := playback.NewStreamer(s, shifter, shifter.BlockSize())
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("speaker: %w", err)
	}
	speaker.Play(shifted)

	logger.Info("backing track playing",
		"file", filepath.Base(cfg.Shift.Backing),
		"semitones", shifter.Semitones(),
		"mode", shifter.Mode())

	return func() {
		speaker.Clear()
		_ = st.Close()
		_ = fh.Close()
	}, nil
}

func runDevices(logger *slog.Logger) error {
	capture, err := device.NewCapture(device.WithCaptureLogger(logger))
	if err != nil {
		return err
	}

	names, err := capture.Devices()
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}
