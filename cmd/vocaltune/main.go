// Command vocaltune analyses singing: pitch, stability, vibrato, volume
// and session accuracy, either offline from an audio file or live from a
// microphone with an optional pitch-shifted backing track.
//
// Usage:
//
//	vocaltune [flags] analyze <file.wav|file.mp3>
//	vocaltune [flags] live
//	vocaltune devices
//
// Examples:
//
//	vocaltune analyze take1.wav
//	vocaltune -target A4 analyze scale.wav
//	vocaltune -config profile.yaml -backing song.mp3 -shift -2 live
//	vocaltune -target E4 -backing song.mp3 -retune live
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cwbudde/algo-vocal/internal/config"
)

type options struct {
	configPath string
	target     string
	device     string
	backing    string
	shift      float64
	formants   bool
	retune     bool
	realtime   bool

	// set holds the names of flags given on the command line. Only those
	// override the profile, so "-shift 0" still resets a profile shift.
	set map[string]bool
}

func main() {
	var opts options

	flag.StringVar(&opts.configPath, "config", "", "YAML profile to load")
	flag.StringVar(&opts.target, "target", "", "exercise target note, e.g. A4 (overrides the profile)")
	flag.StringVar(&opts.device, "device", "", "capture device name (live)")
	flag.StringVar(&opts.backing, "backing", "", "backing track to play pitch-shifted (live)")
	flag.Float64Var(&opts.shift, "shift", 0, "backing track shift in semitones, -12..12 (overrides the profile)")
	flag.BoolVar(&opts.formants, "formants", false, "estimate formants and vowels (overrides the profile)")
	flag.BoolVar(&opts.retune, "retune", false, "retune the backing track toward the target note while singing (live)")
	flag.BoolVar(&opts.realtime, "realtime", false, "pace file analysis at the sample rate (analyze)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vocaltune [flags] analyze <file> | live | devices\n\n")
		fmt.Fprintf(os.Stderr, "Analyses pitch, stability, vibrato and accuracy of a singing voice.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  vocaltune analyze take1.wav\n")
		fmt.Fprintf(os.Stderr, "  vocaltune -target A4 analyze scale.wav\n")
		fmt.Fprintf(os.Stderr, "  vocaltune -backing song.mp3 -shift -2 live\n")
		fmt.Fprintf(os.Stderr, "  vocaltune -target E4 -backing song.mp3 -retune live\n")
	}
	flag.Parse()

	opts.set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "analyze":
		if len(args) != 2 {
			flag.Usage()
			os.Exit(2)
		}
		err = runAnalyze(ctx, cfg, args[1], opts.realtime, logger)
	case "live":
		err = runLive(ctx, cfg, logger)
	case "devices":
		err = runDevices(logger)
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", args[0])
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("vocaltune failed", "command", args[0], "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the profile, applies the explicitly set flags over it
// and validates the result.
func loadConfig(opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return config.Config{}, err
		}
	}

	if opts.set["target"] {
		cfg.Metrics.Target = opts.target
	}
	if opts.set["device"] {
		cfg.Audio.Device = opts.device
	}
	if opts.set["backing"] {
		cfg.Shift.Backing = opts.backing
	}
	if opts.set["shift"] {
		cfg.Shift.Semitones = opts.shift
	}
	if opts.set["formants"] {
		cfg.Audio.Formants = opts.formants
	}
	if opts.set["retune"] {
		cfg.Shift.Retune = opts.retune
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
