// Package config loads vocaltune profiles from YAML and turns them into
// component options.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	pitchshift "github.com/cwbudde/algo-vocal/dsp/effects/pitch"
	"github.com/cwbudde/algo-vocal/measure/formant"
	"github.com/cwbudde/algo-vocal/measure/pitch"
	"github.com/cwbudde/algo-vocal/stats/vocal"
	"github.com/cwbudde/algo-vocal/tuner"
)

// Config is a complete vocaltune profile.
type Config struct {
	LogLevel string   `yaml:"log_level" validate:"oneof=debug info warn error"`
	Audio    Audio    `yaml:"audio"`
	Detector Detector `yaml:"detector"`
	Metrics  Metrics  `yaml:"metrics"`
	Formant  Formant  `yaml:"formant"`
	Shift    Shift    `yaml:"shift"`
}

// Audio describes the capture stream.
type Audio struct {
	SampleRate float64 `yaml:"sample_rate" validate:"gte=8000,lte=192000"`
	BlockSize  int     `yaml:"block_size" validate:"gte=256,lte=8192"`
	Device     string  `yaml:"device"`
	Formants   bool    `yaml:"formants"`
}

// Detector holds pitch detector tunables.
type Detector struct {
	MinFrequency float64 `yaml:"min_frequency" validate:"gt=0,ltfield=MaxFrequency"`
	MaxFrequency float64 `yaml:"max_frequency" validate:"gt=0"`
	Threshold    float64 `yaml:"threshold" validate:"gt=0,lte=1"`
	Reference    float64 `yaml:"reference" validate:"gte=400,lte=480"`
	Highpass     float64 `yaml:"highpass" validate:"gte=0,lt=500"`
	SilenceFloor float64 `yaml:"silence_floor" validate:"gte=0,lt=1"`
	Continuity   float64 `yaml:"continuity" validate:"gt=0,lte=1"`
}

// Metrics holds aggregator tunables. Target selects exercise mode with a
// fixed note such as "A4"; empty means free tuning.
type Metrics struct {
	Window             time.Duration `yaml:"window" validate:"gt=0"`
	ToleranceCents     float64       `yaml:"tolerance_cents" validate:"gt=0,lte=100"`
	Sustain            time.Duration `yaml:"sustain" validate:"gt=0"`
	VibratoMinHz       float64       `yaml:"vibrato_min_hz" validate:"gt=0,ltfield=VibratoMaxHz"`
	VibratoMaxHz       float64       `yaml:"vibrato_max_hz" validate:"gt=0"`
	VibratoMinDepth    float64       `yaml:"vibrato_min_depth_cents" validate:"gte=0"`
	ConsistencyWeight  float64       `yaml:"consistency_weight" validate:"gte=0"`
	InTuneWeight       float64       `yaml:"in_tune_weight" validate:"gte=0"`
	VolumeTimeConstant time.Duration `yaml:"volume_time_constant" validate:"gt=0"`
	Target             string        `yaml:"target" validate:"omitempty,note"`
}

// Formant holds formant estimator tunables, used when audio.formants is set.
type Formant struct {
	SmoothingHz float64 `yaml:"smoothing_hz" validate:"gt=0,lte=500"`
	MaxFlatness float64 `yaml:"max_flatness" validate:"gt=0,lte=1"`
}

// Shift configures the backing-track shifter. A non-zero Semitones takes
// precedence over Factor. Retune moves the backing track toward the
// exercise target as the singer's pitch changes.
type Shift struct {
	Factor    float64 `yaml:"factor" validate:"gte=0.5,lte=2"`
	Semitones float64 `yaml:"semitones" validate:"gte=-12,lte=12"`
	Mode      string  `yaml:"mode" validate:"oneof=resample overlap-add"`
	Backing   string  `yaml:"backing"`
	Retune    bool    `yaml:"retune"`
}

// Default returns the built-in profile.
func Default() Config {
	return Config{
		LogLevel: "info",
		Audio: Audio{
			SampleRate: 44100,
			BlockSize:  1024,
		},
		Detector: Detector{
			MinFrequency: 80,
			MaxFrequency: 1100,
			Threshold:    0.6,
			Reference:    pitch.DefaultReference,
			Highpass:     50,
			SilenceFloor: 0.005,
			Continuity:   0.85,
		},
		Metrics: Metrics{
			Window:             3 * time.Second,
			ToleranceCents:     25,
			Sustain:            500 * time.Millisecond,
			VibratoMinHz:       4,
			VibratoMaxHz:       8,
			VibratoMinDepth:    8,
			ConsistencyWeight:  1,
			InTuneWeight:       1,
			VolumeTimeConstant: time.Second,
		},
		Formant: Formant{
			SmoothingHz: 50,
			MaxFlatness: 0.5,
		},
		Shift: Shift{
			Factor: 1,
			Mode:   pitchshift.ModeResample.String(),
		},
	}
}

// validate is the shared validator instance.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report YAML keys instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("note", func(fl validator.FieldLevel) bool {
		_, err := pitch.ParseNote(fl.Field().String())
		return err == nil
	})
}

// Load reads and validates the profile at path. Keys missing from the file
// keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML profile over the defaults and validates it. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks every field and reports all violations at once.
func (c Config) Validate() error {
	var msgs []error

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("config: %w", err)
		}
		for _, e := range verrs {
			msgs = append(msgs, fmt.Errorf("config: %s %s", fieldPath(e), formatValidationMessage(e)))
		}
	}

	if c.Metrics.ConsistencyWeight == 0 && c.Metrics.InTuneWeight == 0 {
		msgs = append(msgs, errors.New("config: metrics.consistency_weight and metrics.in_tune_weight must not both be 0"))
	}

	return errors.Join(msgs...)
}

// fieldPath turns "Config.audio.sample_rate" into "audio.sample_rate".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func formatValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	case "ltfield":
		return fmt.Sprintf("must be less than %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "note":
		return fmt.Sprintf("must be a note such as A4 or F#3, got %q", e.Value())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}

// SlogLevel returns the configured log level.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Target returns the exercise target note, if one is configured.
func (c Config) Target() (pitch.Note, bool) {
	if c.Metrics.Target == "" {
		return pitch.Note{}, false
	}
	n, err := pitch.ParseNote(c.Metrics.Target)
	if err != nil {
		return pitch.Note{}, false
	}
	return n, true
}

// DetectorOptions converts the detector section.
func (c Config) DetectorOptions() []pitch.Option {
	d := c.Detector
	return []pitch.Option{
		pitch.WithRange(d.MinFrequency, d.MaxFrequency),
		pitch.WithThreshold(d.Threshold),
		pitch.WithReference(d.Reference),
		pitch.WithHighpass(d.Highpass),
		pitch.WithSilenceFloor(d.SilenceFloor),
		pitch.WithContinuity(d.Continuity),
	}
}

// AggregatorOptions converts the metrics section.
func (c Config) AggregatorOptions() []vocal.Option {
	m := c.Metrics
	return []vocal.Option{
		vocal.WithWindow(m.Window),
		vocal.WithTolerance(m.ToleranceCents),
		vocal.WithSustain(m.Sustain),
		vocal.WithVibratoBand(m.VibratoMinHz, m.VibratoMaxHz),
		vocal.WithVibratoMinDepth(m.VibratoMinDepth),
		vocal.WithAccuracyWeights(m.ConsistencyWeight, m.InTuneWeight),
		vocal.WithVolumeTimeConstant(m.VolumeTimeConstant),
	}
}

// FormantOptions converts the formant section.
func (c Config) FormantOptions() []formant.Option {
	return []formant.Option{
		formant.WithSmoothing(c.Formant.SmoothingHz),
		formant.WithMaxFlatness(c.Formant.MaxFlatness),
	}
}

// ShifterOptions converts the shift section.
func (c Config) ShifterOptions() []pitchshift.Option {
	mode := pitchshift.ModeResample
	if c.Shift.Mode == pitchshift.ModeOverlapAdd.String() {
		mode = pitchshift.ModeOverlapAdd
	}

	factor := c.Shift.Factor
	if c.Shift.Semitones != 0 {
		factor = pitchshift.FactorFromSemitones(c.Shift.Semitones)
	}

	return []pitchshift.Option{
		pitchshift.WithSampleRate(c.Audio.SampleRate),
		pitchshift.WithBlockSize(c.Audio.BlockSize),
		pitchshift.WithFactor(factor),
		pitchshift.WithMode(mode),
	}
}

// TunerOptions converts the profile into controller options. The shifter
// and logger are supplied by the caller.
func (c Config) TunerOptions() []tuner.Option {
	return []tuner.Option{
		tuner.WithSampleRate(c.Audio.SampleRate),
		tuner.WithBlockSize(c.Audio.BlockSize),
		tuner.WithFormants(c.Audio.Formants),
		tuner.WithFormantOptions(c.FormantOptions()...),
		tuner.WithRetune(c.Shift.Retune),
		tuner.WithDetectorOptions(c.DetectorOptions()...),
		tuner.WithAggregatorOptions(c.AggregatorOptions()...),
	}
}
