package device

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/cwbudde/algo-vocal/tuner"
)

// Capture is a microphone source backed by miniaudio. The zero device name
// selects the system default input.
type Capture struct {
	device string
	log    *slog.Logger
}

// CaptureOption configures a [Capture].
type CaptureOption func(*Capture) error

// WithDevice selects a capture device by exact name.
func WithDevice(name string) CaptureOption {
	return func(c *Capture) error {
		c.device = name
		return nil
	}
}

// WithCaptureLogger sets the logger receiving backend messages.
func WithCaptureLogger(l *slog.Logger) CaptureOption {
	return func(c *Capture) error {
		if l == nil {
			return errors.New("device: logger must not be nil")
		}
		c.log = l
		return nil
	}
}

// NewCapture creates a capture source. No device is opened until Open.
func NewCapture(opts ...CaptureOption) (*Capture, error) {
	c := &Capture{log: slog.Default()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Name returns the configured device name.
func (c *Capture) Name() string {
	if c.device == "" {
		return "default input"
	}
	return c.device
}

// Open starts capturing mono float32 at cfg.SampleRate and delivers blocks
// of cfg.BlockSize samples to fn from the driver's audio thread.
func (c *Capture) Open(cfg tuner.StreamConfig, fn tuner.BlockFunc) (tuner.Stream, error) {
	if cfg.BlockSize <= 0 || !(cfg.SampleRate > 0) || math.IsInf(cfg.SampleRate, 0) {
		return nil, fmt.Errorf("device: invalid stream config %+v", cfg)
	}

	ctx, err := c.initContext()
	if err != nil {
		return nil, classify(err)
	}

	devCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	devCfg.Capture.Format = malgo.FormatF32
	devCfg.Capture.Channels = 1
	devCfg.SampleRate = uint32(math.Round(cfg.SampleRate))
	devCfg.PeriodSizeInFrames = uint32(cfg.BlockSize)
	devCfg.Alsa.NoMMap = 1

	if c.device != "" {
		info, err := findDevice(ctx, c.device)
		if err != nil {
			freeContext(ctx)
			return nil, err
		}
		devCfg.Capture.DeviceID = info.ID.Pointer()
	}

	rb := newReblocker(cfg.BlockSize, fn)
	channels := int(devCfg.Capture.Channels)

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			rb.writeFloat32LE(input, channels)
		},
	}

	dev, err := malgo.InitDevice(ctx.Context, devCfg, callbacks)
	if err != nil {
		freeContext(ctx)
		return nil, classify(fmt.Errorf("init device: %w", err))
	}

	if err := dev.Start(); err != nil {
		dev.Uninit()
		freeContext(ctx)
		return nil, classify(fmt.Errorf("start device: %w", err))
	}

	c.log.Debug("capture device started",
		"device", c.Name(),
		"sample_rate", devCfg.SampleRate,
		"period", devCfg.PeriodSizeInFrames)

	return &captureStream{ctx: ctx, dev: dev}, nil
}

func (c *Capture) initContext() (*malgo.AllocatedContext, error) {
	log := c.log
	return malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Debug("miniaudio", "message", message)
	})
}

// Devices lists the names of the available capture devices.
func (c *Capture) Devices() ([]string, error) {
	ctx, err := c.initContext()
	if err != nil {
		return nil, classify(err)
	}
	defer freeContext(ctx)

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, classify(err)
	}

	names := make([]string, 0, len(infos))
	for i := range infos {
		names = append(names, infos[i].Name())
	}
	return names, nil
}

func findDevice(ctx *malgo.AllocatedContext, name string) (malgo.DeviceInfo, error) {
	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return malgo.DeviceInfo{}, classify(err)
	}
	for i := range infos {
		if infos[i].Name() == name {
			return infos[i], nil
		}
	}
	return malgo.DeviceInfo{}, fmt.Errorf("%w: no capture device named %q", tuner.ErrDeviceUnavailable, name)
}

func freeContext(ctx *malgo.AllocatedContext) {
	_ = ctx.Uninit()
	ctx.Free()
}

type captureStream struct {
	once sync.Once
	ctx  *malgo.AllocatedContext
	dev  *malgo.Device
	err  error
}

// Close stops the device. miniaudio waits for an in-flight callback, so no
// block is delivered after Close returns.
func (s *captureStream) Close() error {
	s.once.Do(func() {
		s.err = s.dev.Stop()
		s.dev.Uninit()
		freeContext(s.ctx)
	})
	return s.err
}
