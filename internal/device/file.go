package device

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"

	"github.com/cwbudde/algo-vocal/tuner"
)

// chunkFrames is the number of frames pulled from the decoder per read.
const chunkFrames = 512

// ErrUnsupportedFormat is returned for files that are neither WAV nor MP3.
var ErrUnsupportedFormat = errors.New("device: unsupported audio format")

// File is a source that plays an audio file into the tuner. Each Open
// decodes the file from the start.
type File struct {
	path     string
	realtime bool
	log      *slog.Logger

	mu   sync.Mutex
	last *FileStream
}

// FileOption configures a [File].
type FileOption func(*File) error

// WithRealtime paces delivery at the stream's sample rate instead of
// decoding as fast as possible.
func WithRealtime(enabled bool) FileOption {
	return func(f *File) error {
		f.realtime = enabled
		return nil
	}
}

// WithFileLogger sets the logger.
func WithFileLogger(l *slog.Logger) FileOption {
	return func(f *File) error {
		if l == nil {
			return errors.New("device: logger must not be nil")
		}
		f.log = l
		return nil
	}
}

// NewFile creates a file source for path.
func NewFile(path string, opts ...FileOption) (*File, error) {
	if path == "" {
		return nil, errors.New("device: file path must not be empty")
	}

	f := &File{path: path, log: slog.Default()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Name returns the file's base name.
func (f *File) Name() string { return filepath.Base(f.path) }

// Done is closed when the most recently opened stream has delivered the
// whole file or was closed. It is already closed if nothing was opened.
func (f *File) Done() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return f.last.Done()
}

// Open decodes the file, resamples it to cfg.SampleRate, mixes it to mono
// and delivers blocks from a background goroutine. The last partial block
// is zero-padded.
func (f *File) Open(cfg tuner.StreamConfig, fn tuner.BlockFunc) (tuner.Stream, error) {
	if cfg.BlockSize <= 0 || !(cfg.SampleRate >= 1) || math.IsInf(cfg.SampleRate, 0) {
		return nil, fmt.Errorf("device: invalid stream config %+v", cfg)
	}

	fh, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: %w", tuner.ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("%w: %w", tuner.ErrDeviceUnavailable, err)
	}

	st, format, err := decode(f.path, fh)
	if err != nil {
		_ = fh.Close()
		return nil, err
	}

	target := beep.SampleRate(int(math.Round(cfg.SampleRate)))

	var s beep.Streamer = st
	if format.SampleRate != target {
		s = beep.Resample(4, format.SampleRate, target, s)
	}

	stream := &FileStream{
		src:     s,
		closers: []io.Closer{st, fh},
		rb:      newReblocker(cfg.BlockSize, fn),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		log:     f.log,
		name:    f.Name(),
	}
	if f.realtime {
		stream.pace = target.D(chunkFrames)
	}

	f.mu.Lock()
	f.last = stream
	f.mu.Unlock()

	f.log.Debug("file source opened",
		"file", f.Name(),
		"file_rate", int(format.SampleRate),
		"stream_rate", int(target),
		"channels", format.NumChannels)

	go stream.run()

	return stream, nil
}

func decode(path string, rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		st     beep.StreamSeekCloser
		format beep.Format
		err    error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		st, format, err = wav.Decode(rc)
	case ".mp3":
		st, format, err = mp3.Decode(rc)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("device: decode %s: %w", filepath.Base(path), err)
	}

	return st, format, nil
}

// FileStream is an open file source stream.
type FileStream struct {
	src     beep.Streamer
	closers []io.Closer
	rb      *reblocker
	pace    time.Duration

	stop chan struct{}
	done chan struct{}
	once sync.Once

	log  *slog.Logger
	name string

	mu  sync.Mutex
	err error
}

// Done is closed once delivery has finished.
func (s *FileStream) Done() <-chan struct{} { return s.done }

// Err returns the decoder error that ended delivery, if any.
func (s *FileStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops delivery, waits for the delivery goroutine and releases the
// decoder.
func (s *FileStream) Close() error {
	s.once.Do(func() { close(s.stop) })
	<-s.done
	return s.Err()
}

func (s *FileStream) run() {
	defer close(s.done)
	defer s.release()

	var ticker *time.Ticker
	if s.pace > 0 {
		ticker = time.NewTicker(s.pace)
		defer ticker.Stop()
	}

	buf := make([][2]float64, chunkFrames)
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		n, ok := s.src.Stream(buf)
		s.rb.writeStereo(buf[:n])

		if !ok {
			if err := s.src.Err(); err != nil {
				s.setErr(fmt.Errorf("device: stream %s: %w", s.name, err))
			}
			s.rb.flush()
			s.log.Debug("file source drained", "file", s.name)
			return
		}

		if ticker != nil {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
			}
		}
	}
}

func (s *FileStream) release() {
	for _, c := range s.closers {
		_ = c.Close()
	}
}

func (s *FileStream) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
