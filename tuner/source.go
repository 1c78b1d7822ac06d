package tuner

// StreamConfig is the block format a Source must deliver.
type StreamConfig struct {
	SampleRate float64
	BlockSize  int
}

// BlockFunc receives one mono block of StreamConfig.BlockSize samples. It
// is invoked from the source's real-time context and must not retain the
// slice.
type BlockFunc func(block []float64)

// Source opens capture streams, e.g. a microphone or a file.
type Source interface {
	Open(cfg StreamConfig, fn BlockFunc) (Stream, error)
}

// Stream is an open capture stream. Close stops delivery; no BlockFunc
// call is in flight once it returns.
type Stream interface {
	Close() error
}

// Named is implemented by sources that can report a device name for
// errors and logs.
type Named interface {
	Name() string
}

func sourceName(src Source) string {
	if n, ok := src.(Named); ok {
		return n.Name()
	}
	return ""
}
