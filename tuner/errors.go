package tuner

import (
	"errors"
	"fmt"
)

// Sentinel errors for controller operations.
var (
	ErrPermissionDenied  = errors.New("tuner: microphone permission denied")
	ErrDeviceUnavailable = errors.New("tuner: capture device unavailable")
	ErrNotListening      = errors.New("tuner: not listening")
)

// Operation names the capture step that failed.
type Operation string

const (
	OpOpen  Operation = "open"
	OpClose Operation = "close"
)

// CaptureError describes a failure to acquire or release the capture
// stream. Err wraps ErrPermissionDenied or ErrDeviceUnavailable when the
// cause is known.
type CaptureError struct {
	Op     Operation
	Device string
	Err    error
}

func (e *CaptureError) Error() string {
	device := e.Device
	if device == "" {
		device = "default device"
	}
	if e.Err != nil {
		return fmt.Sprintf("tuner: %s %s: %v", e.Op, device, e.Err)
	}
	return fmt.Sprintf("tuner: %s %s failed", e.Op, device)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// NewCaptureError returns a CaptureError for op on device. Causes that are
// neither a permission nor an availability error are classified as
// ErrDeviceUnavailable.
func NewCaptureError(op Operation, device string, err error) *CaptureError {
	if err != nil && !errors.Is(err, ErrPermissionDenied) && !errors.Is(err, ErrDeviceUnavailable) {
		err = fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	return &CaptureError{Op: op, Device: device, Err: err}
}
