package device

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-vocal/tuner"
)

// classify maps a backend error onto the tuner sentinels so callers can
// tell a missing permission from a missing device.
func classify(err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{"access denied", "permission", "not permitted"} {
		if strings.Contains(msg, s) {
			return fmt.Errorf("%w: %w", tuner.ErrPermissionDenied, err)
		}
	}

	return fmt.Errorf("%w: %w", tuner.ErrDeviceUnavailable, err)
}
