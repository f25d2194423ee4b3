//go:build !linux

package display

import (
	"errors"
	"time"
)

// Hardware is not available on non-Linux platforms.
type Hardware struct {
	Bus       *Bus
	Backlight *LineBacklight
}

// OpenHardware returns an error on non-Linux platforms.
func OpenHardware(chip string, pinSDA, pinSCL, pinBacklight int, activeHigh bool, delay time.Duration) (*Hardware, error) {
	return nil, errors.New("display: not supported on this platform (requires Linux)")
}

// Close is a no-op on non-Linux platforms.
func (h *Hardware) Close() error {
	return nil
}
