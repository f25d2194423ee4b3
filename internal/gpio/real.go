//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads the encoder from actual hardware using the Linux GPIO
// character device. All three lines are requested together so one Read is a
// single snapshot of A, B and the switch.
type RealReader struct {
	lines *gpiocdev.Lines
	vals  []int
}

// NewRealReader requests the encoder lines on the given chip.
func NewRealReader(chip string, pinA, pinB, pinButton int) (*RealReader, error) {
	// The EC11 switches to ground, so every line idles high on the pull-up.
	lines, err := gpiocdev.RequestLines(chip, []int{pinA, pinB, pinButton},
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithConsumer("once-timer"))
	if err != nil {
		return nil, fmt.Errorf("request encoder pins %d,%d,%d on %s: %w", pinA, pinB, pinButton, chip, err)
	}

	return &RealReader{
		lines: lines,
		vals:  make([]int, 3),
	}, nil
}

// Read returns the phase levels and the logical button state.
// Inverts the switch: raw low (0) = pressed.
func (r *RealReader) Read() (Sample, error) {
	if err := r.lines.Values(r.vals); err != nil {
		return Sample{}, fmt.Errorf("read encoder pins: %w", err)
	}

	return Sample{
		A:       r.vals[0] != 0,
		B:       r.vals[1] != 0,
		Pressed: r.vals[2] == 0,
	}, nil
}

// Close releases GPIO resources.
// Lines are left as inputs with pull-up so the encoder never floats after exit.
func (r *RealReader) Close() error {
	var errs []error

	if r.lines != nil {
		if err := r.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure encoder pins: %w", err))
		}
		if err := r.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close encoder pins: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
