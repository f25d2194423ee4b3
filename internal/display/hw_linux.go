//go:build linux

package display

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// Hardware holds the GPIO lines behind the LCD and backlight.
type Hardware struct {
	sda       *gpiocdev.Line
	scl       *gpiocdev.Line
	backlight *gpiocdev.Line

	Bus       *Bus
	Backlight *LineBacklight
}

// OpenHardware requests the I2C and backlight lines on chip. A negative
// backlight pin leaves the backlight unwired.
func OpenHardware(chip string, pinSDA, pinSCL, pinBacklight int, activeHigh bool, delay time.Duration) (*Hardware, error) {
	h := &Hardware{}

	var err error
	h.sda, err = gpiocdev.RequestLine(chip, pinSDA,
		gpiocdev.AsOutput(1), gpiocdev.AsOpenDrain, gpiocdev.WithPullUp,
		gpiocdev.WithConsumer("once-timer-sda"))
	if err != nil {
		return nil, fmt.Errorf("request SDA pin %d: %w", pinSDA, err)
	}

	h.scl, err = gpiocdev.RequestLine(chip, pinSCL,
		gpiocdev.AsOutput(1),
		gpiocdev.WithConsumer("once-timer-scl"))
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("request SCL pin %d: %w", pinSCL, err)
	}
	h.Bus = NewBus(h.sda, h.scl, delay)

	if pinBacklight >= 0 {
		off := 0
		if !activeHigh {
			off = 1
		}
		h.backlight, err = gpiocdev.RequestLine(chip, pinBacklight,
			gpiocdev.AsOutput(off),
			gpiocdev.WithConsumer("once-timer-backlight"))
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("request backlight pin %d: %w", pinBacklight, err)
		}
		h.Backlight = NewLineBacklight(h.backlight, activeHigh)
	}

	return h, nil
}

// Close releases the lines, returning them to inputs first so nothing is
// left driven after exit.
func (h *Hardware) Close() error {
	var errs []error
	for _, l := range []*gpiocdev.Line{h.sda, h.scl, h.backlight} {
		if l == nil {
			continue
		}
		if err := l.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line: %w", err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
