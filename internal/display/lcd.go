// Package display drives the timer's four-digit segment LCD and backlight.
//
// The glass is run by a PCF8576 segment driver on a bit-banged I2C bus; the
// backlight is a plain GPIO output. LCD implements logic.Display.
package display

import (
	"fmt"
	"log"

	"tinygo.org/x/drivers"
)

// PCF8576 bus address and commands.
const (
	Address = 0x38 // 0x70 on the wire with the write bit

	cmdModeSet     = 0xC9 // continue, display enabled, 1/3 bias, static drive
	cmdDataPointer = 0x00
)

// Backlight switches the LCD backlight.
type Backlight interface {
	Set(on bool) error
}

// LCD renders minutes:seconds on the segment glass.
type LCD struct {
	bus       drivers.I2C
	addr      uint16
	backlight Backlight

	buf     [5]byte
	lastErr string
}

// NewLCD creates an LCD on the given bus. backlight may be nil when the
// backlight is not wired.
func NewLCD(bus drivers.I2C, backlight Backlight) *LCD {
	return &LCD{
		bus:       bus,
		addr:      Address,
		backlight: backlight,
	}
}

// Init configures the driver mode, shows dashes and switches the backlight on.
func (l *LCD) Init() error {
	if err := l.bus.Tx(l.addr, []byte{cmdModeSet}, nil); err != nil {
		return fmt.Errorf("lcd mode set: %w", err)
	}
	if err := l.write(EncodeDashes()); err != nil {
		return fmt.Errorf("lcd clear: %w", err)
	}
	if l.backlight != nil {
		if err := l.backlight.Set(true); err != nil {
			return fmt.Errorf("lcd backlight: %w", err)
		}
	}
	return nil
}

// RenderTime shows minutes:seconds, each saturated to 0..59. Transport errors
// are logged, not returned: the control loop has no way to act on them.
func (l *LCD) RenderTime(minutes, seconds int) {
	l.report(l.write(EncodeTime(minutes, seconds)))
}

// SetBacklight switches the backlight.
func (l *LCD) SetBacklight(on bool) {
	if l.backlight == nil {
		return
	}
	l.report(l.backlight.Set(on))
}

func (l *LCD) write(digits [4]byte) error {
	l.buf[0] = cmdDataPointer
	copy(l.buf[1:], digits[:])
	return l.bus.Tx(l.addr, l.buf[:], nil)
}

// report logs an error once until it changes or clears.
func (l *LCD) report(err error) {
	if err == nil {
		if l.lastErr != "" {
			log.Printf("display: recovered")
			l.lastErr = ""
		}
		return
	}
	if msg := err.Error(); msg != l.lastErr {
		log.Printf("display: %v", err)
		l.lastErr = msg
	}
}
