package display

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

// Line is one GPIO output. *gpiocdev.Line satisfies it.
type Line interface {
	SetValue(value int) error
}

var errReadUnsupported = errors.New("i2c: bit-banged bus is write-only")

// Bus is a write-only, bit-banged I2C master. SDA should be an open-drain
// output so that driving it high releases the line. Acknowledge bits are
// clocked but not checked; the PCF8576 has nothing useful to say.
type Bus struct {
	sda   Line
	scl   Line
	delay func()
}

var _ drivers.I2C = (*Bus)(nil)

// NewBus creates a bus with a half-period of delay between edges.
func NewBus(sda, scl Line, delay time.Duration) *Bus {
	b := &Bus{sda: sda, scl: scl, delay: func() {}}
	if delay > 0 {
		b.delay = func() { time.Sleep(delay) }
	}
	return b
}

// Tx writes w to the 7-bit address addr. Reads are not supported.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if len(r) > 0 {
		return errReadUnsupported
	}

	if err := b.start(); err != nil {
		return err
	}
	if err := b.writeByte(byte(addr<<1) &^ 1); err != nil {
		return err
	}
	for _, c := range w {
		if err := b.writeByte(c); err != nil {
			return err
		}
	}
	return b.stop()
}

func (b *Bus) set(l Line, v int) error {
	if err := l.SetValue(v); err != nil {
		return err
	}
	b.delay()
	return nil
}

// start pulls SDA low while SCL is high.
func (b *Bus) start() error {
	if err := b.sda.SetValue(1); err != nil {
		return err
	}
	for _, step := range []struct {
		l Line
		v int
	}{{b.scl, 1}, {b.sda, 0}, {b.scl, 0}} {
		if err := b.set(step.l, step.v); err != nil {
			return err
		}
	}
	return nil
}

// stop releases SDA while SCL is high.
func (b *Bus) stop() error {
	for _, step := range []struct {
		l Line
		v int
	}{{b.sda, 0}, {b.scl, 1}, {b.sda, 1}} {
		if err := b.set(step.l, step.v); err != nil {
			return err
		}
	}
	return nil
}

// writeByte clocks out eight bits MSB first, then one acknowledge clock with
// SDA released.
func (b *Bus) writeByte(c byte) error {
	for i := 0; i < 8; i++ {
		bit := 0
		if c&0x80 != 0 {
			bit = 1
		}
		if err := b.clock(bit); err != nil {
			return err
		}
		c <<= 1
	}
	return b.clock(1)
}

func (b *Bus) clock(bit int) error {
	if err := b.set(b.sda, bit); err != nil {
		return err
	}
	if err := b.set(b.scl, 1); err != nil {
		return err
	}
	return b.set(b.scl, 0)
}

// LineBacklight drives the backlight from a GPIO output.
type LineBacklight struct {
	line       Line
	activeHigh bool
}

// NewLineBacklight wraps an output line. activeHigh selects whether a high
// level lights the backlight.
func NewLineBacklight(line Line, activeHigh bool) *LineBacklight {
	return &LineBacklight{line: line, activeHigh: activeHigh}
}

// Set switches the backlight.
func (b *LineBacklight) Set(on bool) error {
	v := 0
	if on == b.activeHigh {
		v = 1
	}
	return b.line.SetValue(v)
}
