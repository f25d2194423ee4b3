// Package gpio provides rotary encoder input reading with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Sample is one reading of the encoder lines, taken once per sampling tick.
// A and B carry the raw phase levels. Pressed is already normalised from the
// active-low button line: true means the knob is pushed in.
type Sample struct {
	A       bool
	B       bool
	Pressed bool
}

// Reader reads encoder input states.
type Reader interface {
	// Read returns the current phase levels and the logical button state.
	// The raw button value is inverted: raw low = pressed.
	Read() (Sample, error)

	// Close releases GPIO resources.
	Close() error
}

// Pin defaults (BCM numbering)
const (
	DefaultPinA      = 17 // encoder phase A (CLK)
	DefaultPinB      = 27 // encoder phase B (DT)
	DefaultPinButton = 22 // encoder push switch (SW)
)

// DefaultChip is the GPIO character device used on a Raspberry Pi.
const DefaultChip = "gpiochip0"
