package trace

import (
	"fmt"
	"io"

	"github.com/tarm/serial"
)

// DefaultBaud is the UART speed for the serial trace.
const DefaultBaud = 115200

// OpenSerial opens a UART for the trace, e.g. a USB serial adapter on
// /dev/ttyUSB0. A non-positive baud uses DefaultBaud.
func OpenSerial(device string, baud int) (io.WriteCloser, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	port, err := serial.OpenPort(&serial.Config{Name: device, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", device, err)
	}
	return port, nil
}
