package display

import (
	"errors"
	"testing"
)

// busEvent is one line level change, in order across both lines.
type busEvent struct {
	line  string
	value int
}

type wire struct {
	events []busEvent
}

type recordingLine struct {
	name   string
	wire   *wire
	values []int
	err    error
}

func (l *recordingLine) SetValue(v int) error {
	if l.err != nil {
		return l.err
	}
	l.values = append(l.values, v)
	if l.wire != nil {
		l.wire.events = append(l.wire.events, busEvent{l.name, v})
	}
	return nil
}

// decodeWire replays the recorded levels and returns the bytes framed
// between start and stop conditions, including the acknowledge bit count.
func decodeWire(t *testing.T, events []busEvent) (frames [][]byte, acks int) {
	t.Helper()
	sda, scl := 1, 1
	var bits []int
	var cur []byte
	inFrame := false

	for _, e := range events {
		switch e.line {
		case "sda":
			if scl == 1 && sda == 1 && e.value == 0 {
				inFrame = true
				bits = nil
				cur = nil
			}
			if scl == 1 && sda == 0 && e.value == 1 && inFrame {
				frames = append(frames, cur)
				inFrame = false
			}
			sda = e.value
		case "scl":
			if scl == 0 && e.value == 1 && inFrame {
				bits = append(bits, sda)
				if len(bits) == 9 {
					var b byte
					for _, v := range bits[:8] {
						b = b<<1 | byte(v)
					}
					cur = append(cur, b)
					if bits[8] == 1 {
						acks++
					}
					bits = nil
				}
			}
			scl = e.value
		}
	}
	if inFrame {
		t.Fatal("frame not terminated by stop condition")
	}
	return frames, acks
}

func newWire() (*wire, *recordingLine, *recordingLine) {
	w := &wire{}
	return w, &recordingLine{name: "sda", wire: w}, &recordingLine{name: "scl", wire: w}
}

func TestBusTxWaveform(t *testing.T) {
	w, sda, scl := newWire()
	bus := NewBus(sda, scl, 0)

	if err := bus.Tx(Address, []byte{0x00, 0xa5, 0xff}, nil); err != nil {
		t.Fatalf("Tx: %v", err)
	}

	frames, acks := decodeWire(t, w.events)
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	want := []byte{0x70, 0x00, 0xa5, 0xff}
	if string(frames[0]) != string(want) {
		t.Errorf("frame: got % x, want % x", frames[0], want)
	}
	if acks != len(want) {
		t.Errorf("acknowledge clocks with SDA released: got %d, want %d", acks, len(want))
	}

	// Both lines idle high afterwards
	if sda.values[len(sda.values)-1] != 1 || scl.values[len(scl.values)-1] != 1 {
		t.Error("bus not released after stop")
	}
}

func TestBusMultipleFrames(t *testing.T) {
	w, sda, scl := newWire()
	bus := NewBus(sda, scl, 0)
	lcd := NewLCD(bus, nil)

	if err := lcd.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	lcd.RenderTime(3, 9)

	frames, _ := decodeWire(t, w.events)
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	if string(frames[0]) != string([]byte{0x70, cmdModeSet}) {
		t.Errorf("mode set frame: got % x", frames[0])
	}
	digits := EncodeTime(3, 9)
	want := append([]byte{0x70, cmdDataPointer}, digits[:]...)
	if string(frames[2]) != string(want) {
		t.Errorf("render frame: got % x, want % x", frames[2], want)
	}
}

func TestBusRejectsReads(t *testing.T) {
	_, sda, scl := newWire()
	bus := NewBus(sda, scl, 0)

	if err := bus.Tx(Address, nil, make([]byte, 1)); !errors.Is(err, errReadUnsupported) {
		t.Errorf("Tx with read buffer: got %v, want errReadUnsupported", err)
	}
	if len(sda.values) != 0 || len(scl.values) != 0 {
		t.Error("rejected read should not touch the bus")
	}
}

func TestBusLineError(t *testing.T) {
	_, sda, scl := newWire()
	scl.err = errors.New("line released")
	bus := NewBus(sda, scl, 0)

	if err := bus.Tx(Address, []byte{1}, nil); err == nil {
		t.Error("expected line error to propagate")
	}
}
