// Package encoder decodes an EC11-style rotary encoder with push switch.
//
// A periodic sampling goroutine feeds raw pin levels into Sample; the control
// loop drains decoded events with ReadEvent. Both sides meet only inside the
// Encoder's mutex, and every critical section is a handful of integer
// operations so neither side can stall the other.
package encoder

import (
	"sync"

	"github.com/sweeney/once-timer/internal/gpio"
	"github.com/sweeney/once-timer/internal/logic"
)

// Config holds the decoding constants.
type Config struct {
	// StepsPerNotch is the number of quadrature steps in one detent.
	StepsPerNotch int
	// StableTicks is the number of matching samples that confirm a button level.
	StableTicks int
	// MaxPendingNotches bounds the undelivered detent count in either direction.
	MaxPendingNotches int
}

// DefaultConfig returns the EC11 defaults: four steps per detent and a five
// sample debounce.
func DefaultConfig() Config {
	return Config{
		StepsPerNotch:     4,
		StableTicks:       5,
		MaxPendingNotches: 64,
	}
}

// Stats are counters for diagnostics.
type Stats struct {
	Samples        uint64
	Notches        uint64
	Presses        uint64
	DroppedNotches uint64
	Pending        int
}

// Encoder holds all state shared between the sampling goroutine and the
// event consumer.
type Encoder struct {
	mu sync.Mutex

	quad       quadrature
	button     debouncer
	seeded     bool
	maxPending int32

	// notches is the signed count of confirmed, undelivered detents.
	notches int32
	press   bool

	stats Stats
}

// New creates an Encoder. Zero or negative fields in cfg take the defaults.
func New(cfg Config) *Encoder {
	def := DefaultConfig()
	if cfg.StepsPerNotch <= 0 {
		cfg.StepsPerNotch = def.StepsPerNotch
	}
	if cfg.StableTicks <= 0 {
		cfg.StableTicks = def.StableTicks
	}
	if cfg.StableTicks > 255 {
		cfg.StableTicks = 255
	}
	if cfg.MaxPendingNotches <= 0 {
		cfg.MaxPendingNotches = def.MaxPendingNotches
	}

	return &Encoder{
		quad:       quadrature{stepsPerNotch: int32(cfg.StepsPerNotch)},
		button:     debouncer{stableTicks: uint8(cfg.StableTicks)},
		maxPending: int32(cfg.MaxPendingNotches),
	}
}

// Seed takes the power-on levels as the reference for both decoders and
// clears any pending events.
func (e *Encoder) Seed(s gpio.Sample) {
	e.mu.Lock()
	e.seedLocked(s)
	e.mu.Unlock()
}

func (e *Encoder) seedLocked(s gpio.Sample) {
	e.quad.seed(s.A, s.B)
	e.button.seed(s.Pressed)
	e.notches = 0
	e.press = false
	e.seeded = true
}

// Sample runs one sampling tick. The first sample after New seeds the
// decoders instead of being decoded.
func (e *Encoder) Sample(s gpio.Sample) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.Samples++
	if !e.seeded {
		e.seedLocked(s)
		return
	}

	switch e.quad.step(s.A, s.B) {
	case 1:
		e.addNotch(1)
	case -1:
		e.addNotch(-1)
	}

	if e.button.step(s.Pressed) {
		e.press = true
		e.stats.Presses++
	}
}

// addNotch queues one detent. The count saturates at maxPending so a consumer
// that falls behind loses the excess rather than replaying an unbounded
// backlog later.
func (e *Encoder) addNotch(dir int32) {
	e.stats.Notches++
	next := e.notches + dir
	if next > e.maxPending || next < -e.maxPending {
		e.stats.DroppedNotches++
		return
	}
	e.notches = next
}

// ReadEvent returns at most one pending event without blocking. A press
// always wins over queued rotation; queued detents drain one per call.
func (e *Encoder) ReadEvent() logic.Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.press:
		e.press = false
		return logic.EventPress
	case e.notches > 0:
		e.notches--
		return logic.EventRotateCW
	case e.notches < 0:
		e.notches++
		return logic.EventRotateCCW
	}
	return logic.EventNone
}

// Stats returns a copy of the diagnostic counters.
func (e *Encoder) Stats() Stats {
	e.mu.Lock()
	s := e.stats
	s.Pending = int(e.notches)
	e.mu.Unlock()
	return s
}
