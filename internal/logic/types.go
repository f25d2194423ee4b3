// Package logic contains the pure control logic of the countdown timer.
// This package has NO external dependencies (no GPIO, display transport, MQTT,
// OS, or time.Sleep). Time is always injectable via time.Time parameters.
package logic

import "time"

// Event is one decoded input event. A read of the encoder yields exactly one.
type Event int

const (
	EventNone Event = iota
	EventRotateCW
	EventRotateCCW
	EventPress
)

func (e Event) String() string {
	switch e {
	case EventNone:
		return "NONE"
	case EventRotateCW:
		return "CW"
	case EventRotateCCW:
		return "CCW"
	case EventPress:
		return "PRESS"
	}
	return "UNKNOWN"
}

// Direction returns the adjustment sign of a rotation event.
// Counter-clockwise raises the target, clockwise lowers it. Non-rotation
// events return 0.
func (e Event) Direction() int {
	switch e {
	case EventRotateCCW:
		return 1
	case EventRotateCW:
		return -1
	}
	return 0
}

// State is the countdown controller state.
type State string

const (
	StateSet     State = "SET"
	StateRunning State = "RUNNING"
	StatePaused  State = "PAUSED"
	StateDone    State = "DONE"
)

// MaxSeconds is the largest target or elapsed value, 59:59 on the display.
const MaxSeconds = 3599

// Display renders timer output. Implementations hold no state beyond what
// they were last told to show.
type Display interface {
	// RenderTime shows minutes:seconds. Out-of-range values are saturated.
	RenderTime(minutes, seconds int)
	// SetBacklight switches the backlight.
	SetBacklight(on bool)
}

// Cause identifies what produced a Transition.
type Cause string

const (
	CausePress    Cause = "PRESS"
	CauseRotate   Cause = "ROTATE"
	CauseComplete Cause = "COMPLETE"
)

// Transition records the effect of one event or background change.
// It exists for diagnostics only.
type Transition struct {
	Timestamp     time.Time
	Cause         Cause
	Event         Event
	From          State
	To            State
	TargetBefore  int
	TargetAfter   int
	ElapsedBefore int
	ElapsedAfter  int
	// Step is the signed adjustment applied to the target (rotation only).
	Step int
	// Ignored is true when the event had no effect (rotation while running).
	Ignored bool
}

// Counts tracks the number of handled events since startup.
type Counts struct {
	Presses   int
	CW        int
	CCW       int
	Ignored   int
	Completed int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	State     State
	Target    int
	Elapsed   int
	Counts    Counts
}

// Config holds the tunable constants of the step and countdown logic.
type Config struct {
	// Tiers are the ascending step magnitudes in seconds.
	Tiers []int
	// FastGap advances the tier when consecutive same-direction rotations
	// arrive closer together than this.
	FastGap time.Duration
	// SlowGap resets the tier when rotations arrive further apart than this.
	SlowGap time.Duration
	// BlinkPeriod is the backlight toggle period once the countdown is done.
	BlinkPeriod time.Duration
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Tiers:       []int{1, 2, 5, 8, 10, 20},
		FastGap:     80 * time.Millisecond,
		SlowGap:     400 * time.Millisecond,
		BlinkPeriod: 300 * time.Millisecond,
	}
}

func clampSeconds(s int) int {
	if s < 0 {
		return 0
	}
	if s > MaxSeconds {
		return MaxSeconds
	}
	return s
}
