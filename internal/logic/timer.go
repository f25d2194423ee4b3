package logic

import "time"

const tickPeriod = time.Second

// Machine is the countdown controller. It consumes decoded events and wall
// clock time and drives the display. Not safe for concurrent use; it is owned
// by the control loop.
type Machine struct {
	cfg      Config
	display  Display
	velocity *Velocity

	state   State
	target  int
	elapsed int

	// tickAnchor is the start of the current countdown second; zero outside Running.
	tickAnchor time.Time
	// blinkAnchor is the start of the current blink phase; zero outside Done.
	blinkAnchor time.Time
	backlight   bool

	startTime     time.Time
	counts        Counts
	lastHeartbeat time.Time
}

// NewMachine creates a controller in the Set state with a zero target.
// The startTime is used for calculating uptime in heartbeat events.
func NewMachine(cfg Config, display Display, startTime time.Time) *Machine {
	if cfg.BlinkPeriod <= 0 {
		cfg.BlinkPeriod = DefaultConfig().BlinkPeriod
	}
	return &Machine{
		cfg:           cfg,
		display:       display,
		velocity:      NewVelocity(cfg.Tiers, cfg.FastGap, cfg.SlowGap),
		state:         StateSet,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Start renders the initial target and switches the backlight on.
func (m *Machine) Start() {
	m.setBacklight(true)
	m.render()
}

// HandleEvent applies one decoded event. EventNone is a no-op and returns a
// zero Transition with ok=false.
func (m *Machine) HandleEvent(ev Event, now time.Time) (Transition, bool) {
	switch ev {
	case EventPress:
		return m.press(now), true
	case EventRotateCW, EventRotateCCW:
		return m.rotate(ev, now), true
	}
	return Transition{}, false
}

func (m *Machine) press(now time.Time) Transition {
	tr := m.begin(CausePress, EventPress, now)
	m.counts.Presses++

	switch m.state {
	case StateSet:
		m.state = StateRunning
		m.elapsed = 0
		m.tickAnchor = now
		m.setBacklight(true)
	case StateRunning:
		m.state = StatePaused
		m.tickAnchor = time.Time{}
	case StatePaused:
		m.state = StateRunning
		m.tickAnchor = now
	case StateDone:
		m.enterSet()
	}
	m.render()

	return m.finish(tr)
}

func (m *Machine) rotate(ev Event, now time.Time) Transition {
	tr := m.begin(CauseRotate, ev, now)
	if ev == EventRotateCW {
		m.counts.CW++
	} else {
		m.counts.CCW++
	}

	switch m.state {
	case StateRunning:
		m.counts.Ignored++
		tr.Ignored = true
		return m.finish(tr)
	case StateDone, StatePaused:
		m.enterSet()
	}

	tr.Step = m.velocity.Step(ev.Direction(), now)
	m.target = clampSeconds(m.target + tr.Step)
	m.render()

	return m.finish(tr)
}

// enterSet returns to editing. Leaving Done always restores a steady backlight.
func (m *Machine) enterSet() {
	m.state = StateSet
	m.elapsed = 0
	m.tickAnchor = time.Time{}
	m.blinkAnchor = time.Time{}
	m.setBacklight(true)
}

// Tick runs the background timers: the 1 Hz countdown while Running and the
// backlight blink while Done. It credits at most one second per call and
// returns a Transition when the countdown completes.
func (m *Machine) Tick(now time.Time) (Transition, bool) {
	switch m.state {
	case StateRunning:
		if m.target <= 0 || m.tickAnchor.IsZero() {
			return Transition{}, false
		}
		if now.Sub(m.tickAnchor) < tickPeriod {
			return Transition{}, false
		}

		tr := m.begin(CauseComplete, EventNone, now)
		// Advance by the period, not to now, so seconds never drift.
		m.tickAnchor = m.tickAnchor.Add(tickPeriod)
		m.elapsed = clampSeconds(m.elapsed + 1)
		m.render()

		if m.elapsed < m.target {
			return Transition{}, false
		}
		m.state = StateDone
		m.tickAnchor = time.Time{}
		m.blinkAnchor = now
		m.setBacklight(true)
		m.counts.Completed++
		return m.finish(tr), true

	case StateDone:
		if m.blinkAnchor.IsZero() {
			m.blinkAnchor = now
		}
		if now.Sub(m.blinkAnchor) >= m.cfg.BlinkPeriod {
			m.blinkAnchor = m.blinkAnchor.Add(m.cfg.BlinkPeriod)
			m.setBacklight(!m.backlight)
		}
	}
	return Transition{}, false
}

func (m *Machine) begin(cause Cause, ev Event, now time.Time) Transition {
	return Transition{
		Timestamp:     now,
		Cause:         cause,
		Event:         ev,
		From:          m.state,
		TargetBefore:  m.target,
		ElapsedBefore: m.elapsed,
	}
}

func (m *Machine) finish(tr Transition) Transition {
	tr.To = m.state
	tr.TargetAfter = m.target
	tr.ElapsedAfter = m.elapsed
	return tr
}

// render shows the target while editing and the elapsed time otherwise.
func (m *Machine) render() {
	s := m.elapsed
	if m.state == StateSet {
		s = m.target
	}
	m.display.RenderTime(s/60, s%60)
}

func (m *Machine) setBacklight(on bool) {
	m.backlight = on
	m.display.SetBacklight(on)
}

// State returns the current controller state.
func (m *Machine) State() State {
	return m.state
}

// Target returns the countdown target in seconds.
func (m *Machine) Target() int {
	return m.target
}

// Elapsed returns the counted seconds.
func (m *Machine) Elapsed() int {
	return m.elapsed
}

// Backlight returns the last backlight command.
func (m *Machine) Backlight() bool {
	return m.backlight
}

// Tier returns the current velocity tier index.
func (m *Machine) Tier() int {
	return m.velocity.Tier()
}

// EventCountsSnapshot returns a copy of the event counters.
func (m *Machine) EventCountsSnapshot() Counts {
	return m.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (m *Machine) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		State:     m.state,
		Target:    m.target,
		Elapsed:   m.elapsed,
		Counts:    m.counts,
	}
}
