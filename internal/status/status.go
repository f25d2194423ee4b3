// Package status provides a thread-safe status tracker for the once-timer daemon.
// It is read by the HTTP handlers, the WebSocket feed and system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/once-timer/internal/encoder"
	"github.com/sweeney/once-timer/internal/logic"
)

// NetworkInfo contains network state as reported by the host helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	SampleMs    int64
	PollMs      int64
	BlinkMs     int64
	FastGapMs   int64
	SlowGapMs   int64
	HeartbeatMs int64
	Tiers       []int
	Broker      string
	HTTPAddr    string
	Serial      string
}

// Timer is the controller state published to consumers.
type Timer struct {
	State     logic.State
	Target    int
	Elapsed   int
	Backlight bool
	Tier      int
	Counts    logic.Counts
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Timer         Timer
	Encoder       encoder.Stats
	TraceDropped  uint64
	Version       uint64
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Remaining returns the seconds left in the countdown.
func (s Snapshot) Remaining() int {
	if r := s.Timer.Target - s.Timer.Elapsed; r > 0 {
		return r
	}
	return 0
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the controller state. Version advances only when something
// visible changed, so watchers can skip identical pushes.
func (t *Tracker) Update(timer Timer) {
	t.mu.Lock()
	if timer != t.snap.Timer {
		t.snap.Timer = timer
		t.snap.Version++
	}
	t.mu.Unlock()
}

// SetDiagnostics records the decoder counters and dropped trace count.
func (t *Tracker) SetDiagnostics(stats encoder.Stats, traceDropped uint64) {
	t.mu.Lock()
	t.snap.Encoder = stats
	t.snap.TraceDropped = traceDropped
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Version returns the change counter of the controller state.
func (t *Tracker) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap.Version
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
