package status

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/once-timer/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Timer         TimerJSON    `json:"timer"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Encoder       EncoderJSON  `json:"encoder"`
	TraceDropped  uint64       `json:"trace_dropped"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// TimerJSON is the controller state. Display mirrors what the LCD shows.
type TimerJSON struct {
	State            string `json:"state"`
	TargetSeconds    int    `json:"target_seconds"`
	ElapsedSeconds   int    `json:"elapsed_seconds"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Display          string `json:"display"`
	Backlight        bool   `json:"backlight"`
	Tier             int    `json:"tier"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Presses   int `json:"presses"`
	CW        int `json:"cw"`
	CCW       int `json:"ccw"`
	Ignored   int `json:"ignored"`
	Completed int `json:"completed"`
}

// EncoderJSON is the JSON representation of decoder counters.
type EncoderJSON struct {
	Samples        uint64 `json:"samples"`
	Notches        uint64 `json:"notches"`
	Presses        uint64 `json:"presses"`
	DroppedNotches uint64 `json:"dropped_notches"`
	Pending        int    `json:"pending"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	SampleMs    int64  `json:"sample_ms"`
	PollMs      int64  `json:"poll_ms"`
	BlinkMs     int64  `json:"blink_ms"`
	FastGapMs   int64  `json:"fast_gap_ms"`
	SlowGapMs   int64  `json:"slow_gap_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Tiers       []int  `json:"tiers"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	Serial      string `json:"serial,omitempty"`
}

// Clock formats seconds as MM:SS the way the display shows them.
func Clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	if seconds > logic.MaxSeconds {
		seconds = logic.MaxSeconds
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.Timer.State)
	if state == "" {
		state = "UNKNOWN"
	}

	// The display shows the target while setting and elapsed time otherwise.
	shown := snap.Timer.Elapsed
	if snap.Timer.State == logic.StateSet {
		shown = snap.Timer.Target
	}

	return StatusInner{
		Timer: TimerJSON{
			State:            state,
			TargetSeconds:    snap.Timer.Target,
			ElapsedSeconds:   snap.Timer.Elapsed,
			RemainingSeconds: snap.Remaining(),
			Display:          Clock(shown),
			Backlight:        snap.Timer.Backlight,
			Tier:             snap.Timer.Tier,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Presses:   snap.Timer.Counts.Presses,
			CW:        snap.Timer.Counts.CW,
			CCW:       snap.Timer.Counts.CCW,
			Ignored:   snap.Timer.Counts.Ignored,
			Completed: snap.Timer.Counts.Completed,
		},
		Encoder: EncoderJSON{
			Samples:        snap.Encoder.Samples,
			Notches:        snap.Encoder.Notches,
			Presses:        snap.Encoder.Presses,
			DroppedNotches: snap.Encoder.DroppedNotches,
			Pending:        snap.Encoder.Pending,
		},
		TraceDropped: snap.TraceDropped,
		Config: ConfigJSON{
			SampleMs:    snap.Config.SampleMs,
			PollMs:      snap.Config.PollMs,
			BlinkMs:     snap.Config.BlinkMs,
			FastGapMs:   snap.Config.FastGapMs,
			SlowGapMs:   snap.Config.SlowGapMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Tiers:       snap.Config.Tiers,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Serial:      snap.Config.Serial,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatCompact returns the status as single-line JSON for the live feed.
func FormatCompact(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
