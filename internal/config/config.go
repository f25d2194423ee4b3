// Package config loads the once-timer configuration.
//
// The timer's tuning constants, pin assignment and diagnostics sinks can be
// set in a YAML file; flags in main override individual fields. Defaults and
// validation live here so the rest of the code can assume a well-formed
// config.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/once-timer/internal/encoder"
	"github.com/sweeney/once-timer/internal/gpio"
	"github.com/sweeney/once-timer/internal/logic"
)

// Config is the top-level YAML configuration.
type Config struct {
	Encoder     EncoderConfig     `yaml:"encoder"`
	Velocity    VelocityConfig    `yaml:"velocity"`
	Timer       TimerConfig       `yaml:"timer"`
	Hardware    HardwareConfig    `yaml:"hardware"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

type EncoderConfig struct {
	StepsPerNotch     int `yaml:"steps_per_notch"`
	StableTicks       int `yaml:"stable_ticks"`
	SamplePeriodMS    int `yaml:"sample_period_ms"`
	MaxPendingNotches int `yaml:"max_pending_notches"`
	RealtimePriority  int `yaml:"realtime_priority"` // SCHED_FIFO priority of the sampler thread, 0 disables
}

type VelocityConfig struct {
	Tiers     []int `yaml:"tiers"`
	FastGapMS int   `yaml:"fast_gap_ms"`
	SlowGapMS int   `yaml:"slow_gap_ms"`
}

type TimerConfig struct {
	BlinkMS      int `yaml:"blink_ms"`
	PollPeriodMS int `yaml:"poll_period_ms"`
}

type HardwareConfig struct {
	Chip                string `yaml:"chip"`
	PinA                int    `yaml:"pin_a"`
	PinB                int    `yaml:"pin_b"`
	PinButton           int    `yaml:"pin_button"`
	PinSDA              int    `yaml:"pin_sda"`
	PinSCL              int    `yaml:"pin_scl"`
	PinBacklight        int    `yaml:"pin_backlight"` // -1 when not wired
	BacklightActiveHigh bool   `yaml:"backlight_active_high"`
	I2CDelayUS          int    `yaml:"i2c_delay_us"`
}

type DiagnosticsConfig struct {
	HTTP        string `yaml:"http"`   // status server address, empty disables
	Broker      string `yaml:"broker"` // MQTT broker, empty disables
	Serial      string `yaml:"serial"` // trace UART device, empty disables
	SerialBaud  int    `yaml:"serial_baud"`
	HeartbeatMS int    `yaml:"heartbeat_ms"` // 0 disables
	Trace       bool   `yaml:"trace"`        // trace lines on stderr
}

// Default returns a fully-populated Config with the stock tuning.
func Default() Config {
	lc := logic.DefaultConfig()
	ec := encoder.DefaultConfig()
	return Config{
		Encoder: EncoderConfig{
			StepsPerNotch:     ec.StepsPerNotch,
			StableTicks:       ec.StableTicks,
			SamplePeriodMS:    int(encoder.DefaultSamplePeriod / time.Millisecond),
			MaxPendingNotches: ec.MaxPendingNotches,
			RealtimePriority:  0,
		},
		Velocity: VelocityConfig{
			Tiers:     lc.Tiers,
			FastGapMS: int(lc.FastGap / time.Millisecond),
			SlowGapMS: int(lc.SlowGap / time.Millisecond),
		},
		Timer: TimerConfig{
			BlinkMS:      int(lc.BlinkPeriod / time.Millisecond),
			PollPeriodMS: 1,
		},
		Hardware: HardwareConfig{
			Chip:                gpio.DefaultChip,
			PinA:                gpio.DefaultPinA,
			PinB:                gpio.DefaultPinB,
			PinButton:           gpio.DefaultPinButton,
			PinSDA:              2,
			PinSCL:              3,
			PinBacklight:        4,
			BacklightActiveHigh: true,
			I2CDelayUS:          4,
		},
		Diagnostics: DiagnosticsConfig{
			SerialBaud:  115200,
			HeartbeatMS: int((15 * time.Minute) / time.Millisecond),
			Trace:       true,
		},
	}
}

// Load reads a YAML file on top of the defaults. Unknown fields are rejected
// to catch typos.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes on top of the defaults.
func Parse(b []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// Empty or comment-only file.
		if errors.Is(err, io.EOF) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return Config{}, errors.New("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// Overrides carries flag values; each non-nil pointer replaces the field.
type Overrides struct {
	Chip      *string
	PinA      *int
	PinB      *int
	PinButton *int
	HTTP      *string
	Broker    *string
	Serial    *string
	Heartbeat *time.Duration
	Trace     *bool
}

// Apply merges the overrides into cfg.
func (o Overrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.Chip != nil {
		cfg.Hardware.Chip = *o.Chip
	}
	if o.PinA != nil {
		cfg.Hardware.PinA = *o.PinA
	}
	if o.PinB != nil {
		cfg.Hardware.PinB = *o.PinB
	}
	if o.PinButton != nil {
		cfg.Hardware.PinButton = *o.PinButton
	}
	if o.HTTP != nil {
		cfg.Diagnostics.HTTP = *o.HTTP
	}
	if o.Broker != nil {
		cfg.Diagnostics.Broker = *o.Broker
	}
	if o.Serial != nil {
		cfg.Diagnostics.Serial = *o.Serial
	}
	if o.Heartbeat != nil {
		cfg.Diagnostics.HeartbeatMS = int(*o.Heartbeat / time.Millisecond)
	}
	if o.Trace != nil {
		cfg.Diagnostics.Trace = *o.Trace
	}
}

// Validate checks config invariants and returns a user-friendly error.
func (c *Config) Validate() error {
	if c.Encoder.StepsPerNotch < 1 {
		return errors.New("encoder.steps_per_notch must be >= 1")
	}
	if c.Encoder.StableTicks < 1 || c.Encoder.StableTicks > 255 {
		return errors.New("encoder.stable_ticks must be in 1..255")
	}
	if c.Encoder.SamplePeriodMS < 1 {
		return errors.New("encoder.sample_period_ms must be >= 1")
	}
	if c.Encoder.MaxPendingNotches < 1 {
		return errors.New("encoder.max_pending_notches must be >= 1")
	}
	if c.Encoder.RealtimePriority < 0 || c.Encoder.RealtimePriority > 99 {
		return errors.New("encoder.realtime_priority must be in 0..99")
	}

	if len(c.Velocity.Tiers) == 0 {
		return errors.New("velocity.tiers must not be empty")
	}
	for i, s := range c.Velocity.Tiers {
		if s < 1 {
			return fmt.Errorf("velocity.tiers[%d] must be >= 1", i)
		}
		if i > 0 && s <= c.Velocity.Tiers[i-1] {
			return fmt.Errorf("velocity.tiers must be strictly ascending (tiers[%d]=%d)", i, s)
		}
	}
	if c.Velocity.FastGapMS < 1 {
		return errors.New("velocity.fast_gap_ms must be >= 1")
	}
	if c.Velocity.SlowGapMS <= c.Velocity.FastGapMS {
		return errors.New("velocity.slow_gap_ms must be greater than fast_gap_ms")
	}

	if c.Timer.BlinkMS < 1 {
		return errors.New("timer.blink_ms must be >= 1")
	}
	if c.Timer.PollPeriodMS < 1 {
		return errors.New("timer.poll_period_ms must be >= 1")
	}

	if c.Hardware.Chip == "" {
		return errors.New("hardware.chip must not be empty")
	}
	pins := map[string]int{
		"pin_a":      c.Hardware.PinA,
		"pin_b":      c.Hardware.PinB,
		"pin_button": c.Hardware.PinButton,
		"pin_sda":    c.Hardware.PinSDA,
		"pin_scl":    c.Hardware.PinSCL,
	}
	if c.Hardware.PinBacklight >= 0 {
		pins["pin_backlight"] = c.Hardware.PinBacklight
	}
	seen := make(map[int]string)
	for _, name := range []string{"pin_a", "pin_b", "pin_button", "pin_sda", "pin_scl", "pin_backlight"} {
		pin, ok := pins[name]
		if !ok {
			continue
		}
		if pin < 0 {
			return fmt.Errorf("hardware.%s must be >= 0", name)
		}
		if other, dup := seen[pin]; dup {
			return fmt.Errorf("hardware.%s and hardware.%s both use pin %d", other, name, pin)
		}
		seen[pin] = name
	}
	if c.Hardware.I2CDelayUS < 0 {
		return errors.New("hardware.i2c_delay_us must be >= 0")
	}

	if c.Diagnostics.HeartbeatMS < 0 {
		return errors.New("diagnostics.heartbeat_ms must be >= 0")
	}
	if c.Diagnostics.Serial != "" && c.Diagnostics.SerialBaud < 1 {
		return errors.New("diagnostics.serial_baud must be >= 1")
	}
	return nil
}

// EncoderSettings converts to the decoder's settings.
func (c *Config) EncoderSettings() encoder.Config {
	return encoder.Config{
		StepsPerNotch:     c.Encoder.StepsPerNotch,
		StableTicks:       c.Encoder.StableTicks,
		MaxPendingNotches: c.Encoder.MaxPendingNotches,
	}
}

// LogicConfig converts to the controller's settings.
func (c *Config) LogicConfig() logic.Config {
	return logic.Config{
		Tiers:       append([]int(nil), c.Velocity.Tiers...),
		FastGap:     ms(c.Velocity.FastGapMS),
		SlowGap:     ms(c.Velocity.SlowGapMS),
		BlinkPeriod: ms(c.Timer.BlinkMS),
	}
}

// SamplePeriod returns the sampling cadence.
func (c *Config) SamplePeriod() time.Duration { return ms(c.Encoder.SamplePeriodMS) }

// PollPeriod returns the control loop cadence.
func (c *Config) PollPeriod() time.Duration { return ms(c.Timer.PollPeriodMS) }

// Heartbeat returns the heartbeat interval; zero disables it.
func (c *Config) Heartbeat() time.Duration { return ms(c.Diagnostics.HeartbeatMS) }

// I2CDelay returns the bit-bang half period.
func (c *Config) I2CDelay() time.Duration {
	return time.Duration(c.Hardware.I2CDelayUS) * time.Microsecond
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
