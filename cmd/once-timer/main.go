// Command once-timer runs a one-knob countdown timer on a Raspberry Pi. A
// quadrature encoder sets the time, its push switch starts, pauses and resets
// the countdown, and a four-digit segment LCD shows minutes and seconds.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sweeney/once-timer/internal/config"
	"github.com/sweeney/once-timer/internal/display"
	"github.com/sweeney/once-timer/internal/encoder"
	"github.com/sweeney/once-timer/internal/gpio"
	"github.com/sweeney/once-timer/internal/logic"
	"github.com/sweeney/once-timer/internal/mqtt"
	"github.com/sweeney/once-timer/internal/status"
	"github.com/sweeney/once-timer/internal/trace"
	"github.com/sweeney/once-timer/internal/web"
)

const clientID = "once-timer"

func main() {
	configPath := flag.String("config", "", "YAML config file (built-in defaults when empty)")
	chip := flag.String("chip", gpio.DefaultChip, "GPIO character device")
	pinA := flag.Int("pin-a", gpio.DefaultPinA, "BCM pin number for encoder phase A")
	pinB := flag.Int("pin-b", gpio.DefaultPinB, "BCM pin number for encoder phase B")
	pinButton := flag.Int("pin-button", gpio.DefaultPinButton, "BCM pin number for the encoder switch")
	httpAddr := flag.String("http", "", "HTTP status address (empty to disable)")
	broker := flag.String("broker", "", "MQTT broker address (empty to disable)")
	serialDev := flag.String("trace-serial", "", "Serial device for the transition trace (empty to disable)")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	traceStderr := flag.Bool("trace", true, "Write the transition trace to stderr")
	printState := flag.Bool("print-state", false, "Print current pin levels and exit")

	flag.Parse()

	// Flags override the file only when given explicitly.
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	var o config.Overrides
	if set["chip"] {
		o.Chip = chip
	}
	if set["pin-a"] {
		o.PinA = pinA
	}
	if set["pin-b"] {
		o.PinB = pinB
	}
	if set["pin-button"] {
		o.PinButton = pinButton
	}
	if set["http"] {
		o.HTTP = httpAddr
	}
	if set["broker"] {
		o.Broker = broker
	}
	if set["trace-serial"] {
		o.Serial = serialDev
	}
	if set["heartbeat"] {
		o.Heartbeat = heartbeat
	}
	if set["trace"] {
		o.Trace = traceStderr
	}

	cfg, err := loadConfig(*configPath, o)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func loadConfig(path string, o config.Overrides) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
	}
	o.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(cfg config.Config, printState bool) error {
	hw := cfg.Hardware

	reader, err := gpio.NewRealReader(hw.Chip, hw.PinA, hw.PinB, hw.PinButton)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()

	if printState {
		s, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("A: %s, B: %s, SW: %s\n", level(s.A), level(s.B), pressed(s.Pressed))
		return nil
	}

	lines, err := display.OpenHardware(hw.Chip, hw.PinSDA, hw.PinSCL, hw.PinBacklight, hw.BacklightActiveHigh, cfg.I2CDelay())
	if err != nil {
		return fmt.Errorf("init display: %w", err)
	}
	defer lines.Close()

	var backlight display.Backlight
	if lines.Backlight != nil {
		backlight = lines.Backlight
	}
	lcd := display.NewLCD(lines.Bus, backlight)
	if err := lcd.Init(); err != nil {
		return fmt.Errorf("init lcd: %w", err)
	}

	enc := encoder.New(cfg.EncoderSettings())
	sampler := encoder.NewSampler(reader, enc, cfg.SamplePeriod(), cfg.Encoder.RealtimePriority)

	startTime := time.Now()
	machine := logic.NewMachine(cfg.LogicConfig(), lcd, startTime)

	diag := cfg.Diagnostics

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if diag.Broker != "" {
		p := mqtt.NewRealPublisher(diag.Broker, clientID)
		defer p.Close()
		publisher, mqttStatus = p, p
	}

	var sinks trace.Multi
	if diag.Trace {
		sinks = append(sinks, trace.NewWriter(os.Stderr, "trace: "))
	}
	if diag.Serial != "" {
		port, err := trace.OpenSerial(diag.Serial, diag.SerialBaud)
		if err != nil {
			return fmt.Errorf("init trace serial: %w", err)
		}
		defer port.Close()
		sinks = append(sinks, trace.NewWriter(port, ""))
	}
	if publisher != nil {
		sinks = append(sinks, trace.SinkFunc(func(tr logic.Transition) {
			if err := publisher.Publish(tr); err != nil {
				log.Printf("publish error: %v", err)
			}
		}))
	}
	async := trace.NewAsync(sinks, 64)

	tracker := status.NewTracker(startTime, statusConfig(cfg))
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	l := &loop{
		enc:        enc,
		machine:    machine,
		sink:       async,
		dropped:    async.Dropped,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		heartbeat:  cfg.Heartbeat(),
		now:        time.Now,
	}
	machine.Start()
	l.refresh()
	l.publishSystem("STARTUP", "", true)
	if publisher != nil {
		l.system = make(chan mqtt.SystemEvent, 16)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return sampler.Run(gctx) })
	g.Go(func() error { return async.Run(gctx) })
	if l.system != nil {
		g.Go(func() error { return l.deliverSystem(gctx) })
	}

	if diag.HTTP != "" {
		srv := web.New(diag.HTTP, tracker)
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
		log.Printf("http status server listening on %s", diag.HTTP)
	}

	log.Printf("started: pins=%d/%d/%d sample=%v poll=%v tiers=%v broker=%q heartbeat=%v",
		hw.PinA, hw.PinB, hw.PinButton, cfg.SamplePeriod(), cfg.PollPeriod(),
		cfg.Velocity.Tiers, diag.Broker, cfg.Heartbeat())

	ticker := time.NewTicker(cfg.PollPeriod())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	g.Go(func() error {
		defer cancel()
		return l.run(gctx, ticker.C, sigCh)
	})

	return g.Wait()
}

// eventSource yields at most one decoded input event per call.
type eventSource interface {
	ReadEvent() logic.Event
	Stats() encoder.Stats
}

// loop is the control loop: it owns the machine and is the only writer of
// the display.
type loop struct {
	enc        eventSource
	machine    *logic.Machine
	sink       trace.Sink
	dropped    func() uint64
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	heartbeat  time.Duration
	now        func() time.Time

	// system queues lifecycle events raised inside the loop; nil publishes
	// them inline.
	system chan mqtt.SystemEvent
}

// run iterates on every tick until a signal arrives or ctx is cancelled.
func (l *loop) run(ctx context.Context, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			l.publishSystem("SHUTDOWN", signalName(s), true)
			return nil

		case <-ctx.Done():
			l.publishSystem("SHUTDOWN", "ERROR", true)
			return nil

		case <-tick:
			l.step()
		}
	}
}

// step runs one control iteration: one event, then the background timers.
func (l *loop) step() {
	t := l.now()

	if tr, ok := l.machine.HandleEvent(l.enc.ReadEvent(), t); ok {
		l.sink.Trace(tr)
	}

	if tr, ok := l.machine.Tick(t); ok {
		l.sink.Trace(tr)
		log.Printf("event: countdown complete after %ds", tr.ElapsedAfter)
		l.refresh()
		l.queueSystem("DONE", "", false)
	}

	if hb := l.machine.CheckHeartbeat(t, l.heartbeat); hb != nil {
		log.Printf("heartbeat: uptime=%v state=%s target=%d elapsed=%d presses=%d cw=%d ccw=%d completed=%d",
			hb.Uptime, hb.State, hb.Target, hb.Elapsed,
			hb.Counts.Presses, hb.Counts.CW, hb.Counts.CCW, hb.Counts.Completed)
		if net := readNetworkInfo(); net != nil && l.tracker != nil {
			l.tracker.SetNetwork(net)
		}
		l.refresh()
		l.queueSystem("HEARTBEAT", "", false)
	}

	l.refresh()
}

// refresh copies the machine and decoder state into the tracker.
func (l *loop) refresh() {
	if l.tracker == nil {
		return
	}
	l.tracker.Update(status.Timer{
		State:     l.machine.State(),
		Target:    l.machine.Target(),
		Elapsed:   l.machine.Elapsed(),
		Backlight: l.machine.Backlight(),
		Tier:      l.machine.Tier(),
		Counts:    l.machine.EventCountsSnapshot(),
	})
	var dropped uint64
	if l.dropped != nil {
		dropped = l.dropped()
	}
	l.tracker.SetDiagnostics(l.enc.Stats(), dropped)
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

// systemEvent builds a lifecycle event carrying the full status snapshot.
func (l *loop) systemEvent(event, reason string, retained bool) mqtt.SystemEvent {
	ev := mqtt.SystemEvent{
		Timestamp: l.now(),
		Event:     event,
		Reason:    reason,
		Retained:  retained,
	}
	if l.tracker != nil {
		ev.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), event, reason)
	}
	return ev
}

// publishSystem sends a lifecycle event and waits for the broker.
func (l *loop) publishSystem(event, reason string, retained bool) {
	if l.publisher == nil {
		return
	}
	l.send(l.systemEvent(event, reason, retained))
}

// queueSystem hands a lifecycle event to deliverSystem without blocking the
// loop. The event is dropped if the queue is full.
func (l *loop) queueSystem(event, reason string, retained bool) {
	if l.publisher == nil {
		return
	}
	ev := l.systemEvent(event, reason, retained)
	if l.system == nil {
		l.send(ev)
		return
	}
	select {
	case l.system <- ev:
	default:
		log.Printf("system event queue full, dropping %s", event)
	}
}

// deliverSystem publishes queued lifecycle events until ctx is cancelled.
func (l *loop) deliverSystem(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-l.system:
			l.send(ev)
		}
	}
}

func (l *loop) send(ev mqtt.SystemEvent) {
	if err := l.publisher.PublishSystem(ev); err != nil {
		log.Printf("failed to publish %s event: %v", ev.Event, err)
	} else {
		log.Printf("published %s event", ev.Event)
	}
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		SampleMs:    cfg.SamplePeriod().Milliseconds(),
		PollMs:      cfg.PollPeriod().Milliseconds(),
		BlinkMs:     int64(cfg.Timer.BlinkMS),
		FastGapMs:   int64(cfg.Velocity.FastGapMS),
		SlowGapMs:   int64(cfg.Velocity.SlowGapMS),
		HeartbeatMs: cfg.Heartbeat().Milliseconds(),
		Tiers:       append([]int(nil), cfg.Velocity.Tiers...),
		Broker:      cfg.Diagnostics.Broker,
		HTTPAddr:    cfg.Diagnostics.HTTP,
		Serial:      cfg.Diagnostics.Serial,
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func level(high bool) string {
	if high {
		return "1"
	}
	return "0"
}

func pressed(p bool) string {
	if p {
		return "pressed"
	}
	return "released"
}
