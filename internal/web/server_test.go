package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/once-timer/internal/logic"
	"github.com/sweeney/once-timer/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		SampleMs:    1,
		PollMs:      1,
		BlinkMs:     300,
		HeartbeatMs: 900000,
		Tiers:       []int{1, 2, 5, 8, 10, 20},
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	srv.feedInterval = 5 * time.Millisecond
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, srv, tr
}

func getStatus(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func TestJSONEndpoint(t *testing.T) {
	ts, _, tr := newTestServer(t)
	tr.Update(status.Timer{
		State:     logic.StateRunning,
		Target:    90,
		Elapsed:   30,
		Backlight: true,
		Counts:    logic.Counts{Presses: 1, CCW: 4},
	})
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if sj.Status.Timer.State != "RUNNING" {
		t.Errorf("State: got %q, want RUNNING", sj.Status.Timer.State)
	}
	if sj.Status.Timer.Display != "00:30" {
		t.Errorf("Display: got %q, want 00:30", sj.Status.Timer.Display)
	}
	if sj.Status.Timer.RemainingSeconds != 60 {
		t.Errorf("RemainingSeconds: got %d, want 60", sj.Status.Timer.RemainingSeconds)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q, want tcp://192.168.1.200:1883", sj.Status.MQTT.Broker)
	}
	if sj.Status.Counts.CCW != 4 {
		t.Errorf("Counts.CCW: got %d, want 4", sj.Status.Counts.CCW)
	}
	if sj.Status.Config.BlinkMs != 300 {
		t.Errorf("Config.BlinkMs: got %d, want 300", sj.Status.Config.BlinkMs)
	}
}

func TestJSONUnknownStateBeforeStart(t *testing.T) {
	ts, _, _ := newTestServer(t)

	sj := getStatus(t, ts.URL)
	if sj.Status.Timer.State != "UNKNOWN" {
		t.Errorf("State before start: got %q, want UNKNOWN", sj.Status.Timer.State)
	}
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, _, tr := newTestServer(t)
	tr.SetNetwork(&status.NetworkInfo{
		Type:   "wifi",
		IP:     "192.168.1.42",
		Status: "connected",
		SSID:   "MyNet",
	})

	sj := getStatus(t, ts.URL)
	if sj.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if sj.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", sj.Status.Network.IP)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, _, tr := newTestServer(t)
	tr.Update(status.Timer{State: logic.StateSet, Target: 125, Backlight: true})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	page := string(body)
	if !strings.Contains(page, "02:05") {
		t.Error("page should show the target while setting")
	}
	if !strings.Contains(page, "state-SET") {
		t.Error("page should mark the SET state")
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, _, tr := newTestServer(t)

	tr.Update(status.Timer{State: logic.StateSet, Target: 10})
	if sj := getStatus(t, ts.URL); sj.Status.Timer.TargetSeconds != 10 {
		t.Errorf("TargetSeconds: got %d, want 10", sj.Status.Timer.TargetSeconds)
	}

	tr.Update(status.Timer{State: logic.StateDone, Target: 10, Elapsed: 10})
	tr.SetMQTTConnected(true)

	sj := getStatus(t, ts.URL)
	if sj.Status.Timer.State != "DONE" {
		t.Errorf("State: got %q, want DONE", sj.Status.Timer.State)
	}
	if sj.Status.Timer.RemainingSeconds != 0 {
		t.Errorf("RemainingSeconds: got %d, want 0", sj.Status.Timer.RemainingSeconds)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}

func dialFeed(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFeed(t *testing.T, conn *websocket.Conn) status.StatusJSON {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	mt, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read feed: %v", err)
	}
	if mt != websocket.TextMessage {
		t.Fatalf("message type: got %d, want text", mt)
	}
	var sj status.StatusJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		t.Fatalf("decode feed JSON: %v", err)
	}
	return sj
}

func TestFeedSendsSnapshotOnConnect(t *testing.T) {
	ts, _, tr := newTestServer(t)
	tr.Update(status.Timer{State: logic.StateSet, Target: 42})

	conn := dialFeed(t, ts)
	sj := readFeed(t, conn)
	if sj.Status.Timer.TargetSeconds != 42 {
		t.Errorf("TargetSeconds: got %d, want 42", sj.Status.Timer.TargetSeconds)
	}
}

func TestFeedPushesChanges(t *testing.T) {
	ts, _, tr := newTestServer(t)
	tr.Update(status.Timer{State: logic.StateSet, Target: 5})

	conn := dialFeed(t, ts)
	readFeed(t, conn)

	tr.Update(status.Timer{State: logic.StateRunning, Target: 5})
	sj := readFeed(t, conn)
	if sj.Status.Timer.State != "RUNNING" {
		t.Errorf("State: got %q, want RUNNING", sj.Status.Timer.State)
	}

	tr.Update(status.Timer{State: logic.StateRunning, Target: 5, Elapsed: 1})
	sj = readFeed(t, conn)
	if sj.Status.Timer.ElapsedSeconds != 1 {
		t.Errorf("ElapsedSeconds: got %d, want 1", sj.Status.Timer.ElapsedSeconds)
	}
}

func TestFeedClosedOnShutdown(t *testing.T) {
	ts, srv, _ := newTestServer(t)
	conn := dialFeed(t, ts)
	readFeed(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	srv.Shutdown(ctx)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("expected going-away close, got %v", err)
	}
}

func TestServeOnListener(t *testing.T) {
	tr := status.NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), status.Config{})
	tr.Update(status.Timer{State: logic.StateSet, Target: 42})
	srv := New("127.0.0.1:0", tr)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	sj := getStatus(t, "http://"+ln.Addr().String())
	if sj.Status.Timer.TargetSeconds != 42 {
		t.Errorf("TargetSeconds: got %d, want 42", sj.Status.Timer.TargetSeconds)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	select {
	case err := <-served:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Serve: got %v, want ErrServerClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}
