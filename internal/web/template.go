package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/once-timer/internal/logic"
	"github.com/sweeney/once-timer/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"stateOrUnknown": func(s logic.State) string {
		if s == "" {
			return "UNKNOWN"
		}
		return string(s)
	},
	"clock": status.Clock,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Once Timer</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.lcd { font-size: 3em; letter-spacing: 0.1em; padding: 0.2em 0.4em; background: #cfd8c0; display: inline-block; }
.lcd.dark { background: #6b7163; }
.state-SET { color: #06c; }
.state-RUNNING { color: green; font-weight: bold; }
.state-PAUSED { color: orange; }
.state-DONE { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; background: orange; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
</style>
</head>
<body>
<h1>Once Timer<span id="live-dot" class="live-dot" title="connecting"></span></h1>

<div id="lcd" class="lcd{{if not .Timer.Backlight}} dark{{end}}">{{.Shown}}</div>

<h2>Timer</h2>
<table>
<tr><th>State</th><td id="state" class="state-{{stateOrUnknown .Timer.State}}">{{stateOrUnknown .Timer.State}}</td></tr>
<tr><th>Target</th><td id="target">{{clock .Timer.Target}}</td></tr>
<tr><th>Elapsed</th><td id="elapsed">{{clock .Timer.Elapsed}}</td></tr>
<tr><th>Remaining</th><td id="remaining">{{clock .Remaining}}</td></tr>
<tr><th>Step tier</th><td id="tier">{{.Timer.Tier}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Presses</th><td>{{.Timer.Counts.Presses}}</td></tr>
<tr><th>Clockwise</th><td>{{.Timer.Counts.CW}}</td></tr>
<tr><th>Counter-clockwise</th><td>{{.Timer.Counts.CCW}}</td></tr>
<tr><th>Ignored</th><td>{{.Timer.Counts.Ignored}}</td></tr>
<tr><th>Completed</th><td>{{.Timer.Counts.Completed}}</td></tr>
</table>

<h2>Encoder</h2>
<table>
<tr><th>Samples</th><td>{{.Encoder.Samples}}</td></tr>
<tr><th>Notches</th><td>{{.Encoder.Notches}}</td></tr>
<tr><th>Dropped notches</th><td>{{.Encoder.DroppedNotches}}</td></tr>
<tr><th>Dropped traces</th><td>{{.TraceDropped}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Sample</th><td>{{.Config.SampleMs}}ms</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Step tiers</th><td>{{.Config.Tiers}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }
  function text(id, v) { document.getElementById(id).textContent = v; }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() { setDot("err", "offline"); setTimeout(connect, 5000); };
    ws.onmessage = function(ev) {
      try {
        var t = JSON.parse(ev.data).status.timer;
        text("lcd", t.display);
        document.getElementById("lcd").className = t.backlight ? "lcd" : "lcd dark";
        text("state", t.state);
        document.getElementById("state").className = "state-" + t.state;
        text("tier", t.tier);
        var clock = function(s) {
          var m = Math.floor(s / 60), r = s % 60;
          return (m < 10 ? "0" : "") + m + ":" + (r < 10 ? "0" : "") + r;
        };
        text("target", clock(t.target_seconds));
        text("elapsed", clock(t.elapsed_seconds));
        text("remaining", clock(t.remaining_seconds));
      } catch (e) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot methods are exposed as fields for the template.
	shown := snap.Timer.Elapsed
	if snap.Timer.State == logic.StateSet {
		shown = snap.Timer.Target
	}
	data := struct {
		status.Snapshot
		Uptime    time.Duration
		Remaining int
		Shown     string
	}{
		Snapshot:  snap,
		Uptime:    snap.Uptime(),
		Remaining: snap.Remaining(),
		Shown:     status.Clock(shown),
	}
	indexTmpl.Execute(w, data)
}
