package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/trip-fusion/internal/stats"
	"github.com/sweeney/trip-fusion/internal/status"
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
	"km": func(m float64) string {
		return fmt.Sprintf("%.2f km", m/1000)
	},
	"kmh": func(mps float64) string {
		return fmt.Sprintf("%.1f km/h", mps*3.6)
	},
	"gpsClass": func(s string) string {
		switch s {
		case "SIGNAL_FIX":
			return "ok"
		case "SIGNAL_BAD", "ENABLED":
			return "warn"
		case "SIGNAL_LOST":
			return "err"
		default:
			return "off"
		}
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Trip Fusion</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.ok { color: green; font-weight: bold; }
.warn { color: orange; }
.err { color: red; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Trip Fusion<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>Track</h2>
<table>
<tr><th>GPS</th><td id="gps" class="{{gpsClass .GPSOrUnknown}}">{{.GPSOrUnknown}}</td></tr>
<tr><th>Track</th><td id="track">{{if .TrackID}}{{.TrackID}}{{else}}none{{end}}</td></tr>
<tr><th>Recording</th><td id="recording">{{if .Paused}}paused{{else if .Recording}}yes{{else}}no{{end}}</td></tr>
{{with .Summary}}<tr><th>Distance</th><td id="distance">{{km .DistanceM}}</td></tr>
<tr><th>Moving time</th><td>{{.MovingTimeMs}}ms</td></tr>
<tr><th>Average moving speed</th><td>{{kmh .AverageMovingSpeed}}</td></tr>
<tr><th>Max speed</th><td>{{kmh .MaxSpeed}}</td></tr>
<tr><th>Elevation gain</th><td>{{printf "%.0f" .ElevationGainM}} m</td></tr>{{end}}
</table>

<h2>Sensors</h2>
<table>
{{with .Sensors.HeartRate}}<tr><th>Heart rate</th><td>{{printf "%.0f" .Value}} bpm ({{.Source}})</td></tr>{{end}}
{{with .Sensors.Cadence}}<tr><th>Cadence</th><td>{{printf "%.0f" .Value}} rpm ({{.Source}})</td></tr>{{end}}
{{with .Sensors.Speed}}<tr><th>Sensor speed</th><td>{{kmh .Value}} ({{.Source}})</td></tr>{{end}}
{{with .Sensors.Power}}<tr><th>Power</th><td>{{printf "%.0f" .Value}} W ({{.Source}})</td></tr>{{end}}
{{with .Sensors.TotalDistance}}<tr><th>Sensor distance</th><td>{{km .Value}} ({{.Source}})</td></tr>{{end}}
{{if .Sensors.IsEmpty}}<tr><th>Readings</th><td class="off">none</td></tr>{{end}}
</table>

<h2>Input</h2>
<table>
<tr><th>Fixes</th><td>{{.Counters.Fixes}}</td></tr>
<tr><th>Points</th><td>{{.Counters.Points}}</td></tr>
<tr><th>Rejected</th><td>{{.Counters.Rejected}}</td></tr>
<tr><th>Samples</th><td>{{.Counters.Samples}}</td></tr>
<tr><th>Signal lost</th><td>{{.GPSCounts.Lost}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Topics</th><td>{{.Config.TopicPrefix}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Wheel pin</th><td>{{if lt .Config.WheelPin 0}}disabled{{else}}{{.Config.WheelPin}}{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var gps = document.getElementById("gps");
  var rec = document.getElementById("recording");
  var dist = document.getElementById("distance");
  var classes = { SIGNAL_FIX: "ok", SIGNAL_BAD: "warn", ENABLED: "warn", SIGNAL_LOST: "err" };

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "offline");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var s = JSON.parse(ev.data).status;
        gps.textContent = s.gps;
        gps.className = classes[s.gps] || "off";
        rec.textContent = s.paused ? "paused" : s.recording ? "yes" : "no";
        if (dist && s.trip) {
          dist.textContent = (s.trip.distance_m / 1000).toFixed(2) + " km";
        }
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
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime  time.Duration
		Summary *stats.Summary
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	if !snap.Stats.IsEmpty() {
		summary := snap.Stats.Summary()
		data.Summary = &summary
	}
	indexTmpl.Execute(w, data)
}
