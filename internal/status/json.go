package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/trip-fusion/internal/sensor"
	"github.com/sweeney/trip-fusion/internal/stats"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string            `json:"event,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	TrackID       string            `json:"track_id,omitempty"`
	GPS           string            `json:"gps"`
	Recording     bool              `json:"recording"`
	Paused        bool              `json:"paused"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	StartTime     string            `json:"start_time"`
	Timestamp     string            `json:"timestamp"`
	MQTT          MQTTStatus        `json:"mqtt"`
	Counters      CountersJSON      `json:"counters"`
	GPSCounts     GPSCountsJSON     `json:"gps_counts"`
	Trip          *stats.Summary    `json:"trip,omitempty"`
	Sensors       *sensor.Fused     `json:"sensors,omitempty"`
	Sources       map[string]string `json:"sources,omitempty"`
	Network       *NetworkJSON      `json:"network,omitempty"`
	Config        ConfigJSON        `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountersJSON is the JSON representation of the engine input counters.
type CountersJSON struct {
	Fixes    int `json:"fixes"`
	Samples  int `json:"samples"`
	Points   int `json:"points"`
	Rejected int `json:"rejected"`
	Pauses   int `json:"pauses"`
}

// GPSCountsJSON is how often each GPS state was entered.
type GPSCountsJSON struct {
	Disabled int `json:"disabled"`
	Enabled  int `json:"enabled"`
	Fix      int `json:"signal_fix"`
	Bad      int `json:"signal_bad"`
	Lost     int `json:"signal_lost"`
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
	TickMs          int64  `json:"tick_ms"`
	HeartbeatMs     int64  `json:"heartbeat_ms"`
	StatsIntervalMs int64  `json:"stats_interval_ms"`
	Broker          string `json:"broker"`
	TopicPrefix     string `json:"topic_prefix"`
	HTTPAddr        string `json:"http_addr"`
	WheelPin        int    `json:"wheel_pin"`
	CadencePin      int    `json:"cadence_pin"`
}

// GPSOrUnknown returns the GPS state name, or UNKNOWN before the engine has
// reported one.
func (s Snapshot) GPSOrUnknown() string {
	if s.GPS == "" {
		return "UNKNOWN"
	}
	return string(s.GPS)
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		TrackID:       snap.TrackID,
		GPS:           snap.GPSOrUnknown(),
		Recording:     snap.Recording,
		Paused:        snap.Paused,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counters: CountersJSON{
			Fixes:    snap.Counters.Fixes,
			Samples:  snap.Counters.Samples,
			Points:   snap.Counters.Points,
			Rejected: snap.Counters.Rejected,
			Pauses:   snap.Counters.Pauses,
		},
		GPSCounts: GPSCountsJSON{
			Disabled: snap.GPSCounts.Disabled,
			Enabled:  snap.GPSCounts.Enabled,
			Fix:      snap.GPSCounts.Fix,
			Bad:      snap.GPSCounts.Bad,
			Lost:     snap.GPSCounts.Lost,
		},
		Config: ConfigJSON{
			TickMs:          snap.Config.TickMs,
			HeartbeatMs:     snap.Config.HeartbeatMs,
			StatsIntervalMs: snap.Config.StatsIntervalMs,
			Broker:          snap.Config.Broker,
			TopicPrefix:     snap.Config.TopicPrefix,
			HTTPAddr:        snap.Config.HTTPAddr,
			WheelPin:        snap.Config.WheelPin,
			CadencePin:      snap.Config.CadencePin,
		},
	}
	if !snap.Stats.IsEmpty() {
		summary := snap.Stats.Summary()
		inner.Trip = &summary
	}
	if !snap.Sensors.IsEmpty() {
		fused := snap.Sensors
		inner.Sensors = &fused
	}
	if len(snap.Sources) > 0 {
		inner.Sources = make(map[string]string, len(snap.Sources))
		for k, v := range snap.Sources {
			inner.Sources[string(k)] = v
		}
	}
	return inner
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

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
