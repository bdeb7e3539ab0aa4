// Package status provides a thread-safe status tracker for the trip-fusion
// daemon. It is read by the HTTP handlers and the websocket feed.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/trip-fusion/internal/gpsstatus"
	"github.com/sweeney/trip-fusion/internal/recorder"
	"github.com/sweeney/trip-fusion/internal/sensor"
	"github.com/sweeney/trip-fusion/internal/stats"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
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
	TickMs          int64
	HeartbeatMs     int64
	StatsIntervalMs int64
	Broker          string
	TopicPrefix     string
	HTTPAddr        string
	WheelPin        int
	CadencePin      int
}

// Engine is the part of the snapshot owned by the recording engine.
type Engine struct {
	TrackID   string
	Recording bool
	Paused    bool
	GPS       gpsstatus.State
	GPSCounts gpsstatus.Counts
	Counters  recorder.Counters
	Stats     stats.TripStatistics
	Sensors   sensor.Fused
	Sources   map[sensor.Kind]string
}

// EngineOf reads the engine state out of rec. It must run on the goroutine
// that owns rec.
func EngineOf(rec *recorder.Recorder, now time.Time) Engine {
	return Engine{
		TrackID:   rec.TrackID(),
		Recording: rec.Recording(),
		Paused:    rec.Paused(),
		GPS:       rec.GPSState(),
		GPSCounts: rec.GPSCounts(),
		Counters:  rec.Counters(),
		Stats:     rec.Statistics(),
		Sensors:   rec.Fused(now),
		Sources:   rec.Sensors().Sources(),
	}
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Engine
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

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu        sync.RWMutex
	snap      Snapshot
	now       func() time.Time
	listeners []func(Snapshot)
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// OnUpdate registers fn to receive a snapshot after every change. fn runs on
// the writer's goroutine and must not block.
func (t *Tracker) OnUpdate(fn func(Snapshot)) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}

// Update replaces the engine state.
// Called from runLoop after every input it handles.
func (t *Tracker) Update(e Engine) {
	sources := make(map[sensor.Kind]string, len(e.Sources))
	for k, v := range e.Sources {
		sources[k] = v
	}
	e.Sources = sources

	t.mu.Lock()
	t.snap.Engine = e
	t.mu.Unlock()
	t.notify()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
	t.notify()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}

func (t *Tracker) notify() {
	t.mu.RLock()
	listeners := t.listeners
	t.mu.RUnlock()
	if len(listeners) == 0 {
		return
	}
	snap := t.Snapshot()
	for _, fn := range listeners {
		fn(snap)
	}
}
