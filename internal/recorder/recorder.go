// Package recorder wires the statistics accumulator, the sensor registry and
// the GPS status machine into a single-writer recording engine.
package recorder

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/trip-fusion/internal/gpsstatus"
	"github.com/sweeney/trip-fusion/internal/location"
	"github.com/sweeney/trip-fusion/internal/sensor"
	"github.com/sweeney/trip-fusion/internal/stats"
)

// Config bundles the engine's tuning.
type Config struct {
	Stats   stats.Config
	Sensors sensor.Config
	GPS     gpsstatus.Config
}

// DefaultConfig returns the default tuning of every part.
func DefaultConfig() Config {
	return Config{
		Stats:   stats.DefaultConfig(),
		Sensors: sensor.DefaultConfig(),
		GPS:     gpsstatus.DefaultConfig(),
	}
}

// Validate reports the first invalid part.
func (c Config) Validate() error {
	if err := c.Stats.Validate(); err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	if err := c.Sensors.Validate(); err != nil {
		return fmt.Errorf("sensors: %w", err)
	}
	if err := c.GPS.Validate(); err != nil {
		return fmt.Errorf("gps: %w", err)
	}
	return nil
}

// Point is a recorded position with the sensor read-out and the running
// statistics at that instant. All fields are values owned by the point.
type Point struct {
	TrackID string
	Time    time.Time
	Fix     location.Fix
	Sensors sensor.Fused
	Stats   stats.TripStatistics
}

// Output is the result of handing a fix to the recorder.
type Output struct {
	Events []gpsstatus.Event
	Point  *Point // nil when the fix was not recorded
}

// Counters track the engine's input since Start.
type Counters struct {
	Fixes    int
	Samples  int
	Points   int
	Rejected int
	Pauses   int
}

// Recorder is the recording engine. It is not safe for concurrent use: one
// goroutine feeds it, and read-outs it returns are copies that may be handed
// to other goroutines.
type Recorder struct {
	cfg      Config
	trackID  string
	acc      *stats.Accumulator
	registry *sensor.Registry
	gps      *gpsstatus.Machine

	started bool
	paused  bool
	counts  Counters
}

// New creates a stopped recorder. provider reports whether fixes can be
// expected at all.
func New(cfg Config, provider gpsstatus.Provider) (*Recorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Recorder{
		cfg:      cfg,
		registry: sensor.NewRegistry(cfg.Sensors),
		gps:      gpsstatus.New(cfg.GPS, provider),
	}, nil
}

// Sensors returns the registry, for registering aggregators.
func (r *Recorder) Sensors() *sensor.Registry {
	return r.registry
}

// Start begins a new track at now.
func (r *Recorder) Start(now time.Time) ([]gpsstatus.Event, error) {
	if r.started {
		return nil, nil
	}
	acc, err := stats.New(r.cfg.Stats, now)
	if err != nil {
		return nil, fmt.Errorf("create accumulator: %w", err)
	}
	r.acc = acc
	r.trackID = uuid.NewString()
	r.started = true
	r.paused = false
	r.counts = Counters{}
	r.registry.ResetTotal()
	log.Printf("recorder: started track %s", r.trackID)
	return r.gps.Start(now), nil
}

// Stop ends the track. The open segment is closed so that its last
// stationary stretch is counted.
func (r *Recorder) Stop(now time.Time) []gpsstatus.Event {
	if !r.started {
		return nil
	}
	if !r.paused {
		r.acc.AddFix(location.Pause(now))
	}
	r.started = false
	log.Printf("recorder: stopped track %s: %v", r.trackID, r.acc.Statistics())
	return r.gps.Stop(now)
}

// OnFix handles a location fix received at now. Pause and resume sentinels
// are forwarded to Pause and Resume.
func (r *Recorder) OnFix(fix location.Fix, now time.Time) Output {
	if !r.started {
		return Output{}
	}
	switch fix.Kind {
	case location.KindPause:
		r.Pause(fix.Time)
		return Output{}
	case location.KindResume:
		r.Resume(fix.Time)
		return Output{}
	}

	r.counts.Fixes++
	out := Output{Events: r.gps.OnFix(fix, now)}
	if r.paused {
		return out
	}
	if !fix.Valid() {
		r.counts.Rejected++
		log.Printf("recorder: rejecting invalid fix %v", fix)
		return out
	}
	if !fix.FulfillsAccuracy(r.cfg.GPS.BadAccuracy) {
		r.counts.Rejected++
		log.Printf("recorder: rejecting inaccurate fix %v (accuracy %.1fm)", fix, fix.Accuracy)
		return out
	}

	r.acc.AddFix(fix)
	p := &Point{
		TrackID: r.trackID,
		Time:    fix.Time,
		Fix:     fix,
		Sensors: r.registry.Fused(now),
		Stats:   r.acc.Statistics(),
	}
	r.registry.ResetInterval()
	r.counts.Points++
	out.Point = p
	return out
}

// OnSample hands a decoded sensor sample to its channel.
func (r *Recorder) OnSample(s sensor.Sample) {
	r.counts.Samples++
	r.registry.Add(s)
}

// Pause closes the current segment.
func (r *Recorder) Pause(now time.Time) {
	if !r.started || r.paused {
		return
	}
	r.acc.AddFix(location.Pause(now))
	r.registry.SegmentBoundary()
	r.paused = true
	r.counts.Pauses++
	log.Printf("recorder: paused at %s", now.UTC().Format(time.RFC3339))
}

// Resume opens a new segment.
func (r *Recorder) Resume(now time.Time) {
	if !r.started || !r.paused {
		return
	}
	r.acc.AddFix(location.Resume(now))
	r.registry.SegmentBoundary()
	r.paused = false
	log.Printf("recorder: resumed at %s", now.UTC().Format(time.RFC3339))
}

// Tick drives the GPS status recheck.
func (r *Recorder) Tick(now time.Time) []gpsstatus.Event {
	return r.gps.Tick(now)
}

// OnProviderEnabled forwards a location provider notification.
func (r *Recorder) OnProviderEnabled(now time.Time) []gpsstatus.Event {
	return r.gps.OnProviderEnabled(now)
}

// OnProviderDisabled forwards a location provider notification.
func (r *Recorder) OnProviderDisabled(now time.Time) []gpsstatus.Event {
	return r.gps.OnProviderDisabled(now)
}

// CheckHeartbeat returns heartbeat data when due.
func (r *Recorder) CheckHeartbeat(now time.Time, interval time.Duration) *gpsstatus.HeartbeatData {
	return r.gps.CheckHeartbeat(now, interval)
}

// Statistics returns a copy of the track statistics so far.
func (r *Recorder) Statistics() stats.TripStatistics {
	if r.acc == nil {
		return stats.TripStatistics{}
	}
	return r.acc.Statistics()
}

// Fused reads the sensors at now without resetting them.
func (r *Recorder) Fused(now time.Time) sensor.Fused {
	return r.registry.Fused(now)
}

// TrackID returns the ID of the current or last track.
func (r *Recorder) TrackID() string {
	return r.trackID
}

// GPSState returns the current GPS signal state.
func (r *Recorder) GPSState() gpsstatus.State {
	return r.gps.State()
}

// GPSCounts returns how often each GPS state was entered.
func (r *Recorder) GPSCounts() gpsstatus.Counts {
	return r.gps.Counts()
}

// Counters returns the input counters since Start.
func (r *Recorder) Counters() Counters {
	return r.counts
}

// Recording reports whether a track is started and not paused.
func (r *Recorder) Recording() bool {
	return r.started && !r.paused
}

// Paused reports whether the track is paused.
func (r *Recorder) Paused() bool {
	return r.started && r.paused
}
