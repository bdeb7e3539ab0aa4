package sensor

import (
	"log"
	"time"
)

// RunningReading is the payload of a running speed and cadence measurement.
// The vendor already converted speed and cadence; TotalDistance is the
// sensor's own cumulative distance, when it reports one.
type RunningReading struct {
	Speed            float64 // m/s
	Cadence          float64 // steps per minute
	TotalDistance    float64 // meters
	HasTotalDistance bool
}

// RunningValue is the output of a running sensor.
type RunningValue struct {
	Speed            float64
	Cadence          float64
	IntervalDistance float64
	TotalDistance    float64
}

// Running passes speed and cadence through and derives distance from the
// sensor's cumulative counter.
type Running struct {
	channel
	previous    Raw[RunningReading]
	hasPrevious bool
	value       RunningValue
}

// NewRunning creates a running speed and cadence channel fed by id.
func NewRunning(id Identity) *Running {
	return &Running{channel: newChannel(id)}
}

// Kind returns KindRunning.
func (r *Running) Kind() Kind { return KindRunning }

// Add folds in a sample. A repeat of the previous reading is ignored.
func (r *Running) Add(s Raw[RunningReading]) {
	if r.hasPrevious && s.Value == r.previous.Value {
		return
	}

	r.value.Speed = s.Value.Speed
	r.value.Cadence = s.Value.Cadence
	if r.hasPrevious && r.previous.Value.HasTotalDistance && s.Value.HasTotalDistance {
		delta := s.Value.TotalDistance - r.previous.Value.TotalDistance
		if delta < 0 {
			log.Printf("sensor: %s: total distance went back from %.1fm to %.1fm, rebasing",
				r.id.NameOrAddress(), r.previous.Value.TotalDistance, s.Value.TotalDistance)
		} else {
			r.value.IntervalDistance += delta
			r.value.TotalDistance += delta
		}
	}
	r.mark(s.Time)
	r.previous, r.hasPrevious = s, true
}

// Value returns the running reading. When stale speed and cadence are 0,
// distances are kept, and ok is false.
func (r *Running) Value(now time.Time) (RunningValue, bool) {
	if !r.fresh(now) {
		return RunningValue{IntervalDistance: r.value.IntervalDistance, TotalDistance: r.value.TotalDistance}, false
	}
	return r.value, true
}

func (r *Running) ResetInterval() {
	r.value.IntervalDistance = 0
}

func (r *Running) ResetTotal() {
	r.value.IntervalDistance = 0
	r.value.TotalDistance = 0
}

func (r *Running) forget() {
	r.hasPrevious = false
}
