package sensor

import (
	"fmt"
	"log"
	"time"

	"github.com/sweeney/trip-fusion/internal/counter"
)

// maxRevolutionDelta is the largest revolution count accepted between two
// samples when the 32-bit counter appears to have rolled over.
const maxRevolutionDelta uint64 = 1 << 16

// CounterReading is the payload of a speed or cadence measurement: a
// cumulative revolution count and the 1/1024 s event time of the last
// revolution.
type CounterReading struct {
	Revolutions uint32
	EventTicks  uint16
}

// counterDelta differences two counter samples. Implausible pairs are logged
// and reported as not ok.
func counterDelta(name string, prev, cur Raw[CounterReading]) (uint64, time.Duration, bool) {
	revs, err := counter.RevolutionsDiff(cur.Value.Revolutions, prev.Value.Revolutions, maxRevolutionDelta)
	if err != nil {
		log.Printf("sensor: %s: %v, skipping", name, err)
		return 0, 0, false
	}
	elapsed, err := counter.TickElapsed(cur.Value.EventTicks, prev.Value.EventTicks, cur.Time.Sub(prev.Time))
	if err != nil {
		log.Printf("sensor: %s: %v, skipping", name, err)
		return 0, 0, false
	}
	if elapsed == 0 {
		log.Printf("sensor: %s: no elapsed time for %d revolutions, skipping", name, revs)
		return 0, 0, false
	}
	return revs, elapsed, true
}

// CyclingCadence derives crank cadence in rpm from a revolution counter.
type CyclingCadence struct {
	channel
	previous    Raw[CounterReading]
	hasPrevious bool
	rpm         float64
}

// NewCyclingCadence creates a crank cadence channel fed by id.
func NewCyclingCadence(id Identity) *CyclingCadence {
	return &CyclingCadence{channel: newChannel(id)}
}

// Kind returns KindCadence.
func (c *CyclingCadence) Kind() Kind { return KindCadence }

// Add folds in a sample. A repeat of the previous reading is ignored.
func (c *CyclingCadence) Add(s Raw[CounterReading]) {
	if c.hasPrevious && s.Value == c.previous.Value {
		return
	}
	if c.hasPrevious {
		if revs, elapsed, ok := counterDelta(c.id.NameOrAddress(), c.previous, s); ok {
			c.rpm = float64(revs) / elapsed.Minutes()
			c.mark(s.Time)
		}
	}
	c.previous, c.hasPrevious = s, true
}

// Value returns the cadence in rpm, or 0 and false when stale.
func (c *CyclingCadence) Value(now time.Time) (float64, bool) {
	if !c.fresh(now) {
		return 0, false
	}
	return c.rpm, true
}

func (c *CyclingCadence) ResetInterval() {}
func (c *CyclingCadence) ResetTotal()    {}

func (c *CyclingCadence) forget() {
	c.hasPrevious = false
}

// WheelValue is the output of a wheel speed sensor.
type WheelValue struct {
	Speed            float64 // m/s
	IntervalDistance float64 // meters since ResetInterval
	TotalDistance    float64 // meters since ResetTotal
}

// CyclingDistanceSpeed derives speed and distance from wheel revolutions.
type CyclingDistanceSpeed struct {
	channel
	circumference float64 // meters
	previous      Raw[CounterReading]
	hasPrevious   bool
	value         WheelValue
}

// NewCyclingDistanceSpeed creates a wheel channel for a wheel of the given
// circumference in meters.
func NewCyclingDistanceSpeed(id Identity, circumference float64) (*CyclingDistanceSpeed, error) {
	if !(circumference > 0) {
		return nil, fmt.Errorf("%w: wheel circumference must be positive, got %v", ErrInvalidConfig, circumference)
	}
	return &CyclingDistanceSpeed{channel: newChannel(id), circumference: circumference}, nil
}

// Kind returns KindWheel.
func (w *CyclingDistanceSpeed) Kind() Kind { return KindWheel }

// Circumference returns the configured wheel circumference in meters.
func (w *CyclingDistanceSpeed) Circumference() float64 { return w.circumference }

// Add folds in a sample. A repeat of the previous reading is ignored.
func (w *CyclingDistanceSpeed) Add(s Raw[CounterReading]) {
	if w.hasPrevious && s.Value == w.previous.Value {
		return
	}
	if w.hasPrevious {
		if revs, elapsed, ok := counterDelta(w.id.NameOrAddress(), w.previous, s); ok {
			distance := float64(revs) * w.circumference
			w.value.Speed = distance / elapsed.Seconds()
			w.value.IntervalDistance += distance
			w.value.TotalDistance += distance
			w.mark(s.Time)
		}
	}
	w.previous, w.hasPrevious = s, true
}

// Value returns the wheel reading. When stale the speed is 0, distances are
// kept, and ok is false.
func (w *CyclingDistanceSpeed) Value(now time.Time) (WheelValue, bool) {
	if !w.fresh(now) {
		return WheelValue{IntervalDistance: w.value.IntervalDistance, TotalDistance: w.value.TotalDistance}, false
	}
	return w.value, true
}

func (w *CyclingDistanceSpeed) ResetInterval() {
	w.value.IntervalDistance = 0
}

func (w *CyclingDistanceSpeed) ResetTotal() {
	w.value.IntervalDistance = 0
	w.value.TotalDistance = 0
}

func (w *CyclingDistanceSpeed) forget() {
	w.hasPrevious = false
}
