package sensor

import (
	"math"
	"time"

	"github.com/sweeney/trip-fusion/internal/smooth"
)

// Standard atmosphere constants of the international barometric formula.
const (
	seaLevelPressure = 1013.25 // hPa
	barometerBuffer  = 3
)

// PressureAltitude converts a pressure in hPa to altitude in meters.
func PressureAltitude(hPa float64) float64 {
	return 44330 * (1 - math.Pow(hPa/seaLevelPressure, 1/5.255))
}

// AltitudeChange is the output of a barometer: climbed and descended meters,
// both as positive numbers.
type AltitudeChange struct {
	IntervalGain float64
	IntervalLoss float64
	TotalGain    float64
	TotalLoss    float64
}

// Barometer accumulates altitude gain and loss from smoothed pressure
// altitude.
type Barometer struct {
	channel
	altitude *smooth.Buffer
	last     float64 // last smoothed altitude compared against
	hasLast  bool
	value    AltitudeChange
}

// NewBarometer creates a pressure altitude channel fed by id.
func NewBarometer(id Identity) *Barometer {
	return &Barometer{channel: newChannel(id), altitude: smooth.MustNew(barometerBuffer)}
}

// Kind returns KindBarometer.
func (b *Barometer) Kind() Kind { return KindBarometer }

// Add folds in a pressure sample in hPa.
func (b *Barometer) Add(s Raw[float64]) {
	b.altitude.Push(PressureAltitude(s.Value))
	if !b.altitude.IsFull() {
		return
	}

	smoothed := b.altitude.Average()
	if b.hasLast {
		switch d := smoothed - b.last; {
		case d > 0:
			b.value.IntervalGain += d
			b.value.TotalGain += d
		case d < 0:
			b.value.IntervalLoss -= d
			b.value.TotalLoss -= d
		}
	}
	b.last, b.hasLast = smoothed, true
	b.mark(s.Time)
}

// Value returns the accumulated change. Gain and loss are kept when stale;
// ok is false then.
func (b *Barometer) Value(now time.Time) (AltitudeChange, bool) {
	return b.value, b.fresh(now)
}

func (b *Barometer) ResetInterval() {
	b.value.IntervalGain = 0
	b.value.IntervalLoss = 0
}

func (b *Barometer) ResetTotal() {
	b.value = AltitudeChange{}
}

func (b *Barometer) forget() {
	b.altitude.Reset()
	b.hasLast = false
}
