package sensor

import (
	"log"
	"time"
)

// Sample is a decoded sensor sample tagged by channel. It is implemented by
// the *Sample types of this package only.
type Sample interface {
	Timestamp() time.Time
	Kind() Kind
	isSample()
}

// HeartRateSample carries beats per minute.
type HeartRateSample struct {
	Time time.Time
	BPM  float64
}

// CadenceSample carries a crank revolution counter.
type CadenceSample struct {
	Time time.Time
	CounterReading
}

// WheelSample carries a wheel revolution counter.
type WheelSample struct {
	Time time.Time
	CounterReading
}

// PowerSample carries instantaneous power in watts.
type PowerSample struct {
	Time  time.Time
	Watts float64
}

// RunningSample carries a running speed and cadence measurement.
type RunningSample struct {
	Time time.Time
	RunningReading
}

// PressureSample carries barometric pressure in hPa.
type PressureSample struct {
	Time time.Time
	HPa  float64
}

func (s HeartRateSample) Timestamp() time.Time { return s.Time }
func (s CadenceSample) Timestamp() time.Time   { return s.Time }
func (s WheelSample) Timestamp() time.Time     { return s.Time }
func (s PowerSample) Timestamp() time.Time     { return s.Time }
func (s RunningSample) Timestamp() time.Time   { return s.Time }
func (s PressureSample) Timestamp() time.Time  { return s.Time }

func (HeartRateSample) Kind() Kind { return KindHeartRate }
func (CadenceSample) Kind() Kind   { return KindCadence }
func (WheelSample) Kind() Kind     { return KindWheel }
func (PowerSample) Kind() Kind     { return KindPower }
func (RunningSample) Kind() Kind   { return KindRunning }
func (PressureSample) Kind() Kind  { return KindBarometer }

func (HeartRateSample) isSample() {}
func (CadenceSample) isSample()   {}
func (WheelSample) isSample()     {}
func (PowerSample) isSample()     {}
func (RunningSample) isSample()   {}
func (PressureSample) isSample()  {}

// Reading is one fused value and the device it came from.
type Reading struct {
	Value  float64 `json:"value"`
	Source string  `json:"source"`
}

// Fused is the sensor read-out attached to a recorded point. Channels
// without a registered or ever-valued aggregator are nil; stale channels
// carry their none value.
type Fused struct {
	HeartRate        *Reading `json:"heart_rate,omitempty"`        // bpm
	Cadence          *Reading `json:"cadence,omitempty"`           // rpm or spm
	Speed            *Reading `json:"speed,omitempty"`             // m/s
	IntervalDistance *Reading `json:"interval_distance,omitempty"` // meters
	TotalDistance    *Reading `json:"total_distance,omitempty"`    // meters
	Power            *Reading `json:"power,omitempty"`             // W
	AltitudeGain     *Reading `json:"altitude_gain,omitempty"`     // meters, interval
	AltitudeLoss     *Reading `json:"altitude_loss,omitempty"`     // meters, interval
}

// IsEmpty reports whether no channel contributed.
func (f Fused) IsEmpty() bool {
	return f == Fused{}
}

// Registry owns at most one aggregator per channel and routes samples to
// them. Like the aggregators it is not safe for concurrent use; Fused
// returns freshly allocated readings.
type Registry struct {
	maxAge time.Duration

	heartRate *HeartRate
	cadence   *CyclingCadence
	wheel     *CyclingDistanceSpeed
	power     *CyclingPower
	running   *Running
	barometer *Barometer
}

// NewRegistry creates an empty registry. A non-positive MaxAge falls back to
// DefaultMaxAge.
func NewRegistry(cfg Config) *Registry {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	return &Registry{maxAge: cfg.MaxAge}
}

// Register occupies the slot of a's channel, replacing any previous
// aggregator for it.
func (r *Registry) Register(a Aggregator) {
	a.base().maxAge = r.maxAge
	switch v := a.(type) {
	case *HeartRate:
		r.heartRate = v
	case *CyclingCadence:
		r.cadence = v
	case *CyclingDistanceSpeed:
		r.wheel = v
	case *CyclingPower:
		r.power = v
	case *Running:
		r.running = v
	case *Barometer:
		r.barometer = v
	}
	log.Printf("sensor: registered %s %s", a.Kind(), a.Identity().NameOrAddress())
}

// Unregister frees the slot of kind.
func (r *Registry) Unregister(kind Kind) {
	switch kind {
	case KindHeartRate:
		r.heartRate = nil
	case KindCadence:
		r.cadence = nil
	case KindWheel:
		r.wheel = nil
	case KindPower:
		r.power = nil
	case KindRunning:
		r.running = nil
	case KindBarometer:
		r.barometer = nil
	}
}

// Lookup returns the aggregator registered for kind.
func (r *Registry) Lookup(kind Kind) (Aggregator, bool) {
	for _, a := range r.registered() {
		if a.Kind() == kind {
			return a, true
		}
	}
	return nil, false
}

// Sources returns the device name of every registered channel.
func (r *Registry) Sources() map[Kind]string {
	out := make(map[Kind]string)
	for _, a := range r.registered() {
		out[a.Kind()] = a.Identity().NameOrAddress()
	}
	return out
}

// Add routes a sample to its channel. Samples for a channel without an
// aggregator are dropped.
func (r *Registry) Add(s Sample) {
	switch v := s.(type) {
	case HeartRateSample:
		if r.heartRate != nil {
			r.heartRate.Add(Raw[float64]{Time: v.Time, Value: v.BPM})
		}
	case CadenceSample:
		if r.cadence != nil {
			r.cadence.Add(Raw[CounterReading]{Time: v.Time, Value: v.CounterReading})
		}
	case WheelSample:
		if r.wheel != nil {
			r.wheel.Add(Raw[CounterReading]{Time: v.Time, Value: v.CounterReading})
		}
	case PowerSample:
		if r.power != nil {
			r.power.Add(Raw[float64]{Time: v.Time, Value: v.Watts})
		}
	case RunningSample:
		if r.running != nil {
			r.running.Add(Raw[RunningReading]{Time: v.Time, Value: v.RunningReading})
		}
	case PressureSample:
		if r.barometer != nil {
			r.barometer.Add(Raw[float64]{Time: v.Time, Value: v.HPa})
		}
	}
}

// Fused reads every channel at now. Cycling sensors are preferred over the
// running sensor for cadence, speed and distance; a fresh reading is
// preferred over a stale one.
func (r *Registry) Fused(now time.Time) Fused {
	var f Fused

	if r.heartRate != nil && r.heartRate.HasValue() {
		v, _ := r.heartRate.Value(now)
		f.HeartRate = reading(v, r.heartRate)
	}
	if r.power != nil && r.power.HasValue() {
		v, _ := r.power.Value(now)
		f.Power = reading(v, r.power)
	}

	var cadence, speed, interval, total []candidate
	if r.cadence != nil && r.cadence.HasValue() {
		v, ok := r.cadence.Value(now)
		cadence = append(cadence, candidate{v, ok, r.cadence})
	}
	if r.wheel != nil && r.wheel.HasValue() {
		v, ok := r.wheel.Value(now)
		speed = append(speed, candidate{v.Speed, ok, r.wheel})
		interval = append(interval, candidate{v.IntervalDistance, ok, r.wheel})
		total = append(total, candidate{v.TotalDistance, ok, r.wheel})
	}
	if r.running != nil && r.running.HasValue() {
		v, ok := r.running.Value(now)
		cadence = append(cadence, candidate{v.Cadence, ok, r.running})
		speed = append(speed, candidate{v.Speed, ok, r.running})
		interval = append(interval, candidate{v.IntervalDistance, ok, r.running})
		total = append(total, candidate{v.TotalDistance, ok, r.running})
	}
	f.Cadence = prefer(cadence)
	f.Speed = prefer(speed)
	f.IntervalDistance = prefer(interval)
	f.TotalDistance = prefer(total)

	if r.barometer != nil && r.barometer.HasValue() {
		v, _ := r.barometer.Value(now)
		f.AltitudeGain = reading(v.IntervalGain, r.barometer)
		f.AltitudeLoss = reading(v.IntervalLoss, r.barometer)
	}
	return f
}

// ResetInterval clears the per-interval state of every channel.
func (r *Registry) ResetInterval() {
	for _, a := range r.registered() {
		a.ResetInterval()
	}
}

// ResetTotal clears all accumulated state of every channel.
func (r *Registry) ResetTotal() {
	for _, a := range r.registered() {
		a.ResetTotal()
	}
}

// SegmentBoundary resets intervals and forgets previous samples, so that no
// counter is differenced across a pause.
func (r *Registry) SegmentBoundary() {
	for _, a := range r.registered() {
		a.ResetInterval()
		a.forget()
	}
}

func (r *Registry) registered() []Aggregator {
	var out []Aggregator
	if r.heartRate != nil {
		out = append(out, r.heartRate)
	}
	if r.cadence != nil {
		out = append(out, r.cadence)
	}
	if r.wheel != nil {
		out = append(out, r.wheel)
	}
	if r.power != nil {
		out = append(out, r.power)
	}
	if r.running != nil {
		out = append(out, r.running)
	}
	if r.barometer != nil {
		out = append(out, r.barometer)
	}
	return out
}

type candidate struct {
	value float64
	fresh bool
	from  Aggregator
}

// prefer returns the first fresh candidate, else the first one.
func prefer(cs []candidate) *Reading {
	if len(cs) == 0 {
		return nil
	}
	for _, c := range cs {
		if c.fresh {
			return reading(c.value, c.from)
		}
	}
	return reading(cs[0].value, cs[0].from)
}

func reading(v float64, a Aggregator) *Reading {
	return &Reading{Value: v, Source: a.Identity().NameOrAddress()}
}
