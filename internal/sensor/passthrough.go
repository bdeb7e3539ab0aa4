package sensor

import "time"

// HeartRate reports beats per minute as received.
type HeartRate struct {
	channel
	bpm float64
}

// NewHeartRate creates a heart rate channel fed by id.
func NewHeartRate(id Identity) *HeartRate {
	return &HeartRate{channel: newChannel(id)}
}

// Kind returns KindHeartRate.
func (h *HeartRate) Kind() Kind { return KindHeartRate }

// Add stores a heart rate sample in bpm.
func (h *HeartRate) Add(s Raw[float64]) {
	h.bpm = s.Value
	h.mark(s.Time)
}

// Value returns the heart rate, or 0 and false when stale.
func (h *HeartRate) Value(now time.Time) (float64, bool) {
	if !h.fresh(now) {
		return 0, false
	}
	return h.bpm, true
}

func (h *HeartRate) ResetInterval() {}
func (h *HeartRate) ResetTotal()    {}
func (h *HeartRate) forget()        {}

// CyclingPower reports instantaneous power in watts as received.
type CyclingPower struct {
	channel
	watts float64
}

// NewCyclingPower creates a power channel fed by id.
func NewCyclingPower(id Identity) *CyclingPower {
	return &CyclingPower{channel: newChannel(id)}
}

// Kind returns KindPower.
func (p *CyclingPower) Kind() Kind { return KindPower }

// Add stores a power sample in watts.
func (p *CyclingPower) Add(s Raw[float64]) {
	p.watts = s.Value
	p.mark(s.Time)
}

// Value returns the power, or 0 and false when stale.
func (p *CyclingPower) Value(now time.Time) (float64, bool) {
	if !p.fresh(now) {
		return 0, false
	}
	return p.watts, true
}

func (p *CyclingPower) ResetInterval() {}
func (p *CyclingPower) ResetTotal()    {}
func (p *CyclingPower) forget()        {}
