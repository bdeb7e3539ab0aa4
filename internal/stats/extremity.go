package stats

import "math"

// ExtremityMonitor tracks the running minimum and maximum of a series.
// The zero value holds no data.
type ExtremityMonitor struct {
	min, max float64
	hasData  bool
}

// Update folds v into the monitor. NaN and infinities are ignored.
func (m *ExtremityMonitor) Update(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	if !m.hasData {
		m.min, m.max, m.hasData = v, v, true
		return
	}
	m.min = math.Min(m.min, v)
	m.max = math.Max(m.max, v)
}

// Merge folds another monitor's range into m.
func (m *ExtremityMonitor) Merge(other ExtremityMonitor) {
	if !other.hasData {
		return
	}
	m.Update(other.min)
	m.Update(other.max)
}

// HasData reports whether at least one value was seen.
func (m ExtremityMonitor) HasData() bool {
	return m.hasData
}

// Min returns the smallest value seen, or +Inf without data.
func (m ExtremityMonitor) Min() float64 {
	if !m.hasData {
		return math.Inf(1)
	}
	return m.min
}

// Max returns the largest value seen, or -Inf without data.
func (m ExtremityMonitor) Max() float64 {
	if !m.hasData {
		return math.Inf(-1)
	}
	return m.max
}
