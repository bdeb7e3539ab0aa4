// Package stats accumulates trip statistics (distance, moving time, speed,
// elevation and grade) from a stream of location fixes.
package stats

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
)

// TripStatistics is an immutable-by-value snapshot of a trip or segment.
// Every field is a value, so assigning a TripStatistics copies it fully.
type TripStatistics struct {
	StartTime time.Time
	StopTime  time.Time

	TotalTime  time.Duration // updated on every fix, may include stops
	MovingTime time.Duration

	TotalDistance      float64 // meters
	TotalElevationGain float64 // meters
	MaxSpeedRecorded   float64 // m/s, smoothed

	Latitude  ExtremityMonitor
	Longitude ExtremityMonitor
	Elevation ExtremityMonitor // smoothed elevation, meters
	Grade     ExtremityMonitor // rise over run
}

// NewTripStatistics returns empty statistics starting and stopping at t.
func NewTripStatistics(t time.Time) TripStatistics {
	return TripStatistics{StartTime: t, StopTime: t}
}

// IsEmpty reports whether s carries no time bounds. Empty statistics are the
// identity element of Merge.
func (s TripStatistics) IsEmpty() bool {
	return s.StartTime.IsZero() && s.StopTime.IsZero()
}

// Merge folds other into s: time bounds take the outer envelope, distances
// and durations add up, extremes combine.
func (s *TripStatistics) Merge(other TripStatistics) {
	if other.IsEmpty() {
		return
	}
	if s.IsEmpty() {
		*s = other
		return
	}
	if other.StartTime.Before(s.StartTime) {
		s.StartTime = other.StartTime
	}
	if other.StopTime.After(s.StopTime) {
		s.StopTime = other.StopTime
	}
	s.TotalTime += other.TotalTime
	s.MovingTime += other.MovingTime
	s.TotalDistance += other.TotalDistance
	s.TotalElevationGain += other.TotalElevationGain
	if other.MaxSpeedRecorded > s.MaxSpeedRecorded {
		s.MaxSpeedRecorded = other.MaxSpeedRecorded
	}
	s.Latitude.Merge(other.Latitude)
	s.Longitude.Merge(other.Longitude)
	s.Elevation.Merge(other.Elevation)
	s.Grade.Merge(other.Grade)
}

// AverageSpeed returns distance over total time in m/s.
func (s TripStatistics) AverageSpeed() float64 {
	if s.TotalTime <= 0 {
		return 0
	}
	return s.TotalDistance / s.TotalTime.Seconds()
}

// AverageMovingSpeed returns distance over moving time in m/s.
func (s TripStatistics) AverageMovingSpeed() float64 {
	if s.MovingTime <= 0 {
		return 0
	}
	return s.TotalDistance / s.MovingTime.Seconds()
}

// MaxSpeed returns the recorded maximum, never less than the average moving
// speed (the smoothed maximum lags behind short trips).
func (s TripStatistics) MaxSpeed() float64 {
	if avg := s.AverageMovingSpeed(); avg > s.MaxSpeedRecorded {
		return avg
	}
	return s.MaxSpeedRecorded
}

// Bounds returns the bounding box of all positions seen, and false when no
// position was seen.
func (s TripStatistics) Bounds() (orb.Bound, bool) {
	if !s.Latitude.HasData() || !s.Longitude.HasData() {
		return orb.Bound{}, false
	}
	return orb.Bound{
		Min: orb.Point{s.Longitude.Min(), s.Latitude.Min()},
		Max: orb.Point{s.Longitude.Max(), s.Latitude.Max()},
	}, true
}

func (s TripStatistics) String() string {
	return fmt.Sprintf("{start=%s stop=%s total=%v moving=%v distance=%.1fm gain=%.1fm maxSpeed=%.2fm/s}",
		s.StartTime.UTC().Format(time.RFC3339), s.StopTime.UTC().Format(time.RFC3339),
		s.TotalTime, s.MovingTime, s.TotalDistance, s.TotalElevationGain, s.MaxSpeed())
}
