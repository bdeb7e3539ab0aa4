package stats

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func sample(start time.Duration, dist float64, lat, ele float64) TripStatistics {
	s := NewTripStatistics(t0.Add(start))
	s.StopTime = s.StartTime.Add(time.Minute)
	s.TotalTime = time.Minute
	s.MovingTime = 30 * time.Second
	s.TotalDistance = dist
	s.TotalElevationGain = dist / 100
	s.MaxSpeedRecorded = dist / 60
	s.Latitude.Update(lat)
	s.Longitude.Update(lat / 2)
	s.Elevation.Update(ele)
	s.Grade.Update(ele / 1000)
	return s
}

func merged(parts ...TripStatistics) TripStatistics {
	var out TripStatistics
	for _, p := range parts {
		out.Merge(p)
	}
	return out
}

func TestMergeAssociative(t *testing.T) {
	a := sample(0, 100, 46, 500)
	b := sample(time.Hour, 250, 45, 800)
	c := sample(2*time.Hour, 75, 47, 300)

	left := merged(a, b)
	left.Merge(c)

	bc := merged(b, c)
	right := a
	right.Merge(bc)

	if diff := cmp.Diff(left, right, statsCmp...); diff != "" {
		t.Errorf("merge not associative (-left +right):\n%s", diff)
	}
}

func TestMergeCommutative(t *testing.T) {
	a := sample(0, 100, 46, 500)
	b := sample(time.Hour, 250, 45, 800)

	if diff := cmp.Diff(merged(a, b), merged(b, a), statsCmp...); diff != "" {
		t.Errorf("merge not commutative (-ab +ba):\n%s", diff)
	}
}

func TestMergeFields(t *testing.T) {
	a := sample(time.Hour, 100, 46, 500)
	b := sample(0, 250, 45, 800)
	m := merged(a, b)

	if !m.StartTime.Equal(t0) {
		t.Errorf("StartTime: got %v, want %v", m.StartTime, t0)
	}
	if !m.StopTime.Equal(t0.Add(time.Hour + time.Minute)) {
		t.Errorf("StopTime: got %v", m.StopTime)
	}
	if m.TotalDistance != 350 {
		t.Errorf("TotalDistance: got %v, want 350", m.TotalDistance)
	}
	if m.TotalTime != 2*time.Minute || m.MovingTime != time.Minute {
		t.Errorf("times: got total=%v moving=%v", m.TotalTime, m.MovingTime)
	}
	if m.Latitude.Min() != 45 || m.Latitude.Max() != 46 {
		t.Errorf("latitude: got [%v, %v]", m.Latitude.Min(), m.Latitude.Max())
	}
	if m.Elevation.Min() != 500 || m.Elevation.Max() != 800 {
		t.Errorf("elevation: got [%v, %v]", m.Elevation.Min(), m.Elevation.Max())
	}
	if m.MaxSpeedRecorded != 250.0/60 {
		t.Errorf("MaxSpeedRecorded: got %v", m.MaxSpeedRecorded)
	}
}

func TestMergeEmptyIsIdentity(t *testing.T) {
	a := sample(0, 100, 46, 500)

	left := a
	left.Merge(TripStatistics{})
	if diff := cmp.Diff(a, left, statsCmp...); diff != "" {
		t.Errorf("merge with empty changed value:\n%s", diff)
	}

	var right TripStatistics
	right.Merge(a)
	if diff := cmp.Diff(a, right, statsCmp...); diff != "" {
		t.Errorf("empty merged with value differs:\n%s", diff)
	}
}

func TestMergeSkipsMonitorsWithoutData(t *testing.T) {
	a := sample(0, 100, 46, 500)
	b := NewTripStatistics(t0.Add(time.Minute))

	a.Merge(b)
	if a.Grade.Min() != 0.5 || a.Grade.Max() != 0.5 {
		t.Errorf("grade changed by empty monitor: [%v, %v]", a.Grade.Min(), a.Grade.Max())
	}
}

func TestMaxSpeedNeverBelowAverageMoving(t *testing.T) {
	s := NewTripStatistics(t0)
	s.TotalDistance = 100
	s.MovingTime = 10 * time.Second
	s.MaxSpeedRecorded = 5

	if s.MaxSpeed() != 10 {
		t.Errorf("MaxSpeed: got %v, want 10", s.MaxSpeed())
	}
}

func TestExtremityMonitor(t *testing.T) {
	var m ExtremityMonitor
	if m.HasData() {
		t.Error("zero monitor should have no data")
	}
	if !math.IsInf(m.Min(), 1) || !math.IsInf(m.Max(), -1) {
		t.Errorf("empty bounds: got [%v, %v]", m.Min(), m.Max())
	}

	for _, v := range []float64{3, -2, math.NaN(), 7} {
		m.Update(v)
	}
	if m.Min() != -2 || m.Max() != 7 {
		t.Errorf("got [%v, %v], want [-2, 7]", m.Min(), m.Max())
	}
}
