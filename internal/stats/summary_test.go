package stats

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestSummary(t *testing.T) {
	s := sample(0, 100, 46, 500)

	got := s.Summary()
	want := Summary{
		StartTime:          t0.Format(time.RFC3339),
		StopTime:           t0.Add(time.Minute).Format(time.RFC3339),
		TotalTimeMs:        60000,
		MovingTimeMs:       30000,
		DistanceM:          100,
		ElevationGainM:     1,
		MaxSpeed:           100.0 / 30,
		AverageSpeed:       100.0 / 60,
		AverageMovingSpeed: 100.0 / 30,
		Bounds:             &BoundsJSON{MinLat: 46, MinLon: 23, MaxLat: 46, MaxLon: 23},
		Elevation:          &RangeJSON{Min: 500, Max: 500},
		Grade:              &RangeJSON{Min: 0.5, Max: 0.5},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Summary mismatch (-want +got):\n%s", diff)
	}
}

func TestSummaryEmpty(t *testing.T) {
	got := NewTripStatistics(t0).Summary()

	if got.Bounds != nil || got.Elevation != nil || got.Grade != nil {
		t.Errorf("empty statistics should omit ranges: %+v", got)
	}
	if got.DistanceM != 0 || got.MaxSpeed != 0 || math.IsNaN(got.AverageSpeed) {
		t.Errorf("empty statistics: got %+v", got)
	}
}
