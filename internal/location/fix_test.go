package location

import (
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"
)

func TestSentinels(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	if !Pause(now).IsSentinel() {
		t.Error("pause should be a sentinel")
	}
	if !Resume(now).IsSentinel() {
		t.Error("resume should be a sentinel")
	}
	if Pause(now).Valid() {
		t.Error("sentinel should not be a valid position")
	}
	if (Fix{Kind: KindPosition, Latitude: 1, Longitude: 2}).IsSentinel() {
		t.Error("position should not be a sentinel")
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"origin", 0, 0, true},
		{"corner", -90, 180, true},
		{"lat out of range", 100, 0, false},
		{"lon out of range", 0, -181, false},
		{"nan", math.NaN(), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Fix{Kind: KindPosition, Latitude: tt.lat, Longitude: tt.lon}
			if got := f.Valid(); got != tt.want {
				t.Errorf("Valid: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDistanceAlongEquator(t *testing.T) {
	a := Fix{Kind: KindPosition}
	b := Fix{Kind: KindPosition, Longitude: 0.001}

	want := orb.EarthRadius * 0.001 * math.Pi / 180
	if got := Distance(a, b); math.Abs(got-want) > 1e-6 {
		t.Errorf("Distance: got %v, want %v", got, want)
	}
	if Distance(a, a) != 0 {
		t.Error("distance to self should be 0")
	}
}

func TestFulfillsAccuracy(t *testing.T) {
	f := Fix{Kind: KindPosition, Accuracy: 5, HasAccuracy: true}
	if !f.FulfillsAccuracy(20) {
		t.Error("5m should fulfill 20m")
	}
	if f.FulfillsAccuracy(4) {
		t.Error("5m should not fulfill 4m")
	}
	if (Fix{Kind: KindPosition}).FulfillsAccuracy(1000) {
		t.Error("fix without accuracy should not fulfill")
	}
}
