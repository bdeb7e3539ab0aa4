// Package location defines the location fix consumed by the engine, the
// pause/resume sentinels and the distance helpers shared by its consumers.
package location

import (
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Kind tells a real position apart from the segment sentinels.
type Kind string

const (
	KindPosition Kind = "position"
	KindPause    Kind = "pause"
	KindResume   Kind = "resume"
)

// Fix is a single location reading. Optional fields are guarded by their
// Has* flag.
type Fix struct {
	Kind Kind
	Time time.Time

	Latitude  float64 // degrees
	Longitude float64 // degrees

	Altitude    float64 // meters
	HasAltitude bool
	Speed       float64 // m/s
	HasSpeed    bool
	Bearing     float64 // degrees
	HasBearing  bool

	Accuracy    float64 // horizontal, meters
	HasAccuracy bool
}

// Pause returns the sentinel that closes the current segment.
func Pause(t time.Time) Fix {
	return Fix{Kind: KindPause, Time: t}
}

// Resume returns the sentinel that opens a new segment.
func Resume(t time.Time) Fix {
	return Fix{Kind: KindResume, Time: t}
}

// IsSentinel reports whether f marks a segment boundary instead of a position.
func (f Fix) IsSentinel() bool {
	return f.Kind == KindPause || f.Kind == KindResume
}

// Valid reports whether f is a position with plausible coordinates.
func (f Fix) Valid() bool {
	if f.IsSentinel() {
		return false
	}
	if math.IsNaN(f.Latitude) || math.IsNaN(f.Longitude) {
		return false
	}
	return math.Abs(f.Latitude) <= 90 && math.Abs(f.Longitude) <= 180
}

// Point returns the fix as an orb point (lon, lat).
func (f Fix) Point() orb.Point {
	return orb.Point{f.Longitude, f.Latitude}
}

// FulfillsAccuracy reports whether the fix's accuracy is within threshold.
// A fix without accuracy never fulfills it.
func (f Fix) FulfillsAccuracy(threshold float64) bool {
	return f.HasAccuracy && f.Accuracy <= threshold
}

func (f Fix) String() string {
	if f.IsSentinel() {
		return fmt.Sprintf("{%s %s}", f.Kind, f.Time.UTC().Format(time.RFC3339Nano))
	}
	return fmt.Sprintf("{%.6f/%.6f (%s)}", f.Latitude, f.Longitude, f.Time.UTC().Format(time.RFC3339Nano))
}

// Distance returns the great-circle distance in meters between two fixes.
func Distance(a, b Fix) float64 {
	return geo.DistanceHaversine(a.Point(), b.Point())
}
