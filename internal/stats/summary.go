package stats

import "time"

// Summary is the JSON representation of TripStatistics shared by the MQTT
// payloads and the status page.
type Summary struct {
	StartTime          string      `json:"start_time"`
	StopTime           string      `json:"stop_time"`
	TotalTimeMs        int64       `json:"total_time_ms"`
	MovingTimeMs       int64       `json:"moving_time_ms"`
	DistanceM          float64     `json:"distance_m"`
	ElevationGainM     float64     `json:"elevation_gain_m"`
	MaxSpeed           float64     `json:"max_speed_mps"`
	AverageSpeed       float64     `json:"avg_speed_mps"`
	AverageMovingSpeed float64     `json:"avg_moving_speed_mps"`
	Bounds             *BoundsJSON `json:"bounds,omitempty"`
	Elevation          *RangeJSON  `json:"elevation_m,omitempty"`
	Grade              *RangeJSON  `json:"grade,omitempty"`
}

// BoundsJSON is a bounding box in degrees.
type BoundsJSON struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// RangeJSON is the range of an extremity monitor.
type RangeJSON struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Summary returns the JSON view of s.
func (s TripStatistics) Summary() Summary {
	out := Summary{
		StartTime:          s.StartTime.UTC().Format(time.RFC3339),
		StopTime:           s.StopTime.UTC().Format(time.RFC3339),
		TotalTimeMs:        s.TotalTime.Milliseconds(),
		MovingTimeMs:       s.MovingTime.Milliseconds(),
		DistanceM:          s.TotalDistance,
		ElevationGainM:     s.TotalElevationGain,
		MaxSpeed:           s.MaxSpeed(),
		AverageSpeed:       s.AverageSpeed(),
		AverageMovingSpeed: s.AverageMovingSpeed(),
		Elevation:          rangeOf(s.Elevation),
		Grade:              rangeOf(s.Grade),
	}
	if b, ok := s.Bounds(); ok {
		out.Bounds = &BoundsJSON{
			MinLat: b.Min.Lat(),
			MinLon: b.Min.Lon(),
			MaxLat: b.Max.Lat(),
			MaxLon: b.Max.Lon(),
		}
	}
	return out
}

func rangeOf(m ExtremityMonitor) *RangeJSON {
	if !m.HasData() {
		return nil
	}
	return &RangeJSON{Min: m.Min(), Max: m.Max()}
}
