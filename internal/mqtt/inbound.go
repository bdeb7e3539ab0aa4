package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sweeney/trip-fusion/internal/location"
	"github.com/sweeney/trip-fusion/internal/sensor"
)

// ErrMalformed is wrapped by every inbound decoding error.
var ErrMalformed = errors.New("mqtt: malformed payload")

// FixMessage is the inbound payload of a location fix or segment marker.
// Type is "position" (default), "pause" or "resume".
type FixMessage struct {
	Type      string   `json:"type,omitempty"`
	Timestamp string   `json:"timestamp"`
	Latitude  float64  `json:"lat"`
	Longitude float64  `json:"lon"`
	Altitude  *float64 `json:"altitude,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Bearing   *float64 `json:"bearing,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// DecodeFix parses an inbound fix payload.
func DecodeFix(payload []byte) (location.Fix, error) {
	var m FixMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return location.Fix{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	ts, err := parseTimestamp(m.Timestamp)
	if err != nil {
		return location.Fix{}, err
	}

	switch location.Kind(m.Type) {
	case location.KindPause:
		return location.Pause(ts), nil
	case location.KindResume:
		return location.Resume(ts), nil
	case location.KindPosition, "":
	default:
		return location.Fix{}, fmt.Errorf("%w: unknown fix type %q", ErrMalformed, m.Type)
	}

	f := location.Fix{
		Kind:      location.KindPosition,
		Time:      ts,
		Latitude:  m.Latitude,
		Longitude: m.Longitude,
	}
	if m.Altitude != nil {
		f.Altitude, f.HasAltitude = *m.Altitude, true
	}
	if m.Speed != nil {
		f.Speed, f.HasSpeed = *m.Speed, true
	}
	if m.Bearing != nil {
		f.Bearing, f.HasBearing = *m.Bearing, true
	}
	if m.Accuracy != nil {
		f.Accuracy, f.HasAccuracy = *m.Accuracy, true
	}
	if !f.Valid() {
		return location.Fix{}, fmt.Errorf("%w: coordinates out of range: %v", ErrMalformed, f)
	}
	return f, nil
}

// SampleMessage is the inbound payload of a decoded sensor sample. Type
// selects which of the remaining fields apply.
type SampleMessage struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`

	BPM float64 `json:"bpm,omitempty"`

	Revolutions *uint32 `json:"revolutions,omitempty"`
	EventTicks  *uint16 `json:"event_ticks,omitempty"`

	Watts float64 `json:"watts,omitempty"`

	Speed         float64  `json:"speed,omitempty"`
	Cadence       float64  `json:"cadence,omitempty"`
	TotalDistance *float64 `json:"total_distance,omitempty"`

	HPa float64 `json:"hpa,omitempty"`
}

// DecodeSample parses an inbound sensor sample payload.
func DecodeSample(payload []byte) (sensor.Sample, error) {
	var m SampleMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	ts, err := parseTimestamp(m.Timestamp)
	if err != nil {
		return nil, err
	}

	switch m.Type {
	case "heart_rate":
		return sensor.HeartRateSample{Time: ts, BPM: m.BPM}, nil
	case "cadence", "wheel":
		if m.Revolutions == nil || m.EventTicks == nil {
			return nil, fmt.Errorf("%w: %s sample needs revolutions and event_ticks", ErrMalformed, m.Type)
		}
		c := sensor.CounterReading{Revolutions: *m.Revolutions, EventTicks: *m.EventTicks}
		if m.Type == "cadence" {
			return sensor.CadenceSample{Time: ts, CounterReading: c}, nil
		}
		return sensor.WheelSample{Time: ts, CounterReading: c}, nil
	case "power":
		return sensor.PowerSample{Time: ts, Watts: m.Watts}, nil
	case "running":
		r := sensor.RunningReading{Speed: m.Speed, Cadence: m.Cadence}
		if m.TotalDistance != nil {
			r.TotalDistance, r.HasTotalDistance = *m.TotalDistance, true
		}
		return sensor.RunningSample{Time: ts, RunningReading: r}, nil
	case "pressure":
		if !(m.HPa > 0) || math.IsInf(m.HPa, 0) {
			return nil, fmt.Errorf("%w: pressure must be positive, got %v", ErrMalformed, m.HPa)
		}
		return sensor.PressureSample{Time: ts, HPa: m.HPa}, nil
	default:
		return nil, fmt.Errorf("%w: unknown sample type %q", ErrMalformed, m.Type)
	}
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: missing timestamp", ErrMalformed)
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp: %v", ErrMalformed, err)
	}
	return ts, nil
}
