// Package mqtt publishes recorded points, GPS status changes, statistics and
// system events to MQTT, and decodes inbound fixes and sensor samples.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/trip-fusion/internal/gpsstatus"
	"github.com/sweeney/trip-fusion/internal/location"
	"github.com/sweeney/trip-fusion/internal/recorder"
	"github.com/sweeney/trip-fusion/internal/sensor"
	"github.com/sweeney/trip-fusion/internal/stats"
)

// DefaultPrefix is the topic prefix used when none is configured.
const DefaultPrefix = "fitness/trip"

// Topics holds every topic the daemon uses.
type Topics struct {
	Points   string
	GPS      string
	Stats    string
	System   string
	InFix    string
	InSensor string
}

// NewTopics derives all topics from prefix.
func NewTopics(prefix string) Topics {
	return Topics{
		Points:   prefix + "/points",
		GPS:      prefix + "/gps",
		Stats:    prefix + "/stats",
		System:   prefix + "/system",
		InFix:    prefix + "/in/fix",
		InSensor: prefix + "/in/sensor",
	}
}

// Publisher publishes engine output to MQTT.
type Publisher interface {
	// PublishPoint sends a recorded point.
	// Returns error if publishing fails (should not crash the process).
	PublishPoint(p recorder.Point) error

	// PublishGPS sends a GPS status transition.
	PublishGPS(trackID string, e gpsstatus.Event) error

	// PublishStats sends a statistics snapshot taken at now.
	PublishStats(trackID string, s stats.TripStatistics, now time.Time) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// FixHandler receives decoded inbound fixes.
type FixHandler func(location.Fix)

// SampleHandler receives decoded inbound sensor samples.
type SampleHandler func(sensor.Sample)

// Subscriber delivers inbound fixes and samples. Handlers run on the
// client's goroutine and must not block.
type Subscriber interface {
	Subscribe(onFix FixHandler, onSample SampleHandler) error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// PointPayload is the MQTT message payload for a recorded point.
type PointPayload struct {
	Point PointInner `json:"point"`
}

// PointInner contains the point details.
type PointInner struct {
	TrackID   string        `json:"track_id"`
	Timestamp string        `json:"timestamp"`
	Latitude  float64       `json:"lat"`
	Longitude float64       `json:"lon"`
	Altitude  *float64      `json:"altitude,omitempty"`
	Speed     *float64      `json:"speed,omitempty"`
	Bearing   *float64      `json:"bearing,omitempty"`
	Accuracy  *float64      `json:"accuracy,omitempty"`
	Sensors   *sensor.Fused `json:"sensors,omitempty"`
	Stats     stats.Summary `json:"stats"`
}

// FormatPoint creates the JSON payload for a recorded point.
func FormatPoint(p recorder.Point) ([]byte, error) {
	inner := PointInner{
		TrackID:   p.TrackID,
		Timestamp: p.Time.UTC().Format(time.RFC3339Nano),
		Latitude:  p.Fix.Latitude,
		Longitude: p.Fix.Longitude,
		Altitude:  optional(p.Fix.Altitude, p.Fix.HasAltitude),
		Speed:     optional(p.Fix.Speed, p.Fix.HasSpeed),
		Bearing:   optional(p.Fix.Bearing, p.Fix.HasBearing),
		Accuracy:  optional(p.Fix.Accuracy, p.Fix.HasAccuracy),
		Stats:     p.Stats.Summary(),
	}
	if !p.Sensors.IsEmpty() {
		fused := p.Sensors
		inner.Sensors = &fused
	}
	return json.Marshal(PointPayload{Point: inner})
}

// GPSPayload is the MQTT message payload for a GPS status transition.
type GPSPayload struct {
	GPS GPSInner `json:"gps"`
}

// GPSInner contains the transition details.
type GPSInner struct {
	TrackID   string `json:"track_id,omitempty"`
	Timestamp string `json:"timestamp"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// FormatGPS creates the JSON payload for a GPS status transition.
func FormatGPS(trackID string, e gpsstatus.Event) ([]byte, error) {
	return json.Marshal(GPSPayload{GPS: GPSInner{
		TrackID:   trackID,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
		From:      string(e.From),
		To:        string(e.To),
	}})
}

// StatsPayload is the MQTT message payload for a statistics snapshot.
type StatsPayload struct {
	Stats StatsInner `json:"stats"`
}

// StatsInner wraps the statistics summary with its track and time.
type StatsInner struct {
	TrackID   string `json:"track_id"`
	Timestamp string `json:"timestamp"`
	stats.Summary
}

// FormatStats creates the JSON payload for a statistics snapshot.
func FormatStats(trackID string, s stats.TripStatistics, now time.Time) ([]byte, error) {
	return json.Marshal(StatsPayload{Stats: StatsInner{
		TrackID:   trackID,
		Timestamp: now.UTC().Format(time.RFC3339),
		Summary:   s.Summary(),
	}})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
