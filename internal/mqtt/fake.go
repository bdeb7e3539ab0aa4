package mqtt

import (
	"time"

	"github.com/sweeney/trip-fusion/internal/gpsstatus"
	"github.com/sweeney/trip-fusion/internal/recorder"
	"github.com/sweeney/trip-fusion/internal/stats"
)

// StatsMessage is a statistics snapshot recorded by FakePublisher.
type StatsMessage struct {
	TrackID string
	Stats   stats.TripStatistics
	Time    time.Time
}

// FakePublisher records published messages for test assertions. It also
// implements Subscriber: Deliver feeds raw payloads to the handlers.
type FakePublisher struct {
	// Points contains all recorded points that were published.
	Points []recorder.Point

	// GPSEvents contains all GPS transitions that were published.
	GPSEvents []gpsstatus.Event

	// Stats contains all statistics snapshots that were published.
	Stats []StatsMessage

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by the data publish methods.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool

	topics   Topics
	onFix    FixHandler
	onSample SampleHandler
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{topics: NewTopics(DefaultPrefix)}
}

// PublishPoint records the point.
func (f *FakePublisher) PublishPoint(p recorder.Point) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	if _, err := FormatPoint(p); err != nil {
		return err
	}
	f.Points = append(f.Points, p)
	return nil
}

// PublishGPS records the transition.
func (f *FakePublisher) PublishGPS(trackID string, e gpsstatus.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.GPSEvents = append(f.GPSEvents, e)
	return nil
}

// PublishStats records the snapshot.
func (f *FakePublisher) PublishStats(trackID string, s stats.TripStatistics, now time.Time) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Stats = append(f.Stats, StatsMessage{TrackID: trackID, Stats: s, Time: now})
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// Subscribe stores the handlers for Deliver.
func (f *FakePublisher) Subscribe(onFix FixHandler, onSample SampleHandler) error {
	f.onFix = onFix
	f.onSample = onSample
	return nil
}

// Deliver simulates an inbound message on topic.
func (f *FakePublisher) Deliver(topic string, payload []byte) {
	dispatch(f.topics, topic, payload, f.onFix, f.onSample)
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.Points = nil
	f.GPSEvents = nil
	f.Stats = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
