package replay

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/trip-fusion/internal/gpsstatus"
	"github.com/sweeney/trip-fusion/internal/location"
	"github.com/sweeney/trip-fusion/internal/recorder"
	"github.com/sweeney/trip-fusion/internal/sensor"
	"github.com/sweeney/trip-fusion/internal/stats"
)

// DefaultAccuracy is the horizontal accuracy, in meters, assigned to GPX
// points. GPX stores none, and the recorder rejects fixes without one.
const DefaultAccuracy = 5.0

// ErrEmpty is returned for a document without timestamped points.
var ErrEmpty = errors.New("replay: no timestamped points")

// Source names the sensor channels fed from GPX extensions.
var Source = sensor.Identity{Address: "gpx", Name: "gpx"}

// Result summarizes a replayed track.
type Result struct {
	TrackID    string
	Statistics stats.TripStatistics
	Counters   recorder.Counters
	Events     []gpsstatus.Event
}

// Run replays doc through rec, which must not be started. Segment
// boundaries become a pause and a resume. onPoint, if set, receives every
// recorded point. The recorder is stopped at the last point.
func Run(rec *recorder.Recorder, doc *GPX, onPoint func(recorder.Point)) (Result, error) {
	first, ok := doc.Start()
	if !ok {
		return Result{}, ErrEmpty
	}

	registry := rec.Sensors()
	if _, ok := registry.Lookup(sensor.KindHeartRate); !ok {
		registry.Register(sensor.NewHeartRate(Source))
	}
	if _, ok := registry.Lookup(sensor.KindCadence); !ok {
		registry.Register(sensor.NewCyclingCadence(Source))
	}

	var res Result
	events, err := rec.Start(first)
	if err != nil {
		return Result{}, fmt.Errorf("start recorder: %w", err)
	}
	res.Events = append(res.Events, events...)

	var crank crankCounter
	last := first
	segments := 0
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			if len(seg.Points) == 0 {
				continue
			}
			if segments > 0 {
				rec.OnFix(location.Pause(last), last)
			}
			resumed := segments == 0
			segments++

			for _, p := range seg.Points {
				if p.Time.IsZero() {
					log.Printf("replay: skipping point without time at %.6f,%.6f", p.Lat, p.Lon)
					continue
				}
				if !resumed {
					rec.OnFix(location.Resume(p.Time), p.Time)
					resumed = true
				}
				res.Events = append(res.Events, rec.Tick(p.Time)...)
				feedSamples(rec, &crank, p)

				out := rec.OnFix(toFix(p), p.Time)
				res.Events = append(res.Events, out.Events...)
				if out.Point != nil && onPoint != nil {
					onPoint(*out.Point)
				}
				if p.Time.After(last) {
					last = p.Time
				}
			}
		}
	}

	res.Events = append(res.Events, rec.Stop(last)...)
	res.Statistics = rec.Statistics()
	res.TrackID = rec.TrackID()
	res.Counters = rec.Counters()
	return res, nil
}

func feedSamples(rec *recorder.Recorder, crank *crankCounter, p Point) {
	ext := p.Extensions.TrackPoint
	if ext == nil {
		return
	}
	if ext.HeartRate != nil {
		rec.OnSample(sensor.HeartRateSample{Time: p.Time, BPM: *ext.HeartRate})
	}
	if ext.Cadence != nil {
		rec.OnSample(sensor.CadenceSample{Time: p.Time, CounterReading: crank.next(p.Time, *ext.Cadence)})
	}
}

func toFix(p Point) location.Fix {
	f := location.Fix{
		Kind:        location.KindPosition,
		Time:        p.Time,
		Latitude:    p.Lat,
		Longitude:   p.Lon,
		Accuracy:    DefaultAccuracy,
		HasAccuracy: true,
	}
	if p.Elevation != nil {
		f.Altitude, f.HasAltitude = *p.Elevation, true
	}
	return f
}

// Elapsed is the wall time covered by the replayed track.
func (r Result) Elapsed() time.Duration {
	return r.Statistics.TotalTime
}
