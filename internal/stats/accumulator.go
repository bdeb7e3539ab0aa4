package stats

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/sweeney/trip-fusion/internal/location"
	"github.com/sweeney/trip-fusion/internal/smooth"
)

// Accumulator incrementally computes TripStatistics from location fixes,
// including pause and resume sentinels. Closed segments are merged into the
// track totals; the open segment owns its own smoothing buffers.
//
// Not safe for concurrent use. Statistics returns a copy, so a reader on
// another goroutine only needs the caller to hand over that copy.
type Accumulator struct {
	cfg   Config
	start time.Time

	track      TripStatistics // merged closed segments
	segment    TripStatistics
	segmentHas bool // segment has seen at least one position

	elevation *smooth.Buffer // meters
	run       *smooth.Buffer // meters between consecutive fixes
	grade     *smooth.Buffer // rise over run
	speed     *smooth.Buffer // m/s

	last       location.Fix // last fix of the segment, moving or not
	lastMoving location.Fix // last fix that advanced distance
	hasLast    bool
}

// New creates an accumulator for a track starting at start.
func New(cfg Config, start time.Time) (*Accumulator, error) {
	return NewFromStatistics(cfg, TripStatistics{}, start)
}

// NewFromStatistics resumes a track whose earlier segments are summarized by
// prior. New segments start at start.
func NewFromStatistics(cfg Config, prior TripStatistics, start time.Time) (*Accumulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Accumulator{cfg: cfg, start: start, track: prior}
	var err error
	if a.elevation, err = smooth.New(cfg.ElevationBufferSize); err != nil {
		return nil, fmt.Errorf("elevation buffer: %w", err)
	}
	if a.run, err = smooth.New(cfg.RunBufferSize); err != nil {
		return nil, fmt.Errorf("run buffer: %w", err)
	}
	if a.grade, err = smooth.New(cfg.GradeBufferSize); err != nil {
		return nil, fmt.Errorf("grade buffer: %w", err)
	}
	if a.speed, err = smooth.New(cfg.SpeedBufferSize); err != nil {
		return nil, fmt.Errorf("speed buffer: %w", err)
	}
	a.beginSegment(start)
	return a, nil
}

// Statistics returns the closed segments merged with the open one.
func (a *Accumulator) Statistics() TripStatistics {
	stats := a.track
	if a.segmentHas {
		stats.Merge(a.segment)
	}
	if stats.IsEmpty() {
		return NewTripStatistics(a.start)
	}
	return stats
}

// SmoothedElevation returns the current smoothed elevation in meters.
func (a *Accumulator) SmoothedElevation() float64 {
	return a.elevation.Average()
}

// SmoothedSpeed returns the current smoothed speed in m/s.
func (a *Accumulator) SmoothedSpeed() float64 {
	return a.speed.Average()
}

// UpdateTime advances the open segment's stop time without a fix.
func (a *Accumulator) UpdateTime(t time.Time) {
	if !a.segmentHas {
		return
	}
	a.updateTime(t)
}

// AddFix folds a fix into the statistics. Implausible data is logged and
// skipped; AddFix never fails.
func (a *Accumulator) AddFix(fix location.Fix) {
	switch fix.Kind {
	case location.KindPause:
		a.closeSegment()
		a.beginSegment(fix.Time)
		return
	case location.KindResume:
		// A resume without a preceding pause still closes what was recorded.
		a.closeSegment()
		a.beginSegment(fix.Time)
		return
	}

	if !fix.Valid() {
		log.Printf("stats: ignoring invalid fix %v", fix)
		return
	}

	a.segmentHas = true
	a.updateTime(fix.Time)

	var rise float64
	riseReady := false
	if fix.HasAltitude {
		rise, riseReady = a.updateElevation(fix.Altitude)
	}

	a.segment.Latitude.Update(fix.Latitude)
	a.segment.Longitude.Update(fix.Longitude)

	if !a.hasLast {
		a.last = fix
		a.lastMoving = fix
		a.hasLast = true
		return
	}

	movingDistance := location.Distance(a.lastMoving, fix)
	if movingDistance < a.cfg.MinRecordingDistance && (!fix.HasSpeed || fix.Speed < a.cfg.NotMovingSpeed) {
		a.speed.Reset()
		a.last = fix
		return
	}

	elapsed := fix.Time.Sub(a.last.Time)
	if elapsed < 0 {
		log.Printf("stats: negative elapsed time %v before %v, skipping", elapsed, fix)
		a.last = fix
		return
	}

	a.segment.TotalDistance += movingDistance
	a.addMovingTime(elapsed)

	a.updateGrade(location.Distance(a.last, fix), rise, riseReady)

	if fix.HasSpeed && a.last.HasSpeed {
		a.updateSpeed(fix.Time, fix.Speed, a.last.Time, a.last.Speed)
	}

	a.last = fix
	a.lastMoving = fix
}

func (a *Accumulator) beginSegment(t time.Time) {
	a.segment = NewTripStatistics(t)
	a.segmentHas = false
	a.hasLast = false
	a.last = location.Fix{}
	a.lastMoving = location.Fix{}
	a.elevation.Reset()
	a.run.Reset()
	a.grade.Reset()
	a.speed.Reset()
}

// closeSegment flushes the distance between the last moving fix and the last
// fix, then merges the segment into the track.
func (a *Accumulator) closeSegment() {
	if !a.segmentHas {
		return
	}
	if a.hasLast && a.last != a.lastMoving {
		a.segment.TotalDistance += location.Distance(a.lastMoving, a.last)
	}
	a.track.Merge(a.segment)
	a.segmentHas = false
}

// updateTime moves the stop time forward; it never moves it back.
func (a *Accumulator) updateTime(t time.Time) {
	if t.Before(a.segment.StopTime) {
		return
	}
	a.segment.StopTime = t
	a.segment.TotalTime = t.Sub(a.segment.StartTime)
	if a.segment.TotalTime < 0 {
		a.segment.TotalTime = 0
	}
}

// addMovingTime keeps moving time within total time when fixes arrive out of
// order.
func (a *Accumulator) addMovingTime(d time.Duration) {
	if a.segment.MovingTime+d > a.segment.TotalTime {
		d = a.segment.TotalTime - a.segment.MovingTime
	}
	if d > 0 {
		a.segment.MovingTime += d
	}
}

// updateElevation smooths elevation and returns the smoothed difference. The
// difference is only meaningful once the buffer is full.
func (a *Accumulator) updateElevation(elevation float64) (float64, bool) {
	oldAverage := a.elevation.Average()
	a.elevation.Push(elevation)
	newAverage := a.elevation.Average()

	a.segment.Elevation.Update(newAverage)
	if !a.elevation.IsFull() {
		return 0, false
	}

	diff := newAverage - oldAverage
	if diff > 0 {
		a.segment.TotalElevationGain += diff
	}
	return diff, true
}

func (a *Accumulator) updateGrade(run, rise float64, riseReady bool) {
	a.run.Push(run)
	if !riseReady || !a.run.IsFull() {
		return
	}

	smoothedRun := a.run.Average()
	// Altitude error makes anything below a few meters useless as denominator.
	if smoothedRun < a.cfg.MinGradeRun {
		return
	}
	a.grade.Push(rise / smoothedRun)
	a.segment.Grade.Update(a.grade.Average())
}

func (a *Accumulator) updateSpeed(t time.Time, speed float64, lastTime time.Time, lastSpeed float64) {
	if speed < a.cfg.NotMovingSpeed {
		a.speed.Reset()
		return
	}
	if !a.isValidSpeed(t, speed, lastTime, lastSpeed) {
		log.Printf("stats: invalid speed %.2f m/s (last %.2f m/s), skipping", speed, lastSpeed)
		return
	}
	a.speed.Push(speed)
	if avg := a.speed.Average(); avg > a.segment.MaxSpeedRecorded {
		a.segment.MaxSpeedRecorded = avg
	}
}

// isValidSpeed rejects zero, the device error value and anything implying
// more than the configured acceleration. Cheapest checks first.
func (a *Accumulator) isValidSpeed(t time.Time, speed float64, lastTime time.Time, lastSpeed float64) bool {
	if speed == 0 {
		return false
	}
	if math.Abs(speed-a.cfg.ErrorSpeed) < 1 {
		return false
	}

	maxChange := a.cfg.MaxAcceleration * float64(t.Sub(lastTime).Milliseconds())
	if math.Abs(lastSpeed-speed) > maxChange {
		return false
	}

	if a.speed.IsFull() {
		average := a.speed.Average()
		return speed < average*10 && math.Abs(average-speed) < maxChange
	}
	return true
}
