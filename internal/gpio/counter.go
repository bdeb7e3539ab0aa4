package gpio

import (
	"context"
	"time"

	"github.com/sweeney/trip-fusion/internal/counter"
	"github.com/sweeney/trip-fusion/internal/sensor"
)

// RevolutionCounter turns switch closures on one line into cumulative
// revolution readings, the same shape a Bluetooth speed or cadence sensor
// reports.
type RevolutionCounter struct {
	line     Line
	debounce time.Duration

	revolutions uint32
	last        time.Duration
	seen        bool
}

// NewRevolutionCounter counts closures on line. Closures less than debounce
// after the previous counted one are contact bounce and are ignored.
func NewRevolutionCounter(line Line, debounce time.Duration) *RevolutionCounter {
	return &RevolutionCounter{line: line, debounce: debounce}
}

// Revolutions returns the number of counted closures, modulo 2^32.
func (c *RevolutionCounter) Revolutions() uint32 {
	return c.revolutions
}

// OnEdge counts e and returns the resulting sample stamped with the wall
// clock time now. ok is false when the edge belongs to another line or was
// discarded as bounce.
func (c *RevolutionCounter) OnEdge(e Edge, now time.Time) (s sensor.Sample, ok bool) {
	if e.Line != c.line {
		return nil, false
	}
	if c.seen && e.At-c.last < c.debounce {
		return nil, false
	}
	c.seen = true
	c.last = e.At
	c.revolutions++

	reading := sensor.CounterReading{
		Revolutions: c.revolutions,
		EventTicks:  counter.Ticks(e.At),
	}
	if c.line == LineCrank {
		return sensor.CadenceSample{Time: now, CounterReading: reading}, true
	}
	return sensor.WheelSample{Time: now, CounterReading: reading}, true
}

// Count reads edges from src until ctx is done or the source closes, passing
// every counted sample to emit.
func Count(ctx context.Context, src EdgeSource, now func() time.Time, emit func(sensor.Sample), counters ...*RevolutionCounter) error {
	edges := src.Edges()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-edges:
			if !ok {
				return nil
			}
			t := now()
			for _, c := range counters {
				if s, ok := c.OnEdge(e, t); ok {
					emit(s)
				}
			}
		}
	}
}
