package replay

import (
	"math"
	"time"

	"github.com/sweeney/trip-fusion/internal/counter"
	"github.com/sweeney/trip-fusion/internal/sensor"
)

// crankCounter turns instantaneous cadence values into the cumulative
// counter readings a crank sensor would have sent. The event time is that of
// the last whole revolution, so the sensor package recovers the cadence.
type crankCounter struct {
	origin time.Time
	last   time.Time
	event  time.Duration // since origin
	revs   float64
	rpm    float64 // held since last
	seen   bool
}

func (c *crankCounter) next(t time.Time, rpm float64) sensor.CounterReading {
	if !c.seen {
		c.origin, c.last, c.seen = t, t, true
	}
	if dt := t.Sub(c.last); dt > 0 && c.rpm > 0 {
		perSecond := c.rpm / 60
		c.revs += perSecond * dt.Seconds()
		partial := c.revs - math.Floor(c.revs)
		c.event = t.Sub(c.origin) - time.Duration(partial/perSecond*float64(time.Second))
	}
	c.last = t
	c.rpm = rpm

	return sensor.CounterReading{
		Revolutions: uint32(uint64(math.Floor(c.revs)) % counter.Uint32Modulus),
		EventTicks:  counter.Ticks(c.event),
	}
}
