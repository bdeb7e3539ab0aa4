// Package sensor turns decoded wireless sensor samples into staleness-aware
// readings, one aggregator per channel, and fuses them for each recorded
// point.
package sensor

import (
	"errors"
	"fmt"
	"time"
)

// DefaultMaxAge is how long a reading stays current after its last sample.
const DefaultMaxAge = 5 * time.Second

// ErrInvalidConfig is returned for a misconfigured registry or aggregator.
var ErrInvalidConfig = errors.New("sensor: invalid config")

// Kind identifies a sensor channel.
type Kind string

const (
	KindHeartRate Kind = "heart_rate"
	KindCadence   Kind = "cadence"
	KindWheel     Kind = "wheel"
	KindPower     Kind = "power"
	KindRunning   Kind = "running"
	KindBarometer Kind = "barometer"
)

// Kinds lists every channel in a fixed order.
var Kinds = []Kind{KindHeartRate, KindCadence, KindWheel, KindPower, KindRunning, KindBarometer}

// Raw is a single timestamped sample as delivered by the sensor source.
type Raw[T any] struct {
	Time  time.Time
	Value T
}

// Identity names the device behind a channel.
type Identity struct {
	Address string
	Name    string
}

// NameOrAddress returns the human name when known, else the address.
func (id Identity) NameOrAddress() string {
	if id.Name != "" {
		return id.Name
	}
	return id.Address
}

// Config holds registry-wide settings.
type Config struct {
	// MaxAge after which a channel reports its none value.
	MaxAge time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{MaxAge: DefaultMaxAge}
}

// Validate reports an unusable configuration.
func (c Config) Validate() error {
	if c.MaxAge <= 0 {
		return fmt.Errorf("%w: max age must be positive, got %v", ErrInvalidConfig, c.MaxAge)
	}
	return nil
}

// Aggregator is implemented by the channel types of this package only:
// *HeartRate, *CyclingCadence, *CyclingDistanceSpeed, *CyclingPower,
// *Running and *Barometer.
type Aggregator interface {
	Kind() Kind
	Identity() Identity
	HasValue() bool
	// ResetInterval clears per-interval accumulations; totals keep growing.
	ResetInterval()
	// ResetTotal clears long-term accumulations as well.
	ResetTotal()

	base() *channel
	forget()
}

// channel is the state common to every aggregator.
type channel struct {
	id       Identity
	maxAge   time.Duration
	updated  time.Time // timestamp of the last sample that produced a value
	hasValue bool
}

func newChannel(id Identity) channel {
	return channel{id: id, maxAge: DefaultMaxAge}
}

// Identity returns the device behind the channel.
func (c *channel) Identity() Identity { return c.id }

// HasValue reports whether a value was ever computed.
func (c *channel) HasValue() bool { return c.hasValue }

func (c *channel) base() *channel { return c }

func (c *channel) mark(t time.Time) {
	c.updated = t
	c.hasValue = true
}

// fresh reports whether the value may be read at now.
func (c *channel) fresh(now time.Time) bool {
	return c.hasValue && now.Sub(c.updated) <= c.maxAge
}
