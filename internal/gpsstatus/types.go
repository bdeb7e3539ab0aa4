// Package gpsstatus classifies GPS signal quality from the fixes received and
// the time since the last one. It has no timers or goroutines: the caller
// drives it with explicit now timestamps, including a periodic Tick.
package gpsstatus

import (
	"errors"
	"fmt"
	"time"
)

// State is the classified GPS signal quality.
type State string

const (
	StateDisabled State = "DISABLED"
	StateEnabled  State = "ENABLED"
	StateFix      State = "SIGNAL_FIX"
	StateBad      State = "SIGNAL_BAD"
	StateLost     State = "SIGNAL_LOST"
)

// Event is a state transition to be published.
type Event struct {
	Timestamp time.Time
	From      State
	To        State
}

func (e Event) String() string {
	return fmt.Sprintf("%s -> %s", e.From, e.To)
}

// Counts tracks how often each state was entered since startup.
type Counts struct {
	Disabled int
	Enabled  int
	Fix      int
	Bad      int
	Lost     int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	State     State
	Counts    Counts
}

// Provider reports whether the location source is actually enabled.
type Provider interface {
	Enabled() bool
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() bool

func (f ProviderFunc) Enabled() bool { return f() }

// DefaultSignalLostBase is added to the minimum recording interval to get
// the time without fixes after which the signal counts as lost.
const DefaultSignalLostBase = 30 * time.Second

// ErrInvalidConfig is wrapped by every Config validation error.
var ErrInvalidConfig = errors.New("gpsstatus: invalid config")

// Config holds the thresholds of the machine.
type Config struct {
	// BadAccuracy in meters; fixes less accurate than this are SIGNAL_BAD.
	BadAccuracy          float64
	MinRecordingInterval time.Duration
	SignalLostBase       time.Duration
}

// DefaultConfig returns the thresholds used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		BadAccuracy:          50,
		MinRecordingInterval: time.Second,
		SignalLostBase:       DefaultSignalLostBase,
	}
}

// Validate reports thresholds the machine cannot work with.
func (c Config) Validate() error {
	if !(c.BadAccuracy > 0) {
		return fmt.Errorf("%w: bad accuracy must be positive, got %v", ErrInvalidConfig, c.BadAccuracy)
	}
	if c.MinRecordingInterval < 0 {
		return fmt.Errorf("%w: min recording interval must not be negative, got %v", ErrInvalidConfig, c.MinRecordingInterval)
	}
	if c.SignalLostBase <= 0 {
		return fmt.Errorf("%w: signal lost base must be positive, got %v", ErrInvalidConfig, c.SignalLostBase)
	}
	return nil
}
