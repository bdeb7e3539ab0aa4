package gpsstatus

import (
	"log"
	"time"

	"github.com/sweeney/trip-fusion/internal/location"
)

// Machine tracks GPS signal quality. Every method returns the transitions it
// caused; a call that leaves the state unchanged returns none.
//
// Not safe for concurrent use.
type Machine struct {
	cfg      Config
	provider Provider

	state   State
	running bool

	enabledAt time.Time // reference for the lost check before any fix
	lastFix   location.Fix
	lastFixAt time.Time // receipt time of lastFix
	hasFix    bool

	armed     bool
	nextCheck time.Time

	startTime     time.Time
	lastHeartbeat time.Time
	counts        Counts
}

// New creates a stopped machine in DISABLED.
func New(cfg Config, provider Provider) *Machine {
	if cfg.SignalLostBase <= 0 {
		cfg.SignalLostBase = DefaultSignalLostBase
	}
	return &Machine{cfg: cfg, provider: provider, state: StateDisabled}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Counts returns how often each state was entered.
func (m *Machine) Counts() Counts {
	return m.counts
}

// LostThreshold is the time without fixes after which the signal is lost.
func (m *Machine) LostThreshold() time.Duration {
	return m.cfg.SignalLostBase + m.cfg.MinRecordingInterval
}

// NextCheck returns when Tick will next re-evaluate, and false when no
// check is armed.
func (m *Machine) NextCheck() (time.Time, bool) {
	return m.nextCheck, m.armed
}

// Start begins tracking. The machine enters ENABLED right away when the
// provider is already on.
func (m *Machine) Start(now time.Time) []Event {
	if m.running {
		return nil
	}
	m.running = true
	m.startTime = now
	m.lastHeartbeat = now
	if !m.provider.Enabled() {
		return nil
	}
	return m.enable(now)
}

// Stop ends tracking and reports DISABLED. Nothing fires afterwards.
func (m *Machine) Stop(now time.Time) []Event {
	if !m.running {
		return nil
	}
	events := m.transition(StateDisabled, now)
	m.running = false
	m.disarm()
	m.clearFix()
	return events
}

// OnFix records a position fix received at now and re-evaluates.
// Fixes while DISABLED are ignored; the provider must be enabled first.
func (m *Machine) OnFix(fix location.Fix, now time.Time) []Event {
	if !m.running || fix.IsSentinel() {
		return nil
	}
	if m.state == StateDisabled {
		log.Printf("gpsstatus: ignoring fix while disabled")
		return nil
	}
	m.lastFix = fix
	m.lastFixAt = now
	m.hasFix = true
	return m.check(now)
}

// OnProviderEnabled handles the location source being switched on. The
// provider is asked again, since the notification may be stale; if it
// reports off the call is handled as a disable.
func (m *Machine) OnProviderEnabled(now time.Time) []Event {
	if !m.running {
		return nil
	}
	if !m.provider.Enabled() {
		return m.OnProviderDisabled(now)
	}
	if m.state != StateDisabled {
		return nil
	}
	return m.enable(now)
}

// OnProviderDisabled forces DISABLED and forgets the last fix.
func (m *Machine) OnProviderDisabled(now time.Time) []Event {
	if !m.running {
		return nil
	}
	m.clearFix()
	m.disarm()
	return m.transition(StateDisabled, now)
}

// Tick re-evaluates the state when the armed check is due.
func (m *Machine) Tick(now time.Time) []Event {
	if !m.running || !m.armed || now.Before(m.nextCheck) {
		return nil
	}
	return m.check(now)
}

// SetBadAccuracy changes the accuracy threshold. It applies from the next
// evaluation.
func (m *Machine) SetBadAccuracy(meters float64) {
	m.cfg.BadAccuracy = meters
}

// SetMinRecordingInterval changes the lost threshold. It applies from the
// next evaluation.
func (m *Machine) SetMinRecordingInterval(d time.Duration) {
	m.cfg.MinRecordingInterval = d
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or Start). Returns nil when not running or when interval
// is <= 0 (disabled).
func (m *Machine) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 || !m.running {
		return nil
	}
	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		State:     m.state,
		Counts:    m.counts,
	}
}

func (m *Machine) enable(now time.Time) []Event {
	m.enabledAt = now
	m.clearFix()
	m.arm(now)
	return m.transition(StateEnabled, now)
}

// check classifies the signal: lost after too long without a fix, else by
// the accuracy of the last fix.
func (m *Machine) check(now time.Time) []Event {
	reference := m.enabledAt
	if m.hasFix {
		reference = m.lastFixAt
	}

	next := m.state
	switch {
	case now.Sub(reference) > m.LostThreshold():
		next = StateLost
	case !m.hasFix:
		// Still waiting for the first fix.
	case m.lastFix.FulfillsAccuracy(m.cfg.BadAccuracy):
		next = StateFix
	default:
		next = StateBad
	}

	if next == StateLost {
		m.disarm()
	} else {
		m.arm(now)
	}
	return m.transition(next, now)
}

func (m *Machine) transition(to State, now time.Time) []Event {
	if to == m.state {
		return nil
	}
	e := Event{Timestamp: now, From: m.state, To: to}
	m.state = to
	switch to {
	case StateDisabled:
		m.counts.Disabled++
	case StateEnabled:
		m.counts.Enabled++
	case StateFix:
		m.counts.Fix++
	case StateBad:
		m.counts.Bad++
	case StateLost:
		m.counts.Lost++
	}
	log.Printf("gpsstatus: %s", e)
	return []Event{e}
}

// arm schedules the next check just past the lost threshold, since the
// signal is only lost once the threshold is exceeded.
func (m *Machine) arm(now time.Time) {
	m.armed = true
	m.nextCheck = now.Add(m.LostThreshold() + time.Nanosecond)
}

func (m *Machine) disarm() {
	m.armed = false
	m.nextCheck = time.Time{}
}

func (m *Machine) clearFix() {
	m.lastFix = location.Fix{}
	m.lastFixAt = time.Time{}
	m.hasFix = false
}
