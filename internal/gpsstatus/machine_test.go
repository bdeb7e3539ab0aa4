package gpsstatus

import (
	"errors"
	"testing"
	"time"

	"github.com/sweeney/trip-fusion/internal/location"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeProvider struct {
	enabled bool
}

func (p *fakeProvider) Enabled() bool { return p.enabled }

func fixWithAccuracy(at time.Time, acc float64) location.Fix {
	return location.Fix{
		Kind:        location.KindPosition,
		Time:        at,
		Latitude:    46,
		Longitude:   7,
		Accuracy:    acc,
		HasAccuracy: true,
	}
}

func testConfig() Config {
	return Config{BadAccuracy: 20, MinRecordingInterval: time.Second, SignalLostBase: 30 * time.Second}
}

func started(t *testing.T) *Machine {
	t.Helper()
	m := New(testConfig(), &fakeProvider{enabled: true})
	events := m.Start(t0)
	if len(events) != 1 || events[0].From != StateDisabled || events[0].To != StateEnabled {
		t.Fatalf("Start: got %v, want DISABLED -> ENABLED", events)
	}
	return m
}

func expectTransition(t *testing.T, events []Event, from, to State) {
	t.Helper()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d: %v", len(events), events)
	}
	if events[0].From != from || events[0].To != to {
		t.Errorf("got %s, want %s -> %s", events[0], from, to)
	}
}

func TestNewIsDisabled(t *testing.T) {
	m := New(testConfig(), &fakeProvider{})
	if m.State() != StateDisabled {
		t.Errorf("expected DISABLED, got %s", m.State())
	}
	if m.LostThreshold() != 31*time.Second {
		t.Errorf("expected lost threshold 31s, got %v", m.LostThreshold())
	}
}

func TestStartWithProviderOff(t *testing.T) {
	m := New(testConfig(), &fakeProvider{enabled: false})
	if events := m.Start(t0); len(events) != 0 {
		t.Errorf("expected no events, got %v", events)
	}
	if m.State() != StateDisabled {
		t.Errorf("expected DISABLED, got %s", m.State())
	}
	if _, armed := m.NextCheck(); armed {
		t.Error("no check should be armed while disabled")
	}
}

func TestFixAccuracyClassification(t *testing.T) {
	m := started(t)

	expectTransition(t, m.OnFix(fixWithAccuracy(t0, 5), t0), StateEnabled, StateFix)

	// Same quality again: no duplicate notification.
	if events := m.OnFix(fixWithAccuracy(t0.Add(time.Second), 5), t0.Add(time.Second)); len(events) != 0 {
		t.Errorf("expected no events, got %v", events)
	}

	expectTransition(t, m.OnFix(fixWithAccuracy(t0.Add(2*time.Second), 35), t0.Add(2*time.Second)), StateFix, StateBad)
	expectTransition(t, m.OnFix(fixWithAccuracy(t0.Add(3*time.Second), 20), t0.Add(3*time.Second)), StateBad, StateFix)

	noAccuracy := location.Fix{Kind: location.KindPosition, Time: t0.Add(4 * time.Second), Latitude: 46, Longitude: 7}
	expectTransition(t, m.OnFix(noAccuracy, t0.Add(4*time.Second)), StateFix, StateBad)
}

func TestLostExactlyOnceWithoutFix(t *testing.T) {
	m := started(t)

	var lost int
	for s := 1; s <= 180; s++ {
		for _, e := range m.Tick(t0.Add(time.Duration(s) * time.Second)) {
			if e.To == StateLost {
				lost++
			}
		}
	}
	if lost != 1 {
		t.Errorf("expected exactly 1 SIGNAL_LOST event, got %d", lost)
	}
	if m.State() != StateLost {
		t.Errorf("expected SIGNAL_LOST, got %s", m.State())
	}
	if _, armed := m.NextCheck(); armed {
		t.Error("check should be cancelled once lost")
	}
}

func TestLostAfterFixesStop(t *testing.T) {
	m := started(t)
	m.OnFix(fixWithAccuracy(t0, 5), t0)

	// Nothing is due before the threshold.
	if events := m.Tick(t0.Add(30 * time.Second)); len(events) != 0 {
		t.Errorf("expected no events before threshold, got %v", events)
	}
	// At exactly the threshold the signal is not yet lost.
	if events := m.Tick(t0.Add(m.LostThreshold())); len(events) != 0 {
		t.Errorf("expected no events at threshold, got %v", events)
	}

	next, armed := m.NextCheck()
	if !armed {
		t.Fatal("expected an armed check")
	}
	if want := t0.Add(m.LostThreshold() + time.Nanosecond); !next.Equal(want) {
		t.Errorf("next check: got %v, want %v", next, want)
	}
	expectTransition(t, m.Tick(next), StateFix, StateLost)

	// A fresh fix recovers.
	later := next.Add(time.Second)
	expectTransition(t, m.OnFix(fixWithAccuracy(later, 5), later), StateLost, StateFix)
}

func TestLostOnFirstTickPastThreshold(t *testing.T) {
	m := started(t)
	m.OnFix(fixWithAccuracy(t0, 5), t0)

	var lostAt time.Duration
	for s := 1; s <= 120 && lostAt == 0; s++ {
		at := time.Duration(s) * time.Second
		for _, e := range m.Tick(t0.Add(at)) {
			if e.To == StateLost {
				lostAt = at
			}
		}
		if at <= m.LostThreshold() && m.State() != StateFix {
			t.Fatalf("state %s after %v, want SIGNAL_FIX up to the threshold", m.State(), at)
		}
	}
	if want := m.LostThreshold() + time.Second; lostAt != want {
		t.Errorf("SIGNAL_LOST after %v, want %v (first tick past %v)", lostAt, want, m.LostThreshold())
	}
}

func TestLostOnLateFix(t *testing.T) {
	m := started(t)
	// The lost check only runs on Tick; a late first fix is judged on its own.
	late := t0.Add(time.Minute)
	expectTransition(t, m.OnFix(fixWithAccuracy(late, 5), late), StateEnabled, StateFix)
}

func TestProviderDisabled(t *testing.T) {
	m := started(t)
	m.OnFix(fixWithAccuracy(t0, 5), t0)

	expectTransition(t, m.OnProviderDisabled(t0.Add(time.Second)), StateFix, StateDisabled)
	if _, armed := m.NextCheck(); armed {
		t.Error("check should be cancelled when disabled")
	}
	if events := m.OnProviderDisabled(t0.Add(2 * time.Second)); len(events) != 0 {
		t.Errorf("repeated disable: expected no events, got %v", events)
	}
	if events := m.OnFix(fixWithAccuracy(t0.Add(3*time.Second), 5), t0.Add(3*time.Second)); len(events) != 0 {
		t.Errorf("fix while disabled: expected no events, got %v", events)
	}
	if events := m.Tick(t0.Add(time.Hour)); len(events) != 0 {
		t.Errorf("tick while disabled: expected no events, got %v", events)
	}
}

func TestProviderEnabledReverifies(t *testing.T) {
	p := &fakeProvider{enabled: true}
	m := New(testConfig(), p)
	m.Start(t0)
	m.OnProviderDisabled(t0.Add(time.Second))

	// The notification says enabled but the provider is still off.
	p.enabled = false
	if events := m.OnProviderEnabled(t0.Add(2 * time.Second)); len(events) != 0 {
		t.Errorf("expected no events, got %v", events)
	}
	if m.State() != StateDisabled {
		t.Errorf("expected DISABLED, got %s", m.State())
	}

	p.enabled = true
	expectTransition(t, m.OnProviderEnabled(t0.Add(3*time.Second)), StateDisabled, StateEnabled)
	if events := m.OnProviderEnabled(t0.Add(4 * time.Second)); len(events) != 0 {
		t.Errorf("repeated enable: expected no events, got %v", events)
	}
}

func TestProviderEnabledWhileRunningButOff(t *testing.T) {
	p := &fakeProvider{enabled: true}
	m := New(testConfig(), p)
	m.Start(t0)
	m.OnFix(fixWithAccuracy(t0, 5), t0)

	p.enabled = false
	expectTransition(t, m.OnProviderEnabled(t0.Add(time.Second)), StateFix, StateDisabled)
}

func TestStop(t *testing.T) {
	m := started(t)
	m.OnFix(fixWithAccuracy(t0, 5), t0)

	expectTransition(t, m.Stop(t0.Add(time.Second)), StateFix, StateDisabled)

	if events := m.Tick(t0.Add(time.Hour)); len(events) != 0 {
		t.Errorf("tick after stop: expected no events, got %v", events)
	}
	if events := m.OnFix(fixWithAccuracy(t0.Add(2*time.Second), 5), t0.Add(2*time.Second)); len(events) != 0 {
		t.Errorf("fix after stop: expected no events, got %v", events)
	}
	if events := m.OnProviderEnabled(t0.Add(3 * time.Second)); len(events) != 0 {
		t.Errorf("enable after stop: expected no events, got %v", events)
	}
	if events := m.Stop(t0.Add(4 * time.Second)); len(events) != 0 {
		t.Errorf("second stop: expected no events, got %v", events)
	}
}

func TestThresholdSetters(t *testing.T) {
	m := started(t)
	m.OnFix(fixWithAccuracy(t0, 35), t0)
	if m.State() != StateBad {
		t.Fatalf("expected SIGNAL_BAD, got %s", m.State())
	}

	m.SetBadAccuracy(50)
	expectTransition(t, m.OnFix(fixWithAccuracy(t0.Add(time.Second), 35), t0.Add(time.Second)), StateBad, StateFix)

	m.SetMinRecordingInterval(10 * time.Second)
	if m.LostThreshold() != 40*time.Second {
		t.Errorf("expected lost threshold 40s, got %v", m.LostThreshold())
	}
}

func TestCounts(t *testing.T) {
	m := started(t)
	m.OnFix(fixWithAccuracy(t0, 5), t0)
	m.OnFix(fixWithAccuracy(t0.Add(time.Second), 50), t0.Add(time.Second))
	m.OnFix(fixWithAccuracy(t0.Add(2*time.Second), 5), t0.Add(2*time.Second))

	want := Counts{Enabled: 1, Fix: 2, Bad: 1}
	if got := m.Counts(); got != want {
		t.Errorf("Counts: got %+v, want %+v", got, want)
	}
}

func TestCheckHeartbeat(t *testing.T) {
	m := New(testConfig(), &fakeProvider{enabled: true})

	if hb := m.CheckHeartbeat(t0, time.Minute); hb != nil {
		t.Error("expected no heartbeat before Start")
	}
	m.Start(t0)

	if hb := m.CheckHeartbeat(t0.Add(30*time.Second), time.Minute); hb != nil {
		t.Error("expected no heartbeat before interval")
	}
	if hb := m.CheckHeartbeat(t0.Add(2*time.Minute), 0); hb != nil {
		t.Error("expected no heartbeat with interval 0")
	}

	hb := m.CheckHeartbeat(t0.Add(time.Minute), time.Minute)
	if hb == nil {
		t.Fatal("expected heartbeat")
	}
	if hb.Uptime != time.Minute {
		t.Errorf("Uptime: got %v, want 1m", hb.Uptime)
	}
	if hb.State != StateEnabled {
		t.Errorf("State: got %s, want ENABLED", hb.State)
	}
	if hb.Counts.Enabled != 1 {
		t.Errorf("Counts.Enabled: got %d, want 1", hb.Counts.Enabled)
	}

	if hb := m.CheckHeartbeat(t0.Add(90*time.Second), time.Minute); hb != nil {
		t.Error("expected no heartbeat until the next interval")
	}
}

func TestProviderFunc(t *testing.T) {
	on := ProviderFunc(func() bool { return true })
	if !on.Enabled() {
		t.Error("ProviderFunc should return the function's result")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig: unexpected error: %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero bad accuracy", Config{BadAccuracy: 0, SignalLostBase: time.Second}},
		{"negative bad accuracy", Config{BadAccuracy: -1, SignalLostBase: time.Second}},
		{"negative interval", Config{BadAccuracy: 20, MinRecordingInterval: -time.Second, SignalLostBase: time.Second}},
		{"zero lost base", Config{BadAccuracy: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate: got %v, want ErrInvalidConfig", err)
			}
		})
	}
}
