package sensor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameOrAddress(t *testing.T) {
	assert.Equal(t, "Polar H10", Identity{Address: "AA", Name: "Polar H10"}.NameOrAddress())
	assert.Equal(t, "AA", Identity{Address: "AA"}.NameOrAddress())
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	assert.ErrorIs(t, Config{}.Validate(), ErrInvalidConfig)
}

func TestHeartRatePassthrough(t *testing.T) {
	h := NewHeartRate(Identity{Address: "hr"})
	_, ok := h.Value(t0)
	assert.False(t, ok)

	h.Add(Raw[float64]{Time: t0, Value: 142})
	v, ok := h.Value(t0.Add(DefaultMaxAge))
	require.True(t, ok, "a single sample yields a value")
	assert.Equal(t, 142.0, v)

	v, ok = h.Value(t0.Add(DefaultMaxAge + time.Millisecond))
	assert.False(t, ok)
	assert.Zero(t, v)
}

func TestPowerPassthrough(t *testing.T) {
	p := NewCyclingPower(Identity{Address: "pm"})
	p.Add(Raw[float64]{Time: t0, Value: 250})
	v, ok := p.Value(t0)
	require.True(t, ok)
	assert.Equal(t, 250.0, v)
}

func running(at time.Duration, speed, cadence, total float64) Raw[RunningReading] {
	return Raw[RunningReading]{
		Time:  t0.Add(at),
		Value: RunningReading{Speed: speed, Cadence: cadence, TotalDistance: total, HasTotalDistance: true},
	}
}

func TestRunningDistanceDelta(t *testing.T) {
	r := NewRunning(Identity{Address: "rscs"})
	r.Add(running(0, 3, 170, 1000))

	v, ok := r.Value(t0)
	require.True(t, ok)
	assert.Equal(t, 3.0, v.Speed)
	assert.Equal(t, 170.0, v.Cadence)
	assert.Zero(t, v.TotalDistance, "the first total only sets the base")

	r.Add(running(time.Second, 3.2, 172, 1003))
	r.Add(running(2*time.Second, 3.1, 171, 1006))
	v, _ = r.Value(t0.Add(2 * time.Second))
	assert.InDelta(t, 6.0, v.TotalDistance, 1e-9)
	assert.InDelta(t, 6.0, v.IntervalDistance, 1e-9)

	r.ResetInterval()
	// Sensor restarted its counter: rebase without a delta.
	r.Add(running(3*time.Second, 3, 170, 2))
	r.Add(running(4*time.Second, 3, 170, 5))
	v, _ = r.Value(t0.Add(4 * time.Second))
	assert.InDelta(t, 3.0, v.IntervalDistance, 1e-9)
	assert.InDelta(t, 9.0, v.TotalDistance, 1e-9)
}

func TestRunningStale(t *testing.T) {
	r := NewRunning(Identity{Address: "rscs"})
	r.Add(running(0, 3, 170, 10))
	r.Add(running(time.Second, 3, 170, 13))

	v, ok := r.Value(t0.Add(time.Hour))
	assert.False(t, ok)
	assert.Zero(t, v.Speed)
	assert.Zero(t, v.Cadence)
	assert.InDelta(t, 3.0, v.TotalDistance, 1e-9)
}

func TestPressureAltitude(t *testing.T) {
	assert.InDelta(t, 0.0, PressureAltitude(1013.25), 1e-9)
	// About 111 m at 1000 hPa in the standard atmosphere.
	assert.InDelta(t, 110.9, PressureAltitude(1000), 0.1)
	assert.Less(t, PressureAltitude(1013.25), PressureAltitude(900))
}

func TestBarometerGainAndLoss(t *testing.T) {
	b := NewBarometer(Identity{Address: "baro"})
	push := func(at time.Duration, hPa float64) {
		b.Add(Raw[float64]{Time: t0.Add(at), Value: hPa})
	}

	push(0, 1000)
	push(time.Second, 1000)
	assert.False(t, b.HasValue(), "three samples are needed")
	push(2*time.Second, 1000)
	require.True(t, b.HasValue())

	v, _ := b.Value(t0.Add(2 * time.Second))
	assert.Zero(t, v.TotalGain)

	// Lower pressure means higher altitude.
	push(3*time.Second, 990)
	v, _ = b.Value(t0.Add(3 * time.Second))
	want := (PressureAltitude(990) - PressureAltitude(1000)) / 3
	assert.InDelta(t, want, v.IntervalGain, 1e-9)
	assert.InDelta(t, want, v.TotalGain, 1e-9)
	assert.Zero(t, v.TotalLoss)

	b.ResetInterval()
	push(4*time.Second, 1000)
	push(5*time.Second, 1000)
	push(6*time.Second, 1000)
	v, ok := b.Value(t0.Add(6 * time.Second))
	require.True(t, ok)
	assert.Zero(t, v.IntervalGain)
	assert.InDelta(t, want, v.IntervalLoss, 1e-9)
	assert.InDelta(t, want, v.TotalLoss, 1e-9)

	b.ResetTotal()
	v, _ = b.Value(t0.Add(6 * time.Second))
	assert.Equal(t, AltitudeChange{}, v)
}
