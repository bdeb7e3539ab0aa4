package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/trip-fusion/internal/stats"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "tcp://192.168.1.200:1883", cfg.Broker)
	assert.Equal(t, "fitness/trip", cfg.TopicPrefix)
	assert.Equal(t, ":80", cfg.HTTPAddr)
	assert.Equal(t, time.Second, cfg.Tick)
	assert.Equal(t, 15*time.Minute, cfg.Heartbeat)
	assert.Equal(t, 31*time.Second, cfg.GPS.SignalLostBase+cfg.GPS.MinRecordingInterval)
	assert.Equal(t, -1, cfg.GPIO.WheelPin)
	assert.Equal(t, stats.DefaultConfig(), cfg.Stats())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TRIPFUSION_BROKER", "tcp://broker:1883")
	t.Setenv("TRIPFUSION_TICK", "250ms")
	t.Setenv("TRIPFUSION_GPS_BAD_ACCURACY", "20")
	t.Setenv("TRIPFUSION_RECORDING_SPEED_BUFFER", "10")
	t.Setenv("TRIPFUSION_SENSORS_WHEEL_CIRCUMFERENCE", "2.096")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "tcp://broker:1883", cfg.Broker)
	assert.Equal(t, 250*time.Millisecond, cfg.Tick)
	assert.Equal(t, 20.0, cfg.GPS.BadAccuracy)
	assert.Equal(t, 10, cfg.Recording.SpeedBuffer)
	assert.Equal(t, 2.096, cfg.Sensors.WheelCircumference)
	assert.Equal(t, 20.0, cfg.Recorder().GPS.BadAccuracy)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trip-fusion.yaml")
	content := `
broker: tcp://file:1883
gpio:
  wheel_pin: 17
  cadence_pin: 27
recording:
  min_recording_distance: 2.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "tcp://file:1883", cfg.Broker)
	assert.Equal(t, 17, cfg.GPIO.WheelPin)
	assert.Equal(t, 27, cfg.GPIO.CadencePin)
	assert.Equal(t, 2.5, cfg.Stats().MinRecordingDistance)
	// Untouched keys keep their defaults.
	assert.Equal(t, 25, cfg.Recording.ElevationBuffer)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid, err := Load(New(), "")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero tick", func(c *Config) { c.Tick = 0 }},
		{"empty topic prefix", func(c *Config) { c.TopicPrefix = "" }},
		{"negative heartbeat", func(c *Config) { c.Heartbeat = -time.Second }},
		{"zero buffer", func(c *Config) { c.Recording.GradeBuffer = 0 }},
		{"zero acceleration", func(c *Config) { c.Recording.MaxAcceleration = 0 }},
		{"zero bad accuracy", func(c *Config) { c.GPS.BadAccuracy = 0 }},
		{"zero lost base", func(c *Config) { c.GPS.SignalLostBase = 0 }},
		{"negative recording interval", func(c *Config) { c.GPS.MinRecordingInterval = -time.Second }},
		{"zero max age", func(c *Config) { c.Sensors.MaxAge = 0 }},
		{"zero circumference", func(c *Config) { c.Sensors.WheelCircumference = 0 }},
		{"same pins", func(c *Config) { c.GPIO.WheelPin, c.GPIO.CadencePin = 17, 17 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}
}
