package stats

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by New for a misconfigured accumulator.
var ErrInvalidConfig = errors.New("stats: invalid config")

// Config holds the accumulator's tuning. Distances are meters, speeds m/s.
type Config struct {
	ElevationBufferSize int
	GradeBufferSize     int
	RunBufferSize       int
	SpeedBufferSize     int

	// MinRecordingDistance below which a fix without movement speed is
	// treated as stationary.
	MinRecordingDistance float64
	// NotMovingSpeed is the reported speed under which the user is at rest.
	NotMovingSpeed float64
	// MaxAcceleration bounds plausible speed changes, in m/s per millisecond.
	MaxAcceleration float64
	// ErrorSpeed is a device error value; readings within 1 m/s are dropped.
	ErrorSpeed float64
	// MinGradeRun is the smallest smoothed run used as a grade denominator.
	MinGradeRun float64
}

// DefaultConfig returns the tuning used on recording devices.
func DefaultConfig() Config {
	return Config{
		ElevationBufferSize:  25,
		GradeBufferSize:      5,
		RunBufferSize:        25,
		SpeedBufferSize:      25,
		MinRecordingDistance: 5,
		NotMovingSpeed:       0.224,
		MaxAcceleration:      0.02, // 2g = 19.6 m/s² ≈ 0.02 m/s per ms
		ErrorSpeed:           128,
		MinGradeRun:          5,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	sizes := []struct {
		name string
		v    int
	}{
		{"elevation buffer size", c.ElevationBufferSize},
		{"grade buffer size", c.GradeBufferSize},
		{"run buffer size", c.RunBufferSize},
		{"speed buffer size", c.SpeedBufferSize},
	}
	for _, s := range sizes {
		if s.v < 1 {
			return fmt.Errorf("%w: %s must be at least 1, got %d", ErrInvalidConfig, s.name, s.v)
		}
	}
	if c.MinRecordingDistance < 0 {
		return fmt.Errorf("%w: min recording distance must not be negative, got %v", ErrInvalidConfig, c.MinRecordingDistance)
	}
	if c.NotMovingSpeed < 0 {
		return fmt.Errorf("%w: not moving speed must not be negative, got %v", ErrInvalidConfig, c.NotMovingSpeed)
	}
	if c.MaxAcceleration <= 0 {
		return fmt.Errorf("%w: max acceleration must be positive, got %v", ErrInvalidConfig, c.MaxAcceleration)
	}
	if c.MinGradeRun <= 0 {
		return fmt.Errorf("%w: min grade run must be positive, got %v", ErrInvalidConfig, c.MinGradeRun)
	}
	return nil
}
