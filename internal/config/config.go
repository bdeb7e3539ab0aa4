// Package config loads daemon settings from defaults, an optional config
// file, environment variables and command-line flags, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sweeney/trip-fusion/internal/gpsstatus"
	"github.com/sweeney/trip-fusion/internal/recorder"
	"github.com/sweeney/trip-fusion/internal/sensor"
	"github.com/sweeney/trip-fusion/internal/stats"
)

// EnvPrefix is prepended to every environment variable, e.g.
// TRIPFUSION_GPS_BAD_ACCURACY.
const EnvPrefix = "TRIPFUSION"

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid")

// Config is the complete daemon configuration.
type Config struct {
	Broker        string        `mapstructure:"broker"`
	TopicPrefix   string        `mapstructure:"topic_prefix"`
	HTTPAddr      string        `mapstructure:"http"`
	Tick          time.Duration `mapstructure:"tick"`
	Heartbeat     time.Duration `mapstructure:"heartbeat"`
	StatsInterval time.Duration `mapstructure:"stats_interval"`

	Recording Recording `mapstructure:"recording"`
	GPS       GPS       `mapstructure:"gps"`
	Sensors   Sensors   `mapstructure:"sensors"`
	GPIO      GPIO      `mapstructure:"gpio"`
}

// Recording tunes the statistics accumulator.
type Recording struct {
	ElevationBuffer      int     `mapstructure:"elevation_buffer"`
	GradeBuffer          int     `mapstructure:"grade_buffer"`
	RunBuffer            int     `mapstructure:"run_buffer"`
	SpeedBuffer          int     `mapstructure:"speed_buffer"`
	MinRecordingDistance float64 `mapstructure:"min_recording_distance"`
	NotMovingSpeed       float64 `mapstructure:"not_moving_speed"`
	MaxAcceleration      float64 `mapstructure:"max_acceleration"`
	ErrorSpeed           float64 `mapstructure:"error_speed"`
	MinGradeRun          float64 `mapstructure:"min_grade_run"`
}

// GPS tunes the signal status machine.
type GPS struct {
	BadAccuracy          float64       `mapstructure:"bad_accuracy"`
	MinRecordingInterval time.Duration `mapstructure:"min_recording_interval"`
	SignalLostBase       time.Duration `mapstructure:"signal_lost_base"`
}

// Sensors tunes the sensor registry.
type Sensors struct {
	MaxAge             time.Duration `mapstructure:"max_age"`
	WheelCircumference float64       `mapstructure:"wheel_circumference"`
}

// GPIO configures the reed switch inputs. A negative pin disables it.
type GPIO struct {
	Chip       string        `mapstructure:"chip"`
	WheelPin   int           `mapstructure:"wheel_pin"`
	CadencePin int           `mapstructure:"cadence_pin"`
	Debounce   time.Duration `mapstructure:"debounce"`
}

// New returns a viper instance wired for EnvPrefix with every default set.
// Callers may bind flags to it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	sc := stats.DefaultConfig()
	gc := gpsstatus.DefaultConfig()

	v.SetDefault("broker", "tcp://192.168.1.200:1883")
	v.SetDefault("topic_prefix", "fitness/trip")
	v.SetDefault("http", ":80")
	v.SetDefault("tick", time.Second)
	v.SetDefault("heartbeat", 15*time.Minute)
	v.SetDefault("stats_interval", 10*time.Second)

	v.SetDefault("recording.elevation_buffer", sc.ElevationBufferSize)
	v.SetDefault("recording.grade_buffer", sc.GradeBufferSize)
	v.SetDefault("recording.run_buffer", sc.RunBufferSize)
	v.SetDefault("recording.speed_buffer", sc.SpeedBufferSize)
	v.SetDefault("recording.min_recording_distance", sc.MinRecordingDistance)
	v.SetDefault("recording.not_moving_speed", sc.NotMovingSpeed)
	v.SetDefault("recording.max_acceleration", sc.MaxAcceleration)
	v.SetDefault("recording.error_speed", sc.ErrorSpeed)
	v.SetDefault("recording.min_grade_run", sc.MinGradeRun)

	v.SetDefault("gps.bad_accuracy", gc.BadAccuracy)
	v.SetDefault("gps.min_recording_interval", gc.MinRecordingInterval)
	v.SetDefault("gps.signal_lost_base", gc.SignalLostBase)

	v.SetDefault("sensors.max_age", sensor.DefaultMaxAge)
	v.SetDefault("sensors.wheel_circumference", 2.1)

	v.SetDefault("gpio.chip", "gpiochip0")
	v.SetDefault("gpio.wheel_pin", -1)
	v.SetDefault("gpio.cadence_pin", -1)
	v.SetDefault("gpio.debounce", 5*time.Millisecond)
}

// Load reads file (when not empty) into v and returns the validated result.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every constraint the engine relies on.
func (c Config) Validate() error {
	if c.TopicPrefix == "" {
		return fmt.Errorf("%w: topic_prefix must not be empty", ErrInvalid)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("%w: tick must be positive, got %v", ErrInvalid, c.Tick)
	}
	if c.Heartbeat < 0 {
		return fmt.Errorf("%w: heartbeat must not be negative, got %v", ErrInvalid, c.Heartbeat)
	}
	if c.StatsInterval < 0 {
		return fmt.Errorf("%w: stats_interval must not be negative, got %v", ErrInvalid, c.StatsInterval)
	}
	if err := c.Recorder().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !(c.Sensors.WheelCircumference > 0) {
		return fmt.Errorf("%w: sensors.wheel_circumference must be positive, got %v", ErrInvalid, c.Sensors.WheelCircumference)
	}
	if c.GPIO.WheelPin >= 0 && c.GPIO.WheelPin == c.GPIO.CadencePin {
		return fmt.Errorf("%w: gpio.wheel_pin and gpio.cadence_pin must differ, both %d", ErrInvalid, c.GPIO.WheelPin)
	}
	if c.GPIO.Debounce < 0 {
		return fmt.Errorf("%w: gpio.debounce must not be negative, got %v", ErrInvalid, c.GPIO.Debounce)
	}
	return nil
}

// Stats returns the accumulator tuning.
func (c Config) Stats() stats.Config {
	r := c.Recording
	return stats.Config{
		ElevationBufferSize:  r.ElevationBuffer,
		GradeBufferSize:      r.GradeBuffer,
		RunBufferSize:        r.RunBuffer,
		SpeedBufferSize:      r.SpeedBuffer,
		MinRecordingDistance: r.MinRecordingDistance,
		NotMovingSpeed:       r.NotMovingSpeed,
		MaxAcceleration:      r.MaxAcceleration,
		ErrorSpeed:           r.ErrorSpeed,
		MinGradeRun:          r.MinGradeRun,
	}
}

// Recorder returns the engine tuning.
func (c Config) Recorder() recorder.Config {
	return recorder.Config{
		Stats:   c.Stats(),
		Sensors: sensor.Config{MaxAge: c.Sensors.MaxAge},
		GPS: gpsstatus.Config{
			BadAccuracy:          c.GPS.BadAccuracy,
			MinRecordingInterval: c.GPS.MinRecordingInterval,
			SignalLostBase:       c.GPS.SignalLostBase,
		},
	}
}
