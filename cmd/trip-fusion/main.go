// Command trip-fusion records trips from GPS fixes and fitness sensor samples
// received over MQTT and publishes points, GPS status and statistics.
package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sweeney/trip-fusion/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"broker":              "broker",
	"topic-prefix":        "topic_prefix",
	"http":                "http",
	"tick":                "tick",
	"heartbeat":           "heartbeat",
	"stats-interval":      "stats_interval",
	"bad-accuracy":        "gps.bad_accuracy",
	"sensor-max-age":      "sensors.max_age",
	"wheel-circumference": "sensors.wheel_circumference",
	"gpio-chip":           "gpio.chip",
	"pin-wheel":           "gpio.wheel_pin",
	"pin-cadence":         "gpio.cadence_pin",
	"debounce":            "gpio.debounce",
}

func newRootCmd() *cobra.Command {
	v := config.New()

	root := &cobra.Command{
		Use:           "trip-fusion",
		Short:         "Fuse GPS fixes and sensor samples into recorded trips",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Config file (yaml, json or toml)")
	flags.String("broker", v.GetString("broker"), "MQTT broker address")
	flags.String("topic-prefix", v.GetString("topic_prefix"), "MQTT topic prefix")
	flags.String("http", v.GetString("http"), "HTTP status address (empty to disable)")
	flags.Duration("tick", v.GetDuration("tick"), "GPS status check interval")
	flags.Duration("heartbeat", v.GetDuration("heartbeat"), "Heartbeat interval (0 to disable)")
	flags.Duration("stats-interval", v.GetDuration("stats_interval"), "Statistics publish interval (0 to disable)")
	flags.Float64("bad-accuracy", v.GetFloat64("gps.bad_accuracy"), "Accuracy in meters above which a fix is bad")
	flags.Duration("sensor-max-age", v.GetDuration("sensors.max_age"), "Age after which a sensor reading is stale")
	flags.Float64("wheel-circumference", v.GetFloat64("sensors.wheel_circumference"), "Wheel circumference in meters")
	flags.String("gpio-chip", v.GetString("gpio.chip"), "GPIO chip for the reed switches")
	flags.Int("pin-wheel", v.GetInt("gpio.wheel_pin"), "BCM pin of the wheel reed switch (-1 to disable)")
	flags.Int("pin-cadence", v.GetInt("gpio.cadence_pin"), "BCM pin of the crank reed switch (-1 to disable)")
	flags.Duration("debounce", v.GetDuration("gpio.debounce"), "Reed switch debounce period")

	if err := bindFlags(v, flags); err != nil {
		// Only reachable if flagKeys and the flag set disagree.
		panic(err)
	}

	load := func(cmd *cobra.Command) (config.Config, error) {
		file, _ := cmd.Flags().GetString("config")
		return config.Load(v, file)
	}

	root.AddCommand(
		newRunCmd(load),
		newReplayCmd(load),
		newPrintStateCmd(load),
	)
	return root
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			return fmt.Errorf("bind flag %s: not defined", name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

type loader func(cmd *cobra.Command) (config.Config, error)

func newRunCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the recording daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
}

func newPrintStateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "print-state",
		Short: "Print the current reed switch states and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			return printState(cmd.OutOrStdout(), cfg)
		},
	}
}
