// Package config loads perfroute settings from defaults, an optional config
// file and PERFROUTE_ environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/placement"
	"github.com/OpenTraceLab/OpenTracePerf/pkg/router"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "PERFROUTE"

// Config holds application configuration.
type Config struct {
	Placement PlacementConfig `mapstructure:"placement"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// PlacementConfig holds optimizer knobs.
type PlacementConfig struct {
	Iterations     int  `mapstructure:"iterations"`
	Restarts       int  `mapstructure:"restarts"`
	AllowRotate    bool `mapstructure:"allow_rotate"`
	PreferredLimit int  `mapstructure:"preferred_limit"`
	// Seed fixes the optimizer seed; negative derives it from the project.
	Seed int64 `mapstructure:"seed"`
}

// RoutingConfig holds router knobs.
type RoutingConfig struct {
	MaxIterations    int     `mapstructure:"max_iterations"`
	PresentFactor    float64 `mapstructure:"present_factor"`
	PresentGrowth    float64 `mapstructure:"present_growth"`
	HistoryIncrement float64 `mapstructure:"history_increment"`
	HistoryWeight    float64 `mapstructure:"history_weight"`
	TurnPenalty      float64 `mapstructure:"turn_penalty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// TelemetryConfig selects the OpenTelemetry exporter: none or stdout.
type TelemetryConfig struct {
	Exporter string `mapstructure:"exporter"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("placement.iterations", placement.DefaultIterations)
	v.SetDefault("placement.restarts", placement.DefaultRestarts)
	v.SetDefault("placement.allow_rotate", true)
	v.SetDefault("placement.preferred_limit", placement.DefaultPreferredLimit)
	v.SetDefault("placement.seed", -1)

	v.SetDefault("routing.max_iterations", router.DefaultMaxIterations)
	v.SetDefault("routing.present_factor", router.DefaultPresentFactor)
	v.SetDefault("routing.present_growth", router.DefaultPresentGrowth)
	v.SetDefault("routing.history_increment", router.DefaultHistoryIncrement)
	v.SetDefault("routing.history_weight", router.DefaultHistoryWeight)
	v.SetDefault("routing.turn_penalty", router.DefaultTurnPenalty)

	v.SetDefault("log.level", "info")
	v.SetDefault("telemetry.exporter", "none")
}

// Load reads configuration. An explicit path must exist; without one a
// perfroute.{yaml,toml,json} in the working directory or
// $HOME/.config/perfroute is used when present.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("perfroute")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "perfroute"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings no component can honor.
func (c Config) Validate() error {
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Telemetry.Exporter {
	case "none", "stdout":
	default:
		return fmt.Errorf("config: unknown telemetry exporter %q", c.Telemetry.Exporter)
	}
	if c.Placement.Seed > int64(^uint32(0)) {
		return fmt.Errorf("config: placement.seed %d does not fit in 32 bits", c.Placement.Seed)
	}
	return nil
}

// LogLevel parses log.level.
func (c Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("config: log.level: %w", err)
	}
	return lvl, nil
}

// PlacementOptions builds optimizer options on top of the defaults.
func (c Config) PlacementOptions(logger *slog.Logger) *placement.Options {
	o := placement.DefaultOptions()
	o.Iterations = c.Placement.Iterations
	o.Restarts = c.Placement.Restarts
	o.AllowRotate = c.Placement.AllowRotate
	o.PreferredLimit = c.Placement.PreferredLimit
	if c.Placement.Seed >= 0 {
		seed := uint32(c.Placement.Seed)
		o.Seed = &seed
	}
	o.Logger = logger
	o.Validate()
	return o
}

// RouterOptions builds router options.
func (c Config) RouterOptions(logger *slog.Logger) *router.Options {
	o := &router.Options{
		MaxIterations:    c.Routing.MaxIterations,
		PresentFactor:    c.Routing.PresentFactor,
		PresentGrowth:    c.Routing.PresentGrowth,
		HistoryIncrement: c.Routing.HistoryIncrement,
		HistoryWeight:    c.Routing.HistoryWeight,
		TurnPenalty:      c.Routing.TurnPenalty,
		Logger:           logger,
	}
	o.Validate()
	return o
}
