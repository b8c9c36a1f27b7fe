package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

const EnvPrefix = "BUILD_OPTIMIZER_"

// Overrides are run settings taken from the environment. Nil fields leave
// the data file value in place.
type Overrides struct {
	TopN          *int    `env:"TOP_N"`
	Workers       *int    `env:"WORKERS"`
	MaxCandidates *int    `env:"MAX_CANDIDATES"`
	LogLevel      *string `env:"LOG_LEVEL"`
	// ConfigPath replaces the data file location.
	ConfigPath string `env:"CONFIG"`
}

// ParseOverrides reads BUILD_OPTIMIZER_* variables from the process
// environment.
func ParseOverrides() (Overrides, error) {
	return parseOverrides(env.Options{Prefix: EnvPrefix})
}

func parseOverrides(opts env.Options) (Overrides, error) {
	var o Overrides
	if err := env.ParseWithOptions(&o, opts); err != nil {
		return Overrides{}, fmt.Errorf("parse env: %w", err)
	}
	return o, nil
}
