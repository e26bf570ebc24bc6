package consumption

import "github.com/ja7ad/greensched/pkg/types"

// Config holds host power-transition coefficients.
// Units:
//   - StartupDelay/ShutdownDelay: seconds
//   - StartupPower/ShutdownPower: Watts drawn during the transition
//
// Every host is charged one startup and one shutdown per trial.
type Config struct {
	StartupDelay  float64     `yaml:"startup_delay" json:"startup_delay"`
	StartupPower  types.Watts `yaml:"startup_power" json:"startup_power"`
	ShutdownDelay float64     `yaml:"shutdown_delay" json:"shutdown_delay"`
	ShutdownPower types.Watts `yaml:"shutdown_power" json:"shutdown_power"`
}

// DefaultConfig returns a copy of the defaults.
func DefaultConfig() Config { return *_defaultConfig() }

// _defaultConfig returns the transition costs used in the reference experiments.
func _defaultConfig() *Config {
	return &Config{
		StartupDelay:  0, // s
		StartupPower:  5, // W
		ShutdownDelay: 3, // s
		ShutdownPower: 3, // W
	}
}

// Sample is one host observed over one window.
type Sample struct {
	Utilization float64 // [0,1], clamped
	DurationSec float64
}

// Result is the power and energy of one applied sample.
type Result struct {
	Power  types.Watts
	Energy types.Joules
}
