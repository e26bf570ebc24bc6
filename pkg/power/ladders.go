package power

import "github.com/ja7ad/greensched/pkg/types"

// Ladders from published DVFS tables, ascending by processing fraction.
var (
	// ViaC7M is the 2 GHz VIA C7-M processor, 0.4 GHz to 2.0 GHz.
	ViaC7M = []State{
		{Watts: 50, Fraction: 0.4 / 2.0},
		{Watts: 60, Fraction: 0.6 / 2.0},
		{Watts: 70, Fraction: 0.8 / 2.0},
		{Watts: 100, Fraction: 1.0 / 2.0},
		{Watts: 130, Fraction: 1.4 / 2.0},
		{Watts: 150, Fraction: 1.6 / 2.0},
		{Watts: 180, Fraction: 1.8 / 2.0},
		{Watts: 200, Fraction: 1.0},
	}

	// AMDOpteron is a 2 GHz AMD Opteron, 0.4 GHz to 2.0 GHz.
	AMDOpteron = []State{
		{Watts: 5, Fraction: 0.4 / 2.0},
		{Watts: 6, Fraction: 0.6 / 2.0},
		{Watts: 7, Fraction: 0.8 / 2.0},
		{Watts: 10, Fraction: 1.0 / 2.0},
		{Watts: 13, Fraction: 1.4 / 2.0},
		{Watts: 15, Fraction: 1.6 / 2.0},
		{Watts: 18, Fraction: 1.8 / 2.0},
		{Watts: 20, Fraction: 1.0},
	}
)

// Ladder returns a named preset, or nil if the name is unknown.
func Ladder(name string) []State {
	switch name {
	case "via-c7m":
		return ViaC7M
	case "amd-opteron":
		return AMDOpteron
	default:
		return nil
	}
}

// Scaled returns a copy of states with every wattage multiplied by factor.
// Fractions are untouched.
func Scaled(states []State, factor float64) []State {
	out := make([]State, len(states))
	for i, s := range states {
		out[i] = State{Watts: s.Watts * types.Watts(factor), Fraction: s.Fraction}
	}
	return out
}
