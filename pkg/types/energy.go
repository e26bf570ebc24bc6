package types

import "fmt"

// Watts is an instantaneous power draw.
type Watts float64

// Joules is an amount of energy.
type Joules float64

const (
	joulesPerKJ  = 1e3
	joulesPerMJ  = 1e6
	joulesPerKWh = 3.6e6
)

// Humanized returns a human-readable string with automatic unit (J, kJ, MJ).
func (j Joules) Humanized() string {
	v := float64(j)
	switch {
	case v >= joulesPerMJ:
		return fmt.Sprintf("%.2f MJ", v/joulesPerMJ)
	case v >= joulesPerKJ:
		return fmt.Sprintf("%.2f kJ", v/joulesPerKJ)
	default:
		return fmt.Sprintf("%.2f J", v)
	}
}

// KJ returns the number of kilojoules.
func (j Joules) KJ() float64 { return float64(j) / joulesPerKJ }

// KWh returns the number of kilowatt-hours.
func (j Joules) KWh() float64 { return float64(j) / joulesPerKWh }

// Over returns the energy drawn at w for sec seconds.
func (w Watts) Over(sec float64) Joules {
	if sec <= 0 {
		return 0
	}
	return Joules(float64(w) * sec)
}

// Humanized returns a human-readable string with automatic unit (W, kW).
func (w Watts) Humanized() string {
	v := float64(w)
	if v >= 1e3 {
		return fmt.Sprintf("%.2f kW", v/1e3)
	}
	return fmt.Sprintf("%.2f W", v)
}
