package state

import "math"

const (
	UnitPercent = "%"
	UnitDegrees = "deg"
	UnitKelvin  = "K"
	UnitCelsius = "C"
)

// Percent254 scales a 0-254 bridge level to a whole percentage.
func Percent254(v float64) float64 {
	return math.Round(v / 254 * 100)
}

// HueDegrees scales a 0-65535 bridge hue to 0-360 degrees.
func HueDegrees(v float64) float64 {
	return math.Round(v / 65535 * 360)
}

func MiredToKelvin(v float64) float64 {
	return math.Round(1e6 / v)
}

// Celsius converts a sensor temperature reported in hundredths of a degree.
func Celsius(v float64) float64 {
	return v / 100
}
