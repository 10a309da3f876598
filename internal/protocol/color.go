package protocol

import "math"

// Kelvin clamp range for the RGB approximation.
const (
	minKelvin = 1000.0
	maxKelvin = 40000.0
)

// MiredToKelvin converts a mired colour temperature to degrees Kelvin,
// truncating towards negative infinity.
func MiredToKelvin(mired float64) int {
	return int(math.Floor(1000000 / mired))
}

// KelvinToRGB approximates the RGB colour of a black-body radiator at the
// given temperature in Kelvin.
//
// This is a rough approximation based on the formula provided by T. Helland:
// http://www.tannerhelland.com/4435/convert-temperature-rgb-algorithm-code/
//
// The input is clamped to [1000, 40000] Kelvin; each output component is in
// [0, 255].
func KelvinToRGB(kelvin float64) (r, g, b uint8) {
	if kelvin < minKelvin {
		kelvin = minKelvin
	} else if kelvin > maxKelvin {
		kelvin = maxKelvin
	}

	t := kelvin / 100.0

	return uint8(tempRed(t)), uint8(tempGreen(t)), uint8(tempBlue(t))
}

// tempRed computes the red component for a temperature scaled by /100.
func tempRed(t float64) float64 {
	if t <= 66 {
		return 255
	}
	return clampComponent(329.698727446 * math.Pow(t-60, -0.1332047592))
}

// tempGreen computes the green component for a temperature scaled by /100.
func tempGreen(t float64) float64 {
	if t <= 66 {
		return clampComponent(99.4708025861*math.Log(t) - 161.1195681661)
	}
	return clampComponent(288.1221695283 * math.Pow(t-60, -0.0755148492))
}

// tempBlue computes the blue component for a temperature scaled by /100.
func tempBlue(t float64) float64 {
	if t >= 66 {
		return 255
	}
	if t <= 19 {
		return 0
	}
	return clampComponent(138.5177312231*math.Log(t-10) - 305.0447927307)
}

// clampComponent clamps a colour component to [0, 255].
func clampComponent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
