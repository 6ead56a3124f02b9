package translator

import (
	"math"

	"hue-bus-bridge/internal/domain/model"
)

// Supported color temperature range in mired.
const (
	MinMired = 153
	MaxMired = 500
)

// BrightnessStrategy reads the level in percent from "current".
type BrightnessStrategy struct{}

func (s *BrightnessStrategy) Build(b body) model.Mutation {
	return model.Brightness{Percent: b.numPtr("current")}
}

// WhiteStrategy reads brightness from "current" and a Kelvin temperature
// from "colorTemp".
type WhiteStrategy struct{}

func (s *WhiteStrategy) Build(b body) model.Mutation {
	m := model.White{Brightness: b.numPtr("current")}
	if k, ok := b.num("colorTemp"); ok && k > 0 {
		mired := KelvinToMired(k)
		m.Mired = &mired
	}
	return m
}

// KelvinToMired converts and clamps to the supported mired range.
func KelvinToMired(kelvin float64) uint16 {
	mired := math.Round(1e6 / kelvin)
	return uint16(math.Max(MinMired, math.Min(MaxMired, mired)))
}
