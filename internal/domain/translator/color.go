package translator

import (
	"math"

	"hue-bus-bridge/internal/domain/model"
)

type HsbStrategy struct{}

func (s *HsbStrategy) Build(b body) model.Mutation {
	return model.Hsb{
		Hue:        b.numPtr("hue"),
		Saturation: b.numPtr("saturation"),
		Brightness: b.numPtr("brightness"),
	}
}

// RgbStrategy leaves missing components unset; the bridge adapter refuses
// an incomplete color.
type RgbStrategy struct{}

func (s *RgbStrategy) Build(b body) model.Mutation {
	return model.Rgb{
		Red:   channel(b, "red"),
		Green: channel(b, "green"),
		Blue:  channel(b, "blue"),
	}
}

func channel(b body, key string) *uint8 {
	v, ok := b.num(key)
	if !ok {
		return nil
	}
	c := uint8(math.Max(0, math.Min(255, math.Round(v))))
	return &c
}
