package translator

import (
	"hue-bus-bridge/internal/domain/model"
)

type Factory struct {
	strategies map[model.Op]Strategy
}

func NewFactory() *Factory {
	return &Factory{
		strategies: map[model.Op]Strategy{
			model.OpOn:         &OnStrategy{},
			model.OpOff:        &OffStrategy{},
			model.OpBrightness: &BrightnessStrategy{},
			model.OpWhite:      &WhiteStrategy{},
			model.OpHsb:        &HsbStrategy{},
			model.OpRgb:        &RgbStrategy{},
		},
	}
}

func (f *Factory) GetStrategy(op model.Op) (Strategy, bool) {
	s, ok := f.strategies[op]
	return s, ok
}
