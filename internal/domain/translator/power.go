package translator

import "hue-bus-bridge/internal/domain/model"

type OnStrategy struct{}

func (s *OnStrategy) Build(body) model.Mutation {
	return model.On{}
}

type OffStrategy struct{}

func (s *OffStrategy) Build(body) model.Mutation {
	return model.Off{}
}
