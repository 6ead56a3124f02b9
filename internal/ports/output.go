package ports

import (
	"context"

	"hue-bus-bridge/internal/domain/model"
)

// BusClient publishes change events on the home-automation bus.
type BusClient interface {
	Publish(ctx context.Context, kind string, rec model.ChangeRecord) error
}

// ChangeRecorder receives a copy of every published change. Implementations
// must not block.
type ChangeRecorder interface {
	Record(kind string, rec model.ChangeRecord)
}
