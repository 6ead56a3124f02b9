package ports

import (
	"context"

	"hue-bus-bridge/internal/domain/model"
)

type ConfigRepository interface {
	Get(ctx context.Context) (*model.Config, error)
	Save(ctx context.Context, config *model.Config) error
	// Update changes the stored file only; environment overrides are not persisted.
	Update(ctx context.Context, fn func(cfg *model.Config)) error
}
