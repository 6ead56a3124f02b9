package ports

import (
	"context"

	"hue-bus-bridge/internal/domain/model"
)

// CommandHandler accepts inbound bus commands.
type CommandHandler interface {
	HandleCommand(ctx context.Context, cmd model.InboundCommand) (*model.CommandResult, error)
}

// StatusReader exposes the bridge view to diagnostic adapters.
type StatusReader interface {
	Entries() []model.CacheEntry
	Lookup(key string) (model.CacheEntry, bool)
	Health() model.Health
}
