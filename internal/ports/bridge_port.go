package ports

import (
	"context"
	"errors"

	"hue-bus-bridge/internal/domain/model"
)

var (
	// ErrConnectionReset covers transport failures worth retrying.
	ErrConnectionReset = errors.New("bridge: connection reset")

	// ErrUnauthorized means the configured user is unknown to the bridge.
	ErrUnauthorized = errors.New("bridge: unauthorized user")

	// ErrInvalidMutation is returned when a mutation lacks required parameters.
	ErrInvalidMutation = errors.New("bridge: invalid mutation")
)

// BridgeClient is the lighting bridge session used by the scheduler.
type BridgeClient interface {
	ListLights(ctx context.Context) ([]model.DeviceSnapshot, error)
	ListSensors(ctx context.Context) ([]model.DeviceSnapshot, error)
	ListGroups(ctx context.Context) ([]model.GroupSnapshot, error)
	ApplyState(ctx context.Context, targetID string, isGroup bool, m model.Mutation) error
}

// BridgePairer creates a whitelisted user on the bridge. The link button
// must have been pressed beforehand.
type BridgePairer interface {
	CreateUser(ctx context.Context, deviceType string) (string, error)
}

func IsRetryable(err error) bool {
	return errors.Is(err, ErrConnectionReset)
}
