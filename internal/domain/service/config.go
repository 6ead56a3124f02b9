package service

import (
	"context"
	"fmt"

	"hue-bus-bridge/internal/domain/model"
	"hue-bus-bridge/internal/ports"
)

// ConfigService handles configuration reads and bridge pairing.
type ConfigService struct {
	repo   ports.ConfigRepository
	pairer ports.BridgePairer
}

func NewConfigService(repo ports.ConfigRepository, pairer ports.BridgePairer) *ConfigService {
	return &ConfigService{
		repo:   repo,
		pairer: pairer,
	}
}

func (s *ConfigService) GetConfig(ctx context.Context) (*model.Config, error) {
	return s.repo.Get(ctx)
}

// Register creates a bridge user on host and stores host and user in the
// configuration file.
func (s *ConfigService) Register(ctx context.Context, host, deviceType string) (string, error) {
	user, err := s.pairer.CreateUser(ctx, deviceType)
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	err = s.repo.Update(ctx, func(cfg *model.Config) {
		cfg.Bridge.Host = host
		cfg.Bridge.Username = user
	})
	if err != nil {
		return user, fmt.Errorf("save config: %w", err)
	}
	return user, nil
}
