package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"hue-bus-bridge/internal/domain/alias"
	"hue-bus-bridge/internal/domain/model"
)

const envPrefix = "HUEBUS_"

// YAMLConfigRepository loads the bridge configuration from a YAML file,
// applies HUEBUS_* environment overrides and validates the result.
type YAMLConfigRepository struct {
	filepath string
	mu       sync.RWMutex
}

func NewYAMLConfigRepository(filepath string) *YAMLConfigRepository {
	return &YAMLConfigRepository{filepath: filepath}
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *model.Config {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "default"
	}
	return &model.Config{
		Bridge: model.BridgeConfig{
			PollInterval:         500 * time.Millisecond,
			RetryDelay:           300 * time.Millisecond,
			GroupRefreshInterval: 10 * time.Minute,
		},
		Bus: model.BusConfig{
			Broker:      "tcp://localhost:1883",
			QoS:         1,
			TopicPrefix: "xpl",
			Source:      "hue." + host,
		},
		Aliases: map[string]string{},
		Logging: model.LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func (r *YAMLConfigRepository) Get(ctx context.Context) (*model.Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, err := r.load()
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := mergeAliasList(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Save writes config verbatim.
func (r *YAMLConfigRepository) Save(ctx context.Context, config *model.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(config)
}

// Update applies fn to the file contents only and writes them back.
// Environment overrides and the merged alias list never reach the file.
func (r *YAMLConfigRepository) Update(ctx context.Context, fn func(cfg *model.Config)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := r.load()
	if err != nil {
		return err
	}
	fn(cfg)
	return r.write(cfg)
}

// load returns the defaults overlaid with the file, if any.
func (r *YAMLConfigRepository) load() (*model.Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(r.filepath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	// "aliases:" with no value decodes to nil.
	if cfg.Aliases == nil {
		cfg.Aliases = make(map[string]string)
	}
	return cfg, nil
}

func (r *YAMLConfigRepository) write(config *model.Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(r.filepath, data, 0o600)
}

func applyEnvOverrides(cfg *model.Config) {
	if v := os.Getenv(envPrefix + "BRIDGE_HOST"); v != "" {
		cfg.Bridge.Host = v
	}
	if v := os.Getenv(envPrefix + "BRIDGE_USERNAME"); v != "" {
		cfg.Bridge.Username = v
	}
	if v := os.Getenv(envPrefix + "BUS_BROKER"); v != "" {
		cfg.Bus.Broker = v
	}
	if v := os.Getenv(envPrefix + "BUS_USERNAME"); v != "" {
		cfg.Bus.Username = v
	}
	if v := os.Getenv(envPrefix + "BUS_PASSWORD"); v != "" {
		cfg.Bus.Password = v
	}
	if v := os.Getenv(envPrefix + "ALIASES"); v != "" {
		cfg.AliasList = v
	}
	if v := os.Getenv(envPrefix + "HTTP_LISTEN"); v != "" {
		cfg.HTTP.Listen = v
	}
	if v := os.Getenv(envPrefix + "TELEMETRY_TOKEN"); v != "" {
		cfg.Telemetry.Token = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// mergeAliasList folds the legacy alias list into Aliases. Entries already
// present in Aliases win.
func mergeAliasList(cfg *model.Config) error {
	if cfg.AliasList == "" {
		return nil
	}
	list, err := alias.ParseList(cfg.AliasList)
	if err != nil {
		return fmt.Errorf("parsing alias_list: %w", err)
	}
	for k, v := range list {
		if _, ok := cfg.Aliases[k]; !ok {
			cfg.Aliases[k] = v
		}
	}
	return nil
}
