package model

import (
	"fmt"
	"strings"
	"time"
)

type BridgeConfig struct {
	Host                 string        `yaml:"host"`
	Username             string        `yaml:"username"`
	PollInterval         time.Duration `yaml:"poll_interval"`
	RetryDelay           time.Duration `yaml:"retry_delay"`
	GroupRefreshInterval time.Duration `yaml:"group_refresh_interval"`
}

type BusConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	QoS         int    `yaml:"qos"`
	TopicPrefix string `yaml:"topic_prefix"`
	// Source identifies this bridge in outbound payloads (xPL source).
	Source string `yaml:"source"`
}

type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Org     string `yaml:"org"`
	Bucket  string `yaml:"bucket"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Bridge    BridgeConfig      `yaml:"bridge"`
	Bus       BusConfig         `yaml:"bus"`
	Aliases   map[string]string `yaml:"aliases"`
	AliasList string            `yaml:"alias_list,omitempty"`
	HTTP      HTTPConfig        `yaml:"http"`
	Telemetry TelemetryConfig   `yaml:"telemetry"`
	Logging   LoggingConfig     `yaml:"logging"`
}

// String redacts secrets so the config can be logged.
func (c Config) String() string {
	pw := ""
	if c.Bus.Password != "" {
		pw = "***"
	}
	token := ""
	if c.Telemetry.Token != "" {
		token = "***"
	}
	return fmt.Sprintf("bridge=%s poll=%s retry=%s broker=%s user=%s password=%s prefix=%s aliases=%d http=%q influx=%t token=%s",
		c.Bridge.Host, c.Bridge.PollInterval, c.Bridge.RetryDelay,
		c.Bus.Broker, c.Bus.Username, pw, c.Bus.TopicPrefix,
		len(c.Aliases), c.HTTP.Listen, c.Telemetry.Enabled, token)
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []string

	if c.Bridge.PollInterval <= 0 {
		errs = append(errs, "bridge.poll_interval must be positive")
	}
	if c.Bridge.RetryDelay <= 0 {
		errs = append(errs, "bridge.retry_delay must be positive")
	}
	if c.Bridge.GroupRefreshInterval < 0 {
		errs = append(errs, "bridge.group_refresh_interval must not be negative")
	}

	if c.Bus.Broker == "" {
		errs = append(errs, "bus.broker is required")
	}
	if c.Bus.QoS < 0 || c.Bus.QoS > 2 {
		errs = append(errs, "bus.qos must be 0, 1, or 2")
	}
	if c.Bus.TopicPrefix == "" {
		errs = append(errs, "bus.topic_prefix is required")
	} else if strings.ContainsAny(c.Bus.TopicPrefix, "+#") {
		errs = append(errs, "bus.topic_prefix must not contain wildcards")
	}
	if c.Bus.Source == "" {
		errs = append(errs, "bus.source is required")
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.URL == "" {
			errs = append(errs, "telemetry.url is required when telemetry is enabled")
		}
		if c.Telemetry.Org == "" || c.Telemetry.Bucket == "" {
			errs = append(errs, "telemetry.org and telemetry.bucket are required when telemetry is enabled")
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, "logging.level must be debug, info, warn or error")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, "logging.format must be json or console")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
