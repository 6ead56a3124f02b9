package hue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/amimof/huego"

	"hue-bus-bridge/internal/domain/model"
)

var ErrNotConfigured = errors.New("hue: bridge not configured")

// Client is the BridgeClient backed by the Hue v1 REST API.
type Client struct {
	bridge *huego.Bridge
	mu     sync.RWMutex
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) Configure(host, user string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bridge = huego.New(host, user)
}

func (c *Client) IsConfigured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bridge != nil && c.bridge.Host != ""
}

func (c *Client) get() (*huego.Bridge, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.bridge == nil || c.bridge.Host == "" {
		return nil, ErrNotConfigured
	}
	return c.bridge, nil
}

func (c *Client) ListLights(ctx context.Context) ([]model.DeviceSnapshot, error) {
	b, err := c.get()
	if err != nil {
		return nil, err
	}
	lights, err := b.GetLightsContext(ctx)
	if err != nil {
		return nil, classify(err)
	}
	out := make([]model.DeviceSnapshot, 0, len(lights))
	for _, l := range lights {
		out = append(out, lightSnapshot(l))
	}
	return out, nil
}

func (c *Client) ListSensors(ctx context.Context) ([]model.DeviceSnapshot, error) {
	b, err := c.get()
	if err != nil {
		return nil, err
	}
	sensors, err := b.GetSensorsContext(ctx)
	if err != nil {
		return nil, classify(err)
	}
	out := make([]model.DeviceSnapshot, 0, len(sensors))
	for _, s := range sensors {
		out = append(out, sensorSnapshot(s))
	}
	return out, nil
}

func (c *Client) ListGroups(ctx context.Context) ([]model.GroupSnapshot, error) {
	b, err := c.get()
	if err != nil {
		return nil, err
	}
	groups, err := b.GetGroupsContext(ctx)
	if err != nil {
		return nil, classify(err)
	}
	out := make([]model.GroupSnapshot, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupSnapshot(g))
	}
	return out, nil
}

func (c *Client) ApplyState(ctx context.Context, targetID string, isGroup bool, m model.Mutation) error {
	b, err := c.get()
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(targetID)
	if err != nil {
		return fmt.Errorf("hue: invalid id %q: %w", targetID, err)
	}
	st, err := toState(m)
	if err != nil {
		return err
	}

	if isGroup {
		_, err = b.SetGroupStateContext(ctx, id, st)
	} else {
		_, err = b.SetLightStateContext(ctx, id, st)
	}
	return classify(err)
}

// CreateUser registers a new whitelisted user. Only the host needs to be set.
func (c *Client) CreateUser(ctx context.Context, deviceType string) (string, error) {
	b, err := c.get()
	if err != nil {
		return "", err
	}
	user, err := b.CreateUserContext(ctx, deviceType)
	if err != nil {
		return "", classify(err)
	}
	return user, nil
}
