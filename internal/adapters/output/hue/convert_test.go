package hue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"

	"github.com/amimof/huego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hue-bus-bridge/internal/domain/model"
	"hue-bus-bridge/internal/ports"
)

func ptr[T any](v T) *T { return &v }

func TestLightSnapshot(t *testing.T) {
	l := huego.Light{
		ID:       3,
		UniqueID: "00:17:88:01:00:aa:bb:cc-0b",
		Name:     "Salon",
		Type:     "Extended color light",
		State: &huego.State{
			On: true, Bri: 200, Hue: 32768, Sat: 0, Ct: 366,
			Xy: []float32{0.4573, 0.41}, Alert: "none", Effect: "none",
			ColorMode: "ct", Reachable: true,
		},
	}

	snap := lightSnapshot(l)

	assert.Equal(t, "3", snap.ID)
	assert.Equal(t, model.DeviceKindLight, snap.Kind)
	assert.Equal(t, "00:17:88:01:00:aa:bb:cc-0b", snap.ExternalKey())
	assert.Equal(t, map[string]model.Scalar{
		"on": true, "reachable": true, "bri": float64(200), "hue": float64(32768),
		"sat": float64(0), "ct": float64(366), "xy": "0.4573,0.41",
		"alert": "none", "effect": "none", "colormode": "ct",
	}, snap.Attributes)
}

func TestLightSnapshot_OnOffPlugHasNoLevels(t *testing.T) {
	snap := lightSnapshot(huego.Light{ID: 4, Type: "On/Off plug-in unit", State: &huego.State{On: false, Reachable: true, Alert: "none"}})
	assert.Equal(t, map[string]model.Scalar{"on": false, "reachable": true, "alert": "none"}, snap.Attributes)

	dimmable := lightSnapshot(huego.Light{ID: 5, Type: "Dimmable light", State: &huego.State{On: true, Bri: 0}})
	assert.Contains(t, dimmable.Attributes, "bri")
	assert.NotContains(t, dimmable.Attributes, "hue")
	assert.NotContains(t, dimmable.Attributes, "ct")

	assert.Empty(t, lightSnapshot(huego.Light{ID: 6}).Attributes)
}

func TestSensorSnapshot(t *testing.T) {
	s := huego.Sensor{
		ID:   9,
		Type: "ZLLTemperature",
		State: map[string]interface{}{
			"temperature": float64(2134),
			"lastupdated": "2024-03-01T08:00:00",
			"nested":      map[string]interface{}{"x": 1},
			"nothing":     nil,
		},
		Config: map[string]interface{}{
			"battery":   float64(90),
			"reachable": true,
			"pending":   []interface{}{},
		},
	}

	snap := sensorSnapshot(s)

	assert.Equal(t, "sensor-9", snap.ExternalKey())
	assert.Equal(t, map[string]model.Scalar{
		"temperature":      float64(2134),
		"lastupdated":      "2024-03-01T08:00:00",
		"config.battery":   float64(90),
		"config.reachable": true,
	}, snap.Attributes)
}

func TestGroupSnapshot(t *testing.T) {
	g := groupSnapshot(huego.Group{ID: 2, Name: "Etage", Lights: []string{"1", "3"}})
	assert.Equal(t, model.GroupSnapshot{ID: "2", Name: "Etage", MemberDeviceIDs: []string{"1", "3"}}, g)
	assert.Equal(t, "group-2", g.ExternalKey())
}

func TestToState(t *testing.T) {
	tests := []struct {
		name string
		in   model.Mutation
		want huego.State
	}{
		{"on", model.On{}, huego.State{On: true}},
		{"off", model.Off{}, huego.State{On: false}},
		{"brightness", model.Brightness{Percent: ptr(50.0)}, huego.State{On: true, Bri: 127}},
		{"brightness floor", model.Brightness{Percent: ptr(0.0)}, huego.State{On: true, Bri: 1}},
		{"brightness ceiling", model.Brightness{Percent: ptr(150.0)}, huego.State{On: true, Bri: 254}},
		{"brightness unset", model.Brightness{}, huego.State{On: true}},
		{"white", model.White{Mired: ptr(uint16(366)), Brightness: ptr(100.0)}, huego.State{On: true, Ct: 366, Bri: 254}},
		{"hsb", model.Hsb{Hue: ptr(180.0), Saturation: ptr(100.0), Brightness: ptr(100.0)}, huego.State{On: true, Hue: 32768, Sat: 254, Bri: 254}},
		{"hsb partial", model.Hsb{Hue: ptr(360.0)}, huego.State{On: true, Hue: 65535}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toState(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToState_HsbZeroValuesSentAsXy(t *testing.T) {
	white, err := toState(model.Hsb{Hue: ptr(0.0), Saturation: ptr(0.0), Brightness: ptr(100.0)})
	require.NoError(t, err)
	assert.Equal(t, uint8(254), white.Bri)
	require.Len(t, white.Xy, 2)

	body, err := json.Marshal(white)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"xy"`)

	red, err := toState(model.Hsb{Hue: ptr(0.0), Saturation: ptr(100.0)})
	require.NoError(t, err)
	require.Len(t, red.Xy, 2)
	assert.Equal(t, uint8(254), red.Sat)
	assert.Greater(t, red.Xy[0], white.Xy[0])

	cyan, err := toState(model.Hsb{Hue: ptr(180.0)})
	require.NoError(t, err)
	assert.Empty(t, cyan.Xy)
}

func TestHsToRGB(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 255, G: 0, B: 0, A: 0xff}, hsToRGB(0, 100))
	assert.Equal(t, color.RGBA{R: 0, G: 255, B: 255, A: 0xff}, hsToRGB(180, 100))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 0xff}, hsToRGB(240, 0))
	assert.Equal(t, hsToRGB(0, 100), hsToRGB(360, 100))
}

func TestToState_Rgb(t *testing.T) {
	got, err := toState(model.Rgb{Red: ptr(uint8(255)), Green: ptr(uint8(0)), Blue: ptr(uint8(0))})
	require.NoError(t, err)
	assert.True(t, got.On)
	assert.Len(t, got.Xy, 2)

	_, err = toState(model.Rgb{Red: ptr(uint8(255))})
	assert.ErrorIs(t, err, ports.ErrInvalidMutation)
}

func TestClassify(t *testing.T) {
	reset := &url.Error{Op: "Get", URL: "http://bridge/api", Err: &net.OpError{
		Op: "read", Net: "tcp", Err: os.NewSyscallError("read", syscall.ECONNRESET),
	}}
	assert.ErrorIs(t, classify(reset), ports.ErrConnectionReset)
	assert.ErrorIs(t, classify(reset), syscall.ECONNRESET)
	assert.ErrorIs(t, classify(fmt.Errorf("write: %w", syscall.EPIPE)), ports.ErrConnectionReset)

	unauthorized := &huego.APIError{Type: 1, Address: "/", Description: "unauthorized user"}
	assert.ErrorIs(t, classify(unauthorized), ports.ErrUnauthorized)
	assert.ErrorIs(t, classify(errors.New("ERROR 1 [/]: \"unauthorized user\"")), ports.ErrUnauthorized)

	other := errors.New("timeout")
	assert.Equal(t, other, classify(other))
	assert.False(t, ports.IsRetryable(classify(other)))
	assert.NoError(t, classify(nil))
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient()
	assert.False(t, c.IsConfigured())

	_, err := c.ListLights(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, c.ApplyState(context.Background(), "1", false, model.On{}), ErrNotConfigured)

	c.Configure("10.0.0.2", "user")
	assert.True(t, c.IsConfigured())
	assert.ErrorContains(t, c.ApplyState(context.Background(), "x", false, model.On{}), "invalid id")
}
