package translator

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hue-bus-bridge/internal/domain/alias"
	"hue-bus-bridge/internal/domain/model"
)

type fakeIndex map[string]model.CacheEntry

func (f fakeIndex) Lookup(key string) (model.CacheEntry, bool) {
	e, ok := f[key]
	return e, ok
}

func (f fakeIndex) LightKeys() []string {
	var keys []string
	for k, e := range f {
		if e.Kind == model.DeviceKindLight {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func newTestTranslator() *Translator {
	index := fakeIndex{
		"salon":   {RoutingKey: "salon", Kind: model.DeviceKindLight, BridgeID: "1"},
		"cuisine": {RoutingKey: "cuisine", Kind: model.DeviceKindLight, BridgeID: "2"},
		"etage":   {RoutingKey: "etage", Kind: model.DeviceKindGroup, BridgeID: "3"},
		"motion":  {RoutingKey: "motion", Kind: model.DeviceKindSensor, BridgeID: "4"},
	}
	aliases := alias.NewResolver(map[string]string{
		"aa-0b":   "salon",
		"group-3": "etage",
		"garage":  "ignore",
	})
	return NewTranslator(aliases, index)
}

func cmd(bodyName string, kv map[string]any) model.InboundCommand {
	return model.InboundCommand{BodyName: bodyName, Body: kv}
}

func TestTranslate_StatusVocabulary(t *testing.T) {
	tr := newTestTranslator()
	tests := []struct {
		current string
		want    model.Op
	}{
		{"enable", model.OpOn},
		{"enabled", model.OpOn},
		{"on", model.OpOn},
		{"1", model.OpOn},
		{"TRUE", model.OpOn},
		{"disable", model.OpOff},
		{"disabled", model.OpOff},
		{"off", model.OpOff},
		{"0", model.OpOff},
		{"false", model.OpOff},
	}
	for _, tt := range tests {
		t.Run(tt.current, func(t *testing.T) {
			req, err := tr.Translate(cmd(BodyDeviceCommand, map[string]any{
				"command": "status", "device": "salon", "current": tt.current,
			}))
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Mutation.Op())
			assert.Equal(t, []string{"salon"}, req.TargetKeys())
		})
	}

	_, err := tr.Translate(cmd(BodyDeviceCommand, map[string]any{"command": "status", "device": "salon", "current": "maybe"}))
	assert.ErrorIs(t, err, ErrRejected)
}

func TestTranslate_AllLightsOn(t *testing.T) {
	tr := newTestTranslator()

	req, err := tr.Translate(cmd(BodyRemoteControl, map[string]any{"command": "all_lights_on"}))

	require.NoError(t, err)
	assert.Equal(t, model.On{}, req.Mutation)
	assert.Equal(t, []string{"cuisine", "salon"}, req.TargetKeys())
	assert.False(t, req.IsGroup("salon"))
}

func TestTranslate_AllUnitsOff(t *testing.T) {
	tr := newTestTranslator()
	for _, c := range []string{"all_units_off", "all_lights_off"} {
		req, err := tr.Translate(cmd(BodyRemoteControl, map[string]any{"command": c, "device": "etage"}))
		require.NoError(t, err)
		assert.Equal(t, model.Off{}, req.Mutation)
		assert.Equal(t, []string{"cuisine", "salon"}, req.TargetKeys())
	}
}

func TestTranslate_Bright(t *testing.T) {
	tr := newTestTranslator()

	req, err := tr.Translate(cmd(BodyRemoteControl, map[string]any{"command": "bright", "device": "salon", "data1": "128"}))

	require.NoError(t, err)
	m, ok := req.Mutation.(model.Brightness)
	require.True(t, ok)
	require.NotNil(t, m.Percent)
	assert.Equal(t, float64(50), *m.Percent)

	_, err = tr.Translate(cmd(BodyRemoteControl, map[string]any{"command": "bright", "device": "salon"}))
	assert.ErrorIs(t, err, ErrRejected)
}

func TestTranslate_Passthrough(t *testing.T) {
	tr := newTestTranslator()

	req, err := tr.Translate(cmd(BodyDeviceCommand, map[string]any{
		"command": "hsb", "device": "salon", "hue": "180", "saturation": 50, "brightness": "bad",
	}))
	require.NoError(t, err)
	hsb := req.Mutation.(model.Hsb)
	assert.Equal(t, 180.0, *hsb.Hue)
	assert.Equal(t, 50.0, *hsb.Saturation)
	assert.Nil(t, hsb.Brightness)

	req, err = tr.Translate(cmd(BodyDeviceCommand, map[string]any{
		"command": "white", "device": "salon", "current": "80", "colorTemp": "10000",
	}))
	require.NoError(t, err)
	w := req.Mutation.(model.White)
	assert.Equal(t, 80.0, *w.Brightness)
	assert.Equal(t, uint16(MinMired), *w.Mired)

	req, err = tr.Translate(cmd(BodyDeviceCommand, map[string]any{"command": "white", "device": "salon"}))
	require.NoError(t, err)
	assert.Nil(t, req.Mutation.(model.White).Mired)

	req, err = tr.Translate(cmd(BodyDeviceCommand, map[string]any{
		"command": "rgb", "device": "salon", "red": "255", "green": 300,
	}))
	require.NoError(t, err)
	rgb := req.Mutation.(model.Rgb)
	assert.Equal(t, uint8(255), *rgb.Red)
	assert.Equal(t, uint8(255), *rgb.Green)
	assert.Nil(t, rgb.Blue)

	req, err = tr.Translate(cmd(BodyDeviceCommand, map[string]any{"command": "brightness", "device": "salon", "current": 42}))
	require.NoError(t, err)
	assert.Equal(t, 42.0, *req.Mutation.(model.Brightness).Percent)

	req, err = tr.Translate(cmd(BodyDeviceCommand, map[string]any{"command": "off", "device": "salon"}))
	require.NoError(t, err)
	assert.Equal(t, model.OpOff, req.Mutation.Op())
}

func TestTranslate_Targets(t *testing.T) {
	tr := newTestTranslator()

	req, err := tr.Translate(cmd(BodyDeviceCommand, map[string]any{
		"command": "on", "device": " aa-0b, etage ,unknown,garage,motion,salon",
	}))
	require.NoError(t, err)
	assert.Equal(t, []model.Target{
		{Key: "etage", BridgeID: "3", IsGroup: true},
		{Key: "salon", BridgeID: "1"},
	}, req.Targets)
	assert.True(t, req.IsGroup("etage"))

	req, err = tr.Translate(cmd(BodyDeviceCommand, map[string]any{"command": "on", "device": "group-3"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"etage"}, req.TargetKeys())
}

func TestTranslate_Rejections(t *testing.T) {
	tr := newTestTranslator()

	_, err := tr.Translate(cmd(BodyDeviceCommand, map[string]any{"command": "dance", "device": "salon"}))
	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, "unsupported command", rejected.Reason)

	_, err = tr.Translate(cmd(BodyDeviceCommand, map[string]any{"command": "on", "device": "garage,unknown"}))
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, "no targets", rejected.Reason)

	_, err = tr.Translate(cmd(BodyDeviceCommand, map[string]any{"command": "on"}))
	assert.ErrorIs(t, err, ErrRejected)

	_, err = tr.Translate(cmd("hbeat.app", map[string]any{"command": "on", "device": "salon"}))
	assert.ErrorIs(t, err, ErrIgnoredBody)
}

func TestFactory(t *testing.T) {
	f := NewFactory()
	for _, op := range []model.Op{model.OpOn, model.OpOff, model.OpBrightness, model.OpWhite, model.OpHsb, model.OpRgb} {
		s, ok := f.GetStrategy(op)
		require.True(t, ok, op)
		assert.Equal(t, op, s.Build(body{}).Op())
	}
	_, ok := f.GetStrategy("strobe")
	assert.False(t, ok)
}

func TestKelvinToMired(t *testing.T) {
	assert.Equal(t, uint16(250), KelvinToMired(4000))
	assert.Equal(t, uint16(MaxMired), KelvinToMired(1000))
	assert.Equal(t, uint16(MinMired), KelvinToMired(20000))
}
