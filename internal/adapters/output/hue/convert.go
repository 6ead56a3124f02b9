package hue

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/amimof/huego"

	"hue-bus-bridge/internal/domain/model"
	"hue-bus-bridge/internal/ports"
)

type capability uint8

const (
	capBrightness capability = 1 << iota
	capColor
	capColorTemp
)

// capabilitiesOf derives the supported attributes from the Hue light type.
// huego decodes missing attributes as zero values, so the type is the only
// way to tell "absent" from "zero".
func capabilitiesOf(lightType string) capability {
	t := strings.ToLower(lightType)
	switch {
	case strings.Contains(t, "extended color"):
		return capBrightness | capColor | capColorTemp
	case strings.Contains(t, "color temperature"):
		return capBrightness | capColorTemp
	case strings.Contains(t, "color"):
		return capBrightness | capColor
	case strings.Contains(t, "dimmable"):
		return capBrightness
	}
	return 0
}

func lightSnapshot(l huego.Light) model.DeviceSnapshot {
	snap := model.DeviceSnapshot{
		ID:         strconv.Itoa(l.ID),
		UniqueID:   l.UniqueID,
		Kind:       model.DeviceKindLight,
		Type:       l.Type,
		Name:       l.Name,
		Attributes: make(map[string]model.Scalar),
	}
	s := l.State
	if s == nil {
		return snap
	}
	caps := capabilitiesOf(l.Type)
	a := snap.Attributes

	a["on"] = s.On
	a["reachable"] = s.Reachable
	if caps&capBrightness != 0 || s.Bri != 0 {
		a["bri"] = float64(s.Bri)
	}
	if caps&capColor != 0 || s.Hue != 0 || s.Sat != 0 {
		a["hue"] = float64(s.Hue)
		a["sat"] = float64(s.Sat)
	}
	if len(s.Xy) == 2 {
		a["xy"] = formatXy(s.Xy)
	}
	if caps&capColorTemp != 0 || s.Ct != 0 {
		a["ct"] = float64(s.Ct)
	}
	if s.Alert != "" {
		a["alert"] = s.Alert
	}
	if s.Effect != "" {
		a["effect"] = s.Effect
	}
	if s.ColorMode != "" {
		a["colormode"] = s.ColorMode
	}
	return snap
}

func formatXy(xy []float32) string {
	return strconv.FormatFloat(float64(xy[0]), 'f', -1, 32) + "," +
		strconv.FormatFloat(float64(xy[1]), 'f', -1, 32)
}

func sensorSnapshot(s huego.Sensor) model.DeviceSnapshot {
	snap := model.DeviceSnapshot{
		ID:         strconv.Itoa(s.ID),
		UniqueID:   s.UniqueID,
		Kind:       model.DeviceKindSensor,
		Type:       s.Type,
		Name:       s.Name,
		Attributes: make(map[string]model.Scalar, len(s.State)+len(s.Config)),
	}
	for k, v := range s.State {
		if v, ok := scalar(v); ok {
			snap.Attributes[k] = v
		}
	}
	for k, v := range s.Config {
		if v, ok := scalar(v); ok {
			snap.Attributes["config."+k] = v
		}
	}
	return snap
}

// scalar keeps bools, strings and numbers; objects, arrays and nulls are dropped.
func scalar(v any) (model.Scalar, bool) {
	switch x := v.(type) {
	case bool, string:
		return x, true
	case nil:
		return nil, false
	}
	return model.Number(v)
}

func groupSnapshot(g huego.Group) model.GroupSnapshot {
	members := make([]string, len(g.Lights))
	copy(members, g.Lights)
	return model.GroupSnapshot{
		ID:              strconv.Itoa(g.ID),
		Name:            g.Name,
		MemberDeviceIDs: members,
	}
}

// toState builds the Hue state body for a mutation. Every mutation other
// than Off also switches the light on.
func toState(m model.Mutation) (huego.State, error) {
	switch v := m.(type) {
	case model.On:
		return huego.State{On: true}, nil
	case model.Off:
		return huego.State{On: false}, nil
	case model.Brightness:
		st := huego.State{On: true}
		if v.Percent != nil {
			st.Bri = briFromPercent(*v.Percent)
		}
		return st, nil
	case model.White:
		st := huego.State{On: true}
		if v.Mired != nil {
			st.Ct = *v.Mired
		}
		if v.Brightness != nil {
			st.Bri = briFromPercent(*v.Brightness)
		}
		return st, nil
	case model.Hsb:
		st := huego.State{On: true}
		if v.Hue != nil {
			st.Hue = uint16(math.Round(clamp(*v.Hue, 0, 360) / 360 * 65535))
		}
		if v.Saturation != nil {
			st.Sat = uint8(math.Round(clamp(*v.Saturation, 0, 100) * 254 / 100))
		}
		if v.Brightness != nil {
			st.Bri = briFromPercent(*v.Brightness)
		}
		// huego omits zero hue and sat from the request body, so an explicit
		// zero is sent as the equivalent xy point instead.
		if (v.Hue != nil && st.Hue == 0) || (v.Saturation != nil && st.Sat == 0) {
			h, sat := 0.0, 100.0
			if v.Hue != nil {
				h = clamp(*v.Hue, 0, 360)
			}
			if v.Saturation != nil {
				sat = clamp(*v.Saturation, 0, 100)
			}
			st.Xy, _ = huego.ConvertRGBToXy(hsToRGB(h, sat))
		}
		return st, nil
	case model.Rgb:
		if v.Red == nil || v.Green == nil || v.Blue == nil {
			return huego.State{}, fmt.Errorf("%w: rgb requires red, green and blue", ports.ErrInvalidMutation)
		}
		xy, bri := huego.ConvertRGBToXy(color.RGBA{R: *v.Red, G: *v.Green, B: *v.Blue, A: 0xff})
		return huego.State{On: true, Xy: xy, Bri: bri}, nil
	}
	return huego.State{}, fmt.Errorf("%w: %T", ports.ErrInvalidMutation, m)
}

// hsToRGB returns the full-value RGB color for hue h in degrees and
// saturation s in percent.
func hsToRGB(h, s float64) color.RGBA {
	s /= 100
	h = math.Mod(h, 360) / 60
	x := 1 - math.Abs(math.Mod(h, 2)-1)
	var r, g, b float64
	switch int(h) {
	case 0:
		r, g, b = 1, x, 0
	case 1:
		r, g, b = x, 1, 0
	case 2:
		r, g, b = 0, 1, x
	case 3:
		r, g, b = 0, x, 1
	case 4:
		r, g, b = x, 0, 1
	default:
		r, g, b = 1, 0, x
	}
	ch := func(c float64) uint8 { return uint8(math.Round((1 - s + s*c) * 255)) }
	return color.RGBA{R: ch(r), G: ch(g), B: ch(b), A: 0xff}
}

func briFromPercent(p float64) uint8 {
	return uint8(clamp(math.Round(p*254/100), 1, 254))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
