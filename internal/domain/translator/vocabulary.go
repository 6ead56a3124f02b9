package translator

import (
	"math"
	"regexp"
	"strings"

	"hue-bus-bridge/internal/domain/model"
)

const (
	// BodyDeviceCommand is the generic device command body.
	BodyDeviceCommand = "delabarre.command"
	// BodyRemoteControl is the legacy X10 remote-control body.
	BodyRemoteControl = "x10.basic"
)

var (
	enablePattern  = regexp.MustCompile(`(?i)enable|enabled|on|1|true`)
	disablePattern = regexp.MustCompile(`(?i)disable|disabled|off|0|false`)
)

// Accepts reports whether bodyName is one of the handled command bodies.
func Accepts(bodyName string) bool {
	return bodyName == BodyDeviceCommand || bodyName == BodyRemoteControl
}

type normalized struct {
	op  model.Op
	all bool
	// preset is set when the vocabulary already fixes the parameters.
	preset model.Mutation
}

// normalize maps the raw command vocabulary onto an op.
func normalize(b body) (normalized, error) {
	cmd := strings.ToLower(strings.TrimSpace(b.str("command")))

	switch cmd {
	case "status":
		current := b.str("current")
		switch {
		case enablePattern.MatchString(current):
			return normalized{op: model.OpOn}, nil
		case disablePattern.MatchString(current):
			return normalized{op: model.OpOff}, nil
		}
	case "all_units_off", "all_lights_off":
		return normalized{op: model.OpOff, all: true}, nil
	case "all_units_on", "all_lights_on":
		return normalized{op: model.OpOn, all: true}, nil
	case "bright":
		if level, ok := b.num("data1"); ok {
			pct := math.Round(level / 255 * 100)
			return normalized{op: model.OpBrightness, preset: model.Brightness{Percent: &pct}}, nil
		}
	case string(model.OpOn), string(model.OpOff), string(model.OpBrightness),
		string(model.OpWhite), string(model.OpHsb), string(model.OpRgb):
		return normalized{op: model.Op(cmd)}, nil
	}
	return normalized{}, reject("unsupported command")
}
