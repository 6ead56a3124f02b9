package model

import "sort"

type Op string

const (
	OpOn         Op = "on"
	OpOff        Op = "off"
	OpBrightness Op = "brightness"
	OpWhite      Op = "white"
	OpHsb        Op = "hsb"
	OpRgb        Op = "rgb"
)

// Mutation is the normalized state change applied to a light or group.
// Exactly one variant type exists per Op.
type Mutation interface {
	Op() Op
	isMutation()
}

type On struct{}

type Off struct{}

// Brightness is expressed in percent (0-100).
type Brightness struct {
	Percent *float64
}

type White struct {
	Mired      *uint16
	Brightness *float64
}

// Hsb carries hue in degrees, saturation and brightness in percent.
type Hsb struct {
	Hue        *float64
	Saturation *float64
	Brightness *float64
}

type Rgb struct {
	Red   *uint8
	Green *uint8
	Blue  *uint8
}

func (On) Op() Op         { return OpOn }
func (Off) Op() Op        { return OpOff }
func (Brightness) Op() Op { return OpBrightness }
func (White) Op() Op      { return OpWhite }
func (Hsb) Op() Op        { return OpHsb }
func (Rgb) Op() Op        { return OpRgb }

func (On) isMutation()         {}
func (Off) isMutation()        {}
func (Brightness) isMutation() {}
func (White) isMutation()      {}
func (Hsb) isMutation()        {}
func (Rgb) isMutation()        {}

type Target struct {
	Key      string `json:"key"`
	BridgeID string `json:"bridge_id"`
	IsGroup  bool   `json:"is_group"`
}

type MutationRequest struct {
	Targets  []Target
	Mutation Mutation
}

// TargetKeys returns the routing keys of all targets in sorted order.
func (r *MutationRequest) TargetKeys() []string {
	keys := make([]string, 0, len(r.Targets))
	for _, t := range r.Targets {
		keys = append(keys, t.Key)
	}
	sort.Strings(keys)
	return keys
}

func (r *MutationRequest) IsGroup(key string) bool {
	for _, t := range r.Targets {
		if t.Key == key {
			return t.IsGroup
		}
	}
	return false
}

// InboundCommand is one command body received from the bus.
type InboundCommand struct {
	ID       string
	BodyName string
	Body     map[string]any
}
