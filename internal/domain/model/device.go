package model

import "strconv"

type DeviceKind string

const (
	DeviceKindLight  DeviceKind = "light"
	DeviceKindSensor DeviceKind = "sensor"
	DeviceKindGroup  DeviceKind = "group"
)

// Scalar is a bool, string or float64. Adapters normalize numbers to float64.
type Scalar = any

// DeviceSnapshot is one light or sensor as returned by a single bridge poll.
type DeviceSnapshot struct {
	ID         string
	UniqueID   string
	Kind       DeviceKind
	Type       string
	Name       string
	Attributes map[string]Scalar
}

// ExternalKey is the stable identifier used for alias lookup.
func (d DeviceSnapshot) ExternalKey() string {
	if d.UniqueID != "" {
		return d.UniqueID
	}
	if d.Kind == DeviceKindSensor {
		return "sensor-" + d.ID
	}
	return d.ID
}

type GroupSnapshot struct {
	ID              string
	Name            string
	MemberDeviceIDs []string
}

func (g GroupSnapshot) ExternalKey() string {
	return "group-" + g.ID
}

// IsScalar reports whether v can be stored in a snapshot attribute map.
func IsScalar(v any) bool {
	switch v.(type) {
	case bool, string, float64:
		return true
	}
	return false
}

// Number converts the numeric scalar kinds found in bridge payloads to float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
