package model

// MessageKindSensor is the bus body name used for every outbound change event.
const MessageKindSensor = "sensor.basic"

// ChangeRecord is one attribute delta ready for emission. Value is already
// converted to its emission unit.
type ChangeRecord struct {
	RoutingKey string `json:"device"`
	Attribute  string `json:"type"`
	Value      Scalar `json:"current"`
	Unit       string `json:"unit,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// CacheEntry is the last published view of one routing key.
type CacheEntry struct {
	RoutingKey     string            `json:"routing_key"`
	Kind           DeviceKind        `json:"kind"`
	BridgeID       string            `json:"bridge_id"`
	LastAttributes map[string]Scalar `json:"attributes"`
	LastUpdated    string            `json:"last_updated,omitempty"`
}
