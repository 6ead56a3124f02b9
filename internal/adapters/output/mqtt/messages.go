package mqtt

import (
	"encoding/json"

	"hue-bus-bridge/internal/domain/model"
)

// StatMessage is the payload of an outbound change event.
type StatMessage struct {
	Device    string `json:"device"`
	Type      string `json:"type"`
	Current   any    `json:"current"`
	Unit      string `json:"unit,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Source    string `json:"source,omitempty"`
}

type StatusMessage struct {
	Status string `json:"status"`
	Source string `json:"source"`
	Reason string `json:"reason,omitempty"`
}

func newStatMessage(rec model.ChangeRecord, source string) StatMessage {
	current := rec.Value
	if b, ok := current.(bool); ok {
		current = "disable"
		if b {
			current = "enable"
		}
	}
	return StatMessage{
		Device:    rec.RoutingKey,
		Type:      rec.Attribute,
		Current:   current,
		Unit:      rec.Unit,
		Timestamp: rec.Timestamp,
		Source:    source,
	}
}

func statusPayload(status, source, reason string) []byte {
	b, _ := json.Marshal(StatusMessage{Status: status, Source: source, Reason: reason})
	return b
}
