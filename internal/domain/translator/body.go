package translator

import (
	"fmt"
	"math"

	"hue-bus-bridge/internal/domain/model"
)

// body wraps an inbound command body. Values arrive as strings from the
// legacy bus or as JSON numbers.
type body map[string]any

func (b body) str(key string) string {
	switch v := b[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// num returns the finite numeric value of key.
func (b body) num(key string) (float64, bool) {
	v, ok := model.Number(b[key])
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (b body) numPtr(key string) *float64 {
	v, ok := b.num(key)
	if !ok {
		return nil
	}
	return &v
}
