package bus

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const commandSchemaURL = "command.json"

// commandSchema accepts flat command bodies: scalar values only and a
// non-empty command.
const commandSchema = `{
  "type": "object",
  "required": ["command"],
  "properties": {
    "command":   {"type": "string", "minLength": 1},
    "device":    {"type": "string"},
    "current":   {"type": ["string", "number", "boolean"]},
    "data1":     {"type": ["string", "number"]},
    "hue":       {"type": ["string", "number"]},
    "saturation":{"type": ["string", "number"]},
    "brightness":{"type": ["string", "number"]},
    "red":       {"type": ["string", "number"]},
    "green":     {"type": ["string", "number"]},
    "blue":      {"type": ["string", "number"]},
    "colorTemp": {"type": ["string", "number"]}
  },
  "additionalProperties": {"type": ["string", "number", "boolean"]}
}`

// Validator checks inbound command bodies against the command schema.
type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	var doc any
	if err := json.Unmarshal([]byte(commandSchema), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(commandSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add resource: %w", err)
	}
	s, err := c.Compile(commandSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile: %w", err)
	}
	return &Validator{schema: s}, nil
}

func (v *Validator) Validate(body map[string]any) error {
	return v.schema.Validate(body)
}
