package gateway

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// Schema is the JSON-schema-lite shape stored on an endpoint: a list
// of required field names plus per-field type and string length
// constraints.
type Schema struct {
	Required   []string            `json:"required"`
	Properties map[string]Property `json:"properties"`
}

type Property struct {
	Type      string `json:"type"` // string | number | boolean | object
	MinLength *int   `json:"minLength"`
	MaxLength *int   `json:"maxLength"`
}

// ParseSchema decodes a stored request schema. Empty blobs mean "no
// validation".
func ParseSchema(raw datatypes.JSON) (*Schema, error) {
	if len(raw) == 0 || string(raw) == "null" || string(raw) == "{}" {
		return nil, nil
	}
	var s Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if len(s.Required) == 0 && len(s.Properties) == 0 {
		return nil, nil
	}
	return &s, nil
}

// ValidateBody checks a parsed JSON body against the schema. Unlike
// the request validator it accumulates every violation instead of
// stopping at the first, so clients can correct an entire form at
// once.
func ValidateBody(body map[string]any, schema *Schema) (bool, []string) {
	if schema == nil {
		return true, nil
	}

	var errs []string
	for _, name := range schema.Required {
		if _, ok := body[name]; !ok {
			errs = append(errs, fmt.Sprintf("Missing required field: %s", name))
		}
	}

	for name, prop := range schema.Properties {
		value, ok := body[name]
		if !ok {
			continue
		}
		if prop.Type != "" && !typeMatches(value, prop.Type) {
			errs = append(errs, fmt.Sprintf("Field %s must be of type %s", name, prop.Type))
			continue
		}
		if s, ok := value.(string); ok {
			if prop.MinLength != nil && len(s) < *prop.MinLength {
				errs = append(errs, fmt.Sprintf("Field %s must be at least %d characters", name, *prop.MinLength))
			}
			if prop.MaxLength != nil && len(s) > *prop.MaxLength {
				errs = append(errs, fmt.Sprintf("Field %s must be at most %d characters", name, *prop.MaxLength))
			}
		}
	}

	return len(errs) == 0, errs
}

func typeMatches(value any, typ string) bool {
	switch typ {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		_, ok := value.(float64)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "object":
		switch value.(type) {
		case map[string]any, []any:
			return true
		}
		return false
	}
	return false
}
