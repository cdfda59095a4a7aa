package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/Gengyveusa/aether/helper"
)

// Metadata is an open-ended mapping stored as a JSONB blob.
// It backs Entity.ExtraData, CanonicalContent.Data and BrandPolicy.AllowedClaims.
type Metadata map[string]interface{}

// Value implements the driver.Valuer interface for database storage.
// A nil mapping is stored as an empty object.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return m.Marshal()
}

// Scan implements the sql.Scanner interface for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	return m.Unmarshal(value)
}

// Marshal converts Metadata to JSON bytes
func (m Metadata) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal converts JSON bytes, a JSON string or Metadata to Metadata
func (m *Metadata) Unmarshal(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case Metadata:
		*m = v.Clone()
		return nil
	case map[string]interface{}:
		*m = Metadata(v).Clone()
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	out := Metadata{}
	if err := json.Unmarshal(b, &out); err != nil {
		return helper.NewError("json unmarshal", err)
	}
	if out == nil {
		out = Metadata{}
	}
	*m = out
	return nil
}

// Normalize returns m in the shape a JSON round trip produces: numbers become float64,
// typed slices become []interface{} and nested maps become map[string]interface{}.
// Values JSON cannot encode (NaN, channels, functions) are a validation error.
func (m Metadata) Normalize(field string) (Metadata, error) {
	if m == nil {
		return Metadata{}, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, helper.NewValidationError("normalize "+field, err.Error())
	}
	out := Metadata{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, helper.NewValidationError("normalize "+field, err.Error())
	}
	return out, nil
}

// Clone returns a deep copy of nested maps and slices.
// A nil Metadata clones to an empty, non-nil Metadata.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case Metadata:
		return t.Clone()
	case map[string]interface{}:
		return map[string]interface{}(Metadata(t).Clone())
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string{}, t...)
	case []map[string]interface{}:
		out := make([]map[string]interface{}, len(t))
		for i, e := range t {
			out[i] = map[string]interface{}(Metadata(e).Clone())
		}
		return out
	case []float64:
		return append([]float64{}, t...)
	case []int:
		return append([]int{}, t...)
	default:
		return v
	}
}
