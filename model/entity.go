package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Gengyveusa/aether/helper"
	"github.com/google/uuid"
)

// Well-known entity types. Type stays free-form.
const (
	EntityTypeBrand   = "brand"
	EntityTypePerson  = "person"
	EntityTypeProduct = "product"
	EntityTypeStory   = "story"
	EntityTypeProof   = "proof"
)

// Column widths of the entities table. Every backend enforces them.
const (
	MaxEntityTypeLength  = 32
	MaxSlugLength        = 256
	MaxDisplayNameLength = 512
)

// reservedEntityKeys are the fixed Entity fields. ExtraData may not shadow them.
var reservedEntityKeys = map[string]struct{}{
	"id":          {},
	"type":        {},
	"slug":        {},
	"displayName": {},
	"description": {},
	"createdAt":   {},
	"updatedAt":   {},
}

// IsReservedEntityKey reports whether key names a fixed Entity field.
func IsReservedEntityKey(key string) bool {
	_, ok := reservedEntityKeys[key]
	return ok
}

// Entity is a uniquely identified brand-domain node (a brand, a person, a product, ...).
// ExtraData carries type-specific fields and is flattened onto the record when serialized.
type Entity struct {
	ID          uuid.UUID
	Type        string
	Slug        string
	DisplayName string
	Description string
	ExtraData   Metadata
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsPlaceholder reports whether e stands in for an entity that could not be resolved.
func (e *Entity) IsPlaceholder() bool {
	return e == nil || e.ID == uuid.Nil
}

// Validate checks the required fields and the reserved ExtraData keys.
func (e *Entity) Validate() error {
	if e == nil {
		return helper.NewValidationError("validate entity", "entity is nil")
	}
	if strings.TrimSpace(e.Type) == "" {
		return helper.NewValidationError("validate entity", "type is required")
	}
	if strings.TrimSpace(e.Slug) == "" {
		return helper.NewValidationError("validate entity", "slug is required")
	}
	if strings.TrimSpace(e.DisplayName) == "" {
		return helper.NewValidationError("validate entity", "displayName is required")
	}
	if err := checkLength("validate entity", "type", e.Type, MaxEntityTypeLength); err != nil {
		return err
	}
	if err := checkLength("validate entity", "slug", e.Slug, MaxSlugLength); err != nil {
		return err
	}
	if err := checkLength("validate entity", "displayName", e.DisplayName, MaxDisplayNameLength); err != nil {
		return err
	}
	for k := range e.ExtraData {
		if IsReservedEntityKey(k) {
			return helper.NewValidationError("validate entity", "extraData may not contain reserved key "+k)
		}
	}
	if _, err := e.ExtraData.Normalize("extraData"); err != nil {
		return err
	}
	return nil
}

// checkLength counts characters, as varchar(n) does.
func checkLength(op, field, value string, max int) error {
	if n := utf8.RuneCountInString(value); n > max {
		return helper.NewValidationError(op, fmt.Sprintf("%s is %d characters, at most %d allowed", field, n, max))
	}
	return nil
}

// PrepareForCreate assigns a generated id and timestamps where absent.
// CreatedAt and UpdatedAt are equal when both are generated.
func (e *Entity) PrepareForCreate() {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	stampTimes(&e.CreatedAt, &e.UpdatedAt)
	if e.ExtraData == nil {
		e.ExtraData = Metadata{}
	}
}

// Clone returns an independent copy of e.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	c := *e
	c.ExtraData = e.ExtraData.Clone()
	return &c
}

// MarshalJSON flattens ExtraData next to the fixed fields.
// A placeholder entity serializes as an empty object.
func (e Entity) MarshalJSON() ([]byte, error) {
	if e.ID == uuid.Nil {
		return []byte("{}"), nil
	}

	out := make(map[string]interface{}, len(e.ExtraData)+len(reservedEntityKeys))
	for k, v := range e.ExtraData {
		if !IsReservedEntityKey(k) {
			out[k] = v
		}
	}
	out["id"] = e.ID.String()
	out["type"] = e.Type
	out["slug"] = e.Slug
	out["displayName"] = e.DisplayName
	out["description"] = e.Description
	out["createdAt"] = FormatTime(e.CreatedAt)
	out["updatedAt"] = FormatTime(e.UpdatedAt)
	return json.Marshal(out)
}

// UnmarshalJSON routes the fixed keys to fields and everything else into ExtraData.
func (e *Entity) UnmarshalJSON(b []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*e = Entity{ExtraData: Metadata{}}
	for k, v := range raw {
		if !IsReservedEntityKey(k) {
			e.ExtraData[k] = v
			continue
		}

		s, ok := v.(string)
		if !ok && v != nil {
			return helper.NewValidationError("decode entity", fmt.Sprintf("%s must be a string, got %T", k, v))
		}
		var err error
		switch k {
		case "id":
			if s != "" {
				e.ID, err = ParseID(s)
			}
		case "type":
			e.Type = s
		case "slug":
			e.Slug = s
		case "displayName":
			e.DisplayName = s
		case "description":
			e.Description = s
		case "createdAt":
			if s != "" {
				e.CreatedAt, err = ParseTime(s)
			}
		case "updatedAt":
			if s != "" {
				e.UpdatedAt, err = ParseTime(s)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}
