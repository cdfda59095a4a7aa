package model

import (
	"github.com/google/uuid"
)

const (
	// DefaultListLimit applies when EntityFilter.Limit is zero.
	DefaultListLimit = 50
	// MaxListLimit caps EntityFilter.Limit.
	MaxListLimit = 500
)

// EntityFilter narrows a ListEntities scan. Empty fields match everything.
// BrandID matches the brandId key of ExtraData.
type EntityFilter struct {
	Type    string
	BrandID *uuid.UUID
	Limit   int
	Offset  int
}

// Normalize applies the default and maximum limit and clamps a negative offset.
func (f EntityFilter) Normalize() EntityFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Matches reports whether e passes the type and brand filters. Paging is not applied.
func (f EntityFilter) Matches(e *Entity) bool {
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.BrandID != nil {
		brandID, _ := e.ExtraData["brandId"].(string)
		if brandID != f.BrandID.String() {
			return false
		}
	}
	return true
}

// RelationshipFilter narrows a ListRelationships scan. Present fields are ANDed.
type RelationshipFilter struct {
	FromEntityID *uuid.UUID
	ToEntityID   *uuid.UUID
	Type         string
}

// Matches reports whether r passes every present filter.
func (f RelationshipFilter) Matches(r *Relationship) bool {
	if f.FromEntityID != nil && r.FromEntityID != *f.FromEntityID {
		return false
	}
	if f.ToEntityID != nil && r.ToEntityID != *f.ToEntityID {
		return false
	}
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	return true
}

// MatchesTypes reports whether relationshipType is listed. An empty list matches every type.
func MatchesTypes(relationshipType string, relationshipTypes []string) bool {
	if len(relationshipTypes) == 0 {
		return true
	}
	for _, t := range relationshipTypes {
		if t == relationshipType {
			return true
		}
	}
	return false
}
