package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/Gengyveusa/aether/helper"
	"github.com/google/uuid"
)

// Well-known relationship types. Type stays free-form.
const (
	RelationshipFoundedBy    = "founded_by"
	RelationshipEndorses     = "endorses"
	RelationshipCompetesWith = "competes_with"
	RelationshipPoweredBy    = "powered_by"
	RelationshipAppearsIn    = "appears_in"
	RelationshipReferencedBy = "referenced_by"
)

// MaxRelationshipTypeLength is the column width of relationships.type.
const MaxRelationshipTypeLength = 64

// Relationship is a directed, typed edge between two entities.
// Self-loops and parallel edges of the same type are allowed.
type Relationship struct {
	ID           uuid.UUID
	FromEntityID uuid.UUID
	ToEntityID   uuid.UUID
	Type         string
	ProofIDs     []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type relationshipJSON struct {
	ID           uuid.UUID `json:"id"`
	FromEntityID uuid.UUID `json:"fromEntityId"`
	ToEntityID   uuid.UUID `json:"toEntityId"`
	Type         string    `json:"type"`
	ProofIDs     []string  `json:"proofIds"`
	CreatedAt    jsonTime  `json:"createdAt"`
	UpdatedAt    jsonTime  `json:"updatedAt"`
}

// Validate checks the required endpoints and type.
func (r *Relationship) Validate() error {
	if r == nil {
		return helper.NewValidationError("validate relationship", "relationship is nil")
	}
	if r.FromEntityID == uuid.Nil {
		return helper.NewValidationError("validate relationship", "fromEntityId is required")
	}
	if r.ToEntityID == uuid.Nil {
		return helper.NewValidationError("validate relationship", "toEntityId is required")
	}
	if strings.TrimSpace(r.Type) == "" {
		return helper.NewValidationError("validate relationship", "type is required")
	}
	return checkLength("validate relationship", "type", r.Type, MaxRelationshipTypeLength)
}

// PrepareForCreate assigns a generated id and timestamps where absent.
func (r *Relationship) PrepareForCreate() {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.ProofIDs == nil {
		r.ProofIDs = []string{}
	}
	stampTimes(&r.CreatedAt, &r.UpdatedAt)
}

// Touches reports whether entityID is either endpoint of r.
func (r *Relationship) Touches(entityID uuid.UUID) bool {
	return r.FromEntityID == entityID || r.ToEntityID == entityID
}

// Clone returns an independent copy of r.
func (r *Relationship) Clone() *Relationship {
	if r == nil {
		return nil
	}
	c := *r
	c.ProofIDs = append([]string{}, r.ProofIDs...)
	return &c
}

func (r Relationship) MarshalJSON() ([]byte, error) {
	proofIDs := r.ProofIDs
	if proofIDs == nil {
		proofIDs = []string{}
	}
	return json.Marshal(relationshipJSON{
		ID:           r.ID,
		FromEntityID: r.FromEntityID,
		ToEntityID:   r.ToEntityID,
		Type:         r.Type,
		ProofIDs:     proofIDs,
		CreatedAt:    jsonTime(r.CreatedAt),
		UpdatedAt:    jsonTime(r.UpdatedAt),
	})
}

func (r *Relationship) UnmarshalJSON(b []byte) error {
	var v relationshipJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = Relationship{
		ID:           v.ID,
		FromEntityID: v.FromEntityID,
		ToEntityID:   v.ToEntityID,
		Type:         v.Type,
		ProofIDs:     v.ProofIDs,
		CreatedAt:    time.Time(v.CreatedAt),
		UpdatedAt:    time.Time(v.UpdatedAt),
	}
	if r.ProofIDs == nil {
		r.ProofIDs = []string{}
	}
	return nil
}

// Neighbor is one relationship touching an entity with both endpoints resolved.
// An endpoint that could not be resolved is a placeholder entity.
type Neighbor struct {
	Relationship *Relationship `json:"relationship"`
	FromEntity   *Entity       `json:"fromEntity"`
	ToEntity     *Entity       `json:"toEntity"`
}

// Other returns the endpoint of the neighbor triple that is not entityID.
// For a self-loop it returns the entity itself.
func (n *Neighbor) Other(entityID uuid.UUID) *Entity {
	if n.Relationship.FromEntityID == entityID {
		return n.ToEntity
	}
	return n.FromEntity
}
