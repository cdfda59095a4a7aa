package model

import (
	"encoding/json"
	"time"

	"github.com/Gengyveusa/aether/helper"
	"github.com/google/uuid"
)

// BrandPolicy holds the content constraints attached to a brand.
// Upserts replace every field; lists are never merged.
type BrandPolicy struct {
	BrandID          uuid.UUID
	AllowedClaims    Metadata
	ForbiddenPhrases []string
	RegulatedTopics  []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type brandPolicyJSON struct {
	BrandID          uuid.UUID `json:"brandId"`
	AllowedClaims    Metadata  `json:"allowedClaims"`
	ForbiddenPhrases []string  `json:"forbiddenPhrases"`
	RegulatedTopics  []string  `json:"regulatedTopics"`
	CreatedAt        jsonTime  `json:"createdAt"`
	UpdatedAt        jsonTime  `json:"updatedAt"`
}

// Validate checks the brand id.
func (p *BrandPolicy) Validate() error {
	if p == nil {
		return helper.NewValidationError("validate brand policy", "policy is nil")
	}
	if p.BrandID == uuid.Nil {
		return helper.NewValidationError("validate brand policy", "brandId is required")
	}
	if _, err := p.AllowedClaims.Normalize("allowedClaims"); err != nil {
		return err
	}
	return nil
}

// Normalize replaces nil collections with empty ones.
func (p *BrandPolicy) Normalize() {
	if p.AllowedClaims == nil {
		p.AllowedClaims = Metadata{}
	}
	if p.ForbiddenPhrases == nil {
		p.ForbiddenPhrases = []string{}
	}
	if p.RegulatedTopics == nil {
		p.RegulatedTopics = []string{}
	}
}

// Clone returns an independent copy of p.
func (p *BrandPolicy) Clone() *BrandPolicy {
	if p == nil {
		return nil
	}
	c := *p
	c.AllowedClaims = p.AllowedClaims.Clone()
	c.ForbiddenPhrases = append([]string{}, p.ForbiddenPhrases...)
	c.RegulatedTopics = append([]string{}, p.RegulatedTopics...)
	return &c
}

func (p BrandPolicy) MarshalJSON() ([]byte, error) {
	p.Normalize()
	return json.Marshal(brandPolicyJSON{
		BrandID:          p.BrandID,
		AllowedClaims:    p.AllowedClaims,
		ForbiddenPhrases: p.ForbiddenPhrases,
		RegulatedTopics:  p.RegulatedTopics,
		CreatedAt:        jsonTime(p.CreatedAt),
		UpdatedAt:        jsonTime(p.UpdatedAt),
	})
}

func (p *BrandPolicy) UnmarshalJSON(b []byte) error {
	var v brandPolicyJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = BrandPolicy{
		BrandID:          v.BrandID,
		AllowedClaims:    v.AllowedClaims,
		ForbiddenPhrases: v.ForbiddenPhrases,
		RegulatedTopics:  v.RegulatedTopics,
		CreatedAt:        time.Time(v.CreatedAt),
		UpdatedAt:        time.Time(v.UpdatedAt),
	}
	p.Normalize()
	return nil
}
