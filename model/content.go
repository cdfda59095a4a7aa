package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/Gengyveusa/aether/helper"
	"github.com/google/uuid"
)

// DefaultContentType is applied to source documents ingested without one.
const DefaultContentType = "text/html"

// MaxContentTypeLength is the column width of source_documents.content_type.
const MaxContentTypeLength = 128

// CanonicalContent is the single curated content record attached to an entity.
type CanonicalContent struct {
	EntityID  uuid.UUID
	Data      Metadata
	CreatedAt time.Time
	UpdatedAt time.Time
}

type canonicalContentJSON struct {
	EntityID  uuid.UUID `json:"entityId"`
	Data      Metadata  `json:"data"`
	CreatedAt jsonTime  `json:"createdAt"`
	UpdatedAt jsonTime  `json:"updatedAt"`
}

// Clone returns an independent copy of c.
func (c *CanonicalContent) Clone() *CanonicalContent {
	if c == nil {
		return nil
	}
	out := *c
	out.Data = c.Data.Clone()
	return &out
}

func (c CanonicalContent) MarshalJSON() ([]byte, error) {
	data := c.Data
	if data == nil {
		data = Metadata{}
	}
	return json.Marshal(canonicalContentJSON{
		EntityID:  c.EntityID,
		Data:      data,
		CreatedAt: jsonTime(c.CreatedAt),
		UpdatedAt: jsonTime(c.UpdatedAt),
	})
}

func (c *CanonicalContent) UnmarshalJSON(b []byte) error {
	var v canonicalContentJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*c = CanonicalContent{
		EntityID:  v.EntityID,
		Data:      v.Data,
		CreatedAt: time.Time(v.CreatedAt),
		UpdatedAt: time.Time(v.UpdatedAt),
	}
	if c.Data == nil {
		c.Data = Metadata{}
	}
	return nil
}

// SourceDocument is a raw ingested artifact attributed to a brand.
// The pair (BrandID, URL) is unique; re-ingesting overwrites the content.
type SourceDocument struct {
	ID          uuid.UUID
	BrandID     uuid.UUID
	URL         string
	Content     string
	ContentType string
	IngestedAt  time.Time

	contentStripped bool
}

type sourceDocumentJSON struct {
	ID          uuid.UUID `json:"id"`
	BrandID     uuid.UUID `json:"brandId"`
	URL         string    `json:"url"`
	Content     *string   `json:"content,omitempty"`
	ContentType string    `json:"contentType"`
	IngestedAt  jsonTime  `json:"ingestedAt"`
}

// Validate checks the brand and url.
func (d *SourceDocument) Validate() error {
	if d == nil {
		return helper.NewValidationError("validate source document", "document is nil")
	}
	if d.BrandID == uuid.Nil {
		return helper.NewValidationError("validate source document", "brandId is required")
	}
	if strings.TrimSpace(d.URL) == "" {
		return helper.NewValidationError("validate source document", "url is required")
	}
	return checkLength("validate source document", "contentType", d.ContentType, MaxContentTypeLength)
}

// PrepareForCreate assigns id, default content type and ingest time where absent.
func (d *SourceDocument) PrepareForCreate() {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if strings.TrimSpace(d.ContentType) == "" {
		d.ContentType = DefaultContentType
	}
	if d.IngestedAt.IsZero() {
		d.IngestedAt = Now()
	} else {
		d.IngestedAt = NormalizeTime(d.IngestedAt)
	}
}

// Clone returns an independent copy of d.
func (d *SourceDocument) Clone() *SourceDocument {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

// WithoutContent returns a copy of d with the content body stripped.
// The stripped copy omits content when serialized.
func (d *SourceDocument) WithoutContent() *SourceDocument {
	c := d.Clone()
	c.Content = ""
	c.contentStripped = true
	return c
}

func (d SourceDocument) MarshalJSON() ([]byte, error) {
	v := sourceDocumentJSON{
		ID:          d.ID,
		BrandID:     d.BrandID,
		URL:         d.URL,
		ContentType: d.ContentType,
		IngestedAt:  jsonTime(d.IngestedAt),
	}
	if !d.contentStripped {
		content := d.Content
		v.Content = &content
	}
	return json.Marshal(v)
}

func (d *SourceDocument) UnmarshalJSON(b []byte) error {
	var v sourceDocumentJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*d = SourceDocument{
		ID:          v.ID,
		BrandID:     v.BrandID,
		URL:         v.URL,
		ContentType: v.ContentType,
		IngestedAt:  time.Time(v.IngestedAt),
	}
	if v.Content != nil {
		d.Content = *v.Content
	} else {
		d.contentStripped = true
	}
	return nil
}

// HasContent reports whether the content body was loaded.
func (d *SourceDocument) HasContent() bool {
	return !d.contentStripped
}
