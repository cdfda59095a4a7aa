package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/Gengyveusa/aether/helper"
	"github.com/Gengyveusa/aether/model"
	"github.com/google/uuid"
)

// Observed wraps a Backend with structured logging and metrics.
// Results and errors pass through unchanged.
type Observed struct {
	inner   Backend
	backend string
	logger  *slog.Logger
	metrics *Metrics
}

var _ Backend = (*Observed)(nil)

// NewObserved wraps inner. backend labels the log lines and metrics; metrics may be nil.
func NewObserved(inner Backend, backend string, logger *slog.Logger, metrics *Metrics) *Observed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observed{
		inner:   inner,
		backend: backend,
		logger:  logger.With(slog.String("backend", backend)),
		metrics: metrics,
	}
}

// Unwrap returns the wrapped backend.
func (o *Observed) Unwrap() Backend {
	return o.inner
}

func (o *Observed) CreateEntity(ctx context.Context, entity *model.Entity) (*model.Entity, error) {
	start := time.Now()
	out, err := o.inner.CreateEntity(ctx, entity)
	o.observe(ctx, "create_entity", start, err, entityAttr(out))
	return out, err
}

func (o *Observed) GetEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error) {
	start := time.Now()
	out, err := o.inner.GetEntity(ctx, id)
	o.observe(ctx, "get_entity", start, err, slog.String("id", id.String()))
	return out, err
}

func (o *Observed) UpdateEntity(ctx context.Context, entity *model.Entity) (*model.Entity, error) {
	start := time.Now()
	out, err := o.inner.UpdateEntity(ctx, entity)
	o.observe(ctx, "update_entity", start, err, entityAttr(entity))
	return out, err
}

func (o *Observed) ListEntities(ctx context.Context, filter model.EntityFilter) ([]*model.Entity, error) {
	start := time.Now()
	out, err := o.inner.ListEntities(ctx, filter)
	o.observe(ctx, "list_entities", start, err, slog.Int("count", len(out)))
	return out, err
}

func (o *Observed) UpsertCanonicalContent(ctx context.Context, entityID uuid.UUID, data model.Metadata) (*model.CanonicalContent, error) {
	start := time.Now()
	out, err := o.inner.UpsertCanonicalContent(ctx, entityID, data)
	o.observe(ctx, "upsert_canonical_content", start, err, slog.String("entity_id", entityID.String()))
	return out, err
}

func (o *Observed) GetCanonicalContent(ctx context.Context, entityID uuid.UUID) (*model.CanonicalContent, error) {
	start := time.Now()
	out, err := o.inner.GetCanonicalContent(ctx, entityID)
	o.observe(ctx, "get_canonical_content", start, err, slog.String("entity_id", entityID.String()))
	return out, err
}

func (o *Observed) CreateSourceDocument(ctx context.Context, document *model.SourceDocument) (*model.SourceDocument, error) {
	start := time.Now()
	out, err := o.inner.CreateSourceDocument(ctx, document)
	attr := slog.Attr{}
	if document != nil {
		attr = slog.String("url", document.URL)
	}
	o.observe(ctx, "create_source_document", start, err, attr)
	return out, err
}

func (o *Observed) ListSourceDocuments(ctx context.Context, brandID uuid.UUID, includeContent bool) ([]*model.SourceDocument, error) {
	start := time.Now()
	out, err := o.inner.ListSourceDocuments(ctx, brandID, includeContent)
	o.observe(ctx, "list_source_documents", start, err, slog.String("brand_id", brandID.String()), slog.Int("count", len(out)))
	return out, err
}

func (o *Observed) CreateRelationship(ctx context.Context, relationship *model.Relationship) (*model.Relationship, error) {
	start := time.Now()
	out, err := o.inner.CreateRelationship(ctx, relationship)
	attr := slog.Attr{}
	if relationship != nil {
		attr = slog.String("type", relationship.Type)
	}
	o.observe(ctx, "create_relationship", start, err, attr)
	return out, err
}

func (o *Observed) ListRelationships(ctx context.Context, filter model.RelationshipFilter) ([]*model.Relationship, error) {
	start := time.Now()
	out, err := o.inner.ListRelationships(ctx, filter)
	o.observe(ctx, "list_relationships", start, err, slog.Int("count", len(out)))
	return out, err
}

func (o *Observed) GetNeighbors(ctx context.Context, entityID uuid.UUID, relationshipTypes []string) ([]*model.Neighbor, error) {
	start := time.Now()
	out, err := o.inner.GetNeighbors(ctx, entityID, relationshipTypes)
	o.observe(ctx, "get_neighbors", start, err, slog.String("entity_id", entityID.String()), slog.Int("count", len(out)))
	return out, err
}

func (o *Observed) GetBrandPolicy(ctx context.Context, brandID uuid.UUID) (*model.BrandPolicy, error) {
	start := time.Now()
	out, err := o.inner.GetBrandPolicy(ctx, brandID)
	o.observe(ctx, "get_brand_policy", start, err, slog.String("brand_id", brandID.String()))
	return out, err
}

func (o *Observed) UpsertBrandPolicy(ctx context.Context, policy *model.BrandPolicy) (*model.BrandPolicy, error) {
	start := time.Now()
	out, err := o.inner.UpsertBrandPolicy(ctx, policy)
	attr := slog.Attr{}
	if policy != nil {
		attr = slog.String("brand_id", policy.BrandID.String())
	}
	o.observe(ctx, "upsert_brand_policy", start, err, attr)
	return out, err
}

func (o *Observed) Close() error {
	err := o.inner.Close()
	if err != nil {
		o.logger.Error("Error closing backend", slog.String("error", err.Error()))
		return err
	}
	o.logger.Info("Closed backend")
	return nil
}

// observe logs the outcome at a level matching its category and records the metrics.
// Not found is an expected outcome and stays at debug.
func (o *Observed) observe(ctx context.Context, operation string, start time.Time, err error, attrs ...slog.Attr) {
	dur := time.Since(start)
	outcome := helper.KindName(err)
	o.metrics.observe(o.backend, operation, outcome, dur)

	args := make([]slog.Attr, 0, len(attrs)+3)
	args = append(args, slog.String("operation", operation), slog.Duration("duration", dur))
	for _, a := range attrs {
		if a.Key != "" {
			args = append(args, a)
		}
	}

	level := slog.LevelDebug
	msg := "Store operation"
	switch outcome {
	case "ok":
	case "not_found":
		msg = "Store operation found nothing"
	case "validation", "conflict":
		level = slog.LevelInfo
		msg = "Store operation rejected"
	case "unavailable", "not_implemented":
		level = slog.LevelWarn
		msg = "Store operation failed"
	default:
		level = slog.LevelError
		msg = "Store operation failed"
	}
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
	}

	o.logger.LogAttrs(ctx, level, msg, args...)
}

func entityAttr(e *model.Entity) slog.Attr {
	if e == nil {
		return slog.Attr{}
	}
	return slog.String("slug", e.Slug)
}
