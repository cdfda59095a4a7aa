package relational

import (
	"context"
	"log/slog"
	"time"

	"github.com/Gengyveusa/aether/core/store"
	"github.com/Gengyveusa/aether/database"
	"github.com/Gengyveusa/aether/helper"
	"github.com/Gengyveusa/aether/model"
	loadSql "github.com/Gengyveusa/aether/sql"
	"github.com/google/uuid"
)

// Backend stores the graph in Postgres through one handler per table.
// Each operation runs in its own transaction bounded by the operation timeout.
type Backend struct {
	db      *helper.Database
	timeout time.Duration

	entities         database.EntitiesDBHandlerFunctions
	relationships    database.RelationshipsDBHandlerFunctions
	canonicalContent database.CanonicalContentDBHandlerFunctions
	sourceDocuments  database.SourceDocumentsDBHandlerFunctions
	brandPolicies    database.BrandPoliciesDBHandlerFunctions
}

var _ store.Backend = (*Backend)(nil)

// New loads the schema and creates the handlers. The backend owns db from here on
// and closes it in Close. A zero timeout falls back to helper.DefaultOperationTimeout.
// If force is true, the SQL functions are reloaded even if they already exist.
func New(db *helper.Database, timeout time.Duration, force bool) (*Backend, error) {
	if db == nil || db.Instance == nil {
		return nil, helper.NewValidationError("create relational backend", "database connection is nil")
	}
	if timeout <= 0 {
		timeout = helper.DefaultOperationTimeout
	}

	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Entities first, every other table references them.
	entities, err := database.NewEntitiesDBHandler(db, force)
	if err != nil {
		return nil, helper.NewError("create entities handler", err)
	}

	relationships, err := database.NewRelationshipsDBHandler(db, force)
	if err != nil {
		return nil, helper.NewError("create relationships handler", err)
	}

	canonicalContent, err := database.NewCanonicalContentDBHandler(db, force)
	if err != nil {
		return nil, helper.NewError("create canonical content handler", err)
	}

	sourceDocuments, err := database.NewSourceDocumentsDBHandler(db, force)
	if err != nil {
		return nil, helper.NewError("create source documents handler", err)
	}

	brandPolicies, err := database.NewBrandPoliciesDBHandler(db, force)
	if err != nil {
		return nil, helper.NewError("create brand policies handler", err)
	}

	db.Logger.Info("Initialized relational backend", slog.String("database", db.Name), slog.Duration("timeout", timeout))

	return &Backend{
		db:               db,
		timeout:          timeout,
		entities:         entities,
		relationships:    relationships,
		canonicalContent: canonicalContent,
		sourceDocuments:  sourceDocuments,
		brandPolicies:    brandPolicies,
	}, nil
}

func (b *Backend) CreateEntity(ctx context.Context, entity *model.Entity) (*model.Entity, error) {
	if err := entity.Validate(); err != nil {
		return nil, err
	}

	e := entity.Clone()
	e.PrepareForCreate()

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	return b.entities.InsertEntity(ctx, e)
}

func (b *Backend) GetEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	return b.entities.SelectEntity(ctx, id)
}

func (b *Backend) UpdateEntity(ctx context.Context, entity *model.Entity) (*model.Entity, error) {
	if err := entity.Validate(); err != nil {
		return nil, err
	}
	if entity.ID == uuid.Nil {
		return nil, helper.NewValidationError("update entity", "id is required")
	}

	e := entity.Clone()
	if e.ExtraData == nil {
		e.ExtraData = model.Metadata{}
	}
	e.UpdatedAt = model.Now()

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	return b.entities.UpdateEntity(ctx, e)
}

func (b *Backend) ListEntities(ctx context.Context, filter model.EntityFilter) ([]*model.Entity, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	return b.entities.SelectEntities(ctx, filter.Normalize())
}

func (b *Backend) UpsertCanonicalContent(ctx context.Context, entityID uuid.UUID, data model.Metadata) (*model.CanonicalContent, error) {
	if entityID == uuid.Nil {
		return nil, helper.NewValidationError("upsert canonical content", "entityId is required")
	}

	normalized, err := data.Normalize("canonical content data")
	if err != nil {
		return nil, err
	}

	content := &model.CanonicalContent{
		EntityID:  entityID,
		Data:      normalized,
		UpdatedAt: model.Now(),
	}

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	return b.canonicalContent.UpsertCanonicalContent(ctx, content)
}

func (b *Backend) GetCanonicalContent(ctx context.Context, entityID uuid.UUID) (*model.CanonicalContent, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	return b.canonicalContent.SelectCanonicalContent(ctx, entityID)
}

func (b *Backend) CreateSourceDocument(ctx context.Context, document *model.SourceDocument) (*model.SourceDocument, error) {
	if err := document.Validate(); err != nil {
		return nil, err
	}

	d := document.Clone()
	d.PrepareForCreate()

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	return b.sourceDocuments.UpsertSourceDocument(ctx, d)
}

func (b *Backend) ListSourceDocuments(ctx context.Context, brandID uuid.UUID, includeContent bool) ([]*model.SourceDocument, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	return b.sourceDocuments.SelectSourceDocuments(ctx, brandID, includeContent)
}

// CreateRelationship requires both endpoints to exist. A missing endpoint is a validation error.
func (b *Backend) CreateRelationship(ctx context.Context, relationship *model.Relationship) (*model.Relationship, error) {
	if err := relationship.Validate(); err != nil {
		return nil, err
	}

	r := relationship.Clone()
	r.PrepareForCreate()

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	return b.relationships.InsertRelationship(ctx, r)
}

func (b *Backend) ListRelationships(ctx context.Context, filter model.RelationshipFilter) ([]*model.Relationship, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	return b.relationships.SelectRelationships(ctx, filter)
}

func (b *Backend) GetNeighbors(ctx context.Context, entityID uuid.UUID, relationshipTypes []string) ([]*model.Neighbor, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	return b.relationships.SelectNeighbors(ctx, entityID, relationshipTypes)
}

func (b *Backend) GetBrandPolicy(ctx context.Context, brandID uuid.UUID) (*model.BrandPolicy, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	return b.brandPolicies.SelectBrandPolicy(ctx, brandID)
}

func (b *Backend) UpsertBrandPolicy(ctx context.Context, policy *model.BrandPolicy) (*model.BrandPolicy, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	p := policy.Clone()
	p.Normalize()
	p.UpdatedAt = model.Now()

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	return b.brandPolicies.UpsertBrandPolicy(ctx, p)
}

// Close closes the database connection
func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.timeout)
}
