package store

import (
	"context"

	"github.com/Gengyveusa/aether/model"
	"github.com/google/uuid"
)

// Backend is the capability set every storage engine implements.
// Callers depend only on this contract and never on which engine answered.
//
// A missing row is reported as helper.ErrNotFound, a normal outcome.
// Invalid input is rejected with helper.ErrValidation before storage is touched.
// Unreachable or timed out engines report helper.ErrBackendUnavailable, which callers may retry.
// Backends never retry internally.
type Backend interface {
	// CreateEntity stores a new entity. The id and timestamps are generated when absent.
	CreateEntity(ctx context.Context, entity *model.Entity) (*model.Entity, error)
	GetEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error)
	// UpdateEntity replaces type, slug, display name, description and extra data of an existing entity.
	UpdateEntity(ctx context.Context, entity *model.Entity) (*model.Entity, error)
	ListEntities(ctx context.Context, filter model.EntityFilter) ([]*model.Entity, error)

	UpsertCanonicalContent(ctx context.Context, entityID uuid.UUID, data model.Metadata) (*model.CanonicalContent, error)
	GetCanonicalContent(ctx context.Context, entityID uuid.UUID) (*model.CanonicalContent, error)

	// CreateSourceDocument ingests a document. Re-ingesting a (brand, url) pair overwrites it.
	CreateSourceDocument(ctx context.Context, document *model.SourceDocument) (*model.SourceDocument, error)
	// ListSourceDocuments returns the documents of a brand, newest ingest first.
	ListSourceDocuments(ctx context.Context, brandID uuid.UUID, includeContent bool) ([]*model.SourceDocument, error)

	CreateRelationship(ctx context.Context, relationship *model.Relationship) (*model.Relationship, error)
	ListRelationships(ctx context.Context, filter model.RelationshipFilter) ([]*model.Relationship, error)
	// GetNeighbors returns every relationship touching entityID in either direction with
	// both endpoints resolved. An empty relationshipTypes matches every type.
	GetNeighbors(ctx context.Context, entityID uuid.UUID, relationshipTypes []string) ([]*model.Neighbor, error)

	GetBrandPolicy(ctx context.Context, brandID uuid.UUID) (*model.BrandPolicy, error)
	UpsertBrandPolicy(ctx context.Context, policy *model.BrandPolicy) (*model.BrandPolicy, error)

	// Close releases the resources owned by the backend.
	Close() error
}
