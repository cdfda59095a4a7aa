package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Gengyveusa/aether/core/store"
	"github.com/Gengyveusa/aether/helper"
	"github.com/Gengyveusa/aether/model"
	"github.com/google/uuid"
)

// Backend keeps every record in process-local containers.
// Entities, canonical content and brand policies are id-keyed maps;
// relationships and source documents are append-only slices.
// Values cross the boundary as deep copies in both directions.
type Backend struct {
	mu sync.RWMutex

	entities         map[uuid.UUID]*model.Entity
	slugs            map[string]uuid.UUID
	canonicalContent map[uuid.UUID]*model.CanonicalContent
	brandPolicies    map[uuid.UUID]*model.BrandPolicy
	relationships    []*model.Relationship
	sourceDocuments  []*model.SourceDocument

	closed bool
}

var _ store.Backend = (*Backend)(nil)

var errClosed = errors.New("memory backend is closed")

// New returns an empty in-memory backend.
func New() *Backend {
	return &Backend{
		entities:         map[uuid.UUID]*model.Entity{},
		slugs:            map[string]uuid.UUID{},
		canonicalContent: map[uuid.UUID]*model.CanonicalContent{},
		brandPolicies:    map[uuid.UUID]*model.BrandPolicy{},
	}
}

func (b *Backend) CreateEntity(ctx context.Context, entity *model.Entity) (*model.Entity, error) {
	if err := entity.Validate(); err != nil {
		return nil, err
	}

	e := entity.Clone()
	e.PrepareForCreate()
	extra, err := e.ExtraData.Normalize("extraData")
	if err != nil {
		return nil, err
	}
	e.ExtraData = extra

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.check(ctx, "create entity"); err != nil {
		return nil, err
	}
	if _, ok := b.entities[e.ID]; ok {
		return nil, helper.NewConflictError("create entity", "entities_pkey", nil)
	}
	if _, ok := b.slugs[e.Slug]; ok {
		return nil, helper.NewConflictError("create entity", "entities_slug_key", nil)
	}

	b.entities[e.ID] = e
	b.slugs[e.Slug] = e.ID

	return e.Clone(), nil
}

func (b *Backend) GetEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.check(ctx, "get entity"); err != nil {
		return nil, err
	}
	e, ok := b.entities[id]
	if !ok {
		return nil, helper.NewNotFoundError("get entity", id.String())
	}

	return e.Clone(), nil
}

func (b *Backend) UpdateEntity(ctx context.Context, entity *model.Entity) (*model.Entity, error) {
	if err := entity.Validate(); err != nil {
		return nil, err
	}
	if entity.ID == uuid.Nil {
		return nil, helper.NewValidationError("update entity", "id is required")
	}

	extra, err := entity.ExtraData.Normalize("extraData")
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.check(ctx, "update entity"); err != nil {
		return nil, err
	}
	existing, ok := b.entities[entity.ID]
	if !ok {
		return nil, helper.NewNotFoundError("update entity", entity.ID.String())
	}
	if owner, ok := b.slugs[entity.Slug]; ok && owner != entity.ID {
		return nil, helper.NewConflictError("update entity", "entities_slug_key", nil)
	}

	updated := entity.Clone()
	updated.ExtraData = extra
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = model.Now()
	if updated.UpdatedAt.Before(existing.UpdatedAt) {
		updated.UpdatedAt = existing.UpdatedAt
	}

	delete(b.slugs, existing.Slug)
	b.slugs[updated.Slug] = updated.ID
	b.entities[updated.ID] = updated

	return updated.Clone(), nil
}

func (b *Backend) ListEntities(ctx context.Context, filter model.EntityFilter) ([]*model.Entity, error) {
	filter = filter.Normalize()

	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.check(ctx, "list entities"); err != nil {
		return nil, err
	}

	matched := []*model.Entity{}
	for _, e := range b.entities {
		if filter.Matches(e) {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	if filter.Offset >= len(matched) {
		return []*model.Entity{}, nil
	}
	matched = matched[filter.Offset:]
	if len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	out := make([]*model.Entity, 0, len(matched))
	for _, e := range matched {
		out = append(out, e.Clone())
	}
	return out, nil
}

func (b *Backend) UpsertCanonicalContent(ctx context.Context, entityID uuid.UUID, data model.Metadata) (*model.CanonicalContent, error) {
	if entityID == uuid.Nil {
		return nil, helper.NewValidationError("upsert canonical content", "entityId is required")
	}
	normalized, err := data.Normalize("canonical content data")
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.check(ctx, "upsert canonical content"); err != nil {
		return nil, err
	}

	now := model.Now()
	content, ok := b.canonicalContent[entityID]
	if !ok {
		content = &model.CanonicalContent{EntityID: entityID, CreatedAt: now}
		b.canonicalContent[entityID] = content
	}
	content.Data = normalized
	content.UpdatedAt = now

	return content.Clone(), nil
}

func (b *Backend) GetCanonicalContent(ctx context.Context, entityID uuid.UUID) (*model.CanonicalContent, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.check(ctx, "get canonical content"); err != nil {
		return nil, err
	}
	content, ok := b.canonicalContent[entityID]
	if !ok {
		return nil, helper.NewNotFoundError("get canonical content", entityID.String())
	}

	return content.Clone(), nil
}

func (b *Backend) CreateSourceDocument(ctx context.Context, document *model.SourceDocument) (*model.SourceDocument, error) {
	if err := document.Validate(); err != nil {
		return nil, err
	}

	d := document.Clone()
	d.PrepareForCreate()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.check(ctx, "create source document"); err != nil {
		return nil, err
	}

	for i, existing := range b.sourceDocuments {
		if existing.BrandID == d.BrandID && existing.URL == d.URL {
			d.ID = existing.ID
			b.sourceDocuments[i] = d
			return d.Clone(), nil
		}
	}
	for _, existing := range b.sourceDocuments {
		if existing.ID == d.ID {
			return nil, helper.NewConflictError("create source document", "source_documents_pkey", nil)
		}
	}

	b.sourceDocuments = append(b.sourceDocuments, d)
	return d.Clone(), nil
}

func (b *Backend) ListSourceDocuments(ctx context.Context, brandID uuid.UUID, includeContent bool) ([]*model.SourceDocument, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.check(ctx, "list source documents"); err != nil {
		return nil, err
	}

	out := []*model.SourceDocument{}
	for _, d := range b.sourceDocuments {
		if d.BrandID != brandID {
			continue
		}
		if includeContent {
			out = append(out, d.Clone())
		} else {
			out = append(out, d.WithoutContent())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IngestedAt.After(out[j].IngestedAt)
	})

	return out, nil
}

// CreateRelationship does not require the endpoints to exist.
// Neighbors of a missing endpoint resolve to a placeholder entity.
func (b *Backend) CreateRelationship(ctx context.Context, relationship *model.Relationship) (*model.Relationship, error) {
	if err := relationship.Validate(); err != nil {
		return nil, err
	}

	r := relationship.Clone()
	r.PrepareForCreate()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.check(ctx, "create relationship"); err != nil {
		return nil, err
	}
	for _, existing := range b.relationships {
		if existing.ID == r.ID {
			return nil, helper.NewConflictError("create relationship", "relationships_pkey", nil)
		}
	}

	b.relationships = append(b.relationships, r)
	return r.Clone(), nil
}

func (b *Backend) ListRelationships(ctx context.Context, filter model.RelationshipFilter) ([]*model.Relationship, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.check(ctx, "list relationships"); err != nil {
		return nil, err
	}

	out := []*model.Relationship{}
	for _, r := range b.relationships {
		if filter.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (b *Backend) GetNeighbors(ctx context.Context, entityID uuid.UUID, relationshipTypes []string) ([]*model.Neighbor, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.check(ctx, "get neighbors"); err != nil {
		return nil, err
	}

	out := []*model.Neighbor{}
	for _, r := range b.relationships {
		if !r.Touches(entityID) || !model.MatchesTypes(r.Type, relationshipTypes) {
			continue
		}
		out = append(out, &model.Neighbor{
			Relationship: r.Clone(),
			FromEntity:   b.resolve(r.FromEntityID),
			ToEntity:     b.resolve(r.ToEntityID),
		})
	}
	return out, nil
}

func (b *Backend) GetBrandPolicy(ctx context.Context, brandID uuid.UUID) (*model.BrandPolicy, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.check(ctx, "get brand policy"); err != nil {
		return nil, err
	}
	policy, ok := b.brandPolicies[brandID]
	if !ok {
		return nil, helper.NewNotFoundError("get brand policy", brandID.String())
	}

	return policy.Clone(), nil
}

func (b *Backend) UpsertBrandPolicy(ctx context.Context, policy *model.BrandPolicy) (*model.BrandPolicy, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	p := policy.Clone()
	p.Normalize()
	claims, err := p.AllowedClaims.Normalize("allowedClaims")
	if err != nil {
		return nil, err
	}
	p.AllowedClaims = claims

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.check(ctx, "upsert brand policy"); err != nil {
		return nil, err
	}

	now := model.Now()
	p.CreatedAt = now
	if existing, ok := b.brandPolicies[p.BrandID]; ok {
		p.CreatedAt = existing.CreatedAt
	}
	p.UpdatedAt = now
	b.brandPolicies[p.BrandID] = p

	return p.Clone(), nil
}

// Close drops every record. Later calls report the backend as unavailable.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.entities = nil
	b.slugs = nil
	b.canonicalContent = nil
	b.brandPolicies = nil
	b.relationships = nil
	b.sourceDocuments = nil

	return nil
}

// check must be called with the lock held.
func (b *Backend) check(ctx context.Context, op string) error {
	if b.closed {
		return helper.NewUnavailableError(op, errClosed)
	}
	if err := ctx.Err(); err != nil {
		return helper.NewUnavailableError(op, err)
	}
	return nil
}

// resolve returns a copy of the entity or a placeholder when it is missing.
func (b *Backend) resolve(id uuid.UUID) *model.Entity {
	if e, ok := b.entities[id]; ok {
		return e.Clone()
	}
	return &model.Entity{ExtraData: model.Metadata{}}
}
