// Package storetest holds the behavior every store.Backend must share.
// Backends run it from their own tests against a live instance.
// Records are namespaced by fresh ids and slugs, so a shared database is fine.
package storetest

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Gengyveusa/aether/core/store"
	"github.com/Gengyveusa/aether/helper"
	"github.com/Gengyveusa/aether/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises every operation of backend.
func Run(t *testing.T, backend store.Backend) {
	t.Run("Entities", func(t *testing.T) { testEntities(t, backend) })
	t.Run("List entities", func(t *testing.T) { testListEntities(t, backend) })
	t.Run("Canonical content", func(t *testing.T) { testCanonicalContent(t, backend) })
	t.Run("Source documents", func(t *testing.T) { testSourceDocuments(t, backend) })
	t.Run("Relationships", func(t *testing.T) { testRelationships(t, backend) })
	t.Run("Neighbors", func(t *testing.T) { testNeighbors(t, backend) })
	t.Run("Brand policies", func(t *testing.T) { testBrandPolicies(t, backend) })
}

// RunGraph exercises the operations a node/edge engine maps: entities, relationships and neighbors.
func RunGraph(t *testing.T, backend store.Backend) {
	t.Run("Entities", func(t *testing.T) { testEntities(t, backend) })
	t.Run("List entities", func(t *testing.T) { testListEntities(t, backend) })
	t.Run("Relationships", func(t *testing.T) { testRelationships(t, backend) })
	t.Run("Neighbors", func(t *testing.T) { testNeighbors(t, backend) })
}

// NewEntity stores an entity of the given type with a unique slug.
func NewEntity(t *testing.T, backend store.Backend, entityType string, extra model.Metadata) *model.Entity {
	t.Helper()

	e, err := backend.CreateEntity(context.Background(), &model.Entity{
		Type:        entityType,
		Slug:        entityType + "-" + uuid.NewString(),
		DisplayName: "Test " + entityType,
		ExtraData:   extra,
	})
	require.NoError(t, err)
	return e
}

// NewRelationship stores a relationship between two entities.
func NewRelationship(t *testing.T, backend store.Backend, from, to *model.Entity, relationshipType string) *model.Relationship {
	t.Helper()

	r, err := backend.CreateRelationship(context.Background(), &model.Relationship{
		FromEntityID: from.ID,
		ToEntityID:   to.ID,
		Type:         relationshipType,
	})
	require.NoError(t, err)
	return r
}

func testEntities(t *testing.T, backend store.Backend) {
	ctx := context.Background()

	t.Run("Create generates id and timestamps", func(t *testing.T) {
		e := NewEntity(t, backend, model.EntityTypeBrand, nil)

		assert.NotEqual(t, uuid.Nil, e.ID)
		assert.False(t, e.CreatedAt.IsZero())
		assert.True(t, e.CreatedAt.Equal(e.UpdatedAt))
		assert.NotNil(t, e.ExtraData)
	})

	t.Run("Create keeps a provided id", func(t *testing.T) {
		id := uuid.New()

		e, err := backend.CreateEntity(ctx, &model.Entity{
			ID:          id,
			Type:        model.EntityTypePerson,
			Slug:        "person-" + id.String(),
			DisplayName: "Jane Doe",
		})
		require.NoError(t, err)
		assert.Equal(t, id, e.ID)
	})

	t.Run("Create rejects missing required fields", func(t *testing.T) {
		tests := []struct {
			name   string
			entity *model.Entity
		}{
			{"Missing type", &model.Entity{Slug: "s-" + uuid.NewString(), DisplayName: "S"}},
			{"Missing slug", &model.Entity{Type: model.EntityTypeBrand, DisplayName: "S"}},
			{"Missing display name", &model.Entity{Type: model.EntityTypeBrand, Slug: "s-" + uuid.NewString()}},
			{"Reserved extra data key", &model.Entity{Type: model.EntityTypeBrand, Slug: "s-" + uuid.NewString(), DisplayName: "S", ExtraData: model.Metadata{"slug": "x"}}},
			{"Nil entity", nil},
			{"Type too long", &model.Entity{Type: strings.Repeat("t", model.MaxEntityTypeLength+1), Slug: "s-" + uuid.NewString(), DisplayName: "S"}},
			{"Slug too long", &model.Entity{Type: model.EntityTypeBrand, Slug: strings.Repeat("s", model.MaxSlugLength+1), DisplayName: "S"}},
			{"Display name too long", &model.Entity{Type: model.EntityTypeBrand, Slug: "s-" + uuid.NewString(), DisplayName: strings.Repeat("n", model.MaxDisplayNameLength+1)}},
			{"Unencodable extra data", &model.Entity{Type: model.EntityTypeBrand, Slug: "s-" + uuid.NewString(), DisplayName: "S", ExtraData: model.Metadata{"score": math.NaN()}}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := backend.CreateEntity(ctx, tt.entity)
				assert.True(t, errors.Is(err, helper.ErrValidation), "expected validation error, got %v", err)
			})
		}
	})

	t.Run("Duplicate slug is a conflict", func(t *testing.T) {
		e := NewEntity(t, backend, model.EntityTypeBrand, nil)

		_, err := backend.CreateEntity(ctx, &model.Entity{
			Type:        model.EntityTypeBrand,
			Slug:        e.Slug,
			DisplayName: "Other",
		})
		assert.True(t, errors.Is(err, helper.ErrConflict), "expected conflict, got %v", err)
	})

	t.Run("Get returns the stored entity with its extra data", func(t *testing.T) {
		extra := model.Metadata{
			"tagline":   "Fresh",
			"founded":   float64(1999),
			"employees": 250,
			"public":    true,
			"markets":   []interface{}{"us", "eu"},
			"aliases":   []string{"acme"},
			"hq":        map[string]interface{}{"city": "Berlin", "floor": 3},
		}
		// Numbers come back as float64 and lists as []interface{} on every backend.
		want := model.Metadata{
			"tagline":   "Fresh",
			"founded":   float64(1999),
			"employees": float64(250),
			"public":    true,
			"markets":   []interface{}{"us", "eu"},
			"aliases":   []interface{}{"acme"},
			"hq":        map[string]interface{}{"city": "Berlin", "floor": float64(3)},
		}
		created := NewEntity(t, backend, model.EntityTypeBrand, extra)
		assert.Equal(t, want, created.ExtraData)

		got, err := backend.GetEntity(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Slug, got.Slug)
		assert.Equal(t, created.DisplayName, got.DisplayName)
		assert.Equal(t, want, got.ExtraData)
		assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("Get unknown id is not found", func(t *testing.T) {
		_, err := backend.GetEntity(ctx, uuid.New())
		assert.True(t, errors.Is(err, helper.ErrNotFound), "expected not found, got %v", err)
	})

	t.Run("Returned entity is a copy", func(t *testing.T) {
		created := NewEntity(t, backend, model.EntityTypeBrand, model.Metadata{"tagline": "Fresh"})

		created.ExtraData["tagline"] = "Mutated"
		created.DisplayName = "Mutated"

		got, err := backend.GetEntity(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Fresh", got.ExtraData["tagline"])
		assert.Equal(t, "Test brand", got.DisplayName)
	})

	t.Run("Update replaces fields and keeps createdAt", func(t *testing.T) {
		created := NewEntity(t, backend, model.EntityTypeBrand, model.Metadata{"tagline": "Fresh", "legacy": true})

		changed := created.Clone()
		changed.DisplayName = "Renamed"
		changed.Slug = "renamed-" + uuid.NewString()
		changed.ExtraData = model.Metadata{"tagline": "Fresher", "rank": 2}

		updated, err := backend.UpdateEntity(ctx, changed)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.DisplayName)
		assert.Equal(t, float64(2), updated.ExtraData["rank"])
		assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
		assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

		got, err := backend.GetEntity(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, changed.Slug, got.Slug)
		assert.Equal(t, model.Metadata{"tagline": "Fresher", "rank": float64(2)}, got.ExtraData)

		// The old slug is free again.
		_, err = backend.CreateEntity(ctx, &model.Entity{Type: model.EntityTypeBrand, Slug: created.Slug, DisplayName: "Reuse"})
		assert.NoError(t, err)
	})

	t.Run("Update unknown id is not found", func(t *testing.T) {
		_, err := backend.UpdateEntity(ctx, &model.Entity{
			ID:          uuid.New(),
			Type:        model.EntityTypeBrand,
			Slug:        "ghost-" + uuid.NewString(),
			DisplayName: "Ghost",
		})
		assert.True(t, errors.Is(err, helper.ErrNotFound), "expected not found, got %v", err)
	})

	t.Run("Update to a taken slug is a conflict", func(t *testing.T) {
		first := NewEntity(t, backend, model.EntityTypeBrand, nil)
		second := NewEntity(t, backend, model.EntityTypeBrand, nil)

		changed := second.Clone()
		changed.Slug = first.Slug

		_, err := backend.UpdateEntity(ctx, changed)
		assert.True(t, errors.Is(err, helper.ErrConflict), "expected conflict, got %v", err)
	})
}

func testListEntities(t *testing.T, backend store.Backend) {
	ctx := context.Background()
	brandID := uuid.New()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	var created []*model.Entity
	for i, entityType := range []string{model.EntityTypeProduct, model.EntityTypePerson, model.EntityTypeProduct} {
		e, err := backend.CreateEntity(ctx, &model.Entity{
			Type:        entityType,
			Slug:        entityType + "-" + uuid.NewString(),
			DisplayName: "Listed",
			ExtraData:   model.Metadata{"brandId": brandID.String()},
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
		created = append(created, e)
	}

	t.Run("Brand filter orders by createdAt", func(t *testing.T) {
		entities, err := backend.ListEntities(ctx, model.EntityFilter{BrandID: &brandID})
		require.NoError(t, err)
		require.Len(t, entities, 3)
		for i := range created {
			assert.Equal(t, created[i].ID, entities[i].ID)
		}
	})

	t.Run("Type and brand filters combine", func(t *testing.T) {
		entities, err := backend.ListEntities(ctx, model.EntityFilter{BrandID: &brandID, Type: model.EntityTypeProduct})
		require.NoError(t, err)
		require.Len(t, entities, 2)
		assert.Equal(t, created[0].ID, entities[0].ID)
		assert.Equal(t, created[2].ID, entities[1].ID)
	})

	t.Run("Limit and offset page the result", func(t *testing.T) {
		entities, err := backend.ListEntities(ctx, model.EntityFilter{BrandID: &brandID, Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, entities, 1)
		assert.Equal(t, created[1].ID, entities[0].ID)

		entities, err = backend.ListEntities(ctx, model.EntityFilter{BrandID: &brandID, Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, entities)
	})
}

func testCanonicalContent(t *testing.T, backend store.Backend) {
	ctx := context.Background()

	t.Run("Latest write wins and createdAt is kept", func(t *testing.T) {
		e := NewEntity(t, backend, model.EntityTypeStory, nil)

		first, err := backend.UpsertCanonicalContent(ctx, e.ID, model.Metadata{"headline": "A", "body": "old"})
		require.NoError(t, err)
		assert.Equal(t, e.ID, first.EntityID)

		second, err := backend.UpsertCanonicalContent(ctx, e.ID, model.Metadata{"headline": "B"})
		require.NoError(t, err)
		assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
		assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))

		got, err := backend.GetCanonicalContent(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, model.Metadata{"headline": "B"}, got.Data)
	})

	t.Run("Nil data is stored as an empty mapping", func(t *testing.T) {
		e := NewEntity(t, backend, model.EntityTypeStory, nil)

		_, err := backend.UpsertCanonicalContent(ctx, e.ID, nil)
		require.NoError(t, err)

		got, err := backend.GetCanonicalContent(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, model.Metadata{}, got.Data)
	})

	t.Run("Get without content is not found", func(t *testing.T) {
		e := NewEntity(t, backend, model.EntityTypeStory, nil)

		_, err := backend.GetCanonicalContent(ctx, e.ID)
		assert.True(t, errors.Is(err, helper.ErrNotFound), "expected not found, got %v", err)
	})

	t.Run("Nil entity id is a validation error", func(t *testing.T) {
		_, err := backend.UpsertCanonicalContent(ctx, uuid.Nil, model.Metadata{})
		assert.True(t, errors.Is(err, helper.ErrValidation), "expected validation error, got %v", err)
	})

	t.Run("Data takes its JSON shape", func(t *testing.T) {
		e := NewEntity(t, backend, model.EntityTypeStory, nil)

		_, err := backend.UpsertCanonicalContent(ctx, e.ID, model.Metadata{"words": 420, "tags": []string{"launch"}})
		require.NoError(t, err)

		got, err := backend.GetCanonicalContent(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, model.Metadata{"words": float64(420), "tags": []interface{}{"launch"}}, got.Data)
	})

	t.Run("Unencodable data is a validation error", func(t *testing.T) {
		e := NewEntity(t, backend, model.EntityTypeStory, nil)

		_, err := backend.UpsertCanonicalContent(ctx, e.ID, model.Metadata{"score": math.Inf(1)})
		assert.True(t, errors.Is(err, helper.ErrValidation), "expected validation error, got %v", err)
	})
}

func testSourceDocuments(t *testing.T, backend store.Backend) {
	ctx := context.Background()

	t.Run("Create applies defaults", func(t *testing.T) {
		brand := NewEntity(t, backend, model.EntityTypeBrand, nil)

		d, err := backend.CreateSourceDocument(ctx, &model.SourceDocument{BrandID: brand.ID, URL: "https://acme.test/about", Content: "<h1>About</h1>"})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, d.ID)
		assert.Equal(t, model.DefaultContentType, d.ContentType)
		assert.False(t, d.IngestedAt.IsZero())
	})

	t.Run("List is newest first and can strip content", func(t *testing.T) {
		brand := NewEntity(t, backend, model.EntityTypeBrand, nil)
		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

		for i, url := range []string{"https://a.test", "https://b.test", "https://c.test"} {
			_, err := backend.CreateSourceDocument(ctx, &model.SourceDocument{
				BrandID:    brand.ID,
				URL:        url,
				Content:    "body " + url,
				IngestedAt: base.Add(time.Duration(i) * time.Minute),
			})
			require.NoError(t, err)
		}

		documents, err := backend.ListSourceDocuments(ctx, brand.ID, true)
		require.NoError(t, err)
		require.Len(t, documents, 3)
		assert.Equal(t, "https://c.test", documents[0].URL)
		assert.Equal(t, "https://b.test", documents[1].URL)
		assert.Equal(t, "https://a.test", documents[2].URL)
		assert.Equal(t, "body https://c.test", documents[0].Content)

		stripped, err := backend.ListSourceDocuments(ctx, brand.ID, false)
		require.NoError(t, err)
		require.Len(t, stripped, 3)
		for _, d := range stripped {
			assert.Empty(t, d.Content)
			assert.False(t, d.HasContent())
		}
	})

	t.Run("Re-ingest overwrites and keeps the id", func(t *testing.T) {
		brand := NewEntity(t, backend, model.EntityTypeBrand, nil)

		first, err := backend.CreateSourceDocument(ctx, &model.SourceDocument{BrandID: brand.ID, URL: "https://acme.test", Content: "v1"})
		require.NoError(t, err)
		second, err := backend.CreateSourceDocument(ctx, &model.SourceDocument{BrandID: brand.ID, URL: "https://acme.test", Content: "v2", ContentType: "text/plain"})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		documents, err := backend.ListSourceDocuments(ctx, brand.ID, true)
		require.NoError(t, err)
		require.Len(t, documents, 1)
		assert.Equal(t, "v2", documents[0].Content)
		assert.Equal(t, "text/plain", documents[0].ContentType)
	})

	t.Run("Reused id for another url is a conflict", func(t *testing.T) {
		brand := NewEntity(t, backend, model.EntityTypeBrand, nil)

		first, err := backend.CreateSourceDocument(ctx, &model.SourceDocument{BrandID: brand.ID, URL: "https://acme.test/a"})
		require.NoError(t, err)

		_, err = backend.CreateSourceDocument(ctx, &model.SourceDocument{ID: first.ID, BrandID: brand.ID, URL: "https://acme.test/b"})
		assert.True(t, errors.Is(err, helper.ErrConflict), "expected conflict, got %v", err)

		documents, err := backend.ListSourceDocuments(ctx, brand.ID, false)
		require.NoError(t, err)
		assert.Len(t, documents, 1)
	})

	t.Run("Missing url is a validation error", func(t *testing.T) {
		_, err := backend.CreateSourceDocument(ctx, &model.SourceDocument{BrandID: uuid.New()})
		assert.True(t, errors.Is(err, helper.ErrValidation), "expected validation error, got %v", err)
	})

	t.Run("Content type too long is a validation error", func(t *testing.T) {
		brand := NewEntity(t, backend, model.EntityTypeBrand, nil)

		_, err := backend.CreateSourceDocument(ctx, &model.SourceDocument{
			BrandID:     brand.ID,
			URL:         "https://acme.test",
			ContentType: strings.Repeat("x", model.MaxContentTypeLength+1),
		})
		assert.True(t, errors.Is(err, helper.ErrValidation), "expected validation error, got %v", err)
	})

	t.Run("Unknown brand lists nothing", func(t *testing.T) {
		documents, err := backend.ListSourceDocuments(ctx, uuid.New(), true)
		require.NoError(t, err)
		assert.Empty(t, documents)
	})
}

func testRelationships(t *testing.T, backend store.Backend) {
	ctx := context.Background()

	t.Run("Create generates id and empty proof ids", func(t *testing.T) {
		from := NewEntity(t, backend, model.EntityTypeBrand, nil)
		to := NewEntity(t, backend, model.EntityTypePerson, nil)

		r := NewRelationship(t, backend, from, to, model.RelationshipFoundedBy)
		assert.NotEqual(t, uuid.Nil, r.ID)
		assert.Equal(t, []string{}, r.ProofIDs)
		assert.Equal(t, from.ID, r.FromEntityID)
		assert.Equal(t, to.ID, r.ToEntityID)
	})

	t.Run("Proof ids keep their order", func(t *testing.T) {
		from := NewEntity(t, backend, model.EntityTypePerson, nil)
		to := NewEntity(t, backend, model.EntityTypeProduct, nil)

		r, err := backend.CreateRelationship(ctx, &model.Relationship{
			FromEntityID: from.ID,
			ToEntityID:   to.ID,
			Type:         model.RelationshipEndorses,
			ProofIDs:     []string{"proof-b", "proof-a"},
		})
		require.NoError(t, err)

		relationships, err := backend.ListRelationships(ctx, model.RelationshipFilter{FromEntityID: &from.ID})
		require.NoError(t, err)
		require.Len(t, relationships, 1)
		assert.Equal(t, r.ID, relationships[0].ID)
		assert.Equal(t, []string{"proof-b", "proof-a"}, relationships[0].ProofIDs)
	})

	t.Run("Create rejects missing required fields", func(t *testing.T) {
		id := uuid.New()
		tests := []struct {
			name         string
			relationship *model.Relationship
		}{
			{"Missing from", &model.Relationship{ToEntityID: id, Type: "x"}},
			{"Missing to", &model.Relationship{FromEntityID: id, Type: "x"}},
			{"Missing type", &model.Relationship{FromEntityID: id, ToEntityID: id}},
			{"Type too long", &model.Relationship{FromEntityID: id, ToEntityID: id, Type: strings.Repeat("r", model.MaxRelationshipTypeLength+1)}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := backend.CreateRelationship(ctx, tt.relationship)
				assert.True(t, errors.Is(err, helper.ErrValidation), "expected validation error, got %v", err)
			})
		}
	})

	t.Run("Filters are ANDed and parallel edges are kept", func(t *testing.T) {
		brand := NewEntity(t, backend, model.EntityTypeBrand, nil)
		person := NewEntity(t, backend, model.EntityTypePerson, nil)
		product := NewEntity(t, backend, model.EntityTypeProduct, nil)

		NewRelationship(t, backend, brand, person, model.RelationshipFoundedBy)
		NewRelationship(t, backend, brand, person, model.RelationshipFoundedBy)
		NewRelationship(t, backend, brand, product, model.RelationshipPoweredBy)
		NewRelationship(t, backend, person, brand, model.RelationshipEndorses)

		tests := []struct {
			name   string
			filter model.RelationshipFilter
			count  int
		}{
			{"From", model.RelationshipFilter{FromEntityID: &brand.ID}, 3},
			{"From and type", model.RelationshipFilter{FromEntityID: &brand.ID, Type: model.RelationshipFoundedBy}, 2},
			{"From and to", model.RelationshipFilter{FromEntityID: &brand.ID, ToEntityID: &product.ID}, 1},
			{"To", model.RelationshipFilter{ToEntityID: &brand.ID}, 1},
			{"No match", model.RelationshipFilter{FromEntityID: &product.ID}, 0},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				relationships, err := backend.ListRelationships(ctx, tt.filter)
				require.NoError(t, err)
				assert.Len(t, relationships, tt.count)
				for _, r := range relationships {
					assert.True(t, tt.filter.Matches(r))
				}
			})
		}
	})
}

func testNeighbors(t *testing.T, backend store.Backend) {
	ctx := context.Background()

	brand := NewEntity(t, backend, model.EntityTypeBrand, nil)
	founder := NewEntity(t, backend, model.EntityTypePerson, nil)
	product := NewEntity(t, backend, model.EntityTypeProduct, nil)
	story := NewEntity(t, backend, model.EntityTypeStory, nil)

	foundedBy := NewRelationship(t, backend, brand, founder, model.RelationshipFoundedBy)
	poweredBy := NewRelationship(t, backend, product, brand, model.RelationshipPoweredBy)
	appearsIn := NewRelationship(t, backend, founder, story, model.RelationshipAppearsIn)

	t.Run("Both directions with resolved endpoints", func(t *testing.T) {
		neighbors, err := backend.GetNeighbors(ctx, brand.ID, nil)
		require.NoError(t, err)
		require.Len(t, neighbors, 2)

		byID := map[uuid.UUID]*model.Neighbor{}
		for _, n := range neighbors {
			byID[n.Relationship.ID] = n
		}
		require.Contains(t, byID, foundedBy.ID)
		require.Contains(t, byID, poweredBy.ID)
		assert.NotContains(t, byID, appearsIn.ID)

		assert.Equal(t, brand.ID, byID[foundedBy.ID].FromEntity.ID)
		assert.Equal(t, founder.ID, byID[foundedBy.ID].ToEntity.ID)
		assert.Equal(t, founder.Slug, byID[foundedBy.ID].ToEntity.Slug)
		assert.Equal(t, product.ID, byID[poweredBy.ID].FromEntity.ID)
		assert.Equal(t, product.ID, byID[poweredBy.ID].Other(brand.ID).ID)
	})

	t.Run("Type filter has OR semantics", func(t *testing.T) {
		neighbors, err := backend.GetNeighbors(ctx, brand.ID, []string{model.RelationshipPoweredBy})
		require.NoError(t, err)
		require.Len(t, neighbors, 1)
		assert.Equal(t, poweredBy.ID, neighbors[0].Relationship.ID)

		neighbors, err = backend.GetNeighbors(ctx, brand.ID, []string{model.RelationshipPoweredBy, model.RelationshipFoundedBy})
		require.NoError(t, err)
		assert.Len(t, neighbors, 2)

		neighbors, err = backend.GetNeighbors(ctx, brand.ID, []string{model.RelationshipCompetesWith})
		require.NoError(t, err)
		assert.Empty(t, neighbors)
	})

	t.Run("Self-loop is returned once", func(t *testing.T) {
		loop := NewRelationship(t, backend, story, story, model.RelationshipReferencedBy)

		neighbors, err := backend.GetNeighbors(ctx, story.ID, []string{model.RelationshipReferencedBy})
		require.NoError(t, err)
		require.Len(t, neighbors, 1)
		assert.Equal(t, loop.ID, neighbors[0].Relationship.ID)
		assert.Equal(t, story.ID, neighbors[0].Other(story.ID).ID)
	})

	t.Run("Unknown entity has no neighbors", func(t *testing.T) {
		neighbors, err := backend.GetNeighbors(ctx, uuid.New(), nil)
		require.NoError(t, err)
		assert.Empty(t, neighbors)
	})
}

func testBrandPolicies(t *testing.T, backend store.Backend) {
	ctx := context.Background()

	t.Run("Get without policy is not found", func(t *testing.T) {
		brand := NewEntity(t, backend, model.EntityTypeBrand, nil)

		_, err := backend.GetBrandPolicy(ctx, brand.ID)
		assert.True(t, errors.Is(err, helper.ErrNotFound), "expected not found, got %v", err)
	})

	t.Run("Upsert overwrites every field", func(t *testing.T) {
		brand := NewEntity(t, backend, model.EntityTypeBrand, nil)

		first, err := backend.UpsertBrandPolicy(ctx, &model.BrandPolicy{
			BrandID:          brand.ID,
			AllowedClaims:    model.Metadata{"organic": true, "maxCaffeineMg": 95},
			ForbiddenPhrases: []string{"best in class", "miracle"},
			RegulatedTopics:  []string{"health"},
		})
		require.NoError(t, err)

		got, err := backend.GetBrandPolicy(ctx, brand.ID)
		require.NoError(t, err)
		assert.Equal(t, model.Metadata{"organic": true, "maxCaffeineMg": float64(95)}, got.AllowedClaims)
		assert.Equal(t, []string{"best in class", "miracle"}, got.ForbiddenPhrases)
		assert.Equal(t, []string{"health"}, got.RegulatedTopics)

		second, err := backend.UpsertBrandPolicy(ctx, &model.BrandPolicy{
			BrandID:          brand.ID,
			ForbiddenPhrases: []string{"miracle"},
		})
		require.NoError(t, err)
		assert.True(t, first.CreatedAt.Equal(second.CreatedAt))

		got, err = backend.GetBrandPolicy(ctx, brand.ID)
		require.NoError(t, err)
		assert.Equal(t, model.Metadata{}, got.AllowedClaims)
		assert.Equal(t, []string{"miracle"}, got.ForbiddenPhrases)
		assert.Equal(t, []string{}, got.RegulatedTopics)
	})

	t.Run("Missing brand id is a validation error", func(t *testing.T) {
		_, err := backend.UpsertBrandPolicy(ctx, &model.BrandPolicy{})
		assert.True(t, errors.Is(err, helper.ErrValidation), "expected validation error, got %v", err)
	})
}
