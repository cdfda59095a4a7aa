package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Gengyveusa/aether/core/store/storetest"
	"github.com/Gengyveusa/aether/helper"
	"github.com/Gengyveusa/aether/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend(t *testing.T) {
	storetest.Run(t, New())
}

func TestGetNeighborsPlaceholder(t *testing.T) {
	backend := New()
	ctx := context.Background()

	brand := storetest.NewEntity(t, backend, model.EntityTypeBrand, nil)
	missing := uuid.New()

	_, err := backend.CreateRelationship(ctx, &model.Relationship{
		FromEntityID: brand.ID,
		ToEntityID:   missing,
		Type:         model.RelationshipEndorses,
	})
	require.NoError(t, err)

	t.Run("Missing endpoint resolves to a placeholder", func(t *testing.T) {
		neighbors, err := backend.GetNeighbors(ctx, brand.ID, nil)
		require.NoError(t, err)
		require.Len(t, neighbors, 1)

		assert.Equal(t, brand.ID, neighbors[0].FromEntity.ID)
		assert.True(t, neighbors[0].ToEntity.IsPlaceholder())
		assert.Equal(t, missing, neighbors[0].Relationship.ToEntityID)
	})

	t.Run("Missing entity still sees its relationships", func(t *testing.T) {
		neighbors, err := backend.GetNeighbors(ctx, missing, nil)
		require.NoError(t, err)
		require.Len(t, neighbors, 1)
		assert.True(t, neighbors[0].ToEntity.IsPlaceholder())
	})
}

func TestListSourceDocumentsTies(t *testing.T) {
	backend := New()
	ctx := context.Background()
	brandID := uuid.New()
	ingestedAt := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		_, err := backend.CreateSourceDocument(ctx, &model.SourceDocument{
			BrandID:    brandID,
			URL:        fmt.Sprintf("https://acme.test/%d", i),
			IngestedAt: ingestedAt,
		})
		require.NoError(t, err)
	}

	t.Run("Equal ingest times keep insertion order", func(t *testing.T) {
		documents, err := backend.ListSourceDocuments(ctx, brandID, false)
		require.NoError(t, err)
		require.Len(t, documents, 4)
		for i, d := range documents {
			assert.Equal(t, fmt.Sprintf("https://acme.test/%d", i), d.URL)
		}
	})
}

func TestBackendUnavailable(t *testing.T) {
	t.Run("Cancelled context is unavailable", func(t *testing.T) {
		backend := New()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := backend.GetEntity(ctx, uuid.New())
		assert.True(t, errors.Is(err, helper.ErrBackendUnavailable))
		assert.True(t, helper.IsRetryable(err))
	})

	t.Run("Closed backend is unavailable", func(t *testing.T) {
		backend := New()
		require.NoError(t, backend.Close())

		_, err := backend.CreateEntity(context.Background(), &model.Entity{Type: "brand", Slug: "acme", DisplayName: "Acme"})
		assert.True(t, errors.Is(err, helper.ErrBackendUnavailable))

		_, err = backend.ListRelationships(context.Background(), model.RelationshipFilter{})
		assert.True(t, errors.Is(err, helper.ErrBackendUnavailable))
	})

	t.Run("Validation runs before the backend is checked", func(t *testing.T) {
		backend := New()
		require.NoError(t, backend.Close())

		_, err := backend.CreateEntity(context.Background(), &model.Entity{})
		assert.True(t, errors.Is(err, helper.ErrValidation))
	})
}

func TestConcurrentAccess(t *testing.T) {
	backend := New()
	ctx := context.Background()
	brand := storetest.NewEntity(t, backend, model.EntityTypeBrand, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			person, err := backend.CreateEntity(ctx, &model.Entity{
				Type:        model.EntityTypePerson,
				Slug:        fmt.Sprintf("person-%d", i),
				DisplayName: "Person",
			})
			assert.NoError(t, err)
			if err != nil {
				return
			}
			_, err = backend.CreateRelationship(ctx, &model.Relationship{FromEntityID: person.ID, ToEntityID: brand.ID, Type: model.RelationshipEndorses})
			assert.NoError(t, err)
			_, err = backend.UpsertCanonicalContent(ctx, brand.ID, model.Metadata{"writer": float64(i)})
			assert.NoError(t, err)
			_, err = backend.GetNeighbors(ctx, brand.ID, nil)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	t.Run("Every write is visible", func(t *testing.T) {
		neighbors, err := backend.GetNeighbors(ctx, brand.ID, nil)
		require.NoError(t, err)
		assert.Len(t, neighbors, 16)

		content, err := backend.GetCanonicalContent(ctx, brand.ID)
		require.NoError(t, err)
		assert.Contains(t, content.Data, "writer")
	})
}
