package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/Gengyveusa/aether/core/store/memory"
	"github.com/Gengyveusa/aether/core/store/storetest"
	"github.com/Gengyveusa/aether/helper"
	"github.com/Gengyveusa/aether/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testGraph builds
//
//	brand -founded_by-> founder -appears_in-> story
//	product -powered_by-> brand
//	rival -competes_with-> brand
type testGraph struct {
	backend *memory.Backend
	brand   *model.Entity
	founder *model.Entity
	story   *model.Entity
	product *model.Entity
	rival   *model.Entity
}

func newTestGraph(t *testing.T) *testGraph {
	backend := memory.New()
	g := &testGraph{
		backend: backend,
		brand:   storetest.NewEntity(t, backend, model.EntityTypeBrand, nil),
		founder: storetest.NewEntity(t, backend, model.EntityTypePerson, nil),
		story:   storetest.NewEntity(t, backend, model.EntityTypeStory, nil),
		product: storetest.NewEntity(t, backend, model.EntityTypeProduct, nil),
		rival:   storetest.NewEntity(t, backend, model.EntityTypeBrand, nil),
	}
	storetest.NewRelationship(t, backend, g.brand, g.founder, model.RelationshipFoundedBy)
	storetest.NewRelationship(t, backend, g.founder, g.story, model.RelationshipAppearsIn)
	storetest.NewRelationship(t, backend, g.product, g.brand, model.RelationshipPoweredBy)
	storetest.NewRelationship(t, backend, g.rival, g.brand, model.RelationshipCompetesWith)
	return g
}

func resultIDs(results []*TraversalResult) map[uuid.UUID]int {
	out := map[uuid.UUID]int{}
	for _, r := range results {
		out[r.Entity.ID] = r.Distance
	}
	return out
}

func TestBFS(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	t.Run("BFS from source with max hops 1", func(t *testing.T) {
		results, err := BFS(ctx, g.backend, g.brand.ID, 1, nil)
		require.NoError(t, err)
		require.NotEmpty(t, results)

		assert.Equal(t, g.brand.ID, results[0].Entity.ID, "Expected first result to be source")
		assert.Equal(t, 0, results[0].Distance)
		assert.Nil(t, results[0].Via)
		assert.Equal(t, map[uuid.UUID]int{g.brand.ID: 0, g.founder.ID: 1, g.product.ID: 1, g.rival.ID: 1}, resultIDs(results))
	})

	t.Run("BFS reaches two hops with paths", func(t *testing.T) {
		results, err := BFS(ctx, g.backend, g.brand.ID, 2, nil)
		require.NoError(t, err)
		require.Len(t, results, 5)

		last := results[len(results)-1]
		assert.Equal(t, g.story.ID, last.Entity.ID)
		assert.Equal(t, 2, last.Distance)
		assert.Equal(t, []uuid.UUID{g.brand.ID, g.founder.ID, g.story.ID}, last.Path)
		assert.Equal(t, model.RelationshipAppearsIn, last.Via.Type)
	})

	t.Run("BFS follows only the given types", func(t *testing.T) {
		results, err := BFS(ctx, g.backend, g.brand.ID, 3, []string{model.RelationshipFoundedBy, model.RelationshipAppearsIn})
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]int{g.brand.ID: 0, g.founder.ID: 1, g.story.ID: 2}, resultIDs(results))
	})

	t.Run("BFS with zero hops returns the source", func(t *testing.T) {
		results, err := BFS(ctx, g.backend, g.brand.ID, 0, nil)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, g.brand.ID, results[0].Entity.ID)
	})

	t.Run("BFS from unknown source is not found", func(t *testing.T) {
		_, err := BFS(ctx, g.backend, uuid.New(), 2, nil)
		assert.True(t, errors.Is(err, helper.ErrNotFound))
	})

	t.Run("BFS stops on a cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := BFS(cancelled, g.backend, g.brand.ID, 2, nil)
		assert.Error(t, err)
	})
}

func TestBFSSkipsPlaceholders(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	_, err := g.backend.CreateRelationship(ctx, &model.Relationship{FromEntityID: g.brand.ID, ToEntityID: uuid.New(), Type: model.RelationshipEndorses})
	require.NoError(t, err)

	t.Run("Missing endpoints are not visited", func(t *testing.T) {
		results, err := BFS(ctx, g.backend, g.brand.ID, 1, nil)
		require.NoError(t, err)
		assert.Len(t, results, 4)
		for _, r := range results {
			assert.False(t, r.Entity.IsPlaceholder())
		}
	})
}

func TestDFS(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	t.Run("DFS visits every reachable entity once", func(t *testing.T) {
		results, err := DFS(ctx, g.backend, g.brand.ID, 5, nil)
		require.NoError(t, err)
		require.Len(t, results, 5)
		assert.Equal(t, g.brand.ID, results[0].Entity.ID)

		// founder is reached first, so story directly follows it.
		assert.Equal(t, g.founder.ID, results[1].Entity.ID)
		assert.Equal(t, g.story.ID, results[2].Entity.ID)
		assert.Equal(t, []uuid.UUID{g.brand.ID, g.founder.ID, g.story.ID}, results[2].Path)
	})

	t.Run("DFS respects max hops", func(t *testing.T) {
		results, err := DFS(ctx, g.backend, g.story.ID, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]int{g.story.ID: 0, g.founder.ID: 1}, resultIDs(results))
	})

	t.Run("DFS from unknown source is not found", func(t *testing.T) {
		_, err := DFS(ctx, g.backend, uuid.New(), 2, nil)
		assert.True(t, errors.Is(err, helper.ErrNotFound))
	})
}

func TestNeighbors(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	t.Run("Neighbors excludes the source", func(t *testing.T) {
		neighbors, err := Neighbors(ctx, g.backend, g.brand.ID, nil)
		require.NoError(t, err)
		require.Len(t, neighbors, 3)

		ids := []uuid.UUID{}
		for _, e := range neighbors {
			ids = append(ids, e.ID)
		}
		assert.ElementsMatch(t, []uuid.UUID{g.founder.ID, g.product.ID, g.rival.ID}, ids)
	})

	t.Run("Parallel edges yield one neighbor", func(t *testing.T) {
		storetest.NewRelationship(t, g.backend, g.brand, g.rival, model.RelationshipCompetesWith)

		neighbors, err := Neighbors(ctx, g.backend, g.rival.ID, nil)
		require.NoError(t, err)
		require.Len(t, neighbors, 1)
		assert.Equal(t, g.brand.ID, neighbors[0].ID)
	})
}
