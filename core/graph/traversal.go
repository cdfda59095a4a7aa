package graph

import (
	"context"

	"github.com/Gengyveusa/aether/model"
	"github.com/google/uuid"
)

// GraphDB is the part of store.Backend a traversal needs.
type GraphDB interface {
	GetEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error)
	GetNeighbors(ctx context.Context, entityID uuid.UUID, relationshipTypes []string) ([]*model.Neighbor, error)
}

// TraversalResult contains an entity and its distance from the source
type TraversalResult struct {
	Entity   *model.Entity
	Distance int
	Path     []uuid.UUID // Path from source to this entity
	// Via is the relationship that reached the entity, nil for the source.
	Via *model.Relationship
}

// BFS performs breadth-first search from a source entity.
// Relationships are followed in both directions; placeholder endpoints are skipped.
func BFS(ctx context.Context, db GraphDB, sourceID uuid.UUID, maxHops int, relationshipTypes []string) ([]*TraversalResult, error) {
	sourceEntity, err := db.GetEntity(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	visited := map[uuid.UUID]bool{sourceID: true}
	queue := []*TraversalResult{{
		Entity:   sourceEntity,
		Distance: 0,
		Path:     []uuid.UUID{sourceID},
	}}

	var results []*TraversalResult
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current := queue[0]
		queue = queue[1:]
		results = append(results, current)

		if current.Distance >= maxHops {
			continue
		}

		neighbors, err := db.GetNeighbors(ctx, current.Entity.ID, relationshipTypes)
		if err != nil {
			return nil, err
		}

		for _, n := range neighbors {
			target := n.Other(current.Entity.ID)
			if target.IsPlaceholder() || visited[target.ID] {
				continue
			}
			visited[target.ID] = true

			queue = append(queue, &TraversalResult{
				Entity:   target,
				Distance: current.Distance + 1,
				Path:     extendPath(current.Path, target.ID),
				Via:      n.Relationship,
			})
		}
	}

	return results, nil
}

// DFS performs depth-first search from a source entity.
func DFS(ctx context.Context, db GraphDB, sourceID uuid.UUID, maxHops int, relationshipTypes []string) ([]*TraversalResult, error) {
	sourceEntity, err := db.GetEntity(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	visited := make(map[uuid.UUID]bool)
	var results []*TraversalResult

	err = dfsRecursive(ctx, db, &TraversalResult{Entity: sourceEntity, Path: []uuid.UUID{sourceID}}, maxHops, relationshipTypes, visited, &results)
	if err != nil {
		return nil, err
	}

	return results, nil
}

func dfsRecursive(
	ctx context.Context,
	db GraphDB,
	current *TraversalResult,
	maxHops int,
	relationshipTypes []string,
	visited map[uuid.UUID]bool,
	results *[]*TraversalResult,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	visited[current.Entity.ID] = true
	*results = append(*results, current)

	if current.Distance >= maxHops {
		return nil
	}

	neighbors, err := db.GetNeighbors(ctx, current.Entity.ID, relationshipTypes)
	if err != nil {
		return err
	}

	for _, n := range neighbors {
		target := n.Other(current.Entity.ID)
		if target.IsPlaceholder() || visited[target.ID] {
			continue
		}

		next := &TraversalResult{
			Entity:   target,
			Distance: current.Distance + 1,
			Path:     extendPath(current.Path, target.ID),
			Via:      n.Relationship,
		}
		if err := dfsRecursive(ctx, db, next, maxHops, relationshipTypes, visited, results); err != nil {
			return err
		}
	}

	return nil
}

// Neighbors returns the distinct entities one hop away from entityID, in either direction.
func Neighbors(ctx context.Context, db GraphDB, entityID uuid.UUID, relationshipTypes []string) ([]*model.Entity, error) {
	results, err := BFS(ctx, db, entityID, 1, relationshipTypes)
	if err != nil {
		return nil, err
	}

	// Skip the source entity itself (first result)
	neighbors := make([]*model.Entity, 0, len(results)-1)
	for i := 1; i < len(results); i++ {
		neighbors = append(neighbors, results[i].Entity)
	}

	return neighbors, nil
}

func extendPath(path []uuid.UUID, id uuid.UUID) []uuid.UUID {
	newPath := make([]uuid.UUID, len(path), len(path)+1)
	copy(newPath, path)
	return append(newPath, id)
}
