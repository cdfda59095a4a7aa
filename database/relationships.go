package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Gengyveusa/aether/helper"
	"github.com/Gengyveusa/aether/model"
	loadSql "github.com/Gengyveusa/aether/sql"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// RelationshipsDBHandlerFunctions defines the interface for Relationships database operations.
type RelationshipsDBHandlerFunctions interface {
	InsertRelationship(ctx context.Context, relationship *model.Relationship) (*model.Relationship, error)
	SelectRelationships(ctx context.Context, filter model.RelationshipFilter) ([]*model.Relationship, error)
	SelectNeighbors(ctx context.Context, entityID uuid.UUID, relationshipTypes []string) ([]*model.Neighbor, error)
}

// RelationshipsDBHandler handles relationship-related database operations
type RelationshipsDBHandler struct {
	db *helper.Database
}

// NewRelationshipsDBHandler creates a new relationships database handler.
// The entities table must exist before, relationships reference it.
func NewRelationshipsDBHandler(db *helper.Database, force bool) (*RelationshipsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	relationshipsDbHandler := &RelationshipsDBHandler{
		db: db,
	}

	err := loadSql.LoadRelationshipsSql(relationshipsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load relationships sql", err)
	}

	err = relationshipsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RelationshipsDBHandler")

	return relationshipsDbHandler, nil
}

// CreateTable creates the 'relationships' table and its indexes if they do not exist.
func (h *RelationshipsDBHandler) CreateTable() error {
	return createTable(h.db, "relationships", `SELECT init_relationships();`)
}

// InsertRelationship inserts a directed edge. Missing endpoints are a validation error.
func (h *RelationshipsDBHandler) InsertRelationship(ctx context.Context, relationship *model.Relationship) (*model.Relationship, error) {
	if relationship == nil {
		return nil, helper.NewError("insert relationship", errNilHandlerInput)
	}

	var inserted *model.Relationship
	err := withTx(ctx, h.db.Instance, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(
			ctx,
			`SELECT * FROM insert_relationship($1, $2, $3, $4, $5, $6, $7)`,
			relationship.ID,
			relationship.FromEntityID,
			relationship.ToEntityID,
			relationship.Type,
			jsonStringList(relationship.ProofIDs),
			relationship.CreatedAt,
			relationship.UpdatedAt,
		)

		var err error
		inserted, err = scanRelationship(row)
		return err
	})
	if err != nil {
		return nil, mapError(ctx, "insert relationship", err)
	}

	return inserted, nil
}

// SelectRelationships lists relationships matching every present filter field.
func (h *RelationshipsDBHandler) SelectRelationships(ctx context.Context, filter model.RelationshipFilter) ([]*model.Relationship, error) {
	var relationships []*model.Relationship
	err := withTx(ctx, h.db.Instance, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(
			ctx,
			`SELECT * FROM select_relationships($1, $2, $3)`,
			nullUUID(filter.FromEntityID),
			nullUUID(filter.ToEntityID),
			nullString(filter.Type),
		)
		if err != nil {
			return err
		}

		relationships, err = collectRows(rows, scanRelationship)
		return err
	})
	if err != nil {
		return nil, mapError(ctx, "select relationships", err)
	}

	return relationships, nil
}

// SelectNeighbors returns every relationship touching entityID in either direction
// together with both endpoint entities, in a single join.
func (h *RelationshipsDBHandler) SelectNeighbors(ctx context.Context, entityID uuid.UUID, relationshipTypes []string) ([]*model.Neighbor, error) {
	var types interface{}
	if len(relationshipTypes) > 0 {
		types = pq.Array(relationshipTypes)
	}

	var neighbors []*model.Neighbor
	err := withTx(ctx, h.db.Instance, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(
			ctx,
			`SELECT * FROM select_neighbors($1, $2)`,
			entityID,
			types,
		)
		if err != nil {
			return err
		}

		neighbors, err = collectRows(rows, scanNeighbor)
		return err
	})
	if err != nil {
		return nil, mapError(ctx, "select neighbors", err)
	}

	return neighbors, nil
}

func scanNeighbor(s rowScanner) (*model.Neighbor, error) {
	r := &model.Relationship{}
	from := &model.Entity{}
	to := &model.Entity{}

	err := s.Scan(
		&r.ID,
		&r.FromEntityID,
		&r.ToEntityID,
		&r.Type,
		(*jsonStringList)(&r.ProofIDs),
		&r.CreatedAt,
		&r.UpdatedAt,
		&from.ID,
		&from.Type,
		&from.Slug,
		&from.DisplayName,
		&from.Description,
		&from.ExtraData,
		&from.CreatedAt,
		&from.UpdatedAt,
		&to.ID,
		&to.Type,
		&to.Slug,
		&to.DisplayName,
		&to.Description,
		&to.ExtraData,
		&to.CreatedAt,
		&to.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.CreatedAt = model.NormalizeTime(r.CreatedAt)
	r.UpdatedAt = model.NormalizeTime(r.UpdatedAt)
	normalizeEntity(from)
	normalizeEntity(to)

	return &model.Neighbor{
		Relationship: r,
		FromEntity:   from,
		ToEntity:     to,
	}, nil
}
