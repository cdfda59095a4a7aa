package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Gengyveusa/aether/helper"
	"github.com/Gengyveusa/aether/model"
	loadSql "github.com/Gengyveusa/aether/sql"
	"github.com/google/uuid"
)

// EntitiesDBHandlerFunctions defines the interface for Entities database operations.
type EntitiesDBHandlerFunctions interface {
	InsertEntity(ctx context.Context, entity *model.Entity) (*model.Entity, error)
	UpdateEntity(ctx context.Context, entity *model.Entity) (*model.Entity, error)
	SelectEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error)
	SelectEntities(ctx context.Context, filter model.EntityFilter) ([]*model.Entity, error)
}

// EntitiesDBHandler handles entity-related database operations
type EntitiesDBHandler struct {
	db *helper.Database
}

// NewEntitiesDBHandler creates a new entities database handler.
// It loads the entity SQL functions and creates the table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEntitiesDBHandler(db *helper.Database, force bool) (*EntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entitiesDbHandler := &EntitiesDBHandler{
		db: db,
	}

	err := loadSql.LoadEntitiesSql(entitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entities sql", err)
	}

	err = entitiesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntitiesDBHandler")

	return entitiesDbHandler, nil
}

// CreateTable creates the 'entities' table and its indexes if they do not exist.
func (h *EntitiesDBHandler) CreateTable() error {
	return createTable(h.db, "entities", `SELECT init_entities();`)
}

// InsertEntity inserts a new entity. A duplicate slug or id is a conflict.
func (h *EntitiesDBHandler) InsertEntity(ctx context.Context, entity *model.Entity) (*model.Entity, error) {
	if entity == nil {
		return nil, helper.NewError("insert entity", errNilHandlerInput)
	}

	var inserted *model.Entity
	err := withTx(ctx, h.db.Instance, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(
			ctx,
			`SELECT * FROM insert_entity($1, $2, $3, $4, $5, $6, $7, $8)`,
			entity.ID,
			entity.Type,
			entity.Slug,
			entity.DisplayName,
			entity.Description,
			entity.ExtraData,
			entity.CreatedAt,
			entity.UpdatedAt,
		)

		var err error
		inserted, err = scanEntity(row)
		return err
	})
	if err != nil {
		return nil, mapError(ctx, "insert entity", err)
	}

	return inserted, nil
}

// UpdateEntity replaces the mutable fields of an existing entity.
// The extra data is replaced, not merged.
func (h *EntitiesDBHandler) UpdateEntity(ctx context.Context, entity *model.Entity) (*model.Entity, error) {
	if entity == nil {
		return nil, helper.NewError("update entity", errNilHandlerInput)
	}

	var updated *model.Entity
	err := withTx(ctx, h.db.Instance, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(
			ctx,
			`SELECT * FROM update_entity($1, $2, $3, $4, $5, $6, $7)`,
			entity.ID,
			entity.Type,
			entity.Slug,
			entity.DisplayName,
			entity.Description,
			entity.ExtraData,
			entity.UpdatedAt,
		)

		var err error
		updated, err = scanEntity(row)
		return err
	})
	if err != nil {
		return nil, mapError(ctx, "update entity", err)
	}

	return updated, nil
}

// SelectEntity retrieves an entity by ID
func (h *EntitiesDBHandler) SelectEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error) {
	var entity *model.Entity
	err := withTx(ctx, h.db.Instance, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT * FROM select_entity($1)`, id)

		var err error
		entity, err = scanEntity(row)
		return err
	})
	if err != nil {
		return nil, mapError(ctx, "select entity", err)
	}

	return entity, nil
}

// SelectEntities pages through entities ordered by creation time.
// The filter must be normalized by the caller.
func (h *EntitiesDBHandler) SelectEntities(ctx context.Context, filter model.EntityFilter) ([]*model.Entity, error) {
	var brandID interface{}
	if filter.BrandID != nil {
		brandID = filter.BrandID.String()
	}

	var entities []*model.Entity
	err := withTx(ctx, h.db.Instance, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(
			ctx,
			`SELECT * FROM select_entities($1, $2, $3, $4)`,
			nullString(filter.Type),
			brandID,
			filter.Limit,
			filter.Offset,
		)
		if err != nil {
			return err
		}

		entities, err = collectRows(rows, scanEntity)
		return err
	})
	if err != nil {
		return nil, mapError(ctx, "select entities", err)
	}

	return entities, nil
}

// createTable runs the init function of a table.
func createTable(db *helper.Database, table string, initQuery string) error {
	ctx, cancel := context.WithTimeout(context.Background(), helper.DefaultOperationTimeout)
	defer cancel()

	_, err := db.Instance.ExecContext(ctx, initQuery)
	if err != nil {
		return helper.NewError("initialize "+table+" table", err)
	}

	db.Logger.Info("Checked/created table " + table)

	return nil
}
