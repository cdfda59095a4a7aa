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

// CanonicalContentDBHandlerFunctions defines the interface for CanonicalContent database operations.
type CanonicalContentDBHandlerFunctions interface {
	UpsertCanonicalContent(ctx context.Context, content *model.CanonicalContent) (*model.CanonicalContent, error)
	SelectCanonicalContent(ctx context.Context, entityID uuid.UUID) (*model.CanonicalContent, error)
}

// CanonicalContentDBHandler handles canonical content database operations
type CanonicalContentDBHandler struct {
	db *helper.Database
}

// NewCanonicalContentDBHandler creates a new canonical content database handler.
func NewCanonicalContentDBHandler(db *helper.Database, force bool) (*CanonicalContentDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	canonicalContentDbHandler := &CanonicalContentDBHandler{
		db: db,
	}

	err := loadSql.LoadCanonicalContentSql(canonicalContentDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load canonical content sql", err)
	}

	err = canonicalContentDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized CanonicalContentDBHandler")

	return canonicalContentDbHandler, nil
}

// CreateTable creates the 'canonical_content' table if it does not exist.
func (h *CanonicalContentDBHandler) CreateTable() error {
	return createTable(h.db, "canonical_content", `SELECT init_canonical_content();`)
}

// UpsertCanonicalContent inserts the content of an entity or overwrites its data.
// content.UpdatedAt is the write time; CreatedAt of an existing row is kept.
func (h *CanonicalContentDBHandler) UpsertCanonicalContent(ctx context.Context, content *model.CanonicalContent) (*model.CanonicalContent, error) {
	if content == nil {
		return nil, helper.NewError("upsert canonical content", errNilHandlerInput)
	}

	var upserted *model.CanonicalContent
	err := withTx(ctx, h.db.Instance, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(
			ctx,
			`SELECT * FROM upsert_canonical_content($1, $2, $3)`,
			content.EntityID,
			content.Data,
			content.UpdatedAt,
		)

		var err error
		upserted, err = scanCanonicalContent(row)
		return err
	})
	if err != nil {
		return nil, mapError(ctx, "upsert canonical content", err)
	}

	return upserted, nil
}

// SelectCanonicalContent retrieves the content of an entity
func (h *CanonicalContentDBHandler) SelectCanonicalContent(ctx context.Context, entityID uuid.UUID) (*model.CanonicalContent, error) {
	var content *model.CanonicalContent
	err := withTx(ctx, h.db.Instance, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT * FROM select_canonical_content($1)`, entityID)

		var err error
		content, err = scanCanonicalContent(row)
		return err
	})
	if err != nil {
		return nil, mapError(ctx, "select canonical content", err)
	}

	return content, nil
}

func scanCanonicalContent(s rowScanner) (*model.CanonicalContent, error) {
	c := &model.CanonicalContent{}
	err := s.Scan(
		&c.EntityID,
		&c.Data,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if c.Data == nil {
		c.Data = model.Metadata{}
	}
	c.CreatedAt = model.NormalizeTime(c.CreatedAt)
	c.UpdatedAt = model.NormalizeTime(c.UpdatedAt)
	return c, nil
}
