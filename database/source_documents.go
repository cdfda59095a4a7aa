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

// SourceDocumentsDBHandlerFunctions defines the interface for SourceDocuments database operations.
type SourceDocumentsDBHandlerFunctions interface {
	UpsertSourceDocument(ctx context.Context, document *model.SourceDocument) (*model.SourceDocument, error)
	SelectSourceDocuments(ctx context.Context, brandID uuid.UUID, includeContent bool) ([]*model.SourceDocument, error)
}

// SourceDocumentsDBHandler handles source document database operations
type SourceDocumentsDBHandler struct {
	db *helper.Database
}

// NewSourceDocumentsDBHandler creates a new source documents database handler.
func NewSourceDocumentsDBHandler(db *helper.Database, force bool) (*SourceDocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	sourceDocumentsDbHandler := &SourceDocumentsDBHandler{
		db: db,
	}

	err := loadSql.LoadSourceDocumentsSql(sourceDocumentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load source documents sql", err)
	}

	err = sourceDocumentsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized SourceDocumentsDBHandler")

	return sourceDocumentsDbHandler, nil
}

// CreateTable creates the 'source_documents' table and its indexes if they do not exist.
func (h *SourceDocumentsDBHandler) CreateTable() error {
	return createTable(h.db, "source_documents", `SELECT init_source_documents();`)
}

// UpsertSourceDocument ingests a document. Re-ingesting a known (brand, url) pair
// overwrites content, content type and ingest time and keeps the original id.
func (h *SourceDocumentsDBHandler) UpsertSourceDocument(ctx context.Context, document *model.SourceDocument) (*model.SourceDocument, error) {
	if document == nil {
		return nil, helper.NewError("upsert source document", errNilHandlerInput)
	}

	var upserted *model.SourceDocument
	err := withTx(ctx, h.db.Instance, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(
			ctx,
			`SELECT * FROM upsert_source_document($1, $2, $3, $4, $5, $6)`,
			document.ID,
			document.BrandID,
			document.URL,
			document.Content,
			document.ContentType,
			document.IngestedAt,
		)

		var err error
		upserted, err = scanSourceDocument(row)
		return err
	})
	if err != nil {
		return nil, mapError(ctx, "upsert source document", err)
	}

	return upserted, nil
}

// SelectSourceDocuments lists the documents of a brand, newest ingest first.
// Without includeContent the body is not read from the table.
func (h *SourceDocumentsDBHandler) SelectSourceDocuments(ctx context.Context, brandID uuid.UUID, includeContent bool) ([]*model.SourceDocument, error) {
	var documents []*model.SourceDocument
	err := withTx(ctx, h.db.Instance, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(
			ctx,
			`SELECT * FROM select_source_documents($1, $2)`,
			brandID,
			includeContent,
		)
		if err != nil {
			return err
		}

		documents, err = collectRows(rows, scanSourceDocument)
		return err
	})
	if err != nil {
		return nil, mapError(ctx, "select source documents", err)
	}

	if !includeContent {
		for i, d := range documents {
			documents[i] = d.WithoutContent()
		}
	}

	return documents, nil
}

func scanSourceDocument(s rowScanner) (*model.SourceDocument, error) {
	d := &model.SourceDocument{}
	err := s.Scan(
		&d.ID,
		&d.BrandID,
		&d.URL,
		&d.Content,
		&d.ContentType,
		&d.IngestedAt,
	)
	if err != nil {
		return nil, err
	}

	d.IngestedAt = model.NormalizeTime(d.IngestedAt)
	return d, nil
}
