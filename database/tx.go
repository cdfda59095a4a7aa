package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Gengyveusa/aether/model"
	"github.com/google/uuid"
)

// withTx runs fn in its own transaction. The connection is released on every path.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// jsonStringList stores a string list as a JSONB array.
type jsonStringList []string

func (l jsonStringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l *jsonStringList) Scan(value interface{}) error {
	var b []byte
	switch v := value.(type) {
	case nil:
		*l = jsonStringList{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into string list", value)
	}

	out := []string{}
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullUUID(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

func scanEntity(s rowScanner) (*model.Entity, error) {
	e := &model.Entity{}
	err := s.Scan(
		&e.ID,
		&e.Type,
		&e.Slug,
		&e.DisplayName,
		&e.Description,
		&e.ExtraData,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	normalizeEntity(e)
	return e, nil
}

func normalizeEntity(e *model.Entity) {
	if e.ExtraData == nil {
		e.ExtraData = model.Metadata{}
	}
	e.CreatedAt = model.NormalizeTime(e.CreatedAt)
	e.UpdatedAt = model.NormalizeTime(e.UpdatedAt)
}

func scanRelationship(s rowScanner) (*model.Relationship, error) {
	r := &model.Relationship{}
	err := s.Scan(
		&r.ID,
		&r.FromEntityID,
		&r.ToEntityID,
		&r.Type,
		(*jsonStringList)(&r.ProofIDs),
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = model.NormalizeTime(r.CreatedAt)
	r.UpdatedAt = model.NormalizeTime(r.UpdatedAt)
	return r, nil
}

// collectRows scans every row and checks the iteration error.
func collectRows[T any](rows *sql.Rows, scan func(rowScanner) (T, error)) ([]T, error) {
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var errNilHandlerInput = errors.New("input is nil")
