package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/Gengyveusa/aether/helper"
	"github.com/lib/pq"
)

// mapError translates driver failures into the store error categories.
// Uncategorized failures keep their trace through helper.NewError.
func mapError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return helper.NewNotFoundError(op, "")
	}
	if helper.ErrorKind(err) != nil {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return helper.NewUnavailableError(op, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return helper.NewConflictError(op, pqErr.Constraint, err)
		case "23503":
			return &helper.StoreError{Kind: helper.ErrValidation, Op: op, Detail: "referenced entity does not exist", Err: err}
		case "22P02", "23502", "22001":
			return &helper.StoreError{Kind: helper.ErrValidation, Op: op, Detail: pqErr.Message, Err: err}
		case "57P01", "57P02", "57P03", "53300", "57014":
			return helper.NewUnavailableError(op, err)
		}
		if pqErr.Code.Class() == "08" {
			return helper.NewUnavailableError(op, err)
		}
		return helper.NewError(op, err)
	}

	if errors.Is(err, driver.ErrBadConn) {
		return helper.NewUnavailableError(op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return helper.NewUnavailableError(op, err)
	}

	return helper.NewError(op, err)
}
