package graphdb

import (
	"context"
	"errors"

	"github.com/Gengyveusa/aether/helper"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const constraintViolationCode = "Neo.ClientError.Schema.ConstraintValidationFailed"

// mapError sorts driver failures into the store error categories.
func mapError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if helper.ErrorKind(err) != nil {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return helper.NewUnavailableError(op, err)
	}

	var neo4jErr *neo4j.Neo4jError
	if errors.As(err, &neo4jErr) && neo4jErr.Code == constraintViolationCode {
		return helper.NewConflictError(op, neo4jErr.Msg, err)
	}
	if neo4j.IsConnectivityError(err) || neo4j.IsRetryable(err) {
		return helper.NewUnavailableError(op, err)
	}

	return helper.NewError(op, err)
}
