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

// BrandPoliciesDBHandlerFunctions defines the interface for BrandPolicies database operations.
type BrandPoliciesDBHandlerFunctions interface {
	UpsertBrandPolicy(ctx context.Context, policy *model.BrandPolicy) (*model.BrandPolicy, error)
	SelectBrandPolicy(ctx context.Context, brandID uuid.UUID) (*model.BrandPolicy, error)
}

// BrandPoliciesDBHandler handles brand policy database operations
type BrandPoliciesDBHandler struct {
	db *helper.Database
}

// NewBrandPoliciesDBHandler creates a new brand policies database handler.
func NewBrandPoliciesDBHandler(db *helper.Database, force bool) (*BrandPoliciesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	brandPoliciesDbHandler := &BrandPoliciesDBHandler{
		db: db,
	}

	err := loadSql.LoadBrandPoliciesSql(brandPoliciesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load brand policies sql", err)
	}

	err = brandPoliciesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized BrandPoliciesDBHandler")

	return brandPoliciesDbHandler, nil
}

// CreateTable creates the 'brand_policies' table if it does not exist.
func (h *BrandPoliciesDBHandler) CreateTable() error {
	return createTable(h.db, "brand_policies", `SELECT init_brand_policies();`)
}

// UpsertBrandPolicy inserts the policy of a brand or replaces all of its fields.
// policy.UpdatedAt is the write time; CreatedAt of an existing row is kept.
func (h *BrandPoliciesDBHandler) UpsertBrandPolicy(ctx context.Context, policy *model.BrandPolicy) (*model.BrandPolicy, error) {
	if policy == nil {
		return nil, helper.NewError("upsert brand policy", errNilHandlerInput)
	}

	var upserted *model.BrandPolicy
	err := withTx(ctx, h.db.Instance, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(
			ctx,
			`SELECT * FROM upsert_brand_policy($1, $2, $3, $4, $5)`,
			policy.BrandID,
			policy.AllowedClaims,
			jsonStringList(policy.ForbiddenPhrases),
			jsonStringList(policy.RegulatedTopics),
			policy.UpdatedAt,
		)

		var err error
		upserted, err = scanBrandPolicy(row)
		return err
	})
	if err != nil {
		return nil, mapError(ctx, "upsert brand policy", err)
	}

	return upserted, nil
}

// SelectBrandPolicy retrieves the policy of a brand
func (h *BrandPoliciesDBHandler) SelectBrandPolicy(ctx context.Context, brandID uuid.UUID) (*model.BrandPolicy, error) {
	var policy *model.BrandPolicy
	err := withTx(ctx, h.db.Instance, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT * FROM select_brand_policy($1)`, brandID)

		var err error
		policy, err = scanBrandPolicy(row)
		return err
	})
	if err != nil {
		return nil, mapError(ctx, "select brand policy", err)
	}

	return policy, nil
}

func scanBrandPolicy(s rowScanner) (*model.BrandPolicy, error) {
	p := &model.BrandPolicy{}
	err := s.Scan(
		&p.BrandID,
		&p.AllowedClaims,
		(*jsonStringList)(&p.ForbiddenPhrases),
		(*jsonStringList)(&p.RegulatedTopics),
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Normalize()
	p.CreatedAt = model.NormalizeTime(p.CreatedAt)
	p.UpdatedAt = model.NormalizeTime(p.UpdatedAt)
	return p, nil
}
