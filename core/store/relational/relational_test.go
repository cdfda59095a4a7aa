package relational

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/Gengyveusa/aether/core/store/storetest"
	"github.com/Gengyveusa/aether/helper"
	"github.com/Gengyveusa/aether/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("error tearing down postgres container: %v", err)
		}
	}
}

func initBackend(t *testing.T, timeout time.Duration) *Backend {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")

	backend, err := New(helper.NewTestDatabase(dbConfig), timeout, false)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	return backend
}

func TestBackend(t *testing.T) {
	storetest.Run(t, initBackend(t, 0))
}

func TestNewBackend(t *testing.T) {
	t.Run("Nil database is a validation error", func(t *testing.T) {
		_, err := New(nil, time.Second, false)
		assert.True(t, errors.Is(err, helper.ErrValidation))
	})

	t.Run("Zero timeout falls back to the default", func(t *testing.T) {
		backend := initBackend(t, 0)
		assert.Equal(t, helper.DefaultOperationTimeout, backend.timeout)
	})

	t.Run("Loading twice reuses the schema", func(t *testing.T) {
		first := initBackend(t, time.Second)
		brand := storetest.NewEntity(t, first, model.EntityTypeBrand, nil)

		second := initBackend(t, time.Second)
		got, err := second.GetEntity(context.Background(), brand.ID)
		require.NoError(t, err)
		assert.Equal(t, brand.Slug, got.Slug)
	})
}

func TestReferentialIntegrity(t *testing.T) {
	backend := initBackend(t, 0)
	ctx := context.Background()
	brand := storetest.NewEntity(t, backend, model.EntityTypeBrand, nil)

	tests := []struct {
		name string
		call func() error
	}{
		{"Relationship to a missing entity", func() error {
			_, err := backend.CreateRelationship(ctx, &model.Relationship{FromEntityID: brand.ID, ToEntityID: uuid.New(), Type: model.RelationshipEndorses})
			return err
		}},
		{"Canonical content of a missing entity", func() error {
			_, err := backend.UpsertCanonicalContent(ctx, uuid.New(), model.Metadata{"headline": "x"})
			return err
		}},
		{"Source document of a missing brand", func() error {
			_, err := backend.CreateSourceDocument(ctx, &model.SourceDocument{BrandID: uuid.New(), URL: "https://nobody.test"})
			return err
		}},
		{"Policy of a missing brand", func() error {
			_, err := backend.UpsertBrandPolicy(ctx, &model.BrandPolicy{BrandID: uuid.New()})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			assert.True(t, errors.Is(err, helper.ErrValidation), "expected validation error, got %v", err)
		})
	}
}

func TestUnavailable(t *testing.T) {
	t.Run("Expired deadline is unavailable", func(t *testing.T) {
		backend := initBackend(t, 0)
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		time.Sleep(time.Millisecond)

		_, err := backend.GetEntity(ctx, uuid.New())
		assert.True(t, helper.IsRetryable(err), "expected unavailable, got %v", err)
	})

	t.Run("Closed pool is not a not found", func(t *testing.T) {
		backend := initBackend(t, 0)
		require.NoError(t, backend.Close())

		_, err := backend.GetEntity(context.Background(), uuid.New())
		assert.Error(t, err)
		assert.False(t, errors.Is(err, helper.ErrNotFound))
	})
}
