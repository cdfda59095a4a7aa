package store

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/Gengyveusa/aether/helper"
	"github.com/Gengyveusa/aether/model"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend answers every call with err and records the calls it saw.
type fakeBackend struct {
	err    error
	calls  []string
	closed bool
}

func (f *fakeBackend) record(op string) { f.calls = append(f.calls, op) }

func (f *fakeBackend) CreateEntity(ctx context.Context, entity *model.Entity) (*model.Entity, error) {
	f.record("create_entity")
	if f.err != nil {
		return nil, f.err
	}
	e := entity.Clone()
	e.PrepareForCreate()
	return e, nil
}

func (f *fakeBackend) GetEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error) {
	f.record("get_entity")
	if f.err != nil {
		return nil, f.err
	}
	return &model.Entity{ID: id}, nil
}

func (f *fakeBackend) UpdateEntity(ctx context.Context, entity *model.Entity) (*model.Entity, error) {
	f.record("update_entity")
	return entity, f.err
}

func (f *fakeBackend) ListEntities(ctx context.Context, filter model.EntityFilter) ([]*model.Entity, error) {
	f.record("list_entities")
	return nil, f.err
}

func (f *fakeBackend) UpsertCanonicalContent(ctx context.Context, entityID uuid.UUID, data model.Metadata) (*model.CanonicalContent, error) {
	f.record("upsert_canonical_content")
	return &model.CanonicalContent{EntityID: entityID, Data: data}, f.err
}

func (f *fakeBackend) GetCanonicalContent(ctx context.Context, entityID uuid.UUID) (*model.CanonicalContent, error) {
	f.record("get_canonical_content")
	return nil, f.err
}

func (f *fakeBackend) CreateSourceDocument(ctx context.Context, document *model.SourceDocument) (*model.SourceDocument, error) {
	f.record("create_source_document")
	return document, f.err
}

func (f *fakeBackend) ListSourceDocuments(ctx context.Context, brandID uuid.UUID, includeContent bool) ([]*model.SourceDocument, error) {
	f.record("list_source_documents")
	return nil, f.err
}

func (f *fakeBackend) CreateRelationship(ctx context.Context, relationship *model.Relationship) (*model.Relationship, error) {
	f.record("create_relationship")
	return relationship, f.err
}

func (f *fakeBackend) ListRelationships(ctx context.Context, filter model.RelationshipFilter) ([]*model.Relationship, error) {
	f.record("list_relationships")
	return nil, f.err
}

func (f *fakeBackend) GetNeighbors(ctx context.Context, entityID uuid.UUID, relationshipTypes []string) ([]*model.Neighbor, error) {
	f.record("get_neighbors")
	return nil, f.err
}

func (f *fakeBackend) GetBrandPolicy(ctx context.Context, brandID uuid.UUID) (*model.BrandPolicy, error) {
	f.record("get_brand_policy")
	return nil, f.err
}

func (f *fakeBackend) UpsertBrandPolicy(ctx context.Context, policy *model.BrandPolicy) (*model.BrandPolicy, error) {
	f.record("upsert_brand_policy")
	return policy, f.err
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return f.err
}

func newTestObserved(t *testing.T, inner Backend) (*Observed, *Metrics, *bytes.Buffer) {
	t.Helper()

	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return NewObserved(inner, "fake", logger, metrics), metrics, &buf
}

func TestObservedPassThrough(t *testing.T) {
	ctx := context.Background()

	t.Run("Results are forwarded unchanged", func(t *testing.T) {
		inner := &fakeBackend{}
		observed, _, _ := newTestObserved(t, inner)

		e, err := observed.CreateEntity(ctx, &model.Entity{Type: "brand", Slug: "acme", DisplayName: "Acme"})
		require.NoError(t, err)
		assert.Equal(t, "acme", e.Slug)
		assert.Equal(t, []string{"create_entity"}, inner.calls)
		assert.Same(t, inner, observed.Unwrap())
	})

	t.Run("Errors keep their category", func(t *testing.T) {
		inner := &fakeBackend{err: helper.NewNotFoundError("get entity", "x")}
		observed, _, _ := newTestObserved(t, inner)

		_, err := observed.GetEntity(ctx, uuid.New())
		assert.True(t, errors.Is(err, helper.ErrNotFound))
	})

	t.Run("Every operation reaches the inner backend", func(t *testing.T) {
		inner := &fakeBackend{}
		observed, _, _ := newTestObserved(t, inner)
		id := uuid.New()

		_, _ = observed.CreateEntity(ctx, &model.Entity{})
		_, _ = observed.GetEntity(ctx, id)
		_, _ = observed.UpdateEntity(ctx, &model.Entity{})
		_, _ = observed.ListEntities(ctx, model.EntityFilter{})
		_, _ = observed.UpsertCanonicalContent(ctx, id, nil)
		_, _ = observed.GetCanonicalContent(ctx, id)
		_, _ = observed.CreateSourceDocument(ctx, &model.SourceDocument{})
		_, _ = observed.ListSourceDocuments(ctx, id, true)
		_, _ = observed.CreateRelationship(ctx, &model.Relationship{})
		_, _ = observed.ListRelationships(ctx, model.RelationshipFilter{})
		_, _ = observed.GetNeighbors(ctx, id, nil)
		_, _ = observed.GetBrandPolicy(ctx, id)
		_, _ = observed.UpsertBrandPolicy(ctx, &model.BrandPolicy{})
		require.NoError(t, observed.Close())

		assert.Len(t, inner.calls, 13)
		assert.True(t, inner.closed)
	})
}

func TestObservedMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("Outcomes are counted per category", func(t *testing.T) {
		inner := &fakeBackend{}
		observed, metrics, _ := newTestObserved(t, inner)

		_, _ = observed.GetEntity(ctx, uuid.New())
		inner.err = helper.NewNotFoundError("get entity", "x")
		_, _ = observed.GetEntity(ctx, uuid.New())
		_, _ = observed.GetEntity(ctx, uuid.New())
		inner.err = helper.NewUnavailableError("get entity", errors.New("connection refused"))
		_, _ = observed.GetEntity(ctx, uuid.New())

		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.operations.WithLabelValues("fake", "get_entity", "ok")))
		assert.Equal(t, 2.0, testutil.ToFloat64(metrics.operations.WithLabelValues("fake", "get_entity", "not_found")))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.operations.WithLabelValues("fake", "get_entity", "unavailable")))
		assert.Equal(t, 1, testutil.CollectAndCount(metrics.duration))
	})

	t.Run("Nil metrics are skipped", func(t *testing.T) {
		observed := NewObserved(&fakeBackend{}, "fake", slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), nil)

		_, err := observed.GetEntity(ctx, uuid.New())
		assert.NoError(t, err)
	})

	t.Run("Registering twice fails", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		_, err := NewMetrics(reg)
		require.NoError(t, err)

		_, err = NewMetrics(reg)
		assert.Error(t, err)
	})
}

func TestObservedLogging(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		err   error
		level string
	}{
		{"Success logs at debug", nil, "level=DEBUG"},
		{"Not found logs at debug", helper.NewNotFoundError("op", "x"), "level=DEBUG"},
		{"Validation logs at info", helper.NewValidationError("op", "x"), "level=INFO"},
		{"Conflict logs at info", helper.NewConflictError("op", "entities_slug_key", nil), "level=INFO"},
		{"Unavailable logs at warn", helper.NewUnavailableError("op", errors.New("down")), "level=WARN"},
		{"Not implemented logs at warn", helper.NewNotImplementedError("op", "graph_database"), "level=WARN"},
		{"Uncategorized logs at error", errors.New("boom"), "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observed, _, buf := newTestObserved(t, &fakeBackend{err: tt.err})

			_, _ = observed.GetBrandPolicy(ctx, uuid.New())

			out := buf.String()
			assert.Contains(t, out, tt.level)
			assert.Contains(t, out, "operation=get_brand_policy")
			assert.Contains(t, out, "backend=fake")
		})
	}
}
