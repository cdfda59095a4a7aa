package graphdb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Gengyveusa/aether/core/store"
	"github.com/Gengyveusa/aether/helper"
	"github.com/Gengyveusa/aether/model"
	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// BackendName labels not implemented errors of this backend.
const BackendName = "graph_database"

// Backend stores entities as (:Entity) nodes and relationships as [:REL] edges.
// Canonical content, source documents and brand policies have no node mapping
// and fail with helper.ErrNotImplemented.
type Backend struct {
	driver   neo4j.DriverWithContext
	database string
	timeout  time.Duration
	logger   *slog.Logger
}

var _ store.Backend = (*Backend)(nil)

var schemaStatements = []string{
	`CREATE CONSTRAINT entity_id_unique IF NOT EXISTS FOR (e:Entity) REQUIRE e.id IS UNIQUE`,
	`CREATE CONSTRAINT entity_slug_unique IF NOT EXISTS FOR (e:Entity) REQUIRE e.slug IS UNIQUE`,
	`CREATE CONSTRAINT rel_id_unique IF NOT EXISTS FOR ()-[r:REL]-() REQUIRE r.id IS UNIQUE`,
	`CREATE INDEX entity_created_at IF NOT EXISTS FOR (e:Entity) ON (e.createdAt)`,
}

// Open connects a driver from config, verifies connectivity and ensures the schema.
// The returned backend owns the driver.
func Open(ctx context.Context, config *helper.Neo4jConfiguration, timeout time.Duration, logger *slog.Logger) (*Backend, error) {
	if config == nil || config.URI == "" {
		return nil, helper.NewValidationError("open graph database", "NEO4J_URI is required")
	}

	auth := neo4j.BasicAuth(config.Username, config.Password, "")
	driver, err := neo4j.NewDriverWithContext(config.URI, auth, func(cfg *neo4j.Config) {
		// Callers decide on retries.
		cfg.MaxTransactionRetryTime = 0
		if config.MaxPoolSize > 0 {
			cfg.MaxConnectionPoolSize = config.MaxPoolSize
		}
		if config.ConnectTimeout > 0 {
			cfg.SocketConnectTimeout = config.ConnectTimeout
		}
	})
	if err != nil {
		return nil, helper.NewError("create neo4j driver", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, timeoutOrDefault(config.ConnectTimeout))
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, helper.NewUnavailableError("verify neo4j connectivity", err)
	}

	backend := New(driver, config.Database, timeout, logger)
	if err := backend.EnsureSchema(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}

	backend.logger.Info("Initialized graph database backend", slog.String("uri", config.URI), slog.String("database", config.Database))

	return backend, nil
}

// New wraps an explicitly constructed driver. A zero timeout falls back to helper.DefaultOperationTimeout.
func New(driver neo4j.DriverWithContext, database string, timeout time.Duration, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		driver:   driver,
		database: database,
		timeout:  timeoutOrDefault(timeout),
		logger:   logger,
	}
}

// EnsureSchema creates the uniqueness constraints on entity id and slug and on relationship id.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	session := b.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	for _, statement := range schemaStatements {
		res, err := session.Run(ctx, statement, nil)
		if err != nil {
			return mapError(ctx, "ensure graph schema", err)
		}
		if _, err := res.Consume(ctx); err != nil {
			return mapError(ctx, "ensure graph schema", err)
		}
	}
	return nil
}

func (b *Backend) CreateEntity(ctx context.Context, entity *model.Entity) (*model.Entity, error) {
	if err := entity.Validate(); err != nil {
		return nil, err
	}

	e := entity.Clone()
	e.PrepareForCreate()
	props, err := entityProperties(e)
	if err != nil {
		return nil, err
	}

	return writeSingle(ctx, b, "create entity", `
		CREATE (e:Entity)
		SET e = $props
		RETURN e`,
		map[string]interface{}{"props": props},
		entityFromEntityRecord,
	)
}

func (b *Backend) GetEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error) {
	return readSingle(ctx, b, "get entity", `
		MATCH (e:Entity {id: $id})
		RETURN e`,
		map[string]interface{}{"id": id.String()},
		entityFromEntityRecord,
	)
}

func (b *Backend) UpdateEntity(ctx context.Context, entity *model.Entity) (*model.Entity, error) {
	if err := entity.Validate(); err != nil {
		return nil, err
	}
	if entity.ID == uuid.Nil {
		return nil, helper.NewValidationError("update entity", "id is required")
	}

	e := entity.Clone()
	if e.ExtraData == nil {
		e.ExtraData = model.Metadata{}
	}
	e.UpdatedAt = model.Now()
	props, err := entityProperties(e)
	if err != nil {
		return nil, err
	}
	delete(props, "createdAt")

	return writeSingle(ctx, b, "update entity", `
		MATCH (e:Entity {id: $id})
		WITH e, e.createdAt AS createdAt
		SET e = $props, e.createdAt = createdAt
		RETURN e`,
		map[string]interface{}{"id": e.ID.String(), "props": props},
		entityFromEntityRecord,
	)
}

func (b *Backend) ListEntities(ctx context.Context, filter model.EntityFilter) ([]*model.Entity, error) {
	filter = filter.Normalize()

	var entityType, brandID interface{}
	if filter.Type != "" {
		entityType = filter.Type
	}
	if filter.BrandID != nil {
		brandID = filter.BrandID.String()
	}

	return readAll(ctx, b, "list entities", `
		MATCH (e:Entity)
		WHERE ($type IS NULL OR e.type = $type)
		  AND ($brandId IS NULL OR e.brandId = $brandId)
		RETURN e
		ORDER BY e.createdAt, e.id
		SKIP $offset LIMIT $limit`,
		map[string]interface{}{
			"type":    entityType,
			"brandId": brandID,
			"offset":  int64(filter.Offset),
			"limit":   int64(filter.Limit),
		},
		entityFromEntityRecord,
	)
}

func (b *Backend) UpsertCanonicalContent(ctx context.Context, entityID uuid.UUID, data model.Metadata) (*model.CanonicalContent, error) {
	return nil, helper.NewNotImplementedError("upsert canonical content", BackendName)
}

func (b *Backend) GetCanonicalContent(ctx context.Context, entityID uuid.UUID) (*model.CanonicalContent, error) {
	return nil, helper.NewNotImplementedError("get canonical content", BackendName)
}

func (b *Backend) CreateSourceDocument(ctx context.Context, document *model.SourceDocument) (*model.SourceDocument, error) {
	return nil, helper.NewNotImplementedError("create source document", BackendName)
}

func (b *Backend) ListSourceDocuments(ctx context.Context, brandID uuid.UUID, includeContent bool) ([]*model.SourceDocument, error) {
	return nil, helper.NewNotImplementedError("list source documents", BackendName)
}

// CreateRelationship requires both endpoints to exist. A missing endpoint is a validation error.
func (b *Backend) CreateRelationship(ctx context.Context, relationship *model.Relationship) (*model.Relationship, error) {
	if err := relationship.Validate(); err != nil {
		return nil, err
	}

	r := relationship.Clone()
	r.PrepareForCreate()

	created, err := writeSingle(ctx, b, "create relationship", `
		MATCH (a:Entity {id: $from}), (b:Entity {id: $to})
		CREATE (a)-[r:REL]->(b)
		SET r = $props
		RETURN r, a.id AS fromId, b.id AS toId`,
		map[string]interface{}{
			"from":  r.FromEntityID.String(),
			"to":    r.ToEntityID.String(),
			"props": relationshipProperties(r),
		},
		relationshipFromRecord,
	)
	if helper.ErrorKind(err) == helper.ErrNotFound {
		return nil, helper.NewValidationError("create relationship", "referenced entity does not exist")
	}
	return created, err
}

func (b *Backend) ListRelationships(ctx context.Context, filter model.RelationshipFilter) ([]*model.Relationship, error) {
	var from, to, relationshipType interface{}
	if filter.FromEntityID != nil {
		from = filter.FromEntityID.String()
	}
	if filter.ToEntityID != nil {
		to = filter.ToEntityID.String()
	}
	if filter.Type != "" {
		relationshipType = filter.Type
	}

	return readAll(ctx, b, "list relationships", `
		MATCH (a:Entity)-[r:REL]->(b:Entity)
		WHERE ($from IS NULL OR a.id = $from)
		  AND ($to IS NULL OR b.id = $to)
		  AND ($type IS NULL OR r.type = $type)
		RETURN r, a.id AS fromId, b.id AS toId
		ORDER BY r.createdAt, r.id`,
		map[string]interface{}{"from": from, "to": to, "type": relationshipType},
		relationshipFromRecord,
	)
}

func (b *Backend) GetNeighbors(ctx context.Context, entityID uuid.UUID, relationshipTypes []string) ([]*model.Neighbor, error) {
	var types interface{}
	if len(relationshipTypes) > 0 {
		types = relationshipTypes
	}

	return readAll(ctx, b, "get neighbors", `
		MATCH (:Entity {id: $id})-[r:REL]-(:Entity)
		WHERE $types IS NULL OR r.type IN $types
		RETURN DISTINCT r, startNode(r) AS a, endNode(r) AS b`,
		map[string]interface{}{"id": entityID.String(), "types": types},
		neighborFromRecord,
	)
}

func (b *Backend) GetBrandPolicy(ctx context.Context, brandID uuid.UUID) (*model.BrandPolicy, error) {
	return nil, helper.NewNotImplementedError("get brand policy", BackendName)
}

func (b *Backend) UpsertBrandPolicy(ctx context.Context, policy *model.BrandPolicy) (*model.BrandPolicy, error) {
	return nil, helper.NewNotImplementedError("upsert brand policy", BackendName)
}

// Close closes the driver and its connection pool.
func (b *Backend) Close() error {
	if b.driver == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	return b.driver.Close(ctx)
}

func (b *Backend) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return b.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: b.database,
	})
}

func entityFromEntityRecord(record *neo4j.Record) (*model.Entity, error) {
	node, err := recordValue[neo4j.Node](record, "e")
	if err != nil {
		return nil, err
	}
	return entityFromNode(node)
}

// readAll runs query in a managed read transaction and maps every record.
func readAll[T any](ctx context.Context, b *Backend, op string, query string, params map[string]interface{}, mapRecord func(*neo4j.Record) (T, error)) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	session := b.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return collect(records, mapRecord)
	})
	if err != nil {
		return nil, mapError(ctx, op, err)
	}
	return out.([]T), nil
}

func readSingle[T any](ctx context.Context, b *Backend, op string, query string, params map[string]interface{}, mapRecord func(*neo4j.Record) (T, error)) (T, error) {
	return runSingle(ctx, b, neo4j.AccessModeRead, op, query, params, mapRecord)
}

func writeSingle[T any](ctx context.Context, b *Backend, op string, query string, params map[string]interface{}, mapRecord func(*neo4j.Record) (T, error)) (T, error) {
	return runSingle(ctx, b, neo4j.AccessModeWrite, op, query, params, mapRecord)
}

// runSingle maps the first record. No record is reported as helper.ErrNotFound.
func runSingle[T any](ctx context.Context, b *Backend, mode neo4j.AccessMode, op string, query string, params map[string]interface{}, mapRecord func(*neo4j.Record) (T, error)) (T, error) {
	var zero T

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	session := b.session(ctx, mode)
	defer session.Close(ctx)

	work := func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, helper.NewNotFoundError(op, fmt.Sprint(params["id"]))
		}
		return mapRecord(records[0])
	}

	var out any
	var err error
	if mode == neo4j.AccessModeWrite {
		out, err = session.ExecuteWrite(ctx, work)
	} else {
		out, err = session.ExecuteRead(ctx, work)
	}
	if err != nil {
		return zero, mapError(ctx, op, err)
	}
	return out.(T), nil
}

func collect[T any](records []*neo4j.Record, mapRecord func(*neo4j.Record) (T, error)) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, record := range records {
		v, err := mapRecord(record)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func timeoutOrDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return helper.DefaultOperationTimeout
	}
	return timeout
}
