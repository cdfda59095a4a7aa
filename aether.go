package aether

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Gengyveusa/aether/core/graph"
	"github.com/Gengyveusa/aether/core/store"
	"github.com/Gengyveusa/aether/core/store/graphdb"
	"github.com/Gengyveusa/aether/core/store/memory"
	"github.com/Gengyveusa/aether/core/store/relational"
	"github.com/Gengyveusa/aether/helper"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Aether owns the selected backend and the handles behind it.
// Every store operation is logged and counted.
type Aether struct {
	store.Backend
	Kind    helper.BackendKind
	Metrics *store.Metrics
	// Logging
	log *slog.Logger
}

// NewBackend binds exactly one engine from config.Backend.
// The relational engine gets its own connection pool and the graph engine its own driver;
// both are released by the returned backend's Close.
func NewBackend(ctx context.Context, config *helper.Configuration, logger *slog.Logger) (store.Backend, error) {
	if config == nil {
		return nil, helper.NewValidationError("create backend", "configuration is nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	switch config.Backend {
	case helper.BackendInMemory:
		logger.Info("Initialized in-memory backend")
		return memory.New(), nil

	case helper.BackendRelational:
		db, err := helper.NewDatabase("aether", config.Database, logger)
		if err != nil {
			return nil, err
		}
		backend, err := relational.New(db, config.OperationTimeout, false)
		if err != nil {
			db.Close()
			return nil, helper.NewError("create relational backend", err)
		}
		return backend, nil

	case helper.BackendGraphDatabase:
		backend, err := graphdb.Open(ctx, config.Neo4j, config.OperationTimeout, logger)
		if err != nil {
			return nil, helper.NewError("create graph database backend", err)
		}
		return backend, nil

	default:
		return nil, helper.NewValidationError("create backend", fmt.Sprintf("unknown backend %q", config.Backend))
	}
}

// New creates the backend selected by config and wraps it in store.Observed.
// The logger level follows config.LogLevel. With config.Metrics the collectors
// are registered on the default Prometheus registerer.
func New(ctx context.Context, config *helper.Configuration) (*Aether, error) {
	if config == nil {
		return nil, helper.NewValidationError("create aether", "configuration is nil")
	}
	return NewWithLogger(ctx, config, helper.NewLogger(config.LogLevel))
}

// NewWithLogger is New with an explicit logger.
func NewWithLogger(ctx context.Context, config *helper.Configuration, logger *slog.Logger) (*Aether, error) {
	if config == nil {
		return nil, helper.NewValidationError("create aether", "configuration is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	backend, err := NewBackend(ctx, config, logger)
	if err != nil {
		return nil, err
	}

	var reg prometheus.Registerer
	if config.Metrics {
		reg = prometheus.DefaultRegisterer
	}
	metrics, err := store.NewMetrics(reg)
	if err != nil {
		backend.Close()
		return nil, helper.NewError("register metrics", err)
	}

	return &Aether{
		Backend: store.NewObserved(backend, string(config.Backend), logger, metrics),
		Kind:    config.Backend,
		Metrics: metrics,
		log:     logger,
	}, nil
}

// Expand returns every entity within maxHops of entityID in breadth-first order.
// An empty relationshipTypes follows every relationship.
func (a *Aether) Expand(ctx context.Context, entityID uuid.UUID, maxHops int, relationshipTypes []string) ([]*graph.TraversalResult, error) {
	results, err := graph.BFS(ctx, a.Backend, entityID, maxHops, relationshipTypes)
	if err != nil {
		return nil, helper.NewError("expand", err)
	}

	a.log.Debug("Expanded entity", slog.String("entity_id", entityID.String()), slog.Int("max_hops", maxHops), slog.Int("count", len(results)))

	return results, nil
}
