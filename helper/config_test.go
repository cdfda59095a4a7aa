package helper

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnvs(t *testing.T) {
	for _, key := range []string{
		"GRAPH_BACKEND", "GRAPH_DB_HOST", "GRAPH_DB_PORT", "GRAPH_DB_DATABASE", "GRAPH_DB_USERNAME",
		"GRAPH_DB_PASSWORD", "GRAPH_DB_SCHEMA", "GRAPH_DB_SSLMODE", "NEO4J_URI", "NEO4J_USER",
		"NEO4J_PASSWORD", "NEO4J_DATABASE", "GRAPH_OPERATION_TIMEOUT", "LOG_LEVEL", "GRAPH_METRICS",
	} {
		t.Setenv(key, "")
	}
}

func TestParseBackendKind(t *testing.T) {
	t.Run("Canonical names and aliases", func(t *testing.T) {
		for input, expected := range map[string]BackendKind{
			"in_memory":      BackendInMemory,
			"memory":         BackendInMemory,
			"relational":     BackendRelational,
			"POSTGRES":       BackendRelational,
			"graph_database": BackendGraphDatabase,
			" neo4j ":        BackendGraphDatabase,
		} {
			kind, err := ParseBackendKind(input)
			require.NoError(t, err, input)
			assert.Equal(t, expected, kind, input)
		}
	})

	t.Run("Unknown name fails", func(t *testing.T) {
		_, err := ParseBackendKind("sqlite")
		assert.Error(t, err)
	})
}

func TestNewConfiguration(t *testing.T) {
	t.Run("In-memory backend needs no database settings", func(t *testing.T) {
		clearConfigEnvs(t)
		t.Setenv("GRAPH_BACKEND", "memory")
		t.Setenv("GRAPH_OPERATION_TIMEOUT", "3s")
		t.Setenv("GRAPH_METRICS", "true")

		config, err := NewConfiguration()

		require.NoError(t, err)
		assert.Equal(t, BackendInMemory, config.Backend)
		assert.Equal(t, 3*time.Second, config.OperationTimeout)
		assert.True(t, config.Metrics)
	})

	t.Run("Relational backend requires database settings", func(t *testing.T) {
		clearConfigEnvs(t)
		t.Setenv("GRAPH_BACKEND", "relational")

		_, err := NewConfiguration()

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))
		assert.Contains(t, err.Error(), "GRAPH_DB_HOST")
	})

	t.Run("Relational backend reads database settings", func(t *testing.T) {
		clearConfigEnvs(t)
		SetTestDatabaseConfigEnvs(t, "5433")

		config, err := NewConfiguration()

		require.NoError(t, err)
		assert.Equal(t, BackendRelational, config.Backend)
		assert.Equal(t, "5433", config.Database.Port)
		assert.Contains(t, config.Database.DSN(), "port='5433'")
		assert.Contains(t, config.Database.DSN(), "search_path='public'")
	})

	t.Run("Graph backend requires uri", func(t *testing.T) {
		clearConfigEnvs(t)
		t.Setenv("GRAPH_BACKEND", "neo4j")

		_, err := NewConfiguration()
		require.Error(t, err)

		t.Setenv("NEO4J_URI", "bolt://localhost:7687")
		config, err := NewConfiguration()
		require.NoError(t, err)
		assert.Equal(t, "neo4j", config.Neo4j.Database)
	})

	t.Run("Invalid timeout fails", func(t *testing.T) {
		clearConfigEnvs(t)
		t.Setenv("GRAPH_BACKEND", "memory")
		t.Setenv("GRAPH_OPERATION_TIMEOUT", "soon")

		_, err := NewConfiguration()
		assert.Error(t, err)
	})
}

func TestLoadConfigurationFile(t *testing.T) {
	t.Run("YAML file with env override", func(t *testing.T) {
		clearConfigEnvs(t)
		path := filepath.Join(t.TempDir(), "aether.yaml")
		content := `backend: postgres
operation_timeout: 2s
log_level: debug
database:
  host: db.internal
  port: "5432"
  database: aether
  username: aether
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		t.Setenv("GRAPH_DB_HOST", "override.internal")

		config, err := LoadConfigurationFile(path)

		require.NoError(t, err)
		assert.Equal(t, BackendRelational, config.Backend)
		assert.Equal(t, 2*time.Second, config.OperationTimeout)
		assert.Equal(t, "debug", config.LogLevel)
		assert.Equal(t, "override.internal", config.Database.Host)
		assert.Equal(t, "disable", config.Database.SSLMode)
	})

	t.Run("Unknown backend in file fails", func(t *testing.T) {
		clearConfigEnvs(t)
		path := filepath.Join(t.TempDir(), "aether.yaml")
		require.NoError(t, os.WriteFile(path, []byte("backend: sqlite\n"), 0644))

		_, err := LoadConfigurationFile(path)
		assert.Error(t, err)
	})

	t.Run("Missing file fails", func(t *testing.T) {
		_, err := LoadConfigurationFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestDatabaseConfiguration_DSN(t *testing.T) {
	t.Run("Quotes values", func(t *testing.T) {
		c := &DatabaseConfiguration{Host: "h", Port: "5432", Database: "d", Username: "u", Password: "it's secret"}

		dsn := c.DSN()

		assert.Contains(t, dsn, `password='it\'s secret'`)
		assert.Contains(t, dsn, "sslmode='disable'")
	})
}
