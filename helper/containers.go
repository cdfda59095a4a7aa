package helper

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcneo4j "github.com/testcontainers/testcontainers-go/modules/neo4j"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testDatabaseName     = "database"
	testDatabaseUser     = "user"
	testDatabasePassword = "password"

	// TestNeo4jUsername and TestNeo4jPassword authenticate against MustStartNeo4jContainer.
	TestNeo4jUsername = "neo4j"
	TestNeo4jPassword = "password"
)

// MustStartPostgresContainer starts a throwaway Postgres server and returns its teardown and mapped port.
func MustStartPostgresContainer() (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	ctx := context.Background()

	container, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(testDatabaseName),
		postgres.WithUsername(testDatabaseUser),
		postgres.WithPassword(testDatabasePassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, "", NewError("start postgres container", err)
	}

	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return container.Terminate, "", NewError("mapped port", err)
	}

	return container.Terminate, port.Port(), nil
}

// MustStartNeo4jContainer starts a throwaway neo4j server and returns its teardown and bolt url.
func MustStartNeo4jContainer() (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	ctx := context.Background()

	container, err := tcneo4j.Run(
		ctx,
		"neo4j:5",
		tcneo4j.WithAdminPassword(TestNeo4jPassword),
	)
	if err != nil {
		return nil, "", NewError("start neo4j container", err)
	}

	uri, err := container.BoltUrl(ctx)
	if err != nil {
		return container.Terminate, "", NewError("bolt url", err)
	}

	return container.Terminate, uri, nil
}

// SetTestDatabaseConfigEnvs points the GRAPH_DB_* variables at a container started by MustStartPostgresContainer.
func SetTestDatabaseConfigEnvs(t *testing.T, dbPort string) {
	t.Setenv("GRAPH_DB_HOST", "localhost")
	t.Setenv("GRAPH_DB_PORT", dbPort)
	t.Setenv("GRAPH_DB_DATABASE", testDatabaseName)
	t.Setenv("GRAPH_DB_USERNAME", testDatabaseUser)
	t.Setenv("GRAPH_DB_PASSWORD", testDatabasePassword)
	t.Setenv("GRAPH_DB_SCHEMA", "public")
	t.Setenv("GRAPH_DB_SSLMODE", "disable")
}
