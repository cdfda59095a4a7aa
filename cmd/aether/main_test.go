package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/Gengyveusa/aether/helper"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun(t *testing.T) {
	t.Run("No command prints usage", func(t *testing.T) {
		code, _, stderr := runCLI()
		assert.Equal(t, ExitInput, code)
		assert.Contains(t, stderr, "create-entity")
	})

	t.Run("Version", func(t *testing.T) {
		code, stdout, _ := runCLI("--version")
		assert.Equal(t, ExitSuccess, code)
		assert.Contains(t, stdout, "aether version")
	})

	t.Run("Unknown command", func(t *testing.T) {
		code, _, stderr := runCLI("--backend", "memory", "drop-everything")
		assert.Equal(t, ExitInput, code)
		assert.Contains(t, stderr, "unknown command")
	})

	t.Run("Unknown backend is a configuration error", func(t *testing.T) {
		code, _, _ := runCLI("--backend", "cassandra", "init")
		assert.Equal(t, ExitConfig, code)
	})

	t.Run("Missing configuration file is a configuration error", func(t *testing.T) {
		code, _, _ := runCLI("--config", filepath.Join(t.TempDir(), "missing.yaml"), "init")
		assert.Equal(t, ExitConfig, code)
	})

	t.Run("Init with configuration file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "aether.yaml")
		require.NoError(t, os.WriteFile(path, []byte("backend: memory\nlog_level: error\n"), 0o600))

		code, stdout, _ := runCLI("--config", path, "init")
		require.Equal(t, ExitSuccess, code)

		var out map[string]string
		require.NoError(t, json.Unmarshal([]byte(stdout), &out))
		assert.Equal(t, "in_memory", out["backend"])
		assert.Equal(t, "ready", out["status"])
	})

	t.Run("Create entity prints the stored entity", func(t *testing.T) {
		code, stdout, stderr := runCLI("--backend", "memory", "--log-level", "error",
			"create-entity", "--type", "brand", "--slug", "acme", "--name", "Acme", "--extra", `{"tagline":"Build it"}`)
		require.Equal(t, ExitSuccess, code, stderr)

		var out map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(stdout), &out))
		assert.Equal(t, "acme", out["slug"])
		assert.Equal(t, "Build it", out["tagline"])
		assert.NotEmpty(t, out["id"])
	})

	t.Run("Create entity without slug is an input error", func(t *testing.T) {
		code, _, stderr := runCLI("--backend", "memory", "--log-level", "error", "create-entity", "--type", "brand", "--name", "Acme")
		assert.Equal(t, ExitInput, code)
		assert.Contains(t, stderr, "validation")
	})

	t.Run("Malformed extra is an input error", func(t *testing.T) {
		code, _, _ := runCLI("--backend", "memory", "--log-level", "error",
			"create-entity", "--type", "brand", "--slug", "acme", "--name", "Acme", "--extra", "[1,2]")
		assert.Equal(t, ExitInput, code)
	})

	t.Run("Unknown entity is not found", func(t *testing.T) {
		code, _, _ := runCLI("--backend", "memory", "--log-level", "error", "get-entity", uuid.NewString())
		assert.Equal(t, ExitNotFound, code)
	})

	t.Run("Malformed id is an input error", func(t *testing.T) {
		code, _, _ := runCLI("--backend", "memory", "--log-level", "error", "get-entity", "not-a-uuid")
		assert.Equal(t, ExitInput, code)
	})

	t.Run("Missing positional argument is an input error", func(t *testing.T) {
		code, _, _ := runCLI("--backend", "memory", "--log-level", "error", "neighbors")
		assert.Equal(t, ExitInput, code)
	})

	t.Run("Neighbors of an unknown entity is an empty list", func(t *testing.T) {
		code, stdout, _ := runCLI("--backend", "memory", "--log-level", "error", "neighbors", uuid.NewString(), "--type", "founded_by")
		require.Equal(t, ExitSuccess, code)
		assert.JSONEq(t, "[]", stdout)
	})

	t.Run("List entities on an empty store", func(t *testing.T) {
		code, stdout, _ := runCLI("--backend", "memory", "--log-level", "error", "list-entities", "--type", "brand")
		require.Equal(t, ExitSuccess, code)
		assert.JSONEq(t, "[]", stdout)
	})

	t.Run("Missing policy is not found", func(t *testing.T) {
		code, _, _ := runCLI("--backend", "memory", "--log-level", "error", "get-policy", uuid.NewString())
		assert.Equal(t, ExitNotFound, code)
	})

	t.Run("Negative hops is an input error", func(t *testing.T) {
		code, _, _ := runCLI("--backend", "memory", "--log-level", "error", "expand", uuid.NewString(), "--hops", "-1")
		assert.Equal(t, ExitInput, code)
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"Nil", nil, ExitSuccess},
		{"Not found", helper.NewNotFoundError("get entity", "x"), ExitNotFound},
		{"Validation", helper.NewValidationError("create entity", "x"), ExitInput},
		{"Conflict", helper.NewConflictError("create entity", "entities_slug_key", nil), ExitInput},
		{"Not implemented", helper.NewNotImplementedError("get brand policy", "graph_database"), ExitInput},
		{"Unavailable", helper.NewUnavailableError("get entity", fmt.Errorf("dial tcp: refused")), ExitDatabase},
		{"Uncategorized", fmt.Errorf("boom"), ExitInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, exitCode(tt.err))
		})
	}
}
