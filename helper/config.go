package helper

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// BackendKind selects the storage engine bound at startup.
type BackendKind string

const (
	BackendInMemory      BackendKind = "in_memory"
	BackendRelational    BackendKind = "relational"
	BackendGraphDatabase BackendKind = "graph_database"
)

// DefaultOperationTimeout bounds a single storage operation.
const DefaultOperationTimeout = 10 * time.Second

// ParseBackendKind accepts the canonical names and the aliases memory, postgres and neo4j.
func ParseBackendKind(s string) (BackendKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in_memory", "memory", "inmemory":
		return BackendInMemory, nil
	case "relational", "postgres", "postgresql":
		return BackendRelational, nil
	case "graph_database", "graph", "neo4j":
		return BackendGraphDatabase, nil
	default:
		return "", fmt.Errorf("unknown graph backend %q", s)
	}
}

// UnmarshalYAML accepts every name ParseBackendKind accepts.
func (k *BackendKind) UnmarshalYAML(value *yaml.Node) error {
	kind, err := ParseBackendKind(value.Value)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// DatabaseConfiguration holds the Postgres connection settings.
type DatabaseConfiguration struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Schema   string `yaml:"schema"`
	SSLMode  string `yaml:"sslmode"`
}

// Neo4jConfiguration holds the graph database connection settings.
type Neo4jConfiguration struct {
	URI            string        `yaml:"uri"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	Database       string        `yaml:"database"`
	MaxPoolSize    int           `yaml:"max_pool_size"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// Configuration is the process-wide deployment configuration.
type Configuration struct {
	Backend          BackendKind            `yaml:"backend"`
	Database         *DatabaseConfiguration `yaml:"database"`
	Neo4j            *Neo4jConfiguration    `yaml:"neo4j"`
	OperationTimeout time.Duration          `yaml:"operation_timeout"`
	LogLevel         string                 `yaml:"log_level"`
	Metrics          bool                   `yaml:"metrics"`
}

func defaultConfiguration() *Configuration {
	return &Configuration{
		Backend: BackendRelational,
		Database: &DatabaseConfiguration{
			Schema:  "public",
			SSLMode: "disable",
		},
		Neo4j: &Neo4jConfiguration{
			Database:       "neo4j",
			MaxPoolSize:    50,
			ConnectTimeout: 15 * time.Second,
		},
		OperationTimeout: DefaultOperationTimeout,
		LogLevel:         "info",
	}
}

// NewConfiguration reads the configuration from the environment.
// A .env file in the working directory is loaded first when present.
func NewConfiguration() (*Configuration, error) {
	_ = godotenv.Load()

	config := defaultConfiguration()
	if err := config.applyEnv(); err != nil {
		return nil, NewError("read environment", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfigurationFile reads a YAML configuration file; environment variables override its values.
func LoadConfigurationFile(path string) (*Configuration, error) {
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, NewError("read configuration file", err)
	}

	config := defaultConfiguration()
	if err := yaml.Unmarshal(b, config); err != nil {
		return nil, NewError("parse configuration file", err)
	}
	if config.Database == nil {
		config.Database = defaultConfiguration().Database
	}
	if config.Neo4j == nil {
		config.Neo4j = defaultConfiguration().Neo4j
	}

	if err := config.applyEnv(); err != nil {
		return nil, NewError("read environment", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks that the settings of the selected backend are complete.
func (c *Configuration) Validate() error {
	if c.OperationTimeout <= 0 {
		return NewValidationError("validate configuration", "operation timeout must be positive")
	}

	switch c.Backend {
	case BackendInMemory:
		return nil
	case BackendRelational:
		if c.Database == nil {
			return NewValidationError("validate configuration", "database settings are required for the relational backend")
		}
		return c.Database.Validate()
	case BackendGraphDatabase:
		if c.Neo4j == nil || c.Neo4j.URI == "" {
			return NewValidationError("validate configuration", "NEO4J_URI is required for the graph_database backend")
		}
		return nil
	default:
		return NewValidationError("validate configuration", fmt.Sprintf("unknown backend %q", c.Backend))
	}
}

func (c *Configuration) applyEnv() error {
	if v, ok := lookupEnv("GRAPH_BACKEND"); ok {
		kind, err := ParseBackendKind(v)
		if err != nil {
			return err
		}
		c.Backend = kind
	}

	if c.Database == nil {
		c.Database = &DatabaseConfiguration{}
	}
	c.Database.applyEnv()

	if c.Neo4j == nil {
		c.Neo4j = &Neo4jConfiguration{}
	}
	setFromEnv(&c.Neo4j.URI, "NEO4J_URI")
	setFromEnv(&c.Neo4j.Username, "NEO4J_USER")
	setFromEnv(&c.Neo4j.Password, "NEO4J_PASSWORD")
	setFromEnv(&c.Neo4j.Database, "NEO4J_DATABASE")

	if v, ok := lookupEnv("GRAPH_OPERATION_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid GRAPH_OPERATION_TIMEOUT: %w", err)
		}
		c.OperationTimeout = d
	}

	setFromEnv(&c.LogLevel, "LOG_LEVEL")

	if v, ok := lookupEnv("GRAPH_METRICS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid GRAPH_METRICS: %w", err)
		}
		c.Metrics = b
	}

	return nil
}

// NewDatabaseConfiguration reads the Postgres settings from the environment.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	_ = godotenv.Load()

	config := defaultConfiguration().Database
	config.applyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *DatabaseConfiguration) applyEnv() {
	setFromEnv(&c.Host, "GRAPH_DB_HOST")
	setFromEnv(&c.Port, "GRAPH_DB_PORT")
	setFromEnv(&c.Database, "GRAPH_DB_DATABASE")
	setFromEnv(&c.Username, "GRAPH_DB_USERNAME")
	setFromEnv(&c.Password, "GRAPH_DB_PASSWORD")
	setFromEnv(&c.Schema, "GRAPH_DB_SCHEMA")
	setFromEnv(&c.SSLMode, "GRAPH_DB_SSLMODE")
}

// Validate checks the required connection settings.
func (c *DatabaseConfiguration) Validate() error {
	missing := []string{}
	if c.Host == "" {
		missing = append(missing, "GRAPH_DB_HOST")
	}
	if c.Port == "" {
		missing = append(missing, "GRAPH_DB_PORT")
	}
	if c.Database == "" {
		missing = append(missing, "GRAPH_DB_DATABASE")
	}
	if c.Username == "" {
		missing = append(missing, "GRAPH_DB_USERNAME")
	}
	if len(missing) > 0 {
		return NewValidationError("validate database configuration", "missing "+strings.Join(missing, ", "))
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return NewValidationError("validate database configuration", "port must be numeric")
	}
	return nil
}

// DSN renders the lib/pq keyword/value connection string.
func (c *DatabaseConfiguration) DSN() string {
	schema := c.Schema
	if schema == "" {
		schema = "public"
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	parts := []string{
		dsnPair("host", c.Host),
		dsnPair("port", c.Port),
		dsnPair("dbname", c.Database),
		dsnPair("user", c.Username),
		dsnPair("password", c.Password),
		dsnPair("sslmode", sslMode),
		dsnPair("search_path", schema),
	}
	return strings.Join(parts, " ")
}

func dsnPair(key, value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `'`, `\'`)
	return key + "='" + value + "'"
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func setFromEnv(target *string, key string) {
	if v, ok := lookupEnv(key); ok {
		*target = v
	}
}
