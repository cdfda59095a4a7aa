package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed entities.sql
var entitiesSQL string

//go:embed relationships.sql
var relationshipsSQL string

//go:embed canonical_content.sql
var canonicalContentSQL string

//go:embed source_documents.sql
var sourceDocumentsSQL string

//go:embed brand_policies.sql
var brandPoliciesSQL string

// Function lists for verification
var EntitiesFunctions = []string{
	"init_entities",
	"insert_entity",
	"update_entity",
	"select_entity",
	"select_entities",
}

var RelationshipsFunctions = []string{
	"init_relationships",
	"insert_relationship",
	"select_relationships",
	"select_neighbors",
}

var CanonicalContentFunctions = []string{
	"init_canonical_content",
	"upsert_canonical_content",
	"select_canonical_content",
}

var SourceDocumentsFunctions = []string{
	"init_source_documents",
	"upsert_source_document",
	"select_source_documents",
}

var BrandPoliciesFunctions = []string{
	"init_brand_policies",
	"upsert_brand_policy",
	"select_brand_policy",
}

// Init initializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadEntitiesSql loads entity-related SQL functions
func LoadEntitiesSql(db *sql.DB, force bool) error {
	return loadSql(db, "entities", entitiesSQL, EntitiesFunctions, force)
}

// LoadRelationshipsSql loads relationship-related SQL functions, including the neighbor join
func LoadRelationshipsSql(db *sql.DB, force bool) error {
	return loadSql(db, "relationships", relationshipsSQL, RelationshipsFunctions, force)
}

// LoadCanonicalContentSql loads canonical content SQL functions
func LoadCanonicalContentSql(db *sql.DB, force bool) error {
	return loadSql(db, "canonical content", canonicalContentSQL, CanonicalContentFunctions, force)
}

// LoadSourceDocumentsSql loads source document SQL functions
func LoadSourceDocumentsSql(db *sql.DB, force bool) error {
	return loadSql(db, "source documents", sourceDocumentsSQL, SourceDocumentsFunctions, force)
}

// LoadBrandPoliciesSql loads brand policy SQL functions
func LoadBrandPoliciesSql(db *sql.DB, force bool) error {
	return loadSql(db, "brand policies", brandPoliciesSQL, BrandPoliciesFunctions, force)
}

// LoadAllSql loads all SQL functions. Entities come first, every other table references them.
func LoadAllSql(db *sql.DB, force bool) error {
	loaders := []func(*sql.DB, bool) error{
		LoadEntitiesSql,
		LoadRelationshipsSql,
		LoadCanonicalContentSql,
		LoadSourceDocumentsSql,
		LoadBrandPoliciesSql,
	}
	for _, load := range loaders {
		if err := load(db, force); err != nil {
			return err
		}
	}
	return nil
}

func loadSql(db *sql.DB, name string, sqlText string, sqlFunctions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, sqlFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(sqlText)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, sqlFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
