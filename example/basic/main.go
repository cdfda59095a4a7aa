package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Gengyveusa/aether"
	"github.com/Gengyveusa/aether/helper"
	"github.com/Gengyveusa/aether/model"
)

const sampleContent = `<html><body>
<h1>Acme Coffee</h1>
<p>Founded in 2012 by Jane Roe, Acme roasts single-origin beans in small batches.</p>
</body></html>`

func main() {
	ctx := context.Background()

	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(ctx)

	config := &helper.Configuration{
		Backend: helper.BackendRelational,
		Database: &helper.DatabaseConfiguration{
			Host:     "localhost",
			Port:     dbPort,
			Database: "database",
			Username: "user",
			Password: "password",
			Schema:   "public",
			SSLMode:  "disable",
		},
		OperationTimeout: 5 * time.Second,
		LogLevel:         "info",
	}

	a, err := aether.New(ctx, config)
	if err != nil {
		log.Fatalf("Failed to create aether: %v", err)
	}
	defer a.Close()

	brand, err := a.CreateEntity(ctx, &model.Entity{
		Type:        model.EntityTypeBrand,
		Slug:        "acme-coffee",
		DisplayName: "Acme Coffee",
		ExtraData:   model.Metadata{"industry": "coffee", "founded": 2012},
	})
	if err != nil {
		log.Fatalf("Failed to create brand: %v", err)
	}

	founder, err := a.CreateEntity(ctx, &model.Entity{
		Type:        model.EntityTypePerson,
		Slug:        "jane-roe",
		DisplayName: "Jane Roe",
		ExtraData:   model.Metadata{"brandId": brand.ID.String()},
	})
	if err != nil {
		log.Fatalf("Failed to create founder: %v", err)
	}

	product, err := a.CreateEntity(ctx, &model.Entity{
		Type:        model.EntityTypeProduct,
		Slug:        "acme-house-blend",
		DisplayName: "House Blend",
		ExtraData:   model.Metadata{"brandId": brand.ID.String(), "roast": "medium"},
	})
	if err != nil {
		log.Fatalf("Failed to create product: %v", err)
	}

	if _, err := a.CreateRelationship(ctx, &model.Relationship{FromEntityID: brand.ID, ToEntityID: founder.ID, Type: model.RelationshipFoundedBy}); err != nil {
		log.Fatalf("Failed to link founder: %v", err)
	}
	if _, err := a.CreateRelationship(ctx, &model.Relationship{FromEntityID: product.ID, ToEntityID: brand.ID, Type: model.RelationshipPoweredBy}); err != nil {
		log.Fatalf("Failed to link product: %v", err)
	}

	if _, err := a.UpsertCanonicalContent(ctx, brand.ID, model.Metadata{
		"tagline": "Small batches, big flavor",
		"values":  []interface{}{"craft", "transparency"},
	}); err != nil {
		log.Fatalf("Failed to store canonical content: %v", err)
	}

	if _, err := a.CreateSourceDocument(ctx, &model.SourceDocument{
		BrandID: brand.ID,
		URL:     "https://acme-coffee.example/about",
		Content: sampleContent,
	}); err != nil {
		log.Fatalf("Failed to ingest source document: %v", err)
	}

	if _, err := a.UpsertBrandPolicy(ctx, &model.BrandPolicy{
		BrandID:          brand.ID,
		AllowedClaims:    model.Metadata{"organic": true},
		ForbiddenPhrases: []string{"best coffee in the world"},
		RegulatedTopics:  []string{"health"},
	}); err != nil {
		log.Fatalf("Failed to store brand policy: %v", err)
	}

	products, err := a.ListEntities(ctx, model.EntityFilter{Type: model.EntityTypeProduct, BrandID: &brand.ID})
	if err != nil {
		log.Fatalf("Failed to list products: %v", err)
	}
	fmt.Printf("Products of %s: %d\n", brand.DisplayName, len(products))

	neighbors, err := a.GetNeighbors(ctx, brand.ID, nil)
	if err != nil {
		log.Fatalf("Failed to get neighbors: %v", err)
	}
	for _, n := range neighbors {
		fmt.Printf("  %s -%s-> %s\n", n.FromEntity.DisplayName, n.Relationship.Type, n.ToEntity.DisplayName)
	}

	results, err := a.Expand(ctx, founder.ID, 2, nil)
	if err != nil {
		log.Fatalf("Failed to expand: %v", err)
	}
	fmt.Println("Within two hops of the founder:")
	for _, r := range results {
		fmt.Printf("  [%d] %s (%s)\n", r.Distance, r.Entity.DisplayName, r.Entity.Type)
	}

	docs, err := a.ListSourceDocuments(ctx, brand.ID, false)
	if err != nil {
		log.Fatalf("Failed to list source documents: %v", err)
	}
	for _, d := range docs {
		fmt.Printf("Source %s ingested at %s\n", d.URL, model.FormatTime(d.IngestedAt))
	}

	policy, err := a.GetBrandPolicy(ctx, brand.ID)
	if err != nil {
		log.Fatalf("Failed to get brand policy: %v", err)
	}
	fmt.Printf("Forbidden phrases: %v\n", policy.ForbiddenPhrases)
}
