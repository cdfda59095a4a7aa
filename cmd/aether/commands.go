package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Gengyveusa/aether"
	"github.com/Gengyveusa/aether/helper"
	"github.com/Gengyveusa/aether/model"
	"github.com/google/uuid"
	flag "github.com/spf13/pflag"
)

// newFlagSet builds a command flag set with a usage line naming its positional arguments.
func newFlagSet(name, positional string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: aether %s %s\n\nOptions:\n", name, positional)
		fs.PrintDefaults()
	}
	return fs
}

func parseFlags(fs *flag.FlagSet, name string, args []string, positional int) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return err
		}
		return helper.NewValidationError("parse flags", err.Error())
	}
	if fs.NArg() != positional {
		fs.Usage()
		return helper.NewValidationError("parse flags", fmt.Sprintf("%s expects %d argument(s), got %d", name, positional, fs.NArg()))
	}
	return nil
}

func runInit(ctx context.Context, a *aether.Aether, args []string, stdout io.Writer) error {
	fs := newFlagSet("init", "")
	if err := parseFlags(fs, "init", args, 0); err != nil {
		return err
	}
	return writeJSON(stdout, map[string]string{
		"backend": string(a.Kind),
		"status":  "ready",
	})
}

func runCreateEntity(ctx context.Context, a *aether.Aether, args []string, stdout io.Writer) error {
	fs := newFlagSet("create-entity", "")
	entityType := fs.String("type", "", "Entity type, e.g. brand, person, product")
	slug := fs.String("slug", "", "Unique slug")
	name := fs.String("name", "", "Display name")
	description := fs.String("description", "", "Description")
	extra := fs.String("extra", "", "Type-specific fields as a JSON object")
	if err := parseFlags(fs, "create-entity", args, 0); err != nil {
		return err
	}

	extraData := model.Metadata{}
	if *extra != "" {
		if err := json.Unmarshal([]byte(*extra), &extraData); err != nil {
			return helper.NewValidationError("parse flags", "--extra must be a JSON object: "+err.Error())
		}
	}

	entity, err := a.CreateEntity(ctx, &model.Entity{
		Type:        *entityType,
		Slug:        *slug,
		DisplayName: *name,
		Description: *description,
		ExtraData:   extraData,
	})
	if err != nil {
		return err
	}
	return writeJSON(stdout, entity)
}

func runGetEntity(ctx context.Context, a *aether.Aether, args []string, stdout io.Writer) error {
	fs := newFlagSet("get-entity", "<id>")
	if err := parseFlags(fs, "get-entity", args, 1); err != nil {
		return err
	}
	id, err := model.ParseID(fs.Arg(0))
	if err != nil {
		return err
	}

	entity, err := a.GetEntity(ctx, id)
	if err != nil {
		return err
	}
	return writeJSON(stdout, entity)
}

func runListEntities(ctx context.Context, a *aether.Aether, args []string, stdout io.Writer) error {
	fs := newFlagSet("list-entities", "")
	entityType := fs.String("type", "", "Only entities of this type")
	brand := fs.String("brand", "", "Only entities whose brandId is this id")
	limit := fs.Int("limit", model.DefaultListLimit, "Maximum number of entities")
	offset := fs.Int("offset", 0, "Number of entities to skip")
	if err := parseFlags(fs, "list-entities", args, 0); err != nil {
		return err
	}

	filter := model.EntityFilter{Type: *entityType, Limit: *limit, Offset: *offset}
	if *brand != "" {
		brandID, err := model.ParseID(*brand)
		if err != nil {
			return err
		}
		filter.BrandID = &brandID
	}

	entities, err := a.ListEntities(ctx, filter)
	if err != nil {
		return err
	}
	return writeJSON(stdout, entities)
}

func runNeighbors(ctx context.Context, a *aether.Aether, args []string, stdout io.Writer) error {
	fs := newFlagSet("neighbors", "<id>")
	types := fs.StringSlice("type", nil, "Relationship types to follow (repeatable)")
	if err := parseFlags(fs, "neighbors", args, 1); err != nil {
		return err
	}
	id, err := model.ParseID(fs.Arg(0))
	if err != nil {
		return err
	}

	neighbors, err := a.GetNeighbors(ctx, id, *types)
	if err != nil {
		return err
	}
	return writeJSON(stdout, neighbors)
}

type expandResult struct {
	Entity   *model.Entity       `json:"entity"`
	Distance int                 `json:"distance"`
	Path     []uuid.UUID         `json:"path"`
	Via      *model.Relationship `json:"via,omitempty"`
}

func runExpand(ctx context.Context, a *aether.Aether, args []string, stdout io.Writer) error {
	fs := newFlagSet("expand", "<id>")
	hops := fs.Int("hops", 2, "Maximum distance from the entity")
	types := fs.StringSlice("type", nil, "Relationship types to follow (repeatable)")
	if err := parseFlags(fs, "expand", args, 1); err != nil {
		return err
	}
	if *hops < 0 {
		return helper.NewValidationError("parse flags", "--hops must not be negative")
	}
	id, err := model.ParseID(fs.Arg(0))
	if err != nil {
		return err
	}

	results, err := a.Expand(ctx, id, *hops, *types)
	if err != nil {
		return err
	}

	out := make([]expandResult, 0, len(results))
	for _, r := range results {
		out = append(out, expandResult{Entity: r.Entity, Distance: r.Distance, Path: r.Path, Via: r.Via})
	}
	return writeJSON(stdout, out)
}

func runListSources(ctx context.Context, a *aether.Aether, args []string, stdout io.Writer) error {
	fs := newFlagSet("list-sources", "<brandId>")
	content := fs.Bool("content", false, "Include the raw document content")
	if err := parseFlags(fs, "list-sources", args, 1); err != nil {
		return err
	}
	brandID, err := model.ParseID(fs.Arg(0))
	if err != nil {
		return err
	}

	docs, err := a.ListSourceDocuments(ctx, brandID, *content)
	if err != nil {
		return err
	}
	return writeJSON(stdout, docs)
}

func runGetPolicy(ctx context.Context, a *aether.Aether, args []string, stdout io.Writer) error {
	fs := newFlagSet("get-policy", "<brandId>")
	if err := parseFlags(fs, "get-policy", args, 1); err != nil {
		return err
	}
	brandID, err := model.ParseID(fs.Arg(0))
	if err != nil {
		return err
	}

	policy, err := a.GetBrandPolicy(ctx, brandID)
	if err != nil {
		return err
	}
	return writeJSON(stdout, policy)
}
