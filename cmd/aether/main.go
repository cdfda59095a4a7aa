// Package main implements the aether CLI for inspecting and seeding the brand graph.
//
// Usage:
//
//	aether [--config file] [--backend kind] <command> [options]
//
// Every command prints JSON on stdout. Logs go to stderr.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Gengyveusa/aether"
	"github.com/Gengyveusa/aether/helper"
	"github.com/fatih/color"
	flag "github.com/spf13/pflag"
)

// Exit codes by error category.
const (
	ExitSuccess  = 0
	ExitConfig   = 1
	ExitDatabase = 2
	ExitInput    = 4
	ExitNotFound = 6
	ExitInternal = 10
)

var version = "dev"

// globals are the flags accepted before the command name.
type globals struct {
	configPath string
	backend    string
	logLevel   string
}

// command runs against an opened store and writes its result to stdout.
type command func(ctx context.Context, a *aether.Aether, args []string, stdout io.Writer) error

type commandSpec struct {
	name    string
	summary string
	run     command
}

var commands = []commandSpec{
	{"init", "Open the backend and create its schema", runInit},
	{"create-entity", "Create an entity", runCreateEntity},
	{"get-entity", "Print an entity by id", runGetEntity},
	{"list-entities", "List entities by type or brand", runListEntities},
	{"neighbors", "Print the relationships touching an entity", runNeighbors},
	{"expand", "Breadth-first expansion from an entity", runExpand},
	{"list-sources", "List the source documents of a brand", runListSources},
	{"get-policy", "Print the policy of a brand", runGetPolicy},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var g globals
	showVersion := false

	fs := flag.NewFlagSet("aether", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	fs.StringVar(&g.configPath, "config", "", "Path to a YAML configuration file (default: environment only)")
	fs.StringVar(&g.backend, "backend", "", "Override the backend: in_memory, relational or graph_database")
	fs.StringVar(&g.logLevel, "log-level", "", "Override the log level: debug, info, warn or error")
	fs.BoolVar(&showVersion, "version", false, "Show version and exit")
	fs.Usage = func() { usage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitInput
	}

	if showVersion {
		fmt.Fprintf(stdout, "aether version %s\n", version)
		return ExitSuccess
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return ExitInput
	}

	name := fs.Arg(0)
	var cmd command
	for _, c := range commands {
		if c.name == name {
			cmd = c.run
			break
		}
	}
	if cmd == nil {
		printError(stderr, fmt.Errorf("unknown command %q", name))
		fs.Usage()
		return ExitInput
	}

	config, err := loadConfiguration(g)
	if err != nil {
		printError(stderr, err)
		return ExitConfig
	}

	ctx := context.Background()
	logger := slog.New(helper.NewPrettyHandler(stderr, helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: helper.ParseLogLevel(config.LogLevel)},
	}))

	a, err := aether.NewWithLogger(ctx, config, logger)
	if err != nil {
		printError(stderr, err)
		if errors.Is(err, helper.ErrValidation) {
			return ExitConfig
		}
		return exitCode(err)
	}
	defer a.Close()

	if err := cmd(ctx, a, fs.Args()[1:], stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			printError(stderr, err)
		}
		return exitCode(err)
	}
	return ExitSuccess
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, "Usage:\n  aether [options] <command> [command options]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-14s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nOptions:\n")
	fs.PrintDefaults()
	fmt.Fprintf(w, "\nFor command help: aether <command> --help\n")
}

func loadConfiguration(g globals) (*helper.Configuration, error) {
	var config *helper.Configuration
	var err error
	if g.configPath != "" {
		config, err = helper.LoadConfigurationFile(g.configPath)
	} else {
		config, err = helper.NewConfiguration()
	}

	// An explicit backend may make an otherwise invalid environment usable.
	if err != nil && g.backend == "" {
		return nil, err
	}
	if config == nil {
		config = &helper.Configuration{OperationTimeout: helper.DefaultOperationTimeout, LogLevel: "info"}
	}

	if g.backend != "" {
		kind, perr := helper.ParseBackendKind(g.backend)
		if perr != nil {
			return nil, helper.NewValidationError("parse flags", perr.Error())
		}
		config.Backend = kind
	}
	if g.logLevel != "" {
		config.LogLevel = g.logLevel
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// exitCode maps an error category to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, flag.ErrHelp):
		return ExitSuccess
	case errors.Is(err, helper.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, helper.ErrValidation), errors.Is(err, helper.ErrConflict), errors.Is(err, helper.ErrNotImplemented):
		return ExitInput
	case errors.Is(err, helper.ErrBackendUnavailable):
		return ExitDatabase
	default:
		return ExitInternal
	}
}

func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprint(w, "Error: ")
	fmt.Fprintln(w, err)
	if kind := helper.KindName(err); kind != "error" {
		fmt.Fprintf(w, "%s %s\n", color.New(color.FgYellow).Sprint("Kind:"), kind)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
