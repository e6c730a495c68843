// historygen generates the history entity, repository and service of every
// type marked with the //entityhistory:historical directive.
//
// Usage:
//
//	historygen [flags] [packages]
//
// It is typically run from go generate:
//
//	//go:generate go run github.com/syssam/entityhistory/cmd/historygen ./...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/syssam/entityhistory/compiler/gen"
	"github.com/syssam/entityhistory/compiler/load"
	"github.com/syssam/entityhistory/contrib/graphql"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type options struct {
	config      string
	dir         string
	target      string
	base        string
	templates   string
	registry    string
	tags        string
	graphql     string
	gqlgen      string
	skipInvalid bool
	strict      bool
	watch       bool
	verbose     bool
	patterns    []string
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("historygen", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&o.config, "config", "", "configuration file (default "+gen.DefaultConfigFile+" if present)")
	fs.StringVar(&o.dir, "dir", "", "directory the package patterns are resolved from")
	fs.StringVar(&o.target, "target", "", "default root directory of the generated sources")
	fs.StringVar(&o.base, "base", "", "default base package of the generated packages")
	fs.StringVar(&o.templates, "templates", "", "comma separated template directories searched before the embedded templates")
	fs.StringVar(&o.registry, "registry", "", "name of the registry file generated per base package")
	fs.StringVar(&o.tags, "tags", "", "comma separated build tags used to load the packages")
	fs.StringVar(&o.graphql, "graphql", "", "write the GraphQL schema of the history entities to this file")
	fs.StringVar(&o.gqlgen, "gqlgen", "", "gqlgen.yml file receiving the GraphQL model bindings (implies -graphql)")
	fs.BoolVar(&o.skipInvalid, "skip-invalid", false, "skip entities with invalid metadata instead of failing")
	fs.BoolVar(&o.strict, "strict", false, "exit with a non-zero status if any entity failed")
	fs.BoolVar(&o.watch, "watch", false, "regenerate when sources or templates change")
	fs.BoolVar(&o.verbose, "v", false, "enable debug logging")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: historygen [flags] [packages]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.patterns = fs.Args()
	if len(o.patterns) == 0 {
		o.patterns = []string{"./..."}
	}
	return o, nil
}

// genOptions returns the generator options of the configuration file
// followed by the ones of the flags.
func (o *options) genOptions(logger *slog.Logger) ([]gen.Option, error) {
	opts := []gen.Option{gen.WithLogger(logger)}
	config := o.config
	if config == "" {
		if _, err := os.Stat(gen.DefaultConfigFile); err == nil {
			config = gen.DefaultConfigFile
		}
	}
	if config != "" {
		fileOpts, err := gen.LoadConfigFile(config)
		if err != nil {
			return nil, err
		}
		logger.Debug("configuration file loaded", "file", config)
		opts = append(opts, fileOpts...)
	}
	if o.target != "" {
		opts = append(opts, gen.WithTarget(o.target))
	}
	if o.base != "" {
		opts = append(opts, gen.WithBase(o.base))
	}
	if o.templates != "" {
		opts = append(opts, gen.WithTemplateDir(strings.Split(o.templates, ",")...))
	}
	if o.registry != "" {
		opts = append(opts, gen.WithRegistry(o.registry))
	}
	if o.skipInvalid {
		opts = append(opts, gen.WithSkipInvalid())
	}
	if o.tags != "" {
		opts = append(opts, gen.WithBuildFlags("-tags="+o.tags))
	}
	if o.graphql != "" || o.gqlgen != "" {
		ex, err := o.graphqlExtension()
		if err != nil {
			return nil, err
		}
		opts = append(opts, gen.WithExtensions(ex))
	}
	return opts, nil
}

func (o *options) graphqlExtension() (*graphql.Extension, error) {
	var opts []graphql.ExtensionOption
	if o.graphql != "" {
		opts = append(opts, graphql.WithSchemaPath(o.graphql))
	}
	if o.gqlgen != "" {
		opts = append(opts, graphql.WithConfigPath(o.gqlgen), graphql.WithQueries())
	}
	return graphql.NewExtension(opts...)
}

// generate loads the packages and runs one generation round.
func generate(ctx context.Context, o *options, logger *slog.Logger) (*gen.Report, error) {
	opts, err := o.genOptions(logger)
	if err != nil {
		return nil, err
	}
	cfg, err := gen.NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	entities, err := (&load.Config{
		Patterns:   o.patterns,
		Dir:        o.dir,
		BuildFlags: cfg.BuildFlags,
		Logger:     logger,
	}).Load(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug("historical entities loaded", "count", len(entities))
	return gen.NewGenerator(cfg).Run(ctx, entities)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitUsage
	}
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	if o.watch {
		if err := watch(ctx, o, logger); err != nil {
			logger.Error("watch failed", "error", err)
			return exitFailure
		}
		return exitOK
	}
	report, err := generate(ctx, o, logger)
	if err != nil {
		logger.Error("history generation aborted", "error", err)
		return exitFailure
	}
	if o.strict && !report.OK() {
		logger.Error("history generation incomplete", "run", report.RunID, "error", report.Err())
		return exitFailure
	}
	return exitOK
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}
