package gen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"sort"

	"github.com/dave/jennifer/jen"
	"github.com/google/uuid"

	"github.com/syssam/entityhistory/compiler/load"
)

// Header is the comment placed at the top of generated files.
const Header = "Code generated by historygen. DO NOT EDIT."

// Generator runs the metadata extraction and generation of a batch of
// entities.
type Generator struct {
	cfg    *Config
	log    *slog.Logger
	writer *TemplateWriter
}

// NewGenerator returns a generator for the given configuration. A nil
// configuration selects the defaults. The configuration is not modified.
func NewGenerator(cfg *Config) *Generator {
	if cfg == nil {
		cfg = MustNewConfig()
	}
	log := cfg.Logger
	if log == nil {
		log = MustNewConfig().Logger
	}
	return &Generator{
		cfg:    cfg,
		log:    log,
		writer: NewTemplateWriter(NewTemplates(cfg.TemplateDirs...)),
	}
}

// EntityError is the failure of a single entity.
type EntityError struct {
	Entity string
	Err    error
}

// Error implements the error interface.
func (e EntityError) Error() string { return e.Entity + ": " + e.Err.Error() }

// Unwrap returns the underlying error.
func (e EntityError) Unwrap() error { return e.Err }

// Report summarizes a generation run.
type Report struct {
	// RunID identifies the run in the logs.
	RunID string
	// Generated lists the files written per entity.
	Generated []*Outcome
	// Invalid lists the entities skipped for invalid metadata.
	Invalid []EntityError
	// Failed lists the entities whose generation failed.
	Failed []EntityError
	// Registries lists the registry files written.
	Registries []string
	// Artifacts lists the files written by extensions.
	Artifacts []string
}

// Extension generates additional artifacts from the entities of a batch.
type Extension interface {
	// Name identifies the extension in logs and reports.
	Name() string
	// Generate is called once per batch with the metadata of every generated
	// entity and returns the files it wrote.
	Generate(ctx context.Context, metas []*Metadata) ([]string, error)
}

// OK reports whether every entity was generated.
func (r *Report) OK() bool { return len(r.Invalid) == 0 && len(r.Failed) == 0 }

// Err returns the joined entity errors of the report, or nil.
func (r *Report) Err() error {
	errs := make([]error, 0, len(r.Invalid)+len(r.Failed))
	for _, e := range r.Invalid {
		errs = append(errs, e)
	}
	for _, e := range r.Failed {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

// Run generates the companion files of every entity.
//
// Metadata is extracted for the whole batch before any file is written.
// Under FailFast the first invalid entity aborts the run and is returned;
// under SkipInvalid it is logged and reported. Template, render and write
// failures are logged and reported per entity and never abort the run.
func (g *Generator) Run(ctx context.Context, entities []*load.Entity) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	log := g.log.With("run", report.RunID)
	log.Debug("history generation started", "entities", len(entities), "policy", g.cfg.Policy)

	metas := make([]*Metadata, 0, len(entities))
	owners := make(map[string]string)
	for _, e := range entities {
		m, err := Extract(e, g.cfg.Defaults)
		if err == nil {
			err = claim(owners, m)
		}
		if err == nil {
			metas = append(metas, m)
			continue
		}
		log.Error("invalid historical entity", "entity", e.QualifiedName(), "pos", e.Pos, "error", err)
		if g.cfg.Policy == FailFast {
			return report, err
		}
		report.Invalid = append(report.Invalid, EntityError{Entity: e.QualifiedName(), Err: err})
	}

	var generated []*Metadata
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		log.Debug("generating history", "entity", m.SourceEntityQualifiedName)
		outcome, err := g.writer.Generate(ctx, m)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			log.Error("history generation failed", "entity", m.SourceEntityQualifiedName, "error", err)
			report.Failed = append(report.Failed, EntityError{Entity: m.SourceEntityQualifiedName, Err: err})
			continue
		}
		log.Debug("history generated", "entity", m.SourceEntityQualifiedName, "files", outcome.Files)
		report.Generated = append(report.Generated, outcome)
		generated = append(generated, m)
	}

	if g.cfg.Registry != "" {
		g.registries(log, report, generated)
	}
	for _, ext := range g.cfg.Extensions {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		files, err := ext.Generate(ctx, generated)
		if err != nil {
			log.Error("extension failed", "extension", ext.Name(), "error", err)
			report.Failed = append(report.Failed, EntityError{Entity: ext.Name(), Err: err})
			continue
		}
		log.Debug("extension generated", "extension", ext.Name(), "files", files)
		report.Artifacts = append(report.Artifacts, files...)
	}
	log.Info("history generation finished",
		"generated", len(report.Generated),
		"invalid", len(report.Invalid),
		"failed", len(report.Failed),
	)
	return report, nil
}

// claim records the output files of m, failing if another entity of the
// batch already writes one of them.
func claim(owners map[string]string, m *Metadata) error {
	files := []string{m.EntityFile(), m.DaoFile(), m.ServiceFile()}
	for _, f := range files {
		if owner, ok := owners[f]; ok {
			return NewMetadataError(m.SourceEntityQualifiedName, "", "output file "+f+" is already generated for "+owner, nil)
		}
	}
	for _, f := range files {
		owners[f] = m.SourceEntityQualifiedName
	}
	return nil
}

// registries writes one registry file per (target, base) pair.
func (g *Generator) registries(log *slog.Logger, report *Report, metas []*Metadata) {
	type key struct{ target, base string }
	groups := make(map[key][]*Metadata)
	var keys []key
	for _, m := range metas {
		k := key{m.TargetPath, m.BaseDir()}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], m)
	}
	for _, k := range keys {
		name := filepath.Join(k.target, filepath.FromSlash(k.base), g.cfg.Registry)
		if err := writeRegistry(name, path.Base(k.base), groups[k]); err != nil {
			log.Error("registry generation failed", "file", name, "error", err)
			report.Failed = append(report.Failed, EntityError{Entity: name, Err: err})
			continue
		}
		log.Debug("registry generated", "file", name, "entities", len(groups[k]))
		report.Registries = append(report.Registries, name)
	}
}

// writeRegistry writes the descriptors of metas as a Go file of package pkg.
func writeRegistry(name, pkg string, metas []*Metadata) error {
	metas = append([]*Metadata(nil), metas...)
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].SourceEntityQualifiedName < metas[j].SourceEntityQualifiedName
	})
	f := jen.NewFile(pkg)
	f.HeaderComment(Header)
	f.Comment("Descriptors describes the historical entities generated under this package.")
	f.Var().Id("Descriptors").Op("=").Index().Qual("github.com/syssam/entityhistory", "Descriptor").CustomFunc(jen.Options{
		Open:      "{",
		Close:     "}",
		Separator: ",",
		Multi:     true,
	}, func(grp *jen.Group) {
		for _, m := range metas {
			grp.Values(jen.Dict{
				jen.Id("Source"):    jen.Lit(m.SourceEntityQualifiedName),
				jen.Id("Entity"):    jen.Lit(m.EntityImportPath() + "." + m.EntityTypeName()),
				jen.Id("Table"):     jen.Lit(m.TableName()),
				jen.Id("Column"):    jen.Lit(m.StateColumnDefinition),
				jen.Id("Converter"): jen.Lit(m.StateAttributeConverterTypeName),
			})
		}
	})
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return NewGenerationError(PhaseRegistry, name, "render registry", err)
	}
	if err := writeFile(name, buf.Bytes()); err != nil {
		return NewGenerationError(PhaseRegistry, name, fmt.Sprintf("write registry of %d entities", len(metas)), err)
	}
	return nil
}
