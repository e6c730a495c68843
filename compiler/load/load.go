// Package load discovers historical entities in Go packages.
package load

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/syssam/entityhistory/schema"
)

var (
	// ErrNoTypes indicates the entity was loaded without type information.
	ErrNoTypes = errors.New("load: no type information")
	// ErrNotImported indicates a fully qualified type reference names a
	// package the entity's package does not import.
	ErrNotImported = errors.New("load: package not imported")
)

// Config holds the configuration for loading historical entities.
type Config struct {
	// Patterns are the package patterns to load. Defaults to "./...".
	Patterns []string
	// Dir is the directory the patterns are resolved from.
	Dir string
	// BuildFlags are passed to the go command (e.g. "-tags=history").
	BuildFlags []string
	// Logger receives the packages skipped for errors. Defaults to a
	// discarding logger.
	Logger *slog.Logger
}

// Entity is a type declaration marked with the historical directive.
type Entity struct {
	// Name is the type name.
	Name string
	// Struct reports whether the declared type is a struct type.
	Struct bool
	// PkgPath is the import path of the declaring package.
	PkgPath string
	// PkgName is the name of the declaring package.
	PkgName string
	// Dir is the directory of the declaring file.
	Dir string
	// ModulePath and ModuleDir describe the module holding the package.
	ModulePath string
	ModuleDir  string
	// Pos is the position of the type declaration.
	Pos string
	// Directives holds the raw directive comments in source order.
	Directives []string

	imports map[string]string // import name to path, of the declaring file
	pkg     *types.Package
}

// QualifiedName returns the import path qualified type name.
func (e *Entity) QualifiedName() string {
	if e.PkgPath == "" {
		return e.Name
	}
	return e.PkgPath + "." + e.Name
}

// String implements fmt.Stringer.
func (e *Entity) String() string { return e.QualifiedName() }

// Package returns the type-checked package declaring the entity, or nil.
func (e *Entity) Package() *types.Package { return e.pkg }

// Load loads the packages matching the patterns and returns their historical
// entities sorted by qualified name.
//
// A package with errors fails the load only if it declares historical
// entities. Other packages with errors, such as stale generated code, are
// logged and skipped, unless no package loaded cleanly.
func (c *Config) Load(ctx context.Context) ([]*Entity, error) {
	log := c.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	patterns := c.Patterns
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	pkgs, err := packages.Load(&packages.Config{
		Context:    ctx,
		Dir:        c.Dir,
		BuildFlags: c.BuildFlags,
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
			packages.NeedTypes | packages.NeedTypesInfo | packages.NeedImports | packages.NeedModule,
	}, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages %v: %w", patterns, err)
	}
	var (
		entities []*Entity
		errs     []error
		skipped  []error
		clean    bool
	)
	for _, pkg := range pkgs {
		found := entitiesOf(pkg)
		var perrs []error
		for _, e := range pkg.Errors {
			perrs = append(perrs, errors.New(e.Error()))
		}
		switch {
		case len(perrs) == 0:
			clean = true
			entities = append(entities, found...)
		case len(found) > 0:
			errs = append(errs, perrs...)
		default:
			skipped = append(skipped, perrs...)
			log.Warn("skipping package with errors", "package", pkg.PkgPath, "error", perrs[0], "errors", len(perrs))
		}
	}
	if !clean {
		errs = append(errs, skipped...)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("loading packages %v: %w", patterns, errors.Join(errs...))
	}
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].QualifiedName() < entities[j].QualifiedName()
	})
	return entities, nil
}

// entitiesOf returns the marked type declarations of the package.
func entitiesOf(pkg *packages.Package) []*Entity {
	var entities []*Entity
	for _, file := range pkg.Syntax {
		var imports map[string]string
		for _, decl := range file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts := spec.(*ast.TypeSpec)
				doc := ts.Doc
				if doc == nil && !gd.Lparen.IsValid() {
					doc = gd.Doc
				}
				directives := Directives(doc)
				if len(directives) == 0 {
					continue
				}
				if imports == nil {
					imports = fileImports(file, pkg.Types)
				}
				_, isStruct := ts.Type.(*ast.StructType)
				pos := pkg.Fset.Position(ts.Pos())
				e := &Entity{
					Name:       ts.Name.Name,
					Struct:     isStruct,
					PkgPath:    pkg.PkgPath,
					PkgName:    pkg.Name,
					Dir:        filepath.Dir(pos.Filename),
					Pos:        pos.String(),
					Directives: directives,
					imports:    imports,
					pkg:        pkg.Types,
				}
				if pkg.Module != nil {
					e.ModulePath, e.ModuleDir = pkg.Module.Path, pkg.Module.Dir
				}
				entities = append(entities, e)
			}
		}
	}
	return entities
}

// Directives returns the historical directive comments of a comment group.
func Directives(doc *ast.CommentGroup) []string {
	if doc == nil {
		return nil
	}
	var directives []string
	for _, c := range doc.List {
		if schema.IsDirective(c.Text) {
			directives = append(directives, c.Text)
		}
	}
	return directives
}

func fileImports(file *ast.File, pkg *types.Package) map[string]string {
	imports := make(map[string]string, len(file.Imports))
	for _, spec := range file.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		switch {
		case spec.Name != nil && (spec.Name.Name == "_" || spec.Name.Name == "."):
		case spec.Name != nil:
			imports[spec.Name.Name] = p
		default:
			name := path.Base(p)
			if imp := importedPackage(pkg, p); imp != nil {
				name = imp.Name()
			}
			imports[name] = p
		}
	}
	return imports
}

func importedPackage(pkg *types.Package, p string) *types.Package {
	if pkg == nil {
		return nil
	}
	if pkg.Path() == p {
		return pkg
	}
	for _, imp := range pkg.Imports() {
		if imp.Path() == p {
			return imp
		}
	}
	return nil
}

// LookupType resolves a type reference as written in the file declaring the
// entity: "Name" for a type of the same package, "name.Type" for a package
// imported by that file and "import/path.Type" for a fully qualified name.
//
// It returns ErrNoTypes if the entity carries no type information and
// ErrNotImported if a fully qualified package is not imported by the
// entity's package.
func (e *Entity) LookupType(ref string) (*types.TypeName, error) {
	if e.pkg == nil {
		return nil, ErrNoTypes
	}
	pkg, name := e.pkg, ref
	if i := strings.LastIndex(ref, "."); i >= 0 {
		qual := ref[:i]
		name = ref[i+1:]
		p, ok := e.imports[qual]
		if !ok {
			p = qual
		}
		if pkg = importedPackage(e.pkg, p); pkg == nil {
			if !ok && !strings.Contains(qual, "/") && !strings.Contains(qual, ".") {
				return nil, fmt.Errorf("unknown package %q in type reference %q", qual, ref)
			}
			return nil, fmt.Errorf("%w: %q", ErrNotImported, p)
		}
	}
	if !token.IsIdentifier(name) {
		return nil, fmt.Errorf("invalid type reference %q", ref)
	}
	obj := pkg.Scope().Lookup(name)
	if obj == nil {
		return nil, fmt.Errorf("type %s.%s not found", pkg.Path(), name)
	}
	tn, ok := obj.(*types.TypeName)
	if !ok {
		return nil, fmt.Errorf("%s.%s is not a type", pkg.Path(), name)
	}
	return tn, nil
}
