package gen

import (
	"errors"
	"go/token"
	"go/types"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"

	"github.com/syssam/entityhistory/compiler/load"
	"github.com/syssam/entityhistory/schema"
)

// Generated sub-packages under the base package.
const (
	EntitySubPackage  = "model"
	DaoSubPackage     = "dao"
	ServiceSubPackage = "service"
)

// Type name suffixes of the generated types.
const (
	EntitySuffix  = "History"
	DaoSuffix     = "Repository"
	ServiceSuffix = "Service"
)

// DefaultStateType is the state type of the map converters.
const DefaultStateType = "map[string]any"

// SourceInfo describes the source entity of a Metadata.
type SourceInfo struct {
	// Package is the import path of the source package.
	Package string
	// PackageName is the name of the source package.
	PackageName string
	// Name is the simple type name.
	Name string
	// ModulePath is the import path of the target directory, if known.
	ModulePath string
	// ConverterPackageName is the name the converter package is imported
	// as, if known.
	ConverterPackageName string
	// StateTypeImports are the imports needed by the state type.
	StateTypeImports []Import
}

// Import is a package imported by generated code under Alias.
type Import struct {
	Path  string
	Alias string
}

// String returns the import spec, e.g. conv "example.com/conv".
func (i Import) String() string { return i.Alias + " " + strconv.Quote(i.Path) }

// Metadata is the resolved description of one historical entity. It is
// immutable once built and is the only value bound to the templates besides
// the "#" helper.
type Metadata struct {
	TargetPath                      string
	EntityTemplatePath              string
	DaoTemplatePath                 string
	ServiceTemplatePath             string
	BasePackageName                 string
	SourcePackage                   string
	SourcePackageName               string
	SourceEntityQualifiedName       string
	SourceEntitySimpleName          string
	StateAttributeConverterTypeName string
	ConverterPackageName            string
	StateColumnDefinition           string
	StateType                       string
	StateTypeImports                []Import
	ModulePath                      string
}

// NewMetadata builds the metadata of an entity from its annotation. Unset
// annotation fields take their default value. The converter must be either
// an unqualified type of the source package or an import path qualified name.
func NewMetadata(ann schema.Historical, src SourceInfo) (*Metadata, error) {
	qualified := src.Name
	if src.Package != "" {
		qualified = src.Package + "." + src.Name
	}
	if !token.IsIdentifier(src.Name) {
		return nil, NewMetadataError(qualified, "", "source entity name is not a valid identifier", nil)
	}
	ann = schema.Defaults().Merge(ann)
	conv, err := canonicalConverter(ann.StateAttributeConverter, src.Package)
	if err != nil {
		return nil, NewMetadataError(qualified, "converter", "", err)
	}
	if ann.StateColumnDefinition == "" {
		ann.StateColumnDefinition = schema.DefaultColumn(conv)
	}
	for _, f := range []struct{ key, v string }{
		{"target", ann.TargetPath},
		{"base", ann.BasePackageName},
		{"column", ann.StateColumnDefinition},
		{"entity-template", ann.EntityTemplatePath},
		{"dao-template", ann.DaoTemplatePath},
		{"service-template", ann.ServiceTemplatePath},
	} {
		if strings.TrimSpace(f.v) == "" {
			return nil, NewMetadataError(qualified, f.key, "value cannot be blank", nil)
		}
	}
	base := strings.Trim(baseDir(ann.BasePackageName), "/")
	if base == "" || slices.ContainsFunc(strings.Split(base, "/"), func(s string) bool {
		return s == "" || s == "." || s == ".." || !token.IsIdentifier(s)
	}) {
		return nil, NewMetadataError(qualified, "base", "invalid base package "+ann.BasePackageName, nil)
	}
	m := &Metadata{
		TargetPath:                      ann.TargetPath,
		EntityTemplatePath:              ann.EntityTemplatePath,
		DaoTemplatePath:                 ann.DaoTemplatePath,
		ServiceTemplatePath:             ann.ServiceTemplatePath,
		BasePackageName:                 ann.BasePackageName,
		SourcePackage:                   src.Package,
		SourcePackageName:               src.PackageName,
		SourceEntityQualifiedName:       qualified,
		SourceEntitySimpleName:          src.Name,
		StateAttributeConverterTypeName: conv,
		ConverterPackageName:            src.ConverterPackageName,
		StateColumnDefinition:           ann.StateColumnDefinition,
		StateType:                       ann.StateType,
		ModulePath:                      src.ModulePath,
	}
	if m.ConverterPackageName == "" {
		names := newImportNamer(src.Name)
		for _, imp := range src.StateTypeImports {
			names.reserve(imp)
		}
		m.ConverterPackageName = names.name(m.ConverterPackage(), path.Base(m.ConverterPackage()))
	}
	if m.StateType == "" {
		m.StateType = DefaultStateType
	}
	m.StateTypeImports = sortImports(src.StateTypeImports)
	return m, nil
}

// sortImports returns the imports sorted by path, without duplicates and
// without the packages every template imports.
func sortImports(imports []Import) []Import {
	out := slices.DeleteFunc(slices.Clone(imports), func(imp Import) bool {
		return templateImports[imp.Path] != ""
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return slices.CompactFunc(out, func(a, b Import) bool { return a.Path == b.Path })
}

// templateImports are the packages imported by every template, by name.
var templateImports = map[string]string{"time": "time"}

// reservedNames are the identifiers the templates import or declare, which
// an imported package must not be named after.
var reservedNames = []string{
	"context", "time", "migrate", "sql", "entityhistory",
	EntitySubPackage, DaoSubPackage, ServiceSubPackage,
	"createdAt", "ctx", "drv", "err", "h", "hs", "id", "now", "opts", "out",
	"r", "repo", "retention", "s", "since", "state", "store", "t", "until",
}

// importNamer assigns every imported package of an entity's generated files
// a name that collides with no other import or declaration.
type importNamer struct {
	names map[string]string // path to alias
	used  map[string]bool
}

func newImportNamer(entity string) *importNamer {
	n := &importNamer{names: make(map[string]string), used: make(map[string]bool)}
	for _, s := range reservedNames {
		n.used[s] = true
	}
	typ := entity + EntitySuffix
	for _, s := range []string{typ, typ + DaoSuffix, typ + ServiceSuffix} {
		n.used[s], n.used["New"+s] = true, true
	}
	n.used[typ+"Table"], n.used[typ+"Column"] = true, true
	for p, name := range templateImports {
		n.names[p] = name
	}
	return n
}

// reserve records an alias assigned elsewhere.
func (n *importNamer) reserve(imp Import) {
	n.names[imp.Path], n.used[imp.Alias] = imp.Alias, true
}

// name returns the alias of the package at pkgPath, deriving it from pkgName
// on first use.
func (n *importNamer) name(pkgPath, pkgName string) string {
	if alias, ok := n.names[pkgPath]; ok {
		return alias
	}
	base := identifier(pkgName)
	alias := base
	for i := 2; n.used[alias] || token.IsKeyword(alias) || types.Universe.Lookup(alias) != nil; i++ {
		alias = base + strconv.Itoa(i)
	}
	n.reserve(Import{Path: pkgPath, Alias: alias})
	return alias
}

// identifier strips the characters of name that cannot appear in a Go
// identifier, e.g. "yaml.v3" becomes "yamlv3".
func identifier(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) && b.Len() > 0 {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "pkg"
	}
	return b.String()
}

// canonicalConverter returns the import path qualified converter name.
func canonicalConverter(ref, pkg string) (string, error) {
	i := strings.LastIndex(ref, ".")
	if i < 0 {
		if !token.IsIdentifier(ref) {
			return "", errors.New("invalid converter type " + ref)
		}
		if pkg == "" {
			return "", errors.New("unqualified converter " + ref + " without a source package")
		}
		return pkg + "." + ref, nil
	}
	if !token.IsIdentifier(ref[i+1:]) {
		return "", errors.New("invalid converter type " + ref)
	}
	if !strings.Contains(ref[:i], "/") && !strings.Contains(ref[:i], ".") {
		return "", errors.New("cannot resolve package alias of " + ref + " without type information")
	}
	return ref, nil
}

// Extract builds the metadata of a loaded entity. The entity directives are
// merged over defaults and the converter is resolved in the scope of the
// file declaring the entity.
func Extract(e *load.Entity, defaults schema.Historical) (*Metadata, error) {
	name := e.QualifiedName()
	if !e.Struct {
		return nil, NewMetadataError(name, "", "historical entity must be a struct type", nil)
	}
	ann, err := schema.ParseDirectives(e.Directives)
	if err != nil {
		return nil, NewMetadataError(name, "", "", err)
	}
	ann = schema.Defaults().Merge(defaults).Merge(ann)
	src := SourceInfo{
		Package:     e.PkgPath,
		PackageName: e.PkgName,
		Name:        e.Name,
		ModulePath:  targetImportPath(ann.TargetPath, e.ModulePath, e.ModuleDir),
	}
	tn, err := e.LookupType(ann.StateAttributeConverter)
	switch {
	case errors.Is(err, load.ErrNotImported), errors.Is(err, load.ErrNoTypes):
		// Accepted verbatim.
	case err != nil:
		return nil, NewMetadataError(name, "converter", "", err)
	default:
		if tn.Pkg() == nil {
			return nil, NewMetadataError(name, "converter", "predeclared type "+tn.Name()+" is not a converter", nil)
		}
		names := newImportNamer(e.Name)
		ann.StateAttributeConverter = tn.Pkg().Path() + "." + tn.Name()
		src.ConverterPackageName = names.name(tn.Pkg().Path(), tn.Pkg().Name())
		state, imports, err := stateType(tn, names)
		if err != nil {
			return nil, NewMetadataError(name, "converter", "", err)
		}
		if ann.StateType == "" {
			ann.StateType = state
			src.StateTypeImports = imports
		}
	}
	return NewMetadata(ann, src)
}

// stateType returns the state type of a converter, as the first result of
// its FromColumn method, along with the imports it needs. Packages are
// qualified by the aliases of names.
func stateType(tn *types.TypeName, names *importNamer) (string, []Import, error) {
	if named, ok := tn.Type().(*types.Named); ok && named.TypeParams().Len() > 0 {
		return "", nil, errors.New("generic converter " + tn.Name() + " must be instantiated by a named type")
	}
	obj, _, _ := types.LookupFieldOrMethod(types.NewPointer(tn.Type()), true, tn.Pkg(), "FromColumn")
	fn, ok := obj.(*types.Func)
	if !ok {
		return "", nil, errors.New(tn.Name() + " has no FromColumn method")
	}
	sig := fn.Type().(*types.Signature)
	if sig.Params().Len() != 1 || sig.Results().Len() != 2 {
		return "", nil, errors.New(tn.Name() + ".FromColumn must have the signature func(any) (S, error)")
	}
	if _, ok := tn.Type().Underlying().(*types.Struct); !ok {
		return "", nil, errors.New(tn.Name() + " must be a struct type")
	}
	var imports []Import
	s := types.TypeString(sig.Results().At(0).Type(), func(p *types.Package) string {
		imp := Import{Path: p.Path(), Alias: names.name(p.Path(), p.Name())}
		imports = append(imports, imp)
		return imp.Alias
	})
	if s == "map[string]interface{}" {
		s = DefaultStateType
	}
	return s, imports, nil
}

// targetImportPath returns the import path of the target directory when it
// lies inside the module.
func targetImportPath(target, modPath, modDir string) string {
	if modPath == "" || modDir == "" {
		return ""
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(modDir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return path.Join(modPath, filepath.ToSlash(rel))
}

// baseDir maps a dotted base package ("com.example") to a directory.
func baseDir(base string) string {
	if strings.Contains(base, "/") {
		return base
	}
	return strings.ReplaceAll(base, ".", "/")
}

// BaseDir returns the directory of the base package relative to TargetPath.
func (m *Metadata) BaseDir() string { return strings.Trim(baseDir(m.BasePackageName), "/") }

// EntityPackageName returns the directory of the entity package.
func (m *Metadata) EntityPackageName() string { return path.Join(m.BaseDir(), EntitySubPackage) }

// DaoPackageName returns the directory of the repository package.
func (m *Metadata) DaoPackageName() string { return path.Join(m.BaseDir(), DaoSubPackage) }

// ServicePackageName returns the directory of the service package.
func (m *Metadata) ServicePackageName() string { return path.Join(m.BaseDir(), ServiceSubPackage) }

// EntityPackage returns the name of the entity package.
func (m *Metadata) EntityPackage() string { return EntitySubPackage }

// DaoPackage returns the name of the repository package.
func (m *Metadata) DaoPackage() string { return DaoSubPackage }

// ServicePackage returns the name of the service package.
func (m *Metadata) ServicePackage() string { return ServiceSubPackage }

func (m *Metadata) importPath(dir string) string {
	if m.ModulePath == "" {
		return dir
	}
	return path.Join(m.ModulePath, dir)
}

// EntityImportPath returns the import path of the entity package.
func (m *Metadata) EntityImportPath() string { return m.importPath(m.EntityPackageName()) }

// DaoImportPath returns the import path of the repository package.
func (m *Metadata) DaoImportPath() string { return m.importPath(m.DaoPackageName()) }

// ServiceImportPath returns the import path of the service package.
func (m *Metadata) ServiceImportPath() string { return m.importPath(m.ServicePackageName()) }

// EntityTypeName returns the name of the history entity type.
func (m *Metadata) EntityTypeName() string { return m.SourceEntitySimpleName + EntitySuffix }

// DaoTypeName returns the name of the repository type.
func (m *Metadata) DaoTypeName() string { return m.EntityTypeName() + DaoSuffix }

// ServiceTypeName returns the name of the service type.
func (m *Metadata) ServiceTypeName() string { return m.EntityTypeName() + ServiceSuffix }

// TableName returns the history table name.
func (m *Metadata) TableName() string { return inflect.Pluralize(inflect.Underscore(m.EntityTypeName())) }

// ConverterPackage returns the import path of the converter.
func (m *Metadata) ConverterPackage() string {
	if i := strings.LastIndex(m.StateAttributeConverterTypeName, "."); i >= 0 {
		return m.StateAttributeConverterTypeName[:i]
	}
	return ""
}

// ConverterName returns the type name of the converter.
func (m *Metadata) ConverterName() string {
	return m.StateAttributeConverterTypeName[strings.LastIndex(m.StateAttributeConverterTypeName, ".")+1:]
}

// ConverterRef returns the converter type as referenced from generated code.
func (m *Metadata) ConverterRef() string { return m.ConverterPackageName + "." + m.ConverterName() }

// ConverterImports returns the sorted imports needed by the converter and
// the state type.
func (m *Metadata) ConverterImports() []Import {
	return sortImports(append(slices.Clone(m.StateTypeImports), Import{Path: m.ConverterPackage(), Alias: m.ConverterPackageName}))
}

func (m *Metadata) file(dir, typeName string) string {
	return filepath.Join(m.TargetPath, filepath.FromSlash(dir), inflect.Underscore(typeName)+".go")
}

// EntityFile returns the output path of the history entity.
func (m *Metadata) EntityFile() string { return m.file(m.EntityPackageName(), m.EntityTypeName()) }

// DaoFile returns the output path of the repository.
func (m *Metadata) DaoFile() string { return m.file(m.DaoPackageName(), m.DaoTypeName()) }

// ServiceFile returns the output path of the service.
func (m *Metadata) ServiceFile() string { return m.file(m.ServicePackageName(), m.ServiceTypeName()) }
