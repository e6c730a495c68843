package gen

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"text/template"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FilePrefix marks a template identifier as an OS file path.
const FilePrefix = "file:"

var (
	//go:embed templates
	templateDir embed.FS

	// Funcs are the functions available to the templates.
	Funcs = template.FuncMap{
		"snake":      inflect.Underscore,
		"camel":      inflect.CamelizeDownFirst,
		"plural":     inflect.Pluralize,
		"singular":   inflect.Singularize,
		"title":      title,
		"lowerFirst": lowerFirst,
		"quote":      strconv.Quote,
		"base":       path.Base,
		"join":       strings.Join,
	}
)

func title(s string) string {
	return cases.Title(language.English, cases.NoLower).String(s)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// Templates resolves and parses templates by identifier. An identifier is
// looked up, in order, as an OS path when it has the "file:" prefix, in the
// configured template directories and in the embedded templates. Parsed
// templates are cached and never modified afterwards.
type Templates struct {
	dirs []string

	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewTemplates returns a template loader searching dirs before the embedded
// templates.
func NewTemplates(dirs ...string) *Templates {
	return &Templates{dirs: dirs}
}

// Lookup returns the parsed template with the given identifier.
func (t *Templates) Lookup(id string) (*template.Template, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tmpl, ok := t.cache[id]; ok {
		return tmpl, nil
	}
	b, err := t.read(id)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(id).Funcs(Funcs).Option("missingkey=error").Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("parse template %q: %w", id, err)
	}
	if t.cache == nil {
		t.cache = make(map[string]*template.Template)
	}
	t.cache[id] = tmpl
	return tmpl, nil
}

func (t *Templates) read(id string) ([]byte, error) {
	if name, ok := strings.CutPrefix(id, FilePrefix); ok {
		b, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read template %q: %w", id, err)
		}
		return b, nil
	}
	if id == "" || !fs.ValidPath(id) {
		return nil, fmt.Errorf("template %q: invalid identifier: %w", id, fs.ErrInvalid)
	}
	for _, dir := range t.dirs {
		b, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(id)))
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read template %q: %w", id, err)
		}
	}
	b, err := fs.ReadFile(templateDir, path.Join("templates", id))
	if err != nil {
		return nil, fmt.Errorf("template %q not found: %w", id, fs.ErrNotExist)
	}
	return b, nil
}

// Embedded returns the identifiers of the embedded templates.
func Embedded() ([]string, error) {
	var ids []string
	err := fs.WalkDir(templateDir, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ids = append(ids, strings.TrimPrefix(p, "templates/"))
		return nil
	})
	return ids, err
}
