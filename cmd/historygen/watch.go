package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/entityhistory/compiler/gen"
)

// debounce is the quiet period after the last change before regenerating.
var debounce = 300 * time.Millisecond

// watch runs a generation round, then runs a new one every time a source,
// template or configuration file changes, until ctx is done.
func watch(ctx context.Context, o *options, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	root := o.dir
	if root == "" {
		root = "."
	}
	if err := addDirs(w, root); err != nil {
		return err
	}

	var (
		mu      sync.Mutex
		outputs map[string]bool
	)
	regenerate := func(ctx context.Context) {
		report, err := generate(ctx, o, logger)
		if err != nil {
			logger.Error("history generation aborted", "error", err)
			return
		}
		mu.Lock()
		outputs = generatedFiles(report)
		mu.Unlock()
	}
	regenerate(ctx)
	logger.Info("watching for changes", "dir", root)

	trigger := make(chan struct{}, 1)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if ev.Has(fsnotify.Create) {
					if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() && !skipDir(ev.Name) {
						if err := addDirs(w, ev.Name); err != nil {
							logger.Warn("watch directory", "dir", ev.Name, "error", err)
						}
						continue
					}
				}
				mu.Lock()
				own := outputs[absPath(ev.Name)]
				mu.Unlock()
				if own || !relevant(ev) {
					continue
				}
				logger.Debug("change detected", "file", ev.Name, "op", ev.Op.String())
				select {
				case trigger <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				logger.Warn("watch error", "error", err)
			}
		}
	})
	g.Go(func() error {
		timer := time.NewTimer(debounce)
		timer.Stop()
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-trigger:
				timer.Reset(debounce)
			case <-timer.C:
				regenerate(ctx)
			}
		}
	})
	return g.Wait()
}

// addDirs adds root and its sub-directories to the watcher.
func addDirs(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && skipDir(p) {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}

func skipDir(p string) bool {
	name := filepath.Base(p)
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata" || name == "node_modules"
}

// relevant reports whether the event may change the generated output.
func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	switch filepath.Ext(ev.Name) {
	case ".go", ".tmpl":
		return true
	}
	return filepath.Base(ev.Name) == gen.DefaultConfigFile
}

func generatedFiles(report *gen.Report) map[string]bool {
	files := make(map[string]bool)
	for _, o := range report.Generated {
		for _, f := range o.Files {
			files[absPath(f)] = true
		}
	}
	for _, f := range report.Registries {
		files[absPath(f)] = true
	}
	return files
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
