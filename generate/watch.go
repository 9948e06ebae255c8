package generate

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/randalmurphal/scriptkit/config"
)

// Watch timing.
const (
	DebounceInterval = 100 * time.Millisecond
	PollInterval     = 500 * time.Millisecond
)

// EventFunc receives the outcome of each generation run.
type EventFunc func(results []Result, err error)

// Watch generates once, then again whenever the config file or a template
// changes, until ctx is cancelled. A changed config is reloaded from disk
// and the template registry is rebuilt on every run. It uses fsnotify when
// available and falls back to polling otherwise.
func (g *Generator) Watch(ctx context.Context, onEvent EventFunc) error {
	if onEvent == nil {
		onEvent = func([]Result, error) {}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		g.logger.Warn("file watching unavailable, polling instead", slog.Any("error", err))
		onEvent(g.Generate(ctx))
		return g.watchPolling(ctx, onEvent)
	}
	defer watcher.Close()

	for _, dir := range g.watchDirs() {
		if err := watcher.Add(dir); err != nil {
			g.logger.Warn("cannot watch directory, polling instead",
				slog.String("dir", dir),
				slog.Any("error", err))
			onEvent(g.Generate(ctx))
			return g.watchPolling(ctx, onEvent)
		}
	}

	onEvent(g.Generate(ctx))
	return g.watchEvents(ctx, watcher, onEvent)
}

// watchEvents regenerates after a quiet period following relevant events.
func (g *Generator) watchEvents(ctx context.Context, watcher *fsnotify.Watcher, onEvent EventFunc) error {
	timer := time.NewTimer(DebounceInterval)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !g.relevant(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
			g.logger.Debug("change detected",
				slog.String("path", event.Name),
				slog.String("op", event.Op.String()))
			timer.Reset(DebounceInterval)

		case <-timer.C:
			onEvent(g.rerun(ctx))
			// template_dirs may have changed with the config.
			for _, dir := range g.watchDirs() {
				_ = watcher.Add(dir)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Log but continue - usually recoverable
			g.logger.Warn("watch error", slog.Any("error", err))
		}
	}
}

// watchPolling regenerates when the fingerprint of watched files changes.
func (g *Generator) watchPolling(ctx context.Context, onEvent EventFunc) error {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	last := g.fingerprint()
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			current := g.fingerprint()
			if current == last {
				continue
			}
			last = current
			onEvent(g.rerun(ctx))
		}
	}
}

// rerun reloads the config and templates, then generates.
func (g *Generator) rerun(ctx context.Context) ([]Result, error) {
	if err := g.reload(); err != nil {
		g.logger.Error("reload failed", slog.Any("error", err))
		return nil, err
	}
	return g.Generate(ctx)
}

// reload re-reads the config file (when there is one) and rebuilds the registry.
func (g *Generator) reload() error {
	cfg := g.cfg
	if cfg.Path != "" {
		loaded, err := config.Load(cfg.Path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	reg, err := Registry(cfg)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	g.cfg, g.reg = cfg, reg
	return nil
}

// watchDirs lists the config directory and every template directory,
// including subdirectories.
func (g *Generator) watchDirs() []string {
	dirs := []string{g.cfg.Dir()}
	for _, root := range g.cfg.TemplatePaths() {
		_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err == nil && d.IsDir() {
				dirs = append(dirs, p)
			}
			return nil
		})
	}
	return dirs
}

// relevant reports whether a change to path can affect generated output.
func (g *Generator) relevant(path string) bool {
	if g.cfg.Path != "" && filepath.Clean(path) == filepath.Clean(g.cfg.Path) {
		return true
	}
	for _, root := range g.cfg.TemplatePaths() {
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		if strings.HasSuffix(path, ".template") {
			return true
		}
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// fingerprint summarizes size and modification time of watched files.
func (g *Generator) fingerprint() string {
	var parts []string
	add := func(p string) {
		if info, err := os.Stat(p); err == nil {
			parts = append(parts, fmt.Sprintf("%s:%d:%d", p, info.Size(), info.ModTime().UnixNano()))
		}
	}

	if g.cfg.Path != "" {
		add(g.cfg.Path)
	}
	for _, root := range g.cfg.TemplatePaths() {
		_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err == nil && !d.IsDir() && strings.HasSuffix(p, ".template") {
				add(p)
			}
			return nil
		})
	}
	sort.Strings(parts)
	return strings.Join(parts, "\n")
}
