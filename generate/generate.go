// Package generate renders the scripts a project config lists and keeps them
// on disk.
//
// Generate writes every script whose content changed. Check reports scripts
// that are missing or differ from what Generate would write, which makes it
// suitable as a CI step guarding against hand edits. Watch regenerates
// whenever the config or a template changes.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/natefinch/atomic"

	"github.com/randalmurphal/scriptkit/config"
	"github.com/randalmurphal/scriptkit/defaults"
	"github.com/randalmurphal/scriptkit/template"
)

// ScriptMode is the permission set on generated scripts.
const ScriptMode os.FileMode = 0o755

// ErrStale is returned by Check when a script is missing or out of date.
var ErrStale = errors.New("generated scripts are out of date")

// Result describes what happened to one script.
type Result struct {
	Script config.Script
	Path   string

	// Changed is true when Generate wrote the file, or when Check found it
	// missing or different.
	Changed bool

	// Missing is true when the file did not exist.
	Missing bool

	// Diff is the line diff between the file on disk (-) and the rendered
	// script (+). Only Check fills it in.
	Diff string
}

// Generator renders and writes the scripts of a single project.
type Generator struct {
	cfg    *config.Config
	reg    *template.Registry
	logger *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a generator for cfg rendering from reg.
func New(cfg *config.Config, reg *template.Registry, opts ...Option) *Generator {
	g := &Generator{
		cfg:    cfg,
		reg:    reg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Registry builds a registry from the config's template directories, then
// fills in any names they do not define from the built-in templates.
func Registry(cfg *config.Config) (*template.Registry, error) {
	reg := template.NewRegistry()
	for _, dir := range cfg.TemplatePaths() {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("template dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("template dir %s is not a directory", dir)
		}
		if _, err := template.LoadFS(reg, os.DirFS(dir), template.LoadOptions{}); err != nil {
			return nil, fmt.Errorf("%s: %w", dir, err)
		}
	}
	if _, err := defaults.Load(reg); err != nil {
		return nil, fmt.Errorf("built-in templates: %w", err)
	}
	return reg, nil
}

// Config returns the generator's config.
func (g *Generator) Config() *config.Config {
	return g.cfg
}

// Render resolves and renders one script.
func (g *Generator) Render(s config.Script) (string, error) {
	blocks, err := g.reg.Resolve(s.Template)
	if err != nil {
		return "", fmt.Errorf("script %q: %w", s.Name(), err)
	}
	out, err := template.Render(blocks, g.cfg.Bindings(s))
	if err != nil {
		return "", fmt.Errorf("script %q: template %q: %w", s.Name(), s.Template, err)
	}
	return out, nil
}

// Generate renders every script and writes those whose content changed.
// A script that fails to render is skipped; the others are still written
// and all failures are returned joined.
func (g *Generator) Generate(ctx context.Context) ([]Result, error) {
	var results []Result
	var errs []error

	for _, s := range g.cfg.Scripts {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := g.generateOne(s)
		if err != nil {
			g.logger.Error("script generation failed",
				slog.String("script", s.Name()),
				slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}

	return results, errors.Join(errs...)
}

func (g *Generator) generateOne(s config.Script) (Result, error) {
	path := g.cfg.OutputPath(s)
	res := Result{Script: s, Path: path}

	content, err := g.Render(s)
	if err != nil {
		return res, err
	}

	existing, err := os.ReadFile(path)
	switch {
	case err == nil && string(existing) == content:
		g.logger.Debug("script unchanged", slog.String("path", path))
		return res, ensureMode(path)
	case errors.Is(err, os.ErrNotExist):
		res.Missing = true
	case err != nil:
		return res, fmt.Errorf("read %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return res, fmt.Errorf("create output dir: %w", err)
	}
	if err := atomic.WriteFile(path, strings.NewReader(content)); err != nil {
		return res, fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(path, ScriptMode); err != nil {
		return res, fmt.Errorf("chmod %s: %w", path, err)
	}

	res.Changed = true
	g.logger.Info("wrote script",
		slog.String("script", s.Name()),
		slog.String("template", s.Template),
		slog.String("path", path))
	return res, nil
}

// ensureMode sets ScriptMode on an unchanged file that lost its executable bit.
func ensureMode(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Mode().Perm() == ScriptMode {
		return nil
	}
	if err := os.Chmod(path, ScriptMode); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	return nil
}

// Check renders every script and compares it with the file on disk without
// writing anything. It returns one Result per rendered script and an error
// wrapping ErrStale if any is missing or different. Render failures are
// joined into the returned error.
func (g *Generator) Check(ctx context.Context) ([]Result, error) {
	var results []Result
	var errs []error
	stale := 0

	for _, s := range g.cfg.Scripts {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		path := g.cfg.OutputPath(s)
		content, err := g.Render(s)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		res := Result{Script: s, Path: path}
		existing, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			res.Changed = true
			res.Missing = true
		case err != nil:
			errs = append(errs, fmt.Errorf("read %s: %w", path, err))
			continue
		case string(existing) != content:
			res.Changed = true
			res.Diff = cmp.Diff(strings.Split(string(existing), "\n"), strings.Split(content, "\n"))
		}

		if res.Changed {
			stale++
			g.logger.Warn("script out of date",
				slog.String("script", s.Name()),
				slog.String("path", path),
				slog.Bool("missing", res.Missing))
		}
		results = append(results, res)
	}

	if stale > 0 {
		errs = append(errs, fmt.Errorf("%w: %d of %d", ErrStale, stale, len(g.cfg.Scripts)))
	}
	return results, errors.Join(errs...)
}
