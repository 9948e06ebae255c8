package template

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// Template file suffixes, longest first.
var templateSuffixes = []string{".sh.template", ".template"}

// TemplateName derives a template name from a file path by stripping a
// template suffix: "ci/test.sh.template" becomes "ci/test".
func TemplateName(file string) string {
	for _, suffix := range templateSuffixes {
		if strings.HasSuffix(file, suffix) {
			return strings.TrimSuffix(file, suffix)
		}
	}
	return file
}

// LoadOptions controls LoadFS.
type LoadOptions struct {
	// Dir is the directory within the file system to walk. Default: ".".
	Dir string

	// SkipExisting leaves already registered names untouched instead of
	// failing with ErrDuplicateTemplate. Use it to layer a lower-priority
	// source beneath one loaded earlier.
	SkipExisting bool
}

// LoadFS parses every *.template file under opts.Dir and registers it.
// Names are slash paths relative to opts.Dir, as given by TemplateName.
// It returns the names it registered.
func LoadFS(reg *Registry, fsys fs.FS, opts LoadOptions) ([]string, error) {
	root := opts.Dir
	if root == "" {
		root = "."
	}

	var loaded []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".template") {
			return nil
		}

		rel := p
		if root != "." {
			rel = strings.TrimPrefix(p, path.Clean(root)+"/")
		}
		name := TemplateName(rel)
		if opts.SkipExisting && reg.Has(name) {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		t, err := Parse(name, string(data))
		if err != nil {
			return err
		}
		if err := reg.Register(name, t); err != nil {
			return err
		}
		loaded = append(loaded, name)
		return nil
	})
	if err != nil {
		return loaded, fmt.Errorf("load templates: %w", err)
	}
	return loaded, nil
}

// Engine resolves and renders templates from a registry.
type Engine struct {
	reg *Registry
}

// NewEngine creates an engine over the given registry.
// A nil registry gets a fresh, empty one.
func NewEngine(reg *Registry) *Engine {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Engine{reg: reg}
}

// Registry returns the engine's registry.
func (e *Engine) Registry() *Registry {
	return e.reg
}

// AddSource parses src and registers it under name.
func (e *Engine) AddSource(name, src string) error {
	t, err := Parse(name, src)
	if err != nil {
		return err
	}
	return e.reg.Register(name, t)
}

// RenderTemplate resolves the named template and renders it with bindings.
func (e *Engine) RenderTemplate(name string, bindings map[string]string) (string, error) {
	blocks, err := e.reg.Resolve(name)
	if err != nil {
		return "", err
	}
	out, err := Render(blocks, bindings)
	if err != nil {
		return "", fmt.Errorf("render %q: %w", name, err)
	}
	return out, nil
}

// Variables resolves the named template and returns the variables it needs
// without a default.
func (e *Engine) Variables(name string) ([]string, error) {
	blocks, err := e.reg.Resolve(name)
	if err != nil {
		return nil, err
	}
	return RequiredVariables(blocks), nil
}
