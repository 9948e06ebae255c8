// Package scriptkit generates CI shell scripts from inheriting templates.
//
// Templates form single-parent chains. A child names its parent with
// {% extends %} and overrides named blocks, optionally splicing the parent's
// content back in with {{ super() }}. Each subpackage can be used
// independently:
//
//   - template: Parsing, registry, inheritance resolution, and rendering
//   - defaults: Built-in script templates embedded in the binary
//   - config: Project config file (.scriptkit.yml or .scriptkit.toml)
//   - generate: Writing, checking, and watching generated scripts
//
// # Quick Start
//
// Rendering a template chain:
//
//	import "github.com/randalmurphal/scriptkit/template"
//	engine := template.NewEngine(nil)
//	_ = engine.AddSource("base", "{% block main %}Hello, {{ NAME }}{% endblock %}")
//	_ = engine.AddSource("child", `{% extends "base" %}{% block main %}{{ super() }}!{% endblock %}`)
//	out, _ := engine.RenderTemplate("child", map[string]string{"NAME": "World"})
//	// out == "Hello, World!"
//
// Generating a project's scripts:
//
//	import "github.com/randalmurphal/scriptkit/generate"
//	cfg, _ := config.Load(".scriptkit.yml")
//	reg, _ := generate.Registry(cfg)
//	results, err := generate.New(cfg, reg).Generate(ctx)
//
// The scriptkit command in cmd/scriptkit wraps these for the command line.
package scriptkit
