// Package template composes shell scripts from block-structured templates
// with single inheritance.
//
// # Syntax
//
// A root template is literal text with named blocks:
//
//	#!/usr/bin/env bash
//	{% block install %}
//	pip install {{ pkg_name }}
//	{% endblock %}
//	{% block script %}{% endblock %}
//
// A child extends exactly one parent and overrides blocks. Text outside
// blocks is not allowed in a child. {{ super() }} inserts the parent's
// content for the same block:
//
//	{% extends "base" %}
//	{% block install %}
//	{{ super() }}pip install pytest
//	{% endblock %}
//
// Text around {{ super() }} is kept as written, so a newline after it appears
// in the output.
//
// Variables may pass through filters:
//
//	{{ pkg_name | upper }}
//	{{ python_version | default("3.8") }}
//	{{ message | quote }}
//
// A single newline directly after a {% %} tag is dropped, and {# ... #}
// comments produce no output.
//
// # Built-in Filters
//
//   - upper, lower, trim - Case and whitespace
//   - quote - Quote for a POSIX shell
//   - default(s) - Use s when the value is empty or unbound
//   - indent(n) - Indent lines after the first by n spaces
//   - truncate(n) - Cut to n characters with an ellipsis
//   - wrap(n) - Wrap at n columns on word boundaries
//   - replace(old, new) - Replace all occurrences
//
// # Example
//
//	reg := template.NewRegistry()
//	reg.MustRegister("base", template.MustParse("base", `{% block greet %}Hello{% endblock %}`))
//	reg.MustRegister("child", template.MustParse("child", `{% extends "base" %}{% block greet %}{{ super() }}, World{% endblock %}`))
//	blocks, _ := reg.Resolve("child")
//	out, _ := template.Render(blocks, nil)
//	// out: "Hello, World"
//
// # Errors
//
// All failures wrap one of ErrUnknownTemplate, ErrDuplicateTemplate,
// ErrCyclicInheritance, ErrUnboundVariable, or ErrMalformedTemplate and
// should be treated as fatal for the script being generated.
package template
