// Package defaults embeds the built-in CI script templates.
//
// The base template dispatches on its first argument ($COMMAND): install,
// before_script, script, after_script, after_success, after_failure. Stage
// templates (static, test, docs, deploy, remote) extend it and override the
// blocks they need.
package defaults

import (
	"embed"
	"io/fs"

	"github.com/randalmurphal/scriptkit/template"
)

//go:embed templates/*.template
var files embed.FS

// FS returns the embedded templates rooted at the template directory.
func FS() fs.FS {
	sub, err := fs.Sub(files, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Load registers every built-in template whose name is not already taken,
// so templates loaded earlier from a project directory take precedence.
func Load(reg *template.Registry) ([]string, error) {
	return template.LoadFS(reg, FS(), template.LoadOptions{SkipExisting: true})
}
