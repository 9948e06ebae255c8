package template

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterLookup(t *testing.T) {
	reg := NewRegistry()
	base := MustParse("base", "{% block a %}A{% endblock %}")

	require.NoError(t, reg.Register("base", base))

	got, err := reg.Lookup("base")
	require.NoError(t, err)
	assert.Same(t, base, got)
	assert.True(t, reg.Has("base"))
	assert.Equal(t, 1, reg.Len())

	err = reg.Register("base", MustParse("base", "x"))
	assert.ErrorIs(t, err, ErrDuplicateTemplate)

	_, err = reg.Lookup("missing")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
	assert.False(t, reg.Has("missing"))

	assert.Error(t, reg.Register("nil", nil))
}

func TestRegistry_NamesSorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"test", "base", "docs"} {
		reg.MustRegister(name, MustParse(name, ""))
	}
	assert.Equal(t, []string{"base", "docs", "test"}, reg.Names())
}

func TestRegistry_Independent(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	a.MustRegister("x", MustParse("x", "a"))

	assert.False(t, b.Has("x"))
	assert.NotPanics(t, func() { b.MustRegister("x", MustParse("x", "b")) })
	assert.Panics(t, func() { a.MustRegister("x", MustParse("x", "c")) })
}

func TestTemplateName(t *testing.T) {
	tests := map[string]string{
		"base.sh.template":    "base",
		"ci/test.sh.template": "ci/test",
		"conf.py.template":    "conf.py",
		"plain":               "plain",
	}
	for in, want := range tests {
		assert.Equal(t, want, TemplateName(in), in)
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/base.sh.template":    {Data: []byte("#!/bin/bash\n{% block main %}{% endblock %}")},
		"templates/ci/test.sh.template": {Data: []byte(`{% extends "base" %}{% block main %}pytest{% endblock %}`)},
		"templates/README.md":           {Data: []byte("not a template")},
	}

	reg := NewRegistry()
	names, err := LoadFS(reg, fsys, LoadOptions{Dir: "templates"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"base", "ci/test"}, names)
	assert.Equal(t, []string{"base", "ci/test"}, reg.Names())

	out, err := NewEngine(reg).RenderTemplate("ci/test", nil)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/bash\npytest", out)
}

func TestLoadFS_SkipExisting(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("base", MustParse("base", "override"))

	fsys := fstest.MapFS{
		"base.sh.template": {Data: []byte("default")},
		"docs.sh.template": {Data: []byte("docs")},
	}

	_, err := LoadFS(reg, fsys, LoadOptions{})
	assert.ErrorIs(t, err, ErrDuplicateTemplate)

	reg = NewRegistry()
	reg.MustRegister("base", MustParse("base", "override"))
	names, err := LoadFS(reg, fsys, LoadOptions{SkipExisting: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, names)

	out, err := NewEngine(reg).RenderTemplate("base", nil)
	require.NoError(t, err)
	assert.Equal(t, "override", out)
}

func TestLoadFS_ParseError(t *testing.T) {
	fsys := fstest.MapFS{
		"bad.sh.template": {Data: []byte("{% block a %}")},
	}

	_, err := LoadFS(NewRegistry(), fsys, LoadOptions{})
	assert.ErrorIs(t, err, ErrMalformedTemplate)
}

func TestEngine_RenderTemplate(t *testing.T) {
	e := NewEngine(nil)
	require.NoError(t, e.AddSource("base", "{% block greet %}Hello{% endblock %}"))
	require.NoError(t, e.AddSource("child", `{% extends "base" %}{% block greet %}{{super}}, {{ who }}{% endblock %}`))

	out, err := e.RenderTemplate("child", map[string]string{"who": "World"})
	require.NoError(t, err)
	assert.Equal(t, "Hello, World", out)

	_, err = e.RenderTemplate("child", nil)
	assert.ErrorIs(t, err, ErrUnboundVariable)
	assert.Contains(t, err.Error(), `render "child"`)

	vars, err := e.Variables("child")
	require.NoError(t, err)
	assert.Equal(t, []string{"who"}, vars)

	assert.ErrorIs(t, e.AddSource("base", "again"), ErrDuplicateTemplate)
	assert.ErrorIs(t, e.AddSource("broken", "{% endblock %}"), ErrMalformedTemplate)
	assert.Equal(t, []string{"base", "child"}, e.Registry().Names())
}

func TestFilterNames(t *testing.T) {
	assert.Equal(t, []string{
		"default", "indent", "lower", "quote", "replace", "trim", "truncate", "upper", "wrap",
	}, FilterNames())
}
