package template

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolveSource(t *testing.T, src string) []ResolvedBlock {
	t.Helper()
	reg := newTestRegistry(t, map[string]string{"t": src})
	blocks, err := reg.Resolve("t")
	require.NoError(t, err)
	return blocks
}

func TestRender_Variables(t *testing.T) {
	tests := []struct {
		name     string
		template string
		bindings map[string]string
		want     string
	}{
		{
			name:     "single variable",
			template: "Hello, {{ name }}!",
			bindings: map[string]string{"name": "World"},
			want:     "Hello, World!",
		},
		{
			name:     "no spaces",
			template: "{{greeting}}, {{name}}!",
			bindings: map[string]string{"greeting": "Hi", "name": "Alice"},
			want:     "Hi, Alice!",
		},
		{
			name:     "empty binding is bound",
			template: "[{{ name }}]",
			bindings: map[string]string{"name": ""},
			want:     "[]",
		},
		{
			name:     "no variables with nil bindings",
			template: "echo hi",
			bindings: nil,
			want:     "echo hi",
		},
		{
			name:     "shell syntax passes through",
			template: `n=${#ARGS[@]}; echo "${HOME}" {{ x }}`,
			bindings: map[string]string{"x": "y"},
			want:     `n=${#ARGS[@]}; echo "${HOME}" y`,
		},
		{
			name:     "comment dropped",
			template: "a{# note #}b",
			want:     "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(resolveSource(t, tt.template), tt.bindings)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_Filters(t *testing.T) {
	tests := []struct {
		name     string
		template string
		bindings map[string]string
		want     string
	}{
		{"upper", "{{ v | upper }}", map[string]string{"v": "abc"}, "ABC"},
		{"lower", "{{ v | lower }}", map[string]string{"v": "ABC"}, "abc"},
		{"trim", "[{{ v | trim }}]", map[string]string{"v": "  x \n"}, "[x]"},
		{"default when unbound", `{{ v | default("3.8") }}`, nil, "3.8"},
		{"default when empty", `{{ v | default("3.8") }}`, map[string]string{"v": ""}, "3.8"},
		{"default when set", `{{ v | default("3.8") }}`, map[string]string{"v": "3.11"}, "3.11"},
		{"quote plain", "{{ v | quote }}", map[string]string{"v": "simple"}, "simple"},
		{"quote spaces", "{{ v | quote }}", map[string]string{"v": "hello world"}, "'hello world'"},
		{"quote empty", "{{ v | quote }}", map[string]string{"v": ""}, "''"},
		{"indent", "  {{ v | indent(2) }}", map[string]string{"v": "a\nb\n\nc"}, "  a\n  b\n\n  c"},
		{"truncate", "{{ v | truncate(8) }}", map[string]string{"v": "abcdefghijkl"}, "abcde..."},
		{"truncate short limit", "{{ v | truncate(2) }}", map[string]string{"v": "abcdef"}, "ab"},
		{"truncate multibyte", "{{ v | truncate(6) }}", map[string]string{"v": "héllo wörld"}, "hél..."},
		{"truncate multibyte short limit", "{{ v | truncate(2) }}", map[string]string{"v": "ñandú"}, "ña"},
		{"truncate multibyte fits", "{{ v | truncate(5) }}", map[string]string{"v": "ñandú"}, "ñandú"},
		{"wrap multibyte", "{{ v | wrap(5) }}", map[string]string{"v": "über ñandú"}, "über\nñandú"},
		{"wrap", "{{ v | wrap(7) }}", map[string]string{"v": "one two three"}, "one two\nthree"},
		{"replace", `{{ v | replace("-", "_") }}`, map[string]string{"v": "nengo-dl"}, "nengo_dl"},
		{"chain", `{{ v | default("x y") | upper | quote }}`, nil, "'X Y'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(resolveSource(t, tt.template), tt.bindings)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_UnboundVariable(t *testing.T) {
	blocks := resolveSource(t, "{% block main %}echo {{NAME}}{% endblock %}")

	_, err := Render(blocks, map[string]string{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnboundVariable))

	var unbound *UnboundVariableError
	require.ErrorAs(t, err, &unbound)
	assert.Equal(t, "NAME", unbound.Name)
	assert.Equal(t, "main", unbound.Block)
	assert.Equal(t, `unbound variable: "NAME" in block "main"`, err.Error())
}

func TestRender_Idempotent(t *testing.T) {
	reg := newTestRegistry(t, map[string]string{
		"base":  "#!/bin/bash\n{% block a %}echo {{ x }}\n{% endblock %}",
		"child": "{% extends \"base\" %}{% block a %}{{ super() }}echo {{ y | upper }}\n{% endblock %}",
	})
	blocks, err := reg.Resolve("child")
	require.NoError(t, err)
	bindings := map[string]string{"x": "1", "y": "two"}

	first, err := Render(blocks, bindings)
	require.NoError(t, err)
	second, err := Render(blocks, bindings)
	require.NoError(t, err)

	assert.Equal(t, []byte(first), []byte(second))
	assert.Equal(t, "#!/bin/bash\necho 1\necho TWO\n", first)
}

func TestRender_StraySuperNodeIsEmpty(t *testing.T) {
	blocks := []ResolvedBlock{{Name: "b", Body: []Node{&TextNode{Text: "a"}, &SuperNode{}, &TextNode{Text: "b"}}}}

	out, err := Render(blocks, nil)
	require.NoError(t, err)
	assert.Equal(t, "ab", out)
}

func TestVariables(t *testing.T) {
	blocks := resolveSource(t, `{{ b }}{% block x %}{{ a }}{{ b }}{{ c | default("1") }}{% endblock %}{{ c }}{{ d | default("") }}`)

	assert.Equal(t, []string{"b", "a", "c", "d"}, Variables(blocks))
	assert.Equal(t, []string{"b", "a", "c"}, RequiredVariables(blocks))
}

func TestValidateBindings(t *testing.T) {
	require.NoError(t, ValidateBindings([]string{"a", "b"}, map[string]string{"a": "", "b": "x"}))

	err := ValidateBindings([]string{"a", "b"}, map[string]string{"a": "1"})
	require.ErrorIs(t, err, ErrUnboundVariable)
	assert.Contains(t, err.Error(), `"b"`)
}
