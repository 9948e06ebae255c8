package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/scriptkit/config"
)

// fakePrompter answers prompts from fixed values.
type fakePrompter struct {
	inputs    map[string]string
	selected  []string
	confirm   bool
	messages  []string
	validated []error
}

func (f *fakePrompter) Input(message, def string, validate func(string) error) (string, error) {
	f.messages = append(f.messages, message)
	out, ok := f.inputs[message]
	if !ok {
		out = def
	}
	if validate != nil {
		if err := validate(out); err != nil {
			f.validated = append(f.validated, err)
			return "", err
		}
	}
	return out, nil
}

func (f *fakePrompter) MultiSelect(message string, options, defaults []string) ([]string, error) {
	f.messages = append(f.messages, message)
	if f.selected == nil {
		return defaults, nil
	}
	return f.selected, nil
}

func (f *fakePrompter) Confirm(message string, def bool) (bool, error) {
	f.messages = append(f.messages, message)
	return f.confirm, nil
}

func runCLI(t *testing.T, p prompter, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr, p)
	return code, stdout.String(), stderr.String()
}

func writeConfig(t *testing.T, dir string) {
	t.Helper()
	cfg := "pkg_name: demo\nci_scripts:\n  - template: static\n  - template: test\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".scriptkit.yml"), []byte(cfg), 0644))
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCLI(t, nil)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "usage: scriptkit")

	code, _, stderr = runCLI(t, nil, "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)
}

func TestRun_GenerateThenCheck(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir)

	code, stdout, _ := runCLI(t, nil, "-dir", dir, "check")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "missing: ")
	assert.Contains(t, stdout, "run 'scriptkit generate' to update")

	code, _, stderr := runCLI(t, nil, "-dir", dir, "generate")
	require.Equal(t, 0, code, stderr)
	assert.FileExists(t, filepath.Join(dir, ".ci", "static.sh"))
	assert.FileExists(t, filepath.Join(dir, ".ci", "test.sh"))

	code, stdout, _ = runCLI(t, nil, "-dir", dir, "check")
	assert.Equal(t, 0, code)
	assert.Empty(t, stdout)
}

func TestRun_MissingConfig(t *testing.T) {
	code, _, stderr := runCLI(t, nil, "-dir", t.TempDir(), "generate")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "config file not found")
}

func TestRun_ListWithoutConfigShowsDefaults(t *testing.T) {
	code, stdout, _ := runCLI(t, nil, "-dir", t.TempDir(), "list")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "base\textends -")
	assert.Contains(t, stdout, "test\textends base")
	assert.Contains(t, stdout, "pkg_name")
}

func TestRun_Schema(t *testing.T) {
	code, stdout, _ := runCLI(t, nil, "schema")
	require.Equal(t, 0, code)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &schema))
	assert.Contains(t, stdout, "ci_scripts")
}

func TestRun_Init(t *testing.T) {
	dir := t.TempDir()
	p := &fakePrompter{
		inputs: map[string]string{
			"Package name":          "demo_pkg",
			"Repository (org/repo)": "acme/demo",
		},
		selected: []string{"static", "docs"},
	}

	code, _, stderr := runCLI(t, p, "-dir", dir, "init")
	require.Equal(t, 0, code, stderr)

	cfg, err := config.Load(filepath.Join(dir, ".scriptkit.yml"))
	require.NoError(t, err)
	assert.Equal(t, "demo_pkg", cfg.PkgName)
	assert.Equal(t, "demo_pkg", cfg.ProjectName)
	assert.Equal(t, "acme/demo", cfg.RepoName)
	require.Len(t, cfg.Scripts, 2)
	assert.Equal(t, "static", cfg.Scripts[0].Template)
	assert.Equal(t, "docs", cfg.Scripts[1].Template)
}

func TestRun_InitRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir)
	p := &fakePrompter{confirm: false}

	code, _, stderr := runCLI(t, p, "-dir", dir, "init")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "init cancelled")
	assert.Len(t, p.messages, 1)
}

func TestBuildConfig_InvalidPackageName(t *testing.T) {
	p := &fakePrompter{inputs: map[string]string{"Package name": "my-pkg"}}
	_, err := buildConfig(p, "ignored")
	require.Error(t, err)
	assert.Len(t, p.validated, 1)
}

func TestStageTemplates(t *testing.T) {
	names, err := stageTemplates()
	require.NoError(t, err)
	assert.NotContains(t, names, "base")
	assert.Subset(t, names, []string{"static", "test", "docs", "deploy", "remote"})
}
