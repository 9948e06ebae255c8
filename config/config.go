// Package config loads the project configuration that drives CI script
// generation.
//
// A project describes itself once and lists the scripts to generate:
//
//	project_name: NengoDL
//	pkg_name: nengo_dl
//	repo_name: nengo/nengo-dl
//	vars:
//	  python_version: "3.8"
//	ci_scripts:
//	  - template: static
//	  - template: test
//	    output_name: test-coverage
//	    vars:
//	      coverage: "true"
//	      pip_install: [numpy, "tensorflow>=2.2"]
//
// YAML (.yml, .yaml) and TOML (.toml) files are supported.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// FileNames are the config file names Find looks for, in order.
var FileNames = []string{".scriptkit.yml", ".scriptkit.yaml", ".scriptkit.toml"}

// DefaultOutputDir is where scripts are written when output_dir is unset.
const DefaultOutputDir = ".ci"

// Sentinel errors for config operations.
var (
	// ErrNotFound indicates no config file exists in the searched directory.
	ErrNotFound = errors.New("config file not found")

	// ErrInvalidConfig indicates the config failed validation.
	ErrInvalidConfig = errors.New("invalid config")
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config is the project configuration.
type Config struct {
	// ProjectName is the human-readable project name.
	ProjectName string `yaml:"project_name,omitempty" toml:"project_name" json:"project_name,omitempty" jsonschema:"description=Human-readable project name"`

	// PkgName is the importable package name. Required.
	PkgName string `yaml:"pkg_name" toml:"pkg_name" json:"pkg_name" jsonschema:"description=Package name; scripts refuse to run outside a checkout containing it"`

	// RepoName is the repository slug (e.g. "org/repo").
	RepoName string `yaml:"repo_name,omitempty" toml:"repo_name" json:"repo_name,omitempty"`

	// TemplateDirs are searched for *.template files before the built-in
	// templates. Relative paths are relative to the config file.
	TemplateDirs []string `yaml:"template_dirs,omitempty" toml:"template_dirs" json:"template_dirs,omitempty"`

	// OutputDir receives generated scripts.
	// Default: ".ci"
	OutputDir string `yaml:"output_dir,omitempty" toml:"output_dir" json:"output_dir,omitempty"`

	// Vars are bound in every script.
	Vars map[string]StringOrList `yaml:"vars,omitempty" toml:"vars" json:"vars,omitempty"`

	// Scripts lists the scripts to generate. At least one is required.
	Scripts []Script `yaml:"ci_scripts" toml:"ci_scripts" json:"ci_scripts" jsonschema:"minItems=1"`

	// Path is the file the config was loaded from.
	Path string `yaml:"-" toml:"-" json:"-"`
}

// Script configures one generated script.
type Script struct {
	// Template is the template to render. Required.
	Template string `yaml:"template" toml:"template" json:"template"`

	// OutputName is the script file name without the .sh suffix.
	// Default: the template name.
	OutputName string `yaml:"output_name,omitempty" toml:"output_name" json:"output_name,omitempty"`

	// Vars override the global vars for this script.
	Vars map[string]StringOrList `yaml:"vars,omitempty" toml:"vars" json:"vars,omitempty"`
}

// Name returns the output name, falling back to the template name.
func (s Script) Name() string {
	if s.OutputName != "" {
		return s.OutputName
	}
	return filepath.Base(s.Template)
}

// Find returns the first config file present in dir.
// Returns ErrNotFound if none exists.
func Find(dir string) (string, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s (looked for %s)", ErrNotFound, dir, strings.Join(FileNames, ", "))
}

// Load reads, defaults, and validates the config at path.
// The format is chosen by extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes config data in the format named by ext (".yml", ".yaml",
// or ".toml") and applies defaults. Unknown keys are rejected.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := &Config{}

	switch strings.ToLower(ext) {
	case ".yml", ".yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode toml: unknown key %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}

	withDefaults := cfg.WithDefaults()
	return &withDefaults, nil
}

// WithDefaults returns a copy of the config with defaults applied for unset fields.
func (c Config) WithDefaults() Config {
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.ProjectName == "" {
		c.ProjectName = c.PkgName
	}
	return c
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.PkgName == "" {
		return fmt.Errorf("%w: pkg_name is required", ErrInvalidConfig)
	}
	if len(c.Scripts) == 0 {
		return fmt.Errorf("%w: ci_scripts must list at least one script", ErrInvalidConfig)
	}
	if err := validateVars("vars", c.Vars); err != nil {
		return err
	}

	seen := make(map[string]int)
	for i, s := range c.Scripts {
		if s.Template == "" {
			return fmt.Errorf("%w: ci_scripts[%d]: template is required", ErrInvalidConfig, i)
		}
		name := s.Name()
		if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return fmt.Errorf("%w: ci_scripts[%d]: output_name %q must be a plain file name", ErrInvalidConfig, i, name)
		}
		if prev, dup := seen[name]; dup {
			return fmt.Errorf("%w: ci_scripts[%d] and ci_scripts[%d] both write %q", ErrInvalidConfig, prev, i, name)
		}
		seen[name] = i
		if err := validateVars(fmt.Sprintf("ci_scripts[%d].vars", i), s.Vars); err != nil {
			return err
		}
	}
	return nil
}

func validateVars(field string, vars map[string]StringOrList) error {
	for name := range vars {
		if !identPattern.MatchString(name) {
			return fmt.Errorf("%w: %s: %q is not a valid variable name", ErrInvalidConfig, field, name)
		}
	}
	return nil
}

// Bindings returns the variables bound when rendering the script.
// Precedence, lowest first: built-ins (project_name, pkg_name, repo_name,
// template, output_name), global vars, script vars.
func (c *Config) Bindings(s Script) map[string]string {
	bindings := map[string]string{
		"project_name": c.ProjectName,
		"pkg_name":     c.PkgName,
		"repo_name":    c.RepoName,
		"template":     s.Template,
		"output_name":  s.Name(),
	}
	for k, v := range c.Vars {
		bindings[k] = v.String()
	}
	for k, v := range s.Vars {
		bindings[k] = v.String()
	}
	return bindings
}

// Dir returns the directory containing the config file, or "." when the
// config was not loaded from disk.
func (c *Config) Dir() string {
	if c.Path == "" {
		return "."
	}
	return filepath.Dir(c.Path)
}

// resolve interprets a relative p against the config directory.
func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir(), p)
}

// TemplatePaths returns TemplateDirs resolved against the config directory.
func (c *Config) TemplatePaths() []string {
	paths := make([]string, 0, len(c.TemplateDirs))
	for _, d := range c.TemplateDirs {
		paths = append(paths, c.resolve(d))
	}
	return paths
}

// OutputPath returns the file the script is written to.
func (c *Config) OutputPath(s Script) string {
	return filepath.Join(c.resolve(c.OutputDir), s.Name()+".sh")
}

// Write validates the config and writes it as YAML to path atomically.
func Write(c *Config, path string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
