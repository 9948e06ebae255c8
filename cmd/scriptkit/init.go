package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/AlecAivazis/survey/v2"

	"github.com/randalmurphal/scriptkit/config"
	"github.com/randalmurphal/scriptkit/defaults"
	"github.com/randalmurphal/scriptkit/template"
)

var pkgNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// prompter abstracts the interactive prompts so init can be tested without a
// terminal.
type prompter interface {
	Input(message, def string, validate func(string) error) (string, error)
	MultiSelect(message string, options, defaults []string) ([]string, error)
	Confirm(message string, def bool) (bool, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Input(message, def string, validate func(string) error) (string, error) {
	var out string
	prompt := &survey.Input{Message: message, Default: def}
	var opts []survey.AskOpt
	if validate != nil {
		opts = append(opts, survey.WithValidator(func(ans any) error {
			s, _ := ans.(string)
			return validate(s)
		}))
	}
	err := survey.AskOne(prompt, &out, opts...)
	return out, err
}

func (surveyPrompter) MultiSelect(message string, options, defaults []string) ([]string, error) {
	var out []string
	prompt := &survey.MultiSelect{Message: message, Options: options, Default: defaults}
	err := survey.AskOne(prompt, &out, survey.WithValidator(survey.MinItems(1)))
	return out, err
}

func (surveyPrompter) Confirm(message string, def bool) (bool, error) {
	var out bool
	err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &out)
	return out, err
}

func (a *app) initConfig(ctx context.Context) error {
	path := a.configPath
	if path == "" {
		path = filepath.Join(a.dir, config.FileNames[0])
	}

	if _, err := os.Stat(path); err == nil {
		overwrite, err := a.prompt.Confirm(fmt.Sprintf("%s exists. Overwrite?", path), false)
		if err != nil {
			return err
		}
		if !overwrite {
			return errors.New("init cancelled")
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	cfg, err := buildConfig(a.prompt, filepath.Base(absDir(a.dir)))
	if err != nil {
		return err
	}
	if err := config.Write(cfg, path); err != nil {
		return err
	}
	a.logger.Info("wrote config", slog.String("path", path), slog.Int("scripts", len(cfg.Scripts)))
	return nil
}

// buildConfig asks for project details and which stage scripts to generate.
func buildConfig(p prompter, dirName string) (*config.Config, error) {
	pkgName, err := p.Input("Package name", dirName, func(s string) error {
		if !pkgNamePattern.MatchString(s) {
			return fmt.Errorf("%q is not a valid package name", s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	projectName, err := p.Input("Project name", pkgName, nil)
	if err != nil {
		return nil, err
	}

	repoName, err := p.Input("Repository (org/repo)", "", nil)
	if err != nil {
		return nil, err
	}

	stages, err := stageTemplates()
	if err != nil {
		return nil, err
	}
	chosen, err := p.MultiSelect("Scripts to generate", stages, []string{"static", "test"})
	if err != nil {
		return nil, err
	}
	if len(chosen) == 0 {
		return nil, errors.New("select at least one script")
	}

	cfg := &config.Config{
		ProjectName: projectName,
		PkgName:     pkgName,
		RepoName:    repoName,
	}
	for _, name := range chosen {
		cfg.Scripts = append(cfg.Scripts, config.Script{Template: name})
	}
	return cfg, nil
}

// stageTemplates lists the built-in templates other than base.
func stageTemplates() ([]string, error) {
	reg := template.NewRegistry()
	if _, err := defaults.Load(reg); err != nil {
		return nil, err
	}
	var names []string
	for _, name := range reg.Names() {
		if t, _ := reg.Lookup(name); t.Parent != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func absDir(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}
