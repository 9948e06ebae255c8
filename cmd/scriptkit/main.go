// Command scriptkit generates CI shell scripts from templates.
//
// Usage:
//
//	scriptkit [-v] [-config path] <command>
//
// Commands:
//
//	generate  Render every script listed in the config and write changed ones
//	check     Exit non-zero if any generated script is missing or out of date
//	watch     Regenerate whenever the config or a template changes
//	list      Show available templates and the variables they require
//	schema    Print the JSON Schema of the config file
//	init      Create a config file interactively
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/randalmurphal/scriptkit/config"
	"github.com/randalmurphal/scriptkit/defaults"
	"github.com/randalmurphal/scriptkit/generate"
	"github.com/randalmurphal/scriptkit/template"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, surveyPrompter{})
	stop()
	os.Exit(code)
}

// app carries what every command needs.
type app struct {
	configPath string
	dir        string
	logger     *slog.Logger
	stdout     io.Writer
	prompt     prompter
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, prompt prompter) int {
	fs := flag.NewFlagSet("scriptkit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "enable debug logging")
	configPath := fs.String("config", "", "config file (default: search the working directory)")
	dir := fs.String("dir", ".", "project directory")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: scriptkit [-v] [-config path] [-dir path] <generate|check|watch|list|schema|init>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	a := &app{
		configPath: *configPath,
		dir:        *dir,
		logger:     slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
		stdout:     stdout,
		prompt:     prompt,
	}

	var err error
	switch cmd := fs.Arg(0); cmd {
	case "generate":
		err = a.generate(ctx)
	case "check":
		err = a.check(ctx)
	case "watch":
		err = a.watch(ctx)
	case "list":
		err = a.list()
	case "schema":
		err = a.schema()
	case "init":
		err = a.initConfig(ctx)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}

	if err != nil {
		a.logger.Error("command failed", slog.String("command", fs.Arg(0)), slog.Any("error", err))
		return 1
	}
	return 0
}

// loadConfig reads the config named by -config, or the one found in -dir.
func (a *app) loadConfig() (*config.Config, error) {
	path := a.configPath
	if path == "" {
		found, err := config.Find(a.dir)
		if err != nil {
			return nil, err
		}
		path = found
	}
	a.logger.Debug("loading config", slog.String("path", path))
	return config.Load(path)
}

func (a *app) generator() (*generate.Generator, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	reg, err := generate.Registry(cfg)
	if err != nil {
		return nil, err
	}
	return generate.New(cfg, reg, generate.WithLogger(a.logger)), nil
}

func (a *app) generate(ctx context.Context) error {
	g, err := a.generator()
	if err != nil {
		return err
	}
	results, err := g.Generate(ctx)
	written := 0
	for _, res := range results {
		if res.Changed {
			written++
		}
	}
	a.logger.Info("generation finished",
		slog.Int("scripts", len(results)),
		slog.Int("written", written))
	return err
}

func (a *app) check(ctx context.Context) error {
	g, err := a.generator()
	if err != nil {
		return err
	}
	results, err := g.Check(ctx)
	for _, res := range results {
		switch {
		case res.Missing:
			fmt.Fprintf(a.stdout, "missing: %s\n", res.Path)
		case res.Changed:
			fmt.Fprintf(a.stdout, "out of date: %s\n%s\n", res.Path, res.Diff)
		}
	}
	if errors.Is(err, generate.ErrStale) {
		fmt.Fprintln(a.stdout, "run 'scriptkit generate' to update")
	}
	return err
}

func (a *app) watch(ctx context.Context) error {
	g, err := a.generator()
	if err != nil {
		return err
	}
	a.logger.Info("watching for changes", slog.String("config", g.Config().Path))
	return g.Watch(ctx, func(results []generate.Result, err error) {
		if err != nil {
			return // already logged by the generator
		}
		for _, res := range results {
			if res.Changed {
				fmt.Fprintf(a.stdout, "updated %s\n", res.Path)
			}
		}
	})
}

func (a *app) list() error {
	reg := template.NewRegistry()
	cfg, err := a.loadConfig()
	switch {
	case err == nil:
		if reg, err = generate.Registry(cfg); err != nil {
			return err
		}
	case errors.Is(err, config.ErrNotFound) && a.configPath == "":
		if _, err := defaults.Load(reg); err != nil {
			return err
		}
	default:
		return err
	}

	engine := template.NewEngine(reg)
	for _, name := range reg.Names() {
		t, _ := reg.Lookup(name)
		vars, err := engine.Variables(name)
		if err != nil {
			fmt.Fprintf(a.stdout, "%s\terror: %v\n", name, err)
			continue
		}
		parent := "-"
		if t.Parent != "" {
			parent = t.Parent
		}
		fmt.Fprintf(a.stdout, "%s\textends %s\tvars: %s\n", name, parent, strings.Join(vars, ", "))
	}
	return nil
}

func (a *app) schema() error {
	data, err := config.SchemaJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.stdout, string(data))
	return err
}
