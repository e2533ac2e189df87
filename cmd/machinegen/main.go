// machinegen compiles flow diagram sources into state machine artifacts:
// machine definitions, three test suites, an interactive demo, and a service
// wrapper per machine, plus an incremental build manifest.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/goliatone/go-logger/glog"

	machinegen "github.com/goliatone/go-machinegen"
)

var cli struct {
	Config  string `help:"YAML configuration file." short:"c" type:"path"`
	Verbose bool   `help:"Log at debug level." short:"v"`
	LogJSON bool   `name:"log-json" help:"Emit JSON logs."`

	Generate GenerateCmd `cmd:"" help:"Compile diagram sources into state machine artifacts."`
	Lint     LintCmd     `cmd:"" help:"Check diagram sources without generating anything."`
	Watch    WatchCmd    `cmd:"" help:"Rebuild on a cron schedule until interrupted."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("machinegen"),
		kong.Description("Flow diagram to state machine compiler."),
		kong.UsageOnError(),
	)

	logger := newLogger(cli.Verbose, cli.LogJSON)
	cfg, err := loadConfig(cli.Config)
	if err != nil {
		logger.Error("configuration rejected: %v", err)
		os.Exit(1)
	}

	ctx.FatalIfErrorf(ctx.Run(&runContext{cfg: cfg, logger: logger}))
}

// runContext carries the merged configuration and the logger into command
// handlers.
type runContext struct {
	cfg    machinegen.Config
	logger machinegen.Logger
}

func loadConfig(path string) (machinegen.Config, error) {
	if path == "" {
		return machinegen.DefaultConfig(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return machinegen.DefaultConfig(), machinegen.ConfigError(fmt.Sprintf("read config: %v", err))
	}
	return machinegen.ParseConfig(raw)
}

func newLogger(verbose, json bool) machinegen.Logger {
	level := "info"
	if verbose {
		level = "debug"
	}
	opts := []glog.Option{
		glog.WithWriter(os.Stderr),
		glog.WithLevel(level),
	}
	if json {
		opts = append(opts, glog.WithLoggerTypeJSON())
	}
	return glogBridge{logger: glog.NewLogger(opts...)}
}

// glogBridge adapts a glog logger to the Logger contract the pipeline and
// watch host accept.
type glogBridge struct {
	logger glog.Logger
}

func (l glogBridge) Trace(msg string, args ...any) { l.logger.Trace(msg, args...) }
func (l glogBridge) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l glogBridge) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l glogBridge) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l glogBridge) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
func (l glogBridge) Fatal(msg string, args ...any) { l.logger.Fatal(msg, args...) }

func (l glogBridge) WithContext(ctx context.Context) machinegen.Logger {
	return glogBridge{logger: l.logger.WithContext(ctx)}
}

func (l glogBridge) WithFields(fields map[string]any) machinegen.Logger {
	if fl, ok := l.logger.(glog.FieldsLogger); ok {
		return glogBridge{logger: fl.WithFields(fields)}
	}
	return l
}

// DirWriter lands generated artifacts under a root directory, creating
// category subdirectories as needed.
type DirWriter struct {
	Root string
}

func (w DirWriter) WriteFile(f machinegen.GeneratedFile) error {
	path := filepath.Join(w.Root, f.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(f.Content), 0o644)
}
