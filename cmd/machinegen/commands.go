package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	machinegen "github.com/goliatone/go-machinegen"
	"github.com/goliatone/go-machinegen/document"
	"github.com/goliatone/go-machinegen/lint"
	"github.com/goliatone/go-machinegen/manifest"
	"github.com/goliatone/go-machinegen/pipeline"
	"github.com/goliatone/go-machinegen/watch"
)

// GenerateCmd compiles diagram sources and lands artifacts under the output
// directory.
type GenerateCmd struct {
	Out    string   `help:"Output directory for generated artifacts." short:"o" placeholder:"DIR"`
	Force  bool     `help:"Regenerate even when the manifest says sources are unchanged." short:"f"`
	Strict bool     `help:"Escalate naming-convention warnings to errors."`
	Check  bool     `help:"Report pending source changes without generating."`
	Paths  []string `arg:"" help:"Markdown or mermaid files holding flow diagrams."`
}

func (c *GenerateCmd) Run(rc *runContext) error {
	cfg := rc.cfg
	if c.Out != "" {
		cfg.OutDir = c.Out
	}
	cfg.Force = cfg.Force || c.Force
	cfg.Strict = cfg.Strict || c.Strict

	if c.Check {
		return runCheck(cfg, c.Paths)
	}

	p := pipeline.New(cfg,
		pipeline.WithWriter(DirWriter{Root: cfg.OutDir}),
		pipeline.WithLogger(rc.logger),
	)
	sum := p.Run(c.Paths)
	printFindings(sum)
	fmt.Printf("%d machine(s), %d file(s), %d lines in %dms\n",
		sum.Stats.MachinesGenerated, sum.Stats.FilesCreated, sum.Stats.LinesOfCode, sum.Stats.DurationMs)
	return exitStatus(sum, cfg.Strict)
}

// runCheck reports what a generate run would rebuild. Pending changes exit
// nonzero so CI can gate on a stale manifest.
func runCheck(cfg machinegen.Config, paths []string) error {
	changes := manifest.Load(cfg.ManifestPath).DetectChanges(paths)
	if !changes.HasChanges {
		fmt.Println("No changes detected.")
		return nil
	}
	for _, p := range changes.New {
		fmt.Printf("new:      %s\n", p)
	}
	for _, p := range changes.Modified {
		fmt.Printf("modified: %s\n", p)
	}
	for _, p := range changes.Deleted {
		fmt.Printf("deleted:  %s\n", p)
	}
	total := len(changes.New) + len(changes.Modified) + len(changes.Deleted)
	return fmt.Errorf("%d pending change(s)", total)
}

// LintCmd checks document framing and diagram conventions without parsing
// graphs or generating anything.
type LintCmd struct {
	Strict bool     `help:"Escalate naming-convention warnings to errors."`
	Paths  []string `arg:"" help:"Markdown or mermaid files holding flow diagrams."`
}

func (c *LintCmd) Run(rc *runContext) error {
	strict := rc.cfg.Strict || c.Strict
	var sum machinegen.Summary
	for _, path := range c.Paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			readErr := machinegen.SourceReadError(path, err)
			sum.Errors = append(sum.Errors, machinegen.Errorf(0, "%s: %v", path, readErr))
			continue
		}
		host := lint.LintDocument(string(raw))
		sum.Absorb(machinegen.PrefixDiagnostics(path, host.Diagnostics))
		for _, block := range document.Extract(sourceName(path), raw) {
			res := lint.Lint(block.Source, lint.Options{Strict: strict})
			sum.Absorb(machinegen.PrefixDiagnostics(block.Title, res.Diagnostics))
		}
	}
	printFindings(sum)
	fmt.Printf("%d error(s), %d warning(s)\n", len(sum.Errors), len(sum.Warnings))
	return exitStatus(sum, strict)
}

// WatchCmd rebuilds on a cron schedule until the process receives SIGINT or
// SIGTERM.
type WatchCmd struct {
	Schedule string   `help:"Cron expression controlling rebuild cadence (default */1 * * * *)." short:"s"`
	Out      string   `help:"Output directory for generated artifacts." short:"o" placeholder:"DIR"`
	Force    bool     `help:"Regenerate every cycle even when sources are unchanged." short:"f"`
	Paths    []string `arg:"" help:"Markdown or mermaid files holding flow diagrams."`
}

func (c *WatchCmd) Run(rc *runContext) error {
	cfg := rc.cfg
	if c.Out != "" {
		cfg.OutDir = c.Out
	}
	if c.Schedule != "" {
		cfg.Schedule = c.Schedule
	}
	cfg.Force = cfg.Force || c.Force

	p := pipeline.New(cfg,
		pipeline.WithWriter(DirWriter{Root: cfg.OutDir}),
		pipeline.WithLogger(rc.logger),
	)
	r := watch.New(p, c.Paths,
		watch.WithSchedule(cfg.Schedule),
		watch.WithLogger(rc.logger),
	)

	// First build happens immediately; the schedule covers the rest.
	r.Rebuild()
	if err := r.Start(); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	rc.logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.Stop(ctx)
}

func printFindings(sum machinegen.Summary) {
	for _, d := range sum.Warnings {
		printFinding(d)
	}
	for _, d := range sum.Errors {
		printFinding(d)
	}
}

func printFinding(d machinegen.Diagnostic) {
	fmt.Println(d.String())
	if d.Suggestion != "" {
		fmt.Printf("  hint: %s\n", d.Suggestion)
	}
}

// exitStatus turns a summary into the process exit decision. kong prints the
// returned error and exits nonzero.
func exitStatus(sum machinegen.Summary, strict bool) error {
	if sum.HasErrors() {
		return fmt.Errorf("%d error(s)", len(sum.Errors))
	}
	if strict && sum.HasWarnings() {
		return fmt.Errorf("%d warning(s) escalated by strict mode", len(sum.Warnings))
	}
	return nil
}

func sourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
