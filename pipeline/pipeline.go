// Package pipeline sequences the compiler end to end: source reading,
// diagram block isolation, linting, parsing, business validation, IR
// lowering, emission, artifact hand-off, and the manifest commit. Run always
// returns a Summary, whatever went wrong on the way there.
package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	machinegen "github.com/goliatone/go-machinegen"
	"github.com/goliatone/go-machinegen/diagram"
	"github.com/goliatone/go-machinegen/document"
	"github.com/goliatone/go-machinegen/emit"
	"github.com/goliatone/go-machinegen/lint"
	"github.com/goliatone/go-machinegen/manifest"
	"github.com/goliatone/go-machinegen/rules"
	"github.com/goliatone/go-machinegen/semantic"
)

// Discard drops artifacts. It is the default writer so check-style runs can
// compile without touching the output tree; real runs install an OS-backed
// writer.
var Discard = machinegen.FileWriterFunc(func(machinegen.GeneratedFile) error { return nil })

// Pipeline wires the compile stages behind one Run call. Each invocation
// owns its machines for the duration of the call; only the manifest ledger
// persists between runs.
type Pipeline struct {
	cfg      machinegen.Config
	registry *emit.Registry
	writer   machinegen.FileWriter
	logger   machinegen.Logger
	ledger   *manifest.Manager
}

// New builds a pipeline over cfg. Without options it uses the built-in
// emitters, the Discard writer, the fallback logger, and the manifest at
// cfg.ManifestPath.
func New(cfg machinegen.Config, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	if p.registry == nil {
		p.registry = emit.DefaultRegistry()
	}
	if p.writer == nil {
		p.writer = Discard
	}
	p.logger = machinegen.EnsureLogger(p.logger)
	if p.ledger == nil {
		p.ledger = manifest.Load(p.cfg.ManifestPath)
	}
	return p
}

// Manifest exposes the ledger the pipeline consults and commits.
func (p *Pipeline) Manifest() *manifest.Manager { return p.ledger }

// Run compiles sources into artifacts. The returned summary is always
// usable: syntax and validation findings become diagnostics, I/O failures
// become error entries, and the batch never aborts early.
func (p *Pipeline) Run(sources []string) machinegen.Summary {
	start := time.Now()
	summary := p.compile(sources)
	summary.Stats.DurationMs = time.Since(start).Milliseconds()
	p.logger.Info("generation finished machines=%d files=%d loc=%d errors=%d warnings=%d",
		summary.Stats.MachinesGenerated, summary.Stats.FilesCreated,
		summary.Stats.LinesOfCode, len(summary.Errors), len(summary.Warnings))
	return summary
}

func (p *Pipeline) compile(sources []string) machinegen.Summary {
	var summary machinegen.Summary

	if !p.cfg.Force && len(sources) > 0 && p.ledger.IsUpToDate(sources) {
		p.logger.Info("sources unchanged, skipping generation count=%d", len(sources))
		return summary
	}

	// Stage 1: read sources, lint hosts and blocks, assemble machines.
	ioClean := true
	var readable []string
	var machines []diagram.ParsedMachine
	for _, src := range sources {
		raw, err := os.ReadFile(src)
		if err != nil {
			ioClean = false
			p.logger.Error("source read failed path=%s err=%v", src, err)
			readErr := machinegen.SourceReadError(src, err)
			summary.Errors = append(summary.Errors, machinegen.Errorf(0, "%s: %v", src, readErr))
			continue
		}
		readable = append(readable, src)

		host := lint.LintDocument(string(raw))
		summary.Absorb(machinegen.PrefixDiagnostics(src, host.Diagnostics))

		for _, block := range document.Extract(sourceName(src), raw) {
			res := lint.Lint(block.Source, lint.Options{Strict: p.cfg.Strict})
			summary.Absorb(machinegen.PrefixDiagnostics(block.Title, res.Diagnostics))

			parsed, diags := diagram.Parse(block.Title, block.Source)
			summary.Absorb(machinegen.PrefixDiagnostics(block.Title, diags))
			machines = append(machines, parsed...)
		}
	}

	// Stage 2: business validation, per machine and across the batch.
	summaries := make([]rules.MachineSummary, len(machines))
	blocked := make([]bool, len(machines))
	blockedAny := false
	for i, m := range machines {
		summaries[i] = rules.Summarize(m)
		res := rules.Validate(summaries[i])
		summary.Absorb(machinegen.PrefixDiagnostics(m.ID, res.Diagnostics))
		if p.cfg.BlockOnErrors && !res.Valid {
			blocked[i] = true
			blockedAny = true
			p.logger.Warn("validation blocked emission machine=%s errors=%d", m.ID, res.Errors)
		}
	}
	summary.Absorb(rules.ValidateBatch(summaries).Diagnostics)

	// Stage 3: lower each machine and render every registered artifact kind.
	var emitted []string
	for i, m := range machines {
		if blocked[i] {
			continue
		}
		ir := semantic.Generate(m)
		files, errs := p.render(&ir)
		for _, err := range errs {
			ioClean = false
			summary.Errors = append(summary.Errors, machinegen.Errorf(0, "%s: %v", m.ID, err))
		}
		if len(files) == 0 {
			continue
		}
		summary.Stats.MachinesGenerated++
		for _, file := range files {
			if err := p.writer.WriteFile(file); err != nil {
				ioClean = false
				writeErr := machinegen.ArtifactWriteError(file.Path, err)
				summary.Errors = append(summary.Errors, machinegen.Errorf(0, "%s: %v", file.Path, writeErr))
				continue
			}
			summary.GeneratedFiles = append(summary.GeneratedFiles, file)
			summary.Stats.FilesCreated++
			summary.Stats.LinesOfCode += strings.Count(file.Content, "\n")
			emitted = append(emitted, filepath.Join(p.cfg.OutDir, file.Path))
		}
	}

	// Stage 4: commit the ledger only after a full emission. A run with read,
	// render, or write failures, or with blocked machines, must stay
	// rebuildable.
	if ioClean && !blockedAny && len(readable) > 0 {
		if err := p.ledger.Commit(readable, emitted); err != nil {
			summary.Errors = append(summary.Errors, machinegen.Errorf(0, "manifest: %v", err))
		}
	}
	return summary
}

// render runs every registered emitter over one machine. A failing or
// panicking emitter costs only its own artifact; the rest of the set stays
// intact.
func (p *Pipeline) render(ir *semantic.GeneratedMachine) ([]machinegen.GeneratedFile, []error) {
	var files []machinegen.GeneratedFile
	var errs []error
	for _, kind := range p.registry.Kinds() {
		e, err := p.registry.Get(kind)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		content, err := p.renderOne(e, ir)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		files = append(files, machinegen.NewGeneratedFile(
			emit.ArtifactPath(kind, ir), emit.FileKind(kind), content))
	}
	return files, errs
}

func (p *Pipeline) renderOne(e emit.Emitter, ir *semantic.GeneratedMachine) (content string, err error) {
	defer machinegen.RecoverInto(&err, string(e.Kind()), p.logger)
	return e.Render(ir)
}

func sourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
