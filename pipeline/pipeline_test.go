package pipeline

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	machinegen "github.com/goliatone/go-machinegen"
	"github.com/goliatone/go-machinegen/emit"
	"github.com/goliatone/go-machinegen/semantic"
)

// diskWriter lands artifacts under a root directory so manifest commits can
// stat what the run claims to have produced.
type diskWriter struct {
	root string
}

func (w diskWriter) WriteFile(f machinegen.GeneratedFile) error {
	path := filepath.Join(w.root, f.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(f.Content), 0o644)
}

type stubEmitter struct {
	kind emit.Kind
	fail bool
}

func (e stubEmitter) Kind() emit.Kind { return e.kind }

func (e stubEmitter) Render(*semantic.GeneratedMachine) (string, error) {
	if e.fail {
		panic("render exploded")
	}
	return "export {};\n", nil
}

func newTestPipeline(cfg machinegen.Config, opts ...Option) *Pipeline {
	opts = append(opts, WithLogger(machinegen.NewFmtLogger(io.Discard)))
	return New(cfg, opts...)
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func hasDiagnostic(diags []machinegen.Diagnostic, substr string) bool {
	for _, d := range diags {
		if strings.Contains(d.Message, substr) {
			return true
		}
	}
	return false
}

// twoMachineDoc hosts one user flow and one core flow, both clean under the
// lint checker and the business validator.
func twoMachineDoc() string {
	return strings.Join([]string{
		"# Flows",
		"",
		"## ATM Machine",
		"",
		"```mermaid",
		"flowchart TD",
		"    Idle[Waiting]",
		"    Pin[Verify PIN]",
		"    Menu[Main Menu]",
		"    Done[Goodbye]",
		"    classDef user-flow fill:#f9f",
		"    class Idle,Pin,Menu,Done user-flow",
		"    Idle-->|INSERT_CARD|Pin",
		"    Pin-->|PIN_OK|Menu",
		"    Menu-->|QUIT|Done",
		"```",
		"",
		"## Job Runner",
		"",
		"```mermaid",
		"flowchart TD",
		"    Begin[Boot]",
		"    Work[Process Job]",
		"    Finish[Close Out]",
		"    classDef core-task fill:#bbf",
		"    class Begin,Work,Finish core-task",
		"    Begin-->|JOB_READY|Work",
		"    Work-->|JOB_DONE|Finish",
		"```",
		"",
	}, "\n")
}

// pingDoc is the smallest clean machine: two states, one transition.
func pingDoc() string {
	return strings.Join([]string{
		"## Ping",
		"",
		"```mermaid",
		"flowchart TD",
		"    Start[Hi]",
		"    Donezo[Goodbye]",
		"    Start-->|PING|Donezo",
		"```",
		"",
	}, "\n")
}

// loopDoc declares a final state with an outgoing transition, which the
// business validator scores as an error.
func loopDoc() string {
	return strings.Join([]string{
		"## Loop",
		"",
		"```mermaid",
		"flowchart TD",
		"    Start[Hello]",
		"    Out[Goodbye]",
		"    Start-->|GO|Out",
		"    Out-->|AGAIN|Start",
		"```",
		"",
	}, "\n")
}

// namingDoc carries a snake_case state id, a convention finding for the lint
// checker.
func namingDoc() string {
	return strings.Join([]string{
		"## Naming",
		"",
		"```mermaid",
		"flowchart TD",
		"    Start[Hi]",
		"    bad_state[Oops End]",
		"    Start-->|GO|bad_state",
		"```",
		"",
	}, "\n")
}

func TestRunGeneratesArtifacts(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "flows.md", twoMachineDoc())
	out := filepath.Join(dir, "generated")
	cfg := machinegen.Config{OutDir: out, ManifestPath: filepath.Join(dir, "manifest.json")}

	sum := newTestPipeline(cfg, WithWriter(diskWriter{root: out})).Run([]string{src})
	if sum.HasErrors() {
		t.Fatalf("unexpected errors: %+v", sum.Errors)
	}
	if sum.HasWarnings() {
		t.Fatalf("unexpected warnings: %+v", sum.Warnings)
	}
	if sum.Stats.MachinesGenerated != 2 || sum.Stats.FilesCreated != 12 {
		t.Fatalf("stats: %+v", sum.Stats)
	}
	if len(sum.GeneratedFiles) != 12 || sum.Stats.LinesOfCode == 0 {
		t.Fatalf("expected 12 artifacts with content, got %d", len(sum.GeneratedFiles))
	}

	paths := map[string]bool{}
	for _, f := range sum.GeneratedFiles {
		paths[f.Path] = true
	}
	for _, want := range []string{
		"user-services/atmmachine.ts",
		"user-services/atmmachine.test.ts",
		"user-services/atmmachine.transitions.test.ts",
		"user-services/atmmachine.errors.test.ts",
		"user-services/atmmachine.demo.ts",
		"user-services/atmmachine.service.ts",
		"core/jobrunnermachine.ts",
		"core/jobrunnermachine.service.ts",
	} {
		if !paths[want] {
			t.Fatalf("missing artifact %s in %v", want, paths)
		}
	}

	if _, err := os.Stat(filepath.Join(out, "core", "jobrunnermachine.demo.ts")); err != nil {
		t.Fatalf("artifact not on disk: %v", err)
	}
	if _, err := os.Stat(cfg.ManifestPath); err != nil {
		t.Fatalf("manifest not committed: %v", err)
	}
}

func TestRunSkipsWhenUpToDate(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "flows.md", twoMachineDoc())
	out := filepath.Join(dir, "generated")
	cfg := machinegen.Config{OutDir: out, ManifestPath: filepath.Join(dir, "manifest.json")}

	first := newTestPipeline(cfg, WithWriter(diskWriter{root: out})).Run([]string{src})
	if first.Stats.FilesCreated != 12 {
		t.Fatalf("seed run: %+v", first.Stats)
	}

	// A fresh pipeline reloads the committed ledger from disk.
	second := newTestPipeline(cfg, WithWriter(diskWriter{root: out})).Run([]string{src})
	if second.Stats.MachinesGenerated != 0 || second.Stats.FilesCreated != 0 || len(second.GeneratedFiles) != 0 {
		t.Fatalf("expected a skipped run, got %+v", second.Stats)
	}
}

func TestRunForceRegenerates(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "flows.md", twoMachineDoc())
	out := filepath.Join(dir, "generated")
	cfg := machinegen.Config{OutDir: out, ManifestPath: filepath.Join(dir, "manifest.json")}

	if sum := newTestPipeline(cfg, WithWriter(diskWriter{root: out})).Run([]string{src}); sum.Stats.FilesCreated != 12 {
		t.Fatalf("seed run: %+v", sum.Stats)
	}

	cfg.Force = true
	sum := newTestPipeline(cfg, WithWriter(diskWriter{root: out})).Run([]string{src})
	if sum.Stats.MachinesGenerated != 2 || sum.Stats.FilesCreated != 12 {
		t.Fatalf("forced run should regenerate: %+v", sum.Stats)
	}
}

func TestRunRecordsReadErrors(t *testing.T) {
	dir := t.TempDir()
	ghost := filepath.Join(dir, "ghost.md")
	src := writeSource(t, dir, "ping.md", pingDoc())
	out := filepath.Join(dir, "generated")
	cfg := machinegen.Config{OutDir: out, ManifestPath: filepath.Join(dir, "manifest.json")}

	sum := newTestPipeline(cfg, WithWriter(diskWriter{root: out})).Run([]string{ghost, src})
	if len(sum.Errors) != 1 || !strings.Contains(sum.Errors[0].Message, "ghost.md") {
		t.Fatalf("read failure not recorded: %+v", sum.Errors)
	}
	if sum.Stats.MachinesGenerated != 1 {
		t.Fatalf("healthy source should still compile: %+v", sum.Stats)
	}
	if _, err := os.Stat(cfg.ManifestPath); !os.IsNotExist(err) {
		t.Fatal("manifest committed despite a read failure")
	}
}

func TestRunBlockOnErrors(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "loop.md", loopDoc())
	out := filepath.Join(dir, "generated")

	blocked := machinegen.Config{
		OutDir:        out,
		ManifestPath:  filepath.Join(dir, "blocked.manifest.json"),
		BlockOnErrors: true,
	}
	sum := newTestPipeline(blocked, WithWriter(diskWriter{root: out})).Run([]string{src})
	if !hasDiagnostic(sum.Errors, `loopmachine: final state "Out" has outgoing transitions`) {
		t.Fatalf("missing validation error: %+v", sum.Errors)
	}
	if sum.Stats.MachinesGenerated != 0 || len(sum.GeneratedFiles) != 0 {
		t.Fatalf("blocked machine still emitted: %+v", sum.Stats)
	}
	if _, err := os.Stat(blocked.ManifestPath); !os.IsNotExist(err) {
		t.Fatal("manifest committed for a blocked run")
	}

	// Default behavior emits anyway and leaves gating to the caller.
	permissive := machinegen.Config{OutDir: out, ManifestPath: filepath.Join(dir, "manifest.json")}
	sum = newTestPipeline(permissive, WithWriter(diskWriter{root: out})).Run([]string{src})
	if !sum.HasErrors() {
		t.Fatalf("validation errors lost: %+v", sum)
	}
	if sum.Stats.MachinesGenerated != 1 || sum.Stats.FilesCreated != 6 {
		t.Fatalf("default run should emit despite errors: %+v", sum.Stats)
	}
}

func TestRunStrictEscalatesLintWarnings(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "naming.md", namingDoc())
	out := filepath.Join(dir, "generated")

	relaxed := machinegen.Config{OutDir: out, ManifestPath: filepath.Join(dir, "relaxed.manifest.json")}
	sum := newTestPipeline(relaxed, WithWriter(diskWriter{root: out})).Run([]string{src})
	if sum.HasErrors() {
		t.Fatalf("relaxed run should only warn: %+v", sum.Errors)
	}
	if !hasDiagnostic(sum.Warnings, "not PascalCase") {
		t.Fatalf("missing convention warning: %+v", sum.Warnings)
	}

	strict := machinegen.Config{
		OutDir:       out,
		ManifestPath: filepath.Join(dir, "strict.manifest.json"),
		Strict:       true,
	}
	sum = newTestPipeline(strict, WithWriter(diskWriter{root: out})).Run([]string{src})
	if !hasDiagnostic(sum.Errors, "not PascalCase") {
		t.Fatalf("strict run kept the finding a warning: %+v", sum.Warnings)
	}
}

func TestRunEmitterPanicIsolated(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "ping.md", pingDoc())
	out := filepath.Join(dir, "generated")

	reg := emit.NewRegistry()
	if err := reg.Register(stubEmitter{kind: emit.KindMachine}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(stubEmitter{kind: emit.Kind("explosive"), fail: true}); err != nil {
		t.Fatalf("register: %v", err)
	}

	cfg := machinegen.Config{OutDir: out, ManifestPath: filepath.Join(dir, "manifest.json")}
	sum := newTestPipeline(cfg, WithWriter(diskWriter{root: out}), WithRegistry(reg)).Run([]string{src})
	if len(sum.GeneratedFiles) != 1 || sum.GeneratedFiles[0].Path != "user-services/pingmachine.ts" {
		t.Fatalf("surviving artifact: %+v", sum.GeneratedFiles)
	}
	if !hasDiagnostic(sum.Errors, "emitter panicked") {
		t.Fatalf("panic not recorded: %+v", sum.Errors)
	}
	if _, err := os.Stat(cfg.ManifestPath); !os.IsNotExist(err) {
		t.Fatal("manifest committed despite a failed emitter")
	}
}

func TestRunAlwaysReturnsSummary(t *testing.T) {
	dir := t.TempDir()
	cfg := machinegen.Config{OutDir: filepath.Join(dir, "generated"), ManifestPath: filepath.Join(dir, "manifest.json")}

	sum := newTestPipeline(cfg).Run(nil)
	if sum.HasErrors() || sum.HasWarnings() {
		t.Fatalf("empty batch produced findings: %+v", sum)
	}
	if sum.Stats.MachinesGenerated != 0 || sum.Stats.FilesCreated != 0 || len(sum.GeneratedFiles) != 0 {
		t.Fatalf("empty batch produced artifacts: %+v", sum.Stats)
	}
	if sum.Stats.DurationMs < 0 {
		t.Fatalf("negative duration: %d", sum.Stats.DurationMs)
	}
}
