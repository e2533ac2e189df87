// Package emit renders generation IR into TypeScript artifacts. Each emitter
// produces one artifact family behind a shared interface; a registry maps
// artifact kinds to implementations so the pipeline can render every kind in
// one pass.
package emit

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	machinegen "github.com/goliatone/go-machinegen"
	"github.com/goliatone/go-machinegen/semantic"
)

// Kind identifies one artifact family an emitter produces.
type Kind string

const (
	KindMachine      Kind = "machine"
	KindSmokeTest    Kind = "smoke-test"
	KindCoverageTest Kind = "coverage-test"
	KindBoundaryTest Kind = "boundary-test"
	KindDemo         Kind = "demo"
	KindService      Kind = "service"
)

// AllKinds lists the built-in kinds in canonical emission order. The machine
// artifact renders first so the suites and wrappers that import it always
// follow their subject.
func AllKinds() []Kind {
	return []Kind{
		KindMachine,
		KindSmokeTest,
		KindCoverageTest,
		KindBoundaryTest,
		KindDemo,
		KindService,
	}
}

// Emitter renders one artifact kind from the generation IR. Render never
// mutates the machine; the same IR value is handed to every registered
// emitter in turn.
type Emitter interface {
	Kind() Kind
	Render(m *semantic.GeneratedMachine) (string, error)
}

// FileName returns the artifact filename for a machine id. Custom kinds get
// the kind as an infix so they can never collide with the machine artifact.
func FileName(kind Kind, id string) string {
	switch kind {
	case KindMachine:
		return id + ".ts"
	case KindSmokeTest:
		return id + ".test.ts"
	case KindCoverageTest:
		return id + ".transitions.test.ts"
	case KindBoundaryTest:
		return id + ".errors.test.ts"
	case KindDemo:
		return id + ".demo.ts"
	case KindService:
		return id + ".service.ts"
	default:
		return id + "." + string(kind) + ".ts"
	}
}

// FileKind maps an emitter kind onto the manifest file-kind label.
func FileKind(kind Kind) string {
	switch kind {
	case KindSmokeTest, KindCoverageTest, KindBoundaryTest:
		return machinegen.FileKindTest
	case KindDemo:
		return machinegen.FileKindDemo
	case KindService:
		return machinegen.FileKindService
	default:
		return machinegen.FileKindMachine
	}
}

// ArtifactPath returns the output path for one artifact, relative to the
// output root, inside the machine's category subdirectory.
func ArtifactPath(kind Kind, m *semantic.GeneratedMachine) string {
	return path.Join(m.Category.Subdir(), FileName(kind, m.ID))
}

// Registry maps artifact kinds to emitters. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	emitters map[Kind]Emitter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{emitters: map[Kind]Emitter{}}
}

// Register adds an emitter under its own kind. Registering a second emitter
// for an occupied kind is a conflict; replace requires a fresh registry.
func (r *Registry) Register(e Emitter) error {
	if e == nil {
		return machinegen.NilEmitterError()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.emitters[e.Kind()]; ok {
		return machinegen.EmitterConflictError(string(e.Kind()))
	}
	r.emitters[e.Kind()] = e
	return nil
}

// Get returns the emitter registered for kind.
func (r *Registry) Get(kind Kind) (Emitter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.emitters[kind]
	if !ok {
		return nil, machinegen.UnknownEmitterError(string(kind))
	}
	return e, nil
}

// Kinds lists the registered kinds, built-ins in canonical order first and
// any custom kinds sorted after them.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	known := AllKinds()
	kinds := make([]Kind, 0, len(r.emitters))
	for _, kind := range known {
		if _, ok := r.emitters[kind]; ok {
			kinds = append(kinds, kind)
		}
	}
	var extra []Kind
	for kind := range r.emitters {
		builtin := false
		for _, k := range known {
			if k == kind {
				builtin = true
				break
			}
		}
		if !builtin {
			extra = append(extra, kind)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(kinds, extra...)
}

// DefaultRegistry returns a registry with every built-in emitter installed.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, e := range []Emitter{
		&MachineEmitter{},
		&SmokeTestEmitter{},
		&CoverageTestEmitter{},
		&BoundaryTestEmitter{},
		&DemoEmitter{},
		&ServiceEmitter{},
	} {
		// Built-in kinds are distinct, so registration cannot conflict.
		_ = r.Register(e)
	}
	return r
}

// header prints the shared banner every artifact opens with.
func header(m *semantic.GeneratedMachine, what string) string {
	return fmt.Sprintf("/*\n * %s for %q (%s).\n * Generated from a flow diagram; edits are overwritten on the next build.\n */\n",
		what, m.DisplayName, m.Category)
}

// quote renders s as a single-quoted TypeScript string literal.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\'', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString("\\n")
		case '\t':
			b.WriteString("\\t")
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// quotedList joins names as a comma-separated run of quoted literals.
func quotedList(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = quote(n)
	}
	return strings.Join(parts, ", ")
}

// tsType maps a field kind to its TypeScript annotation.
func tsType(kind semantic.FieldKind) string {
	switch kind {
	case semantic.FieldNumber:
		return "number"
	case semantic.FieldBool:
		return "boolean"
	case semantic.FieldOpaque:
		return "unknown"
	default:
		return "string"
	}
}

func contextTypeName(m *semantic.GeneratedMachine) string {
	return machinegen.ExportName(m.ID) + "Context"
}

func eventTypeName(m *semantic.GeneratedMachine) string {
	return machinegen.ExportName(m.ID) + "Event"
}

func serviceClassName(m *semantic.GeneratedMachine) string {
	return machinegen.ExportName(m.ID) + "Service"
}

func initialContextName(m *semantic.GeneratedMachine) string {
	return m.ID + "InitialContext"
}

// usesUnknownEvent reports whether any transition fires on the fallback name
// unlabeled edges normalize to. The fallback never appears in Events, so the
// event union has to account for it separately.
func usesUnknownEvent(m *semantic.GeneratedMachine) bool {
	for _, st := range m.States {
		for _, tr := range st.Transitions {
			if tr.Event == semantic.EventUnknown {
				return true
			}
		}
	}
	return false
}

// machineEvents lists every sendable event name in declaration order.
func machineEvents(m *semantic.GeneratedMachine) []string {
	names := make([]string, 0, len(m.Events)+1)
	for _, ev := range m.Events {
		names = append(names, ev.Name)
	}
	if usesUnknownEvent(m) {
		names = append(names, semantic.EventUnknown)
	}
	return names
}

// eventKey quotes an event name that cannot stand as a bare object key.
func eventKey(name string) string {
	if name == "" || name[0] >= '0' && name[0] <= '9' {
		return quote(name)
	}
	return name
}

// sendLiteral builds the event object a test or harness sends, including a
// sample value for every payload field the event declares.
func sendLiteral(m *semantic.GeneratedMachine, name string) string {
	ev := m.Event(name)
	if ev == nil || len(ev.Payload) == 0 {
		return fmt.Sprintf("{ type: %s }", quote(name))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "{ type: %s", quote(name))
	for _, f := range ev.Payload {
		fmt.Fprintf(&b, ", %s: %s", f.Name, sampleValue(f.Kind))
	}
	b.WriteString(" }")
	return b.String()
}

func sampleValue(kind semantic.FieldKind) string {
	switch kind {
	case semantic.FieldNumber:
		return "0"
	case semantic.FieldBool:
		return "false"
	case semantic.FieldOpaque:
		return "{}"
	default:
		return quote("test")
	}
}
