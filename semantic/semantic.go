// Package semantic lowers parsed machines into the generation IR. Generate is
// a pure function: the result is built once, never mutated afterward, and
// every emitter reads it as-is. Emitters are not allowed to re-derive
// anything the IR already states.
package semantic

import (
	"sort"
	"strings"

	machinegen "github.com/goliatone/go-machinegen"
	"github.com/goliatone/go-machinegen/diagram"
)

// FieldKind types a context or payload field in the emitted code.
type FieldKind string

const (
	FieldText   FieldKind = "text"
	FieldNumber FieldKind = "number"
	FieldBool   FieldKind = "bool"
	FieldOpaque FieldKind = "opaque"
)

// StateKind classifies a state spec. Parallel and compound are reserved for
// hierarchical lowering and are never produced today.
type StateKind string

const (
	StateNormal   StateKind = "normal"
	StateFinal    StateKind = "final"
	StateParallel StateKind = "parallel"
	StateCompound StateKind = "compound"
)

// Fixed names referenced across states and artifacts.
const (
	EventUnknown         = "UNKNOWN"
	ActionLogTransition  = "logTransition"
	ActionCleanupSession = "cleanupSession"
	ActorExternal        = "externalService"
)

// ContextField is one typed machine-context slot with its default literal.
type ContextField struct {
	Name     string
	Kind     FieldKind
	Default  string // literal as rendered into the emitted code
	Nullable bool
	Doc      string
}

// PayloadField is one typed event-payload slot.
type PayloadField struct {
	Name     string
	Kind     FieldKind
	Optional bool
}

// EventSpec is one inferred event with its payload shape.
type EventSpec struct {
	Name    string // UPPER_SNAKE_CASE
	Payload []PayloadField
	Doc     string // original edge label the event was derived from
}

// Transition is one row of a state's outgoing table.
type Transition struct {
	Event   string // inferred event name, or UNKNOWN for unlabeled edges
	Target  string
	Guard   string
	Actions []string
}

// StateSpec is one state with its entry/exit actions and outgoing table.
type StateSpec struct {
	Name        string
	Kind        StateKind
	Entry       []string
	Exit        []string
	Transitions []Transition
}

// GeneratedMachine is the immutable IR every emitter consumes. Emitters read
// it as-is; anything they need has to be present here.
type GeneratedMachine struct {
	ID              string
	DisplayName     string
	Category        machinegen.Category
	Initial         string
	Context         []ContextField
	Events          []EventSpec
	States          []StateSpec
	Guards          []string // sorted
	Actions         []string // sorted
	Actors          []string // sorted
	RequiredImports []string // sorted runtime symbols the machine artifact imports
}

// State returns the named state spec, or nil.
func (g *GeneratedMachine) State(name string) *StateSpec {
	for i := range g.States {
		if g.States[i].Name == name {
			return &g.States[i]
		}
	}
	return nil
}

// Event returns the named event spec, or nil.
func (g *GeneratedMachine) Event(name string) *EventSpec {
	for i := range g.Events {
		if g.Events[i].Name == name {
			return &g.Events[i]
		}
	}
	return nil
}

var categoryContext = map[machinegen.Category][]ContextField{
	machinegen.CategoryInfo: {
		{Name: "language", Kind: FieldText, Default: "'en'", Doc: "ISO language code for rendered content"},
	},
	machinegen.CategoryUser: {
		{Name: "phoneNumber", Kind: FieldText, Default: "''", Doc: "subscriber the session belongs to"},
		{Name: "sessionId", Kind: FieldText, Default: "''", Doc: "transport session correlation id"},
	},
	machinegen.CategoryAgent: {
		{Name: "agentId", Kind: FieldText, Default: "''", Doc: "authenticated agent identity"},
		{Name: "floatBalance", Kind: FieldNumber, Default: "0", Doc: "working float available to the agent"},
	},
	machinegen.CategoryAccount: {
		{Name: "accountId", Kind: FieldText, Default: "''", Doc: "account under operation"},
		{Name: "balance", Kind: FieldNumber, Default: "0", Doc: "last known account balance"},
	},
	machinegen.CategoryCore: {
		{Name: "transactionId", Kind: FieldText, Default: "''", Doc: "transaction correlation id"},
		{Name: "reference", Kind: FieldText, Default: "''", Doc: "external reference for reconciliation"},
	},
}

var categoryGuard = map[machinegen.Category]string{
	machinegen.CategoryInfo:    "hasSelection",
	machinegen.CategoryUser:    "isValidInput",
	machinegen.CategoryAgent:   "hasAgentPrivileges",
	machinegen.CategoryAccount: "hasSufficientBalance",
	machinegen.CategoryCore:    "isAuthorized",
}

var categoryActor = map[machinegen.Category]string{
	machinegen.CategoryInfo:    "informationService",
	machinegen.CategoryUser:    "userService",
	machinegen.CategoryAgent:   "agentService",
	machinegen.CategoryAccount: "accountService",
	machinegen.CategoryCore:    "coreService",
}

var categoryEntryAction = map[machinegen.Category]string{
	machinegen.CategoryUser:  "validateSession",
	machinegen.CategoryAgent: "validateAgentAccess",
}

// Generate lowers one parsed machine into the generation IR.
func Generate(m diagram.ParsedMachine) GeneratedMachine {
	g := GeneratedMachine{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		Category:    m.Category,
		Initial:     m.InitialNode,
		Context:     contextFields(m),
		Events:      inferEvents(m),
	}

	guards := map[string]bool{}
	actions := map[string]bool{ActionLogTransition: true}
	if a := categoryEntryAction[m.Category]; a != "" {
		actions[a] = true
	}
	actors := map[string]bool{}
	if a := categoryActor[m.Category]; a != "" {
		actors[a] = true
	}

	for _, n := range m.Nodes {
		st := StateSpec{Name: n.ID, Kind: StateNormal, Entry: entryActions(m.Category)}
		if n.IsFinal {
			st.Kind = StateFinal
			st.Exit = []string{ActionCleanupSession}
			actions[ActionCleanupSession] = true
		}
		for _, e := range m.OutgoingEdges(n.ID) {
			tr := Transition{Event: eventFor(e), Target: e.To}
			guard := e.Guard
			if guard == "" && e.Kind == diagram.KindConditional {
				guard = categoryGuard[m.Category]
			}
			tr.Guard = guard
			if guard != "" {
				guards[guard] = true
			}
			if e.Action != "" {
				tr.Actions = append(tr.Actions, e.Action)
				actions[e.Action] = true
			}
			if e.Kind == diagram.KindExternal {
				actors[ActorExternal] = true
			}
			st.Transitions = append(st.Transitions, tr)
		}
		g.States = append(g.States, st)
	}

	g.Guards = sortedKeys(guards)
	g.Actions = sortedKeys(actions)
	g.Actors = sortedKeys(actors)
	g.RequiredImports = requiredImports(g)
	return g
}

func contextFields(m diagram.ParsedMachine) []ContextField {
	fields := append([]ContextField(nil), categoryContext[m.Category]...)
	fields = append(fields, ContextField{
		Name: "error", Kind: FieldText, Default: "null", Nullable: true,
		Doc: "last failure message, cleared on recovery",
	})
	if len(m.Nodes) > 3 {
		fields = append(fields, ContextField{
			Name: "currentStep", Kind: FieldNumber, Default: "0",
			Doc: "progress marker for multi-step flows",
		})
	}
	for _, e := range m.Edges {
		if e.Kind == diagram.KindUserInput {
			fields = append(fields, ContextField{
				Name: "lastInput", Kind: FieldText, Default: "''",
				Doc: "most recent value supplied by the user",
			})
			break
		}
	}
	return fields
}

// inferEvents derives one event per distinct normalized label, in edge order.
// The first edge carrying a label decides the payload shape; later duplicates
// are ignored.
func inferEvents(m diagram.ParsedMachine) []EventSpec {
	var events []EventSpec
	seen := map[string]bool{}
	for _, e := range m.Edges {
		name := eventFor(e)
		if name == EventUnknown || seen[name] {
			continue
		}
		seen[name] = true
		events = append(events, EventSpec{
			Name:    name,
			Payload: payloadFor(e.Kind),
			Doc:     strings.TrimSpace(e.Label),
		})
	}
	return events
}

func eventFor(e diagram.Edge) string {
	name := machinegen.EventName(diagram.StripAnnotations(e.Label))
	if name == "" {
		return EventUnknown
	}
	return name
}

func payloadFor(kind diagram.TransitionKind) []PayloadField {
	switch kind {
	case diagram.KindUserInput:
		return []PayloadField{{Name: "input", Kind: FieldText}}
	case diagram.KindError:
		return []PayloadField{{Name: "message", Kind: FieldText}}
	case diagram.KindExternal:
		return []PayloadField{{Name: "data", Kind: FieldOpaque}}
	}
	return nil
}

func entryActions(cat machinegen.Category) []string {
	entry := []string{ActionLogTransition}
	if a := categoryEntryAction[cat]; a != "" {
		entry = append(entry, a)
	}
	return entry
}

// requiredImports lists the runtime symbols the machine artifact pulls in.
func requiredImports(g GeneratedMachine) []string {
	imports := []string{"assign", "setup"}
	if len(g.Actors) > 0 {
		imports = append(imports, "fromPromise")
	}
	sort.Strings(imports)
	return imports
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
