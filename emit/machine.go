package emit

import (
	"fmt"
	"strings"

	machinegen "github.com/goliatone/go-machinegen"
	"github.com/goliatone/go-machinegen/semantic"
)

// MachineEmitter renders the machine definition artifact: a typed context
// interface, the event union, the initial context constant, and a setup block
// wiring guards, actions, and actors into the state chart.
type MachineEmitter struct{}

func (MachineEmitter) Kind() Kind { return KindMachine }

func (MachineEmitter) Render(m *semantic.GeneratedMachine) (string, error) {
	if m == nil {
		return "", machinegen.NilMachineError()
	}
	var b strings.Builder
	b.WriteString(header(m, "State machine"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "import { %s } from 'xstate';\n\n", strings.Join(m.RequiredImports, ", "))
	writeContextInterface(&b, m)
	writeEventUnion(&b, m)
	writeInitialContext(&b, m)
	writeSetup(&b, m)
	writeChart(&b, m)
	return b.String(), nil
}

func writeContextInterface(b *strings.Builder, m *semantic.GeneratedMachine) {
	fmt.Fprintf(b, "/** Context carried across every %s state. */\n", m.ID)
	fmt.Fprintf(b, "export interface %s {\n", contextTypeName(m))
	for _, f := range m.Context {
		if f.Doc != "" {
			fmt.Fprintf(b, "  /** %s */\n", f.Doc)
		}
		suffix := ""
		if f.Nullable {
			suffix = " | null"
		}
		fmt.Fprintf(b, "  %s: %s%s;\n", f.Name, tsType(f.Kind), suffix)
	}
	b.WriteString("}\n\n")
}

func writeEventUnion(b *strings.Builder, m *semantic.GeneratedMachine) {
	fmt.Fprintf(b, "/** Every event %s reacts to. */\n", m.ID)
	entries := make([]string, 0, len(m.Events)+1)
	for _, ev := range m.Events {
		entries = append(entries, eventEntry(ev))
	}
	if usesUnknownEvent(m) {
		entries = append(entries, fmt.Sprintf("{ type: %s }", quote(semantic.EventUnknown)))
	}
	if len(entries) == 0 {
		fmt.Fprintf(b, "export type %s = never;\n\n", eventTypeName(m))
		return
	}
	fmt.Fprintf(b, "export type %s =\n", eventTypeName(m))
	for i, entry := range entries {
		terminator := ""
		if i == len(entries)-1 {
			terminator = ";"
		}
		fmt.Fprintf(b, "  | %s%s\n", entry, terminator)
	}
	b.WriteString("\n")
}

func eventEntry(ev semantic.EventSpec) string {
	if len(ev.Payload) == 0 {
		return fmt.Sprintf("{ type: %s }", quote(ev.Name))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "{ type: %s", quote(ev.Name))
	for _, f := range ev.Payload {
		optional := ""
		if f.Optional {
			optional = "?"
		}
		fmt.Fprintf(&b, "; %s%s: %s", f.Name, optional, tsType(f.Kind))
	}
	b.WriteString(" }")
	return b.String()
}

func writeInitialContext(b *strings.Builder, m *semantic.GeneratedMachine) {
	fmt.Fprintf(b, "export const %s: %s = {\n", initialContextName(m), contextTypeName(m))
	for _, f := range m.Context {
		fmt.Fprintf(b, "  %s: %s,\n", f.Name, f.Default)
	}
	b.WriteString("};\n\n")
}

func writeSetup(b *strings.Builder, m *semantic.GeneratedMachine) {
	fmt.Fprintf(b, "export const %s = setup({\n", m.ID)
	b.WriteString("  types: {\n")
	fmt.Fprintf(b, "    context: {} as %s,\n", contextTypeName(m))
	fmt.Fprintf(b, "    events: {} as %s,\n", eventTypeName(m))
	b.WriteString("  },\n")
	if len(m.Guards) > 0 {
		b.WriteString("  guards: {\n")
		for _, g := range m.Guards {
			fmt.Fprintf(b, "    %s: () => true,\n", g)
		}
		b.WriteString("  },\n")
	}
	if len(m.Actions) > 0 {
		b.WriteString("  actions: {\n")
		for _, a := range m.Actions {
			writeActionBody(b, m, a)
		}
		b.WriteString("  },\n")
	}
	if len(m.Actors) > 0 {
		b.WriteString("  actors: {\n")
		for _, a := range m.Actors {
			fmt.Fprintf(b, "    %s: fromPromise(async () => ({})),\n", a)
		}
		b.WriteString("  },\n")
	}
	b.WriteString("})")
}

// writeActionBody renders one named action. The well-known names carry real
// behavior; everything else starts as a logging stub the team fills in.
func writeActionBody(b *strings.Builder, m *semantic.GeneratedMachine, name string) {
	switch name {
	case semantic.ActionLogTransition:
		fmt.Fprintf(b, "    %s: ({ event }) => {\n      console.log(%s, event.type);\n    },\n",
			name, quote("["+m.ID+"]"))
	case semantic.ActionCleanupSession:
		fmt.Fprintf(b, "    %s: assign({ error: () => null }),\n", name)
	case "validateSession":
		fmt.Fprintf(b, "    %s: ({ context }) => {\n      if (context.sessionId === '') {\n        console.warn(%s);\n      }\n    },\n",
			name, quote("["+m.ID+"] no session established"))
	case "validateAgentAccess":
		fmt.Fprintf(b, "    %s: ({ context }) => {\n      if (context.agentId === '') {\n        console.warn(%s);\n      }\n    },\n",
			name, quote("["+m.ID+"] no agent authenticated"))
	default:
		fmt.Fprintf(b, "    %s: ({ event }) => {\n      console.log(%s, event.type);\n    },\n",
			name, quote(name))
	}
}

func writeChart(b *strings.Builder, m *semantic.GeneratedMachine) {
	b.WriteString(".createMachine({\n")
	fmt.Fprintf(b, "  id: %s,\n", quote(m.ID))
	if m.Initial != "" {
		fmt.Fprintf(b, "  initial: %s,\n", quote(m.Initial))
	}
	fmt.Fprintf(b, "  context: %s,\n", initialContextName(m))
	b.WriteString("  states: {\n")
	for _, st := range m.States {
		writeState(b, st)
	}
	b.WriteString("  },\n")
	b.WriteString("});\n")
}

func writeState(b *strings.Builder, st semantic.StateSpec) {
	fmt.Fprintf(b, "    %s: {\n", st.Name)
	if st.Kind == semantic.StateFinal {
		b.WriteString("      type: 'final',\n")
	}
	if len(st.Entry) > 0 {
		fmt.Fprintf(b, "      entry: [%s],\n", quotedList(st.Entry))
	}
	if len(st.Exit) > 0 {
		fmt.Fprintf(b, "      exit: [%s],\n", quotedList(st.Exit))
	}
	writeTransitionTable(b, st)
	b.WriteString("    },\n")
}

// writeTransitionTable groups a state's rows by event: a lone row renders as
// an object, parallel rows for one event render as a candidate array.
func writeTransitionTable(b *strings.Builder, st semantic.StateSpec) {
	if len(st.Transitions) == 0 {
		return
	}
	var order []string
	byEvent := map[string][]semantic.Transition{}
	for _, tr := range st.Transitions {
		if _, ok := byEvent[tr.Event]; !ok {
			order = append(order, tr.Event)
		}
		byEvent[tr.Event] = append(byEvent[tr.Event], tr)
	}
	b.WriteString("      on: {\n")
	for _, ev := range order {
		rows := byEvent[ev]
		if len(rows) == 1 {
			fmt.Fprintf(b, "        %s: %s,\n", eventKey(ev), transitionRow(rows[0]))
			continue
		}
		fmt.Fprintf(b, "        %s: [\n", eventKey(ev))
		for _, tr := range rows {
			fmt.Fprintf(b, "          %s,\n", transitionRow(tr))
		}
		b.WriteString("        ],\n")
	}
	b.WriteString("      },\n")
}

func transitionRow(tr semantic.Transition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "{ target: %s", quote(tr.Target))
	if tr.Guard != "" {
		fmt.Fprintf(&b, ", guard: %s", quote(tr.Guard))
	}
	if len(tr.Actions) > 0 {
		fmt.Fprintf(&b, ", actions: [%s]", quotedList(tr.Actions))
	}
	b.WriteString(" }")
	return b.String()
}
