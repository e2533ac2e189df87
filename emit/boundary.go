package emit

import (
	"fmt"
	"strings"

	machinegen "github.com/goliatone/go-machinegen"
	"github.com/goliatone/go-machinegen/semantic"
)

// BoundaryTestEmitter renders the hostile-input suite. Every payload-bearing
// event is replayed with the boundary catalog in its first payload slot, and
// every state is probed with an event the machine never declared. The suite
// asserts survival, not outcomes: the actor must keep a usable snapshot.
type BoundaryTestEmitter struct{}

// boundaryProbe is deliberately outside the UPPER_SNAKE_CASE space real
// events normalize into, so it can never collide with a declared event.
const boundaryProbe = "__BOUNDARY_PROBE__"

var boundaryValues = []string{
	"null",
	"undefined",
	"''",
	"'x'.repeat(10000)",
	quote(`!@#$%^&*()[]{}<>;:,.?/|\`),
	"0",
	"-1",
	"Number.MAX_SAFE_INTEGER",
}

func (BoundaryTestEmitter) Kind() Kind { return KindBoundaryTest }

func (BoundaryTestEmitter) Render(m *semantic.GeneratedMachine) (string, error) {
	if m == nil {
		return "", machinegen.NilMachineError()
	}
	payloadEvents := make([]semantic.EventSpec, 0, len(m.Events))
	for _, ev := range m.Events {
		if len(ev.Payload) > 0 {
			payloadEvents = append(payloadEvents, ev)
		}
	}

	var b strings.Builder
	b.WriteString(header(m, "Boundary input tests"))
	b.WriteString("\n")
	b.WriteString("import { createActor } from 'xstate';\n")
	b.WriteString("import { describe, expect, it } from 'vitest';\n\n")
	fmt.Fprintf(&b, "import { %s, %s } from './%s';\n\n", m.ID, initialContextName(m), m.ID)

	if len(payloadEvents) > 0 {
		b.WriteString("const boundaryValues = [\n")
		for _, v := range boundaryValues {
			fmt.Fprintf(&b, "  %s,\n", v)
		}
		b.WriteString("];\n\n")
	}

	fmt.Fprintf(&b, "describe(%s, () => {\n", quote(m.ID+" boundary inputs"))
	blocks := 0
	for _, ev := range payloadEvents {
		if blocks > 0 {
			b.WriteString("\n")
		}
		blocks++
		fmt.Fprintf(&b, "  it('%s survives hostile payloads', () => {\n", ev.Name)
		b.WriteString("    for (const value of boundaryValues) {\n")
		fmt.Fprintf(&b, "      const actor = createActor(%s);\n", m.ID)
		b.WriteString("      actor.start();\n")
		fmt.Fprintf(&b, "      actor.send(%s as never);\n", hostileSend(ev))
		b.WriteString("      expect(actor.getSnapshot()).toBeDefined();\n")
		b.WriteString("      actor.stop();\n")
		b.WriteString("    }\n")
		b.WriteString("  });\n")
	}
	for _, st := range m.States {
		if blocks > 0 {
			b.WriteString("\n")
		}
		blocks++
		fmt.Fprintf(&b, "  it('%s ignores events it never declared', () => {\n", st.Name)
		fmt.Fprintf(&b, "    const actor = createActor(%s, {\n", m.ID)
		fmt.Fprintf(&b, "      snapshot: %s.resolveState({ value: %s, context: %s }),\n",
			m.ID, quote(st.Name), initialContextName(m))
		b.WriteString("    });\n")
		b.WriteString("    actor.start();\n")
		fmt.Fprintf(&b, "    actor.send({ type: %s } as never);\n", quote(boundaryProbe))
		fmt.Fprintf(&b, "    expect(actor.getSnapshot().value).toBe(%s);\n", quote(st.Name))
		b.WriteString("    actor.stop();\n")
		b.WriteString("  });\n")
	}
	b.WriteString("});\n")
	return b.String(), nil
}

// hostileSend injects the looped boundary value into the event's first
// payload slot; any further slots keep their sample values.
func hostileSend(ev semantic.EventSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "{ type: %s", quote(ev.Name))
	for i, f := range ev.Payload {
		if i == 0 {
			fmt.Fprintf(&b, ", %s: value", f.Name)
			continue
		}
		fmt.Fprintf(&b, ", %s: %s", f.Name, sampleValue(f.Kind))
	}
	b.WriteString(" }")
	return b.String()
}
