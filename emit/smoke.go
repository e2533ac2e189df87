package emit

import (
	"fmt"
	"strings"

	machinegen "github.com/goliatone/go-machinegen"
	"github.com/goliatone/go-machinegen/semantic"
)

// SmokeTestEmitter renders the basic suite: actor lifecycle, initial state,
// context defaults, and one walk along the first transition out of the
// initial state.
type SmokeTestEmitter struct{}

func (SmokeTestEmitter) Kind() Kind { return KindSmokeTest }

func (SmokeTestEmitter) Render(m *semantic.GeneratedMachine) (string, error) {
	if m == nil {
		return "", machinegen.NilMachineError()
	}
	var b strings.Builder
	b.WriteString(header(m, "Smoke tests"))
	b.WriteString("\n")
	b.WriteString("import { createActor } from 'xstate';\n")
	b.WriteString("import { describe, expect, it } from 'vitest';\n\n")
	fmt.Fprintf(&b, "import { %s, %s } from './%s';\n\n", m.ID, initialContextName(m), m.ID)

	fmt.Fprintf(&b, "describe(%s, () => {\n", quote(m.ID))
	b.WriteString("  it('starts and stops cleanly', () => {\n")
	fmt.Fprintf(&b, "    const actor = createActor(%s);\n", m.ID)
	b.WriteString("    actor.start();\n")
	b.WriteString("    expect(actor.getSnapshot()).toBeDefined();\n")
	b.WriteString("    actor.stop();\n")
	b.WriteString("  });\n")

	if m.Initial != "" {
		b.WriteString("\n")
		fmt.Fprintf(&b, "  it('enters %s first', () => {\n", m.Initial)
		fmt.Fprintf(&b, "    const actor = createActor(%s);\n", m.ID)
		b.WriteString("    actor.start();\n")
		fmt.Fprintf(&b, "    expect(actor.getSnapshot().value).toBe(%s);\n", quote(m.Initial))
		b.WriteString("    actor.stop();\n")
		b.WriteString("  });\n")
	}

	b.WriteString("\n")
	b.WriteString("  it('seeds the default context', () => {\n")
	fmt.Fprintf(&b, "    const actor = createActor(%s);\n", m.ID)
	b.WriteString("    actor.start();\n")
	fmt.Fprintf(&b, "    expect(actor.getSnapshot().context).toEqual(%s);\n", initialContextName(m))
	b.WriteString("    actor.stop();\n")
	b.WriteString("  });\n")

	if tr, ok := firstTransition(m); ok {
		b.WriteString("\n")
		fmt.Fprintf(&b, "  it('moves to %s on %s', () => {\n", tr.Target, tr.Event)
		fmt.Fprintf(&b, "    const actor = createActor(%s);\n", m.ID)
		b.WriteString("    actor.start();\n")
		fmt.Fprintf(&b, "    actor.send(%s);\n", sendLiteral(m, tr.Event))
		fmt.Fprintf(&b, "    expect(actor.getSnapshot().value).toBe(%s);\n", quote(tr.Target))
		b.WriteString("    actor.stop();\n")
		b.WriteString("  });\n")
	}
	b.WriteString("});\n")
	return b.String(), nil
}

// firstTransition returns the first row out of the initial state, if any.
func firstTransition(m *semantic.GeneratedMachine) (semantic.Transition, bool) {
	st := m.State(m.Initial)
	if st == nil || len(st.Transitions) == 0 {
		return semantic.Transition{}, false
	}
	return st.Transitions[0], true
}
