package emit

import (
	"fmt"
	"strings"

	machinegen "github.com/goliatone/go-machinegen"
	"github.com/goliatone/go-machinegen/semantic"
)

// CoverageTestEmitter renders one test per reachable transition-table row.
// Each test resolves the actor directly at the source state, fires the event,
// and asserts the target. When a state declares several rows for one event,
// only the first can fire against the generated guard stubs, so later rows
// are not asserted.
type CoverageTestEmitter struct{}

func (CoverageTestEmitter) Kind() Kind { return KindCoverageTest }

func (CoverageTestEmitter) Render(m *semantic.GeneratedMachine) (string, error) {
	if m == nil {
		return "", machinegen.NilMachineError()
	}
	rows := coverageRows(m)

	var b strings.Builder
	b.WriteString(header(m, "Transition coverage tests"))
	b.WriteString("\n")
	b.WriteString("import { createActor } from 'xstate';\n")
	b.WriteString("import { describe, expect, it } from 'vitest';\n\n")
	fmt.Fprintf(&b, "import { %s, %s } from './%s';\n\n", m.ID, initialContextName(m), m.ID)

	fmt.Fprintf(&b, "describe(%s, () => {\n", quote(m.ID+" transitions"))
	if len(rows) == 0 {
		b.WriteString("  it('has no transitions to exercise', () => {\n")
		fmt.Fprintf(&b, "    const actor = createActor(%s);\n", m.ID)
		b.WriteString("    actor.start();\n")
		b.WriteString("    expect(actor.getSnapshot()).toBeDefined();\n")
		b.WriteString("    actor.stop();\n")
		b.WriteString("  });\n")
	}
	for i, row := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		name := fmt.Sprintf("%s: %s -> %s", row.state, row.tr.Event, row.tr.Target)
		fmt.Fprintf(&b, "  it(%s, () => {\n", quote(name))
		fmt.Fprintf(&b, "    const actor = createActor(%s, {\n", m.ID)
		fmt.Fprintf(&b, "      snapshot: %s.resolveState({ value: %s, context: %s }),\n",
			m.ID, quote(row.state), initialContextName(m))
		b.WriteString("    });\n")
		b.WriteString("    actor.start();\n")
		fmt.Fprintf(&b, "    actor.send(%s);\n", sendLiteral(m, row.tr.Event))
		fmt.Fprintf(&b, "    expect(actor.getSnapshot().value).toBe(%s);\n", quote(row.tr.Target))
		b.WriteString("    actor.stop();\n")
		b.WriteString("  });\n")
	}
	b.WriteString("});\n")
	return b.String(), nil
}

type coverageRow struct {
	state string
	tr    semantic.Transition
}

func coverageRows(m *semantic.GeneratedMachine) []coverageRow {
	var rows []coverageRow
	for _, st := range m.States {
		seen := map[string]bool{}
		for _, tr := range st.Transitions {
			if seen[tr.Event] {
				continue
			}
			seen[tr.Event] = true
			rows = append(rows, coverageRow{state: st.Name, tr: tr})
		}
	}
	return rows
}
