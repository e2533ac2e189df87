package emit

import (
	"fmt"
	"strings"

	machinegen "github.com/goliatone/go-machinegen"
	"github.com/goliatone/go-machinegen/semantic"
)

// DemoEmitter renders a terminal harness: it starts the actor, echoes every
// snapshot, and feeds typed event names from stdin into the machine.
type DemoEmitter struct{}

func (DemoEmitter) Kind() Kind { return KindDemo }

func (DemoEmitter) Render(m *semantic.GeneratedMachine) (string, error) {
	if m == nil {
		return "", machinegen.NilMachineError()
	}
	var b strings.Builder
	b.WriteString(header(m, "Interactive demo"))
	b.WriteString("\n")
	b.WriteString("import { createInterface } from 'node:readline';\n")
	b.WriteString("import { createActor } from 'xstate';\n\n")
	fmt.Fprintf(&b, "import { %s } from './%s';\n\n", m.ID, m.ID)

	fmt.Fprintf(&b, "const events: string[] = [%s];\n\n", quotedList(machineEvents(m)))

	fmt.Fprintf(&b, "const actor = createActor(%s);\n", m.ID)
	b.WriteString("actor.subscribe((snapshot) => {\n")
	b.WriteString("  console.log(`state: ${JSON.stringify(snapshot.value)} context: ${JSON.stringify(snapshot.context)}`);\n")
	b.WriteString("});\n")
	b.WriteString("actor.start();\n\n")

	fmt.Fprintf(&b, "console.log(%s);\n", quote(m.DisplayName+" interactive demo"))
	b.WriteString("console.log(`events: ${events.join(', ')} (type quit to exit)`);\n\n")

	b.WriteString("const rl = createInterface({ input: process.stdin, output: process.stdout });\n")
	b.WriteString("rl.setPrompt('event> ');\n")
	b.WriteString("rl.prompt();\n")
	b.WriteString("rl.on('line', (line) => {\n")
	b.WriteString("  const type = line.trim();\n")
	b.WriteString("  if (type === 'quit' || type === 'exit') {\n")
	b.WriteString("    rl.close();\n")
	b.WriteString("    return;\n")
	b.WriteString("  }\n")
	b.WriteString("  if (events.includes(type)) {\n")
	b.WriteString("    actor.send({ type } as never);\n")
	b.WriteString("  } else if (type !== '') {\n")
	b.WriteString("    console.log(`unrecognized event: ${type}`);\n")
	b.WriteString("  }\n")
	b.WriteString("  rl.prompt();\n")
	b.WriteString("});\n")
	b.WriteString("rl.on('close', () => {\n")
	b.WriteString("  actor.stop();\n")
	b.WriteString("});\n")
	return b.String(), nil
}
