package emit

import (
	"fmt"
	"strings"

	machinegen "github.com/goliatone/go-machinegen"
	"github.com/goliatone/go-machinegen/semantic"
)

// ServiceEmitter renders a lifecycle wrapper class around the machine actor:
// start, stop, send, snapshot, and subscribe, with guard rails for use
// outside the running window.
type ServiceEmitter struct{}

func (ServiceEmitter) Kind() Kind { return KindService }

func (ServiceEmitter) Render(m *semantic.GeneratedMachine) (string, error) {
	if m == nil {
		return "", machinegen.NilMachineError()
	}
	class := serviceClassName(m)
	machineRef := "typeof " + m.ID

	var b strings.Builder
	b.WriteString(header(m, "Service wrapper"))
	b.WriteString("\n")
	b.WriteString("import { createActor, type Actor, type SnapshotFrom } from 'xstate';\n\n")
	fmt.Fprintf(&b, "import { %s, type %s } from './%s';\n\n", m.ID, eventTypeName(m), m.ID)

	fmt.Fprintf(&b, "/** Owns one %s actor and its lifecycle. */\n", m.ID)
	fmt.Fprintf(&b, "export class %s {\n", class)
	fmt.Fprintf(&b, "  private actor: Actor<%s> | null = null;\n\n", machineRef)

	b.WriteString("  /** Starts a fresh actor; repeated calls are no-ops. */\n")
	b.WriteString("  start(): void {\n")
	b.WriteString("    if (this.actor) {\n")
	b.WriteString("      return;\n")
	b.WriteString("    }\n")
	fmt.Fprintf(&b, "    this.actor = createActor(%s);\n", m.ID)
	b.WriteString("    this.actor.start();\n")
	b.WriteString("  }\n\n")

	b.WriteString("  /** Stops and discards the actor; safe when not running. */\n")
	b.WriteString("  stop(): void {\n")
	b.WriteString("    this.actor?.stop();\n")
	b.WriteString("    this.actor = null;\n")
	b.WriteString("  }\n\n")

	fmt.Fprintf(&b, "  send(event: %s): void {\n", eventTypeName(m))
	b.WriteString("    this.running().send(event);\n")
	b.WriteString("  }\n\n")

	fmt.Fprintf(&b, "  snapshot(): SnapshotFrom<%s> {\n", machineRef)
	b.WriteString("    return this.running().getSnapshot();\n")
	b.WriteString("  }\n\n")

	b.WriteString("  /** Registers a snapshot listener and returns its unsubscribe. */\n")
	fmt.Fprintf(&b, "  subscribe(listener: (snapshot: SnapshotFrom<%s>) => void): () => void {\n", machineRef)
	b.WriteString("    const subscription = this.running().subscribe(listener);\n")
	b.WriteString("    return () => subscription.unsubscribe();\n")
	b.WriteString("  }\n\n")

	fmt.Fprintf(&b, "  private running(): Actor<%s> {\n", machineRef)
	b.WriteString("    if (!this.actor) {\n")
	fmt.Fprintf(&b, "      throw new Error(%s);\n", quote(m.ID+" service is not running"))
	b.WriteString("    }\n")
	b.WriteString("    return this.actor;\n")
	b.WriteString("  }\n")
	b.WriteString("}\n")
	return b.String(), nil
}
