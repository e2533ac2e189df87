package diagram

import (
	"fmt"
	"sort"
	"strings"

	machinegen "github.com/goliatone/go-machinegen"
)

// finalKeywords mark an explicitly labeled node as final when any appears in
// its label.
var finalKeywords = []string{"end", "final", "close", "exit", "goodbye", "session"}

// reservedInitialIDs elect the initial node ahead of declaration order.
var reservedInitialIDs = map[string]bool{
	"start":   true,
	"idle":    true,
	"initial": true,
	"begin":   true,
}

// PlaceholderNodeID names the synthetic node injected when a diagram block
// yields no nodes, so downstream stages always have a machine to work with.
const PlaceholderNodeID = "placeholder"

// Parse scans one isolated diagram block and assembles complete machines.
// name seeds machine display names. Every recoverable finding becomes a
// diagnostic; the machine list is never empty.
func Parse(name, source string) ([]ParsedMachine, []machinegen.Diagnostic) {
	p := &parser{name: name}
	p.scan(source)
	return p.assemble()
}

// parser accumulates drafts and diagnostics for one block scan.
type parser struct {
	name   string
	drafts []*draft
	diags  []machinegen.Diagnostic
}

// draft is the mutable graph under construction for one diagram header.
type draft struct {
	direction string
	order     []string
	nodes     map[string]*Node
	declared  map[string]bool
	edges     []Edge
	classDefs map[string]bool
	pending   map[string][]string
}

func newDraft(direction string) *draft {
	return &draft{
		direction: direction,
		nodes:     map[string]*Node{},
		declared:  map[string]bool{},
		classDefs: map[string]bool{},
		pending:   map[string][]string{},
	}
}

func (p *parser) scan(source string) {
	var cur *draft
	for i, raw := range strings.Split(source, "\n") {
		stmt, diag := ParseStatement(raw, i+1)
		if diag != nil {
			p.diags = append(p.diags, *diag)
			continue
		}
		switch stmt.Kind {
		case StmtUnknown:
			// blank line or comment
		case StmtHeader:
			cur = newDraft(stmt.Direction)
			p.drafts = append(p.drafts, cur)
		default:
			if cur == nil {
				// statements ahead of any header still land in a draft;
				// the diagram validator owns the missing-header finding
				cur = newDraft("")
				p.drafts = append(p.drafts, cur)
			}
			p.apply(cur, stmt)
		}
	}
	if len(p.drafts) == 0 {
		p.drafts = append(p.drafts, newDraft(""))
	}
}

func (p *parser) apply(d *draft, stmt Statement) {
	switch stmt.Kind {
	case StmtNodeDecl:
		p.declareNode(d, stmt.Node, stmt.Line)
	case StmtEdgeDecl:
		p.recordEdge(d, stmt)
	case StmtClassDef:
		d.classDefs[stmt.ClassName] = true
	case StmtClassAssign:
		if !d.classDefs[stmt.ClassName] {
			p.diags = append(p.diags, machinegen.Warnf(stmt.Line, "class %q is not defined by a classDef", stmt.ClassName))
		}
		for _, id := range stmt.TargetIDs {
			if node, ok := d.nodes[id]; ok {
				node.CSSClasses = appendUniqueTag(node.CSSClasses, stmt.ClassName)
			} else {
				d.pending[id] = append(d.pending[id], stmt.ClassName)
			}
		}
	case StmtStyleDirective:
		node, ok := d.nodes[stmt.Style.ID]
		if !ok {
			p.diags = append(p.diags, machinegen.Warnf(stmt.Line, "styling directive references unknown node %q", stmt.Style.ID))
			return
		}
		if stmt.Style.Shape != "" {
			node.Shape = stmt.Style.Shape
		}
		if stmt.Style.Class != "" {
			node.CSSClasses = appendUniqueTag(node.CSSClasses, stmt.Style.Class)
		}
	}
}

func (p *parser) declareNode(d *draft, decl *NodeDeclaration, line int) {
	if node, ok := d.nodes[decl.ID]; ok {
		if d.declared[decl.ID] {
			p.diags = append(p.diags, machinegen.Warnf(line, "duplicate declaration of node %q keeps the first definition", decl.ID))
			return
		}
		// an explicit declaration upgrades a node auto-created by an edge
		node.Label = decl.Label
		node.Shape = decl.Shape
		if node.Shape == "" {
			node.Shape = ShapeRectangle
		}
		d.declared[decl.ID] = true
		return
	}
	p.insertNode(d, &Node{ID: decl.ID, Label: decl.Label, Shape: decl.Shape, Line: line})
	d.declared[decl.ID] = true
}

func (p *parser) insertNode(d *draft, node *Node) {
	if node.Shape == "" {
		node.Shape = ShapeRectangle
	}
	for _, tag := range d.pending[node.ID] {
		node.CSSClasses = appendUniqueTag(node.CSSClasses, tag)
	}
	delete(d.pending, node.ID)
	d.nodes[node.ID] = node
	d.order = append(d.order, node.ID)
}

func (p *parser) recordEdge(d *draft, stmt Statement) {
	e := stmt.Edge
	if e.FromDecl != nil {
		p.declareNode(d, e.FromDecl, stmt.Line)
	} else {
		p.ensureNode(d, e.From, stmt.Line)
	}
	if e.ToDecl != nil {
		p.declareNode(d, e.ToDecl, stmt.Line)
	} else {
		p.ensureNode(d, e.To, stmt.Line)
	}
	d.edges = append(d.edges, Edge{
		From:   e.From,
		To:     e.To,
		Label:  e.Label,
		Kind:   ClassifyTransition(e.Label, e.Dashed),
		Guard:  ExtractGuard(e.Label),
		Action: ExtractAction(e.Label),
		Line:   stmt.Line,
	})
}

// ensureNode auto-creates a bare node for an endpoint that was never
// declared. Bare nodes keep an empty label so final-keyword inference never
// fires on them.
func (p *parser) ensureNode(d *draft, id string, line int) {
	if _, ok := d.nodes[id]; ok {
		return
	}
	p.insertNode(d, &Node{ID: id, Shape: ShapeRectangle, Line: line})
}

func (p *parser) assemble() ([]ParsedMachine, []machinegen.Diagnostic) {
	machines := make([]ParsedMachine, 0, len(p.drafts))
	for i, d := range p.drafts {
		machines = append(machines, p.assembleDraft(d, i))
	}
	machinegen.SortDiagnostics(p.diags)
	return machines, p.diags
}

func (p *parser) assembleDraft(d *draft, idx int) ParsedMachine {
	displayName := strings.TrimSpace(p.name)
	if displayName == "" {
		displayName = "machine"
	}
	if idx > 0 {
		displayName = fmt.Sprintf("%s %d", displayName, idx+1)
	}

	if len(d.order) == 0 {
		p.diags = append(p.diags, machinegen.Warnf(0, "diagram %q produced no nodes; a placeholder machine was generated", displayName))
		p.insertNode(d, &Node{ID: PlaceholderNodeID, Label: "Placeholder", Shape: ShapeRectangle})
	}

	pendingIDs := make([]string, 0, len(d.pending))
	for id := range d.pending {
		pendingIDs = append(pendingIDs, id)
	}
	sort.Strings(pendingIDs)
	for _, id := range pendingIDs {
		p.diags = append(p.diags, machinegen.Warnf(0, "class assigned to undeclared node %q", id))
	}

	for _, id := range d.order {
		node := d.nodes[id]
		if node.Shape == ShapeCircle || labelMarksFinal(node.Label) {
			node.IsFinal = true
		}
	}

	initial := ""
	for _, id := range d.order {
		if reservedInitialIDs[strings.ToLower(id)] {
			initial = id
			break
		}
	}
	if initial == "" {
		initial = d.order[0]
	}
	for _, id := range d.order {
		d.nodes[id].IsInitial = id == initial
	}

	m := ParsedMachine{
		ID:          machinegen.SanitizeIdentifier(displayName),
		DisplayName: displayName,
		Category:    dominantCategory(d),
		Direction:   d.direction,
		InitialNode: initial,
	}
	for _, id := range d.order {
		node := d.nodes[id]
		m.Nodes = append(m.Nodes, *node)
		if node.IsFinal {
			m.FinalNodes = append(m.FinalNodes, id)
		}
	}
	m.Edges = append(m.Edges, d.edges...)
	return m
}

// dominantCategory maps the most frequent class tag across nodes to a
// category; ties resolve to the first-seen tag, no mappable tag means the
// default category.
func dominantCategory(d *draft) machinegen.Category {
	counts := map[string]int{}
	var seen []string
	for _, id := range d.order {
		for _, tag := range d.nodes[id].CSSClasses {
			if counts[tag] == 0 {
				seen = append(seen, tag)
			}
			counts[tag]++
		}
	}
	best := ""
	for _, tag := range seen {
		if best == "" || counts[tag] > counts[best] {
			best = tag
		}
	}
	if best == "" {
		return machinegen.DefaultCategory
	}
	if cat, ok := machinegen.CategoryFromTag(best); ok {
		return cat
	}
	return machinegen.DefaultCategory
}

func labelMarksFinal(label string) bool {
	if label == "" {
		return false
	}
	l := strings.ToLower(label)
	for _, kw := range finalKeywords {
		if strings.Contains(l, kw) {
			return true
		}
	}
	return false
}

func appendUniqueTag(tags []string, tag string) []string {
	for _, existing := range tags {
		if existing == tag {
			return tags
		}
	}
	return append(tags, tag)
}
