package diagram

import (
	"strings"

	machinegen "github.com/goliatone/go-machinegen"
)

// Shape of a declared node. Circle carries semantic weight: it marks the node
// final. Hexagon and stadium are reachable only through styling directives.
type Shape string

const (
	ShapeRectangle Shape = "rectangle"
	ShapeRounded   Shape = "rounded"
	ShapeCircle    Shape = "circle"
	ShapeDiamond   Shape = "diamond"
	ShapeHexagon   Shape = "hexagon"
	ShapeStadium   Shape = "stadium"
)

// TransitionKind classifies an edge by keyword presence in its label.
type TransitionKind string

const (
	KindUserInput    TransitionKind = "user-input"
	KindError        TransitionKind = "error"
	KindTimeout      TransitionKind = "timeout"
	KindExternal     TransitionKind = "external"
	KindConditional  TransitionKind = "conditional"
	KindSystemAction TransitionKind = "system-action"
)

// Node is one declared or auto-created diagram vertex. Auto-created endpoint
// nodes carry an empty label, so keyword-based final inference never fires
// on them.
type Node struct {
	ID         string
	Label      string
	Shape      Shape
	CSSClasses []string
	IsInitial  bool
	IsFinal    bool
	Line       int
}

// Edge is one directed, classified transition between nodes.
type Edge struct {
	From   string
	To     string
	Label  string
	Kind   TransitionKind
	Guard  string
	Action string
	Line   int
}

// ParsedMachine is the assembled graph for one diagram. ID is the sanitized
// machine identifier; DisplayName keeps the human-readable title.
type ParsedMachine struct {
	ID          string
	DisplayName string
	Category    machinegen.Category
	Direction   string
	Nodes       []Node
	Edges       []Edge
	InitialNode string
	FinalNodes  []string
}

// Node returns the node with the given id, or nil.
func (m *ParsedMachine) Node(id string) *Node {
	for i := range m.Nodes {
		if m.Nodes[i].ID == id {
			return &m.Nodes[i]
		}
	}
	return nil
}

// OutgoingEdges returns the edges leaving the given node in declaration order.
func (m *ParsedMachine) OutgoingEdges(id string) []Edge {
	var out []Edge
	for _, e := range m.Edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

// ClassifyTransition infers the transition kind from case-insensitive keyword
// presence in the label, checked in fixed priority. Dashed arrows fall back
// to conditional instead of system-action when no keyword matches.
func ClassifyTransition(label string, dashed bool) TransitionKind {
	l := strings.ToLower(label)
	containsAny := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(l, w) {
				return true
			}
		}
		return false
	}
	switch {
	case containsAny("input", "select"):
		return KindUserInput
	case containsAny("error", "fail"):
		return KindError
	case containsAny("timeout"):
		return KindTimeout
	case containsAny("verify", "check"):
		return KindExternal
	case containsAny("yes", "no", "if"):
		return KindConditional
	case dashed:
		return KindConditional
	default:
		return KindSystemAction
	}
}

// guard label patterns in priority order: guard:NAME, [NAME], when NAME
var guardPrefixes = []string{"guard:"}

// action label patterns in priority order: action:NAME, do:NAME, execute:NAME
var actionPrefixes = []string{"action:", "do:", "execute:"}

// ExtractGuard pulls an embedded guard reference out of an edge label. The
// first matching pattern in priority order wins.
func ExtractGuard(label string) string {
	fields := strings.Fields(label)
	for _, prefix := range guardPrefixes {
		for _, f := range fields {
			if name, ok := strings.CutPrefix(f, prefix); ok && isName(name) {
				return name
			}
		}
	}
	for _, f := range fields {
		if strings.HasPrefix(f, "[") && strings.HasSuffix(f, "]") {
			if name := f[1 : len(f)-1]; isName(name) {
				return name
			}
		}
	}
	for i, f := range fields {
		if strings.EqualFold(f, "when") && i+1 < len(fields) && isName(fields[i+1]) {
			return fields[i+1]
		}
	}
	return ""
}

// ExtractAction pulls an embedded action reference out of an edge label.
func ExtractAction(label string) string {
	fields := strings.Fields(label)
	for _, prefix := range actionPrefixes {
		for _, f := range fields {
			if name, ok := strings.CutPrefix(f, prefix); ok && isName(name) {
				return name
			}
		}
	}
	return ""
}

// StripAnnotations removes guard and action annotations from a label, leaving
// the display text used for event naming.
func StripAnnotations(label string) string {
	fields := strings.Fields(label)
	out := make([]string, 0, len(fields))
	skipNext := false
	for i, f := range fields {
		if skipNext {
			skipNext = false
			continue
		}
		if isAnnotation(f) {
			continue
		}
		if strings.EqualFold(f, "when") && i+1 < len(fields) && isName(fields[i+1]) {
			skipNext = true
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

func isAnnotation(field string) bool {
	for _, prefix := range append(append([]string{}, guardPrefixes...), actionPrefixes...) {
		if name, ok := strings.CutPrefix(field, prefix); ok && isName(name) {
			return true
		}
	}
	if strings.HasPrefix(field, "[") && strings.HasSuffix(field, "]") {
		return isName(field[1 : len(field)-1])
	}
	return false
}

// isName accepts guard/action reference tokens: letter or underscore first,
// then letters, digits, or underscores.
func isName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r == '_':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
