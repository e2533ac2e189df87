package diagram

import (
	"strings"

	machinegen "github.com/goliatone/go-machinegen"
)

// StatementKind tags one classified diagram line.
type StatementKind string

const (
	StmtUnknown        StatementKind = "unknown"
	StmtHeader         StatementKind = "header"
	StmtNodeDecl       StatementKind = "node-decl"
	StmtEdgeDecl       StatementKind = "edge-decl"
	StmtClassDef       StatementKind = "class-def"
	StmtClassAssign    StatementKind = "class-assign"
	StmtStyleDirective StatementKind = "style-directive"
)

// Statement is one classified diagram line. Only the fields for its kind are
// populated.
type Statement struct {
	Kind StatementKind
	Line int

	Direction string           // StmtHeader
	Node      *NodeDeclaration // StmtNodeDecl
	Edge      *EdgeDeclaration // StmtEdgeDecl
	ClassName string           // StmtClassDef and StmtClassAssign
	TargetIDs []string         // StmtClassAssign
	Style     *StyleDirective  // StmtStyleDirective
}

// NodeDeclaration is a node id with its bracket label and shape.
type NodeDeclaration struct {
	ID    string
	Label string
	Shape Shape
}

// EdgeDeclaration is a directed edge statement. Endpoints may carry inline
// node declarations (`A[Start] --> B`).
type EdgeDeclaration struct {
	From     string
	To       string
	Label    string
	Dashed   bool
	FromDecl *NodeDeclaration
	ToDecl   *NodeDeclaration
}

// StyleDirective retroactively overrides a node's shape or appends a class.
type StyleDirective struct {
	ID    string
	Shape Shape
	Class string
}

var directions = []string{"TD", "TB", "BT", "RL", "LR"}

// IsDirection reports whether tok is an allowed flow direction.
func IsDirection(tok string) bool {
	for _, d := range directions {
		if tok == d {
			return true
		}
	}
	return false
}

// StartDirection matches a diagram-start line (`flowchart <DIR>` or
// `graph <DIR>`) and returns the direction token.
func StartDirection(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", false
	}
	if fields[0] != "flowchart" && fields[0] != "graph" {
		return "", false
	}
	if !IsDirection(fields[1]) {
		return "", false
	}
	return fields[1], true
}

// ValidID reports whether id satisfies the identifier rule: a letter followed
// by letters, digits, underscores, or dashes.
func ValidID(id string) bool {
	if id == "" {
		return false
	}
	for i, r := range id {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case i > 0 && (r >= '0' && r <= '9' || r == '_' || r == '-'):
		default:
			return false
		}
	}
	return true
}

// ParseStatement classifies one raw diagram line. Blank lines and comments
// come back as StmtUnknown with no diagnostic; malformed statements come back
// as StmtUnknown with the diagnostic explaining why they were skipped.
func ParseStatement(raw string, line int) (Statement, *machinegen.Diagnostic) {
	stmt := Statement{Kind: StmtUnknown, Line: line}
	text := strings.TrimSpace(raw)
	if text == "" || strings.HasPrefix(text, "%%") {
		return stmt, nil
	}
	text = strings.TrimSpace(strings.TrimRight(text, ";"))

	if dir, ok := StartDirection(text); ok {
		stmt.Kind = StmtHeader
		stmt.Direction = dir
		return stmt, nil
	}
	if rest, ok := strings.CutPrefix(text, "classDef "); ok {
		return parseClassDef(rest, line)
	}
	if rest, ok := strings.CutPrefix(text, "class "); ok {
		return parseClassAssign(rest, line)
	}
	if strings.Contains(text, "@{") {
		return parseStyleDirective(text, line)
	}
	if strings.Contains(text, "-->") || strings.Contains(text, "-.") {
		return parseEdge(text, line)
	}
	return parseNodeDecl(text, line)
}

func parseClassDef(rest string, line int) (Statement, *machinegen.Diagnostic) {
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return unknownStmt(line, machinegen.Warnf(line, "classDef requires a name and a style list"))
	}
	name := fields[0]
	if !ValidID(name) {
		return unknownStmt(line, invalidIdentifier(line, name))
	}
	return Statement{Kind: StmtClassDef, Line: line, ClassName: name}, nil
}

func parseClassAssign(rest string, line int) (Statement, *machinegen.Diagnostic) {
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return unknownStmt(line, machinegen.Warnf(line, "class assignment requires node ids and a class name"))
	}
	className := fields[len(fields)-1]
	if !ValidID(className) {
		return unknownStmt(line, invalidIdentifier(line, className))
	}
	var ids []string
	for _, id := range strings.Split(strings.Join(fields[:len(fields)-1], ""), ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if !ValidID(id) {
			return unknownStmt(line, invalidIdentifier(line, id))
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return unknownStmt(line, machinegen.Warnf(line, "class assignment names no nodes"))
	}
	return Statement{Kind: StmtClassAssign, Line: line, ClassName: className, TargetIDs: ids}, nil
}

func parseStyleDirective(text string, line int) (Statement, *machinegen.Diagnostic) {
	at := strings.Index(text, "@{")
	id := strings.TrimSpace(text[:at])
	if !ValidID(id) {
		return unknownStmt(line, invalidIdentifier(line, id))
	}
	if !strings.HasSuffix(text, "}") {
		return unknownStmt(line, machinegen.Warnf(line, "unterminated styling directive on node %q", id))
	}
	dir := &StyleDirective{ID: id}
	for _, part := range strings.Split(text[at+2:len(text)-1], ",") {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])
		switch key {
		case "shape":
			shape, ok := shapeFromName(val)
			if !ok {
				return unknownStmt(line, machinegen.Warnf(line, "unknown shape %q in styling directive", val))
			}
			dir.Shape = shape
		case "class":
			dir.Class = val
		}
	}
	if dir.Shape == "" && dir.Class == "" {
		return unknownStmt(line, machinegen.Warnf(line, "styling directive on node %q sets neither shape nor class", id))
	}
	return Statement{Kind: StmtStyleDirective, Line: line, Style: dir}, nil
}

func shapeFromName(name string) (Shape, bool) {
	switch strings.ToLower(name) {
	case "rect", "rectangle":
		return ShapeRectangle, true
	case "rounded":
		return ShapeRounded, true
	case "circle":
		return ShapeCircle, true
	case "diamond", "rhombus":
		return ShapeDiamond, true
	case "hex", "hexagon":
		return ShapeHexagon, true
	case "stadium":
		return ShapeStadium, true
	}
	return "", false
}

// edge surface forms, tried in fixed priority order; the first form that
// consumes the whole line wins
var edgeForms = []func(*scanner) (*EdgeDeclaration, bool){
	parsePipeLabeledEdge,
	parseDashedEdge,
	parsePlainEdge,
	parseDashLabeledEdge,
	parseBracketLabeledEdge,
}

func parseEdge(text string, line int) (Statement, *machinegen.Diagnostic) {
	for _, form := range edgeForms {
		sc := newScanner(text)
		if edge, ok := form(sc); ok && sc.done() {
			return Statement{Kind: StmtEdgeDecl, Line: line, Edge: edge}, nil
		}
	}
	return unknownStmt(line, badEdgeDiagnostic(text, line))
}

// A -->|label| B
func parsePipeLabeledEdge(sc *scanner) (*EdgeDeclaration, bool) {
	from, fromDecl, ok := scanEndpoint(sc)
	if !ok || !sc.token("-->") || !sc.token("|") {
		return nil, false
	}
	label, ok := sc.until("|")
	if !ok {
		return nil, false
	}
	to, toDecl, ok := scanEndpoint(sc)
	if !ok {
		return nil, false
	}
	return &EdgeDeclaration{From: from, To: to, Label: strings.TrimSpace(label), FromDecl: fromDecl, ToDecl: toDecl}, true
}

// A -.-> B, A -.->|label| B, A -. label .-> B
func parseDashedEdge(sc *scanner) (*EdgeDeclaration, bool) {
	from, fromDecl, ok := scanEndpoint(sc)
	if !ok {
		return nil, false
	}
	switch {
	case sc.token("-.->"):
		label := ""
		if sc.token("|") {
			l, ok := sc.until("|")
			if !ok {
				return nil, false
			}
			label = l
		}
		to, toDecl, ok := scanEndpoint(sc)
		if !ok {
			return nil, false
		}
		return &EdgeDeclaration{From: from, To: to, Label: strings.TrimSpace(label), Dashed: true, FromDecl: fromDecl, ToDecl: toDecl}, true
	case sc.token("-."):
		label, ok := sc.until(".->")
		if !ok {
			return nil, false
		}
		to, toDecl, ok := scanEndpoint(sc)
		if !ok {
			return nil, false
		}
		return &EdgeDeclaration{From: from, To: to, Label: strings.TrimSpace(label), Dashed: true, FromDecl: fromDecl, ToDecl: toDecl}, true
	}
	return nil, false
}

// A --> B
func parsePlainEdge(sc *scanner) (*EdgeDeclaration, bool) {
	from, fromDecl, ok := scanEndpoint(sc)
	if !ok || !sc.token("-->") {
		return nil, false
	}
	to, toDecl, ok := scanEndpoint(sc)
	if !ok {
		return nil, false
	}
	return &EdgeDeclaration{From: from, To: to, FromDecl: fromDecl, ToDecl: toDecl}, true
}

// A -- label --> B
func parseDashLabeledEdge(sc *scanner) (*EdgeDeclaration, bool) {
	from, fromDecl, ok := scanEndpoint(sc)
	if !ok || !sc.token("--") {
		return nil, false
	}
	label, ok := sc.until("-->")
	if !ok {
		return nil, false
	}
	to, toDecl, ok := scanEndpoint(sc)
	if !ok {
		return nil, false
	}
	return &EdgeDeclaration{From: from, To: to, Label: strings.TrimSpace(label), FromDecl: fromDecl, ToDecl: toDecl}, true
}

// A -->[label] B
func parseBracketLabeledEdge(sc *scanner) (*EdgeDeclaration, bool) {
	from, fromDecl, ok := scanEndpoint(sc)
	if !ok || !sc.token("-->") || !sc.token("[") {
		return nil, false
	}
	label, ok := sc.until("]")
	if !ok {
		return nil, false
	}
	to, toDecl, ok := scanEndpoint(sc)
	if !ok {
		return nil, false
	}
	return &EdgeDeclaration{From: from, To: to, Label: strings.TrimSpace(label), FromDecl: fromDecl, ToDecl: toDecl}, true
}

// scanEndpoint parses an edge endpoint: a word id optionally followed by an
// inline bracket declaration. Edge endpoints use the dash-free word form so
// arrow tokens never bind into the id.
func scanEndpoint(sc *scanner) (string, *NodeDeclaration, bool) {
	id, ok := sc.word()
	if !ok {
		return "", nil, false
	}
	if label, shape, ok := sc.bracketLabel(); ok {
		return id, &NodeDeclaration{ID: id, Label: label, Shape: shape}, true
	}
	return id, nil, true
}

func parseNodeDecl(text string, line int) (Statement, *machinegen.Diagnostic) {
	sc := newScanner(text)
	id, ok := sc.ident()
	if !ok {
		if i := strings.IndexAny(text, "[({"); i > 0 {
			return unknownStmt(line, invalidIdentifier(line, strings.TrimSpace(text[:i])))
		}
		return unknownStmt(line, machinegen.Warnf(line, "unrecognized statement: %s", text))
	}
	if sc.done() {
		// bare id declares an unlabeled rectangle node
		return Statement{Kind: StmtNodeDecl, Line: line, Node: &NodeDeclaration{ID: id, Shape: ShapeRectangle}}, nil
	}
	label, shape, ok := sc.bracketLabel()
	if !ok || !sc.done() {
		return unknownStmt(line, machinegen.Warnf(line, "unrecognized statement: %s", text))
	}
	return Statement{Kind: StmtNodeDecl, Line: line, Node: &NodeDeclaration{ID: id, Label: label, Shape: shape}}, nil
}

var arrowTokens = []string{"-.->", "-.", "-->", "--"}

func badEdgeDiagnostic(text string, line int) machinegen.Diagnostic {
	for _, tok := range arrowTokens {
		i := strings.Index(text, tok)
		if i < 0 {
			continue
		}
		for _, side := range []string{text[:i], text[i+len(tok):]} {
			candidate := endpointCandidate(side)
			if candidate == "" || ValidID(candidate) {
				continue
			}
			if strings.ContainsAny(candidate, " \t") {
				break
			}
			return invalidIdentifier(line, candidate)
		}
		break
	}
	return machinegen.Warnf(line, "unrecognized edge statement: %s", strings.TrimSpace(text))
}

// endpointCandidate trims label decorations off one side of an arrow so the
// remaining token can be checked against the identifier rule.
func endpointCandidate(side string) string {
	side = strings.TrimSpace(side)
	if strings.HasPrefix(side, "|") {
		if end := strings.Index(side[1:], "|"); end >= 0 {
			side = strings.TrimSpace(side[end+2:])
		}
	}
	if i := strings.IndexAny(side, "[({"); i >= 0 {
		side = strings.TrimSpace(side[:i])
	}
	return side
}

func invalidIdentifier(line int, id string) machinegen.Diagnostic {
	return machinegen.Errorf(line, "invalid state identifier %q", id).
		WithSuggestion("identifiers start with a letter and may contain letters, digits, underscores, and dashes")
}

func unknownStmt(line int, diag machinegen.Diagnostic) (Statement, *machinegen.Diagnostic) {
	return Statement{Kind: StmtUnknown, Line: line}, &diag
}
