package diagram

import "testing"

func TestParseStatementClassifiesEdgeForms(t *testing.T) {
	cases := []struct {
		name   string
		line   string
		from   string
		to     string
		label  string
		dashed bool
	}{
		{name: "pipe labeled", line: "A -->|DONE| B", from: "A", to: "B", label: "DONE"},
		{name: "pipe labeled no spaces", line: "Process-->|DONE|End", from: "Process", to: "End", label: "DONE"},
		{name: "dashed plain", line: "A -.-> B", from: "A", to: "B", dashed: true},
		{name: "dashed pipe labeled", line: "A -.->|retry| B", from: "A", to: "B", label: "retry", dashed: true},
		{name: "dashed inline label", line: "A -. give up .-> B", from: "A", to: "B", label: "give up", dashed: true},
		{name: "single dash label", line: "A -- confirm --> B", from: "A", to: "B", label: "confirm"},
		{name: "plain", line: "Start-->Process", from: "Start", to: "Process"},
		{name: "bracket label", line: "A -->[submit] B", from: "A", to: "B", label: "submit"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stmt, diag := ParseStatement(tc.line, 1)
			if diag != nil {
				t.Fatalf("unexpected diagnostic: %+v", *diag)
			}
			if stmt.Kind != StmtEdgeDecl || stmt.Edge == nil {
				t.Fatalf("expected edge statement, got %s", stmt.Kind)
			}
			e := stmt.Edge
			if e.From != tc.from || e.To != tc.to || e.Label != tc.label || e.Dashed != tc.dashed {
				t.Fatalf("unexpected edge: %+v", *e)
			}
		})
	}
}

func TestParseStatementClassifiesNodeShapes(t *testing.T) {
	cases := []struct {
		line  string
		id    string
		label string
		shape Shape
	}{
		{line: "A[Welcome]", id: "A", label: "Welcome", shape: ShapeRectangle},
		{line: "B(Please wait)", id: "B", label: "Please wait", shape: ShapeRounded},
		{line: "C((Done))", id: "C", label: "Done", shape: ShapeCircle},
		{line: "D{Valid?}", id: "D", label: "Valid?", shape: ShapeDiamond},
		{line: "my-node[Dashed id]", id: "my-node", label: "Dashed id", shape: ShapeRectangle},
		{line: "Bare", id: "Bare", label: "", shape: ShapeRectangle},
	}
	for _, tc := range cases {
		stmt, diag := ParseStatement(tc.line, 3)
		if diag != nil {
			t.Fatalf("%s: unexpected diagnostic: %+v", tc.line, *diag)
		}
		if stmt.Kind != StmtNodeDecl || stmt.Node == nil {
			t.Fatalf("%s: expected node declaration, got %s", tc.line, stmt.Kind)
		}
		n := stmt.Node
		if n.ID != tc.id || n.Label != tc.label || n.Shape != tc.shape {
			t.Fatalf("%s: unexpected declaration: %+v", tc.line, *n)
		}
	}
}

func TestParseStatementHeaderAndClasses(t *testing.T) {
	stmt, diag := ParseStatement("flowchart LR", 1)
	if diag != nil || stmt.Kind != StmtHeader || stmt.Direction != "LR" {
		t.Fatalf("header not recognized: %+v diag=%v", stmt, diag)
	}

	stmt, diag = ParseStatement("classDef user-machine fill:#fff", 2)
	if diag != nil || stmt.Kind != StmtClassDef || stmt.ClassName != "user-machine" {
		t.Fatalf("classDef not recognized: %+v diag=%v", stmt, diag)
	}

	stmt, diag = ParseStatement("class Start,Process user-machine", 3)
	if diag != nil || stmt.Kind != StmtClassAssign {
		t.Fatalf("class assignment not recognized: %+v diag=%v", stmt, diag)
	}
	if stmt.ClassName != "user-machine" || len(stmt.TargetIDs) != 2 || stmt.TargetIDs[0] != "Start" || stmt.TargetIDs[1] != "Process" {
		t.Fatalf("unexpected class assignment: %+v", stmt)
	}
}

func TestParseStatementStyleDirective(t *testing.T) {
	stmt, diag := ParseStatement("Confirm@{ shape: hexagon, class: core-flow }", 7)
	if diag != nil || stmt.Kind != StmtStyleDirective || stmt.Style == nil {
		t.Fatalf("styling directive not recognized: %+v diag=%v", stmt, diag)
	}
	if stmt.Style.ID != "Confirm" || stmt.Style.Shape != ShapeHexagon || stmt.Style.Class != "core-flow" {
		t.Fatalf("unexpected directive: %+v", *stmt.Style)
	}

	if _, diag := ParseStatement("Confirm@{ shape: blob }", 8); diag == nil || diag.Severity != "warning" {
		t.Fatalf("unknown shape must produce a warning, got %v", diag)
	}
}

func TestParseStatementInvalidIdentifierIsError(t *testing.T) {
	stmt, diag := ParseStatement("1bad[Oops]", 4)
	if stmt.Kind != StmtUnknown {
		t.Fatalf("invalid identifier must not produce a statement, got %s", stmt.Kind)
	}
	if diag == nil || !diag.IsError() {
		t.Fatalf("expected error diagnostic, got %v", diag)
	}
	if diag.Line != 4 {
		t.Fatalf("diagnostic must carry the source line, got %d", diag.Line)
	}

	if _, diag := ParseStatement("2x --> B", 5); diag == nil || !diag.IsError() {
		t.Fatalf("invalid edge endpoint must be an error, got %v", diag)
	}
}

func TestParseStatementMalformedLinesAreWarnings(t *testing.T) {
	cases := []string{
		"A[unclosed",
		"A --> ",
		"A -. half",
		"just some prose here",
	}
	for _, line := range cases {
		stmt, diag := ParseStatement(line, 9)
		if stmt.Kind != StmtUnknown {
			t.Fatalf("%q must not classify, got %s", line, stmt.Kind)
		}
		if diag == nil || diag.Severity != "warning" {
			t.Fatalf("%q must downgrade to a warning, got %v", line, diag)
		}
	}
}

func TestParseStatementSkipsBlanksAndComments(t *testing.T) {
	for _, line := range []string{"", "   ", "%% a comment"} {
		stmt, diag := ParseStatement(line, 2)
		if stmt.Kind != StmtUnknown || diag != nil {
			t.Fatalf("%q must be skipped silently, got %+v diag=%v", line, stmt, diag)
		}
	}
}

func TestExtractGuardAndActionPriority(t *testing.T) {
	cases := []struct {
		label  string
		guard  string
		action string
	}{
		{label: "guard:isAdult do:logAccess", guard: "isAdult", action: "logAccess"},
		{label: "[hasBalance] withdraw", guard: "hasBalance"},
		{label: "continue when confirmed", guard: "confirmed"},
		{label: "guard:first [second]", guard: "first"},
		{label: "action:notify execute:fallback", action: "notify"},
		{label: "do:cleanup", action: "cleanup"},
		{label: "plain label", guard: "", action: ""},
	}
	for _, tc := range cases {
		if got := ExtractGuard(tc.label); got != tc.guard {
			t.Fatalf("ExtractGuard(%q) = %q, want %q", tc.label, got, tc.guard)
		}
		if got := ExtractAction(tc.label); got != tc.action {
			t.Fatalf("ExtractAction(%q) = %q, want %q", tc.label, got, tc.action)
		}
	}
}

func TestStripAnnotationsLeavesDisplayText(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{label: "guard:isAdult do:logAccess accept", want: "accept"},
		{label: "[hasBalance] withdraw cash", want: "withdraw cash"},
		{label: "continue when confirmed", want: "continue"},
		{label: "DONE", want: "DONE"},
	}
	for _, tc := range cases {
		if got := StripAnnotations(tc.label); got != tc.want {
			t.Fatalf("StripAnnotations(%q) = %q, want %q", tc.label, got, tc.want)
		}
	}
}

func TestClassifyTransitionPriority(t *testing.T) {
	cases := []struct {
		label  string
		dashed bool
		want   TransitionKind
	}{
		{label: "Enter input", want: KindUserInput},
		{label: "select option", want: KindUserInput},
		{label: "input error", want: KindUserInput}, // input outranks error
		{label: "on failure", want: KindError},
		{label: "timeout reached", want: KindTimeout},
		{label: "verify PIN", want: KindExternal},
		{label: "check balance", want: KindExternal},
		{label: "yes", want: KindConditional},
		{label: "DONE", want: KindSystemAction},
		{label: "", dashed: true, want: KindConditional},
		{label: "retry later", dashed: true, want: KindConditional},
		{label: "fail fast", dashed: true, want: KindError}, // keywords outrank the dashed fallback
		{label: "", want: KindSystemAction},
	}
	for _, tc := range cases {
		if got := ClassifyTransition(tc.label, tc.dashed); got != tc.want {
			t.Fatalf("ClassifyTransition(%q, dashed=%v) = %s, want %s", tc.label, tc.dashed, got, tc.want)
		}
	}
}
