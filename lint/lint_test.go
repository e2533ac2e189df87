package lint

import (
	"strings"
	"testing"
)

func TestLintCleanSource(t *testing.T) {
	src := strings.Join([]string{
		"flowchart TD",
		"Start[Welcome]",
		"Start-->|DONE|Process",
		"Process@{ shape: hexagon }",
		"%% a comment",
		"classDef user-style fill:#fff",
	}, "\n")

	res := Lint(src, Options{})
	if !res.Valid || len(res.Diagnostics) != 0 {
		t.Fatalf("expected a clean result, got %+v", res)
	}
}

func TestLintMissingStartLine(t *testing.T) {
	res := Lint("Start-->Process", Options{})
	if res.Valid || res.Errors != 1 {
		t.Fatalf("missing start must be an error, got %+v", res)
	}
	if !strings.Contains(res.Diagnostics[0].Message, "missing diagram start") {
		t.Fatalf("unexpected message: %s", res.Diagnostics[0].Message)
	}
}

func TestLintDuplicateStartLine(t *testing.T) {
	src := "flowchart TD\nStart-->Process\nflowchart LR\n"
	res := Lint(src, Options{})
	if res.Valid || res.Errors != 1 {
		t.Fatalf("duplicate start must be an error, got %+v", res)
	}
	if res.Diagnostics[0].Line != 3 {
		t.Fatalf("error must point at the second start, got line %d", res.Diagnostics[0].Line)
	}
}

func TestLintRejectsUnknownDirection(t *testing.T) {
	res := Lint("flowchart sideways\nStart-->Process", Options{})
	if res.Valid {
		t.Fatalf("unknown direction must invalidate the source")
	}
	// the bad header is an error, and no valid start line remains
	if res.Errors != 2 {
		t.Fatalf("expected direction and missing-start errors, got %+v", res)
	}
}

func TestLintUnbalancedBrackets(t *testing.T) {
	res := Lint("flowchart TD\nStart[Welcome\n", Options{})
	if res.Valid || res.Errors != 1 {
		t.Fatalf("unbalanced brackets must be an error, got %+v", res)
	}
	if res.Diagnostics[0].Line != 2 {
		t.Fatalf("expected line 2, got %d", res.Diagnostics[0].Line)
	}
}

func TestLintBracketsInsideLabelsAreOpaque(t *testing.T) {
	res := Lint("flowchart TD\nStart-->|say [hi| Process", Options{})
	if !res.Valid {
		t.Fatalf("pipe label content must not trip the bracket check, got %+v", res)
	}
}

func TestLintNamingConventions(t *testing.T) {
	src := strings.Join([]string{
		"flowchart TD",
		"start[Welcome]",
		"start-->|insert card|Process",
	}, "\n")

	res := Lint(src, Options{})
	if !res.Valid {
		t.Fatalf("convention findings must stay warnings by default, got %+v", res)
	}
	if res.Warnings != 3 {
		t.Fatalf("expected 3 warnings (two ids, one label), got %+v", res)
	}

	var sawState, sawEvent bool
	for _, d := range res.Diagnostics {
		if strings.Contains(d.Message, "not PascalCase") {
			sawState = true
			if d.Suggestion != "rename to Start" {
				t.Fatalf("unexpected state hint: %q", d.Suggestion)
			}
		}
		if strings.Contains(d.Message, "not UPPER_SNAKE_CASE") {
			sawEvent = true
			if d.Suggestion != "rename to INSERT_CARD" {
				t.Fatalf("unexpected event hint: %q", d.Suggestion)
			}
		}
	}
	if !sawState || !sawEvent {
		t.Fatalf("expected both convention findings, got %+v", res.Diagnostics)
	}
}

func TestLintStrictEscalatesConventions(t *testing.T) {
	src := "flowchart TD\nstart-->Process"
	res := Lint(src, Options{Strict: true})
	if res.Valid || res.Errors == 0 {
		t.Fatalf("strict mode must escalate convention findings, got %+v", res)
	}
}

func TestLintGuardAnnotationsAreNotEvents(t *testing.T) {
	res := Lint("flowchart TD\nCheck -->|guard:isAdult do:logAccess| Grant", Options{})
	if len(res.Diagnostics) != 0 {
		t.Fatalf("annotation-only labels must not warn, got %+v", res.Diagnostics)
	}
}

func TestLintDocumentFenceBalance(t *testing.T) {
	closed := "# Doc\n```mermaid\nflowchart TD\n```\n"
	if res := LintDocument(closed); !res.Valid {
		t.Fatalf("closed fences must pass, got %+v", res)
	}

	open := "# Doc\n```mermaid\nflowchart TD\nA-->B\n"
	res := LintDocument(open)
	if res.Valid || res.Errors != 1 {
		t.Fatalf("unterminated fence must be an error, got %+v", res)
	}
	if res.Diagnostics[0].Line != 2 {
		t.Fatalf("error must point at the opening fence, got line %d", res.Diagnostics[0].Line)
	}
}
