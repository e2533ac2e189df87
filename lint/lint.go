// Package lint checks raw diagram text without building any graph state. It
// re-tokenizes line by line, so it can run standalone over sources that the
// full parser would reject, and its findings are scored separately from
// parser diagnostics.
package lint

import (
	"strings"

	machinegen "github.com/goliatone/go-machinegen"
	"github.com/goliatone/go-machinegen/diagram"
)

// Options tune the checker. Strict escalates naming-convention findings from
// warnings to errors.
type Options struct {
	Strict bool
}

// Result scores one lint pass. Valid means zero errors; warnings never
// invalidate a source.
type Result struct {
	Diagnostics []machinegen.Diagnostic `json:"diagnostics"`
	Errors      int                     `json:"errors"`
	Warnings    int                     `json:"warnings"`
	Valid       bool                    `json:"valid"`
}

// NewResult scores a diagnostic set.
func NewResult(diags []machinegen.Diagnostic) Result {
	machinegen.SortDiagnostics(diags)
	errs, warns := machinegen.CountSeverities(diags)
	return Result{Diagnostics: diags, Errors: errs, Warnings: warns, Valid: errs == 0}
}

// Lint checks one diagram block: exactly one start line with an allowed
// direction, balanced brackets, and naming conventions (state ids PascalCase,
// event labels UPPER_SNAKE_CASE).
func Lint(source string, opts Options) Result {
	c := checker{strict: opts.Strict}
	starts := 0

	for i, raw := range strings.Split(source, "\n") {
		line := i + 1
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, "%%") {
			continue
		}
		text = strings.TrimSpace(strings.TrimRight(text, ";"))

		if _, ok := diagram.StartDirection(text); ok {
			starts++
			if starts > 1 {
				c.errorf(line, "duplicate diagram start line")
			}
			continue
		}
		if f := strings.Fields(text); len(f) > 0 && (f[0] == "flowchart" || f[0] == "graph") {
			c.errorf(line, "diagram start must name a direction (TD, TB, BT, RL, LR)")
			continue
		}
		if strings.HasPrefix(text, "classDef ") || strings.HasPrefix(text, "class ") {
			continue
		}

		if !balancedBrackets(text) {
			c.errorf(line, "unbalanced brackets: %s", text)
		}
		c.checkNames(text, line)
	}

	if starts == 0 {
		c.errorf(0, "missing diagram start line (flowchart or graph)")
	}
	return NewResult(c.diags)
}

// LintDocument checks host-level framing: every fenced region that opens must
// close. Block-level checks stay in Lint.
func LintDocument(text string) Result {
	c := checker{}
	open := 0
	for i, line := range strings.Split(text, "\n") {
		t := strings.TrimLeft(line, " \t>")
		if !strings.HasPrefix(t, "```") && !strings.HasPrefix(t, "~~~") {
			continue
		}
		if open == 0 {
			open = i + 1
		} else {
			open = 0
		}
	}
	if open > 0 {
		c.errorf(open, "unterminated fenced block")
	}
	return NewResult(c.diags)
}

type checker struct {
	strict bool
	diags  []machinegen.Diagnostic
}

func (c *checker) errorf(line int, format string, args ...any) {
	c.diags = append(c.diags, machinegen.Errorf(line, format, args...))
}

// convention findings are warnings unless the checker runs strict.
func (c *checker) convention(line int, hint, format string, args ...any) {
	d := machinegen.Warnf(line, format, args...)
	if c.strict {
		d = machinegen.Errorf(line, format, args...)
	}
	c.diags = append(c.diags, d.WithSuggestion(hint))
}

func (c *checker) checkNames(text string, line int) {
	if from, label, to, ok := splitEdgeLine(text); ok {
		c.checkStateID(stripDecoration(from), line)
		c.checkStateID(stripDecoration(to), line)
		c.checkEventLabel(label, line)
		return
	}
	id := text
	if i := strings.Index(id, "@{"); i >= 0 {
		id = id[:i]
	}
	c.checkStateID(stripDecoration(id), line)
}

func (c *checker) checkStateID(id string, line int) {
	if id == "" || strings.ContainsAny(id, " \t") || isPascalCase(id) {
		return
	}
	c.convention(line, "rename to "+pascalSuggestion(id), "state id %q is not PascalCase", id)
}

func (c *checker) checkEventLabel(label string, line int) {
	stripped := strings.TrimSpace(diagram.StripAnnotations(label))
	if stripped == "" || isUpperSnake(stripped) {
		return
	}
	c.convention(line, "rename to "+machinegen.EventName(stripped), "event label %q is not UPPER_SNAKE_CASE", stripped)
}

var arrowTokens = []string{"-.->", "-->", "-.", "--"}

// firstArrow finds the earliest arrow token; on position ties the longer
// token wins so `-.->` is never read as `-.`.
func firstArrow(text string) (string, int) {
	best, bestIdx := "", -1
	for _, tok := range arrowTokens {
		i := strings.Index(text, tok)
		if i < 0 {
			continue
		}
		if bestIdx < 0 || i < bestIdx || (i == bestIdx && len(tok) > len(best)) {
			best, bestIdx = tok, i
		}
	}
	return best, bestIdx
}

// splitEdgeLine carves an edge statement into its endpoint and label regions
// without validating them; the checker only needs the raw tokens.
func splitEdgeLine(text string) (from, label, to string, ok bool) {
	tok, i := firstArrow(text)
	if i < 0 {
		return "", "", "", false
	}
	from = strings.TrimSpace(text[:i])
	rest := strings.TrimSpace(text[i+len(tok):])
	switch {
	case strings.HasPrefix(rest, "|"):
		if end := strings.Index(rest[1:], "|"); end >= 0 {
			label = strings.TrimSpace(rest[1 : end+1])
			to = strings.TrimSpace(rest[end+2:])
		} else {
			to = rest
		}
	case tok == "-.":
		if end := strings.Index(rest, ".->"); end >= 0 {
			label = strings.TrimSpace(rest[:end])
			to = strings.TrimSpace(rest[end+3:])
		} else {
			to = rest
		}
	case tok == "--":
		if end := strings.Index(rest, "-->"); end >= 0 {
			label = strings.TrimSpace(rest[:end])
			to = strings.TrimSpace(rest[end+3:])
		} else {
			to = rest
		}
	case strings.HasPrefix(rest, "["):
		if end := strings.Index(rest, "]"); end >= 0 {
			label = strings.TrimSpace(rest[1:end])
			to = strings.TrimSpace(rest[end+1:])
		} else {
			to = rest
		}
	default:
		to = rest
	}
	return from, label, to, true
}

// stripDecoration drops a bracket label so the leading token can be checked
// as an identifier.
func stripDecoration(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "[({"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func balancedBrackets(text string) bool {
	var stack []byte
	inPipe := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '|' {
			inPipe = !inPipe
			continue
		}
		if inPipe {
			continue
		}
		switch c {
		case '[', '(', '{':
			stack = append(stack, c)
		case ']', ')', '}':
			if len(stack) == 0 || stack[len(stack)-1] != opener(c) {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) == 0
}

func opener(close byte) byte {
	switch close {
	case ']':
		return '['
	case ')':
		return '('
	case '}':
		return '{'
	}
	return 0
}

func isPascalCase(s string) bool {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

func isUpperSnake(s string) bool {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			return false
		}
	}
	return true
}

// pascalSuggestion renders the conventional spelling of a state id for the
// diagnostic hint.
func pascalSuggestion(id string) string {
	var b strings.Builder
	up := true
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z':
			if up {
				c -= 'a' - 'A'
			}
			b.WriteByte(c)
			up = false
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
			up = false
		default:
			up = true
		}
	}
	return b.String()
}
