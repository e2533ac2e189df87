package machinegen

import (
	"fmt"
	"sort"
)

// Diagnostic severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Diagnostic is one parse or validation finding. The same shape travels
// through the parser, both validators, and the pipeline summary. Line is
// 1-based within the diagram block; zero means no specific line applies.
type Diagnostic struct {
	Message    string `json:"message"`
	Line       int    `json:"line,omitempty"`
	Severity   string `json:"severity"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Errorf builds an error-severity diagnostic.
func Errorf(line int, format string, args ...any) Diagnostic {
	return Diagnostic{
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Severity: SeverityError,
	}
}

// Warnf builds a warning-severity diagnostic.
func Warnf(line int, format string, args ...any) Diagnostic {
	return Diagnostic{
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Severity: SeverityWarning,
	}
}

// WithSuggestion returns a copy carrying a remediation hint.
func (d Diagnostic) WithSuggestion(hint string) Diagnostic {
	d.Suggestion = hint
	return d
}

// IsError reports whether the diagnostic blocks a clean result.
func (d Diagnostic) IsError() bool { return d.Severity == SeverityError }

// String renders the diagnostic for logs and CLI output.
func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s (line %d): %s", d.Severity, d.Line, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// PrefixDiagnostics stamps a source or machine label onto each message so
// aggregated findings stay attributable. Lines remain relative to their
// diagram block.
func PrefixDiagnostics(label string, diags []Diagnostic) []Diagnostic {
	if label == "" {
		return diags
	}
	out := make([]Diagnostic, len(diags))
	for i, d := range diags {
		d.Message = label + ": " + d.Message
		out[i] = d
	}
	return out
}

// HasErrors reports whether any diagnostic carries error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.IsError() {
			return true
		}
	}
	return false
}

// CountSeverities returns error and warning totals in one pass.
func CountSeverities(diags []Diagnostic) (errs, warns int) {
	for _, d := range diags {
		switch d.Severity {
		case SeverityError:
			errs++
		case SeverityWarning:
			warns++
		}
	}
	return errs, warns
}

// FilterSeverity returns the diagnostics matching severity, preserving order.
func FilterSeverity(diags []Diagnostic, severity string) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Severity == severity {
			out = append(out, d)
		}
	}
	return out
}

// SortDiagnostics orders findings deterministically for stable reports:
// ascending line, errors before warnings, then message text.
func SortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Severity != b.Severity {
			return a.Severity < b.Severity
		}
		return a.Message < b.Message
	})
}
