package machinegen

import "strings"

// machineSuffix terminates every sanitized machine identifier.
const machineSuffix = "machine"

// SanitizeIdentifier derives the canonical machine identifier shared by all
// emitted artifacts: keep alphanumerics, lowercase, prefix an underscore when
// the result would start with a digit, and append "machine" unless already
// suffixed. Total and idempotent for any input.
func SanitizeIdentifier(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	id := strings.ToLower(b.String())
	if id == "" {
		return machineSuffix
	}
	if id[0] >= '0' && id[0] <= '9' {
		id = "_" + id
	}
	if !strings.HasSuffix(id, machineSuffix) {
		id += machineSuffix
	}
	return id
}

// EventName derives the UPPER_SNAKE_CASE event constant for an edge label:
// alphanumerics uppercased, every other run collapsed to a single underscore,
// leading and trailing separators dropped. Callers strip guard and action
// annotations first.
func EventName(label string) string {
	var b strings.Builder
	sep := false
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z':
			c -= 'a' - 'A'
			fallthrough
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			sep = false
			b.WriteByte(c)
		default:
			sep = true
		}
	}
	return b.String()
}

// ExportName renders the identifier for display headers: the sanitized id
// with its first letter upcased, underscore prefix preserved.
func ExportName(raw string) string {
	id := SanitizeIdentifier(raw)
	for i, r := range id {
		if r >= 'a' && r <= 'z' {
			return id[:i] + strings.ToUpper(string(r)) + id[i+1:]
		}
		if r != '_' {
			break
		}
	}
	return id
}
