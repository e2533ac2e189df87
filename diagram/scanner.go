package diagram

import "strings"

// scanner is a cursor over one statement line. Edge forms backtrack by
// starting a fresh scanner per attempt.
type scanner struct {
	src string
	pos int
}

func newScanner(src string) *scanner { return &scanner{src: src} }

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
	}
}

// done reports whether only whitespace remains.
func (s *scanner) done() bool {
	s.skipSpace()
	return s.pos >= len(s.src)
}

// token consumes the exact literal tok, skipping leading whitespace.
func (s *scanner) token(tok string) bool {
	s.skipSpace()
	if strings.HasPrefix(s.src[s.pos:], tok) {
		s.pos += len(tok)
		return true
	}
	return false
}

// until consumes text through the next occurrence of delim and returns the
// text before it.
func (s *scanner) until(delim string) (string, bool) {
	idx := strings.Index(s.src[s.pos:], delim)
	if idx < 0 {
		return "", false
	}
	out := s.src[s.pos : s.pos+idx]
	s.pos += idx + len(delim)
	return out, true
}

// word consumes a dash-free identifier: a letter, then letters, digits, or
// underscores. Edge endpoints use this form so arrows never bind into ids.
func (s *scanner) word() (string, bool) {
	s.skipSpace()
	if s.pos >= len(s.src) || !isLetter(s.src[s.pos]) {
		return "", false
	}
	start := s.pos
	s.pos++
	for s.pos < len(s.src) && isWordChar(s.src[s.pos]) {
		s.pos++
	}
	return s.src[start:s.pos], true
}

// ident consumes a full identifier, dashes included, stopping where an arrow
// token begins.
func (s *scanner) ident() (string, bool) {
	s.skipSpace()
	if s.pos >= len(s.src) || !isLetter(s.src[s.pos]) {
		return "", false
	}
	start := s.pos
	s.pos++
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == '-' {
			rest := s.src[s.pos:]
			if strings.HasPrefix(rest, "-->") || strings.HasPrefix(rest, "-.") {
				break
			}
			s.pos++
			continue
		}
		if !isWordChar(c) {
			break
		}
		s.pos++
	}
	return s.src[start:s.pos], true
}

// bracketLabel consumes one of the four bracket label forms. The position is
// untouched when no complete bracket pair follows.
func (s *scanner) bracketLabel() (string, Shape, bool) {
	mark := s.pos
	forms := []struct {
		open, close string
		shape       Shape
	}{
		{"((", "))", ShapeCircle},
		{"(", ")", ShapeRounded},
		{"[", "]", ShapeRectangle},
		{"{", "}", ShapeDiamond},
	}
	for _, f := range forms {
		if !s.token(f.open) {
			continue
		}
		label, ok := s.until(f.close)
		if !ok {
			s.pos = mark
			return "", "", false
		}
		return strings.TrimSpace(label), f.shape, true
	}
	s.pos = mark
	return "", "", false
}

func isLetter(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z'
}

func isWordChar(c byte) bool {
	return isLetter(c) || c >= '0' && c <= '9' || c == '_'
}
