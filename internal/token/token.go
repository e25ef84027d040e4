package token

import "gale/internal/source"

// Token is one lexical unit with its span and, for identifiers and
// literals, the interned spelling.
type Token struct {
	Kind Kind
	Span source.Span
	Text source.StringID
}

// Is reports whether the token has the given kind.
func (t Token) Is(kind Kind) bool {
	return t.Kind == kind
}
