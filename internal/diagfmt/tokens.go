package diagfmt

import (
	"fmt"
	"io"

	"gale/internal/source"
	"gale/internal/token"
)

// Tokens dumps one token per line: position, kind, and spelling for
// identifiers and literals.
func Tokens(w io.Writer, toks []token.Token, fs *source.FileSet, interner *source.Interner) error {
	for _, t := range toks {
		pos := fs.Position(t.Span)
		if t.Text != source.NoStringID {
			if _, err := fmt.Fprintf(w, "%4d:%-3d %-16s %q\n", pos.Line, pos.Col, t.Kind.String(), interner.MustLookup(t.Text)); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%4d:%-3d %s\n", pos.Line, pos.Col, t.Kind.String()); err != nil {
			return err
		}
	}
	return nil
}
