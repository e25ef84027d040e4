// Package lexer turns Gale source bytes into tokens.
package lexer

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"gale/internal/diag"
	"gale/internal/source"
	"gale/internal/token"
)

type Lexer struct {
	file     *source.File
	interner *source.Interner
	reporter diag.Reporter
	pos      uint32
}

func New(file *source.File, interner *source.Interner, reporter diag.Reporter) *Lexer {
	return &Lexer{
		file:     file,
		interner: interner,
		reporter: reporter,
	}
}

// ScanAll tokenizes the whole file, ending with exactly one EOF token.
func ScanAll(file *source.File, interner *source.Interner, reporter diag.Reporter) []token.Token {
	lx := New(file, interner, reporter)
	toks := make([]token.Token, 0, len(file.Content)/4+1)
	for {
		t := lx.Next()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			return toks
		}
	}
}

// Next returns the next significant token; comments and whitespace are
// skipped.
func (lx *Lexer) Next() token.Token {
	lx.skipTrivia()
	if lx.eof() {
		return token.Token{Kind: token.EOF, Span: lx.spanFrom(lx.pos)}
	}

	start := lx.pos
	ch := lx.peek()
	switch {
	case ch == '_' && !isIdentContinue(lx.peekAt(1)):
		lx.pos++
		return token.Token{Kind: token.Underscore, Span: lx.spanFrom(start)}
	case isIdentStart(ch):
		return lx.scanIdentOrKeyword()
	case ch >= utf8.RuneSelf:
		r, size := utf8.DecodeRune(lx.rest())
		if unicode.IsLetter(r) {
			return lx.scanIdentOrKeyword()
		}
		// Always consume the rune so scanning makes progress.
		lx.pos += uint32(size)
		diag.Error(lx.reporter, diag.LexUnknownChar, lx.spanFrom(start),
			"unexpected character").Emit()
		return token.Token{Kind: token.Error, Span: lx.spanFrom(start)}
	case isDigit(ch):
		return lx.scanNumber()
	case ch == '"':
		return lx.scanString()
	case ch == '\'':
		return lx.scanChar()
	default:
		return lx.scanOperator()
	}
}

func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.pos
	for !lx.eof() {
		r, size := utf8.DecodeRune(lx.rest())
		if !isIdentContinueRune(r) {
			break
		}
		lx.pos += uint32(size)
	}
	raw := lx.file.Content[start:lx.pos]
	// Canonical NFC so visually identical identifiers intern identically.
	text := norm.NFC.String(string(raw))
	if kind, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: kind, Span: lx.spanFrom(start)}
	}
	return token.Token{
		Kind: token.Ident,
		Span: lx.spanFrom(start),
		Text: lx.interner.Intern(text),
	}
}

func (lx *Lexer) scanNumber() token.Token {
	start := lx.pos
	kind := token.IntLit
	for !lx.eof() && (isDigit(lx.peek()) || lx.peek() == '_') {
		lx.pos++
	}
	if !lx.eof() && lx.peek() == '.' && isDigit(lx.peekAt(1)) {
		kind = token.FloatLit
		lx.pos++
		for !lx.eof() && (isDigit(lx.peek()) || lx.peek() == '_') {
			lx.pos++
		}
	}
	if !lx.eof() && isIdentStart(lx.peek()) {
		bad := lx.pos
		for !lx.eof() && isIdentContinue(lx.peek()) {
			lx.pos++
		}
		diag.Error(lx.reporter, diag.LexBadNumber,
			source.Span{File: lx.file.ID, Start: bad, End: lx.pos},
			"malformed numeric literal").Emit()
		return token.Token{Kind: token.Error, Span: lx.spanFrom(start)}
	}
	return token.Token{
		Kind: kind,
		Span: lx.spanFrom(start),
		Text: lx.interner.InternBytes(lx.file.Content[start:lx.pos]),
	}
}

func (lx *Lexer) scanString() token.Token {
	start := lx.pos
	lx.pos++ // opening quote
	var out []byte
	for {
		if lx.eof() || lx.peek() == '\n' {
			diag.Error(lx.reporter, diag.LexUnterminatedString, lx.spanFrom(start),
				"unterminated string literal").Emit()
			return token.Token{Kind: token.Error, Span: lx.spanFrom(start)}
		}
		ch := lx.peek()
		if ch == '"' {
			lx.pos++
			break
		}
		if ch == '\\' {
			lx.pos++
			out = append(out, unescape(lx.peek()))
			lx.pos++
			continue
		}
		out = append(out, ch)
		lx.pos++
	}
	return token.Token{
		Kind: token.StringLit,
		Span: lx.spanFrom(start),
		Text: lx.interner.InternBytes(out),
	}
}

func (lx *Lexer) scanChar() token.Token {
	start := lx.pos
	lx.pos++ // opening quote
	var value []byte
	for !lx.eof() && lx.peek() != '\'' && lx.peek() != '\n' {
		if lx.peek() == '\\' {
			lx.pos++
			value = append(value, unescape(lx.peek()))
			lx.pos++
			continue
		}
		value = append(value, lx.peek())
		lx.pos++
	}
	if lx.eof() || lx.peek() != '\'' {
		diag.Error(lx.reporter, diag.LexUnterminatedChar, lx.spanFrom(start),
			"unterminated char literal").Emit()
		return token.Token{Kind: token.Error, Span: lx.spanFrom(start)}
	}
	lx.pos++
	return token.Token{
		Kind: token.CharLit,
		Span: lx.spanFrom(start),
		Text: lx.interner.InternBytes(value),
	}
}

func (lx *Lexer) scanOperator() token.Token {
	start := lx.pos
	ch := lx.peek()
	next := lx.peekAt(1)
	two := func(kind token.Kind) token.Token {
		lx.pos += 2
		return token.Token{Kind: kind, Span: lx.spanFrom(start)}
	}
	one := func(kind token.Kind) token.Token {
		lx.pos++
		return token.Token{Kind: kind, Span: lx.spanFrom(start)}
	}

	switch ch {
	case '(':
		return one(token.LParen)
	case ')':
		return one(token.RParen)
	case '{':
		return one(token.LBrace)
	case '}':
		return one(token.RBrace)
	case '[':
		return one(token.LBracket)
	case ']':
		return one(token.RBracket)
	case ',':
		return one(token.Comma)
	case ';':
		return one(token.Semi)
	case '.':
		return one(token.Dot)
	case '?':
		return one(token.Question)
	case '@':
		return one(token.At)
	case ':':
		if next == ':' {
			return two(token.ColonColon)
		}
		return one(token.Colon)
	case '-':
		if next == '>' {
			return two(token.Arrow)
		}
		if next == '=' {
			return two(token.MinusAssign)
		}
		return one(token.Minus)
	case '=':
		if next == '>' {
			return two(token.FatArrow)
		}
		if next == '=' {
			return two(token.EqEq)
		}
		return one(token.Assign)
	case '+':
		if next == '=' {
			return two(token.PlusAssign)
		}
		return one(token.Plus)
	case '*':
		if next == '=' {
			return two(token.StarAssign)
		}
		return one(token.Star)
	case '/':
		if next == '=' {
			return two(token.SlashAssign)
		}
		return one(token.Slash)
	case '%':
		if next == '=' {
			return two(token.PercentAssign)
		}
		return one(token.Percent)
	case '!':
		if next == '=' {
			return two(token.NotEq)
		}
		return one(token.Not)
	case '<':
		if next == '=' {
			return two(token.Le)
		}
		return one(token.Lt)
	case '>':
		if next == '=' {
			return two(token.Ge)
		}
		return one(token.Gt)
	case '&':
		if next == '&' {
			return two(token.AndAnd)
		}
		return one(token.Amp)
	case '|':
		if next == '|' {
			return two(token.OrOr)
		}
	}
	lx.pos++
	diag.Error(lx.reporter, diag.LexUnknownChar, lx.spanFrom(start),
		"unexpected character").Emit()
	return token.Token{Kind: token.Error, Span: lx.spanFrom(start)}
}

// skipTrivia consumes whitespace and both comment forms.
func (lx *Lexer) skipTrivia() {
	for !lx.eof() {
		ch := lx.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			lx.pos++
		case ch == '/' && lx.peekAt(1) == '/':
			for !lx.eof() && lx.peek() != '\n' {
				lx.pos++
			}
		case ch == '/' && lx.peekAt(1) == '*':
			start := lx.pos
			lx.pos += 2
			depth := 1
			for !lx.eof() && depth > 0 {
				if lx.peek() == '*' && lx.peekAt(1) == '/' {
					depth--
					lx.pos += 2
					continue
				}
				if lx.peek() == '/' && lx.peekAt(1) == '*' {
					depth++
					lx.pos += 2
					continue
				}
				lx.pos++
			}
			if depth > 0 {
				diag.Error(lx.reporter, diag.LexUnterminatedBlockComment,
					lx.spanFrom(start), "unterminated block comment").Emit()
			}
		default:
			return
		}
	}
}

func (lx *Lexer) eof() bool {
	return int(lx.pos) >= len(lx.file.Content)
}

func (lx *Lexer) peek() byte {
	return lx.file.Content[lx.pos]
}

func (lx *Lexer) peekAt(off uint32) byte {
	i := int(lx.pos + off)
	if i >= len(lx.file.Content) {
		return 0
	}
	return lx.file.Content[i]
}

func (lx *Lexer) rest() []byte {
	return lx.file.Content[lx.pos:]
}

func (lx *Lexer) spanFrom(start uint32) source.Span {
	return source.Span{File: lx.file.ID, Start: start, End: lx.pos}
}

func unescape(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		return ch
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

// Combining marks stay inside identifiers so decomposed spellings
// reach NFC as one word.
func isIdentContinueRune(r rune) bool {
	if r < utf8.RuneSelf {
		return isIdentContinue(byte(r))
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
