package token

// Kind enumerates every token the lexer can produce.
type Kind uint8

const (
	EOF Kind = iota
	Error

	Ident
	IntLit
	FloatLit
	StringLit
	CharLit

	// Keywords.
	KwFn
	KwLet
	KwMut
	KwStruct
	KwEnum
	KwTrait
	KwImpl
	KwConst
	KwReturn
	KwIf
	KwElse
	KwMatch
	KwFor
	KwIn
	KwWhile
	KwLoop
	KwBreak
	KwContinue
	KwUse
	KwAs
	KwSelf
	KwSelfType
	KwCrate
	KwSuper
	KwDyn
	KwTrue
	KwFalse

	// Punctuation and operators.
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Colon
	ColonColon
	Semi
	Dot
	Arrow
	FatArrow
	Question
	At
	Underscore

	Assign
	PlusAssign
	MinusAssign
	StarAssign
	SlashAssign
	PercentAssign

	EqEq
	NotEq
	Lt
	Gt
	Le
	Ge

	Plus
	Minus
	Star
	Slash
	Percent
	Not
	Amp
	AndAnd
	OrOr
)

var kindNames = map[Kind]string{
	EOF:       "EOF",
	Error:     "error",
	Ident:     "identifier",
	IntLit:    "integer literal",
	FloatLit:  "float literal",
	StringLit: "string literal",
	CharLit:   "char literal",

	KwFn: "fn", KwLet: "let", KwMut: "mut", KwStruct: "struct",
	KwEnum: "enum", KwTrait: "trait", KwImpl: "impl", KwConst: "const",
	KwReturn: "return", KwIf: "if", KwElse: "else", KwMatch: "match",
	KwFor: "for", KwIn: "in", KwWhile: "while", KwLoop: "loop",
	KwBreak: "break", KwContinue: "continue", KwUse: "use", KwAs: "as",
	KwSelf: "self", KwSelfType: "Self", KwCrate: "crate", KwSuper: "super",
	KwDyn: "dyn", KwTrue: "true", KwFalse: "false",

	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}",
	LBracket: "[", RBracket: "]", Comma: ",", Colon: ":",
	ColonColon: "::", Semi: ";", Dot: ".", Arrow: "->",
	FatArrow: "=>", Question: "?", At: "@", Underscore: "_",

	Assign: "=", PlusAssign: "+=", MinusAssign: "-=",
	StarAssign: "*=", SlashAssign: "/=", PercentAssign: "%=",

	EqEq: "==", NotEq: "!=", Lt: "<", Gt: ">", Le: "<=", Ge: ">=",

	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
	Not: "!", Amp: "&", AndAnd: "&&", OrOr: "||",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// IsCompoundAssign reports whether the kind is one of += -= *= /= %=.
func (k Kind) IsCompoundAssign() bool {
	switch k {
	case PlusAssign, MinusAssign, StarAssign, SlashAssign, PercentAssign:
		return true
	}
	return false
}
