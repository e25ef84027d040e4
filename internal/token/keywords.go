package token

var keywords = map[string]Kind{
	"fn":       KwFn,
	"let":      KwLet,
	"mut":      KwMut,
	"struct":   KwStruct,
	"enum":     KwEnum,
	"trait":    KwTrait,
	"impl":     KwImpl,
	"const":    KwConst,
	"return":   KwReturn,
	"if":       KwIf,
	"else":     KwElse,
	"match":    KwMatch,
	"for":      KwFor,
	"in":       KwIn,
	"while":    KwWhile,
	"loop":     KwLoop,
	"break":    KwBreak,
	"continue": KwContinue,
	"use":      KwUse,
	"as":       KwAs,
	"self":     KwSelf,
	"Self":     KwSelfType,
	"crate":    KwCrate,
	"super":    KwSuper,
	"dyn":      KwDyn,
	"true":     KwTrue,
	"false":    KwFalse,
}

// LookupKeyword maps an identifier spelling to its keyword kind.
func LookupKeyword(s string) (Kind, bool) {
	k, ok := keywords[s]
	return k, ok
}
