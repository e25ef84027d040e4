package ast

import (
	"gale/internal/source"
	"gale/internal/token"
)

type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	ExprIdent
	ExprSelf
	ExprPath
	ExprLit
	ExprCall
	ExprMethodCall
	ExprField
	ExprIndex
	ExprBinary
	ExprUnary
	ExprRef
	ExprStructLit
	ExprTuple
	ExprSeqLit
	ExprMapLit
	ExprIf
	ExprMatch
	ExprBlock
)

type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitString
	LitChar
	LitBool
	LitUnit
)

// Lit holds a literal's kind and interned spelling (value for strings).
type Lit struct {
	Kind LitKind
	Text source.StringID
	Bool bool
}

type PatternKind uint8

const (
	PatWildcard PatternKind = iota
	PatLit
	PatBinding
	PatVariant
)

// Pattern is a match-arm pattern. PatVariant carries the variant path
// plus the names bound to its payload positions.
type Pattern struct {
	Kind    PatternKind
	Span    source.Span
	Lit     Lit
	Name    source.StringID
	Path    []source.StringID
	Binders []source.StringID
}

type MatchArm struct {
	Span source.Span
	Pat  Pattern
	Body ExprID
}

// Expr is one fat expression node. Field use per kind:
//
//	Ident       Name
//	Path        Path
//	Lit         Lit
//	Call        X=callee, Args
//	MethodCall  X=receiver, Name, Args
//	Field       X, Name
//	Index       X, Y
//	Binary      Op, X, Y
//	Unary       Op, X (Star = deref)
//	Ref         X, Mut
//	StructLit   Path, Names, Args (parallel field names/values)
//	Tuple/Seq   Args
//	MapLit      Args as key0,val0,key1,val1,…
//	If          X=cond, Block=then, Else
//	Match       X=scrutinee, Arms
//	Block       Block
type Expr struct {
	Kind  ExprKind
	Span  source.Span
	Name  source.StringID
	Path  []source.StringID
	X     ExprID
	Y     ExprID
	Args  []ExprID
	Names []source.StringID
	Op    token.Kind
	Lit   Lit
	Mut   bool
	Block BlockID
	Else  ExprID
	Arms  []MatchArm
}
