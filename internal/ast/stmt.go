package ast

import (
	"gale/internal/source"
	"gale/internal/token"
)

type StmtKind uint8

const (
	StmtInvalid StmtKind = iota
	StmtLet
	StmtAssign
	StmtExpr
	StmtReturn
	StmtBreak
	StmtContinue
	StmtWhile
	StmtFor
	StmtLoop
)

// Stmt is one fat statement node. Field use per kind:
//
//	Let     Name, Mut (user-written), Type (optional), Init
//	Assign  Target, Op (Assign or compound), Init=value
//	Expr    Init
//	Return  Init (optional)
//	While   Target=condition, Body
//	For     Name=binder, Target=iterand, Body
//	Loop    Body
type Stmt struct {
	Kind   StmtKind
	Span   source.Span
	Name   source.StringID
	Mut    bool
	Type   TypeID
	Init   ExprID
	Target ExprID
	Op     token.Kind
	Body   BlockID
}

// Block is a sequence of statements with an optional tail expression
// whose value is the block's value.
type Block struct {
	Span  source.Span
	Stmts []StmtID
	Tail  ExprID
}
