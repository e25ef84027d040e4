package ast

import "gale/internal/source"

// TypeSynKind enumerates syntactic type forms as written in source.
type TypeSynKind uint8

const (
	TypeSynInvalid TypeSynKind = iota
	TypeSynNamed               // path with optional type arguments
	TypeSynRef                 // &T / &mut T
	TypeSynSeq                 // [T]
	TypeSynMap                 // [K: V]
	TypeSynTuple               // (A, B, …)
	TypeSynFn                  // fn(A, B) -> R
	TypeSynTraitObject         // dyn Trait
	TypeSynOption              // T?
	TypeSynUnit                // ()
	TypeSynSelf                // Self
)

// TypeSyn is a syntactic type node; semantic types live in internal/types.
type TypeSyn struct {
	Kind TypeSynKind
	Span source.Span
	Path []source.StringID
	Args []TypeID
	Mut  bool
	Ret  TypeID
}
