// Package types stores structural type descriptors behind dense
// interned ids.
package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// SymbolRef mirrors a symbols.SymbolID without importing the package;
// the two are converted at the sema boundary.
type SymbolRef uint32

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUnit
	KindBool
	KindInt
	KindFloat
	KindChar
	KindString
	KindNominal
	KindRef
	KindSeq
	KindMap
	KindTuple
	KindOption
	KindResult
	KindFn
	KindTraitObject
	KindGeneric
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindNominal:
		return "nominal"
	case KindRef:
		return "reference"
	case KindSeq:
		return "sequence"
	case KindMap:
		return "mapping"
	case KindTuple:
		return "tuple"
	case KindOption:
		return "option"
	case KindResult:
		return "result"
	case KindFn:
		return "function"
	case KindTraitObject:
		return "trait object"
	case KindGeneric:
		return "generic parameter"
	case KindUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a compact structural descriptor. Field use per kind:
//
//	Nominal      Sym (struct/enum symbol), Args (type arguments)
//	Ref          Elem, Mut
//	Seq          Elem
//	Map          Elem (key), Elem2 (value)
//	Tuple        Args
//	Option       Elem
//	Result       Elem (ok), Elem2 (err)
//	Fn           Args (params), Ret
//	TraitObject  Syms (trait symbols)
//	Generic      Sym (type-parameter symbol)
type Type struct {
	Kind  Kind
	Sym   SymbolRef
	Elem  TypeID
	Elem2 TypeID
	Ret   TypeID
	Args  []TypeID
	Syms  []SymbolRef
	Mut   bool
}

func MakeNominal(sym SymbolRef, args []TypeID) Type {
	return Type{Kind: KindNominal, Sym: sym, Args: args}
}

// MakeRef describes &T or &mut T depending on the mutable flag.
func MakeRef(elem TypeID, mut bool) Type {
	return Type{Kind: KindRef, Elem: elem, Mut: mut}
}

func MakeSeq(elem TypeID) Type {
	return Type{Kind: KindSeq, Elem: elem}
}

func MakeMap(key, value TypeID) Type {
	return Type{Kind: KindMap, Elem: key, Elem2: value}
}

func MakeTuple(elems []TypeID) Type {
	return Type{Kind: KindTuple, Args: elems}
}

func MakeOption(elem TypeID) Type {
	return Type{Kind: KindOption, Elem: elem}
}

func MakeResult(ok, err TypeID) Type {
	return Type{Kind: KindResult, Elem: ok, Elem2: err}
}

func MakeFn(params []TypeID, ret TypeID) Type {
	return Type{Kind: KindFn, Args: params, Ret: ret}
}

func MakeTraitObject(traits []SymbolRef) Type {
	return Type{Kind: KindTraitObject, Syms: traits}
}

func MakeGeneric(sym SymbolRef) Type {
	return Type{Kind: KindGeneric, Sym: sym}
}
