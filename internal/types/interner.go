package types

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for the primitive types.
type Builtins struct {
	Invalid TypeID
	Unit    TypeID
	Bool    TypeID
	Int     TypeID
	Float   TypeID
	Char    TypeID
	String  TypeID
	Unknown TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Types are compared structurally; equal descriptors share one id.
type Interner struct {
	types    []Type
	index    map[string]TypeID
	builtins Builtins
}

func NewInterner() *Interner {
	in := &Interner{
		index: make(map[string]TypeID, 64),
	}
	in.types = append(in.types, Type{Kind: KindInvalid}) // id 0 sentinel
	in.builtins.Invalid = NoTypeID
	in.builtins.Unit = in.Intern(Type{Kind: KindUnit})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.Int = in.Intern(Type{Kind: KindInt})
	in.builtins.Float = in.Intern(Type{Kind: KindFloat})
	in.builtins.Char = in.Intern(Type{Kind: KindChar})
	in.builtins.String = in.Intern(Type{Kind: KindString})
	in.builtins.Unknown = in.Intern(Type{Kind: KindUnknown})
	return in
}

func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := structuralKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("types: interner overflow: %w", err))
	}
	id := TypeID(n)
	in.types = append(in.types, t)
	in.index[key] = id
	return id
}

func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

func (in *Interner) MustLookup(id TypeID) Type {
	t, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return t
}

func (in *Interner) Len() int {
	return len(in.types)
}

// structuralKey renders a canonical keying string; interned ids inside
// the descriptor make recursion unnecessary.
func structuralKey(t Type) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%d|%d|%d|%d|%v|", t.Kind, t.Sym, t.Elem, t.Elem2, t.Ret, t.Mut)
	for _, a := range t.Args {
		fmt.Fprintf(&b, "%d,", a)
	}
	b.WriteByte('|')
	for _, s := range t.Syms {
		fmt.Fprintf(&b, "%d,", s)
	}
	return b.String()
}
