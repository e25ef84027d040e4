package types

// CopyClass says whether values of a type duplicate by bit-copy.
type CopyClass uint8

const (
	// CopyUnknown is the class of unsubstituted generic parameters.
	CopyUnknown CopyClass = iota
	// Copy types pass by value everywhere; no borrow is ever needed.
	Copy
	// Move types transfer ownership unless borrowed.
	Move
)

func (c CopyClass) String() string {
	switch c {
	case Copy:
		return "Copy"
	case Move:
		return "Move"
	default:
		return "Unknown"
	}
}

// NominalSource feeds the classifier the declaration facts it needs:
// field (or variant payload) types and whether the declaration carries
// the copyable capability.
type NominalSource interface {
	NominalFieldTypes(sym SymbolRef) []TypeID
	NominalCopyable(sym SymbolRef) bool
}

// Classifier computes CopyClass as a pessimistic least fixed point over
// the type graph: Move wins, and cycles resolve to Move.
type Classifier struct {
	in     *Interner
	src    NominalSource
	memo   map[TypeID]CopyClass
	active map[TypeID]bool
}

func NewClassifier(in *Interner, src NominalSource) *Classifier {
	return &Classifier{
		in:     in,
		src:    src,
		memo:   make(map[TypeID]CopyClass),
		active: make(map[TypeID]bool),
	}
}

// Of returns the CopyClass of id. The result depends on the type only,
// never on the binding or expression context.
func (c *Classifier) Of(id TypeID) CopyClass {
	if id == NoTypeID {
		return Move
	}
	if cls, ok := c.memo[id]; ok {
		return cls
	}
	if c.active[id] {
		// Recursive nominal type: has to live behind indirection.
		return Move
	}
	c.active[id] = true
	cls := c.classify(id)
	delete(c.active, id)
	c.memo[id] = cls
	return cls
}

func (c *Classifier) classify(id TypeID) CopyClass {
	t, ok := c.in.Lookup(id)
	if !ok {
		return Move
	}
	switch t.Kind {
	case KindUnit, KindBool, KindInt, KindFloat, KindChar:
		return Copy
	case KindRef, KindFn:
		return Copy
	case KindString, KindSeq, KindMap, KindTraitObject:
		return Move
	case KindGeneric, KindUnknown:
		return CopyUnknown
	case KindTuple:
		return c.allCopy(t.Args)
	case KindOption:
		return c.Of(t.Elem)
	case KindResult:
		return c.allCopy([]TypeID{t.Elem, t.Elem2})
	case KindNominal:
		// The declaration must opt in; structure alone is not enough.
		if c.src == nil || !c.src.NominalCopyable(t.Sym) {
			return Move
		}
		fields := c.src.NominalFieldTypes(t.Sym)
		if cls := c.allCopy(fields); cls != Copy {
			return Move
		}
		// Type arguments must be Copy as well.
		if cls := c.allCopy(t.Args); cls != Copy {
			return Move
		}
		return Copy
	}
	return Move
}

// allCopy folds element classes pessimistically: any Move forces Move,
// any Unknown forces Unknown, otherwise Copy.
func (c *Classifier) allCopy(elems []TypeID) CopyClass {
	result := Copy
	for _, e := range elems {
		switch c.Of(e) {
		case Move:
			return Move
		case CopyUnknown:
			result = CopyUnknown
		}
	}
	return result
}
