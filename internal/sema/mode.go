package sema

// Mode is the kind of access a callee requires for one parameter.
type Mode uint8

const (
	// ModeShared is a read-only view.
	ModeShared Mode = iota
	// ModeExclusive is a read-write view.
	ModeExclusive
	// ModeOwned takes the value.
	ModeOwned
	// ModeOwnedSelf is an Owned receiver that moves a field out of
	// itself; callers lose the receiver binding.
	ModeOwnedSelf
)

func (m Mode) String() string {
	switch m {
	case ModeShared:
		return "shared"
	case ModeExclusive:
		return "exclusive"
	case ModeOwned:
		return "owned"
	case ModeOwnedSelf:
		return "owned-self"
	default:
		return "invalid"
	}
}

// Consumes reports whether the mode takes ownership from the caller.
func (m Mode) Consumes() bool { return m == ModeOwned || m == ModeOwnedSelf }

// Adjust is the bookkeeping tag attached to a call-site argument. The
// emitter applies it verbatim and never re-derives it.
type Adjust uint8

const (
	// AdjustAsIs passes the argument unchanged.
	AdjustAsIs Adjust = iota
	// AdjustSharedBorrow inserts a shared borrow.
	AdjustSharedBorrow
	// AdjustExclusiveBorrow inserts an exclusive borrow.
	AdjustExclusiveBorrow
	// AdjustToOwnedString converts a string literal to an owned string.
	AdjustToOwnedString
	// AdjustInto converts into the callee's generic parameter type.
	AdjustInto
	// AdjustDeref pierces one reference layer.
	AdjustDeref
	// AdjustCloneIfShared clones a borrowed value an owned callee needs.
	AdjustCloneIfShared
	// AdjustBorrowOwnedString turns a string literal into an owned
	// string and borrows the temporary, for literals flowing to
	// shared-borrow string parameters.
	AdjustBorrowOwnedString
)

func (a Adjust) String() string {
	switch a {
	case AdjustAsIs:
		return "as-is"
	case AdjustSharedBorrow:
		return "borrow"
	case AdjustExclusiveBorrow:
		return "borrow-mut"
	case AdjustToOwnedString:
		return "to-owned-string"
	case AdjustInto:
		return "into"
	case AdjustDeref:
		return "deref"
	case AdjustCloneIfShared:
		return "clone"
	case AdjustBorrowOwnedString:
		return "borrow-owned-string"
	default:
		return "invalid"
	}
}

// Reason says why the adjuster picked a tag; diagnostics and debug
// dumps read it, the emitter does not.
type Reason uint8

const (
	ReasonNone Reason = iota
	// ReasonCopyByValue: the type is Copy, borrows are never needed.
	ReasonCopyByValue
	// ReasonAlreadyBorrowed: the argument is a reference already.
	ReasonAlreadyBorrowed
	// ReasonBorrowForShared: the callee reads through a shared borrow.
	ReasonBorrowForShared
	// ReasonBorrowForExclusive: the callee writes through an
	// exclusive borrow.
	ReasonBorrowForExclusive
	// ReasonLiteralNeedsOwned: a string literal flows to an owned
	// string parameter.
	ReasonLiteralNeedsOwned
	// ReasonGenericConversion: the concrete type converts into the
	// callee's generic parameter.
	ReasonGenericConversion
	// ReasonDerefCopy: a Copy value is read out of a reference.
	ReasonDerefCopy
	// ReasonCalleeDemandsOwnership: an owning callee receives a
	// borrowed Move value, so it is cloned.
	ReasonCalleeDemandsOwnership
	// ReasonBorrowOfNonPlace: an exclusive borrow was requested of a
	// temporary; the adjuster reports this as an error.
	ReasonBorrowOfNonPlace
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonCopyByValue:
		return "copy-by-value"
	case ReasonAlreadyBorrowed:
		return "already-borrowed"
	case ReasonBorrowForShared:
		return "borrow-for-shared"
	case ReasonBorrowForExclusive:
		return "borrow-for-exclusive"
	case ReasonLiteralNeedsOwned:
		return "literal-needs-owned"
	case ReasonGenericConversion:
		return "generic-conversion"
	case ReasonDerefCopy:
		return "deref-copy"
	case ReasonCalleeDemandsOwnership:
		return "callee-demands-ownership"
	case ReasonBorrowOfNonPlace:
		return "borrow-of-non-place"
	default:
		return "invalid"
	}
}

// ArgClass classifies the caller-side expression of an argument.
type ArgClass uint8

const (
	// ClassOwnedValue is a freshly produced value (call result,
	// constructor, literal other than string).
	ClassOwnedValue ArgClass = iota
	// ClassPlace is an addressable location: variable, field, index.
	ClassPlace
	// ClassSharedRef is an expression that is already a shared borrow.
	ClassSharedRef
	// ClassExclusiveRef is already an exclusive borrow.
	ClassExclusiveRef
	// ClassStringLit is a string literal.
	ClassStringLit
	// ClassMethodResult is the result of a method call.
	ClassMethodResult
	// ClassTemp is any other temporary.
	ClassTemp
)

func (c ArgClass) String() string {
	switch c {
	case ClassOwnedValue:
		return "owned-value"
	case ClassPlace:
		return "place"
	case ClassSharedRef:
		return "shared-ref"
	case ClassExclusiveRef:
		return "exclusive-ref"
	case ClassStringLit:
		return "string-literal"
	case ClassMethodResult:
		return "method-result"
	case ClassTemp:
		return "temporary"
	default:
		return "invalid"
	}
}

// IsPlace reports whether the class denotes an addressable location.
func (c ArgClass) IsPlace() bool { return c == ClassPlace }
