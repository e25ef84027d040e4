package diag

import "fmt"

// Code identifies one diagnostic shape. Ranges are reserved per phase:
// 1xxx lexer, 2xxx parser, 3xxx resolution, 4xxx typing,
// 5xxx ownership/mutability, 9xxx internal.
type Code uint16

const (
	UnknownCode Code = 0

	// Lexical.
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedChar         Code = 1003
	LexUnterminatedBlockComment Code = 1004
	LexBadNumber                Code = 1005

	// Syntactic.
	SynUnexpectedToken    Code = 2001
	SynExpectIdentifier   Code = 2002
	SynExpectType         Code = 2003
	SynUnclosedDelimiter  Code = 2004
	SynUnexpectedTopLevel Code = 2005
	SynExpectIdentAfterAs Code = 2006
	SynBadForHeader       Code = 2007
	SynBadMatchArm        Code = 2008

	// Resolution.
	ResUnresolvedPath    Code = 3001
	ResUnresolvedName    Code = 3002
	ResDuplicateName     Code = 3003
	ResImportConflict    Code = 3004
	ResParentOfRoot      Code = 3005
	ResUnknownModule     Code = 3006
	ResUnknownField      Code = 3007
	ResUnknownMethod     Code = 3008
	ResAmbiguousMethod   Code = 3009
	ResConstInitCycle    Code = 3010
	ResUnknownTypeName   Code = 3011
	ResNotCallable       Code = 3012
	ResArityMismatch     Code = 3013
	ResUnknownEnumCase   Code = 3014
	ResSelfOutsideMethod Code = 3015

	// Typing.
	TypeMismatch              Code = 4001
	TypeInconsistentMatchArms Code = 4002
	TypeInconsistentIfArms    Code = 4003
	TypeNotIterable           Code = 4004
	TypeBadOperands           Code = 4005
	TypeCannotInferGeneric    Code = 4006
	TypeConditionNotBool      Code = 4007

	// Ownership and mutability.
	OwnImmutableBindingMutated Code = 5002
	OwnMoveAfterMove           Code = 5003
	OwnBorrowOfNonPlace        Code = 5004
	OwnInferenceDidNotConverge Code = 5005
	OwnCannotMoveOutOfBorrow   Code = 5006

	// Internal invariants.
	InternalInvariantViolation Code = 9001
)

func (c Code) String() string {
	return fmt.Sprintf("GA%04d", uint16(c))
}

// Category groups codes into the reportable taxonomy.
func (c Code) Category() string {
	switch {
	case c == OwnImmutableBindingMutated:
		return "ImmutableBindingMutated"
	case c == OwnMoveAfterMove:
		return "MoveAfterMove"
	case c == OwnBorrowOfNonPlace:
		return "BorrowOfNonPlaceExpression"
	case c == OwnInferenceDidNotConverge:
		return "InferenceDidNotConverge"
	case c == ResAmbiguousMethod:
		return "AmbiguousMethod"
	case c == ResUnresolvedPath || c == ResUnresolvedName:
		return "UnresolvedPath"
	case c == TypeInconsistentMatchArms:
		return "InconsistentMatchArms"
	case c == InternalInvariantViolation:
		return "InternalInvariantViolation"
	case c >= 1000 && c < 2000:
		return "Lex"
	case c >= 2000 && c < 3000:
		return "Syntax"
	case c >= 3000 && c < 4000:
		return "Resolution"
	case c >= 4000 && c < 5000:
		return "TypeMismatch"
	case c >= 5000 && c < 6000:
		return "Ownership"
	}
	return "Unknown"
}
