package sema

import "strings"

// Usage is one boolean fact in a fingerprint.
type Usage uint16

const (
	// UsageRead marks an appearance in a read position.
	UsageRead Usage = 1 << iota
	// UsageMutated marks reassignment, compound assignment, field
	// assignment, or an exclusive-receiver method call.
	UsageMutated
	// UsageMovedIntoField marks flowing into a struct-literal field,
	// a field assignment RHS, or an owning constructor argument.
	UsageMovedIntoField
	// UsageReturned marks appearing as a Move-class tail expression.
	UsageReturned
	// UsageIterNoReuse marks being the iterand of a loop with no use
	// after the loop.
	UsageIterNoReuse
	// UsageIterReuse marks being the iterand of a loop and used again
	// after the loop.
	UsageIterReuse
	// UsagePassedBorrow marks being passed to a borrowing parameter.
	UsagePassedBorrow
	// UsagePassedOwned marks being passed to an owning parameter.
	UsagePassedOwned
	// UsageFieldProjectedOut marks `self.f` with Move-class f flowing
	// into an owned destination.
	UsageFieldProjectedOut
	// UsageRebound marks the whole binding being reassigned, as
	// opposed to mutation through a field or index.
	UsageRebound
)

// Fingerprint is the usage summary of one parameter or local,
// computed in a single body traversal.
type Fingerprint struct {
	bits Usage
}

// Add records a fact.
func (f *Fingerprint) Add(u Usage) { f.bits |= u }

// Has reports whether a fact was recorded.
func (f Fingerprint) Has(u Usage) bool { return f.bits&u != 0 }

// Consuming reports whether any fact forces ownership (rule 3).
func (f Fingerprint) Consuming() bool {
	return f.Has(UsageMovedIntoField | UsageReturned | UsageIterNoReuse |
		UsagePassedOwned | UsageFieldProjectedOut)
}

func (f Fingerprint) String() string {
	names := []struct {
		u Usage
		s string
	}{
		{UsageRead, "read"},
		{UsageMutated, "mutated"},
		{UsageMovedIntoField, "moved-into-field"},
		{UsageReturned, "returned"},
		{UsageIterNoReuse, "iter-no-reuse"},
		{UsageIterReuse, "iter-reuse"},
		{UsagePassedBorrow, "passed-borrow"},
		{UsagePassedOwned, "passed-owned"},
		{UsageFieldProjectedOut, "field-projected-out"},
		{UsageRebound, "rebound"},
	}
	var parts []string
	for _, n := range names {
		if f.Has(n.u) {
			parts = append(parts, n.s)
		}
	}
	if len(parts) == 0 {
		return "unused"
	}
	return strings.Join(parts, "+")
}
