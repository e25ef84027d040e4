package diag

import (
	"testing"

	"gale/internal/source"
)

func TestBagSortDeterministic(t *testing.T) {
	mk := func(file source.FileID, start uint32, sev Severity, code Code) Diagnostic {
		return New(sev, code, source.Span{File: file, Start: start, End: start + 1}, "x")
	}
	b := NewBag(10)
	b.Add(mk(1, 5, SevWarning, TypeMismatch))
	b.Add(mk(0, 9, SevError, ResUnresolvedPath))
	b.Add(mk(1, 5, SevError, OwnImmutableBindingMutated))
	b.Add(mk(0, 2, SevError, SynUnexpectedToken))
	b.Sort()

	items := b.Items()
	wantCodes := []Code{SynUnexpectedToken, ResUnresolvedPath, OwnImmutableBindingMutated, TypeMismatch}
	for i, want := range wantCodes {
		if items[i].Code != want {
			t.Fatalf("position %d: got %s, want %s", i, items[i].Code, want)
		}
	}
}

func TestBagLimit(t *testing.T) {
	b := NewBag(2)
	sp := source.Span{}
	if !b.Add(NewError(TypeMismatch, sp, "a")) || !b.Add(NewError(TypeMismatch, sp, "b")) {
		t.Fatal("first two adds must succeed")
	}
	if b.Add(NewError(TypeMismatch, sp, "c")) {
		t.Error("third add should be rejected")
	}
}

func TestBagDedup(t *testing.T) {
	b := NewBag(10)
	sp := source.Span{File: 1, Start: 3, End: 7}
	b.Add(NewError(ResUnresolvedName, sp, "first"))
	b.Add(NewError(ResUnresolvedName, sp, "second"))
	b.Dedup()
	if b.Len() != 1 {
		t.Errorf("len = %d after dedup", b.Len())
	}
}

func TestCategoryMapping(t *testing.T) {
	cases := map[Code]string{
		OwnImmutableBindingMutated: "ImmutableBindingMutated",
		OwnMoveAfterMove:           "MoveAfterMove",
		OwnBorrowOfNonPlace:        "BorrowOfNonPlaceExpression",
		OwnInferenceDidNotConverge: "InferenceDidNotConverge",
		ResAmbiguousMethod:         "AmbiguousMethod",
		ResUnresolvedPath:          "UnresolvedPath",
		TypeInconsistentMatchArms:  "InconsistentMatchArms",
		InternalInvariantViolation: "InternalInvariantViolation",
	}
	for code, want := range cases {
		if got := code.Category(); got != want {
			t.Errorf("%s category = %q, want %q", code, got, want)
		}
	}
}
