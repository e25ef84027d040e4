package sema

import (
	"sort"

	"gale/internal/diag"
	"gale/internal/symbols"
)

// enforce runs the post-fixed-point checks over one function: an
// immutable `let` that gets mutated, and a binding consumed twice.
// Parameters are exempt from the first check; their mutability is
// inferred, never written.
func enforce(ctx *Context, t *Typing, a *Analysis, reporter diag.Reporter) {
	var syms []symbols.SymbolID
	for sym := range a.Prints {
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })

	for _, sym := range syms {
		symData := ctx.Table.Symbols.Get(sym)
		name := ctx.Table.Strings.MustLookup(symData.Name)

		if symData.Kind == symbols.SymbolLocal &&
			symData.Flags&symbols.SymbolFlagMutable == 0 {
			if sites := a.MutSites[sym]; len(sites) > 0 {
				diag.Error(reporter, diag.OwnImmutableBindingMutated, sites[0],
					"cannot mutate immutable binding `"+name+"`").
					WithNote(symData.Span, "binding declared here").
					WithFix("change `let` to `let mut`").
					Emit()
			}
		}

		if sites := a.ConsumeSites[sym]; len(sites) > 1 {
			diag.Error(reporter, diag.OwnMoveAfterMove, sites[1],
				"`"+name+"` used after move").
				WithNote(sites[0], "value moved here").
				WithNote(symData.Span, "binding declared here").
				Emit()
		}
	}
}
