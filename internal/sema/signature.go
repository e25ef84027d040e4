package sema

import (
	"sync"

	"gale/internal/symbols"
	"gale/internal/types"
)

// ParamSig is one inferred parameter of a function signature.
type ParamSig struct {
	Name     string
	Type     types.TypeID
	Mode     Mode
	Consumed bool
	// EmitMut says the lowered binding needs the target's mutability
	// marker (owned parameter mutated in place).
	EmitMut bool
}

// FnSig is the inferred signature of one function or method.
type FnSig struct {
	Sym      symbols.SymbolID
	Name     string
	HasSelf  bool
	SelfMode Mode
	SelfType types.TypeID
	Params   []ParamSig
	Ret      types.TypeID
	// RetMove caches the Copy class of the return type.
	RetMove bool
}

// Equal compares the caller-visible parts of two signatures; fields
// that do not feed caller analysis (EmitMut) are ignored.
func (s *FnSig) Equal(o *FnSig) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.Sym != o.Sym || s.HasSelf != o.HasSelf || s.SelfMode != o.SelfMode || len(s.Params) != len(o.Params) {
		return false
	}
	for i := range s.Params {
		if s.Params[i].Mode != o.Params[i].Mode || s.Params[i].Consumed != o.Params[i].Consumed {
			return false
		}
	}
	return true
}

// Registry holds the current round's signatures. Writers apply a
// whole round under the lock; readers take a snapshot and never see a
// mix of rounds.
type Registry struct {
	mu   sync.RWMutex
	sigs map[symbols.SymbolID]*FnSig
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sigs: make(map[symbols.SymbolID]*FnSig)}
}

// Install seeds the conservative initial signature (all parameters
// Owned) before the first round.
func (r *Registry) Install(sig *FnSig) {
	r.mu.Lock()
	r.sigs[sig.Sym] = sig
	r.mu.Unlock()
}

// Snapshot returns the registry contents as of one round. The
// returned map must be treated as read-only.
func (r *Registry) Snapshot() map[symbols.SymbolID]*FnSig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[symbols.SymbolID]*FnSig, len(r.sigs))
	for k, v := range r.sigs {
		out[k] = v
	}
	return out
}

// ApplyRound swaps in a round's rederived signatures atomically and
// reports whether anything caller-visible changed.
func (r *Registry) ApplyRound(updates []*FnSig) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := false
	for _, sig := range updates {
		if !sig.Equal(r.sigs[sig.Sym]) {
			changed = true
		}
		r.sigs[sig.Sym] = sig
	}
	return changed
}

// Get returns the current signature of a symbol.
func (r *Registry) Get(sym symbols.SymbolID) *FnSig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sigs[sym]
}

// Len reports the number of registered signatures.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sigs)
}
