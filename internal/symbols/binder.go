package symbols

import (
	"strings"

	"gale/internal/ast"
	"gale/internal/diag"
	"gale/internal/source"
)

// Binder installs one module's declarations into the table. It runs in
// two passes: RegisterHeaders declares every top-level item so that
// forward and cross-module references work, then BindImports resolves
// use declarations and impl blocks once every module root exists.
type Binder struct {
	table    *Table
	builder  *ast.Builder
	reporter diag.Reporter
	module   string
	root     ScopeID
}

// NewBinder prepares a binder for the module keyed by its
// slash-separated path; "" is the crate root.
func NewBinder(table *Table, builder *ast.Builder, reporter diag.Reporter, module string) *Binder {
	return &Binder{
		table:    table,
		builder:  builder,
		reporter: reporter,
		module:   module,
	}
}

// Root returns the module root scope; valid after RegisterHeaders.
func (b *Binder) Root() ScopeID { return b.root }

// RegisterHeaders declares every top-level item of the file in the
// module root scope. Bodies are not touched.
func (b *Binder) RegisterHeaders(fileID ast.FileID) ScopeID {
	file := b.builder.File(fileID)
	b.root = b.table.ModuleRoot(b.module, source.Span{})
	for _, itemID := range file.Items {
		item := b.builder.Item(itemID)
		switch item.Kind {
		case ast.ItemFn:
			fnID := ast.FnID(item.Payload)
			fn := b.builder.Fn(fnID)
			b.declareTop(Symbol{
				Name:   fn.Name,
				Kind:   SymbolFunction,
				Span:   fn.NameSpan,
				Module: b.module,
				Item:   itemID,
				Fn:     fnID,
			})
		case ast.ItemStruct:
			b.registerStruct(itemID, item.Payload)
		case ast.ItemEnum:
			b.registerEnum(itemID, item.Payload)
		case ast.ItemTrait:
			b.registerTrait(itemID, item.Payload)
		case ast.ItemConst:
			decl := b.builder.ConstAt(item.Payload)
			b.declareTop(Symbol{
				Name:   decl.Name,
				Kind:   SymbolConst,
				Span:   decl.Span,
				Module: b.module,
				Item:   itemID,
			})
		case ast.ItemUse, ast.ItemImpl:
			// Bound in the second pass.
		}
	}
	return b.root
}

func (b *Binder) registerStruct(itemID ast.ItemID, payload uint32) {
	decl := b.builder.StructAt(payload)
	flags := SymbolFlags(0)
	if hasAttr(b.table.Strings, decl.Attrs, "copyable") {
		flags |= SymbolFlagCopyable
	}
	sID, ok := b.declareTop(Symbol{
		Name:   decl.Name,
		Kind:   SymbolStruct,
		Span:   decl.Span,
		Flags:  flags,
		Module: b.module,
		Item:   itemID,
	})
	if !ok {
		return
	}
	for i, field := range decl.Fields {
		fID := b.table.Symbols.New(Symbol{
			Name:   field.Name,
			Kind:   SymbolField,
			Span:   field.Span,
			Module: b.module,
			Parent: sID,
			Index:  uint32(i),
		})
		b.table.AddField(sID, fID)
	}
}

func (b *Binder) registerEnum(itemID ast.ItemID, payload uint32) {
	decl := b.builder.EnumAt(payload)
	flags := SymbolFlags(0)
	if hasAttr(b.table.Strings, decl.Attrs, "copyable") {
		flags |= SymbolFlagCopyable
	}
	eID, ok := b.declareTop(Symbol{
		Name:   decl.Name,
		Kind:   SymbolEnum,
		Span:   decl.Span,
		Flags:  flags,
		Module: b.module,
		Item:   itemID,
	})
	if !ok {
		return
	}
	for i, variant := range decl.Variants {
		vID := b.table.Symbols.New(Symbol{
			Name:   variant.Name,
			Kind:   SymbolEnumVariant,
			Span:   variant.Span,
			Module: b.module,
			Parent: eID,
			Index:  uint32(i),
		})
		b.table.AddVariant(eID, vID)
	}
}

func (b *Binder) registerTrait(itemID ast.ItemID, payload uint32) {
	decl := b.builder.TraitAt(payload)
	tID, ok := b.declareTop(Symbol{
		Name:   decl.Name,
		Kind:   SymbolTrait,
		Span:   decl.Span,
		Module: b.module,
		Item:   itemID,
	})
	if !ok {
		return
	}
	for i, method := range decl.Methods {
		mID := b.table.Symbols.New(Symbol{
			Name:   method.Name,
			Kind:   SymbolTraitMethod,
			Span:   method.Span,
			Module: b.module,
			Parent: tID,
			Index:  uint32(i),
		})
		b.table.AddTraitFn(tID, mID)
	}
}

// declareTop installs a symbol in the module root, reporting duplicate
// names against the earlier declaration.
func (b *Binder) declareTop(sym Symbol) (SymbolID, bool) {
	scope := b.table.Scopes.Get(b.root)
	if prev, ok := scope.NameIndex[sym.Name]; ok {
		prevSym := b.table.Symbols.Get(prev)
		code := diag.ResDuplicateName
		msg := "`" + b.table.Strings.MustLookup(sym.Name) + "` is declared twice in this module"
		if prevSym != nil && prevSym.Flags&SymbolFlagImported != 0 {
			code = diag.ResImportConflict
			msg = "`" + b.table.Strings.MustLookup(sym.Name) + "` conflicts with an imported name"
		}
		rb := diag.Error(b.reporter, code, sym.Span, msg)
		if prevSym != nil {
			rb.WithNote(prevSym.Span, "previously declared here")
		}
		rb.Emit()
		return NoSymbolID, false
	}
	sym.Scope = b.root
	id := b.table.Symbols.New(sym)
	scope.NameIndex[sym.Name] = id
	scope.Symbols = append(scope.Symbols, id)
	return id, true
}

// BindImports resolves use declarations and impl blocks. Every module
// root must already exist.
func (b *Binder) BindImports(fileID ast.FileID) {
	file := b.builder.File(fileID)
	for _, itemID := range file.Items {
		item := b.builder.Item(itemID)
		switch item.Kind {
		case ast.ItemUse:
			b.bindUse(b.builder.UseAt(item.Payload))
		case ast.ItemImpl:
			b.bindImpl(itemID, b.builder.ImplAt(item.Payload))
		}
	}
}

func (b *Binder) bindUse(decl *ast.UseDecl) {
	if len(decl.Segments) == 0 && !decl.Glob {
		return
	}
	if decl.Glob {
		module, ok := b.resolveModulePath(decl.Segments, decl.Span)
		if !ok {
			return
		}
		target, ok := b.table.LookupModule(module)
		if !ok {
			diag.Error(b.reporter, diag.ResUnknownModule, decl.Span,
				"unknown module `"+b.pathText(decl.Segments)+"`").Emit()
			return
		}
		root := b.table.Scopes.Get(b.root)
		root.Globs = append(root.Globs, target)
		return
	}

	target, ok := b.resolveUseTarget(decl)
	if !ok {
		return
	}
	name := decl.Alias
	if name == source.NoStringID {
		name = b.table.Symbols.Get(target).Name
	}
	scope := b.table.Scopes.Get(b.root)
	if prev, exists := scope.NameIndex[name]; exists {
		prevSym := b.table.Symbols.Get(prev)
		rb := diag.Error(b.reporter, diag.ResImportConflict, decl.Span,
			"import `"+b.table.Strings.MustLookup(name)+"` collides with a declaration in this module")
		if prevSym != nil {
			rb.WithNote(prevSym.Span, "declared here")
		}
		rb.Emit()
		return
	}
	id := b.table.Symbols.New(Symbol{
		Name:   name,
		Kind:   SymbolImport,
		Scope:  b.root,
		Span:   decl.Span,
		Flags:  SymbolFlagImported,
		Module: b.module,
		Parent: target,
	})
	scope.NameIndex[name] = id
	scope.Symbols = append(scope.Symbols, id)
}

// resolveUseTarget finds the symbol a non-glob use path names: either
// an item in some module or a whole module.
func (b *Binder) resolveUseTarget(decl *ast.UseDecl) (SymbolID, bool) {
	segs := decl.Segments
	module, rest, ok := b.splitPathRoot(segs, decl.Span)
	if !ok {
		return NoSymbolID, false
	}
	// Consume segments while they keep naming deeper modules.
	for len(rest) > 1 {
		next := joinModule(module, b.table.Strings.MustLookup(rest[0]))
		if _, exists := b.table.LookupModule(next); !exists {
			diag.Error(b.reporter, diag.ResUnknownModule, decl.Span,
				"unknown module `"+next+"`").Emit()
			return NoSymbolID, false
		}
		module = next
		rest = rest[1:]
	}
	if len(rest) == 0 {
		// `use self;` style: bind the module itself.
		if sym := b.table.ModuleSymbol(module); sym.IsValid() {
			return sym, true
		}
		diag.Error(b.reporter, diag.ResUnknownModule, decl.Span,
			"unknown module `"+b.pathText(segs)+"`").Emit()
		return NoSymbolID, false
	}
	leaf := rest[0]
	if root, exists := b.table.LookupModule(module); exists {
		if sym, found := b.table.LookupIn(root, leaf); found {
			return sym, true
		}
	}
	// The leaf may itself be a module.
	next := joinModule(module, b.table.Strings.MustLookup(leaf))
	if sym := b.table.ModuleSymbol(next); sym.IsValid() {
		return sym, true
	}
	diag.Error(b.reporter, diag.ResUnresolvedPath, decl.Span,
		"cannot resolve `"+b.pathText(segs)+"`").
		WithNote(decl.Span, "searched module `"+moduleDisplay(module)+"`").Emit()
	return NoSymbolID, false
}

// resolveModulePath resolves a whole path to a module key.
func (b *Binder) resolveModulePath(segs []source.StringID, span source.Span) (string, bool) {
	module, rest, ok := b.splitPathRoot(segs, span)
	if !ok {
		return "", false
	}
	for _, seg := range rest {
		module = joinModule(module, b.table.Strings.MustLookup(seg))
	}
	if _, exists := b.table.LookupModule(module); !exists {
		diag.Error(b.reporter, diag.ResUnknownModule, span,
			"unknown module `"+b.pathText(segs)+"`").Emit()
		return "", false
	}
	return module, true
}

// splitPathRoot interprets leading crate/super/self segments and
// returns the anchor module plus the remaining segments.
func (b *Binder) splitPathRoot(segs []source.StringID, span source.Span) (string, []source.StringID, bool) {
	return b.splitPathRootWith(segs, span, b.reporter)
}

func (b *Binder) splitPathRootWith(segs []source.StringID, span source.Span, reporter diag.Reporter) (string, []source.StringID, bool) {
	if len(segs) == 0 {
		return "", nil, true
	}
	switch b.table.Strings.MustLookup(segs[0]) {
	case "crate":
		return "", segs[1:], true
	case "self":
		return b.module, segs[1:], true
	case "super":
		module := b.module
		i := 0
		for i < len(segs) && b.table.Strings.MustLookup(segs[i]) == "super" {
			if module == "" {
				diag.Error(reporter, diag.ResParentOfRoot, span,
					"the crate root has no parent module").Emit()
				return "", nil, false
			}
			module = parentModule(module)
			i++
		}
		return module, segs[i:], true
	default:
		// Bare paths anchor at the crate root.
		return "", segs, true
	}
}

// bindImpl attaches impl methods to the target type symbol and fills
// the method indexes.
func (b *Binder) bindImpl(itemID ast.ItemID, decl *ast.ImplDecl) {
	typeSym := b.resolveImplTarget(decl)
	if !typeSym.IsValid() {
		return
	}
	var traitSym SymbolID
	isTrait := len(decl.TraitPath) > 0
	if isTrait {
		traitSym = b.resolveTraitPath(decl.TraitPath, decl.Span)
		if !traitSym.IsValid() {
			return
		}
	}
	for _, fnID := range decl.Methods {
		fn := b.builder.Fn(fnID)
		mID := b.table.Symbols.New(Symbol{
			Name:   fn.Name,
			Kind:   SymbolMethod,
			Scope:  b.root,
			Span:   fn.NameSpan,
			Module: b.module,
			Item:   itemID,
			Fn:     fnID,
			Parent: typeSym,
		})
		if isTrait {
			b.table.AddTraitMethod(typeSym, fn.Name, mID)
			if tf := b.table.TraitFnByName(traitSym, fn.Name); tf.IsValid() {
				b.table.AddTraitFnImpl(tf, mID)
			}
			continue
		}
		if prev := b.table.ResolveMethod(typeSym, fn.Name); prev.Found.IsValid() {
			if prevSym := b.table.Symbols.Get(prev.Found); prevSym != nil && prevSym.Kind == SymbolMethod {
				diag.Error(b.reporter, diag.ResDuplicateName, fn.NameSpan,
					"method `"+b.table.Strings.MustLookup(fn.Name)+"` is defined twice for this type").
					WithNote(prevSym.Span, "previously defined here").Emit()
				continue
			}
		}
		b.table.AddInherentMethod(typeSym, fn.Name, mID)
	}
}

func (b *Binder) resolveImplTarget(decl *ast.ImplDecl) SymbolID {
	target := b.builder.TypeSyn(decl.Target)
	if target == nil || target.Kind != ast.TypeSynNamed || len(target.Path) == 0 {
		diag.Error(b.reporter, diag.ResUnknownTypeName, decl.Span,
			"impl target must be a named type").Emit()
		return NoSymbolID
	}
	sym := b.lookupTypeName(target.Path, target.Span)
	if !sym.IsValid() {
		return NoSymbolID
	}
	kind := b.table.Symbols.Get(sym).Kind
	if kind != SymbolStruct && kind != SymbolEnum {
		diag.Error(b.reporter, diag.ResUnknownTypeName, target.Span,
			"`"+b.pathText(target.Path)+"` is not a struct or enum").Emit()
		return NoSymbolID
	}
	return sym
}

func (b *Binder) resolveTraitPath(path []source.StringID, span source.Span) SymbolID {
	sym := b.lookupTypeName(path, span)
	if !sym.IsValid() {
		return NoSymbolID
	}
	if b.table.Symbols.Get(sym).Kind != SymbolTrait {
		diag.Error(b.reporter, diag.ResUnknownTypeName, span,
			"`"+b.pathText(path)+"` is not a trait").Emit()
		return NoSymbolID
	}
	return sym
}

// lookupTypeName resolves a type path against the module root: single
// segments search local items then imports, longer paths go through
// the module graph.
func (b *Binder) lookupTypeName(path []source.StringID, span source.Span) SymbolID {
	return b.LookupType(path, span, b.reporter)
}

// LookupType resolves a type path for later passes, reporting failures
// through the supplied reporter.
func (b *Binder) LookupType(path []source.StringID, span source.Span, reporter diag.Reporter) SymbolID {
	if len(path) == 1 {
		if sym, ok := b.table.LookupIn(b.root, path[0]); ok {
			return b.chaseImport(sym)
		}
		if root := b.table.Scopes.Get(b.root); root != nil {
			for _, glob := range root.Globs {
				if sym, ok := b.table.LookupIn(glob, path[0]); ok {
					return b.chaseImport(sym)
				}
			}
		}
		diag.Error(reporter, diag.ResUnknownTypeName, span,
			"unknown type `"+b.table.Strings.MustLookup(path[0])+"`").Emit()
		return NoSymbolID
	}
	sym, ok := b.resolveItemPathWith(path, span, reporter)
	if !ok {
		return NoSymbolID
	}
	return sym
}

// resolveItemPath resolves a multi-segment path to an item symbol.
func (b *Binder) resolveItemPath(path []source.StringID, span source.Span) (SymbolID, bool) {
	return b.resolveItemPathWith(path, span, b.reporter)
}

func (b *Binder) resolveItemPathWith(path []source.StringID, span source.Span, reporter diag.Reporter) (SymbolID, bool) {
	module, rest, ok := b.splitPathRootWith(path, span, reporter)
	if !ok {
		return NoSymbolID, false
	}
	for len(rest) > 1 {
		next := joinModule(module, b.table.Strings.MustLookup(rest[0]))
		if _, exists := b.table.LookupModule(next); !exists {
			diag.Error(reporter, diag.ResUnknownModule, span,
				"unknown module `"+next+"`").Emit()
			return NoSymbolID, false
		}
		module = next
		rest = rest[1:]
	}
	if len(rest) == 0 {
		diag.Error(reporter, diag.ResUnresolvedPath, span,
			"path does not name an item").Emit()
		return NoSymbolID, false
	}
	root, exists := b.table.LookupModule(module)
	if !exists {
		diag.Error(reporter, diag.ResUnknownModule, span,
			"unknown module `"+moduleDisplay(module)+"`").Emit()
		return NoSymbolID, false
	}
	sym, found := b.table.LookupIn(root, rest[0])
	if !found {
		diag.Error(reporter, diag.ResUnresolvedPath, span,
			"cannot resolve `"+b.pathText(path)+"`").
			WithNote(span, "searched module `"+moduleDisplay(module)+"`").Emit()
		return NoSymbolID, false
	}
	return b.chaseImport(sym), true
}

// chaseImport follows import bindings to the underlying symbol.
func (b *Binder) chaseImport(id SymbolID) SymbolID {
	for {
		sym := b.table.Symbols.Get(id)
		if sym == nil || sym.Kind != SymbolImport {
			return id
		}
		id = sym.Parent
	}
}

func (b *Binder) pathText(segs []source.StringID) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = b.table.Strings.MustLookup(s)
	}
	return strings.Join(parts, "::")
}

func hasAttr(in *source.Interner, attrs []source.StringID, want string) bool {
	for _, a := range attrs {
		if name, ok := in.Lookup(a); ok && name == want {
			return true
		}
	}
	return false
}

func joinModule(base, name string) string {
	if base == "" {
		return name
	}
	return base + "/" + name
}

func parentModule(module string) string {
	if i := strings.LastIndexByte(module, '/'); i >= 0 {
		return module[:i]
	}
	return ""
}

func moduleDisplay(module string) string {
	if module == "" {
		return "crate"
	}
	return module
}
