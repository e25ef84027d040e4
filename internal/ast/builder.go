package ast

// Builder owns every arena of a compilation. All modules share one id
// space, which keeps cross-module references trivial.
type Builder struct {
	Files    []File
	Items    *Arena[Item]
	Fns      *Arena[FnDecl]
	Structs  *Arena[StructDecl]
	Enums    *Arena[EnumDecl]
	Traits   *Arena[TraitDecl]
	Impls    *Arena[ImplDecl]
	Uses     *Arena[UseDecl]
	Consts   *Arena[ConstDecl]
	Exprs    *Arena[Expr]
	Stmts    *Arena[Stmt]
	Blocks   *Arena[Block]
	TypeSyns *Arena[TypeSyn]
}

func NewBuilder() *Builder {
	return &Builder{
		Items:    NewArena[Item](64),
		Fns:      NewArena[FnDecl](32),
		Structs:  NewArena[StructDecl](16),
		Enums:    NewArena[EnumDecl](8),
		Traits:   NewArena[TraitDecl](8),
		Impls:    NewArena[ImplDecl](16),
		Uses:     NewArena[UseDecl](16),
		Consts:   NewArena[ConstDecl](8),
		Exprs:    NewArena[Expr](256),
		Stmts:    NewArena[Stmt](128),
		Blocks:   NewArena[Block](64),
		TypeSyns: NewArena[TypeSyn](64),
	}
}

func (b *Builder) AddFile(f File) FileID {
	b.Files = append(b.Files, f)
	return FileID(len(b.Files))
}

func (b *Builder) File(id FileID) *File {
	if id == NoFileID || int(id) > len(b.Files) {
		return nil
	}
	return &b.Files[id-1]
}

func (b *Builder) NewExpr(e Expr) ExprID       { return ExprID(b.Exprs.Allocate(e)) }
func (b *Builder) NewStmt(s Stmt) StmtID       { return StmtID(b.Stmts.Allocate(s)) }
func (b *Builder) NewBlock(bl Block) BlockID   { return BlockID(b.Blocks.Allocate(bl)) }
func (b *Builder) NewTypeSyn(t TypeSyn) TypeID { return TypeID(b.TypeSyns.Allocate(t)) }
func (b *Builder) NewItem(it Item) ItemID      { return ItemID(b.Items.Allocate(it)) }

func (b *Builder) Expr(id ExprID) *Expr        { return b.Exprs.Get(uint32(id)) }
func (b *Builder) Stmt(id StmtID) *Stmt        { return b.Stmts.Get(uint32(id)) }
func (b *Builder) Block(id BlockID) *Block     { return b.Blocks.Get(uint32(id)) }
func (b *Builder) TypeSyn(id TypeID) *TypeSyn  { return b.TypeSyns.Get(uint32(id)) }
func (b *Builder) Item(id ItemID) *Item        { return b.Items.Get(uint32(id)) }
func (b *Builder) Fn(id FnID) *FnDecl          { return b.Fns.Get(uint32(id)) }
func (b *Builder) StructAt(i uint32) *StructDecl { return b.Structs.Get(i) }
func (b *Builder) EnumAt(i uint32) *EnumDecl     { return b.Enums.Get(i) }
func (b *Builder) TraitAt(i uint32) *TraitDecl   { return b.Traits.Get(i) }
func (b *Builder) ImplAt(i uint32) *ImplDecl     { return b.Impls.Get(i) }
func (b *Builder) UseAt(i uint32) *UseDecl       { return b.Uses.Get(i) }
func (b *Builder) ConstAt(i uint32) *ConstDecl   { return b.Consts.Get(i) }
