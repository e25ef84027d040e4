package ast

import "gale/internal/source"

type ItemKind uint8

const (
	ItemInvalid ItemKind = iota
	ItemFn
	ItemStruct
	ItemEnum
	ItemTrait
	ItemImpl
	ItemUse
	ItemConst
)

// Item is a top-level declaration header; the payload lives in a
// kind-specific side arena referenced by index.
type Item struct {
	Kind    ItemKind
	Span    source.Span
	Name    source.StringID
	Payload uint32
}

type Param struct {
	Name source.StringID
	Type TypeID
	Span source.Span
}

// FnDecl covers free functions and impl methods. Methods have HasSelf
// set; the receiver form is always inferred, never written.
type FnDecl struct {
	Name       source.StringID
	Span       source.Span
	NameSpan   source.Span
	HasSelf    bool
	SelfSpan   source.Span
	TypeParams []source.StringID
	Params     []Param
	Ret        TypeID
	Body       BlockID
	Attrs      []source.StringID
}

type FieldDef struct {
	Name source.StringID
	Type TypeID
	Span source.Span
}

type StructDecl struct {
	Name       source.StringID
	Span       source.Span
	TypeParams []source.StringID
	Fields     []FieldDef
	Attrs      []source.StringID
}

type VariantDef struct {
	Name    source.StringID
	Payload []TypeID
	Span    source.Span
}

type EnumDecl struct {
	Name       source.StringID
	Span       source.Span
	TypeParams []source.StringID
	Variants   []VariantDef
	Attrs      []source.StringID
}

type TraitMethodDef struct {
	Name    source.StringID
	Span    source.Span
	HasSelf bool
	Params  []Param
	Ret     TypeID
}

type TraitDecl struct {
	Name    source.StringID
	Span    source.Span
	Methods []TraitMethodDef
}

// ImplDecl attaches methods to a target type, optionally for a trait.
type ImplDecl struct {
	Target    TypeID
	TraitPath []source.StringID
	Span      source.Span
	Methods   []FnID
}

// UseDecl is one import: path segments plus an optional alias. Whether
// the last segment names a module or a leaf item is decided during
// resolution. Glob imports every item of the target module.
type UseDecl struct {
	Segments []source.StringID
	Alias    source.StringID
	Span     source.Span
	Glob     bool
}

type ConstDecl struct {
	Name  source.StringID
	Span  source.Span
	Type  TypeID
	Value ExprID
}

// File is one parsed source file; a module is exactly one file.
type File struct {
	Source source.FileID
	Module string
	Items  []ItemID
}
