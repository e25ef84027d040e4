// Package lower turns the analyzed crate into a stream of emission
// directives. The stream is self-contained: names, rendered target
// types, inferred modes, argument adjustments, and mutability flags
// all travel inside it, so the emitter never looks back at the AST or
// the symbol tables.
package lower

// Mode is a parameter's inferred access mode, carried verbatim from
// analysis.
type Mode uint8

const (
	ModeShared Mode = iota
	ModeExclusive
	ModeOwned
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

// Adjust is a call-site adjustment tag. The emitter applies it
// verbatim and never re-derives it.
type Adjust uint8

const (
	AdjustAsIs Adjust = iota
	AdjustSharedBorrow
	AdjustExclusiveBorrow
	AdjustToOwnedString
	AdjustInto
	AdjustDeref
	AdjustClone
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
	case AdjustClone:
		return "clone"
	case AdjustBorrowOwnedString:
		return "borrow-owned-string"
	default:
		return "invalid"
	}
}

// Context says whether a control construct sits in value position.
// Expression-position match and if arms stay expressions; the emitter
// must not terminate them as statements.
type Context uint8

const (
	CtxStatement Context = iota
	CtxExpression
)

// Program is the directive stream for one crate, module order fixed
// by the driver.
type Program struct {
	Modules []Module
}

// Module is the EmitModuleHeader directive plus its items.
type Module struct {
	Path    string
	Imports []string
	Items   []Item
}

type ItemKind uint8

const (
	ItemInvalid ItemKind = iota
	ItemFn
	ItemStruct
	ItemEnum
	ItemTrait
	ItemImpl
	ItemConst
)

// Item is one EmitItem directive. Exactly one payload field is set,
// matching Kind.
type Item struct {
	Kind   ItemKind
	Name   string
	Fn     *Fn     `msgpack:",omitempty"`
	Struct *Struct `msgpack:",omitempty"`
	Enum   *Enum   `msgpack:",omitempty"`
	Trait  *Trait  `msgpack:",omitempty"`
	Impl   *Impl   `msgpack:",omitempty"`
	Const  *Const  `msgpack:",omitempty"`
}

// Fn is a function signature with inferred modes plus its lowered
// body.
type Fn struct {
	Name       string
	TypeParams []string
	HasSelf    bool
	SelfMode   Mode
	Params     []Param
	Ret        string
	Body       *Node `msgpack:",omitempty"`
}

// Param carries the rendered base type; the emitter derives the
// borrow spelling from Mode and the binding marker from Mut.
type Param struct {
	Name string
	Type string
	Mode Mode
	Mut  bool
}

type Field struct {
	Name string
	Type string
}

type Struct struct {
	Name       string
	TypeParams []string
	Fields     []Field
	Copyable   bool
}

type Variant struct {
	Name    string
	Payload []string
}

type Enum struct {
	Name       string
	TypeParams []string
	Variants   []Variant
	Copyable   bool
}

type TraitFn struct {
	Name     string
	HasSelf  bool
	SelfMode Mode
	Params   []Param
	Ret      string
}

type Trait struct {
	Name    string
	Methods []TraitFn
}

type Impl struct {
	Target  string
	Trait   string
	Methods []Fn
}

type Const struct {
	Name  string
	Type  string
	Value *Node
}

type NodeKind uint8

const (
	NodeInvalid NodeKind = iota

	// Statements.
	NodeBlock
	NodeLet
	NodeAssign
	NodeExprStmt
	NodeReturn
	NodeWhile
	NodeFor
	NodeLoop
	NodeBreak
	NodeContinue

	// Expressions.
	NodeLit
	NodeName
	NodeSelf
	NodePath
	NodeUnary
	NodeBinary
	NodeRef
	NodeCall
	NodeMethodCall
	NodeField
	NodeIndex
	NodeStructLit
	NodeTuple
	NodeSeqLit
	NodeMapLit
	NodeIf
	NodeMatch
)

// Node is one lowered statement or expression. Field use per kind:
//
//	Block       Kids=statements, Tail (optional value)
//	Let         Text=name, Mut, Kids[0]=initializer
//	Assign      Text=operator, Kids[0]=target, Kids[1]=value
//	ExprStmt    Kids[0]
//	Return      Kids[0] (optional)
//	While       Kids[0]=condition, Kids[1]=body block
//	For         Text=binder, Kids[0]=iterand (Adjust set), Kids[1]=body
//	Loop        Kids[0]=body
//	Lit         Text=target spelling, Adjust (owned string conversion)
//	Name/Path   Text
//	Unary       Text=operator, Kids[0]
//	Binary      Text=operator, Kids[0], Kids[1]
//	Ref         Mut, Kids[0]
//	Call        Text=callee, Kids=arguments (each with Adjust)
//	MethodCall  Text=method, Kids[0]=receiver, Kids[1:]=arguments
//	Field       Text=field, Kids[0]=base
//	Index       Kids[0]=base, Kids[1]=index
//	StructLit   Text=type name, Names=field names, Kids=values
//	Tuple/Seq   Kids
//	MapLit      Kids as key0,val0,key1,val1
//	If          Ctx, Kids[0]=cond, Kids[1]=then, Kids[2]=else (optional)
//	Match       Ctx, Kids[0]=scrutinee, Arms
type Node struct {
	Kind   NodeKind
	Text   string
	Mut    bool
	Adjust Adjust
	Ctx    Context
	Names  []string `msgpack:",omitempty"`
	Kids   []*Node  `msgpack:",omitempty"`
	Tail   *Node    `msgpack:",omitempty"`
	Arms   []Arm    `msgpack:",omitempty"`
}

type PatKind uint8

const (
	PatWildcard PatKind = iota
	PatLit
	PatBinding
	PatVariant
)

type Pattern struct {
	Kind    PatKind
	Text    string
	Path    []string `msgpack:",omitempty"`
	Binders []string `msgpack:",omitempty"`
}

type Arm struct {
	Pat  Pattern
	Body *Node
}
