// Package rustgen renders the directive stream as Rust source. It
// reads only the stream: every name, type spelling, mode, and
// adjustment arrives pre-computed, so rendering is a pure formatting
// walk.
package rustgen

import (
	"fmt"
	"io"
	"strings"

	"gale/internal/lower"
)

// Emitter writes one module's Rust rendition.
type Emitter struct {
	w      io.Writer
	indent int
	err    error
}

func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// EmitProgram renders every module in stream order.
func EmitProgram(w io.Writer, prog *lower.Program) error {
	e := NewEmitter(w)
	for i := range prog.Modules {
		if i > 0 {
			e.printf("\n")
		}
		e.Module(&prog.Modules[i])
	}
	return e.err
}

// Module renders a module's imports and items. Placement inside the
// output crate (file layout, mod declarations) is the driver's job.
func (e *Emitter) Module(m *lower.Module) error {
	for _, imp := range m.Imports {
		e.line("use crate::%s;", strings.ReplaceAll(imp, "/", "::"))
	}
	if len(m.Imports) > 0 {
		e.printf("\n")
	}
	for i := range m.Items {
		if i > 0 {
			e.printf("\n")
		}
		e.item(&m.Items[i])
	}
	return e.err
}

func (e *Emitter) item(it *lower.Item) {
	switch it.Kind {
	case lower.ItemFn:
		e.fn(it.Fn, true)
	case lower.ItemStruct:
		e.structItem(it.Struct)
	case lower.ItemEnum:
		e.enumItem(it.Enum)
	case lower.ItemTrait:
		e.traitItem(it.Trait)
	case lower.ItemImpl:
		e.implItem(it.Impl)
	case lower.ItemConst:
		e.line("pub const %s: %s = %s;", it.Const.Name, it.Const.Type, e.expr(it.Const.Value))
	}
}

func (e *Emitter) fn(fn *lower.Fn, public bool) {
	var sb strings.Builder
	if public {
		sb.WriteString("pub ")
	}
	sb.WriteString("fn ")
	sb.WriteString(fn.Name)
	if len(fn.TypeParams) > 0 {
		sb.WriteString("<" + strings.Join(fn.TypeParams, ", ") + ">")
	}
	sb.WriteString("(")
	var parts []string
	if fn.HasSelf {
		parts = append(parts, selfParam(fn.SelfMode))
	}
	for _, p := range fn.Params {
		parts = append(parts, paramDecl(p))
	}
	sb.WriteString(strings.Join(parts, ", "))
	sb.WriteString(")")
	if fn.Ret != "" {
		sb.WriteString(" -> " + fn.Ret)
	}
	if fn.Body == nil {
		e.line("%s;", sb.String())
		return
	}
	e.line("%s {", sb.String())
	e.indent++
	e.blockBody(fn.Body)
	e.indent--
	e.line("}")
}

func selfParam(mode lower.Mode) string {
	switch mode {
	case lower.ModeShared:
		return "&self"
	case lower.ModeExclusive:
		return "&mut self"
	default:
		return "self"
	}
}

func paramDecl(p lower.Param) string {
	switch p.Mode {
	case lower.ModeShared:
		return p.Name + ": &" + p.Type
	case lower.ModeExclusive:
		return p.Name + ": &mut " + p.Type
	default:
		if p.Mut {
			return "mut " + p.Name + ": " + p.Type
		}
		return p.Name + ": " + p.Type
	}
}

func (e *Emitter) structItem(s *lower.Struct) {
	if s.Copyable {
		e.line("#[derive(Clone, Copy)]")
	} else {
		e.line("#[derive(Clone)]")
	}
	name := s.Name
	if len(s.TypeParams) > 0 {
		name += "<" + strings.Join(s.TypeParams, ", ") + ">"
	}
	e.line("pub struct %s {", name)
	e.indent++
	for _, f := range s.Fields {
		e.line("pub %s: %s,", f.Name, f.Type)
	}
	e.indent--
	e.line("}")
}

func (e *Emitter) enumItem(en *lower.Enum) {
	if en.Copyable {
		e.line("#[derive(Clone, Copy)]")
	} else {
		e.line("#[derive(Clone)]")
	}
	name := en.Name
	if len(en.TypeParams) > 0 {
		name += "<" + strings.Join(en.TypeParams, ", ") + ">"
	}
	e.line("pub enum %s {", name)
	e.indent++
	for _, v := range en.Variants {
		if len(v.Payload) == 0 {
			e.line("%s,", v.Name)
		} else {
			e.line("%s(%s),", v.Name, strings.Join(v.Payload, ", "))
		}
	}
	e.indent--
	e.line("}")
}

func (e *Emitter) traitItem(tr *lower.Trait) {
	e.line("pub trait %s {", tr.Name)
	e.indent++
	for _, m := range tr.Methods {
		var parts []string
		if m.HasSelf {
			parts = append(parts, selfParam(m.SelfMode))
		}
		for _, p := range m.Params {
			parts = append(parts, paramDecl(p))
		}
		sig := fmt.Sprintf("fn %s(%s)", m.Name, strings.Join(parts, ", "))
		if m.Ret != "" {
			sig += " -> " + m.Ret
		}
		e.line("%s;", sig)
	}
	e.indent--
	e.line("}")
}

func (e *Emitter) implItem(imp *lower.Impl) {
	if imp.Trait != "" {
		e.line("impl %s for %s {", imp.Trait, imp.Target)
	} else {
		e.line("impl %s {", imp.Target)
	}
	e.indent++
	// Trait impl methods take their visibility from the trait.
	public := imp.Trait == ""
	for i := range imp.Methods {
		if i > 0 {
			e.printf("\n")
		}
		e.fn(&imp.Methods[i], public)
	}
	e.indent--
	e.line("}")
}

// blockBody renders a block's statements and tail at the current
// indent, without the surrounding braces.
func (e *Emitter) blockBody(b *lower.Node) {
	for _, kid := range b.Kids {
		e.stmt(kid)
	}
	if b.Tail != nil {
		e.line("%s", e.expr(b.Tail))
	}
}

func (e *Emitter) stmt(n *lower.Node) {
	switch n.Kind {
	case lower.NodeLet:
		kw := "let"
		if n.Mut {
			kw = "let mut"
		}
		if len(n.Kids) > 0 {
			e.line("%s %s = %s;", kw, n.Text, e.expr(n.Kids[0]))
		} else {
			e.line("%s %s;", kw, n.Text)
		}
	case lower.NodeAssign:
		e.line("%s %s %s;", e.expr(n.Kids[0]), n.Text, e.expr(n.Kids[1]))
	case lower.NodeExprStmt:
		inner := n.Kids[0]
		// Statement-position if and match carry their own braces.
		if inner.Kind == lower.NodeIf || inner.Kind == lower.NodeMatch {
			e.control(inner)
			return
		}
		e.line("%s;", e.expr(inner))
	case lower.NodeReturn:
		if len(n.Kids) > 0 {
			e.line("return %s;", e.expr(n.Kids[0]))
		} else {
			e.line("return;")
		}
	case lower.NodeWhile:
		e.line("while %s {", e.expr(n.Kids[0]))
		e.indent++
		e.blockBody(n.Kids[1])
		e.indent--
		e.line("}")
	case lower.NodeFor:
		e.line("for %s in %s {", n.Text, e.expr(n.Kids[0]))
		e.indent++
		e.blockBody(n.Kids[1])
		e.indent--
		e.line("}")
	case lower.NodeLoop:
		e.line("loop {")
		e.indent++
		e.blockBody(n.Kids[0])
		e.indent--
		e.line("}")
	case lower.NodeBreak:
		e.line("break;")
	case lower.NodeContinue:
		e.line("continue;")
	case lower.NodeBlock:
		e.line("{")
		e.indent++
		e.blockBody(n)
		e.indent--
		e.line("}")
	default:
		e.line("%s;", e.expr(n))
	}
}

// control renders a statement-position if or match across lines.
func (e *Emitter) control(n *lower.Node) {
	switch n.Kind {
	case lower.NodeIf:
		cur := n
		e.line("if %s {", e.expr(cur.Kids[0]))
		e.indent++
		e.blockBody(cur.Kids[1])
		e.indent--
		for len(cur.Kids) > 2 {
			els := cur.Kids[2]
			if els.Kind == lower.NodeIf {
				e.line("} else if %s {", e.expr(els.Kids[0]))
				e.indent++
				e.blockBody(els.Kids[1])
				e.indent--
				cur = els
				continue
			}
			e.line("} else {")
			e.indent++
			if els.Kind == lower.NodeBlock {
				e.blockBody(els)
			} else {
				e.line("%s", e.expr(els))
			}
			e.indent--
			break
		}
		e.line("}")
	case lower.NodeMatch:
		e.line("match %s {", e.expr(n.Kids[0]))
		e.indent++
		for i := range n.Arms {
			arm := &n.Arms[i]
			e.line("%s => %s,", pattern(&arm.Pat), e.expr(arm.Body))
		}
		e.indent--
		e.line("}")
	}
}

func pattern(p *lower.Pattern) string {
	switch p.Kind {
	case lower.PatWildcard:
		return "_"
	case lower.PatLit:
		return p.Text
	case lower.PatBinding:
		return p.Text
	case lower.PatVariant:
		path := strings.Join(p.Path, "::")
		if len(p.Binders) == 0 {
			return path
		}
		return path + "(" + strings.Join(p.Binders, ", ") + ")"
	}
	return "_"
}

// expr renders an expression to a single string, then applies the
// node's adjustment.
func (e *Emitter) expr(n *lower.Node) string {
	return adjust(e.bare(n), n.Adjust)
}

func adjust(s string, a lower.Adjust) string {
	switch a {
	case lower.AdjustSharedBorrow:
		return "&" + s
	case lower.AdjustExclusiveBorrow:
		return "&mut " + s
	case lower.AdjustToOwnedString:
		return s + ".to_string()"
	case lower.AdjustInto:
		return s + ".into()"
	case lower.AdjustDeref:
		return "*" + s
	case lower.AdjustClone:
		return s + ".clone()"
	case lower.AdjustBorrowOwnedString:
		return "&" + s + ".to_string()"
	}
	return s
}

func (e *Emitter) bare(n *lower.Node) string {
	switch n.Kind {
	case lower.NodeLit, lower.NodeName, lower.NodePath:
		return n.Text
	case lower.NodeSelf:
		return "self"
	case lower.NodeUnary:
		return n.Text + e.operand(n.Kids[0])
	case lower.NodeBinary:
		return e.operand(n.Kids[0]) + " " + n.Text + " " + e.operand(n.Kids[1])
	case lower.NodeRef:
		if n.Mut {
			return "&mut " + e.expr(n.Kids[0])
		}
		return "&" + e.expr(n.Kids[0])
	case lower.NodeCall:
		return n.Text + "(" + e.args(n.Kids) + ")"
	case lower.NodeMethodCall:
		return e.operand(n.Kids[0]) + "." + n.Text + "(" + e.args(n.Kids[1:]) + ")"
	case lower.NodeField:
		return e.operand(n.Kids[0]) + "." + n.Text
	case lower.NodeIndex:
		return e.operand(n.Kids[0]) + "[" + e.expr(n.Kids[1]) + "]"
	case lower.NodeStructLit:
		var parts []string
		for i, kid := range n.Kids {
			parts = append(parts, n.Names[i]+": "+e.expr(kid))
		}
		return n.Text + " { " + strings.Join(parts, ", ") + " }"
	case lower.NodeTuple:
		return "(" + e.args(n.Kids) + ")"
	case lower.NodeSeqLit:
		return "vec![" + e.args(n.Kids) + "]"
	case lower.NodeMapLit:
		var parts []string
		for i := 0; i+1 < len(n.Kids); i += 2 {
			parts = append(parts, "("+e.expr(n.Kids[i])+", "+e.expr(n.Kids[i+1])+")")
		}
		return "HashMap::from([" + strings.Join(parts, ", ") + "])"
	case lower.NodeIf:
		s := "if " + e.expr(n.Kids[0]) + " { " + e.inlineBlock(n.Kids[1]) + " }"
		if len(n.Kids) > 2 {
			s += " else { " + e.inlineBlock(n.Kids[2]) + " }"
		}
		return s
	case lower.NodeMatch:
		var arms []string
		for i := range n.Arms {
			arm := &n.Arms[i]
			arms = append(arms, pattern(&arm.Pat)+" => "+e.expr(arm.Body))
		}
		return "match " + e.expr(n.Kids[0]) + " { " + strings.Join(arms, ", ") + " }"
	case lower.NodeBlock:
		return "{ " + e.inlineBlock(n) + " }"
	}
	return ""
}

// inlineBlock renders a value block on one line; multi-statement
// blocks keep statement separators.
func (e *Emitter) inlineBlock(b *lower.Node) string {
	if b.Kind != lower.NodeBlock {
		return e.expr(b)
	}
	var parts []string
	for _, kid := range b.Kids {
		parts = append(parts, e.inlineStmt(kid))
	}
	if b.Tail != nil {
		parts = append(parts, e.expr(b.Tail))
	}
	return strings.Join(parts, " ")
}

func (e *Emitter) inlineStmt(n *lower.Node) string {
	switch n.Kind {
	case lower.NodeLet:
		kw := "let"
		if n.Mut {
			kw = "let mut"
		}
		if len(n.Kids) > 0 {
			return fmt.Sprintf("%s %s = %s;", kw, n.Text, e.expr(n.Kids[0]))
		}
		return fmt.Sprintf("%s %s;", kw, n.Text)
	case lower.NodeAssign:
		return fmt.Sprintf("%s %s %s;", e.expr(n.Kids[0]), n.Text, e.expr(n.Kids[1]))
	case lower.NodeExprStmt:
		return e.expr(n.Kids[0]) + ";"
	case lower.NodeReturn:
		if len(n.Kids) > 0 {
			return "return " + e.expr(n.Kids[0]) + ";"
		}
		return "return;"
	default:
		return e.expr(n) + ";"
	}
}

// operand parenthesizes compound expressions when nested inside
// another operator or a member access.
func (e *Emitter) operand(n *lower.Node) string {
	s := e.expr(n)
	switch n.Kind {
	case lower.NodeBinary, lower.NodeIf, lower.NodeMatch, lower.NodeRef:
		if n.Adjust == lower.AdjustAsIs {
			return "(" + s + ")"
		}
	}
	return s
}

func (e *Emitter) args(kids []*lower.Node) string {
	parts := make([]string, 0, len(kids))
	for _, kid := range kids {
		parts = append(parts, e.expr(kid))
	}
	return strings.Join(parts, ", ")
}

func (e *Emitter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *Emitter) line(format string, args ...any) {
	e.printf("%s%s\n", strings.Repeat("    ", e.indent), fmt.Sprintf(format, args...))
}

