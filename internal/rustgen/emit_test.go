package rustgen

import (
	"strings"
	"testing"

	"gale/internal/lower"
)

func render(t *testing.T, m *lower.Module) string {
	t.Helper()
	var sb strings.Builder
	if err := NewEmitter(&sb).Module(m); err != nil {
		t.Fatalf("emit: %v", err)
	}
	return sb.String()
}

func name(s string) *lower.Node { return &lower.Node{Kind: lower.NodeName, Text: s} }
func lit(s string) *lower.Node  { return &lower.Node{Kind: lower.NodeLit, Text: s} }

func TestParameterModeSpelling(t *testing.T) {
	m := &lower.Module{Items: []lower.Item{{
		Kind: lower.ItemFn,
		Name: "make",
		Fn: &lower.Fn{
			Name: "make",
			Params: []lower.Param{
				{Name: "id", Type: "i64", Mode: lower.ModeOwned},
				{Name: "title", Type: "String", Mode: lower.ModeOwned},
				{Name: "notes", Type: "Vec<String>", Mode: lower.ModeShared},
				{Name: "log", Type: "Vec<String>", Mode: lower.ModeExclusive},
			},
			Ret: "Task",
		},
	}}}
	got := render(t, m)
	want := "pub fn make(id: i64, title: String, notes: &Vec<String>, log: &mut Vec<String>) -> Task;\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestOwnedParamMutMarker(t *testing.T) {
	m := &lower.Module{Items: []lower.Item{{
		Kind: lower.ItemFn,
		Name: "drain",
		Fn: &lower.Fn{
			Name:   "drain",
			Params: []lower.Param{{Name: "xs", Type: "Vec<i64>", Mode: lower.ModeOwned, Mut: true}},
			Body: &lower.Node{Kind: lower.NodeBlock, Kids: []*lower.Node{{
				Kind: lower.NodeExprStmt,
				Kids: []*lower.Node{{Kind: lower.NodeMethodCall, Text: "clear", Kids: []*lower.Node{name("xs")}}},
			}}},
		},
	}}}
	got := render(t, m)
	want := "pub fn drain(mut xs: Vec<i64>) {\n    xs.clear();\n}\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestAdjustmentSuffixes(t *testing.T) {
	cases := []struct {
		adjust lower.Adjust
		want   string
	}{
		{lower.AdjustAsIs, "x"},
		{lower.AdjustSharedBorrow, "&x"},
		{lower.AdjustExclusiveBorrow, "&mut x"},
		{lower.AdjustToOwnedString, "x.to_string()"},
		{lower.AdjustInto, "x.into()"},
		{lower.AdjustDeref, "*x"},
		{lower.AdjustClone, "x.clone()"},
		{lower.AdjustBorrowOwnedString, "&x.to_string()"},
	}
	e := NewEmitter(&strings.Builder{})
	for _, tc := range cases {
		n := name("x")
		n.Adjust = tc.adjust
		if got := e.expr(n); got != tc.want {
			t.Errorf("%v: got %q, want %q", tc.adjust, got, tc.want)
		}
	}
}

func TestStringLiteralArgumentsBecomeOwned(t *testing.T) {
	title := lit(`"Ship it"`)
	title.Adjust = lower.AdjustToOwnedString
	m := &lower.Module{Items: []lower.Item{{
		Kind: lower.ItemFn,
		Name: "main",
		Fn: &lower.Fn{
			Name: "main",
			Body: &lower.Node{Kind: lower.NodeBlock, Kids: []*lower.Node{{
				Kind: lower.NodeExprStmt,
				Kids: []*lower.Node{{Kind: lower.NodeCall, Text: "make", Kids: []*lower.Node{lit("1"), title}}},
			}}},
		},
	}}}
	got := render(t, m)
	if !strings.Contains(got, `make(1, "Ship it".to_string());`) {
		t.Fatalf("got %q", got)
	}
}

func TestLetMutBinding(t *testing.T) {
	m := &lower.Module{Items: []lower.Item{{
		Kind: lower.ItemFn,
		Name: "count",
		Fn: &lower.Fn{
			Name: "count",
			Ret:  "i64",
			Body: &lower.Node{
				Kind: lower.NodeBlock,
				Kids: []*lower.Node{
					{Kind: lower.NodeLet, Text: "total", Mut: true, Kids: []*lower.Node{lit("0")}},
					{Kind: lower.NodeFor, Text: "v", Kids: []*lower.Node{
						name("values"),
						{Kind: lower.NodeBlock, Kids: []*lower.Node{{
							Kind: lower.NodeAssign, Text: "+=",
							Kids: []*lower.Node{name("total"), name("v")},
						}}},
					}},
				},
				Tail: name("total"),
			},
		},
	}}}
	got := render(t, m)
	want := strings.Join([]string{
		"pub fn count() -> i64 {",
		"    let mut total = 0;",
		"    for v in values {",
		"        total += v;",
		"    }",
		"    total",
		"}",
		"",
	}, "\n")
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestExpressionMatchHasNoTerminator(t *testing.T) {
	match := &lower.Node{
		Kind: lower.NodeMatch,
		Ctx:  lower.CtxExpression,
		Kids: []*lower.Node{name("s")},
		Arms: []lower.Arm{
			{Pat: lower.Pattern{Kind: lower.PatVariant, Path: []string{"Shape", "Dot"}}, Body: lit("0")},
			{
				Pat: lower.Pattern{Kind: lower.PatVariant, Path: []string{"Shape", "Box"}, Binders: []string{"w", "h"}},
				Body: &lower.Node{Kind: lower.NodeBinary, Text: "*", Kids: []*lower.Node{name("w"), name("h")}},
			},
		},
	}
	m := &lower.Module{Items: []lower.Item{{
		Kind: lower.ItemFn,
		Name: "area",
		Fn: &lower.Fn{
			Name:   "area",
			Params: []lower.Param{{Name: "s", Type: "Shape", Mode: lower.ModeOwned}},
			Ret:    "i64",
			Body:   &lower.Node{Kind: lower.NodeBlock, Tail: match},
		},
	}}}
	got := render(t, m)
	if !strings.Contains(got, "match s { Shape::Dot => 0, Shape::Box(w, h) => w * h }\n}") {
		t.Fatalf("got %q", got)
	}
	if strings.Contains(got, "};") {
		t.Fatalf("expression match gained a terminator: %q", got)
	}
}

func TestStatementIfChain(t *testing.T) {
	stmtIf := &lower.Node{
		Kind: lower.NodeIf,
		Kids: []*lower.Node{
			name("a"),
			{Kind: lower.NodeBlock, Kids: []*lower.Node{{
				Kind: lower.NodeExprStmt,
				Kids: []*lower.Node{{Kind: lower.NodeCall, Text: "one"}},
			}}},
			{
				Kind: lower.NodeIf,
				Kids: []*lower.Node{
					name("b"),
					{Kind: lower.NodeBlock, Kids: []*lower.Node{{
						Kind: lower.NodeExprStmt,
						Kids: []*lower.Node{{Kind: lower.NodeCall, Text: "two"}},
					}}},
					{Kind: lower.NodeBlock, Kids: []*lower.Node{{
						Kind: lower.NodeExprStmt,
						Kids: []*lower.Node{{Kind: lower.NodeCall, Text: "three"}},
					}}},
				},
			},
		},
	}
	m := &lower.Module{Items: []lower.Item{{
		Kind: lower.ItemFn,
		Name: "pick",
		Fn: &lower.Fn{
			Name: "pick",
			Body: &lower.Node{Kind: lower.NodeBlock, Kids: []*lower.Node{
				{Kind: lower.NodeExprStmt, Kids: []*lower.Node{stmtIf}},
			}},
		},
	}}}
	got := render(t, m)
	want := strings.Join([]string{
		"pub fn pick() {",
		"    if a {",
		"        one();",
		"    } else if b {",
		"        two();",
		"    } else {",
		"        three();",
		"    }",
		"}",
		"",
	}, "\n")
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestCopyableStructDerives(t *testing.T) {
	m := &lower.Module{Items: []lower.Item{
		{Kind: lower.ItemStruct, Name: "Point", Struct: &lower.Struct{
			Name:     "Point",
			Fields:   []lower.Field{{Name: "x", Type: "i64"}, {Name: "y", Type: "i64"}},
			Copyable: true,
		}},
		{Kind: lower.ItemEnum, Name: "Shape", Enum: &lower.Enum{
			Name: "Shape",
			Variants: []lower.Variant{
				{Name: "Dot"},
				{Name: "Box", Payload: []string{"i64", "i64"}},
			},
		}},
	}}
	got := render(t, m)
	if !strings.Contains(got, "#[derive(Clone, Copy)]\npub struct Point {") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "#[derive(Clone)]\npub enum Shape {\n    Dot,\n    Box(i64, i64),\n}") {
		t.Fatalf("got %q", got)
	}
}

func TestTraitAndImplRendering(t *testing.T) {
	m := &lower.Module{Items: []lower.Item{
		{Kind: lower.ItemTrait, Name: "Greeter", Trait: &lower.Trait{
			Name: "Greeter",
			Methods: []lower.TraitFn{{
				Name: "greet", HasSelf: true, SelfMode: lower.ModeShared, Ret: "String",
			}},
		}},
		{Kind: lower.ItemImpl, Name: "User", Impl: &lower.Impl{
			Target: "User",
			Trait:  "Greeter",
			Methods: []lower.Fn{{
				Name: "greet", HasSelf: true, SelfMode: lower.ModeShared, Ret: "String",
				Body: &lower.Node{Kind: lower.NodeBlock, Tail: &lower.Node{
					Kind: lower.NodeField, Text: "name", Kids: []*lower.Node{{Kind: lower.NodeSelf}},
				}},
			}},
		}},
	}}
	got := render(t, m)
	if !strings.Contains(got, "pub trait Greeter {\n    fn greet(&self) -> String;\n}") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "impl Greeter for User {\n    fn greet(&self) -> String {\n        self.name\n    }\n}") {
		t.Fatalf("got %q", got)
	}
}

func TestModuleImportsAndConst(t *testing.T) {
	m := &lower.Module{
		Path:    "util",
		Imports: []string{"core/strings"},
		Items: []lower.Item{{Kind: lower.ItemConst, Name: "LIMIT", Const: &lower.Const{
			Name: "LIMIT", Type: "i64", Value: lit("64"),
		}}},
	}
	got := render(t, m)
	want := strings.Join([]string{
		"use crate::core::strings;",
		"",
		"pub const LIMIT: i64 = 64;",
		"",
	}, "\n")
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}
