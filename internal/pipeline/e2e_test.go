package pipeline

import (
	"os"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/stavelang/stave/internal/ast"
	"github.com/stavelang/stave/internal/diagnostics"
	"github.com/stavelang/stave/internal/manifest"
	ts "github.com/stavelang/stave/internal/typesystem"
	"github.com/stavelang/stave/internal/vm"
)

func intLit(d string) ast.Word { return ast.IntLit{Digits: d, Size: ts.I32} }
func ident(n string) ast.Word { return ast.Ident{Name: n} }

func compile(t *testing.T, p *ast.Program) []vm.Block {
	t.Helper()
	blocks, errs := Compile(p, &manifest.Manifest{})
	if len(errs) > 0 {
		t.Fatalf("Compile: %v", errs[0])
	}
	return blocks
}

func golden(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/golden.txtar")
	if err != nil {
		t.Fatalf("reading golden archive: %v", err)
	}
	archive := txtar.Parse(data)
	for _, f := range archive.Files {
		if f.Name == name {
			return string(f.Data)
		}
	}
	t.Fatalf("golden entry %s not found", name)
	return ""
}

func TestScenarioPushAdd(t *testing.T) {
	blocks := compile(t, &ast.Program{
		Main: ast.Expr{intLit("2"), intLit("3"), ident("add-i32")},
	})
	got := vm.Disassemble(blocks)
	want := golden(t, "push-add.disasm")
	if got != want {
		t.Errorf("disassembly mismatch:\n--- got ---\n%s--- want ---\n%s", got, want)
	}
}

func TestScenarioRecursiveFunction(t *testing.T) {
	countdown := ast.FuncDecl{
		Name: "countdown",
		Body: ast.Expr{
			ident("dup"), intLit("0"), ident("gt-i32"),
			ast.If{
				Then: ast.Expr{intLit("1"), ident("sub-i32"), ident("countdown")},
				Else: ast.Expr{},
			},
		},
	}
	blocks := compile(t, &ast.Program{
		Decls: []ast.Decl{ast.RecFuncsDecl{Funcs: []ast.FuncDecl{countdown}}},
		Main:  ast.Expr{intLit("5"), ident("countdown")},
	})

	var body []vm.Instruction
	for _, b := range blocks {
		if b.Name == "countdown" {
			body = b.Instrs
		}
	}
	if body == nil {
		t.Fatal("no countdown block")
	}
	selfCall := false
	for _, ins := range body {
		if ins.Op == vm.ICall && ins.Label == "countdown" {
			selfCall = true
		}
	}
	if !selfCall {
		t.Errorf("countdown should reference itself via ICall, got %+v", body)
	}
}

func TestScenarioOverloadDispatch(t *testing.T) {
	a := ts.TVar{Name: "a", KindVal: ts.Data}
	z := ts.TVar{Name: "z", KindVal: ts.KSeq{Inner: ts.Value}}
	e := ts.TVar{Name: "e", KindVal: ts.KRow{Inner: ts.Effect}}
	p := ts.TVar{Name: "p", KindVal: ts.KRow{Inner: ts.Permission}}
	sh := func(n string) ts.Type { return ts.TVar{Name: n, KindVal: ts.Sharing} }
	stack := func(tops ...ts.Type) ts.Type {
		elems := make([]ts.SeqElem, 0, len(tops)+1)
		for _, tt := range tops {
			elems = append(elems, ts.SeqElem{Type: tt})
		}
		elems = append(elems, ts.SeqElem{Type: z, Dotted: true})
		return ts.TSeq{Elems: elems, KindVal: ts.KSeq{Inner: ts.Value}}
	}
	head := ts.MkFn(e, p, ts.TTrue{KindVal: ts.Totality},
		stack(ts.MkValue(a, sh("s1")), ts.MkValue(a, sh("s2"))),
		stack(ts.MkValue(ts.BoolType(), sh("s3"))))
	base := ts.Scheme{
		Quantified: head.FreeTypeVariables(),
		Qual:       ts.Qual{Context: []ts.Pred{{Name: "Eq", Arg: a}}, Head: head},
	}
	u := ts.TVar{Name: "u", KindVal: ts.Unit}

	blocks := compile(t, &ast.Program{
		Decls: []ast.Decl{
			ast.OverloadDecl{Name: "eq", Predicate: "Eq", Base: base, Instances: []string{"eq-int"}},
			ast.InstanceDecl{
				Name:     "eq-int",
				Overload: "eq",
				Type:     ts.Scheme{Quantified: []ts.TVar{u}, Qual: ts.Qual{Head: ts.MkInt(ts.I32, u)}},
				Body:     ast.Expr{ident("eq-i32")},
			},
		},
		Main: ast.Expr{
			intLit("1"), intLit("2"), ident("eq"),
			ast.If{Then: ast.Expr{intLit("1")}, Else: ast.Expr{intLit("0")}},
		},
	})

	var instName string
	for _, b := range blocks {
		if strings.HasPrefix(b.Name, "inst") {
			instName = b.Name
		}
	}
	if instName == "" {
		t.Fatal("no generated instance block")
	}
	var main []vm.Instruction
	for _, b := range blocks {
		if b.Name == "main" {
			main = b.Instrs
		}
	}
	called := false
	for _, ins := range main {
		if ins.Op == vm.ICall && ins.Label == instName {
			called = true
		}
	}
	if !called {
		t.Errorf("main should ICall %s, got %+v", instName, main)
	}
}

func TestScenarioMissingInstanceFails(t *testing.T) {
	a := ts.TVar{Name: "a", KindVal: ts.Data}
	head := ts.MkFn(
		ts.TVar{Name: "e", KindVal: ts.KRow{Inner: ts.Effect}},
		ts.TVar{Name: "p", KindVal: ts.KRow{Inner: ts.Permission}},
		ts.TTrue{KindVal: ts.Totality},
		ts.TSeq{Elems: []ts.SeqElem{
			{Type: ts.MkValue(a, ts.TVar{Name: "s1", KindVal: ts.Sharing})},
			{Type: ts.MkValue(a, ts.TVar{Name: "s2", KindVal: ts.Sharing})},
			{Type: ts.TVar{Name: "z", KindVal: ts.KSeq{Inner: ts.Value}}, Dotted: true},
		}, KindVal: ts.KSeq{Inner: ts.Value}},
		ts.TSeq{Elems: []ts.SeqElem{
			{Type: ts.MkValue(ts.BoolType(), ts.TVar{Name: "s3", KindVal: ts.Sharing})},
			{Type: ts.TVar{Name: "z", KindVal: ts.KSeq{Inner: ts.Value}}, Dotted: true},
		}, KindVal: ts.KSeq{Inner: ts.Value}},
	)
	base := ts.Scheme{
		Quantified: head.FreeTypeVariables(),
		Qual:       ts.Qual{Context: []ts.Pred{{Name: "Eq", Arg: a}}, Head: head},
	}
	_, errs := Compile(&ast.Program{
		Decls: []ast.Decl{ast.OverloadDecl{Name: "eq", Predicate: "Eq", Base: base}},
		Main: ast.Expr{
			intLit("1"), intLit("2"), ident("eq"),
			ast.If{Then: ast.Expr{intLit("1")}, Else: ast.Expr{intLit("0")}},
		},
	}, &manifest.Manifest{})
	if len(errs) == 0 || errs[0].Code != diagnostics.ErrE001 {
		t.Fatalf("expected %s, got %v", diagnostics.ErrE001, errs)
	}
}

func TestScenarioWithState(t *testing.T) {
	blocks := compile(t, &ast.Program{
		Main: ast.Expr{
			ast.WithState{Body: ast.Expr{intLit("2"), ast.RefNew{}, ast.RefGet{}}},
		},
	})
	var main []vm.Instruction
	for _, b := range blocks {
		if b.Name == "main" {
			main = b.Instrs
		}
	}
	want := []vm.Instruction{
		{Op: vm.IInt, Text: "2", Size: ts.I32},
		{Op: vm.INewRef},
		{Op: vm.IGetRef},
		{Op: vm.IReturn},
	}
	if !reflect.DeepEqual(main, want) {
		t.Errorf("main = %+v", main)
	}
}

func TestCompileDeterministic(t *testing.T) {
	build := func() string {
		blocks := compile(t, &ast.Program{
			Main: ast.Expr{
				intLit("1"),
				ast.Block{
					Lets: []ast.Let{{Pat: ast.PVar{Name: "x"}, Value: ast.Expr{}}},
					Body: ast.Expr{
						ast.FunLit{Body: ast.Expr{ident("x"), ident("x"), ident("add-i32")}},
						ast.Do{},
					},
				},
			},
		})
		return vm.Disassemble(blocks)
	}
	first := build()
	for i := 0; i < 3; i++ {
		if got := build(); got != first {
			t.Fatalf("output differs between runs:\n%s\nvs\n%s", first, got)
		}
	}
}

func TestStagesStopAfterError(t *testing.T) {
	ctx := &Context{Program: &ast.Program{Main: ast.Expr{ident("nope")}}}
	ctx = New(&AnalyzeProcessor{}, &LowerProcessor{}, &GenerateProcessor{}).Run(ctx)
	if len(ctx.Errors) == 0 {
		t.Fatal("expected an error")
	}
	if ctx.Core != nil || ctx.Blocks != nil {
		t.Error("later stages must not produce artifacts after an error")
	}
}
