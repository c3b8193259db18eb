package core

import (
	"reflect"
	"testing"

	"github.com/stavelang/stave/internal/analyzer"
	"github.com/stavelang/stave/internal/ast"
	ts "github.com/stavelang/stave/internal/typesystem"
)

func lowerMain(t *testing.T, main ast.Expr, decls ...ast.Decl) *Program {
	t.Helper()
	typed, errs := analyzer.New().Analyze(&ast.Program{Decls: decls, Main: main})
	if len(errs) > 0 {
		t.Fatalf("Analyze: %v", errs[0])
	}
	return Lower(typed)
}

func TestLowerLiteralAndPrim(t *testing.T) {
	p := lowerMain(t, ast.Expr{
		ast.IntLit{Digits: "2", Size: ts.I32},
		ast.IntLit{Digits: "3", Size: ts.I32},
		ast.Ident{Name: "add-i32"},
	})
	want := []Word{
		WInteger{Digits: "2", Size: ts.I32},
		WInteger{Digits: "3", Size: ts.I32},
		WPrimVar{Name: "add-i32"},
	}
	if !reflect.DeepEqual(p.Main, want) {
		t.Errorf("main = %+v", p.Main)
	}
}

func TestLowerDropsUnitWords(t *testing.T) {
	p := lowerMain(t,
		ast.Expr{
			ast.IntLit{Digits: "2", Size: ts.I32},
			ast.By{UnitName: "m"},
		},
		ast.TagDecl{TypeName: "Meters", UnitName: "m"},
	)
	// by/per/untag retype values; nothing survives to the IR.
	want := []Word{WInteger{Digits: "2", Size: ts.I32}}
	if !reflect.DeepEqual(p.Main, want) {
		t.Errorf("unit words must lower to nothing, got %+v", p.Main)
	}
}

func TestLowerComputesClosureFrees(t *testing.T) {
	p := lowerMain(t, ast.Expr{
		ast.IntLit{Digits: "1", Size: ts.I32},
		ast.Block{
			Lets: []ast.Let{{Pat: ast.PVar{Name: "x"}, Value: ast.Expr{}}},
			Body: ast.Expr{
				ast.FunLit{Body: ast.Expr{ast.Ident{Name: "x"}}},
				ast.Do{},
			},
		},
	})

	vars, ok := p.Main[1].(WVars)
	if !ok {
		t.Fatalf("expected WVars, got %T", p.Main[1])
	}
	closure, ok := vars.Body[0].(WClosure)
	if !ok {
		t.Fatalf("expected WClosure, got %T", vars.Body[0])
	}
	if !reflect.DeepEqual(closure.Free, []string{"x"}) {
		t.Errorf("closure frees = %v, want [x]", closure.Free)
	}
}

func TestLowerCtorMatchToDestruct(t *testing.T) {
	elem := ts.MkValue(ts.MkInt(ts.I32, ts.TVar{Name: "u", KindVal: ts.Unit}), ts.TVar{Name: "s1", KindVal: ts.Sharing})
	boxDecl := ast.TypeDecl{
		Name: "Box",
		Kind: ts.Data,
		Ctors: []ast.CtorDef{{
			Name:   "box",
			Args:   []ts.Type{elem},
			Result: ts.TCon{Name: "Box", KindVal: ts.Data},
		}},
	}

	p := lowerMain(t,
		ast.Expr{
			ast.IntLit{Digits: "7", Size: ts.I32},
			ast.Ident{Name: "box"},
			ast.Block{
				Lets: []ast.Let{{
					Pat:   ast.PCtor{Name: "box", Args: []ast.Pattern{ast.PVar{Name: "n"}}},
					Value: ast.Expr{},
				}},
				Body: ast.Expr{ast.Ident{Name: "n"}},
			},
		},
		boxDecl,
	)

	if _, ok := p.Main[1].(WConstructorVar); !ok {
		t.Fatalf("expected WConstructorVar, got %+v", p.Main)
	}
	if _, ok := p.Main[2].(WDestruct); !ok {
		t.Fatalf("expected WDestruct, got %+v", p.Main)
	}
	vars, ok := p.Main[3].(WVars)
	if !ok || !reflect.DeepEqual(vars.Bindings, []string{"n"}) {
		t.Fatalf("expected WVars [n], got %+v", p.Main[3])
	}
}
