package analyzer

import (
	"strings"
	"testing"

	"github.com/stavelang/stave/internal/ast"
	"github.com/stavelang/stave/internal/diagnostics"
	ts "github.com/stavelang/stave/internal/typesystem"
)

func intLit(d string) ast.Word { return ast.IntLit{Digits: d, Size: ts.I32} }
func ident(n string) ast.Word { return ast.Ident{Name: n} }

func analyze(t *testing.T, p *ast.Program) *TypedProgram {
	t.Helper()
	typed, errs := New().Analyze(p)
	if len(errs) > 0 {
		t.Fatalf("Analyze failed: %v", errs[0])
	}
	return typed
}

func analyzeErr(t *testing.T, p *ast.Program) *diagnostics.DiagnosticError {
	t.Helper()
	_, errs := New().Analyze(p)
	if len(errs) == 0 {
		t.Fatal("expected an error")
	}
	return errs[0]
}

func mainOuts(t *testing.T, typed *TypedProgram) []ts.Type {
	t.Helper()
	wt, ok := WordTypeFromFn(typed.MainScheme.Qual.Head)
	if !ok {
		t.Fatalf("main scheme is not a word: %s", typed.MainScheme)
	}
	outs, _, ok := topValues(wt.Outs, 1)
	if !ok {
		t.Fatalf("main has no output: %s", wt.Outs)
	}
	return outs
}

func TestInferIntArith(t *testing.T) {
	typed := analyze(t, &ast.Program{
		Main: ast.Expr{intLit("2"), intLit("3"), ident("add-i32")},
	})
	parts, ok := ts.MatchValue(mainOuts(t, typed)[0])
	if !ok {
		t.Fatal("main output is not a value")
	}
	size, _, ok := ts.MatchInt(parts.Data)
	if !ok || size != ts.I32 {
		t.Errorf("main should yield an I32, got %s", parts.Data)
	}
	if len(typed.Main) != 3 {
		t.Fatalf("main should have 3 words, got %d", len(typed.Main))
	}
	if _, ok := typed.Main[2].(TPrimVar); !ok {
		t.Errorf("add-i32 should classify as a primitive, got %T", typed.Main[2])
	}
}

func TestUnboundName(t *testing.T) {
	err := analyzeErr(t, &ast.Program{Main: ast.Expr{ident("nonsense")}})
	if err.Code != diagnostics.ErrT001 {
		t.Errorf("code = %s, want %s", err.Code, diagnostics.ErrT001)
	}
}

func TestMainSignatureMismatch(t *testing.T) {
	err := analyzeErr(t, &ast.Program{Main: ast.Expr{ast.BoolLit{Value: true}}})
	if err.Code != diagnostics.ErrT004 {
		t.Errorf("code = %s, want %s", err.Code, diagnostics.ErrT004)
	}
}

func TestBranchMismatchFails(t *testing.T) {
	// One branch pushes, the other does not: the stacks cannot unify.
	err := analyzeErr(t, &ast.Program{
		Main: ast.Expr{
			ast.BoolLit{Value: true},
			ast.If{Then: ast.Expr{intLit("1")}, Else: ast.Expr{}},
			intLit("1"), ident("add-i32"),
		},
	})
	if err.Code != diagnostics.ErrU001 && err.Code != diagnostics.ErrU002 {
		t.Errorf("unexpected code %s", err.Code)
	}
}

func TestBranchesUnify(t *testing.T) {
	typed := analyze(t, &ast.Program{
		Main: ast.Expr{
			ast.BoolLit{Value: true},
			ast.If{
				Then: ast.Expr{intLit("1")},
				Else: ast.Expr{intLit("2")},
			},
		},
	})
	if _, ok := typed.Main[1].(TIf); !ok {
		t.Errorf("expected TIf, got %T", typed.Main[1])
	}
}

func TestBranchSymmetry(t *testing.T) {
	// unifyBranches(A,B) and unifyBranches(B,A) accept the same
	// programs.
	mk := func(thenFirst bool) *ast.Program {
		thenB := ast.Expr{intLit("1")}
		elseB := ast.Expr{intLit("2"), intLit("3"), ident("add-i32")}
		if !thenFirst {
			thenB, elseB = elseB, thenB
		}
		return &ast.Program{Main: ast.Expr{
			ast.BoolLit{Value: true},
			ast.If{Then: thenB, Else: elseB},
		}}
	}
	a := analyze(t, mk(true))
	b := analyze(t, mk(false))
	wa, _ := WordTypeFromFn(a.MainScheme.Qual.Head)
	wb, _ := WordTypeFromFn(b.MainScheme.Qual.Head)
	if len(wa.Outs.FreeTypeVariables()) != len(wb.Outs.FreeTypeVariables()) {
		t.Errorf("branch order changed the inferred shape: %s vs %s", wa.Outs, wb.Outs)
	}
}

func TestWhileIsPartial(t *testing.T) {
	typed := analyze(t, &ast.Program{
		Main: ast.Expr{
			intLit("5"),
			ast.While{
				Cond: ast.Expr{ident("dup"), intLit("0"), ident("gt-i32")},
				Body: ast.Expr{intLit("1"), ident("sub-i32")},
			},
		},
	})
	wt, _ := WordTypeFromFn(typed.MainScheme.Qual.Head)
	if _, isFalse := wt.Totality.(ts.TFalse); !isFalse {
		t.Errorf("a looping main must be partial, got %s", wt.Totality)
	}
}

func TestLetSharingAnalysis(t *testing.T) {
	// x is used twice, so the sharing analysis forces it shared. The
	// typed tree does not carry the attribute; this checks that the
	// block infers under that constraint and binds x once.
	typed := analyze(t, &ast.Program{
		Main: ast.Expr{
			intLit("2"),
			ast.Block{
				Lets: []ast.Let{{Pat: ast.PVar{Name: "x"}, Value: ast.Expr{}}},
				Body: ast.Expr{ident("x"), ident("x"), ident("add-i32")},
			},
		},
	})
	var vars TVars
	found := false
	for _, w := range typed.Main {
		if v, ok := w.(TVars); ok {
			vars = v
			found = true
		}
	}
	if !found || len(vars.Bindings) != 1 || vars.Bindings[0] != "x" {
		t.Fatalf("expected a single binding of x, got %+v", typed.Main)
	}
}

func TestWithStateStripsStateEffect(t *testing.T) {
	typed := analyze(t, &ast.Program{
		Main: ast.Expr{
			ast.WithState{Body: ast.Expr{intLit("2"), ast.RefNew{}, ast.RefGet{}}},
		},
	})
	wt, _ := WordTypeFromFn(typed.MainScheme.Qual.Head)
	labels, _, _ := ts.RowToList(wt.Effects)
	for _, l := range labels {
		if strings.Contains(l, "State") {
			t.Errorf("State effect must be stripped from main's row, found %v", labels)
		}
	}
}

func TestHeapEscapeRejected(t *testing.T) {
	err := analyzeErr(t, &ast.Program{
		Main: ast.Expr{
			ast.WithState{Body: ast.Expr{intLit("2"), ast.RefNew{}}},
		},
	})
	if err.Code != diagnostics.ErrT003 {
		t.Errorf("code = %s, want %s (heap escape)", err.Code, diagnostics.ErrT003)
	}
}

func TestUnitWordsRetagValues(t *testing.T) {
	prog := &ast.Program{
		Decls: []ast.Decl{ast.TagDecl{TypeName: "Meters", UnitName: "m"}},
		Main:  ast.Expr{intLit("3"), ast.By{UnitName: "m"}, intLit("4"), ast.By{UnitName: "m"}, ident("add-i32")},
	}
	typed := analyze(t, prog)
	parts, _ := ts.MatchValue(mainOuts(t, typed)[0])
	_, unit, ok := ts.MatchInt(parts.Data)
	if !ok {
		t.Fatalf("main output is not numeric: %s", parts.Data)
	}
	eq, ok := ts.ToEquation(unit)
	if !ok || eq.Constants["m"] != 1 {
		t.Errorf("unit should be m, got %s", unit)
	}
}

func TestUndeclaredUnitRejected(t *testing.T) {
	err := analyzeErr(t, &ast.Program{
		Main: ast.Expr{intLit("3"), ast.By{UnitName: "furlong"}},
	})
	if err.Code != diagnostics.ErrT001 {
		t.Errorf("code = %s, want %s", err.Code, diagnostics.ErrT001)
	}
}

func TestMismatchedUnitsRejected(t *testing.T) {
	err := analyzeErr(t, &ast.Program{
		Decls: []ast.Decl{
			ast.TagDecl{TypeName: "Meters", UnitName: "m"},
			ast.TagDecl{TypeName: "Seconds", UnitName: "s"},
		},
		Main: ast.Expr{intLit("3"), ast.By{UnitName: "m"}, intLit("4"), ast.By{UnitName: "s"}, ident("add-i32")},
	})
	if err.Code != diagnostics.ErrU001 {
		t.Errorf("adding meters to seconds should fail rigid-rigid, got %s", err.Code)
	}
}

func TestRecFuncsInferAndGeneralize(t *testing.T) {
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
	typed := analyze(t, &ast.Program{
		Decls: []ast.Decl{ast.RecFuncsDecl{Funcs: []ast.FuncDecl{countdown}}},
		Main:  ast.Expr{intLit("5"), ident("countdown")},
	})

	var fn *TypedFunc
	for i := range typed.Funcs {
		if typed.Funcs[i].Name == "countdown" {
			fn = &typed.Funcs[i]
		}
	}
	if fn == nil {
		t.Fatal("countdown not in typed output")
	}
	// The recursive placeholder must be resolved into a direct call.
	if !containsCall(fn.Words, "countdown") {
		t.Errorf("countdown body should call itself directly: %+v", fn.Words)
	}
}

func containsCall(words []TWord, name string) bool {
	for _, w := range words {
		switch word := w.(type) {
		case TCallVar:
			if word.Name == name {
				return true
			}
		case TIf:
			if containsCall(word.Then, name) || containsCall(word.Else, name) {
				return true
			}
		case TVars:
			if containsCall(word.Body, name) {
				return true
			}
		case TWhile:
			if containsCall(word.Cond, name) || containsCall(word.Body, name) {
				return true
			}
		}
	}
	return false
}
