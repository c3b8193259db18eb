package symbols

import (
	"testing"

	ts "github.com/stavelang/stave/internal/typesystem"
)

func boolScheme() ts.Scheme {
	return ts.MonoScheme(ts.MkValue(ts.BoolType(), ts.TTrue{KindVal: ts.Sharing}))
}

func TestShadowing(t *testing.T) {
	root := NewTable()
	root.DefineWord("x", FunctionEntry{Scheme: boolScheme()})

	child := root.Extend()
	child.DefineWord("x", VariableEntry{Scheme: boolScheme()})

	e, ok := child.LookupWord("x")
	if !ok {
		t.Fatal("x should resolve in child")
	}
	if _, isVar := e.(VariableEntry); !isVar {
		t.Errorf("child binding should shadow: got %T", e)
	}

	e, _ = root.LookupWord("x")
	if _, isFn := e.(FunctionEntry); !isFn {
		t.Errorf("parent frame must be untouched: got %T", e)
	}
}

func TestNamespacesAreSeparate(t *testing.T) {
	table := NewTable()
	table.DefineWord("cons", FunctionEntry{Scheme: boolScheme()})
	table.DefinePattern("cons", boolScheme())
	table.DefineTypeCtor("cons", ts.MakeArrow(ts.Value, ts.Data))

	if _, ok := table.LookupWord("cons"); !ok {
		t.Error("word lookup failed")
	}
	if _, ok := table.LookupPattern("cons"); !ok {
		t.Error("pattern lookup failed")
	}
	if k, ok := table.LookupTypeCtor("cons"); !ok || !k.Equal(ts.MakeArrow(ts.Value, ts.Data)) {
		t.Error("type ctor lookup failed")
	}
	if _, ok := table.LookupWord("missing"); ok {
		t.Error("missing name should not resolve")
	}
}

func TestLookupOverloadByPred(t *testing.T) {
	table := NewTable()
	table.DefineWord("eq", OverloadEntry{Predicate: "Eq", Base: boolScheme()})

	name, entry, ok := table.Extend().LookupOverloadByPred("Eq")
	if !ok || name != "eq" || entry.Predicate != "Eq" {
		t.Fatalf("overload lookup by predicate failed: %v %v %v", name, entry, ok)
	}
}

func TestFreeTypeVariablesSkipsQuantified(t *testing.T) {
	table := NewTable()
	a := ts.TVar{Name: "t*1", KindVal: ts.Value}
	b := ts.TVar{Name: "t*2", KindVal: ts.Value}
	scheme := ts.Scheme{
		Quantified: []ts.TVar{a},
		Qual: ts.Qual{Head: ts.TSeq{
			Elems:   []ts.SeqElem{{Type: a}, {Type: b}},
			KindVal: ts.KSeq{Inner: ts.Value},
		}},
	}
	table.DefineWord("w", FunctionEntry{Scheme: scheme})

	free := table.FreeTypeVariables()
	if free["t*1"] {
		t.Error("quantified variable reported free")
	}
	if !free["t*2"] {
		t.Error("free variable not reported")
	}
}
