package chr

import (
	"testing"

	ts "github.com/stavelang/stave/internal/typesystem"
)

func pred(name string, arg ts.Type) ts.Pred { return ts.Pred{Name: name, Arg: arg} }

func dataVar(name string) ts.TVar { return ts.TVar{Name: name, KindVal: ts.Data} }

func dataCon(name string) ts.TCon { return ts.TCon{Name: name, KindVal: ts.Data} }

func TestSimplificationReplacesHeads(t *testing.T) {
	// Ord d <=> Eq d
	a := dataVar("a")
	rules := []Rule{{
		Name:  "ord-implies-eq",
		Kind:  Simplification,
		Heads: []ts.Pred{pred("Ord", a)},
		Body:  []ts.Pred{pred("Eq", a)},
	}}
	solutions := Solve([]ts.Pred{pred("Ord", dataCon("Int"))}, rules)
	if len(solutions) != 1 {
		t.Fatalf("want 1 solution, got %d", len(solutions))
	}
	res := solutions[0].Residual
	if len(res) != 1 || res[0].String() != "Eq Int" {
		t.Errorf("residual = %v, want [Eq Int]", res)
	}
}

func TestPropagationFiresOnce(t *testing.T) {
	// Eq d ==> Show d. Without the fired memo this would loop.
	a := dataVar("a")
	rules := []Rule{{
		Name:  "eq-implies-show",
		Kind:  Propagation,
		Heads: []ts.Pred{pred("Eq", a)},
		Body:  []ts.Pred{pred("Show", a)},
	}}
	solutions := Solve([]ts.Pred{pred("Eq", dataCon("Int"))}, rules)
	if len(solutions) != 1 {
		t.Fatalf("want 1 solution, got %d", len(solutions))
	}
	if got := storeKey(solutions[0].Residual); got != "Eq Int;Show Int" {
		t.Errorf("residual = %s, want Eq Int;Show Int", got)
	}
}

func TestDuplicateRemoval(t *testing.T) {
	// Two identical predicates collapse into one store element.
	solutions := Solve([]ts.Pred{pred("Eq", dataCon("Int")), pred("Eq", dataCon("Int"))}, nil)
	if len(solutions) != 1 || len(solutions[0].Residual) != 1 {
		t.Fatalf("duplicates should collapse, got %v", solutions)
	}
}

func TestTwoHeadRule(t *testing.T) {
	// Conv a b, Conv b c <=> Conv a c (a transitive simplification).
	a, b, c := dataVar("a"), dataVar("b"), dataVar("c")
	pair := func(x, y ts.Type) ts.Type {
		return ts.TApp{Fn: ts.TApp{Fn: ts.TCon{Name: "Pair", KindVal: ts.MakeArrow(ts.Data, ts.Data, ts.Data)}, Arg: x}, Arg: y}
	}
	rules := []Rule{{
		Name:  "conv-trans",
		Kind:  Simplification,
		Heads: []ts.Pred{pred("Conv", pair(a, b)), pred("Conv", pair(b, c))},
		Body:  []ts.Pred{pred("Conv", pair(a, c))},
	}}
	store := []ts.Pred{
		pred("Conv", pair(dataCon("Int"), dataCon("Float"))),
		pred("Conv", pair(dataCon("Float"), dataCon("String"))),
	}
	solutions := Solve(store, rules)
	if len(solutions) != 1 {
		t.Fatalf("want 1 solution, got %d", len(solutions))
	}
	res := solutions[0].Residual
	if len(res) != 1 || res[0].String() != "Conv ((Pair Int) String)" {
		t.Errorf("residual = %v", res)
	}
}

func TestConfluenceAcrossOrderings(t *testing.T) {
	// Running the solver from two orderings of the initial predicates
	// yields the same residual.
	a := dataVar("a")
	rules := []Rule{
		{Name: "r1", Kind: Simplification, Heads: []ts.Pred{pred("Ord", a)}, Body: []ts.Pred{pred("Eq", a)}},
		{Name: "r2", Kind: Simplification, Heads: []ts.Pred{pred("Hash", a)}, Body: []ts.Pred{pred("Eq", a)}},
	}
	p1 := []ts.Pred{pred("Ord", dataCon("Int")), pred("Hash", dataCon("Int"))}
	p2 := []ts.Pred{pred("Hash", dataCon("Int")), pred("Ord", dataCon("Int"))}

	s1 := Solve(p1, rules)
	s2 := Solve(p2, rules)
	if len(s1) != 1 || len(s2) != 1 {
		t.Fatalf("want single solutions, got %d and %d", len(s1), len(s2))
	}
	if storeKey(s1[0].Residual) != storeKey(s2[0].Residual) {
		t.Errorf("residuals differ: %s vs %s", storeKey(s1[0].Residual), storeKey(s2[0].Residual))
	}
}

func TestNonConfluentRulesYieldMultipleSolutions(t *testing.T) {
	// Two simplifications competing for the same head produce two
	// distinct normal forms; the caller reports non-confluence.
	a := dataVar("a")
	rules := []Rule{
		{Name: "left", Kind: Simplification, Heads: []ts.Pred{pred("Pick", a)}, Body: []ts.Pred{pred("Left", a)}},
		{Name: "right", Kind: Simplification, Heads: []ts.Pred{pred("Pick", a)}, Body: []ts.Pred{pred("Right", a)}},
	}
	solutions := Solve([]ts.Pred{pred("Pick", dataCon("Int"))}, rules)
	if len(solutions) != 2 {
		t.Fatalf("want 2 distinct normal forms, got %d", len(solutions))
	}
}
