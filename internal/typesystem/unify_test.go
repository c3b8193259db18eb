package typesystem

import (
	"errors"
	"testing"
)

func valueVar(name string) TVar { return TVar{Name: name, KindVal: Value} }

func TestUnifyVariables(t *testing.T) {
	u := NewUnifier(NewFreshSource())

	// Younger binds to older.
	older := valueVar("t*1")
	younger := valueVar("t*7")
	sub, err := u.Unify(younger, older)
	if err != nil {
		t.Fatalf("Unify: %v", err)
	}
	if got, ok := sub[younger.Name]; !ok || got.String() != older.Name {
		t.Errorf("expected %s -> %s, got %v", younger.Name, older.Name, sub)
	}

	// User variables are oldest of all.
	user := valueVar("a")
	sub, err = u.Unify(older, user)
	if err != nil {
		t.Fatalf("Unify: %v", err)
	}
	if got, ok := sub[older.Name]; !ok || got.String() != "a" {
		t.Errorf("expected %s -> a, got %v", older.Name, sub)
	}
}

func TestUnifyOccursCheck(t *testing.T) {
	u := NewUnifier(NewFreshSource())
	a := TVar{Name: "d*1", KindVal: Data}
	inf := TApp{Fn: TPrim{Tag: PrimList}, Arg: MkValue(a, TTrue{KindVal: Sharing})}
	_, err := u.Unify(a, inf)
	var occ *OccursCheckError
	if !errors.As(err, &occ) {
		t.Fatalf("expected occurs check error, got %v", err)
	}
}

func TestUnifyRigidRigid(t *testing.T) {
	u := NewUnifier(NewFreshSource())
	_, err := u.Unify(TCon{Name: "A", KindVal: Data}, TCon{Name: "B", KindVal: Data})
	var rr *RigidRigidMismatchError
	if !errors.As(err, &rr) {
		t.Fatalf("expected rigid-rigid mismatch, got %v", err)
	}
}

func TestUnifyKindMismatch(t *testing.T) {
	u := NewUnifier(NewFreshSource())
	_, err := u.Unify(TPrim{Tag: PrimBool}, UnitOne())
	var km *KindMismatchError
	if !errors.As(err, &km) {
		t.Fatalf("expected kind mismatch, got %v", err)
	}
}

func TestUnifyRowPermutation(t *testing.T) {
	u := NewUnifier(NewFreshSource())
	rho := TVar{Name: "r*1", KindVal: KRow{Field}}
	x := MkValue(TPrim{Tag: PrimBool}, TTrue{KindVal: Sharing})
	y := MkValue(MkInt(I32, UnitOne()), TTrue{KindVal: Sharing})

	left := TRowExtend{Label: "a", Elem: x, Rest: TRowExtend{Label: "b", Elem: y, Rest: rho}}
	right := TRowExtend{Label: "b", Elem: y, Rest: TRowExtend{Label: "a", Elem: x, Rest: rho}}

	sub, err := u.Unify(left, right)
	if err != nil {
		t.Fatalf("permuted rows should unify: %v", err)
	}
	if left.Apply(sub).Kind().String() != right.Apply(sub).Kind().String() {
		t.Errorf("row kinds diverged after unification")
	}
}

func TestUnifyRowTailClosesAndMissingLabelFails(t *testing.T) {
	fresh := NewFreshSource()
	u := NewUnifier(fresh)
	rho := TVar{Name: "r*1", KindVal: KRow{Permission}}
	perm := TCon{Name: "io", KindVal: Permission}

	left := TRowExtend{Label: "net", Elem: TCon{Name: "net", KindVal: Permission}, Rest: TRowEmpty{KindVal: KRow{Permission}}}
	right := TRowExtend{Label: "net", Elem: TCon{Name: "net", KindVal: Permission}, Rest: rho}
	sub, err := u.Unify(left, right)
	if err != nil {
		t.Fatalf("Unify: %v", err)
	}
	if got := rho.Apply(sub); got.String() != "{}" {
		t.Errorf("tail should close to the empty row, got %s", got)
	}

	// Missing label on a closed row fails.
	closed := TRowExtend{Label: "io", Elem: perm, Rest: TRowEmpty{KindVal: KRow{Permission}}}
	if _, err := u.Unify(left, closed); err == nil {
		t.Errorf("expected failure for missing label on closed row")
	}
}

func TestUnifyUnitsPivot(t *testing.T) {
	u := NewUnifier(NewFreshSource())
	// u1^2 * m = m^3  ==>  u1 = m
	left := TAbelian{Eq: eqOf(map[string]int{"u*1": 2}, map[string]int{"m": 1}), KindVal: Unit}
	right := TAbelian{Eq: eqOf(nil, map[string]int{"m": 3}), KindVal: Unit}
	sub, err := u.Unify(left, right)
	if err != nil {
		t.Fatalf("Unify: %v", err)
	}
	bound, ok := ToEquation(sub["u*1"])
	if !ok || bound.Constants["m"] != 1 || len(bound.Variables) != 0 {
		t.Errorf("u*1 should resolve to m, got %v", sub["u*1"])
	}

	// Unsolvable over the integers: u1^2 = m (m has odd exponent).
	left = TAbelian{Eq: eqOf(map[string]int{"u*2": 2}, nil), KindVal: Unit}
	right = TAbelian{Eq: eqOf(nil, map[string]int{"m": 1}), KindVal: Unit}
	if _, err := u.Unify(left, right); err == nil {
		t.Errorf("expected failure for non-integral unit solution")
	}
}

func TestUnifyBooleanAttributes(t *testing.T) {
	u := NewUnifier(NewFreshSource())
	s := TVar{Name: "s*1", KindVal: Sharing}

	sub, err := u.Unify(s, TFalse{KindVal: Sharing})
	if err != nil {
		t.Fatalf("Unify: %v", err)
	}
	if _, ok := sub[s.Name].(TFalse); !ok {
		t.Errorf("s*1 should bind to false, got %v", sub[s.Name])
	}

	if _, err := u.Unify(TTrue{KindVal: Totality}, TFalse{KindVal: Totality}); err == nil {
		t.Errorf("true and false must not unify")
	}
}

func TestUnifySequencesDotted(t *testing.T) {
	u := NewUnifier(NewFreshSource())
	z := TVar{Name: "z*1", KindVal: KSeq{Value}}
	a := valueVar("t*2")
	b := valueVar("t*3")

	// [t2 z1...] ~ [t2 t3]  ==>  z1 = [t3]
	left := TSeq{Elems: []SeqElem{{Type: a}, {Type: z, Dotted: true}}, KindVal: KSeq{Value}}
	right := TSeq{Elems: []SeqElem{{Type: a}, {Type: b}}, KindVal: KSeq{Value}}
	sub, err := u.Unify(left, right)
	if err != nil {
		t.Fatalf("Unify: %v", err)
	}
	bound, ok := sub[z.Name].(TSeq)
	if !ok || len(bound.Elems) != 1 {
		t.Fatalf("z*1 should bind to a one-element sequence, got %v", sub[z.Name])
	}

	// Dotted element can consume zero elements.
	empty := TSeq{Elems: []SeqElem{{Type: a}}, KindVal: KSeq{Value}}
	sub, err = u.Unify(left, empty)
	if err != nil {
		t.Fatalf("Unify: %v", err)
	}
	if bound, ok := sub[z.Name].(TSeq); !ok || len(bound.Elems) != 0 {
		t.Fatalf("z*1 should bind to the empty sequence, got %v", sub[z.Name])
	}

	// Length mismatch with no dotted element fails.
	rigid := TSeq{Elems: []SeqElem{{Type: a}}, KindVal: KSeq{Value}}
	two := TSeq{Elems: []SeqElem{{Type: a}, {Type: b}}, KindVal: KSeq{Value}}
	if _, err := u.Unify(rigid, two); err == nil {
		t.Errorf("expected failure unifying sequences of different lengths")
	}
}

func TestSolveAllIdempotence(t *testing.T) {
	u := NewUnifier(NewFreshSource())
	a := valueVar("t*1")
	b := valueVar("t*2")
	c := valueVar("t*3")
	boolVal := MkValue(TPrim{Tag: PrimBool}, TTrue{KindVal: Sharing})

	sub, err := u.SolveAll([]Pair{{a, b}, {b, c}, {c, boolVal}})
	if err != nil {
		t.Fatalf("SolveAll: %v", err)
	}
	for name := range sub {
		v := TVar{Name: name, KindVal: Value}
		once := v.Apply(sub)
		twice := once.Apply(sub)
		if once.String() != twice.String() {
			t.Errorf("substitution not idempotent at %s: %s vs %s", name, once, twice)
		}
	}
	if a.Apply(sub).String() != boolVal.String() {
		t.Errorf("t*1 should resolve to %s, got %s", boolVal, a.Apply(sub))
	}
}
