package typesystem

import (
	"strconv"
	"strings"
)

// Unifier produces substitutions making pairs of types equal. Fresh
// variables are needed for row rotation and dotted sequence expansion,
// so the unifier carries the compilation's fresh source.
type Unifier struct {
	Fresh *FreshSource
}

func NewUnifier(fresh *FreshSource) *Unifier {
	return &Unifier{Fresh: fresh}
}

// Pair is one unification constraint.
type Pair struct {
	Left  Type
	Right Type
}

// SolveAll processes constraints left to right, composing substitutions.
// The result is idempotent over its domain.
func (u *Unifier) SolveAll(pairs []Pair) (Subst, error) {
	result := Subst{}
	for _, p := range pairs {
		s, err := u.Unify(p.Left.Apply(result), p.Right.Apply(result))
		if err != nil {
			return nil, err
		}
		result = s.Compose(result)
	}
	return result, nil
}

// Unify dispatches on the sort of the common kind.
func (u *Unifier) Unify(t1, t2 Type) (Subst, error) {
	k1, k2 := t1.Kind(), t2.Kind()
	if !k1.Equal(k2) {
		return nil, NewKindMismatchError(t1, t2, k1, k2)
	}
	switch k1.Sort() {
	case Boolean:
		return u.unifyEquational(t1, t2, 2)
	case Abelian:
		return u.unifyEquational(t1, t2, 0)
	case Row:
		return u.unifyRows(t1, t2)
	case Sequence:
		return u.unifySeqs(t1, t2)
	default:
		return u.unifySyntactic(t1, t2)
	}
}

func (u *Unifier) unifySyntactic(t1, t2 Type) (Subst, error) {
	v1, isVar1 := t1.(TVar)
	v2, isVar2 := t2.(TVar)

	switch {
	case isVar1 && isVar2:
		if v1.Name == v2.Name {
			return Subst{}, nil
		}
		// Bind the younger variable to the older one.
		if varAge(v1) >= varAge(v2) {
			return Bind(v1, v2)
		}
		return Bind(v2, v1)

	case isVar1:
		return u.bindVar(v1, t2)

	case isVar2:
		return u.bindVar(v2, t1)
	}

	app1, isApp1 := t1.(TApp)
	app2, isApp2 := t2.(TApp)
	if isApp1 && isApp2 {
		fnSub, err := u.Unify(app1.Fn, app2.Fn)
		if err != nil {
			return nil, err
		}
		argSub, err := u.Unify(app1.Arg.Apply(fnSub), app2.Arg.Apply(fnSub))
		if err != nil {
			return nil, err
		}
		return argSub.Compose(fnSub), nil
	}

	if constEqual(t1, t2) {
		return Subst{}, nil
	}
	return nil, &RigidRigidMismatchError{Left: t1, Right: t2}
}

func (u *Unifier) bindVar(v TVar, t Type) (Subst, error) {
	if tv, ok := t.(TVar); ok && tv.Name == v.Name {
		return Subst{}, nil
	}
	if occursIn(v, t) {
		return nil, &OccursCheckError{Var: v, Type: t}
	}
	return Bind(v, t)
}

// unifyEquational solves l = r over a free Abelian group by eliminating
// the variable with the smallest absolute exponent. modulus 2 reduces
// Boolean attributes; modulus 0 is the integer (unit) case. Termination:
// each step either finishes or strictly shrinks the minimum exponent.
func (u *Unifier) unifyEquational(t1, t2 Type, modulus int) (Subst, error) {
	le, ok1 := ToEquation(t1)
	re, ok2 := ToEquation(t2)
	if !ok1 || !ok2 {
		return nil, &RigidRigidMismatchError{Left: t1, Right: t2}
	}
	kind := t1.Kind()
	eq := le.Add(re.Invert())
	if modulus != 0 {
		eq = eq.Mod(modulus)
	}

	result := Subst{}
	for {
		name, exp, hasVar := eq.MinVariable()
		if !hasVar {
			if eq.IsIdentity() {
				return result, nil
			}
			return nil, &RigidRigidMismatchError{Left: t1, Right: t2}
		}
		if modulus != 0 {
			// In Z/2 every exponent is 1, so the pivot always resolves.
			pivot := eq.Pivot(name).Mod(modulus)
			sub := Subst{name: FromEquation(pivot, kind)}
			return sub.Compose(result), nil
		}
		if dividesAll(eq, name, exp) {
			pivot := eq.Pivot(name)
			sub := Subst{name: FromEquation(pivot, kind)}
			return sub.Compose(result), nil
		}
		if len(eq.Variables) == 1 {
			// A lone variable that does not divide the constant
			// exponents has no integer solution.
			return nil, &RigidRigidMismatchError{Left: t1, Right: t2}
		}
		// General integer case: replace v by a fresh variable plus the
		// floored quotients of the other exponents, shrinking them mod k.
		freshVar := u.Fresh.Fresh(kind)
		repl := VarEquation(freshVar.Name).Add(quotientPart(eq, name, exp).Invert())
		sub := Subst{name: FromEquation(repl, kind)}
		eq = eq.SubstituteVar(name, repl)
		result = sub.Compose(result)
	}
}

func dividesAll(eq Equation, pivot string, k int) bool {
	for name, exp := range eq.Variables {
		if name != pivot && exp%k != 0 {
			return false
		}
	}
	for _, exp := range eq.Constants {
		if exp%k != 0 {
			return false
		}
	}
	return true
}

func quotientPart(eq Equation, pivot string, k int) Equation {
	q := NewEquation()
	for name, exp := range eq.Variables {
		if name != pivot {
			setExp(q.Variables, name, floorDiv(exp, k))
		}
	}
	for name, exp := range eq.Constants {
		setExp(q.Constants, name, floorDiv(exp, k))
	}
	return q
}

// unifyRows unifies open rows modulo label permutation. When the head
// labels differ the right row is rotated to expose the label, producing
// a fresh tail variable if the right row is open.
func (u *Unifier) unifyRows(t1, t2 Type) (Subst, error) {
	if v, ok := t1.(TVar); ok {
		return u.bindVar(v, t2)
	}
	if v, ok := t2.(TVar); ok {
		return u.bindVar(v, t1)
	}

	_, e1 := t1.(TRowEmpty)
	_, e2 := t2.(TRowEmpty)
	if e1 && e2 {
		return Subst{}, nil
	}
	if e1 || e2 {
		return nil, &RigidRigidMismatchError{Left: t1, Right: t2}
	}

	ext, ok := t1.(TRowExtend)
	if !ok {
		return nil, &RigidRigidMismatchError{Left: t1, Right: t2}
	}

	rewritten, rotSub, err := u.rotateRow(t2, ext.Label)
	if err != nil {
		return nil, err
	}

	elemSub, err := u.Unify(ext.Elem.Apply(rotSub), rewritten.Elem.Apply(rotSub))
	if err != nil {
		return nil, err
	}
	sub := elemSub.Compose(rotSub)

	restSub, err := u.Unify(ext.Rest.Apply(sub), rewritten.Rest.Apply(sub))
	if err != nil {
		return nil, err
	}
	return restSub.Compose(sub), nil
}

// rotateRow rewrites a row so the wanted label is at the head. If the
// row's tail is a variable the label is conjured there with a fresh
// element and a fresh tail.
func (u *Unifier) rotateRow(row Type, label string) (TRowExtend, Subst, error) {
	labels, elems, tail := RowToList(row)
	for i, l := range labels {
		if l != label {
			continue
		}
		rest := RowFromList(
			append(append([]string{}, labels[:i]...), labels[i+1:]...),
			append(append([]Type{}, elems[:i]...), elems[i+1:]...),
			tail,
		)
		return TRowExtend{Label: label, Elem: elems[i], Rest: rest}, Subst{}, nil
	}

	tailVar, ok := tail.(TVar)
	if !ok {
		return TRowExtend{}, nil, &RigidRigidMismatchError{
			Left:  TCon{Name: label, KindVal: rowInner(row.Kind())},
			Right: row,
		}
	}
	rowKind := row.Kind()
	freshElem := u.Fresh.Fresh(rowInner(rowKind))
	freshTail := u.Fresh.Fresh(rowKind)
	binding := TRowExtend{Label: label, Elem: freshElem, Rest: freshTail}
	sub, err := Bind(tailVar, binding)
	if err != nil {
		return TRowExtend{}, nil, err
	}
	rest := RowFromList(labels, elems, freshTail)
	return TRowExtend{Label: label, Elem: freshElem, Rest: rest}, sub, nil
}

func rowInner(k Kind) Kind {
	if row, ok := k.(KRow); ok {
		return row.Inner
	}
	return Value
}

// unifySeqs unifies sequences element by element. A dotted element
// consumes the remainder of the opposite side, binding its variable to
// a sequence.
func (u *Unifier) unifySeqs(t1, t2 Type) (Subst, error) {
	if v, ok := t1.(TVar); ok {
		return u.bindVar(v, t2)
	}
	if v, ok := t2.(TVar); ok {
		return u.bindVar(v, t1)
	}
	s1, ok1 := t1.(TSeq)
	s2, ok2 := t2.(TSeq)
	if !ok1 || !ok2 {
		return nil, &RigidRigidMismatchError{Left: t1, Right: t2}
	}

	result := Subst{}
	i, j := 0, 0
	for {
		e1Left := len(s1.Elems) - i
		e2Left := len(s2.Elems) - j
		if e1Left == 0 && e2Left == 0 {
			return result, nil
		}

		if e1Left > 0 && s1.Elems[i].Dotted {
			return u.bindDotted(s1.Elems[i], s2, j, s1.KindVal, result)
		}
		if e2Left > 0 && s2.Elems[j].Dotted {
			return u.bindDotted(s2.Elems[j], s1, i, s2.KindVal, result)
		}
		if e1Left == 0 || e2Left == 0 {
			return nil, &RigidRigidMismatchError{Left: t1, Right: t2}
		}

		sub, err := u.Unify(s1.Elems[i].Type.Apply(result), s2.Elems[j].Type.Apply(result))
		if err != nil {
			return nil, err
		}
		result = sub.Compose(result)
		i++
		j++
	}
}

func (u *Unifier) bindDotted(dotted SeqElem, other TSeq, from int, kind Kind, acc Subst) (Subst, error) {
	v, ok := dotted.Type.(TVar)
	if !ok {
		return nil, &RigidRigidMismatchError{Left: dotted.Type, Right: other}
	}
	rest := TSeq{Elems: append([]SeqElem{}, other.Elems[from:]...), KindVal: kind}
	applied := rest.Apply(acc).(TSeq)
	if len(applied.Elems) == 1 && applied.Elems[0].Dotted {
		// Dotted tail against dotted tail collapses to a variable bind.
		if tv, isVar := applied.Elems[0].Type.(TVar); isVar && tv.Name == v.Name {
			return acc, nil
		}
	}
	sub, err := u.bindVar(v, applied)
	if err != nil {
		return nil, err
	}
	return sub.Compose(acc), nil
}

func constEqual(t1, t2 Type) bool {
	switch a := t1.(type) {
	case TCon:
		b, ok := t2.(TCon)
		return ok && a.Name == b.Name
	case TPrim:
		b, ok := t2.(TPrim)
		return ok && a.Tag == b.Tag && a.IntSize == b.IntSize && a.FloatSize == b.FloatSize
	case TFixed:
		b, ok := t2.(TFixed)
		return ok && a.Value == b.Value
	case TTrue:
		_, ok := t2.(TTrue)
		return ok
	case TFalse:
		_, ok := t2.(TFalse)
		return ok
	case TRowEmpty:
		_, ok := t2.(TRowEmpty)
		return ok
	}
	return false
}

func occursIn(v TVar, t Type) bool {
	for _, free := range t.FreeTypeVariables() {
		if free.Name == v.Name {
			return true
		}
	}
	return false
}

// varAge orders variables by generation: user variables (no counter
// marker) are oldest; generated variables order by counter.
func varAge(v TVar) uint64 {
	idx := strings.IndexByte(v.Name, '*')
	if idx < 0 {
		return 0
	}
	n, err := strconv.ParseUint(v.Name[idx+1:], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
