package typesystem

// Match performs one-way matching: variables of the template bind to
// parts of the target, but the target is never instantiated. Used by
// instance selection during elaboration and by CHR head matching.
func Match(template, target Type) (Subst, bool) {
	sub := Subst{}
	if !matchInto(template, target, sub) {
		return nil, false
	}
	return sub, true
}

// MatchPred matches a predicate template against a concrete predicate.
func MatchPred(template, target Pred) (Subst, bool) {
	if template.Name != target.Name {
		return nil, false
	}
	return Match(template.Arg, target.Arg)
}

func matchInto(template, target Type, sub Subst) bool {
	if v, ok := template.(TVar); ok {
		if bound, ok := sub[v.Name]; ok {
			return bound.String() == target.String()
		}
		if !v.Kind().Equal(target.Kind()) {
			return false
		}
		sub[v.Name] = target
		return true
	}

	switch t := template.(type) {
	case TApp:
		o, ok := target.(TApp)
		return ok && matchInto(t.Fn, o.Fn, sub) && matchInto(t.Arg, o.Arg, sub)

	case TRowExtend:
		// Label-directed: the target row must contain the label.
		labels, elems, tail := RowToList(target)
		for i, l := range labels {
			if l != t.Label {
				continue
			}
			rest := RowFromList(
				append(append([]string{}, labels[:i]...), labels[i+1:]...),
				append(append([]Type{}, elems[:i]...), elems[i+1:]...),
				tail,
			)
			return matchInto(t.Elem, elems[i], sub) && matchInto(t.Rest, rest, sub)
		}
		return false

	case TSeq:
		o, ok := target.(TSeq)
		if !ok {
			return false
		}
		return matchSeq(t, o, sub)

	case TAbelian:
		return matchEquation(t, target, sub)

	default:
		return constEqual(template.Apply(sub), target)
	}
}

func matchSeq(template, target TSeq, sub Subst) bool {
	i := 0
	for ; i < len(template.Elems); i++ {
		e := template.Elems[i]
		if e.Dotted {
			rest := TSeq{Elems: append([]SeqElem{}, target.Elems[i:]...), KindVal: target.KindVal}
			return matchInto(e.Type, rest, sub)
		}
		if i >= len(target.Elems) || target.Elems[i].Dotted {
			return false
		}
		if !matchInto(e.Type, target.Elems[i].Type, sub) {
			return false
		}
	}
	return i == len(target.Elems)
}

func matchEquation(template TAbelian, target Type, sub Subst) bool {
	targetEq, ok := ToEquation(target)
	if !ok {
		return false
	}
	// A lone template variable captures the whole equation.
	if len(template.Eq.Variables) == 1 && len(template.Eq.Constants) == 0 {
		for name, exp := range template.Eq.Variables {
			if exp != 1 {
				break
			}
			if bound, bok := sub[name]; bok {
				be, _ := ToEquation(bound)
				return be.Equal(targetEq)
			}
			sub[name] = FromEquation(targetEq, template.KindVal)
			return true
		}
	}
	// Otherwise require structural equality under the bindings so far.
	applied, ok2 := ToEquation(template.Apply(sub))
	return ok2 && applied.Equal(targetEq)
}
