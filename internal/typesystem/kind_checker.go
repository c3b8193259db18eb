package typesystem

import "fmt"

// KindCheck validates that a type is well-kinded and returns its kind.
// Applications are checked argument by argument; rows require every
// element to carry the row's inner kind; dotted sequence elements must
// be sequence-kinded and terminate the sequence.
func KindCheck(t Type) (Kind, error) {
	switch typ := t.(type) {
	case TVar:
		return typ.Kind(), nil
	case TCon:
		return typ.Kind(), nil
	case TPrim:
		return typ.Kind(), nil
	case TTrue:
		return checkAttr(typ.KindVal, typ)
	case TFalse:
		return checkAttr(typ.KindVal, typ)
	case TFixed:
		return Fixed, nil
	case TAbelian:
		sort := typ.KindVal.Sort()
		if sort != Abelian && sort != Boolean {
			return nil, fmt.Errorf("equation at non-equational kind %s", typ.KindVal)
		}
		return typ.KindVal, nil
	case TApp:
		return checkApp(typ)
	case TRowEmpty:
		if _, ok := typ.KindVal.(KRow); !ok {
			return nil, fmt.Errorf("empty row at non-row kind %s", typ.KindVal)
		}
		return typ.KindVal, nil
	case TRowExtend:
		return checkRow(typ)
	case TSeq:
		return checkSeq(typ)
	default:
		return nil, fmt.Errorf("cannot check kind of %T", t)
	}
}

func checkAttr(k Kind, t Type) (Kind, error) {
	if k == nil || k.Sort() != Boolean {
		return nil, fmt.Errorf("boolean constant %s at non-boolean kind %v", t, k)
	}
	return k, nil
}

func checkApp(t TApp) (Kind, error) {
	fnKind, err := KindCheck(t.Fn)
	if err != nil {
		return nil, err
	}
	argKind, err := KindCheck(t.Arg)
	if err != nil {
		return nil, err
	}
	arrow, ok := fnKind.(KArrow)
	if !ok {
		return nil, NewKindMismatchError(t.Fn, t.Arg, fnKind, argKind)
	}
	if !arrow.Left.Equal(argKind) {
		return nil, NewKindMismatchError(t.Fn, t.Arg, arrow.Left, argKind)
	}
	return arrow.Right, nil
}

func checkRow(t TRowExtend) (Kind, error) {
	restKind, err := KindCheck(t.Rest)
	if err != nil {
		return nil, err
	}
	row, ok := restKind.(KRow)
	if !ok {
		return nil, fmt.Errorf("row extension over non-row %s", restKind)
	}
	elemKind, err := KindCheck(t.Elem)
	if err != nil {
		return nil, err
	}
	if !elemKind.Equal(row.Inner) {
		return nil, NewKindMismatchError(t.Elem, t.Rest, row.Inner, elemKind)
	}
	return restKind, nil
}

func checkSeq(t TSeq) (Kind, error) {
	seq, ok := t.KindVal.(KSeq)
	if !ok {
		return nil, fmt.Errorf("sequence at non-sequence kind %s", t.KindVal)
	}
	for i, e := range t.Elems {
		elemKind, err := KindCheck(e.Type)
		if err != nil {
			return nil, err
		}
		if e.Dotted {
			if i != len(t.Elems)-1 {
				return nil, fmt.Errorf("dotted element before end of sequence %s", t)
			}
			if !elemKind.Equal(t.KindVal) {
				return nil, NewKindMismatchError(e.Type, t, t.KindVal, elemKind)
			}
			continue
		}
		if !elemKind.Equal(seq.Inner) {
			return nil, NewKindMismatchError(e.Type, t, seq.Inner, elemKind)
		}
	}
	return t.KindVal, nil
}
