package typesystem

// Builders and destructurers for the composite types the inference
// engine manipulates constantly. They keep TApp spines out of the
// analyzer code.

// MkFn builds the function data type (e, p, t, ins -> outs).
func MkFn(eff, perm, tot, ins, outs Type) Type {
	return appSpine(TPrim{Tag: PrimFn}, eff, perm, tot, ins, outs)
}

// FnParts holds the decomposed pieces of a function data type.
type FnParts struct {
	Effects     Type
	Permissions Type
	Totality    Type
	Ins         Type
	Outs        Type
}

// MatchFn decomposes a function data type.
func MatchFn(t Type) (FnParts, bool) {
	spine, args := unrollApp(t)
	prim, ok := spine.(TPrim)
	if !ok || prim.Tag != PrimFn || len(args) != 5 {
		return FnParts{}, false
	}
	return FnParts{
		Effects:     args[0],
		Permissions: args[1],
		Totality:    args[2],
		Ins:         args[3],
		Outs:        args[4],
	}, true
}

// MkValue wraps a data type with a sharing attribute, producing a value
// type that can sit on the stack.
func MkValue(data, sharing Type) Type {
	return appSpine(TPrim{Tag: PrimValue}, data, sharing)
}

// ValueParts holds a decomposed value type.
type ValueParts struct {
	Data    Type
	Sharing Type
}

// MatchValue decomposes a value type.
func MatchValue(t Type) (ValueParts, bool) {
	spine, args := unrollApp(t)
	prim, ok := spine.(TPrim)
	if !ok || prim.Tag != PrimValue || len(args) != 2 {
		return ValueParts{}, false
	}
	return ValueParts{Data: args[0], Sharing: args[1]}, true
}

// MkRef builds the reference data type over a heap and an element.
func MkRef(heap, elem Type) Type {
	return appSpine(TPrim{Tag: PrimRef}, heap, elem)
}

// MatchRef decomposes a reference data type.
func MatchRef(t Type) (heap, elem Type, ok bool) {
	spine, args := unrollApp(t)
	prim, isPrim := spine.(TPrim)
	if !isPrim || prim.Tag != PrimRef || len(args) != 2 {
		return nil, nil, false
	}
	return args[0], args[1], true
}

// MkInt builds a sized integer data type with a unit component.
func MkInt(size IntSize, unit Type) Type {
	return TApp{Fn: TPrim{Tag: PrimInt, IntSize: size}, Arg: unit}
}

// MkFloat builds a float data type with a unit component.
func MkFloat(size FloatSize, unit Type) Type {
	return TApp{Fn: TPrim{Tag: PrimFloat, FloatSize: size}, Arg: unit}
}

// MatchInt decomposes a sized integer data type.
func MatchInt(t Type) (IntSize, Type, bool) {
	app, ok := t.(TApp)
	if !ok {
		return 0, nil, false
	}
	prim, ok := app.Fn.(TPrim)
	if !ok || prim.Tag != PrimInt {
		return 0, nil, false
	}
	return prim.IntSize, app.Arg, true
}

// BoolType is the boolean data type.
func BoolType() Type { return TPrim{Tag: PrimBool} }

// StringType is the string data type.
func StringType() Type { return TPrim{Tag: PrimString} }

// MkList builds the list data type over an element value type.
func MkList(elem Type) Type {
	return TApp{Fn: TPrim{Tag: PrimList}, Arg: elem}
}

// MkRecord and MkVariant build row-typed composites.
func MkRecord(row Type) Type {
	return TApp{Fn: TPrim{Tag: PrimRecord}, Arg: row}
}

func MkVariant(row Type) Type {
	return TApp{Fn: TPrim{Tag: PrimVariant}, Arg: row}
}

// MatchRecord returns the field row of a record data type.
func MatchRecord(t Type) (Type, bool) {
	app, ok := t.(TApp)
	if !ok {
		return nil, false
	}
	prim, ok := app.Fn.(TPrim)
	if !ok || prim.Tag != PrimRecord {
		return nil, false
	}
	return app.Arg, true
}

// MatchVariant returns the field row of a variant data type.
func MatchVariant(t Type) (Type, bool) {
	app, ok := t.(TApp)
	if !ok {
		return nil, false
	}
	prim, ok := app.Fn.(TPrim)
	if !ok || prim.Tag != PrimVariant {
		return nil, false
	}
	return app.Arg, true
}

// RowToList flattens a row into its labeled elements and final tail.
func RowToList(row Type) (labels []string, elems []Type, tail Type) {
	for {
		ext, ok := row.(TRowExtend)
		if !ok {
			return labels, elems, row
		}
		labels = append(labels, ext.Label)
		elems = append(elems, ext.Elem)
		row = ext.Rest
	}
}

// RowFromList rebuilds a row from labels, elements and a tail.
func RowFromList(labels []string, elems []Type, tail Type) Type {
	row := tail
	for i := len(labels) - 1; i >= 0; i-- {
		row = TRowExtend{Label: labels[i], Elem: elems[i], Rest: row}
	}
	return row
}

// UnitOne is the identity unit term.
func UnitOne() Type {
	return TAbelian{Eq: NewEquation(), KindVal: Unit}
}

// UnitConst is a declared unit-of-measure constant.
func UnitConst(name string) Type {
	return TAbelian{Eq: ConstEquation(name), KindVal: Unit}
}

// TypeApply builds a checked application; the constructor must have an
// arrow kind accepting the argument's kind.
func TypeApply(fn, arg Type) (Type, error) {
	arrow, ok := fn.Kind().(KArrow)
	if !ok {
		return nil, NewKindMismatchError(fn, arg, fn.Kind(), arg.Kind())
	}
	if !arrow.Left.Equal(arg.Kind()) {
		return nil, NewKindMismatchError(fn, arg, arrow.Left, arg.Kind())
	}
	return TApp{Fn: fn, Arg: arg}, nil
}

func appSpine(fn Type, args ...Type) Type {
	t := fn
	for _, a := range args {
		t = TApp{Fn: t, Arg: a}
	}
	return t
}

func unrollApp(t Type) (Type, []Type) {
	var args []Type
	for {
		app, ok := t.(TApp)
		if !ok {
			break
		}
		args = append([]Type{app.Arg}, args...)
		t = app.Fn
	}
	return t, args
}
