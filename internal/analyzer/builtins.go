package analyzer

import (
	"github.com/stavelang/stave/internal/config"
	"github.com/stavelang/stave/internal/symbols"
	ts "github.com/stavelang/stave/internal/typesystem"
)

// RegisterBuiltins binds the primitive words. The code generator owns
// the matching name-to-instruction table; the two sets must agree and
// callers may not invent new primitive names.
func RegisterBuiltins(table *symbols.Table) {
	sizes := []ts.IntSize{ts.I8, ts.U8, ts.I16, ts.U16, ts.I32, ts.U32, ts.I64, ts.U64, ts.ISize, ts.USize}
	for _, size := range sizes {
		num := func(s string) ts.Type {
			return ts.MkValue(ts.MkInt(size, ts.TVar{Name: "u", KindVal: ts.Unit}), shVar(s))
		}
		boolv := func(s string) ts.Type {
			return ts.MkValue(ts.BoolType(), shVar(s))
		}
		suffix := "-" + size.String()

		definePrim(table, "add"+suffix, []ts.Type{num("s1"), num("s2")}, []ts.Type{num("s3")}, true)
		definePrim(table, "sub"+suffix, []ts.Type{num("s1"), num("s2")}, []ts.Type{num("s3")}, true)
		definePrim(table, "mul"+suffix, []ts.Type{num("s1"), num("s2")}, []ts.Type{num("s3")}, true)
		// Division traps on zero, so it is never credited as total.
		definePrim(table, "div"+suffix, []ts.Type{num("s1"), num("s2")}, []ts.Type{num("s3")}, false)
		definePrim(table, "neg"+suffix, []ts.Type{num("s1")}, []ts.Type{num("s2")}, true)
		definePrim(table, "eq"+suffix, []ts.Type{num("s1"), num("s2")}, []ts.Type{boolv("s3")}, true)
		definePrim(table, "lt"+suffix, []ts.Type{num("s1"), num("s2")}, []ts.Type{boolv("s3")}, true)
		definePrim(table, "gt"+suffix, []ts.Type{num("s1"), num("s2")}, []ts.Type{boolv("s3")}, true)
		definePrim(table, "conv-bool"+suffix, []ts.Type{num("s1")}, []ts.Type{boolv("s2")}, true)
	}

	for _, size := range []ts.FloatSize{ts.F32, ts.F64} {
		fl := func(s string) ts.Type {
			return ts.MkValue(ts.MkFloat(size, ts.TVar{Name: "u", KindVal: ts.Unit}), shVar(s))
		}
		boolv := func(s string) ts.Type {
			return ts.MkValue(ts.BoolType(), shVar(s))
		}
		suffix := "-" + size.String()
		definePrim(table, "add"+suffix, []ts.Type{fl("s1"), fl("s2")}, []ts.Type{fl("s3")}, true)
		definePrim(table, "sub"+suffix, []ts.Type{fl("s1"), fl("s2")}, []ts.Type{fl("s3")}, true)
		definePrim(table, "mul"+suffix, []ts.Type{fl("s1"), fl("s2")}, []ts.Type{fl("s3")}, true)
		definePrim(table, "div"+suffix, []ts.Type{fl("s1"), fl("s2")}, []ts.Type{fl("s3")}, false)
		definePrim(table, "eq"+suffix, []ts.Type{fl("s1"), fl("s2")}, []ts.Type{boolv("s3")}, true)
		definePrim(table, "lt"+suffix, []ts.Type{fl("s1"), fl("s2")}, []ts.Type{boolv("s3")}, true)
	}

	boolv := func(s string) ts.Type { return ts.MkValue(ts.BoolType(), shVar(s)) }
	definePrim(table, "and-bool", []ts.Type{boolv("s1"), boolv("s2")}, []ts.Type{boolv("s3")}, true)
	definePrim(table, "or-bool", []ts.Type{boolv("s1"), boolv("s2")}, []ts.Type{boolv("s3")}, true)
	definePrim(table, "xor-bool", []ts.Type{boolv("s1"), boolv("s2")}, []ts.Type{boolv("s3")}, true)
	definePrim(table, "not-bool", []ts.Type{boolv("s1")}, []ts.Type{boolv("s2")}, true)

	elem := ts.MkValue(ts.TVar{Name: "d", KindVal: ts.Data}, shVar("s0"))
	list := func(s string) ts.Type { return ts.MkValue(ts.MkList(elem), shVar(s)) }
	definePrim(table, "list-nil", nil, []ts.Type{list("s1")}, true)
	definePrim(table, "list-cons", []ts.Type{elem, list("s1")}, []ts.Type{list("s2")}, true)
	definePrim(table, "list-head", []ts.Type{list("s1")}, []ts.Type{elem}, false)
	definePrim(table, "list-tail", []ts.Type{list("s1")}, []ts.Type{list("s2")}, false)
	definePrim(table, "list-empty", []ts.Type{list("s1")}, []ts.Type{boolv("s2")}, true)

	str := func(s string) ts.Type { return ts.MkValue(ts.StringType(), shVar(s)) }
	definePrim(table, "string-concat", []ts.Type{str("s1"), str("s2")}, []ts.Type{str("s3")}, true)

	// Stack shuffles. Duplication forces the value shared.
	dupIn := ts.MkValue(ts.TVar{Name: "d", KindVal: ts.Data}, sharedAttr())
	definePrim(table, "dup", []ts.Type{dupIn}, []ts.Type{dupIn, dupIn}, true)
	anyVal := ts.MkValue(ts.TVar{Name: "d", KindVal: ts.Data}, shVar("s1"))
	definePrim(table, "drop", []ts.Type{anyVal}, nil, true)
	a := ts.MkValue(ts.TVar{Name: "d1", KindVal: ts.Data}, shVar("s1"))
	b := ts.MkValue(ts.TVar{Name: "d2", KindVal: ts.Data}, shVar("s2"))
	definePrim(table, "swap", []ts.Type{a, b}, []ts.Type{b, a}, true)

	registerRefPrims(table)
}

func shVar(name string) ts.Type { return ts.TVar{Name: name, KindVal: ts.Sharing} }

// definePrim builds a primitive's scheme: stack polymorphic, pure rows,
// quantified over every free variable.
func definePrim(table *symbols.Table, name string, ins, outs []ts.Type, total bool) {
	head := primHead(ins, outs, total, nil)
	table.DefineWord(name, symbols.PrimEntry{Scheme: schemeOf(head)})
}

// registerRefPrims binds the reference cell operations, each carrying a
// State effect on its heap.
func registerRefPrims(table *symbols.Table) {
	heap := ts.TVar{Name: "h", KindVal: ts.Heap}
	stateCon := ts.TCon{
		Name:    config.StateEffectName,
		KindVal: ts.MakeArrow(ts.Heap, ts.Effect),
	}
	effRow := func() ts.Type {
		return ts.TRowExtend{
			Label: config.StateEffectName,
			Elem:  ts.TApp{Fn: stateCon, Arg: heap},
			Rest:  ts.TVar{Name: "e", KindVal: ts.KRow{Inner: ts.Effect}},
		}
	}
	elem := ts.MkValue(ts.TVar{Name: "d", KindVal: ts.Data}, shVar("s0"))
	ref := func(s string) ts.Type {
		return ts.MkValue(ts.MkRef(heap, elem), shVar(s))
	}

	table.DefineWord("new-ref", symbols.PrimEntry{Scheme: schemeOf(
		primHead([]ts.Type{elem}, []ts.Type{ref("s1")}, true, effRow()))})
	table.DefineWord("get-ref", symbols.PrimEntry{Scheme: schemeOf(
		primHead([]ts.Type{ref("s1")}, []ts.Type{elem}, true, effRow()))})
	table.DefineWord("put-ref", symbols.PrimEntry{Scheme: schemeOf(
		primHead([]ts.Type{elem, ref("s1")}, nil, true, effRow()))})
}

func primHead(ins, outs []ts.Type, total bool, effects ts.Type) ts.Type {
	rest := ts.TVar{Name: "z", KindVal: ts.KSeq{Inner: ts.Value}}
	if effects == nil {
		effects = ts.TVar{Name: "e", KindVal: ts.KRow{Inner: ts.Effect}}
	}
	tot := ts.Type(ts.TTrue{KindVal: ts.Totality})
	if !total {
		tot = ts.TFalse{KindVal: ts.Totality}
	}
	return ts.MkFn(
		effects,
		ts.TVar{Name: "p", KindVal: ts.KRow{Inner: ts.Permission}},
		tot,
		stackOf(rest, ins...),
		stackOf(rest, outs...),
	)
}

func schemeOf(head ts.Type) ts.Scheme {
	return ts.Scheme{
		Quantified: head.FreeTypeVariables(),
		Qual:       ts.Qual{Head: head},
	}
}
