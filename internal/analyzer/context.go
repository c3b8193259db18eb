package analyzer

import (
	"github.com/stavelang/stave/internal/ast"
	"github.com/stavelang/stave/internal/symbols"
	"github.com/stavelang/stave/internal/typesystem"
)

// InferenceContext carries the mutable state of one top-level
// inference: the fresh source, the deferred constraints, the collected
// context predicates and the substitution produced by solving.
type InferenceContext struct {
	Fresh       *typesystem.FreshSource
	Constraints []Constraint
	Preds       []typesystem.Pred
	GlobalSubst typesystem.Subst

	heapChecks []heapCheck
}

type heapCheck struct {
	heap typesystem.TVar
	node ast.Node
	env  *symbols.Table
	ins  typesystem.Type
	outs typesystem.Type
}

func NewInferenceContext(fresh *typesystem.FreshSource) *InferenceContext {
	return &InferenceContext{Fresh: fresh, GlobalSubst: typesystem.Subst{}}
}

func (ctx *InferenceContext) unify(l, r typesystem.Type, node ast.Node) {
	ctx.Constraints = append(ctx.Constraints, Constraint{Left: l, Right: r, Node: node})
}

func (ctx *InferenceContext) want(p typesystem.Pred) {
	ctx.Preds = append(ctx.Preds, p)
}

// freshStack returns an open stack type: just a dotted rest variable.
func (ctx *InferenceContext) freshStack() (typesystem.Type, typesystem.TVar) {
	rest := ctx.Fresh.Fresh(typesystem.KSeq{Inner: typesystem.Value})
	return stackOf(rest), rest
}

// stackOf builds a stack sequence: tops (top first) over a rest.
func stackOf(rest typesystem.Type, tops ...typesystem.Type) typesystem.Type {
	elems := make([]typesystem.SeqElem, 0, len(tops)+1)
	for _, t := range tops {
		elems = append(elems, typesystem.SeqElem{Type: t})
	}
	elems = append(elems, typesystem.SeqElem{Type: rest, Dotted: true})
	return typesystem.TSeq{Elems: elems, KindVal: typesystem.KSeq{Inner: typesystem.Value}}
}

// identityWord is the type of the empty word sequence.
func (ctx *InferenceContext) identityWord() WordType {
	stack, _ := ctx.freshStack()
	return WordType{
		Effects:     ctx.Fresh.Fresh(typesystem.KRow{Inner: typesystem.Effect}),
		Permissions: ctx.Fresh.Fresh(typesystem.KRow{Inner: typesystem.Permission}),
		Totality:    typesystem.TTrue{KindVal: typesystem.Totality},
		Ins:         stack,
		Outs:        stack,
	}
}

// freshWord returns a word type with unconstrained inputs and outputs.
func (ctx *InferenceContext) freshWord() WordType {
	ins, _ := ctx.freshStack()
	outs, _ := ctx.freshStack()
	return WordType{
		Effects:     ctx.Fresh.Fresh(typesystem.KRow{Inner: typesystem.Effect}),
		Permissions: ctx.Fresh.Fresh(typesystem.KRow{Inner: typesystem.Permission}),
		Totality:    ctx.Fresh.Fresh(typesystem.Totality),
		Ins:         ins,
		Outs:        outs,
	}
}

// compose joins two adjacent word types: the left word's outputs feed
// the right word's inputs; effect and permission rows unify; totality
// accumulates conjunctively.
func (ctx *InferenceContext) compose(a, b WordType, node ast.Node) WordType {
	ctx.unify(a.Outs, b.Ins, node)
	ctx.unify(a.Effects, b.Effects, node)
	ctx.unify(a.Permissions, b.Permissions, node)
	return WordType{
		Effects:     a.Effects,
		Permissions: a.Permissions,
		Totality:    andAttr(a.Totality, b.Totality),
		Ins:         a.Ins,
		Outs:        b.Outs,
	}
}

// andAttr and orAttr combine Boolean attributes in the order-2 Abelian
// encoding: both are the group product; the lattice identity is true
// for totality (total) and true for sharing (unshared).
func andAttr(a, b typesystem.Type) typesystem.Type {
	return mulAttr(a, b)
}

func orAttr(a, b typesystem.Type) typesystem.Type {
	return mulAttr(a, b)
}

func mulAttr(a, b typesystem.Type) typesystem.Type {
	ae, ok1 := typesystem.ToEquation(a)
	be, ok2 := typesystem.ToEquation(b)
	if !ok1 || !ok2 {
		return a
	}
	return typesystem.FromEquation(ae.Add(be).Mod(2), a.Kind())
}

// freshValue returns a value type with fresh data and sharing parts.
func (ctx *InferenceContext) freshValue() typesystem.Type {
	return typesystem.MkValue(
		ctx.Fresh.Fresh(typesystem.Data),
		ctx.Fresh.Fresh(typesystem.Sharing),
	)
}
