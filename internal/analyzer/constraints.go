package analyzer

import (
	"github.com/stavelang/stave/internal/ast"
	"github.com/stavelang/stave/internal/typesystem"
)

// Constraint is one deferred unification, tagged with the node that
// produced it for error reporting.
type Constraint struct {
	Left  typesystem.Type
	Right typesystem.Type
	Node  ast.Node
}

// WordType is the function type of a concatenative word:
// (effects, permissions, totality, inputs -> outputs). Inputs and
// outputs are stack sequences, top first, ending in a dotted rest
// variable when the word is stack polymorphic.
type WordType struct {
	Effects     typesystem.Type
	Permissions typesystem.Type
	Totality    typesystem.Type
	Ins         typesystem.Type
	Outs        typesystem.Type
}

// FnData converts a word type to the function data type.
func (w WordType) FnData() typesystem.Type {
	return typesystem.MkFn(w.Effects, w.Permissions, w.Totality, w.Ins, w.Outs)
}

// WordTypeFromFn decomposes a function data type into a word type.
func WordTypeFromFn(t typesystem.Type) (WordType, bool) {
	parts, ok := typesystem.MatchFn(t)
	if !ok {
		return WordType{}, false
	}
	return WordType{
		Effects:     parts.Effects,
		Permissions: parts.Permissions,
		Totality:    parts.Totality,
		Ins:         parts.Ins,
		Outs:        parts.Outs,
	}, true
}

func (w WordType) Apply(s typesystem.Subst) WordType {
	return WordType{
		Effects:     w.Effects.Apply(s),
		Permissions: w.Permissions.Apply(s),
		Totality:    w.Totality.Apply(s),
		Ins:         w.Ins.Apply(s),
		Outs:        w.Outs.Apply(s),
	}
}
