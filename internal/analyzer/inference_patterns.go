package analyzer

import (
	"github.com/stavelang/stave/internal/ast"
	"github.com/stavelang/stave/internal/diagnostics"
	"github.com/stavelang/stave/internal/symbols"
	"github.com/stavelang/stave/internal/typesystem"
)

type binding struct {
	name string
	val  typesystem.Type
}

// inferPattern types a pattern, returning its bindings, the value type
// it consumes, and for constructor patterns the match word that
// destructures at runtime.
func (ctx *InferenceContext) inferPattern(env *symbols.Table, p ast.Pattern) ([]binding, typesystem.Type, *TMatch, error) {
	switch pat := p.(type) {
	case ast.PVar:
		val := ctx.freshValue()
		return []binding{{name: pat.Name, val: val}}, val, nil, nil

	case ast.PWild:
		val := ctx.freshValue()
		// Wildcards still occupy a storage slot; the generated name is
		// unfindable by user code.
		name := ctx.Fresh.Fresh(typesystem.Value).Name
		return []binding{{name: name, val: val}}, val, nil, nil

	case ast.PCtor:
		return ctx.inferCtorPattern(env, pat)

	default:
		return nil, nil, nil, diagnostics.NewError(diagnostics.ErrT005, p.Pos(), "unsupported pattern %T", p)
	}
}

func (ctx *InferenceContext) inferCtorPattern(env *symbols.Table, pat ast.PCtor) ([]binding, typesystem.Type, *TMatch, error) {
	scheme, ok := ctx.ctorPatternScheme(env, pat.Name)
	if !ok {
		return nil, nil, nil, diagnostics.NewError(diagnostics.ErrT001, pat.Position,
			"unbound pattern `%s`", pat.Name)
	}
	q := scheme.Instantiate(ctx.Fresh)
	parts, ok := typesystem.MatchFn(q.Head)
	if !ok {
		return nil, nil, nil, diagnostics.NewError(diagnostics.ErrT005, pat.Position,
			"pattern scheme for `%s` is not a matcher", pat.Name)
	}

	scrutinee, _, okIns := topValues(parts.Ins, 1)
	args, _, okOuts := topValues(parts.Outs, len(pat.Args))
	if !okIns || !okOuts {
		return nil, nil, nil, diagnostics.NewError(diagnostics.ErrT005, pat.Position,
			"constructor `%s` does not take %d arguments", pat.Name, len(pat.Args))
	}

	// The constructed value's sharing is the join of its arguments'.
	if scrutParts, ok := typesystem.MatchValue(scrutinee[0]); ok {
		join := unsharedAttr()
		for _, a := range args {
			if ap, ok := typesystem.MatchValue(a); ok {
				join = orAttr(join, ap.Sharing)
			}
		}
		ctx.unify(scrutParts.Sharing, join, pat)
	}

	var bindings []binding
	for i, argPat := range pat.Args {
		switch ap := argPat.(type) {
		case ast.PVar:
			bindings = append(bindings, binding{name: ap.Name, val: args[i]})
		case ast.PWild:
			bindings = append(bindings, binding{name: ctx.Fresh.Fresh(typesystem.Value).Name, val: args[i]})
		default:
			return nil, nil, nil, diagnostics.NewError(diagnostics.ErrT005, argPat.Pos(),
				"nested constructor patterns are not supported; bind a variable and match it")
		}
	}
	return bindings, scrutinee[0], &TMatch{CtorName: pat.Name}, nil
}

// ctorPatternScheme finds a constructor's pattern scheme, falling back
// to declared pattern synonyms.
func (ctx *InferenceContext) ctorPatternScheme(env *symbols.Table, name string) (typesystem.Scheme, bool) {
	if entry, ok := env.LookupWord(name); ok {
		if c, isCtor := entry.(symbols.ConstructorEntry); isCtor {
			return c.PatternScheme, true
		}
	}
	return env.LookupPattern(name)
}

// topValues splits the top n values off a stack sequence.
func topValues(stack typesystem.Type, n int) ([]typesystem.Type, typesystem.Type, bool) {
	seq, ok := stack.(typesystem.TSeq)
	if !ok {
		return nil, nil, n == 0
	}
	var tops []typesystem.Type
	for i, e := range seq.Elems {
		if len(tops) == n {
			rest := typesystem.TSeq{Elems: seq.Elems[i:], KindVal: seq.KindVal}
			return tops, rest, true
		}
		if e.Dotted {
			break
		}
		tops = append(tops, e.Type)
	}
	if len(tops) == n {
		return tops, typesystem.TSeq{Elems: nil, KindVal: seq.KindVal}, true
	}
	return nil, nil, false
}
