package analyzer

import (
	"github.com/stavelang/stave/internal/ast"
	"github.com/stavelang/stave/internal/config"
	"github.com/stavelang/stave/internal/diagnostics"
	"github.com/stavelang/stave/internal/symbols"
	"github.com/stavelang/stave/internal/typesystem"
)

// Elaborator rewrites placeholders into dictionary-passing code. It is
// purely syntactic: it never re-runs inference, only consults the final
// substitution for placeholder types.
type Elaborator struct {
	env   *symbols.Table
	subst typesystem.Subst
	fresh *typesystem.FreshSource

	// DictNames are the let-bound dictionary parameters, one per
	// context predicate of the generalized scheme, in context order.
	DictNames  []string
	DictParams []dictParam
}

type dictParam struct {
	pred typesystem.Pred
	name string
}

func NewElaborator(env *symbols.Table, subst typesystem.Subst, fresh *typesystem.FreshSource, context []typesystem.Pred) *Elaborator {
	e := &Elaborator{env: env, subst: subst, fresh: fresh}
	for _, p := range context {
		name := fresh.FreshName(config.DictParamPrefix)
		e.DictNames = append(e.DictNames, name)
		e.DictParams = append(e.DictParams, dictParam{pred: p, name: name})
	}
	return e
}

// Run walks the inferred words, replacing every placeholder.
func (e *Elaborator) Run(words []TWord, node ast.Node) ([]TWord, *diagnostics.DiagnosticError) {
	var out []TWord
	for _, w := range words {
		replaced, err := e.rewriteWord(w, node)
		if err != nil {
			return nil, err
		}
		out = append(out, replaced...)
	}
	return out, nil
}

func (e *Elaborator) rewriteWord(w TWord, node ast.Node) ([]TWord, *diagnostics.DiagnosticError) {
	switch word := w.(type) {
	case TOverloadPlaceholder:
		return e.resolvePred(word.Pred, false, node)

	case TMethodPlaceholder:
		return e.resolvePred(word.Pred, true, node)

	case TRecursivePlaceholder:
		// After generalization a recursive reference is a direct call.
		return []TWord{TCallVar{Name: word.Name}}, nil

	case TIf:
		thenW, err := e.Run(word.Then, node)
		if err != nil {
			return nil, err
		}
		elseW, err := e.Run(word.Else, node)
		if err != nil {
			return nil, err
		}
		return []TWord{TIf{Then: thenW, Else: elseW}}, nil

	case TWhile:
		condW, err := e.Run(word.Cond, node)
		if err != nil {
			return nil, err
		}
		bodyW, err := e.Run(word.Body, node)
		if err != nil {
			return nil, err
		}
		return []TWord{TWhile{Cond: condW, Body: bodyW}}, nil

	case TVars:
		bodyW, err := e.Run(word.Body, node)
		if err != nil {
			return nil, err
		}
		return []TWord{TVars{Bindings: word.Bindings, Body: bodyW}}, nil

	case TMatch:
		thenW, err := e.Run(word.Then, node)
		if err != nil {
			return nil, err
		}
		elseW, err := e.Run(word.Else, node)
		if err != nil {
			return nil, err
		}
		return []TWord{TMatch{CtorName: word.CtorName, Bindings: word.Bindings, Then: thenW, Else: elseW}}, nil

	case TFunLit:
		bodyW, err := e.Run(word.Body, node)
		if err != nil {
			return nil, err
		}
		return []TWord{TFunLit{Body: bodyW}}, nil

	case THandle:
		bodyW, err := e.Run(word.Body, node)
		if err != nil {
			return nil, err
		}
		retW, err := e.Run(word.Ret, node)
		if err != nil {
			return nil, err
		}
		handlers := make([]THandler, len(word.Handlers))
		for i, h := range word.Handlers {
			hw, err := e.Run(h.Body, node)
			if err != nil {
				return nil, err
			}
			handlers[i] = THandler{Name: h.Name, Params: h.Params, Body: hw}
		}
		return []TWord{THandle{
			HandleId: word.HandleId,
			Params:   word.Params,
			Body:     bodyW,
			Handlers: handlers,
			Ret:      retW,
		}}, nil

	case TCase:
		thenW, err := e.Run(word.Then, node)
		if err != nil {
			return nil, err
		}
		elseW, err := e.Run(word.Else, node)
		if err != nil {
			return nil, err
		}
		return []TWord{TCase{Label: word.Label, Then: thenW, Else: elseW}}, nil

	case TWithPermission:
		bodyW, err := e.Run(word.Body, node)
		if err != nil {
			return nil, err
		}
		return []TWord{TWithPermission{Names: word.Names, Body: bodyW}}, nil

	default:
		return []TWord{w}, nil
	}
}

// resolvePred finds dictionary code for a predicate: an instance whose
// head matches the argument, or a dictionary parameter whose declared
// constraint matches. Instance context predicates resolve recursively.
func (e *Elaborator) resolvePred(pred typesystem.Pred, invoke bool, node ast.Node) ([]TWord, *diagnostics.DiagnosticError) {
	resolved := pred.Apply(e.subst)

	_, overload, found := e.env.LookupOverloadByPred(resolved.Name)
	if found {
		for _, inst := range overload.Instances {
			q := inst.Scheme.Instantiate(e.fresh)
			m, ok := typesystem.Match(q.Head, resolved.Arg)
			if !ok {
				continue
			}
			var dicts []TWord
			for _, sub := range q.Context {
				dw, err := e.resolvePred(sub.Apply(m), false, node)
				if err != nil {
					return nil, err
				}
				dicts = append(dicts, dw...)
			}
			if invoke {
				return append(dicts, TCallVar{Name: inst.FuncName}), nil
			}
			return []TWord{TFunLit{Body: append(dicts, TCallVar{Name: inst.FuncName})}}, nil
		}
	}

	for _, dp := range e.DictParams {
		declared := dp.pred.Apply(e.subst)
		if _, ok := typesystem.MatchPred(declared, resolved); ok {
			if invoke {
				return []TWord{TValueVar{Name: dp.name}, TDo{}}, nil
			}
			return []TWord{TValueVar{Name: dp.name}}, nil
		}
	}

	return nil, diagnostics.NewError(diagnostics.ErrE001, node.Pos(),
		"no instance found for `%s`", resolved)
}
