package analyzer

import (
	"github.com/stavelang/stave/internal/ast"
	"github.com/stavelang/stave/internal/config"
	"github.com/stavelang/stave/internal/diagnostics"
	"github.com/stavelang/stave/internal/symbols"
	"github.com/stavelang/stave/internal/typesystem"
)

// inferHandle types a handle block: all handlers must belong to one
// effect, which is removed from the body's effect row; the return
// clause determines the result; resume is bound inside each handler
// with the handled block's result type.
func (ctx *InferenceContext) inferHandle(env *symbols.Table, word ast.Handle) ([]TWord, WordType, error) {
	if len(word.Handlers) == 0 {
		return nil, WordType{}, diagnostics.NewError(diagnostics.ErrT005, word.Position,
			"handle requires at least one handler")
	}

	// Identify the handled effect from the handler names.
	ops := make([]symbols.OperatorEntry, len(word.Handlers))
	for i, h := range word.Handlers {
		entry, ok := env.LookupWord(h.Name)
		if !ok {
			return nil, WordType{}, diagnostics.NewError(diagnostics.ErrT001, h.Position,
				"unbound effect operation `%s`", h.Name)
		}
		op, isOp := entry.(symbols.OperatorEntry)
		if !isOp {
			return nil, WordType{}, diagnostics.NewError(diagnostics.ErrT005, h.Position,
				"`%s` is not an effect operation", h.Name)
		}
		if op.Effect != ops[0].Effect && i > 0 {
			return nil, WordType{}, diagnostics.NewError(diagnostics.ErrT005, h.Position,
				"handler `%s` belongs to effect `%s`, expected `%s`",
				h.Name, op.Effect, ops[0].Effect)
		}
		ops[i] = op
	}
	effName := ops[0].Effect
	handleId := ops[0].HandleId

	// Params are stack values consumed before the block.
	bodyEnv := env.Extend()
	paramVals := make([]typesystem.Type, len(word.Params))
	for i, p := range word.Params {
		paramVals[i] = ctx.freshValue()
		bodyEnv.DefineWord(p, symbols.VariableEntry{Scheme: typesystem.MonoScheme(paramVals[i])})
	}

	bodyWords, bodyWT, err := ctx.inferExpr(bodyEnv, word.Body)
	if err != nil {
		return nil, WordType{}, err
	}

	// Strip the handled effect from the body's row.
	effElem := ctx.Fresh.Fresh(typesystem.Effect)
	outer := ctx.Fresh.Fresh(typesystem.KRow{Inner: typesystem.Effect})
	ctx.unify(bodyWT.Effects, typesystem.TRowExtend{
		Label: effName,
		Elem:  effElem,
		Rest:  outer,
	}, word)

	// The return clause transforms the body's outputs into the final
	// outputs; it runs outside the handled scope.
	retWords, retWT, err := ctx.inferExpr(bodyEnv, word.Ret)
	if err != nil {
		return nil, WordType{}, err
	}
	ctx.unify(retWT.Ins, bodyWT.Outs, word)
	ctx.unify(retWT.Effects, outer, word)
	ctx.unify(retWT.Permissions, bodyWT.Permissions, word)

	// Handlers run outside the handled scope with resume bound to a
	// continuation back into it.
	handlers := make([]THandler, len(word.Handlers))
	for i, h := range word.Handlers {
		opQ := ops[i].Scheme.Instantiate(ctx.Fresh)
		opWT, ok := WordTypeFromFn(opQ.Head)
		if !ok {
			return nil, WordType{}, diagnostics.NewError(diagnostics.ErrT005, h.Position,
				"operation `%s` has a non-function scheme", h.Name)
		}
		opArgs, _, okArgs := topValues(opWT.Ins, len(h.Params))
		if !okArgs {
			return nil, WordType{}, diagnostics.NewError(diagnostics.ErrT005, h.Position,
				"handler `%s` binds %d parameters", h.Name, len(h.Params))
		}

		handlerEnv := env.Extend()
		for j, p := range h.Params {
			handlerEnv.DefineWord(p, symbols.VariableEntry{Scheme: typesystem.MonoScheme(opArgs[j])})
		}

		// resume: takes the operation's results back to the handle
		// result; invoking it re-enters the handled block.
		resumeFn := typesystem.MkFn(
			outer,
			retWT.Permissions,
			ctx.Fresh.Fresh(typesystem.Totality),
			opWT.Outs,
			retWT.Outs,
		)
		handlerEnv.DefineWord(config.ResumeWordName, symbols.VariableEntry{
			Scheme: typesystem.MonoScheme(typesystem.MkValue(resumeFn, sharedAttr())),
		})

		hWords, hWT, err := ctx.inferExpr(handlerEnv, h.Body)
		if err != nil {
			return nil, WordType{}, err
		}
		ctx.unify(hWT.Outs, retWT.Outs, h)
		ctx.unify(hWT.Effects, outer, h)
		ctx.unify(hWT.Permissions, retWT.Permissions, h)

		handlers[i] = THandler{Name: h.Name, Params: h.Params, Body: hWords}
	}

	wt := WordType{
		Effects:     outer,
		Permissions: bodyWT.Permissions,
		Totality:    andAttr(bodyWT.Totality, retWT.Totality),
		Ins:         prependStack(paramVals, bodyWT.Ins),
		Outs:        retWT.Outs,
	}
	th := THandle{
		HandleId: handleId,
		Params:   word.Params,
		Body:     bodyWords,
		Handlers: handlers,
		Ret:      retWords,
	}
	return []TWord{th}, wt, nil
}
