package analyzer

import (
	"strings"

	"github.com/stavelang/stave/internal/ast"
	"github.com/stavelang/stave/internal/config"
	"github.com/stavelang/stave/internal/diagnostics"
	"github.com/stavelang/stave/internal/symbols"
	"github.com/stavelang/stave/internal/typesystem"
)

// Boolean attribute constants. The order-2 group identity (true) is
// "total" for totality and "unshared" for sharing; the generator
// (false) marks the partial and the shared cases.
func totalAttr() typesystem.Type    { return typesystem.TTrue{KindVal: typesystem.Totality} }
func partialAttr() typesystem.Type  { return typesystem.TFalse{KindVal: typesystem.Totality} }
func sharedAttr() typesystem.Type   { return typesystem.TFalse{KindVal: typesystem.Sharing} }
func unsharedAttr() typesystem.Type { return typesystem.TTrue{KindVal: typesystem.Sharing} }

// inferExpr infers a word sequence by composing adjacent word types.
func (ctx *InferenceContext) inferExpr(env *symbols.Table, e ast.Expr) ([]TWord, WordType, error) {
	acc := ctx.identityWord()
	var words []TWord
	for _, w := range e {
		tw, wt, err := ctx.inferWord(env, w)
		if err != nil {
			return nil, WordType{}, err
		}
		words = append(words, tw...)
		acc = ctx.compose(acc, wt, w)
	}
	return words, acc, nil
}

func (ctx *InferenceContext) inferWord(env *symbols.Table, w ast.Word) ([]TWord, WordType, error) {
	switch word := w.(type) {
	case ast.IntLit:
		data := typesystem.MkInt(word.Size, ctx.Fresh.Fresh(typesystem.Unit))
		return []TWord{TIntLit{Digits: word.Digits, Size: word.Size}},
			ctx.pushWord(data), nil

	case ast.FloatLit:
		data := typesystem.MkFloat(word.Size, ctx.Fresh.Fresh(typesystem.Unit))
		return []TWord{TFloatLit{Digits: word.Digits, Size: word.Size}},
			ctx.pushWord(data), nil

	case ast.BoolLit:
		return []TWord{TBoolLit{Value: word.Value}},
			ctx.pushWord(typesystem.BoolType()), nil

	case ast.StringLit:
		return []TWord{TStringLit{Value: word.Value}},
			ctx.pushWord(typesystem.StringType()), nil

	case ast.Ident:
		return ctx.inferIdent(env, word)

	case ast.Block:
		return ctx.inferBlock(env, word)

	case ast.If:
		return ctx.inferIf(env, word)

	case ast.While:
		return ctx.inferWhile(env, word)

	case ast.FunLit:
		return ctx.inferFunLit(env, word)

	case ast.Handle:
		return ctx.inferHandle(env, word)

	case ast.RefNew, ast.RefGet, ast.RefPut:
		return ctx.inferRefWord(w)

	case ast.WithState:
		return ctx.inferWithState(env, word)

	case ast.Untag, ast.By, ast.Per:
		return ctx.inferUnitWord(env, w)

	case ast.RecordExtend:
		v := ctx.freshValue()
		s := ctx.Fresh.Fresh(typesystem.Sharing)
		rho := ctx.Fresh.Fresh(typesystem.KRow{Inner: typesystem.Field})
		rec := typesystem.MkValue(typesystem.MkRecord(rho), s)
		out := typesystem.MkValue(
			typesystem.MkRecord(typesystem.TRowExtend{Label: word.Label, Elem: v, Rest: rho}),
			ctx.Fresh.Fresh(typesystem.Sharing))
		return []TWord{TRecordExtend{Label: word.Label}}, ctx.stackWord([]typesystem.Type{v, rec}, []typesystem.Type{out}), nil

	case ast.RecordSelect:
		v := ctx.freshValue()
		rho := ctx.Fresh.Fresh(typesystem.KRow{Inner: typesystem.Field})
		rec := typesystem.MkValue(
			typesystem.MkRecord(typesystem.TRowExtend{Label: word.Label, Elem: v, Rest: rho}),
			ctx.Fresh.Fresh(typesystem.Sharing))
		return []TWord{TRecordSelect{Label: word.Label}}, ctx.stackWord([]typesystem.Type{rec}, []typesystem.Type{v}), nil

	case ast.RecordRestrict:
		v := ctx.freshValue()
		rho := ctx.Fresh.Fresh(typesystem.KRow{Inner: typesystem.Field})
		s := ctx.Fresh.Fresh(typesystem.Sharing)
		rec := typesystem.MkValue(
			typesystem.MkRecord(typesystem.TRowExtend{Label: word.Label, Elem: v, Rest: rho}), s)
		out := typesystem.MkValue(typesystem.MkRecord(rho), ctx.Fresh.Fresh(typesystem.Sharing))
		return []TWord{TRecordRestrict{Label: word.Label}}, ctx.stackWord([]typesystem.Type{rec}, []typesystem.Type{out}), nil

	case ast.VariantLit:
		v := ctx.freshValue()
		rho := ctx.Fresh.Fresh(typesystem.KRow{Inner: typesystem.Field})
		out := typesystem.MkValue(
			typesystem.MkVariant(typesystem.TRowExtend{Label: word.Label, Elem: v, Rest: rho}),
			ctx.Fresh.Fresh(typesystem.Sharing))
		return []TWord{TVariantLit{Label: word.Label}}, ctx.stackWord([]typesystem.Type{v}, []typesystem.Type{out}), nil

	case ast.Case:
		return ctx.inferCase(env, word)

	case ast.WithPermission:
		return ctx.inferWithPermission(env, word)

	case ast.Do:
		return ctx.inferDo(word)

	default:
		return nil, WordType{}, diagnostics.NewError(diagnostics.ErrT005, w.Pos(), "unsupported word %T", w)
	}
}

// pushWord types a word that pushes one freshly built data value.
func (ctx *InferenceContext) pushWord(data typesystem.Type) WordType {
	val := typesystem.MkValue(data, ctx.Fresh.Fresh(typesystem.Sharing))
	return ctx.stackWord(nil, []typesystem.Type{val})
}

// stackWord types a word consuming ins (top first) and producing outs
// over a shared rest.
func (ctx *InferenceContext) stackWord(ins, outs []typesystem.Type) WordType {
	rest := ctx.Fresh.Fresh(typesystem.KSeq{Inner: typesystem.Value})
	return WordType{
		Effects:     ctx.Fresh.Fresh(typesystem.KRow{Inner: typesystem.Effect}),
		Permissions: ctx.Fresh.Fresh(typesystem.KRow{Inner: typesystem.Permission}),
		Totality:    totalAttr(),
		Ins:         stackOf(rest, ins...),
		Outs:        stackOf(rest, outs...),
	}
}

func (ctx *InferenceContext) inferIdent(env *symbols.Table, word ast.Ident) ([]TWord, WordType, error) {
	entry, ok := env.LookupWord(word.Name)
	if !ok {
		return nil, WordType{}, diagnostics.NewError(diagnostics.ErrT001, word.Position, "unbound name `%s`", word.Name)
	}

	switch e := entry.(type) {
	case symbols.VariableEntry:
		q := e.Scheme.Instantiate(ctx.Fresh)
		// The implicit continuation parameter is invoked, not pushed.
		if word.Name == config.ResumeWordName {
			if parts, ok := typesystem.MatchValue(q.Head); ok {
				if wt, isFn := WordTypeFromFn(parts.Data); isFn {
					return []TWord{TCallVar{Name: word.Name}}, wt, nil
				}
			}
		}
		return []TWord{TValueVar{Name: word.Name}},
			ctx.stackWord(nil, []typesystem.Type{q.Head}), nil

	case symbols.RecursiveEntry:
		q := e.Scheme.Instantiate(ctx.Fresh)
		wt, err := ctx.wordTypeOf(q.Head, word)
		if err != nil {
			return nil, WordType{}, err
		}
		return []TWord{TRecursivePlaceholder{Name: word.Name, Head: q.Head}}, wt, nil

	case symbols.OverloadEntry:
		q := e.Base.Instantiate(ctx.Fresh)
		if len(q.Context) == 0 {
			return nil, WordType{}, diagnostics.NewError(diagnostics.ErrT005, word.Position,
				"overload `%s` carries no predicate", word.Name)
		}
		wt, err := ctx.wordTypeOf(q.Head, word)
		if err != nil {
			return nil, WordType{}, err
		}
		method := q.Context[0]
		ctx.want(method)
		words := []TWord{}
		for _, p := range q.Context[1:] {
			ctx.want(p)
			words = append(words, TOverloadPlaceholder{Pred: p})
		}
		words = append(words, TMethodPlaceholder{Name: word.Name, Pred: method})
		return words, wt, nil

	case symbols.ConstructorEntry:
		q := e.ValueScheme.Instantiate(ctx.Fresh)
		wt, err := ctx.wordTypeOf(q.Head, word)
		if err != nil {
			return nil, WordType{}, err
		}
		return []TWord{TConstructorVar{Name: word.Name}}, wt, nil

	case symbols.OperatorEntry:
		q := e.Scheme.Instantiate(ctx.Fresh)
		wt, err := ctx.wordTypeOf(q.Head, word)
		if err != nil {
			return nil, WordType{}, err
		}
		return []TWord{TOperatorVar{Name: word.Name}}, wt, nil

	case symbols.PrimEntry:
		q := e.Scheme.Instantiate(ctx.Fresh)
		wt, err := ctx.wordTypeOf(q.Head, word)
		if err != nil {
			return nil, WordType{}, err
		}
		return []TWord{TPrimVar{Name: word.Name}}, wt, nil

	case symbols.FunctionEntry:
		q := e.Scheme.Instantiate(ctx.Fresh)
		wt, err := ctx.wordTypeOf(q.Head, word)
		if err != nil {
			return nil, WordType{}, err
		}
		words := []TWord{}
		for _, p := range q.Context {
			ctx.want(p)
			words = append(words, TOverloadPlaceholder{Pred: p})
		}
		words = append(words, TCallVar{Name: word.Name})
		return words, wt, nil
	}
	return nil, WordType{}, diagnostics.NewError(diagnostics.ErrT005, word.Position,
		"unusable entry for `%s`", word.Name)
}

// wordTypeOf views a scheme head as a word type. A head that is not a
// function data type denotes a plain value push.
func (ctx *InferenceContext) wordTypeOf(head typesystem.Type, node ast.Node) (WordType, error) {
	if wt, ok := WordTypeFromFn(head); ok {
		return wt, nil
	}
	if _, ok := typesystem.MatchValue(head); ok {
		return ctx.stackWord(nil, []typesystem.Type{head}), nil
	}
	return WordType{}, diagnostics.NewError(diagnostics.ErrT005, node.Pos(),
		"scheme head %s is neither function nor value", head)
}

func (ctx *InferenceContext) inferBlock(env *symbols.Table, word ast.Block) ([]TWord, WordType, error) {
	acc := ctx.identityWord()
	var words []TWord
	scope := env

	// Each let pops the values its expression pushed into pattern
	// bindings; the sharing analysis forces reused bindings shared.
	bodyAfter := func(i int) ast.Expr {
		var rest ast.Expr
		for _, l := range word.Lets[i+1:] {
			rest = append(rest, l.Value...)
		}
		rest = append(rest, word.Body...)
		return rest
	}

	for i, let := range word.Lets {
		valWords, valWT, err := ctx.inferExpr(scope, let.Value)
		if err != nil {
			return nil, WordType{}, err
		}
		acc = ctx.compose(acc, valWT, word)

		bindings, patTy, match, err := ctx.inferPattern(scope, let.Pat)
		if err != nil {
			return nil, WordType{}, err
		}
		popWT := ctx.stackWord([]typesystem.Type{patTy}, nil)
		acc = ctx.compose(acc, popWT, word)

		scope = scope.Extend()
		names := make([]string, 0, len(bindings))
		for _, b := range bindings {
			// Wildcard slots carry generated names and are never
			// findable; they only occupy storage.
			if !strings.ContainsRune(b.name, '*') {
				scope.DefineWord(b.name, symbols.VariableEntry{Scheme: typesystem.MonoScheme(b.val)})
			}
			names = append(names, b.name)
			if countOccurrences(b.name, bodyAfter(i)) > 1 {
				parts, ok := typesystem.MatchValue(b.val)
				if ok {
					ctx.unify(parts.Sharing, sharedAttr(), word)
				}
			}
		}

		words = append(words, valWords...)
		if match != nil {
			match.Bindings = names
			words = append(words, *match)
		} else {
			words = append(words, TVars{Bindings: names})
		}
	}

	bodyWords, bodyWT, err := ctx.inferExpr(scope, word.Body)
	if err != nil {
		return nil, WordType{}, err
	}
	acc = ctx.compose(acc, bodyWT, word)

	// Nest the body into the innermost binder so lowering scopes
	// frames correctly.
	words = nestBlockBody(words, bodyWords)
	return words, acc, nil
}

// nestBlockBody pushes the block body into the final binder word.
func nestBlockBody(words []TWord, body []TWord) []TWord {
	if len(words) == 0 {
		return body
	}
	last := len(words) - 1
	switch binder := words[last].(type) {
	case TVars:
		binder.Body = body
		words[last] = binder
		return words
	case TMatch:
		binder.Then = body
		words[last] = binder
		return words
	default:
		return append(words, body...)
	}
}

func (ctx *InferenceContext) inferIf(env *symbols.Table, word ast.If) ([]TWord, WordType, error) {
	thenWords, thenWT, err := ctx.inferExpr(env, word.Then)
	if err != nil {
		return nil, WordType{}, err
	}
	elseWords, elseWT, err := ctx.inferExpr(env, word.Else)
	if err != nil {
		return nil, WordType{}, err
	}
	branches := ctx.unifyBranches(thenWT, elseWT, word)

	cond := typesystem.MkValue(typesystem.BoolType(), ctx.Fresh.Fresh(typesystem.Sharing))
	wt := WordType{
		Effects:     branches.Effects,
		Permissions: branches.Permissions,
		Totality:    branches.Totality,
		Ins:         prependStack([]typesystem.Type{cond}, branches.Ins),
		Outs:        branches.Outs,
	}
	return []TWord{TIf{Then: thenWords, Else: elseWords}}, wt, nil
}

// unifyBranches unifies the stack shapes and rows of two branches and
// accumulates totality conjunctively.
func (ctx *InferenceContext) unifyBranches(a, b WordType, node ast.Node) WordType {
	ctx.unify(a.Ins, b.Ins, node)
	ctx.unify(a.Outs, b.Outs, node)
	ctx.unify(a.Effects, b.Effects, node)
	ctx.unify(a.Permissions, b.Permissions, node)
	return WordType{
		Effects:     a.Effects,
		Permissions: a.Permissions,
		Totality:    andAttr(a.Totality, b.Totality),
		Ins:         a.Ins,
		Outs:        a.Outs,
	}
}

func (ctx *InferenceContext) inferWhile(env *symbols.Table, word ast.While) ([]TWord, WordType, error) {
	condWords, condWT, err := ctx.inferExpr(env, word.Cond)
	if err != nil {
		return nil, WordType{}, err
	}
	bodyWords, bodyWT, err := ctx.inferExpr(env, word.Body)
	if err != nil {
		return nil, WordType{}, err
	}

	cond := typesystem.MkValue(typesystem.BoolType(), ctx.Fresh.Fresh(typesystem.Sharing))
	// The body preserves the stack shape; the condition pushes a Bool
	// over that shape.
	ctx.unify(bodyWT.Outs, bodyWT.Ins, word)
	ctx.unify(condWT.Outs, prependStack([]typesystem.Type{cond}, bodyWT.Ins), word)
	ctx.unify(condWT.Ins, bodyWT.Ins, word)
	ctx.unify(condWT.Effects, bodyWT.Effects, word)
	ctx.unify(condWT.Permissions, bodyWT.Permissions, word)

	wt := WordType{
		Effects:     condWT.Effects,
		Permissions: condWT.Permissions,
		// Loops are never credited as total.
		Totality: partialAttr(),
		Ins:      condWT.Ins,
		Outs:     bodyWT.Ins,
	}
	return []TWord{TWhile{Cond: condWords, Body: bodyWords}}, wt, nil
}

func (ctx *InferenceContext) inferFunLit(env *symbols.Table, word ast.FunLit) ([]TWord, WordType, error) {
	bodyWords, bodyWT, err := ctx.inferExpr(env, word.Body)
	if err != nil {
		return nil, WordType{}, err
	}

	// The literal's sharing is the join of the sharing attributes of
	// the captured variables.
	sharing := unsharedAttr()
	for _, name := range freeValueVars(env, word.Body) {
		entry, ok := env.LookupWord(name)
		if !ok {
			continue
		}
		v, ok := entry.(symbols.VariableEntry)
		if !ok {
			continue
		}
		if parts, ok := typesystem.MatchValue(v.Scheme.Qual.Head); ok {
			sharing = orAttr(sharing, parts.Sharing)
		}
	}

	val := typesystem.MkValue(bodyWT.FnData(), sharing)
	return []TWord{TFunLit{Body: bodyWords}}, ctx.stackWord(nil, []typesystem.Type{val}), nil
}

// freeValueVars lists names referenced in an expression that resolve to
// let-bound values in the surrounding environment.
func freeValueVars(env *symbols.Table, e ast.Expr) []string {
	seen := map[string]bool{}
	var names []string
	var walkExpr func(ex ast.Expr)
	walkWord := func(w ast.Word) {
		if id, ok := w.(ast.Ident); ok && !seen[id.Name] {
			if entry, found := env.LookupWord(id.Name); found {
				if _, isVar := entry.(symbols.VariableEntry); isVar {
					seen[id.Name] = true
					names = append(names, id.Name)
				}
			}
		}
	}
	walkExpr = func(ex ast.Expr) {
		for _, w := range ex {
			walkWord(w)
			switch inner := w.(type) {
			case ast.Block:
				for _, l := range inner.Lets {
					walkExpr(l.Value)
				}
				walkExpr(inner.Body)
			case ast.If:
				walkExpr(inner.Then)
				walkExpr(inner.Else)
			case ast.Case:
				walkExpr(inner.Then)
				walkExpr(inner.Else)
			case ast.While:
				walkExpr(inner.Cond)
				walkExpr(inner.Body)
			case ast.FunLit:
				walkExpr(inner.Body)
			case ast.Handle:
				walkExpr(inner.Body)
				walkExpr(inner.Ret)
				for _, h := range inner.Handlers {
					walkExpr(h.Body)
				}
			case ast.WithState:
				walkExpr(inner.Body)
			case ast.WithPermission:
				walkExpr(inner.Body)
			}
		}
	}
	walkExpr(e)
	return names
}

func (ctx *InferenceContext) inferRefWord(w ast.Word) ([]TWord, WordType, error) {
	heap := ctx.Fresh.Fresh(typesystem.Heap)
	elem := ctx.freshValue()
	refVal := typesystem.MkValue(
		typesystem.MkRef(heap, elem),
		ctx.Fresh.Fresh(typesystem.Sharing))

	var name string
	var wt WordType
	switch w.(type) {
	case ast.RefNew:
		name = "new-ref"
		wt = ctx.stackWord([]typesystem.Type{elem}, []typesystem.Type{refVal})
	case ast.RefGet:
		name = "get-ref"
		wt = ctx.stackWord([]typesystem.Type{refVal}, []typesystem.Type{elem})
	case ast.RefPut:
		name = "put-ref"
		wt = ctx.stackWord([]typesystem.Type{elem, refVal}, nil)
	}

	// Every ref operation performs the State effect on its heap.
	stateCon := typesystem.TCon{
		Name:    config.StateEffectName,
		KindVal: typesystem.MakeArrow(typesystem.Heap, typesystem.Effect),
	}
	stateEff := typesystem.TApp{Fn: stateCon, Arg: heap}
	rest := ctx.Fresh.Fresh(typesystem.KRow{Inner: typesystem.Effect})
	ctx.unify(wt.Effects, typesystem.TRowExtend{
		Label: config.StateEffectName,
		Elem:  stateEff,
		Rest:  rest,
	}, w)
	return []TWord{TPrimVar{Name: name}}, wt, nil
}

func (ctx *InferenceContext) inferWithState(env *symbols.Table, word ast.WithState) ([]TWord, WordType, error) {
	bodyWords, bodyWT, err := ctx.inferExpr(env, word.Body)
	if err != nil {
		return nil, WordType{}, err
	}

	heap := ctx.Fresh.Fresh(typesystem.Heap)
	stateCon := typesystem.TCon{
		Name:    config.StateEffectName,
		KindVal: typesystem.MakeArrow(typesystem.Heap, typesystem.Effect),
	}
	rest := ctx.Fresh.Fresh(typesystem.KRow{Inner: typesystem.Effect})
	ctx.unify(bodyWT.Effects, typesystem.TRowExtend{
		Label: config.StateEffectName,
		Elem:  typesystem.TApp{Fn: stateCon, Arg: heap},
		Rest:  rest,
	}, word)
	// The innermost State effect is discharged; the heap variable must
	// not survive into the outer scope or the block's stack types
	// (checked after solving).
	ctx.heapChecks = append(ctx.heapChecks, heapCheck{
		heap: heap,
		node: word,
		env:  env,
		ins:  bodyWT.Ins,
		outs: bodyWT.Outs,
	})

	wt := WordType{
		Effects:     rest,
		Permissions: bodyWT.Permissions,
		Totality:    bodyWT.Totality,
		Ins:         bodyWT.Ins,
		Outs:        bodyWT.Outs,
	}
	return bodyWords, wt, nil
}

func (ctx *InferenceContext) inferUnitWord(env *symbols.Table, w ast.Word) ([]TWord, WordType, error) {
	var unitName string
	invert := false
	switch word := w.(type) {
	case ast.By:
		unitName = word.UnitName
	case ast.Per:
		unitName = word.UnitName
		invert = true
	case ast.Untag:
		unitName = word.UnitName
		invert = true
	}
	if !env.HasUnit(unitName) {
		return nil, WordType{}, diagnostics.NewError(diagnostics.ErrT001, w.Pos(),
			"unit constant `%s` is not declared", unitName)
	}

	// Unit words retype the top numeric value without any runtime
	// content, so they produce no typed words.
	unitVar := ctx.Fresh.Fresh(typesystem.Unit)
	factor := typesystem.ConstEquation(unitName)
	if invert {
		factor = factor.Invert()
	}
	outUnitEq := typesystem.VarEquation(unitVar.Name).Add(factor)
	outUnit := typesystem.FromEquation(outUnitEq, typesystem.Unit)

	s := ctx.Fresh.Fresh(typesystem.Sharing)
	d := ctx.Fresh.Fresh(typesystem.Data)
	inVal := typesystem.MkValue(d, s)
	outVal := typesystem.MkValue(ctx.retagData(d, unitVar, outUnit, w), s)
	return nil, ctx.stackWord([]typesystem.Type{inVal}, []typesystem.Type{outVal}), nil
}

// retagData rebuilds a numeric data type with a new unit component by
// unifying the input against a numeric skeleton.
func (ctx *InferenceContext) retagData(d typesystem.Type, unitVar typesystem.TVar, newUnit typesystem.Type, node ast.Node) typesystem.Type {
	numCtor := ctx.Fresh.Fresh(typesystem.MakeArrow(typesystem.Unit, typesystem.Data))
	ctx.unify(d, typesystem.TApp{Fn: numCtor, Arg: unitVar}, node)
	return typesystem.TApp{Fn: numCtor, Arg: newUnit}
}

func (ctx *InferenceContext) inferCase(env *symbols.Table, word ast.Case) ([]TWord, WordType, error) {
	payload := ctx.freshValue()
	rho := ctx.Fresh.Fresh(typesystem.KRow{Inner: typesystem.Field})
	s := ctx.Fresh.Fresh(typesystem.Sharing)
	scrut := typesystem.MkValue(
		typesystem.MkVariant(typesystem.TRowExtend{Label: word.Label, Elem: payload, Rest: rho}), s)
	narrowed := typesystem.MkValue(typesystem.MkVariant(rho), s)

	thenWords, thenWT, err := ctx.inferExpr(env, word.Then)
	if err != nil {
		return nil, WordType{}, err
	}
	elseWords, elseWT, err := ctx.inferExpr(env, word.Else)
	if err != nil {
		return nil, WordType{}, err
	}

	inner, _ := ctx.freshStack()
	ctx.unify(thenWT.Ins, prependStack([]typesystem.Type{payload}, inner), word)
	ctx.unify(elseWT.Ins, prependStack([]typesystem.Type{narrowed}, inner), word)
	ctx.unify(thenWT.Outs, elseWT.Outs, word)
	ctx.unify(thenWT.Effects, elseWT.Effects, word)
	ctx.unify(thenWT.Permissions, elseWT.Permissions, word)

	wt := WordType{
		Effects:     thenWT.Effects,
		Permissions: thenWT.Permissions,
		Totality:    andAttr(thenWT.Totality, elseWT.Totality),
		Ins:         prependStack([]typesystem.Type{scrut}, inner),
		Outs:        thenWT.Outs,
	}
	return []TWord{TCase{Label: word.Label, Then: thenWords, Else: elseWords}}, wt, nil
}

func (ctx *InferenceContext) inferWithPermission(env *symbols.Table, word ast.WithPermission) ([]TWord, WordType, error) {
	bodyWords, bodyWT, err := ctx.inferExpr(env, word.Body)
	if err != nil {
		return nil, WordType{}, err
	}
	rest := ctx.Fresh.Fresh(typesystem.KRow{Inner: typesystem.Permission})
	row := typesystem.Type(rest)
	for i := len(word.Names) - 1; i >= 0; i-- {
		row = typesystem.TRowExtend{
			Label: word.Names[i],
			Elem:  typesystem.TCon{Name: word.Names[i], KindVal: typesystem.Permission},
			Rest:  row,
		}
	}
	ctx.unify(bodyWT.Permissions, row, word)

	wt := WordType{
		Effects:     bodyWT.Effects,
		Permissions: rest,
		Totality:    bodyWT.Totality,
		Ins:         bodyWT.Ins,
		Outs:        bodyWT.Outs,
	}
	return []TWord{TWithPermission{Names: word.Names, Body: bodyWords}}, wt, nil
}

func (ctx *InferenceContext) inferDo(word ast.Do) ([]TWord, WordType, error) {
	inner, _ := ctx.freshStack()
	outs, _ := ctx.freshStack()
	eff := ctx.Fresh.Fresh(typesystem.KRow{Inner: typesystem.Effect})
	perm := ctx.Fresh.Fresh(typesystem.KRow{Inner: typesystem.Permission})
	tot := ctx.Fresh.Fresh(typesystem.Totality)
	fn := typesystem.MkFn(eff, perm, tot, inner, outs)
	fnVal := typesystem.MkValue(fn, ctx.Fresh.Fresh(typesystem.Sharing))

	wt := WordType{
		Effects:     eff,
		Permissions: perm,
		Totality:    tot,
		Ins:         prependStack([]typesystem.Type{fnVal}, inner),
		Outs:        outs,
	}
	return []TWord{TDo{}}, wt, nil
}

// prependStack puts values (top first) on top of a stack type.
func prependStack(tops []typesystem.Type, stack typesystem.Type) typesystem.Type {
	elems := make([]typesystem.SeqElem, 0, len(tops)+1)
	for _, t := range tops {
		elems = append(elems, typesystem.SeqElem{Type: t})
	}
	if seq, ok := stack.(typesystem.TSeq); ok {
		elems = append(elems, seq.Elems...)
	} else {
		elems = append(elems, typesystem.SeqElem{Type: stack, Dotted: true})
	}
	return typesystem.TSeq{Elems: elems, KindVal: typesystem.KSeq{Inner: typesystem.Value}}
}
