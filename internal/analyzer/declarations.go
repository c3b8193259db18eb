package analyzer

import (
	"github.com/stavelang/stave/internal/ast"
	"github.com/stavelang/stave/internal/chr"
	"github.com/stavelang/stave/internal/config"
	"github.com/stavelang/stave/internal/diagnostics"
	"github.com/stavelang/stave/internal/symbols"
	"github.com/stavelang/stave/internal/typesystem"
)

func (a *Analyzer) analyzeDecl(d ast.Decl) *diagnostics.DiagnosticError {
	switch decl := d.(type) {
	case ast.FuncDecl:
		return a.analyzeFunc(decl)
	case ast.RecFuncsDecl:
		return a.analyzeRecFuncs(decl)
	case ast.TypeDecl:
		return a.analyzeType(decl)
	case ast.RecTypesDecl:
		for _, t := range decl.Types {
			if err := a.analyzeType(t); err != nil {
				return err
			}
		}
		return nil
	case ast.PatternDecl:
		return a.analyzePattern(decl)
	case ast.OverloadDecl:
		a.table.DefineWord(decl.Name, symbols.OverloadEntry{
			Predicate: decl.Predicate,
			Base:      decl.Base,
		})
		return nil
	case ast.InstanceDecl:
		return a.analyzeInstance(decl)
	case ast.EffectDecl:
		return a.analyzeEffect(decl)
	case ast.PropagationRuleDecl:
		kind := chr.Propagation
		if decl.Simplify {
			kind = chr.Simplification
		}
		a.table.DefineRule(chr.Rule{
			Name:  decl.Name,
			Kind:  kind,
			Heads: decl.Heads,
			Body:  decl.Body,
		})
		return nil
	case ast.TagDecl:
		a.table.DefineUnit(decl.UnitName)
		return nil
	case ast.CheckDecl:
		return a.analyzeCheck(decl)
	case ast.TestDecl, ast.LawDecl:
		// Consumed by the test-mode generator, not by compilation.
		return nil
	default:
		return diagnostics.NewError(diagnostics.ErrT005, d.Pos(), "unsupported declaration %T", d)
	}
}

func (a *Analyzer) analyzeFunc(decl ast.FuncDecl) *diagnostics.DiagnosticError {
	words, scheme, ctx, derr := InferTop(a.table, a.fresh, decl.Body, decl)
	if derr != nil {
		return derr
	}
	elaborated, derr := a.elaborateDef(words, scheme, ctx, decl)
	if derr != nil {
		return derr
	}
	a.table.DefineWord(decl.Name, symbols.FunctionEntry{Scheme: scheme})
	a.out.Funcs = append(a.out.Funcs, TypedFunc{Name: decl.Name, Words: elaborated, Scheme: scheme})
	return nil
}

// analyzeRecFuncs infers a mutually recursive group: each member first
// gets a fresh monomorphic transform type; the group is inferred and
// solved together, then generalized.
func (a *Analyzer) analyzeRecFuncs(decl ast.RecFuncsDecl) *diagnostics.DiagnosticError {
	ctx := NewInferenceContext(a.fresh)
	recEnv := a.table.Extend()

	heads := make([]typesystem.Type, len(decl.Funcs))
	for i, f := range decl.Funcs {
		heads[i] = ctx.freshWord().FnData()
		recEnv.DefineWord(f.Name, symbols.RecursiveEntry{Scheme: typesystem.MonoScheme(heads[i])})
	}

	bodies := make([][]TWord, len(decl.Funcs))
	for i, f := range decl.Funcs {
		words, wt, err := ctx.inferExpr(recEnv, f.Body)
		if err != nil {
			return asDiagnostic(err, f)
		}
		ctx.unify(wt.FnData(), heads[i], f)
		bodies[i] = words
	}

	residual, derr := ctx.Solve(a.table, decl)
	if derr != nil {
		return derr
	}

	envFree := a.table.FreeTypeVariables()
	for i, f := range decl.Funcs {
		head := heads[i].Apply(ctx.GlobalSubst)
		if derr := checkAmbiguity(residual, head, f); derr != nil {
			return derr
		}
		scheme := typesystem.Generalize(typesystem.Qual{Context: residual, Head: head}, envFree)
		elaborated, derr := a.elaborateDef(bodies[i], scheme, ctx, f)
		if derr != nil {
			return derr
		}
		a.table.DefineWord(f.Name, symbols.FunctionEntry{Scheme: scheme})
		a.out.Funcs = append(a.out.Funcs, TypedFunc{Name: f.Name, Words: elaborated, Scheme: scheme})
	}
	return nil
}

func (a *Analyzer) elaborateDef(words []TWord, scheme typesystem.Scheme, ctx *InferenceContext, node ast.Node) ([]TWord, *diagnostics.DiagnosticError) {
	elab := NewElaborator(a.table, ctx.GlobalSubst, a.fresh, scheme.Qual.Context)
	elaborated, derr := elab.Run(words, node)
	if derr != nil {
		return nil, derr
	}
	if len(elab.DictParams) > 0 {
		elaborated = []TWord{TVars{Bindings: elab.DictNames, Body: elaborated}}
	}
	return elaborated, nil
}

func (a *Analyzer) analyzeType(decl ast.TypeDecl) *diagnostics.DiagnosticError {
	a.table.DefineTypeCtor(decl.Name, decl.Kind)
	for _, c := range decl.Ctors {
		id := a.nextCtorId
		a.nextCtorId++
		a.table.DefineWord(c.Name, symbols.ConstructorEntry{
			ValueScheme:   ctorValueScheme(c),
			PatternScheme: ctorPatternScheme(c),
			Id:            id,
			Args:          len(c.Args),
		})
	}
	return nil
}

// ctorValueScheme types a constructor use as a word: it pops the field
// values and pushes the constructed value, whose sharing is the join of
// the fields'.
func ctorValueScheme(c ast.CtorDef) typesystem.Scheme {
	join := unsharedAttr()
	for _, arg := range c.Args {
		if parts, ok := typesystem.MatchValue(arg); ok {
			join = orAttr(join, parts.Sharing)
		}
	}
	head := primHead(c.Args, []typesystem.Type{typesystem.MkValue(c.Result, join)}, true, nil)
	return schemeOf(head)
}

// ctorPatternScheme types a constructor match: it consumes the
// constructed value and produces the field values.
func ctorPatternScheme(c ast.CtorDef) typesystem.Scheme {
	join := unsharedAttr()
	for _, arg := range c.Args {
		if parts, ok := typesystem.MatchValue(arg); ok {
			join = orAttr(join, parts.Sharing)
		}
	}
	head := primHead([]typesystem.Type{typesystem.MkValue(c.Result, join)}, c.Args, true, nil)
	return schemeOf(head)
}

func (a *Analyzer) analyzePattern(decl ast.PatternDecl) *diagnostics.DiagnosticError {
	ctor, ok := decl.Pattern.(ast.PCtor)
	if !ok {
		return diagnostics.NewError(diagnostics.ErrT005, decl.Position,
			"pattern synonym `%s` must name a constructor", decl.Name)
	}
	underlying := ctor.Name
	if resolved, ok := a.patternAliases[underlying]; ok {
		underlying = resolved
	}
	entry, found := a.table.LookupWord(underlying)
	if !found {
		return diagnostics.NewError(diagnostics.ErrT001, decl.Position,
			"unbound constructor `%s`", underlying)
	}
	ctorEntry, isCtor := entry.(symbols.ConstructorEntry)
	if !isCtor {
		return diagnostics.NewError(diagnostics.ErrT005, decl.Position,
			"`%s` is not a constructor", underlying)
	}
	a.patternAliases[decl.Name] = underlying
	a.table.DefinePattern(decl.Name, ctorEntry.PatternScheme)
	// The synonym resolves to the underlying constructor everywhere,
	// including the code generator's constructor table.
	a.table.DefineWord(decl.Name, ctorEntry)
	return nil
}

func (a *Analyzer) analyzeInstance(decl ast.InstanceDecl) *diagnostics.DiagnosticError {
	entry, found := a.table.LookupWord(decl.Overload)
	if !found {
		return diagnostics.NewError(diagnostics.ErrT001, decl.Position,
			"unbound overload `%s`", decl.Overload)
	}
	overload, isOverload := entry.(symbols.OverloadEntry)
	if !isOverload {
		return diagnostics.NewError(diagnostics.ErrT005, decl.Position,
			"`%s` is not an overload", decl.Overload)
	}

	funcName := a.fresh.FreshName(config.InstancePrefix)
	words, scheme, ctx, derr := InferTop(a.table, a.fresh, decl.Body, decl)
	if derr != nil {
		return derr
	}
	elaborated, derr := a.elaborateDef(words, scheme, ctx, decl)
	if derr != nil {
		return derr
	}

	overload.Instances = append(overload.Instances, symbols.Instance{
		Scheme:   decl.Type,
		FuncName: funcName,
	})
	a.table.DefineWord(decl.Overload, overload)
	a.out.Funcs = append(a.out.Funcs, TypedFunc{Name: funcName, Words: elaborated, Scheme: scheme})
	return nil
}

func (a *Analyzer) analyzeEffect(decl ast.EffectDecl) *diagnostics.DiagnosticError {
	handleId := a.nextHandleId
	a.nextHandleId++
	a.table.DefineTypeCtor(decl.Name, effectKind(len(decl.Params)))
	for i, op := range decl.Ops {
		a.table.DefineWord(op.Name, symbols.OperatorEntry{
			Scheme:   op.Scheme,
			Effect:   decl.Name,
			HandleId: handleId,
			Index:    i,
		})
	}
	return nil
}

func effectKind(params int) typesystem.Kind {
	kind := typesystem.Effect
	for i := 0; i < params; i++ {
		kind = typesystem.KArrow{Left: typesystem.Value, Right: kind}
	}
	return kind
}

func (a *Analyzer) analyzeCheck(decl ast.CheckDecl) *diagnostics.DiagnosticError {
	entry, found := a.table.LookupWord(decl.Name)
	if !found {
		return diagnostics.NewError(diagnostics.ErrT001, decl.Position, "unbound name `%s`", decl.Name)
	}
	scheme, ok := symbols.EntryScheme(entry)
	if !ok {
		return diagnostics.NewError(diagnostics.ErrT005, decl.Position, "`%s` has no scheme", decl.Name)
	}
	ctx := NewInferenceContext(a.fresh)
	inferred := scheme.Instantiate(ctx.Fresh)
	declared := decl.Type.Instantiate(ctx.Fresh)
	ctx.unify(inferred.Head, declared.Head, decl)
	if _, derr := ctx.Solve(a.table, decl); derr != nil {
		return diagnostics.NewError(diagnostics.ErrT005, decl.Position,
			"`%s` does not have the ascribed type %s: %s", decl.Name, decl.Type, derr.Message)
	}
	return nil
}

func asDiagnostic(err error, node ast.Node) *diagnostics.DiagnosticError {
	if derr, ok := err.(*diagnostics.DiagnosticError); ok {
		return derr
	}
	return diagnostics.Wrap(diagnostics.ErrT005, node.Pos(), err)
}
