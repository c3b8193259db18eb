package analyzer

import (
	"errors"

	"github.com/stavelang/stave/internal/ast"
	"github.com/stavelang/stave/internal/chr"
	"github.com/stavelang/stave/internal/diagnostics"
	"github.com/stavelang/stave/internal/symbols"
	"github.com/stavelang/stave/internal/typesystem"
)

// Solve discharges the deferred constraints left to right, runs the
// heap-escape checks, then reduces the collected predicates with the
// CHR solver. The residual context is returned for generalization.
func (ctx *InferenceContext) Solve(env *symbols.Table, node ast.Node) ([]typesystem.Pred, *diagnostics.DiagnosticError) {
	unifier := typesystem.NewUnifier(ctx.Fresh)

	for _, c := range ctx.Constraints {
		sub, err := unifier.Unify(c.Left.Apply(ctx.GlobalSubst), c.Right.Apply(ctx.GlobalSubst))
		if err != nil {
			return nil, unifyDiagnostic(err, c.Node)
		}
		ctx.GlobalSubst = sub.Compose(ctx.GlobalSubst)
	}

	if derr := ctx.checkHeapEscapes(); derr != nil {
		return nil, derr
	}

	// Reduce the qualifier set to normal form.
	preds := make([]typesystem.Pred, len(ctx.Preds))
	for i, p := range ctx.Preds {
		preds[i] = p.Apply(ctx.GlobalSubst)
	}
	solutions := chr.Solve(preds, env.Rules())
	if len(solutions) > 1 {
		return nil, diagnostics.NewError(diagnostics.ErrC001, node.Pos(),
			"non-confluent context: %d distinct normal forms", len(solutions))
	}
	residual := preds
	if len(solutions) == 1 {
		ctx.GlobalSubst = solutions[0].Subst.Compose(ctx.GlobalSubst)
		residual = make([]typesystem.Pred, len(solutions[0].Residual))
		for i, p := range solutions[0].Residual {
			residual[i] = p.Apply(ctx.GlobalSubst)
		}
	}
	return residual, nil
}

func unifyDiagnostic(err error, node ast.Node) *diagnostics.DiagnosticError {
	pos := node.Pos()
	var km *typesystem.KindMismatchError
	var rr *typesystem.RigidRigidMismatchError
	var oc *typesystem.OccursCheckError
	switch {
	case errors.As(err, &km):
		return diagnostics.Wrap(diagnostics.ErrK001, pos, err)
	case errors.As(err, &rr):
		return diagnostics.Wrap(diagnostics.ErrU001, pos, err)
	case errors.As(err, &oc):
		return diagnostics.Wrap(diagnostics.ErrU002, pos, err)
	default:
		return diagnostics.Wrap(diagnostics.ErrT005, pos, err)
	}
}

// checkHeapEscapes verifies each with-state heap variable stayed local:
// after solving it must not occur among the free variables of the
// enclosing environment.
func (ctx *InferenceContext) checkHeapEscapes() *diagnostics.DiagnosticError {
	for _, hc := range ctx.heapChecks {
		resolved := typesystem.Type(hc.heap).Apply(ctx.GlobalSubst)
		heapVar, isVar := resolved.(typesystem.TVar)
		if !isVar {
			continue
		}
		for _, boundary := range []typesystem.Type{hc.ins, hc.outs} {
			for _, v := range boundary.Apply(ctx.GlobalSubst).FreeTypeVariables() {
				if v.Name == heapVar.Name {
					return diagnostics.NewError(diagnostics.ErrT003, hc.node.Pos(),
						"heap `%s` escapes its with-state scope", heapVar.Name)
				}
			}
		}
		for name := range hc.env.FreeTypeVariables() {
			outer := typesystem.TVar{Name: name, KindVal: typesystem.Heap}.Apply(ctx.GlobalSubst)
			for _, v := range outer.FreeTypeVariables() {
				if v.Name == heapVar.Name {
					return diagnostics.NewError(diagnostics.ErrT003, hc.node.Pos(),
						"heap `%s` escapes its with-state scope", heapVar.Name)
				}
			}
		}
	}
	return nil
}

// InferTop runs inference over one top-level expression, solves, checks
// ambiguity and generalizes.
func InferTop(env *symbols.Table, fresh *typesystem.FreshSource, expr ast.Expr, node ast.Node) ([]TWord, typesystem.Scheme, *InferenceContext, *diagnostics.DiagnosticError) {
	ctx := NewInferenceContext(fresh)
	words, wt, err := ctx.inferExpr(env, expr)
	if err != nil {
		var derr *diagnostics.DiagnosticError
		if !errors.As(err, &derr) {
			derr = diagnostics.Wrap(diagnostics.ErrT005, node.Pos(), err)
		}
		return nil, typesystem.Scheme{}, ctx, derr
	}

	residual, derr := ctx.Solve(env, node)
	if derr != nil {
		return nil, typesystem.Scheme{}, ctx, derr
	}

	head := wt.Apply(ctx.GlobalSubst).FnData()
	if derr := checkAmbiguity(residual, head, node); derr != nil {
		return nil, typesystem.Scheme{}, ctx, derr
	}

	scheme := typesystem.Generalize(
		typesystem.Qual{Context: residual, Head: head},
		env.FreeTypeVariables(),
	)
	return words, scheme, ctx, nil
}

// checkAmbiguity rejects residual predicates mentioning variables that
// do not appear in the head: no use site could ever determine them.
func checkAmbiguity(context []typesystem.Pred, head typesystem.Type, node ast.Node) *diagnostics.DiagnosticError {
	headVars := map[string]bool{}
	for _, v := range head.FreeTypeVariables() {
		headVars[v.Name] = true
	}
	for _, p := range context {
		for _, v := range p.FreeTypeVariables() {
			// Attribute and measure variables never drive instance
			// selection; only structural variables can be ambiguous.
			if sort := v.Kind().Sort(); sort == typesystem.Boolean || sort == typesystem.Abelian {
				continue
			}
			if !headVars[v.Name] {
				return diagnostics.NewError(diagnostics.ErrT002, node.Pos(),
					"ambiguous overload: `%s` constrains `%s` which the type does not mention", p, v.Name)
			}
		}
	}
	return nil
}
