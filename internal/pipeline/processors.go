package pipeline

import (
	"github.com/stavelang/stave/internal/analyzer"
	"github.com/stavelang/stave/internal/ast"
	"github.com/stavelang/stave/internal/core"
	"github.com/stavelang/stave/internal/diagnostics"
	"github.com/stavelang/stave/internal/vm"
)

// AnalyzeProcessor runs inference and elaboration. Manifest-declared
// unit constants are registered before any declaration is processed.
type AnalyzeProcessor struct{}

func (p *AnalyzeProcessor) Process(ctx *Context) *Context {
	if ctx.Program == nil {
		ctx.Errors = append(ctx.Errors, diagnostics.NewError(
			diagnostics.ErrT005, ast.Pos{}, "no program to compile"))
		return ctx
	}
	a := analyzer.New()
	if ctx.Manifest != nil {
		for _, u := range ctx.Manifest.Units {
			a.Table().DefineUnit(u.Name)
		}
	}
	typed, errs := a.Analyze(ctx.Program)
	if len(errs) > 0 {
		ctx.Errors = append(ctx.Errors, errs...)
		return ctx
	}
	ctx.Typed = typed
	return ctx
}

// LowerProcessor translates the elaborated tree to the core IR.
type LowerProcessor struct{}

func (p *LowerProcessor) Process(ctx *Context) *Context {
	if ctx.Typed == nil || len(ctx.Errors) > 0 {
		return ctx
	}
	ctx.Core = core.Lower(ctx.Typed)
	return ctx
}

// GenerateProcessor emits the bytecode block list.
type GenerateProcessor struct{}

func (p *GenerateProcessor) Process(ctx *Context) *Context {
	if ctx.Core == nil || len(ctx.Errors) > 0 {
		return ctx
	}
	blocks, err := vm.Generate(ctx.Core, ctx.Typed.Table)
	if err != nil {
		ctx.Errors = append(ctx.Errors, diagnostics.Wrap(
			diagnostics.ErrG001, ast.Pos{}, err))
		return ctx
	}
	ctx.Blocks = blocks
	return ctx
}
