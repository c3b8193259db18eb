// Package pipeline chains the middle-end stages: inference and
// elaboration, core lowering, and bytecode generation. Each stage is a
// Processor over a shared Context; a stage that records errors stops
// later stages from consuming a missing artifact.
package pipeline

import (
	"github.com/stavelang/stave/internal/analyzer"
	"github.com/stavelang/stave/internal/ast"
	"github.com/stavelang/stave/internal/core"
	"github.com/stavelang/stave/internal/diagnostics"
	"github.com/stavelang/stave/internal/manifest"
	"github.com/stavelang/stave/internal/vm"
)

// Context carries the artifacts between stages.
type Context struct {
	Program  *ast.Program
	Manifest *manifest.Manifest

	Typed  *analyzer.TypedProgram
	Core   *core.Program
	Blocks []vm.Block

	Errors []*diagnostics.DiagnosticError
}

// Processor is one pipeline stage.
type Processor interface {
	Process(ctx *Context) *Context
}

// Pipeline is a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the stages in order.
func (p *Pipeline) Run(ctx *Context) *Context {
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
	}
	return ctx
}

// Compile is the façade the driver calls: it runs the full middle end
// over a renamed program and returns the ordered block list. Output is
// deterministic, including generated block names.
func Compile(program *ast.Program, m *manifest.Manifest) ([]vm.Block, []*diagnostics.DiagnosticError) {
	ctx := &Context{Program: program, Manifest: m}
	ctx = New(
		&AnalyzeProcessor{},
		&LowerProcessor{},
		&GenerateProcessor{},
	).Run(ctx)
	if len(ctx.Errors) > 0 {
		return nil, ctx.Errors
	}
	return ctx.Blocks, nil
}
