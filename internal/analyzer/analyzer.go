package analyzer

import (
	"github.com/stavelang/stave/internal/ast"
	"github.com/stavelang/stave/internal/diagnostics"
	"github.com/stavelang/stave/internal/symbols"
	"github.com/stavelang/stave/internal/typesystem"
)

// TypedFunc is one fully inferred and elaborated word definition ready
// for lowering.
type TypedFunc struct {
	Name   string
	Words  []TWord
	Scheme typesystem.Scheme
}

// TypedProgram is the analyzer's output: the elaborated definitions in
// emission order, the elaborated main expression, and the environment
// (carrying constructor ids and handler indices) for the code
// generator.
type TypedProgram struct {
	Funcs      []TypedFunc
	Main       []TWord
	MainScheme typesystem.Scheme
	Table      *symbols.Table
}

// Analyzer drives inference and elaboration over a whole program.
type Analyzer struct {
	table          *symbols.Table
	fresh          *typesystem.FreshSource
	nextHandleId   int
	nextCtorId     int
	patternAliases map[string]string
	errors         []*diagnostics.DiagnosticError
	out            *TypedProgram
}

// New returns an analyzer over a fresh environment with the builtin
// primitives registered.
func New() *Analyzer {
	table := symbols.NewTable()
	RegisterBuiltins(table)
	return &Analyzer{
		table:          table.Extend(),
		fresh:          typesystem.NewFreshSource(),
		patternAliases: map[string]string{},
		out:            &TypedProgram{},
	}
}

// Table exposes the analyzer's environment so the driver can register
// manifest-declared unit constants before analysis.
func (a *Analyzer) Table() *symbols.Table {
	return a.table
}

// Analyze processes every declaration in order, then main. The first
// error aborts: the core is fail-fast and never returns partial
// results.
func (a *Analyzer) Analyze(p *ast.Program) (*TypedProgram, []*diagnostics.DiagnosticError) {
	for _, d := range p.Decls {
		if err := a.analyzeDecl(d); err != nil {
			a.errors = append(a.errors, err)
			return nil, a.errors
		}
	}
	if err := a.analyzeMain(p.Main); err != nil {
		a.errors = append(a.errors, err)
		return nil, a.errors
	}
	a.out.Table = a.table
	return a.out, nil
}

func (a *Analyzer) analyzeMain(main ast.Expr) *diagnostics.DiagnosticError {
	node := mainNode(main)
	words, scheme, ctx, derr := InferTop(a.table, a.fresh, main, node)
	if derr != nil {
		return derr
	}
	if derr := checkMainSignature(scheme, node); derr != nil {
		return derr
	}

	// Main receives no dictionaries from its caller; every residual
	// predicate must resolve to a concrete instance.
	elab := NewElaborator(a.table, ctx.GlobalSubst, a.fresh, nil)
	elaborated, derr := elab.Run(words, node)
	if derr != nil {
		return derr
	}
	a.out.Main = elaborated
	a.out.MainScheme = scheme
	return nil
}

// checkMainSignature requires main to leave exactly one sized integer
// on the stack: the program's exit value.
func checkMainSignature(scheme typesystem.Scheme, node ast.Node) *diagnostics.DiagnosticError {
	wt, ok := WordTypeFromFn(scheme.Qual.Head)
	if !ok {
		return diagnostics.NewError(diagnostics.ErrT004, node.Pos(),
			"main is not a word: %s", scheme.Qual.Head)
	}
	outs, rest, ok := topValues(wt.Outs, 1)
	if ok {
		if seq, isSeq := rest.(typesystem.TSeq); isSeq && len(seq.Elems) > 0 && !seq.Elems[0].Dotted {
			ok = false
		}
	}
	if !ok {
		return diagnostics.NewError(diagnostics.ErrT004, node.Pos(),
			"main must yield one value, got %s", wt.Outs)
	}
	parts, ok := typesystem.MatchValue(outs[0])
	if !ok {
		return diagnostics.NewError(diagnostics.ErrT004, node.Pos(),
			"main result %s is not a value", outs[0])
	}
	if _, _, isInt := typesystem.MatchInt(parts.Data); !isInt {
		return diagnostics.NewError(diagnostics.ErrT004, node.Pos(),
			"main must yield an integer convertible to i32, got %s", parts.Data)
	}
	return nil
}

func mainNode(main ast.Expr) ast.Node {
	if len(main) > 0 {
		return main[0]
	}
	return ast.Ident{Name: "main"}
}
