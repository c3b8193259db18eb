package ast

import "github.com/stavelang/stave/internal/typesystem"

// Decl is a top-level declaration. The renamer has already uniquified
// names and the kind inferencer has annotated type-level entities.
type Decl interface {
	Node
	decl()
}

// FuncDecl defines a word.
type FuncDecl struct {
	Name     string
	Body     Expr
	Position Pos
}

// RecFuncsDecl groups mutually recursive words.
type RecFuncsDecl struct {
	Funcs    []FuncDecl
	Position Pos
}

// CtorDef declares one constructor of a data type. Args are the value
// types of the constructor fields; Result is the constructed data type.
type CtorDef struct {
	Name   string
	Args   []typesystem.Type
	Result typesystem.Type
}

// TypeDecl declares a data type and its constructors.
type TypeDecl struct {
	Name     string
	Kind     typesystem.Kind
	Ctors    []CtorDef
	Position Pos
}

// RecTypesDecl groups mutually recursive data types.
type RecTypesDecl struct {
	Types    []TypeDecl
	Position Pos
}

// PatternDecl declares a named pattern synonym.
type PatternDecl struct {
	Name     string
	Params   []string
	Pattern  Pattern
	Position Pos
}

// OverloadDecl declares an overloaded word: a predicate name, the base
// scheme each instance must match, and the declared instances.
type OverloadDecl struct {
	Name      string
	Predicate string
	Base      typesystem.Scheme
	Instances []string
	Position  Pos
}

// InstanceDecl provides one instance of an overloaded word.
type InstanceDecl struct {
	Name     string
	Overload string
	Type     typesystem.Scheme
	Body     Expr
	Position Pos
}

// EffectOp declares one operation of an effect.
type EffectOp struct {
	Name   string
	Scheme typesystem.Scheme
}

// EffectDecl declares an algebraic effect and its operations.
type EffectDecl struct {
	Name     string
	Params   []string
	Ops      []EffectOp
	Position Pos
}

// PropagationRuleDecl declares a user CHR rule over predicates.
type PropagationRuleDecl struct {
	Name     string
	Simplify bool
	Heads    []typesystem.Pred
	Body     []typesystem.Pred
	Position Pos
}

// TestDecl and LawDecl pass through the core untouched; the test-mode
// generator consumes them.
type TestDecl struct {
	Name     string
	Body     Expr
	Position Pos
}

type LawDecl struct {
	Name     string
	Body     Expr
	Position Pos
}

// CheckDecl asserts that a word has the ascribed scheme.
type CheckDecl struct {
	Name     string
	Type     typesystem.Scheme
	Position Pos
}

// TagDecl attaches a unit-of-measure constant to a type name.
type TagDecl struct {
	TypeName string
	UnitName string
	Position Pos
}

func (d FuncDecl) Pos() Pos            { return d.Position }
func (d RecFuncsDecl) Pos() Pos        { return d.Position }
func (d TypeDecl) Pos() Pos            { return d.Position }
func (d RecTypesDecl) Pos() Pos        { return d.Position }
func (d PatternDecl) Pos() Pos         { return d.Position }
func (d OverloadDecl) Pos() Pos        { return d.Position }
func (d InstanceDecl) Pos() Pos        { return d.Position }
func (d EffectDecl) Pos() Pos          { return d.Position }
func (d PropagationRuleDecl) Pos() Pos { return d.Position }
func (d TestDecl) Pos() Pos            { return d.Position }
func (d LawDecl) Pos() Pos             { return d.Position }
func (d CheckDecl) Pos() Pos           { return d.Position }
func (d TagDecl) Pos() Pos             { return d.Position }

func (FuncDecl) decl()            {}
func (RecFuncsDecl) decl()        {}
func (TypeDecl) decl()            {}
func (RecTypesDecl) decl()        {}
func (PatternDecl) decl()         {}
func (OverloadDecl) decl()        {}
func (InstanceDecl) decl()        {}
func (EffectDecl) decl()          {}
func (PropagationRuleDecl) decl() {}
func (TestDecl) decl()            {}
func (LawDecl) decl()             {}
func (CheckDecl) decl()           {}
func (TagDecl) decl()             {}
