package ast

// The parser and renamer live outside this module. They deliver a
// Program whose names are already uniquified and whose declarations are
// kind-annotated. Source positions are attached to every node and pass
// through the core unmodified.

import "fmt"

// Pos is a source position attached by the external parser.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Node is anything carrying a source position.
type Node interface {
	Pos() Pos
}

// Program is the compilation unit handed to the core.
type Program struct {
	Decls []Decl
	Main  Expr
}

// Expr is a concatenative expression: a sequence of stack-transforming
// words whose types compose under stack polymorphism.
type Expr []Word

// Word is one element of a concatenative expression.
type Word interface {
	Node
	word()
}

// Pattern matches a stack value in let bindings and case analysis.
type Pattern interface {
	Node
	pattern()
}

// PVar binds a value to a name.
type PVar struct {
	Name     string
	Position Pos
}

// PWild matches anything without binding.
type PWild struct {
	Position Pos
}

// PCtor matches a declared constructor and its arguments.
type PCtor struct {
	Name     string
	Args     []Pattern
	Position Pos
}

func (p PVar) Pos() Pos  { return p.Position }
func (p PWild) Pos() Pos { return p.Position }
func (p PCtor) Pos() Pos { return p.Position }

func (PVar) pattern()  {}
func (PWild) pattern() {}
func (PCtor) pattern() {}
