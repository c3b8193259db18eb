package ast

import "github.com/stavelang/stave/internal/typesystem"

// Word variants. Every word denotes a stack transformation; composition
// is juxtaposition.

// IntLit pushes a sized integer immediate. Digits are kept as written so
// the bytecode generator can emit the exact immediate.
type IntLit struct {
	Digits   string
	Size     typesystem.IntSize
	Position Pos
}

// FloatLit pushes a floating point immediate.
type FloatLit struct {
	Digits   string
	Size     typesystem.FloatSize
	Position Pos
}

// BoolLit pushes a boolean.
type BoolLit struct {
	Value    bool
	Position Pos
}

// StringLit pushes a string.
type StringLit struct {
	Value    string
	Position Pos
}

// Ident references a word, an overload, a constructor or a primitive by
// its renamed name.
type Ident struct {
	Name     string
	Position Pos
}

// Let binds pattern variables for the remainder of a Block.
type Let struct {
	Pat   Pattern
	Value Expr
}

// Block is a statement block: a chain of lets over a final body.
type Block struct {
	Lets     []Let
	Body     Expr
	Position Pos
}

// If consumes a boolean from the stack and runs one of two branches.
type If struct {
	Then     Expr
	Else     Expr
	Position Pos
}

// While runs body as long as cond pushes true.
type While struct {
	Cond     Expr
	Body     Expr
	Position Pos
}

// FunLit pushes a function value closing over its free variables.
type FunLit struct {
	Body     Expr
	Position Pos
}

// HandlerClause binds one effect operation inside a Handle.
type HandlerClause struct {
	Name     string
	Params   []string
	Body     Expr
	Position Pos
}

// Handle installs effect handlers around a body. Params are stack values
// consumed before the block; Ret is the return clause applied when the
// body completes normally.
type Handle struct {
	Params   []string
	Body     Expr
	Handlers []HandlerClause
	Ret      Expr
	Position Pos
}

// RefNew, RefGet and RefPut manipulate reference cells in a heap region.
type RefNew struct{ Position Pos }
type RefGet struct{ Position Pos }
type RefPut struct{ Position Pos }

// WithState scopes a heap region over a body, discharging its State
// effect.
type WithState struct {
	Body     Expr
	Position Pos
}

// Untag, By and Per manipulate the unit-of-measure component of the top
// value by multiplying or dividing by a declared unit constant.
type Untag struct {
	UnitName string
	Position Pos
}

type By struct {
	UnitName string
	Position Pos
}

type Per struct {
	UnitName string
	Position Pos
}

// RecordExtend, RecordSelect and RecordRestrict are the Leijen-style
// record operations adapted to stacks.
type RecordExtend struct {
	Label    string
	Position Pos
}

type RecordSelect struct {
	Label    string
	Position Pos
}

type RecordRestrict struct {
	Label    string
	Position Pos
}

// VariantLit injects the top value into a variant at the given label.
type VariantLit struct {
	Label    string
	Position Pos
}

// Case scrutinizes a variant: Then runs with the payload on the stack
// when the tag matches, Else runs with the narrowed variant otherwise.
type Case struct {
	Label    string
	Then     Expr
	Else     Expr
	Position Pos
}

// WithPermission grants named permissions to the body.
type WithPermission struct {
	Names    []string
	Body     Expr
	Position Pos
}

// Do invokes the function value on top of the stack.
type Do struct{ Position Pos }

func (w IntLit) Pos() Pos         { return w.Position }
func (w FloatLit) Pos() Pos       { return w.Position }
func (w BoolLit) Pos() Pos        { return w.Position }
func (w StringLit) Pos() Pos      { return w.Position }
func (w Ident) Pos() Pos          { return w.Position }
func (w Block) Pos() Pos          { return w.Position }
func (w If) Pos() Pos             { return w.Position }
func (w While) Pos() Pos          { return w.Position }
func (w FunLit) Pos() Pos         { return w.Position }
func (w Handle) Pos() Pos         { return w.Position }
func (h HandlerClause) Pos() Pos  { return h.Position }
func (w RefNew) Pos() Pos         { return w.Position }
func (w RefGet) Pos() Pos         { return w.Position }
func (w RefPut) Pos() Pos         { return w.Position }
func (w WithState) Pos() Pos      { return w.Position }
func (w Untag) Pos() Pos          { return w.Position }
func (w By) Pos() Pos             { return w.Position }
func (w Per) Pos() Pos            { return w.Position }
func (w RecordExtend) Pos() Pos   { return w.Position }
func (w RecordSelect) Pos() Pos   { return w.Position }
func (w RecordRestrict) Pos() Pos { return w.Position }
func (w VariantLit) Pos() Pos     { return w.Position }
func (w Case) Pos() Pos           { return w.Position }
func (w WithPermission) Pos() Pos { return w.Position }
func (w Do) Pos() Pos             { return w.Position }

func (IntLit) word()         {}
func (FloatLit) word()       {}
func (BoolLit) word()        {}
func (StringLit) word()      {}
func (Ident) word()          {}
func (Block) word()          {}
func (If) word()             {}
func (While) word()          {}
func (FunLit) word()         {}
func (Handle) word()         {}
func (RefNew) word()         {}
func (RefGet) word()         {}
func (RefPut) word()         {}
func (WithState) word()      {}
func (Untag) word()          {}
func (By) word()             {}
func (Per) word()            {}
func (RecordExtend) word()   {}
func (RecordSelect) word()   {}
func (RecordRestrict) word() {}
func (VariantLit) word()     {}
func (Case) word()           {}
func (WithPermission) word() {}
func (Do) word()             {}
