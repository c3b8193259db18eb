// Package core defines the closure-free intermediate representation:
// no scheme information survives, identifiers are classified, and every
// closure carries an explicit, ordered free-variable list.
package core

import "github.com/stavelang/stave/internal/typesystem"

// Word is one IR instruction-tree node.
type Word interface {
	word()
}

// WInteger pushes a sized integer immediate.
type WInteger struct {
	Digits string
	Size   typesystem.IntSize
}

// WFloat pushes a float immediate.
type WFloat struct {
	Digits string
	Size   typesystem.FloatSize
}

// WBool pushes a boolean constant.
type WBool struct {
	Value bool
}

// WString pushes a string constant.
type WString struct {
	Value string
}

// WCallVar calls a word: a local closure or continuation when bound in
// the frame stack, otherwise a labeled block.
type WCallVar struct {
	Name string
}

// WValueVar pushes a stored value.
type WValueVar struct {
	Name string
}

// WOperatorVar escapes to the enclosing handler of an effect operation.
type WOperatorVar struct {
	Name string
}

// WConstructorVar builds a structure.
type WConstructorVar struct {
	Name string
}

// WTestConstructorVar tests the tag of the structure on top.
type WTestConstructorVar struct {
	Name string
}

// WDestruct unpacks the structure on top into its fields.
type WDestruct struct {
	Name string
}

// WPrimVar invokes a primitive by table lookup.
type WPrimVar struct {
	Name string
}

// WDo invokes the closure on top of the stack.
type WDo struct{}

// WIf runs Then or Else after consuming a boolean.
type WIf struct {
	Then []Word
	Else []Word
}

// WWhile re-runs Body while Cond pushes true.
type WWhile struct {
	Cond []Word
	Body []Word
}

// WVars stores the top values into named slots scoped over Body.
type WVars struct {
	Bindings []string
	Body     []Word
}

// RecDef is one member of a mutually recursive closure group.
type RecDef struct {
	Name string
	Free []string
	Body []Word
}

// WLetRecs binds a group of mutually recursive closures over Body.
type WLetRecs struct {
	Recs []RecDef
	Body []Word
}

// WClosure pushes a function value closing over Free.
type WClosure struct {
	Free []string
	Body []Word
}

// Handler is one lowered handler clause.
type Handler struct {
	Name   string
	Params []string
	Body   []Word
}

// WHandle installs handlers around Body. Ret is fused from the handle's
// return clause.
type WHandle struct {
	HandleId int
	Params   []string
	Body     []Word
	Handlers []Handler
	Ret      []Word
}

// Record, variant and permission words.
type WRecordExtend struct{ Label string }
type WRecordSelect struct{ Label string }
type WRecordRestrict struct{ Label string }
type WVariant struct{ Label string }

// WCase discriminates the variant on top by Label.
type WCase struct {
	Label string
	Then  []Word
	Else  []Word
}

// WWithPermission scopes permissions; permissions are erased at
// runtime, so only the body survives lowering to bytecode.
type WWithPermission struct {
	Names []string
	Body  []Word
}

func (WInteger) word()            {}
func (WFloat) word()              {}
func (WBool) word()               {}
func (WString) word()             {}
func (WCallVar) word()            {}
func (WValueVar) word()           {}
func (WOperatorVar) word()        {}
func (WConstructorVar) word()     {}
func (WTestConstructorVar) word() {}
func (WDestruct) word()           {}
func (WPrimVar) word()            {}
func (WDo) word()                 {}
func (WIf) word()                 {}
func (WWhile) word()              {}
func (WVars) word()               {}
func (WLetRecs) word()            {}
func (WClosure) word()            {}
func (WHandle) word()             {}
func (WRecordExtend) word()       {}
func (WRecordSelect) word()       {}
func (WRecordRestrict) word()     {}
func (WVariant) word()            {}
func (WCase) word()               {}
func (WWithPermission) word()     {}

// Func is one lowered top-level definition.
type Func struct {
	Name string
	Body []Word
}

// Program is the lowered compilation unit.
type Program struct {
	Funcs []Func
	Main  []Word
}
