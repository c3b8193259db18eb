package analyzer

import (
	"github.com/stavelang/stave/internal/typesystem"
)

// TWord is a word of the inferred tree. It mirrors the surface words
// with identifiers classified by their environment entry and with the
// placeholders the elaborator later rewrites into dictionary-passing
// code.
type TWord interface {
	tword()
}

// TIntLit pushes a sized integer immediate.
type TIntLit struct {
	Digits string
	Size   typesystem.IntSize
}

// TFloatLit pushes a float immediate.
type TFloatLit struct {
	Digits string
	Size   typesystem.FloatSize
}

// TBoolLit pushes a boolean.
type TBoolLit struct {
	Value bool
}

// TStringLit pushes a string.
type TStringLit struct {
	Value string
}

// TCallVar calls a top-level word or a closure bound to a name.
type TCallVar struct {
	Name string
}

// TValueVar pushes the value bound to a name.
type TValueVar struct {
	Name string
}

// TOperatorVar escapes to the handler of an effect operation.
type TOperatorVar struct {
	Name string
}

// TConstructorVar builds a structure from stack arguments.
type TConstructorVar struct {
	Name string
}

// TTestConstructorVar tests the tag of a structure.
type TTestConstructorVar struct {
	Name string
}

// TPrimVar invokes a built-in word.
type TPrimVar struct {
	Name string
}

// TOverloadPlaceholder stands for the dictionary of a context
// predicate; elaboration replaces it with an instance function or a
// dictionary parameter.
type TOverloadPlaceholder struct {
	Pred typesystem.Pred
}

// TMethodPlaceholder stands for a use of an overloaded word itself.
type TMethodPlaceholder struct {
	Name string
	Pred typesystem.Pred
}

// TRecursivePlaceholder stands for a self-call inside a recursive
// group, resolved to a direct call after generalization.
type TRecursivePlaceholder struct {
	Name string
	Head typesystem.Type
}

// TIf consumes a boolean and runs one branch.
type TIf struct {
	Then []TWord
	Else []TWord
}

// TWhile loops body while cond pushes true.
type TWhile struct {
	Cond []TWord
	Body []TWord
}

// TVars pops values into named bindings scoped over the body.
type TVars struct {
	Bindings []string
	Body     []TWord
}

// TMatch destructures the top value against a constructor, binding the
// argument names in Then; Else runs when the tag does not match.
type TMatch struct {
	CtorName string
	Bindings []string
	Then     []TWord
	Else     []TWord
}

// TFunLit pushes a function value.
type TFunLit struct {
	Body []TWord
}

// THandler is one inferred handler clause.
type THandler struct {
	Name   string
	Params []string
	Body   []TWord
}

// THandle installs handlers for one effect around a body.
type THandle struct {
	HandleId int
	Params   []string
	Body     []TWord
	Handlers []THandler
	Ret      []TWord
}

// TRecordExtend, TRecordSelect and TRecordRestrict operate on records.
type TRecordExtend struct{ Label string }
type TRecordSelect struct{ Label string }
type TRecordRestrict struct{ Label string }

// TVariantLit injects into a variant.
type TVariantLit struct{ Label string }

// TCase scrutinizes a variant tag.
type TCase struct {
	Label string
	Then  []TWord
	Else  []TWord
}

// TWithPermission scopes permissions over a body.
type TWithPermission struct {
	Names []string
	Body  []TWord
}

// TDo invokes the function value on top of the stack.
type TDo struct{}

func (TIntLit) tword()                {}
func (TFloatLit) tword()              {}
func (TBoolLit) tword()               {}
func (TStringLit) tword()             {}
func (TCallVar) tword()               {}
func (TValueVar) tword()              {}
func (TOperatorVar) tword()           {}
func (TConstructorVar) tword()        {}
func (TTestConstructorVar) tword()    {}
func (TPrimVar) tword()               {}
func (TOverloadPlaceholder) tword()   {}
func (TMethodPlaceholder) tword()     {}
func (TRecursivePlaceholder) tword()  {}
func (TIf) tword()                    {}
func (TWhile) tword()                 {}
func (TVars) tword()                  {}
func (TMatch) tword()                 {}
func (TFunLit) tword()                {}
func (THandle) tword()                {}
func (TRecordExtend) tword()          {}
func (TRecordSelect) tword()          {}
func (TRecordRestrict) tword()        {}
func (TVariantLit) tword()            {}
func (TCase) tword()                  {}
func (TWithPermission) tword()        {}
func (TDo) tword()                    {}
