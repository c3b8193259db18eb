// Package symbols implements the lexical environment of the middle end.
// Four namespaces share the name domain with separate lookups: words,
// patterns, type constructors and predicates. The table is persistent:
// Extend returns a child frame and never mutates the parent, so
// inference can thread environments without a push/pop discipline.
package symbols

import (
	"github.com/stavelang/stave/internal/chr"
	"github.com/stavelang/stave/internal/typesystem"
)

// Entry is a word-namespace binding.
type Entry interface {
	entry()
}

// VariableEntry is a let- or parameter-bound value.
type VariableEntry struct {
	Scheme typesystem.Scheme
}

// FunctionEntry is a top-level word definition.
type FunctionEntry struct {
	Scheme typesystem.Scheme
}

// RecursiveEntry marks a word of a recursive group still being
// inferred; uses produce recursive placeholders until generalization.
type RecursiveEntry struct {
	Scheme typesystem.Scheme
}

// Instance pairs an instance scheme with its generated function name.
type Instance struct {
	Scheme   typesystem.Scheme
	FuncName string
}

// OverloadEntry is an overloaded word: the constraint name it belongs
// to, the base scheme, and the declared instances.
type OverloadEntry struct {
	Predicate string
	Base      typesystem.Scheme
	Instances []Instance
}

// ConstructorEntry is a data constructor, usable both as a word (value
// scheme) and in patterns (pattern scheme). Id and Args feed IConstruct.
type ConstructorEntry struct {
	PatternScheme typesystem.Scheme
	ValueScheme   typesystem.Scheme
	Id            int
	Args          int
}

// OperatorEntry is an effect operation. HandleId identifies the effect;
// Index is the operation's position in the declaration.
type OperatorEntry struct {
	Scheme   typesystem.Scheme
	Effect   string
	HandleId int
	Index    int
}

// PrimEntry is a built-in word backed by an instruction sequence.
type PrimEntry struct {
	Scheme typesystem.Scheme
}

func (VariableEntry) entry()    {}
func (FunctionEntry) entry()    {}
func (RecursiveEntry) entry()   {}
func (OverloadEntry) entry()    {}
func (ConstructorEntry) entry() {}
func (OperatorEntry) entry()    {}
func (PrimEntry) entry()        {}

// EntryScheme extracts the scheme an identifier use instantiates.
func EntryScheme(e Entry) (typesystem.Scheme, bool) {
	switch ee := e.(type) {
	case VariableEntry:
		return ee.Scheme, true
	case FunctionEntry:
		return ee.Scheme, true
	case RecursiveEntry:
		return ee.Scheme, true
	case OverloadEntry:
		return ee.Base, true
	case ConstructorEntry:
		return ee.ValueScheme, true
	case OperatorEntry:
		return ee.Scheme, true
	case PrimEntry:
		return ee.Scheme, true
	}
	return typesystem.Scheme{}, false
}

// Table is one environment frame. Lookups walk toward the root; names
// shadow outward frames.
type Table struct {
	parent    *Table
	words     map[string]Entry
	patterns  map[string]typesystem.Scheme
	typeCtors map[string]typesystem.Kind
	rules     []chr.Rule
	units     map[string]bool
}

// NewTable returns an empty root frame.
func NewTable() *Table {
	return &Table{
		words:     map[string]Entry{},
		patterns:  map[string]typesystem.Scheme{},
		typeCtors: map[string]typesystem.Kind{},
		units:     map[string]bool{},
	}
}

// Extend returns a child frame sharing everything in the receiver.
func (t *Table) Extend() *Table {
	child := NewTable()
	child.parent = t
	return child
}

// DefineWord binds a name in the word namespace of this frame.
func (t *Table) DefineWord(name string, e Entry) {
	typesystem.AssertUserName(name)
	t.words[name] = e
}

// DefinePattern binds a named pattern synonym.
func (t *Table) DefinePattern(name string, s typesystem.Scheme) {
	t.patterns[name] = s
}

// DefineTypeCtor binds a type constructor to its kind.
func (t *Table) DefineTypeCtor(name string, k typesystem.Kind) {
	t.typeCtors[name] = k
}

// DefineRule appends a CHR rule visible from this frame inward.
func (t *Table) DefineRule(r chr.Rule) {
	t.rules = append(t.rules, r)
}

// DefineUnit registers a declared unit-of-measure constant.
func (t *Table) DefineUnit(name string) {
	t.units[name] = true
}

// LookupWord resolves a word-namespace name.
func (t *Table) LookupWord(name string) (Entry, bool) {
	for frame := t; frame != nil; frame = frame.parent {
		if e, ok := frame.words[name]; ok {
			return e, true
		}
	}
	return nil, false
}

// LookupPattern resolves a pattern name.
func (t *Table) LookupPattern(name string) (typesystem.Scheme, bool) {
	for frame := t; frame != nil; frame = frame.parent {
		if s, ok := frame.patterns[name]; ok {
			return s, true
		}
	}
	return typesystem.Scheme{}, false
}

// LookupTypeCtor resolves a type constructor's kind.
func (t *Table) LookupTypeCtor(name string) (typesystem.Kind, bool) {
	for frame := t; frame != nil; frame = frame.parent {
		if k, ok := frame.typeCtors[name]; ok {
			return k, true
		}
	}
	return nil, false
}

// LookupOverloadByPred finds the overloaded word owning a predicate.
func (t *Table) LookupOverloadByPred(pred string) (string, OverloadEntry, bool) {
	for frame := t; frame != nil; frame = frame.parent {
		for name, e := range frame.words {
			if o, ok := e.(OverloadEntry); ok && o.Predicate == pred {
				return name, o, true
			}
		}
	}
	return "", OverloadEntry{}, false
}

// HasUnit reports whether a unit constant is declared.
func (t *Table) HasUnit(name string) bool {
	for frame := t; frame != nil; frame = frame.parent {
		if frame.units[name] {
			return true
		}
	}
	return false
}

// Rules collects the CHR rules visible from this frame, outermost first.
func (t *Table) Rules() []chr.Rule {
	var frames []*Table
	for frame := t; frame != nil; frame = frame.parent {
		frames = append(frames, frame)
	}
	var out []chr.Rule
	for i := len(frames) - 1; i >= 0; i-- {
		out = append(out, frames[i].rules...)
	}
	return out
}

// FreeTypeVariables returns the names free in any scheme bound in scope.
// Generalization must not quantify over them.
func (t *Table) FreeTypeVariables() map[string]bool {
	free := map[string]bool{}
	for frame := t; frame != nil; frame = frame.parent {
		for _, e := range frame.words {
			scheme, ok := EntryScheme(e)
			if !ok {
				continue
			}
			quantified := map[string]bool{}
			for _, q := range scheme.Quantified {
				quantified[q.Name] = true
			}
			for _, v := range scheme.Qual.FreeTypeVariables() {
				if !quantified[v.Name] {
					free[v.Name] = true
				}
			}
		}
	}
	return free
}
