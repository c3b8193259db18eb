package typesystem

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is the interface for all types in the system. Every type has a
// well-defined kind; constructing an ill-kinded type is an invariant
// violation, not a user error.
type Type interface {
	String() string
	Apply(Subst) Type
	FreeTypeVariables() []TVar
	Kind() Kind
}

// TVar represents a type variable. The name prefix encodes the kind
// (see VarPrefix); user names never collide with generated ones.
type TVar struct {
	Name    string
	KindVal Kind
}

func (t TVar) String() string { return t.Name }
func (t TVar) Kind() Kind {
	if t.KindVal == nil {
		return Value
	}
	return t.KindVal
}
func (t TVar) FreeTypeVariables() []TVar { return []TVar{t} }
func (t TVar) Apply(s Subst) Type {
	if replacement, ok := s[t.Name]; ok {
		if tv, ok := replacement.(TVar); ok && tv.Name == t.Name {
			return t
		}
		return replacement.Apply(s)
	}
	return t
}

// TCon represents a rigid type constant: user-declared type constructors,
// effect names, permission names and unit constants.
type TCon struct {
	Name    string
	KindVal Kind
}

func (t TCon) String() string { return t.Name }
func (t TCon) Kind() Kind {
	if t.KindVal == nil {
		return Data
	}
	return t.KindVal
}
func (t TCon) FreeTypeVariables() []TVar { return nil }
func (t TCon) Apply(s Subst) Type        { return t }

// PrimTag identifies a built-in type constructor.
type PrimTag int

const (
	PrimFn PrimTag = iota + 1
	PrimValue
	PrimRef
	PrimList
	PrimString
	PrimBool
	PrimRecord
	PrimVariant
	PrimInt
	PrimFloat
)

// IntSize enumerates the sized integer types carried by numeric
// primitives and integer instructions.
type IntSize int

const (
	I8 IntSize = iota + 1
	U8
	I16
	U16
	I32
	U32
	I64
	U64
	ISize
	USize
)

var intSizeNames = map[IntSize]string{
	I8: "i8", U8: "u8", I16: "i16", U16: "u16",
	I32: "i32", U32: "u32", I64: "i64", U64: "u64",
	ISize: "isize", USize: "usize",
}

func (s IntSize) String() string { return intSizeNames[s] }

// FloatSize enumerates floating point widths.
type FloatSize int

const (
	F32 FloatSize = iota + 1
	F64
)

func (s FloatSize) String() string {
	if s == F32 {
		return "f32"
	}
	return "f64"
}

// TPrim is a built-in type constructor. Numeric primitives carry their
// size; all others are identified by tag alone.
type TPrim struct {
	Tag       PrimTag
	IntSize   IntSize
	FloatSize FloatSize
}

func (t TPrim) String() string {
	switch t.Tag {
	case PrimFn:
		return "Fn"
	case PrimValue:
		return "Val"
	case PrimRef:
		return "Ref"
	case PrimList:
		return "List"
	case PrimString:
		return "String"
	case PrimBool:
		return "Bool"
	case PrimRecord:
		return "Record"
	case PrimVariant:
		return "Variant"
	case PrimInt:
		return strings.ToUpper(t.IntSize.String()[:1]) + t.IntSize.String()[1:]
	case PrimFloat:
		return strings.ToUpper(t.FloatSize.String()[:1]) + t.FloatSize.String()[1:]
	default:
		return "?"
	}
}

func (t TPrim) Kind() Kind {
	switch t.Tag {
	case PrimFn:
		// Fn : Row(Effect) -> Row(Permission) -> Totality -> Seq(Value) -> Seq(Value) -> Data
		return MakeArrow(KRow{Effect}, KRow{Permission}, Totality, KSeq{Value}, KSeq{Value}, Data)
	case PrimValue:
		// Val : Data -> Sharing -> Value
		return MakeArrow(Data, Sharing, Value)
	case PrimRef:
		// Ref : Heap -> Value -> Data
		return MakeArrow(Heap, Value, Data)
	case PrimList:
		return MakeArrow(Value, Data)
	case PrimRecord, PrimVariant:
		return MakeArrow(KRow{Field}, Data)
	case PrimInt, PrimFloat:
		// Numeric data carries its unit-of-measure component.
		return MakeArrow(Unit, Data)
	default:
		return Data
	}
}
func (t TPrim) FreeTypeVariables() []TVar { return nil }
func (t TPrim) Apply(s Subst) Type        { return t }

// TTrue and TFalse are the two constants of Boolean-sorted kinds.
// True is the group identity of the order-2 Abelian encoding.
type TTrue struct {
	KindVal Kind
}

func (t TTrue) String() string            { return "true" }
func (t TTrue) Kind() Kind                { return t.KindVal }
func (t TTrue) FreeTypeVariables() []TVar { return nil }
func (t TTrue) Apply(s Subst) Type        { return t }

type TFalse struct {
	KindVal Kind
}

func (t TFalse) String() string            { return "false" }
func (t TFalse) Kind() Kind                { return t.KindVal }
func (t TFalse) FreeTypeVariables() []TVar { return nil }
func (t TFalse) Apply(s Subst) Type        { return t }

// TAbelian is a composite term of an Abelian- or Boolean-sorted kind.
// The identity equation is the abelian-one leaf.
type TAbelian struct {
	Eq      Equation
	KindVal Kind
}

func (t TAbelian) String() string { return t.Eq.String() }
func (t TAbelian) Kind() Kind     { return t.KindVal }
func (t TAbelian) FreeTypeVariables() []TVar {
	var vars []TVar
	for _, name := range t.Eq.FreeVariables() {
		vars = append(vars, TVar{Name: name, KindVal: t.KindVal})
	}
	return vars
}
func (t TAbelian) Apply(s Subst) Type {
	eq := t.Eq
	for _, name := range t.Eq.FreeVariables() {
		repl, ok := s[name]
		if !ok {
			continue
		}
		replEq, ok := ToEquation(repl.Apply(s))
		if !ok {
			continue
		}
		eq = eq.SubstituteVar(name, replEq)
	}
	if t.KindVal.Sort() == Boolean {
		eq = eq.Mod(2)
	}
	return TAbelian{Eq: eq, KindVal: t.KindVal}
}

// TFixed is a fixed-integer literal at kind Fixed (sized integer widths
// tracked in types).
type TFixed struct {
	Value int
}

func (t TFixed) String() string            { return strconv.Itoa(t.Value) }
func (t TFixed) Kind() Kind                { return Fixed }
func (t TFixed) FreeTypeVariables() []TVar { return nil }
func (t TFixed) Apply(s Subst) Type        { return t }

// TApp is type application. The constructor kind must be an arrow whose
// domain matches the argument kind; TypeApply enforces this.
type TApp struct {
	Fn  Type
	Arg Type
}

func (t TApp) String() string {
	return fmt.Sprintf("(%s %s)", t.Fn, t.Arg)
}
func (t TApp) Kind() Kind {
	arrow, ok := t.Fn.Kind().(KArrow)
	if !ok {
		panic(fmt.Sprintf("ill-kinded application: %s applied to %s", t.Fn, t.Arg))
	}
	return arrow.Right
}
func (t TApp) FreeTypeVariables() []TVar {
	return mergeVars(t.Fn.FreeTypeVariables(), t.Arg.FreeTypeVariables())
}
func (t TApp) Apply(s Subst) Type {
	return TApp{Fn: t.Fn.Apply(s), Arg: t.Arg.Apply(s)}
}

// TRowEmpty is the empty row at the given row kind.
type TRowEmpty struct {
	KindVal Kind
}

func (t TRowEmpty) String() string            { return "{}" }
func (t TRowEmpty) Kind() Kind                { return t.KindVal }
func (t TRowEmpty) FreeTypeVariables() []TVar { return nil }
func (t TRowEmpty) Apply(s Subst) Type        { return t }

// TRowExtend extends a row with one labeled element. Rows unify modulo
// permutation of labels.
type TRowExtend struct {
	Label string
	Elem  Type
	Rest  Type
}

func (t TRowExtend) String() string {
	return fmt.Sprintf("{%s: %s | %s}", t.Label, t.Elem, t.Rest)
}
func (t TRowExtend) Kind() Kind { return t.Rest.Kind() }
func (t TRowExtend) FreeTypeVariables() []TVar {
	return mergeVars(t.Elem.FreeTypeVariables(), t.Rest.FreeTypeVariables())
}
func (t TRowExtend) Apply(s Subst) Type {
	return TRowExtend{Label: t.Label, Elem: t.Elem.Apply(s), Rest: t.Rest.Apply(s)}
}

// SeqElem is one element of a dotted sequence. Dotted elements stand for
// zero-or-more types and may only terminate a normalized sequence.
type SeqElem struct {
	Type   Type
	Dotted bool
}

// TSeq is a sequence of types: stack shapes and variadic tuples.
type TSeq struct {
	Elems   []SeqElem
	KindVal Kind
}

func (t TSeq) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		if e.Dotted {
			parts[i] = e.Type.String() + "..."
		} else {
			parts[i] = e.Type.String()
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}
func (t TSeq) Kind() Kind { return t.KindVal }
func (t TSeq) FreeTypeVariables() []TVar {
	var vars []TVar
	for _, e := range t.Elems {
		vars = mergeVars(vars, e.Type.FreeTypeVariables())
	}
	return vars
}
func (t TSeq) Apply(s Subst) Type {
	elems := make([]SeqElem, 0, len(t.Elems))
	for _, e := range t.Elems {
		applied := e.Type.Apply(s)
		if e.Dotted {
			// A dotted variable bound to a sequence splices in place.
			if seq, ok := applied.(TSeq); ok {
				elems = append(elems, seq.Elems...)
				continue
			}
		}
		elems = append(elems, SeqElem{Type: applied, Dotted: e.Dotted})
	}
	return TSeq{Elems: elems, KindVal: t.KindVal}
}

// ToEquation views a type of Abelian or Boolean sort as an equation.
func ToEquation(t Type) (Equation, bool) {
	switch tt := t.(type) {
	case TAbelian:
		return tt.Eq, true
	case TVar:
		return VarEquation(tt.Name), true
	case TCon:
		return ConstEquation(tt.Name), true
	case TTrue:
		return NewEquation(), true
	case TFalse:
		return ConstEquation("false"), true
	case TFixed:
		return ConstEquation(strconv.Itoa(tt.Value)), true
	default:
		return Equation{}, false
	}
}

// FromEquation rebuilds the simplest type for an equation at a kind.
func FromEquation(eq Equation, kind Kind) Type {
	if kind.Sort() == Boolean {
		eq = eq.Mod(2)
		if eq.IsIdentity() {
			return TTrue{KindVal: kind}
		}
		if len(eq.Variables) == 0 && len(eq.Constants) == 1 && eq.Constants["false"] == 1 {
			return TFalse{KindVal: kind}
		}
	}
	if len(eq.Variables) == 1 && len(eq.Constants) == 0 {
		for name, exp := range eq.Variables {
			if exp == 1 {
				return TVar{Name: name, KindVal: kind}
			}
		}
	}
	return TAbelian{Eq: eq, KindVal: kind}
}

func mergeVars(a, b []TVar) []TVar {
	seen := make(map[string]bool, len(a))
	out := make([]TVar, 0, len(a)+len(b))
	for _, v := range a {
		if !seen[v.Name] {
			seen[v.Name] = true
			out = append(out, v)
		}
	}
	for _, v := range b {
		if !seen[v.Name] {
			seen[v.Name] = true
			out = append(out, v)
		}
	}
	return out
}
