package typesystem

import "fmt"

// Sort controls how types of a given kind unify. Syntactic kinds use
// ordinary structural decomposition; Boolean and Abelian kinds use the
// equational solver; Row kinds unify modulo label permutation; Sequence
// kinds allow dotted (variadic) expansion.
type Sort int

const (
	Syntactic Sort = iota + 1
	Boolean
	Abelian
	Row
	Sequence
)

func (s Sort) String() string {
	switch s {
	case Syntactic:
		return "syn"
	case Boolean:
		return "bool"
	case Abelian:
		return "abel"
	case Row:
		return "row"
	case Sequence:
		return "seq"
	default:
		panic("invalid sort encountered")
	}
}

// Kind represents the "type of a type". Base kinds form a fixed set; Row,
// Seq and Arrow build composite kinds over them.
type Kind interface {
	String() string
	Equal(Kind) bool
	Sort() Sort
}

// Base enumerates the primitive kinds of the type system.
type Base int

const (
	KindValue Base = iota
	KindData
	KindTrust
	KindSharing
	KindClearance
	KindHeap
	KindTotality
	KindFixed
	KindUnit
	KindEffect
	KindPermission
	KindField
)

var baseNames = [...]string{
	KindValue:      "Value",
	KindData:       "Data",
	KindTrust:      "Trust",
	KindSharing:    "Sharing",
	KindClearance:  "Clearance",
	KindHeap:       "Heap",
	KindTotality:   "Totality",
	KindFixed:      "Fixed",
	KindUnit:       "Unit",
	KindEffect:     "Effect",
	KindPermission: "Permission",
	KindField:      "Field",
}

var baseSorts = [...]Sort{
	KindValue:      Syntactic,
	KindData:       Syntactic,
	KindTrust:      Boolean,
	KindSharing:    Boolean,
	KindClearance:  Boolean,
	KindHeap:       Syntactic,
	KindTotality:   Boolean,
	KindFixed:      Abelian,
	KindUnit:       Abelian,
	KindEffect:     Syntactic,
	KindPermission: Syntactic,
	KindField:      Syntactic,
}

// KBase is a primitive kind.
type KBase struct {
	Base Base
}

func (k KBase) String() string { return baseNames[k.Base] }
func (k KBase) Sort() Sort     { return baseSorts[k.Base] }
func (k KBase) Equal(other Kind) bool {
	o, ok := other.(KBase)
	return ok && o.Base == k.Base
}

// KRow is the kind of open rows over elements of the inner kind
// (effect rows, permission rows, field rows).
type KRow struct {
	Inner Kind
}

func (k KRow) String() string { return fmt.Sprintf("Row(%s)", k.Inner) }
func (k KRow) Sort() Sort     { return Row }
func (k KRow) Equal(other Kind) bool {
	o, ok := other.(KRow)
	return ok && k.Inner.Equal(o.Inner)
}

// KSeq is the kind of type sequences (stack shapes, variadic tuples).
type KSeq struct {
	Inner Kind
}

func (k KSeq) String() string { return fmt.Sprintf("Seq(%s)", k.Inner) }
func (k KSeq) Sort() Sort     { return Sequence }
func (k KSeq) Equal(other Kind) bool {
	o, ok := other.(KSeq)
	return ok && k.Inner.Equal(o.Inner)
}

// KArrow is the kind of type constructors (k1 -> k2).
type KArrow struct {
	Left  Kind
	Right Kind
}

func (k KArrow) String() string {
	return fmt.Sprintf("(%s -> %s)", k.Left, k.Right)
}
func (k KArrow) Sort() Sort { return Syntactic }
func (k KArrow) Equal(other Kind) bool {
	o, ok := other.(KArrow)
	return ok && k.Left.Equal(o.Left) && k.Right.Equal(o.Right)
}

// Shared base kind values.
var (
	Value      Kind = KBase{KindValue}
	Data       Kind = KBase{KindData}
	Trust      Kind = KBase{KindTrust}
	Sharing    Kind = KBase{KindSharing}
	Clearance  Kind = KBase{KindClearance}
	Heap       Kind = KBase{KindHeap}
	Totality   Kind = KBase{KindTotality}
	Fixed      Kind = KBase{KindFixed}
	Unit       Kind = KBase{KindUnit}
	Effect     Kind = KBase{KindEffect}
	Permission Kind = KBase{KindPermission}
	Field      Kind = KBase{KindField}
)

// MakeArrow builds a right-nested arrow kind from the argument kinds to
// the final result kind.
func MakeArrow(args ...Kind) Kind {
	if len(args) == 0 {
		panic("MakeArrow requires at least a result kind")
	}
	if len(args) == 1 {
		return args[0]
	}
	return KArrow{Left: args[0], Right: MakeArrow(args[1:]...)}
}

// VarPrefix returns the fresh-variable prefix for a kind. Generated names
// join the prefix and the counter with '*', which user-provided names
// never contain, so generated names cannot collide.
func VarPrefix(k Kind) string {
	switch kk := k.(type) {
	case KBase:
		switch kk.Base {
		case KindData:
			return "d"
		case KindTrust:
			return "v"
		case KindSharing:
			return "s"
		case KindClearance:
			return "k"
		case KindEffect:
			return "e"
		case KindHeap:
			return "h"
		case KindPermission:
			return "p"
		case KindTotality:
			return "q"
		case KindField:
			return "f"
		case KindFixed:
			return "x"
		case KindUnit:
			return "u"
		case KindValue:
			return "t"
		}
	case KRow:
		return "r"
	case KSeq:
		return "z"
	case KArrow:
		return "c"
	}
	return "t"
}
