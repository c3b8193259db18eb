// Package vm contains the instruction set of the target machine and
// the closure-converting bytecode generator. The VM itself lives in a
// separate runtime; this package only emits blocks for it.
package vm

import (
	"github.com/stavelang/stave/internal/typesystem"
)

// Opcode enumerates the instructions understood by the VM.
type Opcode int

const (
	INop Opcode = iota

	// Stack shuffles.
	IDup
	IDrop
	ISwap

	// Sized integer immediates and arithmetic.
	IInt
	IIntAdd
	IIntSub
	IIntMul
	IIntDiv
	IIntNeg
	IIntEq
	IIntLt
	IIntGt
	IConvBool

	// Floats.
	IFloat
	IFloatAdd
	IFloatSub
	IFloatMul
	IFloatDiv
	IFloatEq
	IFloatLt

	// Booleans.
	IBool
	IBoolAnd
	IBoolOr
	IBoolXor
	IBoolNot

	// Strings.
	IString
	IStringConcat

	// Lists.
	IListNil
	IListCons
	IListHead
	IListTail
	IListIsEmpty

	// Records and variants.
	IRecordExtend
	IRecordSelect
	IRecordRestrict
	IVariant
	IVariantTest
	IVariantUnpack

	// Structures.
	IConstruct
	IIsStruct
	IDestruct

	// Reference cells.
	INewRef
	IGetRef
	IPutRef

	// Control.
	IOffset
	IOffsetIf
	IOffsetIfNot
	ICall
	ITailCall
	IReturn
	IHandle
	IComplete
	IEscape
	ICallClosure
	ICallContinuation
	IClosure
	IMutual
	IStore
	IFind
	IForget
)

// Find is one captured variable reference of an IClosure.
type Find struct {
	Frame int
	Entry int
}

// Instruction is one flat VM instruction. Operand meaning depends on
// the opcode: A/B/C/D carry offsets, counts and indices (IHandle uses
// all four: handle id, after-offset, param count, handler count);
// Label is a block reference; Text holds immediates' digits, string
// payloads and row labels; Size/FSize key the sized numeric ops.
type Instruction struct {
	Op    Opcode
	A     int
	B     int
	C     int
	D     int
	Label string
	Text  string
	Size  typesystem.IntSize
	FSize typesystem.FloatSize
	Finds []Find
}

// Block is a labeled or anonymous instruction sequence. The name is
// empty for anonymous blocks; labeled block names are unique per
// program.
type Block struct {
	Name   string
	Instrs []Instruction
}
