package vm

import (
	"github.com/stavelang/stave/internal/typesystem"
)

// primTable maps primitive names to their instruction sequences. The
// analyzer registers the matching schemes; the two tables must stay in
// step, and callers may not invent new primitive names.
var primTable = buildPrimTable()

// PrimInstructions resolves a primitive name.
func PrimInstructions(name string) ([]Instruction, bool) {
	instrs, ok := primTable[name]
	return instrs, ok
}

// PrimNames lists every recognized primitive, for cross-checks.
func PrimNames() []string {
	names := make([]string, 0, len(primTable))
	for name := range primTable {
		names = append(names, name)
	}
	return names
}

func buildPrimTable() map[string][]Instruction {
	table := map[string][]Instruction{}
	one := func(name string, i Instruction) {
		table[name] = []Instruction{i}
	}

	sizes := []typesystem.IntSize{
		typesystem.I8, typesystem.U8, typesystem.I16, typesystem.U16,
		typesystem.I32, typesystem.U32, typesystem.I64, typesystem.U64,
		typesystem.ISize, typesystem.USize,
	}
	for _, size := range sizes {
		suffix := "-" + size.String()
		one("add"+suffix, Instruction{Op: IIntAdd, Size: size})
		one("sub"+suffix, Instruction{Op: IIntSub, Size: size})
		one("mul"+suffix, Instruction{Op: IIntMul, Size: size})
		one("div"+suffix, Instruction{Op: IIntDiv, Size: size})
		one("neg"+suffix, Instruction{Op: IIntNeg, Size: size})
		one("eq"+suffix, Instruction{Op: IIntEq, Size: size})
		one("lt"+suffix, Instruction{Op: IIntLt, Size: size})
		one("gt"+suffix, Instruction{Op: IIntGt, Size: size})
		one("conv-bool"+suffix, Instruction{Op: IConvBool, Size: size})
	}

	for _, size := range []typesystem.FloatSize{typesystem.F32, typesystem.F64} {
		suffix := "-" + size.String()
		one("add"+suffix, Instruction{Op: IFloatAdd, FSize: size})
		one("sub"+suffix, Instruction{Op: IFloatSub, FSize: size})
		one("mul"+suffix, Instruction{Op: IFloatMul, FSize: size})
		one("div"+suffix, Instruction{Op: IFloatDiv, FSize: size})
		one("eq"+suffix, Instruction{Op: IFloatEq, FSize: size})
		one("lt"+suffix, Instruction{Op: IFloatLt, FSize: size})
	}

	one("and-bool", Instruction{Op: IBoolAnd})
	one("or-bool", Instruction{Op: IBoolOr})
	one("xor-bool", Instruction{Op: IBoolXor})
	one("not-bool", Instruction{Op: IBoolNot})

	one("list-nil", Instruction{Op: IListNil})
	one("list-cons", Instruction{Op: IListCons})
	one("list-head", Instruction{Op: IListHead})
	one("list-tail", Instruction{Op: IListTail})
	one("list-empty", Instruction{Op: IListIsEmpty})

	one("string-concat", Instruction{Op: IStringConcat})

	one("dup", Instruction{Op: IDup})
	one("drop", Instruction{Op: IDrop})
	one("swap", Instruction{Op: ISwap})

	one("new-ref", Instruction{Op: INewRef})
	one("get-ref", Instruction{Op: IGetRef})
	one("put-ref", Instruction{Op: IPutRef})

	return table
}
