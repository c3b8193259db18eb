package vm

import (
	"fmt"
	"strings"

	"github.com/stavelang/stave/internal/typesystem"
)

// Disassemble renders blocks as a stable textual listing. The format is
// load-bearing: the debug dump and the golden end-to-end tests both
// compare against it.
func Disassemble(blocks []Block) string {
	var sb strings.Builder
	for bi, b := range blocks {
		if bi > 0 {
			sb.WriteString("\n")
		}
		if b.Name == "" {
			sb.WriteString("<entry>:\n")
		} else {
			sb.WriteString(b.Name)
			sb.WriteString(":\n")
		}
		for _, ins := range b.Instrs {
			sb.WriteString("  ")
			sb.WriteString(formatInstruction(ins))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func formatInstruction(ins Instruction) string {
	switch ins.Op {
	case IInt:
		return fmt.Sprintf("I%s %s", sizeTag(ins.Size), ins.Text)
	case IFloat:
		return fmt.Sprintf("I%s %s", fsizeTag(ins.FSize), ins.Text)
	case IIntAdd, IIntSub, IIntMul, IIntDiv, IIntNeg, IIntEq, IIntLt, IIntGt, IConvBool:
		return fmt.Sprintf("%s %s", opNames[ins.Op], sizeTag(ins.Size))
	case IFloatAdd, IFloatSub, IFloatMul, IFloatDiv, IFloatEq, IFloatLt:
		return fmt.Sprintf("%s %s", opNames[ins.Op], fsizeTag(ins.FSize))
	case IBool:
		if ins.A == 1 {
			return "IBool true"
		}
		return "IBool false"
	case IString:
		return fmt.Sprintf("IString %q", ins.Text)
	case IRecordExtend, IRecordSelect, IRecordRestrict, IVariant, IVariantTest, IVariantUnpack:
		return fmt.Sprintf("%s %s", opNames[ins.Op], ins.Text)
	case IConstruct, IDestruct:
		return fmt.Sprintf("%s %d %d", opNames[ins.Op], ins.A, ins.B)
	case IIsStruct:
		return fmt.Sprintf("IIsStruct %d", ins.A)
	case IOffset, IOffsetIf, IOffsetIfNot, IMutual, IStore:
		return fmt.Sprintf("%s %d", opNames[ins.Op], ins.A)
	case ICall, ITailCall:
		return fmt.Sprintf("%s %s", opNames[ins.Op], ins.Label)
	case IHandle:
		return fmt.Sprintf("IHandle %d %d %d %d", ins.A, ins.B, ins.C, ins.D)
	case IEscape:
		return fmt.Sprintf("IEscape %d %d", ins.A, ins.B)
	case IFind:
		return fmt.Sprintf("IFind %d %d", ins.A, ins.B)
	case IClosure:
		finds := make([]string, len(ins.Finds))
		for i, f := range ins.Finds {
			finds[i] = fmt.Sprintf("%d.%d", f.Frame, f.Entry)
		}
		return fmt.Sprintf("IClosure %s %d [%s]", ins.Label, ins.A, strings.Join(finds, " "))
	default:
		return opNames[ins.Op]
	}
}

func sizeTag(s typesystem.IntSize) string {
	return strings.ToUpper(s.String()[:1]) + s.String()[1:]
}

func fsizeTag(s typesystem.FloatSize) string {
	return strings.ToUpper(s.String()[:1]) + s.String()[1:]
}

var opNames = map[Opcode]string{
	INop:              "INop",
	IDup:              "IDup",
	IDrop:             "IDrop",
	ISwap:             "ISwap",
	IInt:              "IInt",
	IIntAdd:           "IIntAdd",
	IIntSub:           "IIntSub",
	IIntMul:           "IIntMul",
	IIntDiv:           "IIntDiv",
	IIntNeg:           "IIntNeg",
	IIntEq:            "IIntEq",
	IIntLt:            "IIntLt",
	IIntGt:            "IIntGt",
	IConvBool:         "IConvBool",
	IFloat:            "IFloat",
	IFloatAdd:         "IFloatAdd",
	IFloatSub:         "IFloatSub",
	IFloatMul:         "IFloatMul",
	IFloatDiv:         "IFloatDiv",
	IFloatEq:          "IFloatEq",
	IFloatLt:          "IFloatLt",
	IBool:             "IBool",
	IBoolAnd:          "IBoolAnd",
	IBoolOr:           "IBoolOr",
	IBoolXor:          "IBoolXor",
	IBoolNot:          "IBoolNot",
	IString:           "IString",
	IStringConcat:     "IStringConcat",
	IListNil:          "IListNil",
	IListCons:         "IListCons",
	IListHead:         "IListHead",
	IListTail:         "IListTail",
	IListIsEmpty:      "IListIsEmpty",
	IRecordExtend:     "IRecordExtend",
	IRecordSelect:     "IRecordSelect",
	IRecordRestrict:   "IRecordRestrict",
	IVariant:          "IVariant",
	IVariantTest:      "IVariantTest",
	IVariantUnpack:    "IVariantUnpack",
	IConstruct:        "IConstruct",
	IIsStruct:         "IIsStruct",
	IDestruct:         "IDestruct",
	INewRef:           "INewRef",
	IGetRef:           "IGetRef",
	IPutRef:           "IPutRef",
	IOffset:           "IOffset",
	IOffsetIf:         "IOffsetIf",
	IOffsetIfNot:      "IOffsetIfNot",
	ICall:             "ICall",
	ITailCall:         "ITailCall",
	IReturn:           "IReturn",
	IHandle:           "IHandle",
	IComplete:         "IComplete",
	IEscape:           "IEscape",
	ICallClosure:      "ICallClosure",
	ICallContinuation: "ICallContinuation",
	IClosure:          "IClosure",
	IMutual:           "IMutual",
	IStore:            "IStore",
	IFind:             "IFind",
	IForget:           "IForget",
}
