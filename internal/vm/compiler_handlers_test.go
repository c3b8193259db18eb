package vm

import (
	"reflect"
	"testing"

	"github.com/stavelang/stave/internal/core"
	"github.com/stavelang/stave/internal/symbols"
	ts "github.com/stavelang/stave/internal/typesystem"
)

func exnTable() *symbols.Table {
	table := symbols.NewTable()
	table.DefineWord("raise!", symbols.OperatorEntry{
		Effect:   "exn!",
		HandleId: 0,
		Index:    0,
	})
	return table
}

func exnHandle() core.WHandle {
	return core.WHandle{
		HandleId: 0,
		Body: []core.Word{
			core.WInteger{Digits: "2", Size: ts.I32},
			core.WOperatorVar{Name: "raise!"},
			core.WInteger{Digits: "2", Size: ts.I32},
			core.WPrimVar{Name: "add-i32"},
		},
		Handlers: []core.Handler{
			{Name: "raise!", Body: []core.Word{core.WCallVar{Name: "resume"}}},
		},
		Ret: []core.Word{
			core.WInteger{Digits: "2", Size: ts.I32},
			core.WPrimVar{Name: "mul-i32"},
		},
	}
}

func TestHandleLowering(t *testing.T) {
	p := &core.Program{Main: []core.Word{exnHandle()}}
	blocks, err := Generate(p, exnTable())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	main := blockByName(t, blocks, "main")

	// Return closure first, handler closures after, then the handle.
	if main.Instrs[0].Op != IClosure || main.Instrs[0].Label != "ret1" {
		t.Fatalf("return closure must come first, got %+v", main.Instrs[0])
	}
	if main.Instrs[1].Op != IClosure || main.Instrs[1].Label != "handler2" {
		t.Fatalf("handler closure must follow, got %+v", main.Instrs[1])
	}

	handle := main.Instrs[2]
	if handle.Op != IHandle {
		t.Fatalf("IHandle expected at 2, got %+v", handle)
	}
	// Handled body: II32 2; IEscape(exn!,0); II32 2; IIntAdd I32;
	// IComplete: five instructions, so the post-handle offset is six.
	wantBody := []Instruction{
		{Op: IInt, Text: "2", Size: ts.I32},
		{Op: IEscape, A: 0, B: 0},
		{Op: IInt, Text: "2", Size: ts.I32},
		{Op: IIntAdd, Size: ts.I32},
		{Op: IComplete},
	}
	got := main.Instrs[3 : 3+len(wantBody)]
	if !reflect.DeepEqual([]Instruction(got), wantBody) {
		t.Errorf("handled body = %+v", got)
	}
	if handle.A != 0 || handle.B != 6 || handle.C != 0 || handle.D != 1 {
		t.Errorf("IHandle = (%d %d %d %d), want (0 6 0 1)", handle.A, handle.B, handle.C, handle.D)
	}

	// The handler invokes resume as a continuation.
	handler := blockByName(t, blocks, "handler2")
	wantHandler := []Instruction{
		{Op: IFind, A: 0, B: 0},
		{Op: ICallContinuation},
		{Op: IReturn},
	}
	if !reflect.DeepEqual(handler.Instrs, wantHandler) {
		t.Errorf("handler body = %+v", handler.Instrs)
	}

	// And the return closure runs the ret clause.
	ret := blockByName(t, blocks, "ret1")
	wantRet := []Instruction{
		{Op: IInt, Text: "2", Size: ts.I32},
		{Op: IIntMul, Size: ts.I32},
		{Op: IReturn},
	}
	if !reflect.DeepEqual(ret.Instrs, wantRet) {
		t.Errorf("return closure = %+v", ret.Instrs)
	}
}

// TestHandleOffsetInvariant checks the contract for every emitted
// IHandle: the after-offset equals the handled body length plus one.
func TestHandleOffsetInvariant(t *testing.T) {
	nested := core.WHandle{
		HandleId: 0,
		Body: []core.Word{
			core.WInteger{Digits: "1", Size: ts.I32},
			exnHandle(),
		},
		Handlers: []core.Handler{
			{Name: "raise!", Body: []core.Word{core.WCallVar{Name: "resume"}}},
		},
		Ret: []core.Word{},
	}
	p := &core.Program{Main: []core.Word{nested}}
	blocks, err := Generate(p, exnTable())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, b := range blocks {
		for i, ins := range b.Instrs {
			if ins.Op != IHandle {
				continue
			}
			// Count instructions to the matching IComplete at this
			// nesting depth.
			depth := 0
			length := 0
			for j := i + 1; j < len(b.Instrs); j++ {
				length++
				switch b.Instrs[j].Op {
				case IHandle:
					depth++
				case IComplete:
					if depth == 0 {
						if ins.B != length+1 {
							t.Errorf("IHandle offset %d, body length %d", ins.B, length)
						}
						length = -1
					} else {
						depth--
					}
				}
				if length == -1 {
					break
				}
			}
		}
	}
}

func TestHandlerEmissionOrderReversed(t *testing.T) {
	table := symbols.NewTable()
	table.DefineWord("a!", symbols.OperatorEntry{Effect: "eff!", HandleId: 3, Index: 0})
	table.DefineWord("b!", symbols.OperatorEntry{Effect: "eff!", HandleId: 3, Index: 1})

	h := core.WHandle{
		HandleId: 3,
		Body:     []core.Word{core.WOperatorVar{Name: "a!"}},
		Handlers: []core.Handler{
			{Name: "a!", Body: []core.Word{core.WInteger{Digits: "1", Size: ts.I32}}},
			{Name: "b!", Body: []core.Word{core.WInteger{Digits: "2", Size: ts.I32}}},
		},
		Ret: []core.Word{},
	}
	blocks, err := Generate(&core.Program{Main: []core.Word{h}}, table)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	main := blockByName(t, blocks, "main")

	// ret first, then b!'s closure, then a!'s: reverse declared order.
	if main.Instrs[0].Label != "ret1" {
		t.Fatalf("expected ret1 first, got %+v", main.Instrs[0])
	}
	b2 := blockByName(t, blocks, main.Instrs[1].Label)
	if b2.Instrs[0].Text != "2" {
		t.Errorf("second closure should be b!'s handler (declared last): %+v", b2.Instrs)
	}
	a3 := blockByName(t, blocks, main.Instrs[2].Label)
	if a3.Instrs[0].Text != "1" {
		t.Errorf("third closure should be a!'s handler: %+v", a3.Instrs)
	}
	if main.Instrs[3].Op != IHandle || main.Instrs[3].D != 2 {
		t.Errorf("IHandle with two handlers expected, got %+v", main.Instrs[3])
	}
}

func TestPrimTablesAgree(t *testing.T) {
	// Every primitive the code generator knows must have at least one
	// instruction, and the arithmetic families must cover all sizes.
	for _, name := range PrimNames() {
		instrs, ok := PrimInstructions(name)
		if !ok || len(instrs) == 0 {
			t.Errorf("primitive %s has no instructions", name)
		}
	}
	sizes := []ts.IntSize{ts.I8, ts.U8, ts.I16, ts.U16, ts.I32, ts.U32, ts.I64, ts.U64, ts.ISize, ts.USize}
	for _, size := range sizes {
		for _, op := range []string{"add", "sub", "mul", "div", "eq", "lt", "gt", "conv-bool"} {
			name := op + "-" + size.String()
			if _, ok := PrimInstructions(name); !ok {
				t.Errorf("missing primitive %s", name)
			}
		}
	}
}
