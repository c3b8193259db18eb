package vm

import (
	"fmt"
	"strconv"

	"github.com/stavelang/stave/internal/config"
	"github.com/stavelang/stave/internal/core"
	"github.com/stavelang/stave/internal/symbols"
)

// EnvKind classifies what a frame slot holds at runtime.
type EnvKind int

const (
	EnvValue EnvKind = iota
	EnvClosure
	EnvContinuation
)

// EnvEntry is one slot of the emission-time environment stack.
type EnvEntry struct {
	Name string
	Kind EnvKind
}

type frame []EnvEntry

// env is the frame stack, innermost first. It mirrors exactly the
// frames the VM will have at each program point, so IFind coordinates
// are valid by construction.
type env []frame

func (e env) push(f frame) env {
	out := make(env, 0, len(e)+1)
	out = append(out, f)
	return append(out, e...)
}

func (e env) find(name string) (int, int, EnvEntry, bool) {
	for fi, f := range e {
		for ei, entry := range f {
			if entry.Name == name {
				return fi, ei, entry, true
			}
		}
	}
	return 0, 0, EnvEntry{}, false
}

// Generator emits labeled blocks for one program. The block counter is
// the only mutable state shared across definitions, keeping generated
// names globally unique and deterministic.
type Generator struct {
	table   *symbols.Table
	blockId int
	aux     []Block
}

// Generate lowers a core program to the ordered block list: the
// anonymous entry block, main, the user definitions each followed by
// the closure blocks it spawned, and the terminal end block.
func Generate(p *core.Program, table *symbols.Table) ([]Block, error) {
	g := &Generator{table: table}

	blocks := []Block{{Instrs: []Instruction{
		{Op: ICall, Label: config.MainFuncName},
		{Op: ITailCall, Label: config.EndBlockName},
	}}}

	mainBlocks, err := g.emitDefinition(config.MainFuncName, p.Main)
	if err != nil {
		return nil, err
	}
	blocks = append(blocks, mainBlocks...)

	for _, f := range p.Funcs {
		fnBlocks, err := g.emitDefinition(f.Name, f.Body)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, fnBlocks...)
	}

	blocks = append(blocks, Block{Name: config.EndBlockName, Instrs: []Instruction{{Op: INop}}})
	return blocks, nil
}

func (g *Generator) emitDefinition(name string, body []core.Word) ([]Block, error) {
	instrs, err := g.emitWords(env{}, body)
	if err != nil {
		return nil, err
	}
	instrs = append(instrs, Instruction{Op: IReturn})
	blocks := append([]Block{{Name: name, Instrs: instrs}}, g.aux...)
	g.aux = nil
	return blocks, nil
}

func (g *Generator) emitWords(e env, words []core.Word) ([]Instruction, error) {
	var out []Instruction
	for _, w := range words {
		instrs, err := g.emitWord(e, w)
		if err != nil {
			return nil, err
		}
		out = append(out, instrs...)
	}
	return out, nil
}

func (g *Generator) emitWord(e env, w core.Word) ([]Instruction, error) {
	switch word := w.(type) {
	case core.WInteger:
		return []Instruction{{Op: IInt, Text: word.Digits, Size: word.Size}}, nil

	case core.WFloat:
		return []Instruction{{Op: IFloat, Text: word.Digits, FSize: word.Size}}, nil

	case core.WBool:
		b := 0
		if word.Value {
			b = 1
		}
		return []Instruction{{Op: IBool, A: b}}, nil

	case core.WString:
		return []Instruction{{Op: IString, Text: word.Value}}, nil

	case core.WDo:
		return []Instruction{{Op: ICallClosure}}, nil

	case core.WCallVar:
		if f, i, entry, ok := e.find(word.Name); ok {
			call := ICallClosure
			if entry.Kind == EnvContinuation {
				call = ICallContinuation
			}
			return []Instruction{{Op: IFind, A: f, B: i}, {Op: call}}, nil
		}
		return []Instruction{{Op: ICall, Label: word.Name}}, nil

	case core.WValueVar:
		f, i, _, ok := e.find(word.Name)
		if !ok {
			return nil, fmt.Errorf("value `%s` is not stored at this point", word.Name)
		}
		return []Instruction{{Op: IFind, A: f, B: i}}, nil

	case core.WOperatorVar:
		entry, ok := g.table.LookupWord(word.Name)
		if !ok {
			return nil, fmt.Errorf("unknown effect operation `%s`", word.Name)
		}
		op, isOp := entry.(symbols.OperatorEntry)
		if !isOp {
			return nil, fmt.Errorf("`%s` is not an effect operation", word.Name)
		}
		return []Instruction{{Op: IEscape, A: op.HandleId, B: op.Index}}, nil

	case core.WConstructorVar:
		ctor, err := g.constructor(word.Name)
		if err != nil {
			return nil, err
		}
		return []Instruction{{Op: IConstruct, A: ctor.Id, B: ctor.Args}}, nil

	case core.WTestConstructorVar:
		ctor, err := g.constructor(word.Name)
		if err != nil {
			return nil, err
		}
		return []Instruction{{Op: IIsStruct, A: ctor.Id}}, nil

	case core.WDestruct:
		ctor, err := g.constructor(word.Name)
		if err != nil {
			return nil, err
		}
		return []Instruction{{Op: IDestruct, A: ctor.Id, B: ctor.Args}}, nil

	case core.WPrimVar:
		instrs, ok := PrimInstructions(word.Name)
		if !ok {
			return nil, fmt.Errorf("unknown primitive `%s`", word.Name)
		}
		return append([]Instruction{}, instrs...), nil

	case core.WIf:
		return g.emitIf(e, word)

	case core.WWhile:
		return g.emitWhile(e, word)

	case core.WVars:
		return g.emitVars(e, word)

	case core.WLetRecs:
		return g.emitLetRecs(e, word)

	case core.WClosure:
		closure, err := g.genClosure(config.ClosurePrefix, nil, word.Free, 0, word.Body, e)
		if err != nil {
			return nil, err
		}
		return []Instruction{closure}, nil

	case core.WHandle:
		return g.emitHandle(e, word)

	case core.WRecordExtend:
		return []Instruction{{Op: IRecordExtend, Text: word.Label}}, nil
	case core.WRecordSelect:
		return []Instruction{{Op: IRecordSelect, Text: word.Label}}, nil
	case core.WRecordRestrict:
		return []Instruction{{Op: IRecordRestrict, Text: word.Label}}, nil
	case core.WVariant:
		return []Instruction{{Op: IVariant, Text: word.Label}}, nil

	case core.WCase:
		return g.emitCase(e, word)

	case core.WWithPermission:
		// Permissions are a typing construct; no code remains.
		return g.emitWords(e, word.Body)

	default:
		return nil, fmt.Errorf("cannot emit %T", w)
	}
}

func (g *Generator) emitIf(e env, word core.WIf) ([]Instruction, error) {
	thenInstrs, err := g.emitWords(e, word.Then)
	if err != nil {
		return nil, err
	}
	if len(word.Else) == 0 {
		out := []Instruction{{Op: IOffsetIfNot, A: len(thenInstrs)}}
		return append(out, thenInstrs...), nil
	}
	elseInstrs, err := g.emitWords(e, word.Else)
	if err != nil {
		return nil, err
	}
	out := []Instruction{{Op: IOffsetIf, A: len(thenInstrs) + 1}}
	out = append(out, thenInstrs...)
	out = append(out, Instruction{Op: IOffset, A: len(elseInstrs)})
	return append(out, elseInstrs...), nil
}

func (g *Generator) emitWhile(e env, word core.WWhile) ([]Instruction, error) {
	bodyInstrs, err := g.emitWords(e, word.Body)
	if err != nil {
		return nil, err
	}
	condInstrs, err := g.emitWords(e, word.Cond)
	if err != nil {
		return nil, err
	}
	out := []Instruction{{Op: IOffset, A: len(bodyInstrs)}}
	out = append(out, bodyInstrs...)
	out = append(out, condInstrs...)
	return append(out, Instruction{Op: IOffsetIf, A: -len(bodyInstrs)}), nil
}

func (g *Generator) emitVars(e env, word core.WVars) ([]Instruction, error) {
	entries := make(frame, len(word.Bindings))
	for i, name := range word.Bindings {
		entries[i] = EnvEntry{Name: name, Kind: EnvValue}
	}
	bodyInstrs, err := g.emitWords(e.push(entries), word.Body)
	if err != nil {
		return nil, err
	}
	out := []Instruction{{Op: IStore, A: len(word.Bindings)}}
	out = append(out, bodyInstrs...)
	return append(out, Instruction{Op: IForget}), nil
}

func (g *Generator) emitLetRecs(e env, word core.WLetRecs) ([]Instruction, error) {
	entries := make(frame, len(word.Recs))
	for i, r := range word.Recs {
		entries[i] = EnvEntry{Name: r.Name, Kind: EnvClosure}
	}
	inner := e.push(entries)

	var out []Instruction
	for _, r := range word.Recs {
		closure, err := g.genClosure(config.RecClosurePrefix, nil, r.Free, 0, r.Body, inner)
		if err != nil {
			return nil, err
		}
		out = append(out, closure)
	}
	n := len(word.Recs)
	out = append(out, Instruction{Op: IMutual, A: n}, Instruction{Op: IStore, A: n})
	bodyInstrs, err := g.emitWords(inner, word.Body)
	if err != nil {
		return nil, err
	}
	out = append(out, bodyInstrs...)
	return append(out, Instruction{Op: IForget}), nil
}

func (g *Generator) emitCase(e env, word core.WCase) ([]Instruction, error) {
	thenInstrs, err := g.emitWords(e, word.Then)
	if err != nil {
		return nil, err
	}
	elseInstrs, err := g.emitWords(e, word.Else)
	if err != nil {
		return nil, err
	}
	out := []Instruction{
		{Op: IVariantTest, Text: word.Label},
		{Op: IOffsetIfNot, A: len(thenInstrs) + 2},
		{Op: IVariantUnpack, Text: word.Label},
	}
	out = append(out, thenInstrs...)
	out = append(out, Instruction{Op: IOffset, A: len(elseInstrs)})
	return append(out, elseInstrs...), nil
}

func (g *Generator) constructor(name string) (symbols.ConstructorEntry, error) {
	entry, ok := g.table.LookupWord(name)
	if !ok {
		return symbols.ConstructorEntry{}, fmt.Errorf("unknown constructor `%s`", name)
	}
	ctor, isCtor := entry.(symbols.ConstructorEntry)
	if !isCtor {
		return symbols.ConstructorEntry{}, fmt.Errorf("`%s` is not a constructor", name)
	}
	return ctor, nil
}

func (g *Generator) nextBlockName(prefix string) string {
	g.blockId++
	return prefix + strconv.Itoa(g.blockId)
}
