package vm

import (
	"github.com/stavelang/stave/internal/config"
	"github.com/stavelang/stave/internal/core"
)

// genClosure performs closure conversion for one body:
//
//  1. bump the block counter and derive the block name;
//  2. resolve each free variable to its current (frame, entry) pair;
//  3. prepend the callAppend entries (for handlers, the handled params
//     plus the implicit resume continuation);
//  4. emit the body against a fresh environment whose innermost frame
//     holds the closed entries, terminated by IReturn;
//  5. return the IClosure instruction for the call site.
//
// Free names that are not stored in any frame are top-level words; they
// resolve through ICall and close over nothing.
func (g *Generator) genClosure(prefix string, callAppend []EnvEntry, free []string, args int, body []core.Word, outer env) (Instruction, error) {
	name := g.nextBlockName(prefix)

	var finds []Find
	var closed frame
	closed = append(closed, callAppend...)
	for _, freeName := range free {
		f, i, entry, ok := outer.find(freeName)
		if !ok {
			continue
		}
		finds = append(finds, Find{Frame: f, Entry: i})
		closed = append(closed, entry)
	}

	instrs, err := g.emitWords(env{closed}, body)
	if err != nil {
		return Instruction{}, err
	}
	instrs = append(instrs, Instruction{Op: IReturn})
	g.aux = append(g.aux, Block{Name: name, Instrs: instrs})

	return Instruction{Op: IClosure, Label: name, A: args, Finds: finds}, nil
}

// emitHandle lowers a handle block. The return closure is emitted
// first to occupy the slot the VM expects; handler closures follow in
// reverse declared order because the VM indexes them top-down on the
// handler stack. The after-offset of IHandle equals the length of the
// handled body (terminated by IComplete) plus one.
func (g *Generator) emitHandle(e env, word core.WHandle) ([]Instruction, error) {
	var out []Instruction

	retClosure, err := g.genClosure(config.ReturnPrefix, nil, referencedNames(word.Ret, nil), 0, word.Ret, e)
	if err != nil {
		return nil, err
	}
	out = append(out, retClosure)

	for i := len(word.Handlers) - 1; i >= 0; i-- {
		h := word.Handlers[i]
		callAppend := make([]EnvEntry, 0, len(word.Params)+len(h.Params)+1)
		for _, p := range word.Params {
			callAppend = append(callAppend, EnvEntry{Name: p, Kind: EnvValue})
		}
		for _, p := range h.Params {
			callAppend = append(callAppend, EnvEntry{Name: p, Kind: EnvValue})
		}
		callAppend = append(callAppend, EnvEntry{Name: config.ResumeWordName, Kind: EnvContinuation})

		bound := map[string]bool{}
		for _, entry := range callAppend {
			bound[entry.Name] = true
		}
		closure, err := g.genClosure(config.HandlerPrefix, callAppend,
			referencedNames(h.Body, bound), len(h.Params), h.Body, e)
		if err != nil {
			return nil, err
		}
		out = append(out, closure)
	}

	paramFrame := make(frame, len(word.Params))
	for i, p := range word.Params {
		paramFrame[i] = EnvEntry{Name: p, Kind: EnvValue}
	}
	bodyInstrs, err := g.emitWords(e.push(paramFrame), word.Body)
	if err != nil {
		return nil, err
	}
	bodyInstrs = append(bodyInstrs, Instruction{Op: IComplete})

	out = append(out, Instruction{
		Op: IHandle,
		A:  word.HandleId,
		B:  len(bodyInstrs) + 1,
		C:  len(word.Params),
		D:  len(word.Handlers),
	})
	return append(out, bodyInstrs...), nil
}

// referencedNames collects names a body reads, in first-use order,
// skipping those bound within it. It feeds the free lists of handler
// and return closures, whose free variables are not precomputed by
// lowering.
func referencedNames(words []core.Word, bound map[string]bool) []string {
	seen := map[string]bool{}
	var names []string

	var walk func(ws []core.Word, bound map[string]bool)
	note := func(name string, bound map[string]bool) {
		if !bound[name] && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	extend := func(bound map[string]bool, more []string) map[string]bool {
		inner := make(map[string]bool, len(bound)+len(more))
		for k := range bound {
			inner[k] = true
		}
		for _, n := range more {
			inner[n] = true
		}
		return inner
	}

	walk = func(ws []core.Word, bound map[string]bool) {
		for _, w := range ws {
			switch word := w.(type) {
			case core.WValueVar:
				note(word.Name, bound)
			case core.WCallVar:
				note(word.Name, bound)
			case core.WIf:
				walk(word.Then, bound)
				walk(word.Else, bound)
			case core.WWhile:
				walk(word.Cond, bound)
				walk(word.Body, bound)
			case core.WVars:
				walk(word.Body, extend(bound, word.Bindings))
			case core.WLetRecs:
				recNames := make([]string, len(word.Recs))
				for i, r := range word.Recs {
					recNames[i] = r.Name
				}
				inner := extend(bound, recNames)
				for _, r := range word.Recs {
					walk(r.Body, inner)
				}
				walk(word.Body, inner)
			case core.WClosure:
				walk(word.Body, bound)
			case core.WHandle:
				inner := extend(bound, word.Params)
				walk(word.Body, inner)
				walk(word.Ret, inner)
				for _, h := range word.Handlers {
					walk(h.Body, extend(inner, append([]string{config.ResumeWordName}, h.Params...)))
				}
			case core.WCase:
				walk(word.Then, bound)
				walk(word.Else, bound)
			case core.WWithPermission:
				walk(word.Body, bound)
			}
		}
	}
	walk(words, bound)
	return names
}
