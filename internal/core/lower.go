package core

import (
	"github.com/stavelang/stave/internal/analyzer"
)

// Lower translates the elaborated tree into the core IR. Placeholders
// are gone by this stage; the work left is classifying structure words,
// fusing let-bound constructor matches into destructs, and computing
// free-variable lists for closures.
func Lower(typed *analyzer.TypedProgram) *Program {
	p := &Program{}
	for _, f := range typed.Funcs {
		p.Funcs = append(p.Funcs, Func{Name: f.Name, Body: lowerWords(f.Words)})
	}
	p.Main = lowerWords(typed.Main)
	return p
}

func lowerWords(words []analyzer.TWord) []Word {
	var out []Word
	for _, w := range words {
		out = append(out, lowerWord(w)...)
	}
	return out
}

func lowerWord(w analyzer.TWord) []Word {
	switch word := w.(type) {
	case analyzer.TIntLit:
		return []Word{WInteger{Digits: word.Digits, Size: word.Size}}
	case analyzer.TFloatLit:
		return []Word{WFloat{Digits: word.Digits, Size: word.Size}}
	case analyzer.TBoolLit:
		return []Word{WBool{Value: word.Value}}
	case analyzer.TStringLit:
		return []Word{WString{Value: word.Value}}
	case analyzer.TCallVar:
		return []Word{WCallVar{Name: word.Name}}
	case analyzer.TValueVar:
		return []Word{WValueVar{Name: word.Name}}
	case analyzer.TOperatorVar:
		return []Word{WOperatorVar{Name: word.Name}}
	case analyzer.TConstructorVar:
		return []Word{WConstructorVar{Name: word.Name}}
	case analyzer.TTestConstructorVar:
		return []Word{WTestConstructorVar{Name: word.Name}}
	case analyzer.TPrimVar:
		return []Word{WPrimVar{Name: word.Name}}
	case analyzer.TDo:
		return []Word{WDo{}}
	case analyzer.TIf:
		return []Word{WIf{Then: lowerWords(word.Then), Else: lowerWords(word.Else)}}
	case analyzer.TWhile:
		return []Word{WWhile{Cond: lowerWords(word.Cond), Body: lowerWords(word.Body)}}
	case analyzer.TVars:
		return []Word{WVars{Bindings: word.Bindings, Body: lowerWords(word.Body)}}
	case analyzer.TMatch:
		// A let-bound constructor pattern unpacks the structure and
		// stores the fields.
		return []Word{
			WDestruct{Name: word.CtorName},
			WVars{Bindings: word.Bindings, Body: lowerWords(word.Then)},
		}
	case analyzer.TFunLit:
		body := lowerWords(word.Body)
		return []Word{WClosure{Free: freeValueNames(body, nil), Body: body}}
	case analyzer.THandle:
		handlers := make([]Handler, len(word.Handlers))
		for i, h := range word.Handlers {
			handlers[i] = Handler{Name: h.Name, Params: h.Params, Body: lowerWords(h.Body)}
		}
		return []Word{WHandle{
			HandleId: word.HandleId,
			Params:   word.Params,
			Body:     lowerWords(word.Body),
			Handlers: handlers,
			Ret:      lowerWords(word.Ret),
		}}
	case analyzer.TRecordExtend:
		return []Word{WRecordExtend{Label: word.Label}}
	case analyzer.TRecordSelect:
		return []Word{WRecordSelect{Label: word.Label}}
	case analyzer.TRecordRestrict:
		return []Word{WRecordRestrict{Label: word.Label}}
	case analyzer.TVariantLit:
		return []Word{WVariant{Label: word.Label}}
	case analyzer.TCase:
		return []Word{WCase{Label: word.Label, Then: lowerWords(word.Then), Else: lowerWords(word.Else)}}
	case analyzer.TWithPermission:
		return []Word{WWithPermission{Names: word.Names, Body: lowerWords(word.Body)}}
	default:
		return nil
	}
}

// freeValueNames collects the value variables a word sequence reads
// that are not bound within it, in first-use order.
func freeValueNames(words []Word, bound map[string]bool) []string {
	seen := map[string]bool{}
	var free []string

	var walk func(ws []Word, bound map[string]bool)
	note := func(name string, bound map[string]bool) {
		if !bound[name] && !seen[name] {
			seen[name] = true
			free = append(free, name)
		}
	}
	extend := func(bound map[string]bool, names []string) map[string]bool {
		inner := make(map[string]bool, len(bound)+len(names))
		for k := range bound {
			inner[k] = true
		}
		for _, n := range names {
			inner[n] = true
		}
		return inner
	}

	walk = func(ws []Word, bound map[string]bool) {
		for _, w := range ws {
			switch word := w.(type) {
			case WValueVar:
				note(word.Name, bound)
			case WCallVar:
				// A call may target a closure stored in a slot.
				note(word.Name, bound)
			case WIf:
				walk(word.Then, bound)
				walk(word.Else, bound)
			case WWhile:
				walk(word.Cond, bound)
				walk(word.Body, bound)
			case WVars:
				walk(word.Body, extend(bound, word.Bindings))
			case WLetRecs:
				names := make([]string, len(word.Recs))
				for i, r := range word.Recs {
					names[i] = r.Name
				}
				inner := extend(bound, names)
				for _, r := range word.Recs {
					walk(r.Body, inner)
				}
				walk(word.Body, inner)
			case WClosure:
				walk(word.Body, bound)
			case WHandle:
				inner := extend(bound, word.Params)
				walk(word.Body, inner)
				walk(word.Ret, inner)
				for _, h := range word.Handlers {
					walk(h.Body, extend(inner, append([]string{"resume"}, h.Params...)))
				}
			case WCase:
				walk(word.Then, bound)
				walk(word.Else, bound)
			case WWithPermission:
				walk(word.Body, bound)
			}
		}
	}
	walk(words, bound)
	return free
}
