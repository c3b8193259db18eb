package analyzer

import "github.com/stavelang/stave/internal/ast"

// countOccurrences counts uses of a bound name in an expression. The
// two branches of a conditional are disjoint occurrence contexts: a
// name used once in each branch is still used once. Uses inside loops
// and function literals may repeat at runtime, so any occurrence there
// counts as a reuse.
func countOccurrences(name string, e ast.Expr) int {
	total := 0
	for _, w := range e {
		total += countInWord(name, w)
	}
	return total
}

func countInWord(name string, w ast.Word) int {
	switch word := w.(type) {
	case ast.Ident:
		if word.Name == name {
			return 1
		}
	case ast.Block:
		shadowed := false
		n := 0
		for _, let := range word.Lets {
			if shadowed {
				break
			}
			n += countOccurrences(name, let.Value)
			if patternBinds(name, let.Pat) {
				shadowed = true
			}
		}
		if !shadowed {
			n += countOccurrences(name, word.Body)
		}
		return n
	case ast.If:
		return maxInt(countOccurrences(name, word.Then), countOccurrences(name, word.Else))
	case ast.Case:
		return maxInt(countOccurrences(name, word.Then), countOccurrences(name, word.Else))
	case ast.While:
		if countOccurrences(name, word.Cond)+countOccurrences(name, word.Body) > 0 {
			return 2
		}
	case ast.FunLit:
		if countOccurrences(name, word.Body) > 0 {
			return 2
		}
	case ast.Handle:
		n := countOccurrences(name, word.Body) + countOccurrences(name, word.Ret)
		for _, h := range word.Handlers {
			n += countOccurrences(name, h.Body)
		}
		return n
	case ast.WithState:
		return countOccurrences(name, word.Body)
	case ast.WithPermission:
		return countOccurrences(name, word.Body)
	}
	return 0
}

func patternBinds(name string, p ast.Pattern) bool {
	switch pat := p.(type) {
	case ast.PVar:
		return pat.Name == name
	case ast.PCtor:
		for _, a := range pat.Args {
			if patternBinds(name, a) {
				return true
			}
		}
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
