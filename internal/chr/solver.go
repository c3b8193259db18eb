// Package chr implements the constraint-handling-rule solver that
// reduces qualified-type contexts to normal form. Rules are declared by
// the user (simplification or propagation rules); overload declarations
// add none (simplification against instance heads happens during
// elaboration; here only predicate-level rewriting is performed).
package chr

import (
	"sort"
	"strings"

	"github.com/stavelang/stave/internal/typesystem"
)

// RuleKind distinguishes simplification (heads are replaced) from
// propagation (heads are kept, body is added once).
type RuleKind int

const (
	Simplification RuleKind = iota + 1
	Propagation
)

// Rule is one constraint handling rule. Head variables are templates
// bound by matching against the store.
type Rule struct {
	Name  string
	Kind  RuleKind
	Heads []typesystem.Pred
	Body  []typesystem.Pred
}

// Solution is one normal form of the store together with the
// substitution accumulated by the rewrites that reached it.
type Solution struct {
	Residual []typesystem.Pred
	Subst    typesystem.Subst
}

type state struct {
	store []typesystem.Pred
	subst typesystem.Subst
	fired map[string]bool
}

// Solve rewrites the predicate store until no rule fires, exploring
// every rule-choice order. All distinct normal forms are returned; the
// caller rejects a non-singleton result as a non-confluent context.
func Solve(preds []typesystem.Pred, rules []Rule) []Solution {
	start := state{
		store: normalize(preds),
		subst: typesystem.Subst{},
		fired: map[string]bool{},
	}

	var solutions []Solution
	seenSolutions := map[string]bool{}
	visited := map[string]bool{}

	var walk func(s state)
	walk = func(s state) {
		key := stateKey(s)
		if visited[key] {
			return
		}
		visited[key] = true

		firings := applicable(s, rules)
		if len(firings) == 0 {
			solKey := storeKey(s.store)
			if !seenSolutions[solKey] {
				seenSolutions[solKey] = true
				solutions = append(solutions, Solution{Residual: s.store, Subst: s.subst})
			}
			return
		}
		for _, f := range firings {
			walk(fire(s, f))
		}
	}
	walk(start)
	return solutions
}

type firing struct {
	rule    Rule
	indices []int
	sub     typesystem.Subst
}

// applicable finds every (rule, head subset) match in deterministic
// order. Propagation firings are filtered through the fired memo so a
// rule never re-adds its body for the same heads.
func applicable(s state, rules []Rule) []firing {
	var result []firing
	for _, rule := range rules {
		for _, m := range matchHeads(rule.Heads, s.store) {
			f := firing{rule: rule, indices: m.indices, sub: m.sub}
			if rule.Kind == Propagation && s.fired[firingKey(f, s.store)] {
				continue
			}
			result = append(result, f)
		}
	}
	return result
}

type headMatch struct {
	indices []int
	sub     typesystem.Subst
}

// matchHeads matches the rule heads against distinct store elements,
// backtracking over candidates.
func matchHeads(heads []typesystem.Pred, store []typesystem.Pred) []headMatch {
	var results []headMatch
	used := make([]bool, len(store))
	var rec func(h int, acc typesystem.Subst, indices []int)
	rec = func(h int, acc typesystem.Subst, indices []int) {
		if h == len(heads) {
			out := make(typesystem.Subst, len(acc))
			for k, v := range acc {
				out[k] = v
			}
			results = append(results, headMatch{indices: append([]int{}, indices...), sub: out})
			return
		}
		template := heads[h].Apply(acc)
		for i, p := range store {
			if used[i] {
				continue
			}
			sub, ok := typesystem.MatchPred(template, p)
			if !ok {
				continue
			}
			used[i] = true
			rec(h+1, sub.Compose(acc), append(indices, i))
			used[i] = false
		}
	}
	rec(0, typesystem.Subst{}, nil)
	return results
}

func fire(s state, f firing) state {
	next := state{
		subst: f.sub.Compose(s.subst),
		fired: map[string]bool{},
	}
	for k := range s.fired {
		next.fired[k] = true
	}

	matched := map[int]bool{}
	for _, i := range f.indices {
		matched[i] = true
	}

	var store []typesystem.Pred
	for i, p := range s.store {
		if f.rule.Kind == Simplification && matched[i] {
			continue
		}
		store = append(store, p.Apply(next.subst))
	}
	for _, p := range f.rule.Body {
		store = append(store, p.Apply(f.sub).Apply(next.subst))
	}
	if f.rule.Kind == Propagation {
		next.fired[firingKey(f, s.store)] = true
	}
	next.store = normalize(store)
	return next
}

// normalize sorts and deduplicates the store so initial predicate order
// never affects the reachable normal forms and state keys are canonical.
func normalize(preds []typesystem.Pred) []typesystem.Pred {
	sorted := append([]typesystem.Pred{}, preds...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})
	var out []typesystem.Pred
	for i, p := range sorted {
		if i > 0 && p.String() == sorted[i-1].String() {
			continue
		}
		out = append(out, p)
	}
	return out
}

func storeKey(preds []typesystem.Pred) string {
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = p.String()
	}
	return strings.Join(parts, ";")
}

func firingKey(f firing, store []typesystem.Pred) string {
	parts := make([]string, 0, len(f.indices)+1)
	parts = append(parts, f.rule.Name)
	for _, i := range f.indices {
		parts = append(parts, store[i].String())
	}
	return strings.Join(parts, "|")
}

func stateKey(s state) string {
	fired := make([]string, 0, len(s.fired))
	for k := range s.fired {
		fired = append(fired, k)
	}
	sort.Strings(fired)
	return storeKey(s.store) + "#" + strings.Join(fired, ",")
}
