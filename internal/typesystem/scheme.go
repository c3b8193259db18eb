package typesystem

import (
	"fmt"
	"strings"
)

// Pred is a predicate: a named type constraint applied to an argument.
type Pred struct {
	Name string
	Arg  Type
}

func (p Pred) String() string { return fmt.Sprintf("%s %s", p.Name, p.Arg) }

func (p Pred) Apply(s Subst) Pred {
	return Pred{Name: p.Name, Arg: p.Arg.Apply(s)}
}

func (p Pred) FreeTypeVariables() []TVar { return p.Arg.FreeTypeVariables() }

// Qual is a qualified type: a context of predicates over a head type.
type Qual struct {
	Context []Pred
	Head    Type
}

func (q Qual) String() string {
	if len(q.Context) == 0 {
		return q.Head.String()
	}
	parts := make([]string, len(q.Context))
	for i, p := range q.Context {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + ") => " + q.Head.String()
}

func (q Qual) Apply(s Subst) Qual {
	ctx := make([]Pred, len(q.Context))
	for i, p := range q.Context {
		ctx[i] = p.Apply(s)
	}
	return Qual{Context: ctx, Head: q.Head.Apply(s)}
}

func (q Qual) FreeTypeVariables() []TVar {
	vars := q.Head.FreeTypeVariables()
	for _, p := range q.Context {
		vars = mergeVars(vars, p.FreeTypeVariables())
	}
	return vars
}

// Scheme is an implicitly universally quantified qualified type.
type Scheme struct {
	Quantified []TVar
	Qual       Qual
}

func (s Scheme) String() string {
	if len(s.Quantified) == 0 {
		return s.Qual.String()
	}
	names := make([]string, len(s.Quantified))
	for i, v := range s.Quantified {
		names[i] = v.Name
	}
	return "forall " + strings.Join(names, " ") + ". " + s.Qual.String()
}

// MonoScheme wraps a monomorphic type as a scheme.
func MonoScheme(t Type) Scheme {
	return Scheme{Qual: Qual{Head: t}}
}

// Instantiate replaces every quantified variable with a fresh one.
func (s Scheme) Instantiate(fresh *FreshSource) Qual {
	sub := make(Subst, len(s.Quantified))
	for _, v := range s.Quantified {
		sub[v.Name] = fresh.Fresh(v.Kind())
	}
	return s.Qual.Apply(sub)
}

// Generalize quantifies the free variables of a qualified type that do
// not occur in the environment's free variable set.
func Generalize(q Qual, envFree map[string]bool) Scheme {
	var quantified []TVar
	for _, v := range q.FreeTypeVariables() {
		if !envFree[v.Name] {
			quantified = append(quantified, v)
		}
	}
	return Scheme{Quantified: quantified, Qual: q}
}
