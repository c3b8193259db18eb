package typesystem

import (
	"sort"
	"strings"
)

// Subst maps type variable names to types. Substitutions are immutable
// snapshots; Compose never mutates its operands. After solving, a
// substitution is idempotent and total over its domain.
type Subst map[string]Type

// Bind produces a single-entry substitution, checking that the bound
// type's kind matches the variable's kind.
func Bind(v TVar, t Type) (Subst, error) {
	if !v.Kind().Equal(t.Kind()) {
		return nil, NewKindMismatchError(v, t, v.Kind(), t.Kind())
	}
	return Subst{v.Name: t}, nil
}

// Compose returns a substitution equivalent to applying other first and
// the receiver second.
func (s Subst) Compose(other Subst) Subst {
	result := make(Subst, len(s)+len(other))
	for name, t := range other {
		result[name] = t.Apply(s)
	}
	for name, t := range s {
		if _, ok := result[name]; !ok {
			result[name] = t
		}
	}
	return result
}

// Domain returns the substituted names in sorted order.
func (s Subst) Domain() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s Subst) String() string {
	parts := make([]string, 0, len(s))
	for _, name := range s.Domain() {
		parts = append(parts, name+" -> "+s[name].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ApplyChecked applies the substitution and verifies kind preservation.
// A kind change means a substitution entry was ill-kinded.
func ApplyChecked(s Subst, t Type) (Type, error) {
	applied := t.Apply(s)
	if !applied.Kind().Equal(t.Kind()) {
		return nil, NewKindMismatchError(t, applied, t.Kind(), applied.Kind())
	}
	return applied, nil
}
