package typesystem

import (
	"fmt"
	"strconv"
)

// FreshSource generates type variables that never collide with renamed
// user identifiers. A single monotonic counter keeps generated names
// deterministic for a fixed input; the kind picks the prefix.
type FreshSource struct {
	counter uint64
}

// NewFreshSource returns a source starting at zero.
func NewFreshSource() *FreshSource {
	return &FreshSource{}
}

// Fresh returns a new variable of the given kind.
func (f *FreshSource) Fresh(k Kind) TVar {
	f.counter++
	name := VarPrefix(k) + "*" + strconv.FormatUint(f.counter, 10)
	return TVar{Name: name, KindVal: k}
}

// FreshName returns a generated non-type name (block labels, dictionary
// parameters) sharing the same counter so all generated names are
// globally ordered.
func (f *FreshSource) FreshName(prefix string) string {
	f.counter++
	return prefix + strconv.FormatUint(f.counter, 10)
}

// AssertUserName panics when a supposedly user-provided name could be
// confused with a generated one. The renamer guarantees user names never
// contain '*'.
func AssertUserName(name string) {
	for _, r := range name {
		if r == '*' {
			panic(fmt.Sprintf("user name %q collides with generated namespace", name))
		}
	}
}
