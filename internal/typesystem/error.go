package typesystem

import "fmt"

// KindMismatchError indicates a substitution or application violated
// kinding. This is fatal: the core never constructs ill-kinded types on
// purpose.
type KindMismatchError struct {
	Left, Right Type
	LeftKind    Kind
	RightKind   Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("kind mismatch: %s : %s vs %s : %s", e.Left, e.LeftKind, e.Right, e.RightKind)
}

func NewKindMismatchError(l, r Type, lk, rk Kind) *KindMismatchError {
	return &KindMismatchError{Left: l, Right: r, LeftKind: lk, RightKind: rk}
}

// RigidRigidMismatchError indicates two distinct constants were unified.
type RigidRigidMismatchError struct {
	Left, Right Type
}

func (e *RigidRigidMismatchError) Error() string {
	return fmt.Sprintf("cannot unify %s with %s", e.Left, e.Right)
}

// OccursCheckError indicates an infinite type was attempted.
type OccursCheckError struct {
	Var  TVar
	Type Type
}

func (e *OccursCheckError) Error() string {
	return fmt.Sprintf("occurs check failed: %s occurs in %s", e.Var.Name, e.Type)
}
