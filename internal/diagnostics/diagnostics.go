package diagnostics

import (
	"fmt"

	"github.com/stavelang/stave/internal/ast"
)

// Code is a stable diagnostic identifier. Codes never change meaning
// between releases; tests and editor integrations match on them.
type Code string

const (
	// Kind and unification errors.
	ErrK001 Code = "K001" // kind mismatch
	ErrU001 Code = "U001" // rigid-rigid mismatch
	ErrU002 Code = "U002" // occurs check
	// Inference errors.
	ErrT001 Code = "T001" // unbound name
	ErrT002 Code = "T002" // ambiguous overload
	ErrT003 Code = "T003" // heap escape
	ErrT004 Code = "T004" // main signature mismatch
	ErrT005 Code = "T005" // type mismatch (general unification failure)
	// CHR errors.
	ErrC001 Code = "C001" // non-confluent context
	// Elaboration errors.
	ErrE001 Code = "E001" // instance not found
	// Code generation errors.
	ErrG001 Code = "G001" // unknown primitive
)

// DiagnosticError is the uniform user-facing failure of the core. The
// position is whatever the parser attached to the offending node.
type DiagnosticError struct {
	Code     Code
	Position ast.Pos
	Message  string
}

func (e *DiagnosticError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Position, e.Code, e.Message)
}

// NewError builds a diagnostic at a position.
func NewError(code Code, pos ast.Pos, format string, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{Code: code, Position: pos, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a position and code to an underlying error, preserving
// its message.
func Wrap(code Code, pos ast.Pos, err error) *DiagnosticError {
	return &DiagnosticError{Code: code, Position: pos, Message: err.Error()}
}
