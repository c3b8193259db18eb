package diagnostics

import (
	"strings"
	"testing"

	"github.com/stavelang/stave/internal/ast"
)

func TestErrorFormat(t *testing.T) {
	err := NewError(ErrT001, ast.Pos{File: "lib.stv", Line: 3, Column: 7}, "unbound name `%s`", "foo")
	want := "lib.stv:3:7: T001: unbound name `foo`"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestFormatPlain(t *testing.T) {
	var sb strings.Builder
	Format(&sb, []*DiagnosticError{
		NewError(ErrU001, ast.Pos{File: "a.stv", Line: 1, Column: 1}, "cannot unify"),
		NewError(ErrC001, ast.Pos{File: "a.stv", Line: 2, Column: 5}, "non-confluent context"),
	})
	out := sb.String()
	if strings.Contains(out, "\x1b[") {
		t.Error("non-terminal writer must not receive color codes")
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 lines, got %d: %q", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "a.stv:1:1: U001:") {
		t.Errorf("line = %q", lines[0])
	}
}
