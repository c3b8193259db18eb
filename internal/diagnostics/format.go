package diagnostics

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	ansiRed   = "\x1b[31m"
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

// Format renders diagnostics one per line. The code is highlighted when
// the writer is a terminal.
func Format(w io.Writer, errs []*DiagnosticError) {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	var sb strings.Builder
	for _, e := range errs {
		sb.Reset()
		sb.WriteString(e.Position.String())
		sb.WriteString(": ")
		if color {
			sb.WriteString(ansiBold)
			sb.WriteString(ansiRed)
		}
		sb.WriteString(string(e.Code))
		if color {
			sb.WriteString(ansiReset)
		}
		sb.WriteString(": ")
		sb.WriteString(e.Message)
		sb.WriteString("\n")
		io.WriteString(w, sb.String())
	}
}
