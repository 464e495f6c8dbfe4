package sqlgen

import (
	"strings"
)

const indentUnit = "    "

type indentedWriter struct {
	b      strings.Builder
	indent int
}

func (w *indentedWriter) Line(parts ...string) {
	for i := 0; i < w.indent; i++ {
		w.b.WriteString(indentUnit)
	}
	for _, p := range parts {
		w.b.WriteString(p)
	}
	w.b.WriteByte('\n')
}

func (w *indentedWriter) Indent() {
	w.indent++
}

func (w *indentedWriter) Dedent() {
	if w.indent > 0 {
		w.indent--
	}
}

func (w *indentedWriter) String() string {
	return strings.TrimRight(w.b.String(), "\n")
}

// Where writes conditions as WHERE/AND lines, skipping empty ones.
func (w *indentedWriter) Where(conditions ...string) {
	first := true
	for _, c := range conditions {
		if c == "" {
			continue
		}
		if first {
			w.Line("WHERE ", c)
			first = false
			continue
		}
		w.Line("  AND ", c)
	}
}
