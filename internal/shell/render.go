package shell

import (
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/hailam/tapedeck/internal/note"
	"github.com/hailam/tapedeck/internal/tape"
)

// Printer renders notes for a terminal. Phase changes are yellow, resign is
// red and the caret is shown in reverse video. Writers that are not a
// terminal get plain text.
type Printer struct {
	out *termenv.Output
}

// NewPrinter returns a printer whose color profile matches w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{out: termenv.NewOutput(w)}
}

// Note renders one note.
func (p *Printer) Note(n note.Note) string {
	s := n.String()
	switch {
	case n.IsResign():
		return p.out.String(s).Foreground(p.out.Color("1")).Bold().String()
	case n.IsPhaseChange():
		return p.out.String(s).Foreground(p.out.Color("3")).Bold().String()
	}
	return s
}

// Notes renders a run of notes separated by spaces.
func (p *Printer) Notes(notes []note.Note) string {
	parts := make([]string, len(notes))
	for i, n := range notes {
		parts[i] = p.Note(n)
	}
	return strings.Join(parts, " ")
}

// Tape renders every note of a tape in position order with the caret marked:
// the note under the caret is wrapped in reverse video and preceded by '>'
// or '<' for the facing. A caret past either end is drawn on its own.
func (p *Printer) Tape(t *tape.Tape) string {
	caret := t.Caret()
	marker := ">"
	if caret.Facing() == tape.Negative {
		marker = "<"
	}

	span := t.Store().Span()
	var parts []string
	if span.IsEmpty() || caret.Position() < span.Min() {
		parts = append(parts, marker)
	}
	if !span.IsEmpty() {
		for pos := span.Min(); pos <= span.Max(); pos++ {
			n, ok := t.Store().At(pos)
			if !ok {
				continue
			}
			s := p.Note(n)
			if pos == caret.Position() {
				s = marker + p.out.String(n.String()).Reverse().String()
			}
			parts = append(parts, s)
		}
		if caret.Position() > span.Max() {
			parts = append(parts, marker)
		}
	}
	return strings.Join(parts, " ")
}
