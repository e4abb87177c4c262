package tape

import (
	"fmt"

	"github.com/hailam/tapedeck/internal/note"
)

// Editor records notes onto a tape and deletes them again. It only touches
// the tape; board state is never involved.
type Editor struct {
	tape *Tape
}

// NewEditor returns an editor for the tape.
func NewEditor(t *Tape) *Editor {
	return &Editor{tape: t}
}

// Tape returns the edited tape.
func (e *Editor) Tape() *Tape {
	return e.tape
}

// RecordNote writes the note at the caret (append at the peak, otherwise
// overwrite and truncate what lies beyond) and advances the caret.
func (e *Editor) RecordNote(n note.Note) error {
	if err := e.tape.store.Record(&e.tape.caret, n); err != nil {
		return err
	}
	e.tape.caret.Advance()
	return nil
}

// RecordNotes records each note in order, stopping at the first error.
func (e *Editor) RecordNotes(notes ...note.Note) error {
	for i, n := range notes {
		if err := e.RecordNote(n); err != nil {
			return fmt.Errorf("record note %d (%s): %w", i, n, err)
		}
	}
	return nil
}

// RecordMove records every note of the move in order.
func (e *Editor) RecordMove(m Move) error {
	return e.RecordNotes(m.Notes...)
}

// DeleteOneNote removes the note at the caret and everything beyond it on
// that half. The caret does not move.
func (e *Editor) DeleteOneNote() (note.Note, bool) {
	return e.tape.store.DeleteAt(&e.tape.caret)
}

// Ply returns the tape's current ply.
func (e *Editor) Ply() int {
	return e.tape.Ply()
}
