package tape

import (
	"fmt"

	"github.com/hailam/tapedeck/internal/note"
)

// Tape is one game line: a note store addressed by its own caret.
// A new tape is empty, faces positive and sits at position 0.
type Tape struct {
	store *Store
	caret Caret
}

// New creates an empty tape.
func New() *Tape {
	return &Tape{store: NewStore(), caret: NewCaret()}
}

// FromStore wraps an existing store with a fresh caret at position 0.
func FromStore(s *Store) *Tape {
	return &Tape{store: s, caret: NewCaret()}
}

// Rewind puts the caret back at position 0 facing positive.
func (t *Tape) Rewind() {
	t.caret = NewCaret()
}

// Store returns the underlying note store.
func (t *Tape) Store() *Store {
	return t.store
}

// Caret returns the tape's caret.
func (t *Tape) Caret() *Caret {
	return &t.caret
}

// Fetch reads the note under the caret and advances.
func (t *Tape) Fetch() (note.Note, bool) {
	return t.store.Fetch(&t.caret)
}

// Len returns the number of stored notes.
func (t *Tape) Len() int {
	return t.store.Len()
}

// Ply returns the move number implied by the nearest phase change behind the
// caret that carries a known ply. Phase changes written as "|" are skipped.
// With no such note the ply is 1.
func (t *Tape) Ply() int {
	span := t.store.Span()
	if span.IsEmpty() {
		return 1
	}

	if t.caret.Facing() == Positive {
		for p := min(t.caret.Position()-1, span.Max()); p >= span.Min(); p-- {
			if ply, ok := t.plyAt(p); ok {
				return ply
			}
		}
		return 1
	}

	for p := max(t.caret.Position()+1, span.Min()); p <= span.Max(); p++ {
		if ply, ok := t.plyAt(p); ok {
			return ply
		}
	}
	return 1
}

func (t *Tape) plyAt(position int) (int, bool) {
	n, ok := t.store.At(position)
	if !ok {
		return 0, false
	}
	return n.PhasePly()
}

// Sign returns every note of the tape in position order as sign form.
func (t *Tape) Sign() string {
	return note.Join(t.store.Notes())
}

// String returns a debug summary.
func (t *Tape) String() string {
	return fmt.Sprintf("%s %s Ply: %d", t.caret.String(), t.store.String(), t.Ply())
}
