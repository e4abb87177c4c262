package tape

import (
	"github.com/hailam/tapedeck/internal/note"
)

// Move is a contiguous run of notes on a tape, closed on the right by a
// phase change. Only the last move of a tape may be open.
type Move struct {
	// Span is the interval of caret positions the move occupies.
	Span ClosedInterval
	// Notes holds the run in traversal order.
	Notes []note.Note
}

// NewMove builds a move from notes that are not (yet) on any tape.
func NewMove(notes ...note.Note) Move {
	return Move{Notes: notes}
}

// ParseMove parses a run of note signs into a move.
func ParseMove(s string) (Move, error) {
	notes, err := note.ParseLine(s)
	if err != nil {
		return Move{}, err
	}
	return NewMove(notes...), nil
}

// Len returns the number of notes in the move.
func (m Move) Len() int {
	return len(m.Notes)
}

// IsEmpty returns true if the move holds no notes.
func (m Move) IsEmpty() bool {
	return len(m.Notes) == 0
}

// IsClosed returns true if the move ends with a phase change.
func (m Move) IsClosed() bool {
	return len(m.Notes) > 0 && m.Notes[len(m.Notes)-1].IsPhaseChange()
}

// String returns the move as space separated note signs.
func (m Move) String() string {
	return note.Join(m.Notes)
}

// MoveAt reads the notes a span covers from a store, in ascending order.
func MoveAt(s *Store, span ClosedInterval) Move {
	if span.IsEmpty() {
		return Move{}
	}
	return Move{Span: span, Notes: s.Slice(span.Min(), span.Max()+1)}
}
