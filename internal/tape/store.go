package tape

import (
	"errors"
	"fmt"

	"github.com/hailam/tapedeck/internal/note"
)

// ErrGap is returned when recording at a position beyond the peak of a half,
// which would leave a hole in the tape.
var ErrGap = errors.New("tape: record beyond peak")

// Store holds the notes of a tape in two independently growable halves.
// Position p >= 0 is positive[p]; position p < 0 is negative[-p-1].
// The length of each half is its peak: the only index where a record appends.
type Store struct {
	positive []note.Note
	negative []note.Note
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// NewStoreFrom builds a store from the two halves, each in index order
// (negative[0] is position -1).
func NewStoreFrom(positive, negative []note.Note) *Store {
	return &Store{
		positive: append([]note.Note(nil), positive...),
		negative: append([]note.Note(nil), negative...),
	}
}

func (s *Store) half(positive bool) *[]note.Note {
	if positive {
		return &s.positive
	}
	return &s.negative
}

// PositiveLen returns the peak of the positive half.
func (s *Store) PositiveLen() int {
	return len(s.positive)
}

// NegativeLen returns the peak of the negative half.
func (s *Store) NegativeLen() int {
	return len(s.negative)
}

// Len returns the total number of stored notes.
func (s *Store) Len() int {
	return len(s.positive) + len(s.negative)
}

// IsPeak returns true if recording at the caret would append.
func (s *Store) IsPeak(c *Caret) bool {
	positive, index := c.TruncationIndex()
	return index == len(*s.half(positive))
}

// Record writes the note at the caret position without moving the caret.
// At the peak of the half it appends; below the peak it overwrites and drops
// every note farther from zero on that half. The other half is untouched.
func (s *Store) Record(c *Caret, n note.Note) error {
	positive, index := c.TruncationIndex()
	h := s.half(positive)

	switch {
	case index == len(*h):
		*h = append(*h, n)
	case index < len(*h):
		(*h)[index] = n
		*h = (*h)[:index+1]
	default:
		return fmt.Errorf("%w: position %d, peak %d", ErrGap, c.Position(), len(*h))
	}
	return nil
}

// At returns the note at a caret position, if one is stored there.
func (s *Store) At(position int) (note.Note, bool) {
	positive, index := fold(position)
	h := *s.half(positive)
	if index >= len(h) {
		return note.Note{}, false
	}
	return h[index], true
}

// Fetch advances the caret and returns the note at the position it left.
// A false result is the normal end-of-tape signal; the caret has still moved.
func (s *Store) Fetch(c *Caret) (note.Note, bool) {
	return s.At(c.Advance())
}

// DeleteAt removes the note at the caret position and every note farther from
// zero on that half. It returns the note that was at the caret, if any.
// The caret does not move.
func (s *Store) DeleteAt(c *Caret) (note.Note, bool) {
	positive, index := c.TruncationIndex()
	h := s.half(positive)
	if index >= len(*h) {
		return note.Note{}, false
	}
	removed := (*h)[index]
	*h = (*h)[:index]
	return removed, true
}

// Slice returns the notes at positions [start, end) in ascending order,
// stitching the negative and positive halves across zero. Positions with no
// stored note are skipped.
func (s *Store) Slice(start, end int) []note.Note {
	if end <= start {
		return nil
	}
	out := make([]note.Note, 0, end-start)

	// Negative part: positions start..min(end,0)-1 are negative indexes
	// -start-1 down to -min(end,0).
	if start < 0 {
		stop := min(end, 0)
		for p := start; p < stop; p++ {
			if idx := -p - 1; idx < len(s.negative) {
				out = append(out, s.negative[idx])
			}
		}
	}

	if end > 0 {
		from := max(start, 0)
		to := min(end, len(s.positive))
		if from < to {
			out = append(out, s.positive[from:to]...)
		}
	}
	return out
}

// Span returns the interval of occupied positions.
func (s *Store) Span() ClosedInterval {
	ci := ClosedInterval{}
	if len(s.negative) > 0 {
		ci.Add(unfold(false, len(s.negative)-1))
		ci.Add(-1)
	}
	if len(s.positive) > 0 {
		ci.Add(0)
		ci.Add(len(s.positive) - 1)
	}
	return ci
}

// Notes returns every stored note in ascending position order.
func (s *Store) Notes() []note.Note {
	return s.Slice(-len(s.negative), len(s.positive))
}

// Halves returns copies of the positive and negative halves in index order.
func (s *Store) Halves() (positive, negative []note.Note) {
	return append([]note.Note(nil), s.positive...), append([]note.Note(nil), s.negative...)
}

// String returns the half lengths.
func (s *Store) String() string {
	return fmt.Sprintf("+Len: %d, -Len: %d.", len(s.positive), len(s.negative))
}
