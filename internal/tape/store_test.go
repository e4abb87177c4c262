package tape

import (
	"errors"
	"reflect"
	"testing"

	"github.com/hailam/tapedeck/internal/board"
	"github.com/hailam/tapedeck/internal/note"
)

// cells returns one note per square sign, for compact fixtures.
func cells(t *testing.T, signs ...string) []note.Note {
	t.Helper()
	notes := make([]note.Note, len(signs))
	for i, s := range signs {
		sq, err := board.ParseSquare(s)
		if err != nil {
			t.Fatalf("ParseSquare(%q): %v", s, err)
		}
		notes[i] = note.AtSquare(sq)
	}
	return notes
}

func TestAppendMonotonicity(t *testing.T) {
	for _, f := range []Facing{Positive, Negative} {
		s := NewStore()
		c := NewCaret()
		if f == Negative {
			// Start on the negative side of zero.
			c = Caret{facing: Negative, position: -1}
		}

		notes := cells(t, "1a", "2b", "3c", "4d", "5e")
		for i, n := range notes {
			if !s.IsPeak(&c) {
				t.Fatalf("%v: note %d not at peak", f, i)
			}
			if err := s.Record(&c, n); err != nil {
				t.Fatalf("%v: Record failed: %v", f, err)
			}
			c.Advance()
		}

		if s.Len() != len(notes) {
			t.Errorf("%v: Len() = %d, want %d", f, s.Len(), len(notes))
		}
		if f == Positive && (s.PositiveLen() != len(notes) || s.NegativeLen() != 0) {
			t.Errorf("positive: halves = %d/%d", s.PositiveLen(), s.NegativeLen())
		}
		if f == Negative && (s.NegativeLen() != len(notes) || s.PositiveLen() != 0) {
			t.Errorf("negative: halves = %d/%d", s.PositiveLen(), s.NegativeLen())
		}
	}
}

func TestDivergeAndTruncate(t *testing.T) {
	s := NewStore()
	c := NewCaret()
	abcd := cells(t, "1a", "2b", "3c", "4d")
	for _, n := range abcd {
		if err := s.Record(&c, n); err != nil {
			t.Fatal(err)
		}
		c.Advance()
	}

	// Also put something on the negative half; it must survive.
	neg := Caret{facing: Negative, position: -1}
	if err := s.Record(&neg, cells(t, "9i")[0]); err != nil {
		t.Fatal(err)
	}

	b2 := cells(t, "8h")[0]
	at := NewCaretAt(1)
	if err := s.Record(&at, b2); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	want := []note.Note{abcd[0], b2}
	positive, negative := s.Halves()
	if !reflect.DeepEqual(positive, want) {
		t.Errorf("positive = %s, want %s", note.Join(positive), note.Join(want))
	}
	if len(negative) != 1 {
		t.Errorf("negative half changed: %s", note.Join(negative))
	}
}

func TestOverwriteShortensByTail(t *testing.T) {
	for index := 0; index < 6; index++ {
		s := NewStoreFrom(cells(t, "1a", "2a", "3a", "4a", "5a", "6a"), nil)
		old := s.PositiveLen()
		c := NewCaretAt(index)
		if err := s.Record(&c, note.TurnOver()); err != nil {
			t.Fatal(err)
		}
		// Shortened by old-index-1 dropped notes; the overwritten slot remains.
		if want := old - (old - index - 1); s.PositiveLen() != want {
			t.Errorf("index %d: len = %d, want %d", index, s.PositiveLen(), want)
		}
	}
}

func TestRecordGap(t *testing.T) {
	s := NewStore()
	c := NewCaretAt(2)
	if err := s.Record(&c, note.Rotate()); !errors.Is(err, ErrGap) {
		t.Errorf("Record beyond peak err = %v, want ErrGap", err)
	}
}

func TestFetchEndOfTape(t *testing.T) {
	s := NewStoreFrom(cells(t, "1a", "2a"), cells(t, "9i"))
	c := NewCaret()

	var got []note.Note
	for {
		n, ok := s.Fetch(&c)
		if !ok {
			break
		}
		got = append(got, n)
	}
	if len(got) != 2 {
		t.Errorf("fetched %d notes, want 2", len(got))
	}
	// The end-of-tape fetch still advanced the caret.
	if c.Position() != 3 {
		t.Errorf("Position() = %d, want 3", c.Position())
	}

	back := NewCaret()
	back.TurnTo(Negative) // 0 -> -1
	n, ok := s.Fetch(&back)
	if !ok || n != cells(t, "9i")[0] {
		t.Errorf("Fetch at -1 = %v,%v, want 9i", n, ok)
	}
	if _, ok := s.Fetch(&back); ok {
		t.Errorf("Fetch at -2 should hit the end of the negative half")
	}
}

func TestScrubReproducesReverseOrder(t *testing.T) {
	notes := cells(t, "1a", "2b", "3c", "4d")
	s := NewStoreFrom(notes, nil)
	c := NewCaret()

	var forward []note.Note
	for range notes {
		n, _ := s.Fetch(&c)
		forward = append(forward, n)
	}

	c.LookBack()
	var backward []note.Note
	for range notes {
		n, ok := s.Fetch(&c)
		if !ok {
			t.Fatalf("backward fetch ran off the tape at %s", c.String())
		}
		backward = append(backward, n)
	}
	c.LookBack()

	for i := range forward {
		if forward[i] != backward[len(backward)-1-i] {
			t.Errorf("backward[%d] = %s, want %s", len(backward)-1-i, backward[len(backward)-1-i], forward[i])
		}
	}
	if c.Position() != 0 || c.Facing() != Positive {
		t.Errorf("caret = %s, want [Caret: 0-->]", c.String())
	}
}

func TestDeleteAt(t *testing.T) {
	s := NewStoreFrom(cells(t, "1a", "2a", "3a"), cells(t, "9a", "9b"))

	c := NewCaretAt(1)
	n, ok := s.DeleteAt(&c)
	if !ok || n != cells(t, "2a")[0] {
		t.Errorf("DeleteAt(1) = %v,%v, want 2a", n, ok)
	}
	if s.PositiveLen() != 1 || s.NegativeLen() != 2 {
		t.Errorf("halves = %d/%d, want 1/2", s.PositiveLen(), s.NegativeLen())
	}

	// Nothing at the peak.
	c = NewCaretAt(1)
	if _, ok := s.DeleteAt(&c); ok {
		t.Errorf("DeleteAt at the peak should remove nothing")
	}

	c = Caret{facing: Negative, position: -2}
	n, ok = s.DeleteAt(&c)
	if !ok || n != cells(t, "9b")[0] {
		t.Errorf("DeleteAt(-2) = %v,%v, want 9b", n, ok)
	}
	if s.NegativeLen() != 1 {
		t.Errorf("NegativeLen() = %d, want 1", s.NegativeLen())
	}
}

func TestSliceAcrossZero(t *testing.T) {
	// Positions: -2=9b -1=9a 0=1a 1=2a 2=3a
	s := NewStoreFrom(cells(t, "1a", "2a", "3a"), cells(t, "9a", "9b"))

	tests := []struct {
		start, end int
		want       []note.Note
	}{
		{-2, 3, cells(t, "9b", "9a", "1a", "2a", "3a")},
		{-1, 1, cells(t, "9a", "1a")},
		{-2, -1, cells(t, "9b")},
		{1, 3, cells(t, "2a", "3a")},
		{-5, 10, cells(t, "9b", "9a", "1a", "2a", "3a")},
		{2, 2, nil},
	}

	for _, tc := range tests {
		got := s.Slice(tc.start, tc.end)
		if note.Join(got) != note.Join(tc.want) {
			t.Errorf("Slice(%d, %d) = %q, want %q", tc.start, tc.end, note.Join(got), note.Join(tc.want))
		}
	}

	span := s.Span()
	if span.Min() != -2 || span.Max() != 2 {
		t.Errorf("Span() = %s, want [-2, 2]", span)
	}
}
