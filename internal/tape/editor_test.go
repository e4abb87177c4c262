package tape

import (
	"errors"
	"testing"

	"github.com/hailam/tapedeck/internal/note"
)

func mustLine(t *testing.T, line string) []note.Note {
	t.Helper()
	notes, err := note.ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine(%q): %v", line, err)
	}
	return notes
}

func TestEditorRecordAdvances(t *testing.T) {
	tp := New()
	ed := NewEditor(tp)

	if err := ed.RecordNotes(mustLine(t, "[1] 7g 7f [2]")...); err != nil {
		t.Fatalf("RecordNotes failed: %v", err)
	}
	if tp.Caret().Position() != 4 {
		t.Errorf("Position() = %d, want 4", tp.Caret().Position())
	}
	if got, want := tp.Sign(), "[1] 7g 7f [2]"; got != want {
		t.Errorf("Sign() = %q, want %q", got, want)
	}
}

func TestEditorRecordGapWrapsIndex(t *testing.T) {
	tp := New()
	tp.Caret().Advance()
	tp.Caret().Advance()

	err := NewEditor(tp).RecordNotes(note.TurnOver())
	if !errors.Is(err, ErrGap) {
		t.Errorf("err = %v, want ErrGap", err)
	}
	if tp.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tp.Len())
	}
}

func TestEditorDiverge(t *testing.T) {
	tp := New()
	ed := NewEditor(tp)
	if err := ed.RecordNotes(mustLine(t, "1a 2b 3c 4d")...); err != nil {
		t.Fatal(err)
	}

	// Scrub back to position 1 and record a different note there.
	tp.Caret().LookBack()
	for tp.Caret().Position() > 1 {
		tp.Caret().Advance()
	}
	tp.Caret().TurnTo(Positive)
	tp.Caret().Retreat()
	if tp.Caret().Position() != 1 {
		t.Fatalf("caret = %s, want position 1", tp.Caret())
	}

	if err := ed.RecordNote(note.Rotate()); err != nil {
		t.Fatal(err)
	}
	if got, want := tp.Sign(), "1a -"; got != want {
		t.Errorf("Sign() = %q, want %q", got, want)
	}
}

func TestEditorRecordNegative(t *testing.T) {
	tp := New()
	tp.Caret().TurnTo(Negative)
	ed := NewEditor(tp)

	if err := ed.RecordNotes(mustLine(t, "1a 2b")...); err != nil {
		t.Fatal(err)
	}
	// Recorded walking left: 1a at -1, 2b at -2.
	if got, want := tp.Sign(), "2b 1a"; got != want {
		t.Errorf("Sign() = %q, want %q", got, want)
	}
	if tp.Store().PositiveLen() != 0 {
		t.Errorf("positive half should stay empty")
	}
}

func TestTapePly(t *testing.T) {
	tp := New()
	if tp.Ply() != 1 {
		t.Errorf("empty Ply() = %d, want 1", tp.Ply())
	}

	ed := NewEditor(tp)
	if err := ed.RecordNotes(mustLine(t, "[1] 7g 7f [2] 3c 3d |")...); err != nil {
		t.Fatal(err)
	}
	// The trailing "|" is skipped; [2] is the nearest known ply.
	if tp.Ply() != 2 {
		t.Errorf("Ply() = %d, want 2", tp.Ply())
	}

	if err := ed.RecordNote(note.PhaseChange(3)); err != nil {
		t.Fatal(err)
	}
	if ed.Ply() != 3 {
		t.Errorf("Ply() = %d, want 3", ed.Ply())
	}

	// Step back over [3] and delete it: the ply is recomputed from the tape.
	tp.Caret().Retreat()
	if _, ok := ed.DeleteOneNote(); !ok {
		t.Fatal("DeleteOneNote removed nothing")
	}
	if tp.Ply() != 2 {
		t.Errorf("Ply() after delete = %d, want 2", tp.Ply())
	}
}

func TestTapePlyFacingNegative(t *testing.T) {
	tp := FromStore(NewStoreFrom(mustLine(t, "[5] 7g 7f [6] 3c 3d"), nil))
	// Turning at 6 parks the caret at 5 facing negative; the scan runs
	// toward higher positions and finds nothing.
	for i := 0; i < 6; i++ {
		tp.Fetch()
	}
	tp.Caret().TurnTo(Negative)
	if tp.Ply() != 1 {
		t.Errorf("Ply() = %d, want 1", tp.Ply())
	}

	// From position 1 facing negative, [6] at position 3 is the nearest.
	for tp.Caret().Position() > 1 {
		tp.Caret().Advance()
	}
	if tp.Ply() != 6 {
		t.Errorf("Ply() = %d, want 6", tp.Ply())
	}
}

func TestMoveAt(t *testing.T) {
	s := NewStoreFrom(mustLine(t, "[1] 7g 7f [2]"), nil)
	var span ClosedInterval
	span.Add(1)
	span.Add(3)

	m := MoveAt(s, span)
	if m.String() != "7g 7f [2]" {
		t.Errorf("MoveAt = %q, want %q", m.String(), "7g 7f [2]")
	}
	if !m.IsClosed() {
		t.Errorf("move should be closed")
	}
	if MoveAt(s, ClosedInterval{}).Len() != 0 {
		t.Errorf("empty span should give an empty move")
	}
}
