package note

import (
	"errors"
	"testing"

	"github.com/hailam/tapedeck/internal/board"
)

func sq(t *testing.T, s string) board.Square {
	t.Helper()
	v, err := board.ParseSquare(s)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", s, err)
	}
	return v
}

func TestSignRoundTrip(t *testing.T) {
	notes := []Note{
		AtSquare(sq(t, "7g")),
		AtSquare(sq(t, "1a")).WithID(22),
		AtHand(board.Black, board.Pawn),
		AtHand(board.White, board.Rook).WithID(3),
		TurnOver(),
		TurnOver().WithID(39),
		Rotate(),
		PhaseChange(0),
		PhaseChange(12),
		PhaseChange(UnknownPly),
		Resign(),
	}

	for _, n := range notes {
		s := n.String()
		got, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", s, err)
		}
		if got != n {
			t.Errorf("Parse(%q) = %+v, want %+v", s, got, n)
		}
	}
}

func TestSigns(t *testing.T) {
	tests := []struct {
		n    Note
		want string
	}{
		{AtSquare(sq(t, "7g")), "7g"},
		{AtHand(board.Black, board.Pawn), "0P"},
		{AtHand(board.White, board.Bishop), "0b"},
		{TurnOver(), "+"},
		{Rotate(), "-"},
		{PhaseChange(3), "[3]"},
		{PhaseChange(UnknownPly), "|"},
		{Resign(), "%resign"},
		{AtSquare(sq(t, "2h")).WithID(3), "2h#3"},
	}

	for _, tc := range tests {
		if got := tc.n.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "x", "[", "[]", "[-2]", "[a]", "7g#", "7g#40", "0X", "%resig", "10a"} {
		if _, err := Parse(s); !errors.Is(err, ErrSyntax) {
			t.Errorf("Parse(%q) err = %v, want ErrSyntax", s, err)
		}
	}
}

func TestParseLine(t *testing.T) {
	line := "[1] 7g#24 7f#24 [2]"
	notes, err := ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine failed: %v", err)
	}
	if len(notes) != 4 {
		t.Fatalf("len = %d, want 4", len(notes))
	}
	if !notes[0].IsPhaseChange() || !notes[3].IsPhaseChange() {
		t.Errorf("expected phase changes at both ends")
	}
	if ply, ok := notes[3].PhasePly(); !ok || ply != 2 {
		t.Errorf("PhasePly = %d,%v, want 2,true", ply, ok)
	}
	if got := Join(notes); got != line {
		t.Errorf("Join = %q, want %q", got, line)
	}
}

func TestPhasePlyUnknown(t *testing.T) {
	if _, ok := PhaseChange(UnknownPly).PhasePly(); ok {
		t.Errorf("| should carry no ply")
	}
	if _, ok := TurnOver().PhasePly(); ok {
		t.Errorf("+ is not a phase change")
	}
}
