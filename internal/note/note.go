// Package note defines the atomic touch events recorded on a tape and their
// compact textual sign form.
//
// Sign form, one token per note:
//
//	7g       touch the board cell file 7 rank g
//	0P 0p    touch Black's / White's pawn hand slot
//	+        turn the held piece over
//	-        rotate the held piece 180 degrees (change owner)
//	[12]     phase change, the next ply is 12
//	|        phase change, ply unknown
//	%resign  resignation
//
// A note that names the touched piece carries a "#id" suffix (e.g., "7g#22").
package note

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hailam/tapedeck/internal/board"
)

// ErrSyntax is returned when a sign cannot be parsed.
var ErrSyntax = errors.New("note: invalid sign")

// UnknownPly is the ply carried by a phase change written as "|".
const UnknownPly = -1

// Kind enumerates the operation payloads a note can carry.
type Kind uint8

const (
	KindAddress Kind = iota
	KindTurnOver
	KindRotate
	KindPhaseChange
	KindResign
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAddress:
		return "Address"
	case KindTurnOver:
		return "TurnOver"
	case KindRotate:
		return "Rotate"
	case KindPhaseChange:
		return "PhaseChange"
	case KindResign:
		return "Resign"
	default:
		return "Unknown"
	}
}

// Op is the operation payload of a note.
type Op struct {
	Kind Kind
	// Addr is set for KindAddress only.
	Addr board.Address
	// Ply is set for KindPhaseChange only; UnknownPly when not known.
	Ply int
}

// String returns the sign of the operation.
func (o Op) String() string {
	switch o.Kind {
	case KindAddress:
		return o.Addr.String()
	case KindTurnOver:
		return "+"
	case KindRotate:
		return "-"
	case KindPhaseChange:
		if o.Ply > UnknownPly {
			return "[" + strconv.Itoa(o.Ply) + "]"
		}
		return "|"
	case KindResign:
		return "%resign"
	default:
		return "?"
	}
}

// Note is one touch event. Notes are values; replacing a note on a tape
// never mutates the old one.
type Note struct {
	ID board.PieceID
	Op Op
}

// At creates a note touching the given address.
func At(addr board.Address) Note {
	return Note{ID: board.NoID, Op: Op{Kind: KindAddress, Addr: addr, Ply: UnknownPly}}
}

// AtSquare creates a note touching a board cell.
func AtSquare(sq board.Square) Note {
	return At(board.SquareAddress(sq))
}

// AtHand creates a note touching a hand slot.
func AtHand(c board.Color, pt board.PieceType) Note {
	return At(board.HandAddress(c, pt))
}

// TurnOver creates a "+" note.
func TurnOver() Note {
	return Note{ID: board.NoID, Op: Op{Kind: KindTurnOver, Addr: board.NoAddress, Ply: UnknownPly}}
}

// Rotate creates a "-" note.
func Rotate() Note {
	return Note{ID: board.NoID, Op: Op{Kind: KindRotate, Addr: board.NoAddress, Ply: UnknownPly}}
}

// PhaseChange creates a phase change note. Pass UnknownPly for "|".
func PhaseChange(ply int) Note {
	if ply < 0 {
		ply = UnknownPly
	}
	return Note{ID: board.NoID, Op: Op{Kind: KindPhaseChange, Addr: board.NoAddress, Ply: ply}}
}

// Resign creates a "%resign" note.
func Resign() Note {
	return Note{ID: board.NoID, Op: Op{Kind: KindResign, Addr: board.NoAddress, Ply: UnknownPly}}
}

// WithID returns a copy of the note naming the touched piece.
func (n Note) WithID(id board.PieceID) Note {
	if !id.IsValid() {
		id = board.NoID
	}
	n.ID = id
	return n
}

// HasID returns true if the note names the touched piece.
func (n Note) HasID() bool {
	return n.ID.IsValid()
}

// IsPhaseChange returns true for "[n]" and "|" notes.
func (n Note) IsPhaseChange() bool {
	return n.Op.Kind == KindPhaseChange
}

// PhasePly returns the ply of a phase change and whether it is known.
func (n Note) PhasePly() (int, bool) {
	if n.Op.Kind != KindPhaseChange || n.Op.Ply <= UnknownPly {
		return 0, false
	}
	return n.Op.Ply, true
}

// IsResign returns true for "%resign" notes.
func (n Note) IsResign() bool {
	return n.Op.Kind == KindResign
}

// IsAddress returns true if the note touches a cell or hand slot.
func (n Note) IsAddress() bool {
	return n.Op.Kind == KindAddress
}

// String returns the sign of the note.
func (n Note) String() string {
	if !n.HasID() {
		return n.Op.String()
	}
	return n.Op.String() + "#" + strconv.Itoa(int(n.ID))
}

// Parse parses a single note sign.
func Parse(s string) (Note, error) {
	id := board.NoID
	if i := strings.LastIndexByte(s, '#'); i >= 0 {
		num, err := strconv.Atoi(s[i+1:])
		if err != nil || !board.PieceID(num).IsValid() {
			return Note{}, fmt.Errorf("%w: bad identity in %q", ErrSyntax, s)
		}
		id = board.PieceID(num)
		s = s[:i]
	}

	op, err := ParseOp(s)
	if err != nil {
		return Note{}, err
	}
	return Note{ID: id, Op: op}, nil
}

// ParseOp parses the sign of an operation without identity.
func ParseOp(s string) (Op, error) {
	switch {
	case s == "+":
		return TurnOver().Op, nil
	case s == "-":
		return Rotate().Op, nil
	case s == "|":
		return PhaseChange(UnknownPly).Op, nil
	case s == "%resign":
		return Resign().Op, nil
	case len(s) > 2 && s[0] == '[' && s[len(s)-1] == ']':
		ply, err := strconv.Atoi(s[1 : len(s)-1])
		if err != nil || ply < 0 {
			return Op{}, fmt.Errorf("%w: bad ply in %q", ErrSyntax, s)
		}
		return PhaseChange(ply).Op, nil
	}

	addr, err := board.ParseAddress(s)
	if err != nil {
		return Op{}, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	return At(addr).Op, nil
}

// ParseLine parses a whitespace separated run of note signs.
func ParseLine(line string) ([]Note, error) {
	fields := strings.Fields(line)
	notes := make([]Note, 0, len(fields))
	for _, f := range fields {
		n, err := Parse(f)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// Join renders a run of notes as space separated signs.
func Join(notes []Note) string {
	var sb strings.Builder
	for i, n := range notes {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(n.String())
	}
	return sb.String()
}
