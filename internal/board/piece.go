package board

import "fmt"

// Color represents the side a piece belongs to or the player to move.
// Black moves first (sente).
type Color uint8

const (
	Black Color = iota
	White
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case Black:
		return "Black"
	case White:
		return "White"
	default:
		return "NoColor"
	}
}

// PieceType represents the unpromoted kind of a shogi piece.
type PieceType uint8

const (
	King PieceType = iota
	Rook
	Bishop
	Gold
	Silver
	Knight
	Lance
	Pawn
	NoPieceType PieceType = 8
)

// NumPieceTypes is the number of piece types, and of hand slots per color.
const NumPieceTypes = 8

// String returns the piece type name.
func (pt PieceType) String() string {
	switch pt {
	case King:
		return "King"
	case Rook:
		return "Rook"
	case Bishop:
		return "Bishop"
	case Gold:
		return "Gold"
	case Silver:
		return "Silver"
	case Knight:
		return "Knight"
	case Lance:
		return "Lance"
	case Pawn:
		return "Pawn"
	default:
		return "None"
	}
}

// Char returns the SFEN character for the piece type (uppercase).
func (pt PieceType) Char() byte {
	if pt >= NoPieceType {
		return ' '
	}
	return "KRBGSNLP"[pt]
}

// CanPromote returns true if the piece type has a promoted side.
func (pt PieceType) CanPromote() bool {
	return pt == Rook || pt == Bishop || pt == Silver || pt == Knight || pt == Lance || pt == Pawn
}

// PieceTypeFromChar converts an SFEN character of either case to a PieceType.
func PieceTypeFromChar(c byte) PieceType {
	switch c {
	case 'K', 'k':
		return King
	case 'R', 'r':
		return Rook
	case 'B', 'b':
		return Bishop
	case 'G', 'g':
		return Gold
	case 'S', 's':
		return Silver
	case 'N', 'n':
		return Knight
	case 'L', 'l':
		return Lance
	case 'P', 'p':
		return Pawn
	default:
		return NoPieceType
	}
}

// PieceID is the permanent number of one of the 40 physical pieces.
// Numbers are grouped by type: K00-K01, R02-R03, B04-B05, G06-G09,
// S10-S13, N14-N17, L18-L21, P22-P39.
type PieceID int8

// NoID marks a note or a slot that names no particular piece.
const NoID PieceID = -1

// NumPieces is the number of physical pieces in a full set.
const NumPieces = 40

// firstID holds the lowest identity number of each piece type.
var firstID = [NumPieceTypes + 1]PieceID{0, 2, 4, 6, 10, 14, 18, 22, NumPieces}

// IsValid returns true if the identity names a real piece.
func (id PieceID) IsValid() bool {
	return id >= 0 && id < NumPieces
}

// Type returns the piece type the identity belongs to.
func (id PieceID) Type() PieceType {
	if !id.IsValid() {
		return NoPieceType
	}
	for pt := King; pt < NoPieceType; pt++ {
		if id < firstID[pt+1] {
			return pt
		}
	}
	return NoPieceType
}

// String returns the identity as type letter plus two-digit number (e.g., "P22").
func (id PieceID) String() string {
	if !id.IsValid() {
		return "--"
	}
	return fmt.Sprintf("%c%02d", id.Type().Char(), int(id))
}

// IDsOf returns the identities of every piece of the given type.
func IDsOf(pt PieceType) []PieceID {
	if pt >= NoPieceType {
		return nil
	}
	ids := make([]PieceID, 0, firstID[pt+1]-firstID[pt])
	for id := firstID[pt]; id < firstID[pt+1]; id++ {
		ids = append(ids, id)
	}
	return ids
}

// Stone is a physical piece in play: its identity, owner and face.
type Stone struct {
	ID       PieceID
	Color    Color
	Promoted bool
}

// NoStone is the zero occupant of an empty cell or an empty fingertip.
var NoStone = Stone{ID: NoID, Color: NoColor}

// IsEmpty returns true if the stone stands for nothing.
func (s Stone) IsEmpty() bool {
	return !s.ID.IsValid()
}

// Type returns the unpromoted piece type of the stone.
func (s Stone) Type() PieceType {
	return s.ID.Type()
}

// String returns the SFEN-like text for the stone (e.g., "+p" for a White tokin).
func (s Stone) String() string {
	if s.IsEmpty() {
		return " "
	}
	c := s.Type().Char()
	if s.Color == White {
		c += 'a' - 'A'
	}
	if s.Promoted {
		return "+" + string(c)
	}
	return string(c)
}
