// Package board defines the value types of a shogi board: squares, colors,
// piece types, numbered piece identities and the addresses a hand can touch.
package board

import "fmt"

// Board dimensions.
const (
	FileLen    = 9
	RankLen    = 9
	NumSquares = FileLen * RankLen
)

// Square represents a cell on the 9x9 board (0-80).
// Files run 1-9 from right to left as seen by Black, ranks a-i from top to bottom.
// Index = (file-1)*9 + (rank-1), so 1a=0, 1i=8, 9i=80.
type Square uint8

// NoSquare marks an invalid or absent square.
const NoSquare Square = NumSquares

// NewSquare creates a square from a 1-based file and rank.
func NewSquare(file, rank int) Square {
	if file < 1 || file > FileLen || rank < 1 || rank > RankLen {
		return NoSquare
	}
	return Square((file-1)*RankLen + rank - 1)
}

// File returns the file of the square (1-9).
func (sq Square) File() int {
	return int(sq)/RankLen + 1
}

// Rank returns the rank of the square (1-9, where 1=a).
func (sq Square) Rank() int {
	return int(sq)%RankLen + 1
}

// IsValid returns true if the square is on the board.
func (sq Square) IsValid() bool {
	return sq < NoSquare
}

// String returns the two-character cell reference (e.g., "7g").
func (sq Square) String() string {
	if !sq.IsValid() {
		return "--"
	}
	return fmt.Sprintf("%c%c", '0'+sq.File(), 'a'+sq.Rank()-1)
}

// Rotate returns the square seen from the opponent's side.
func (sq Square) Rotate() Square {
	if !sq.IsValid() {
		return NoSquare
	}
	return NumSquares - 1 - sq
}

// ParseSquare parses a two-character cell reference (e.g., "7g") into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}

	file := int(s[0] - '0')
	rank := int(s[1]-'a') + 1

	if file < 1 || file > FileLen || rank < 1 || rank > RankLen {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}

	return NewSquare(file, rank), nil
}
