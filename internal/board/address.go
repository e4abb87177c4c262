package board

import "fmt"

// Address is a place a hand can touch: one of the 81 cells, or one of the
// 16 hand slots (8 piece types for each color).
//
// Encoding: 0-80 are squares, 81+color*8+pieceType are hand slots.
type Address uint8

const (
	handBase = Address(NumSquares)
	// NoAddress marks an absent address.
	NoAddress Address = handBase + 2*NumPieceTypes
)

// SquareAddress returns the address of a board cell.
func SquareAddress(sq Square) Address {
	if !sq.IsValid() {
		return NoAddress
	}
	return Address(sq)
}

// HandAddress returns the address of the hand slot holding pieces of the given
// type for the given color.
func HandAddress(c Color, pt PieceType) Address {
	if c >= NoColor || pt >= NoPieceType {
		return NoAddress
	}
	return handBase + Address(c)*NumPieceTypes + Address(pt)
}

// IsValid returns true if the address names a cell or a hand slot.
func (a Address) IsValid() bool {
	return a < NoAddress
}

// IsSquare returns true if the address is a board cell.
func (a Address) IsSquare() bool {
	return a < handBase
}

// IsHand returns true if the address is a hand slot.
func (a Address) IsHand() bool {
	return a >= handBase && a < NoAddress
}

// Square returns the board cell, or NoSquare for hand slots.
func (a Address) Square() Square {
	if !a.IsSquare() {
		return NoSquare
	}
	return Square(a)
}

// Hand returns the owner and piece type of a hand slot.
func (a Address) Hand() (Color, PieceType) {
	if !a.IsHand() {
		return NoColor, NoPieceType
	}
	off := a - handBase
	return Color(off / NumPieceTypes), PieceType(off % NumPieceTypes)
}

// String returns the sign of the address: "7g" for cells, "0P" or "0p" for
// Black's or White's hand slot.
func (a Address) String() string {
	switch {
	case a.IsSquare():
		return a.Square().String()
	case a.IsHand():
		c, pt := a.Hand()
		ch := pt.Char()
		if c == White {
			ch += 'a' - 'A'
		}
		return "0" + string(ch)
	default:
		return "??"
	}
}

// ParseAddress parses the sign produced by Address.String.
func ParseAddress(s string) (Address, error) {
	if len(s) != 2 {
		return NoAddress, fmt.Errorf("invalid address: %s", s)
	}
	if s[0] == '0' {
		pt := PieceTypeFromChar(s[1])
		if pt == NoPieceType {
			return NoAddress, fmt.Errorf("invalid hand slot: %s", s)
		}
		c := Black
		if s[1] >= 'a' {
			c = White
		}
		return HandAddress(c, pt), nil
	}
	sq, err := ParseSquare(s)
	if err != nil {
		return NoAddress, err
	}
	return SquareAddress(sq), nil
}
