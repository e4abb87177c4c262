// Package position holds the physical state of a shogi set: what sits on each
// of the 81 cells, the stacks in the 16 hand slots, and the piece currently
// held between the fingers.
//
// Touching is an involution: touching the same note again after an accepted
// touch reverses it. A rejected touch changes nothing.
package position

import (
	"strings"

	"github.com/hailam/tapedeck/internal/board"
	"github.com/hailam/tapedeck/internal/note"
)

// Position is a physical board.
type Position struct {
	cells     [board.NumSquares]board.Stone
	hands     [2][board.NumPieceTypes][]board.Stone
	fingertip board.Stone
}

// NewEmpty returns a position with nothing on the board, in the hands or
// between the fingers.
func NewEmpty() *Position {
	p := &Position{fingertip: board.NoStone}
	for i := range p.cells {
		p.cells[i] = board.NoStone
	}
	return p
}

// backRank lists the back rank pieces from file 9 to file 1.
var backRank = [board.FileLen]board.PieceType{
	board.Lance, board.Knight, board.Silver, board.Gold, board.King,
	board.Gold, board.Silver, board.Knight, board.Lance,
}

// NewStartPosition returns the standard starting array. Identities are
// handed out per type in placement order, Black before White, so the Black
// king is K00 and the White king K01.
func NewStartPosition() *Position {
	p := NewEmpty()
	var next [board.NumPieceTypes]int

	place := func(c board.Color, pt board.PieceType, file, rank int) {
		id := board.IDsOf(pt)[next[pt]]
		next[pt]++
		p.cells[board.NewSquare(file, rank)] = board.Stone{ID: id, Color: c}
	}

	for i, pt := range backRank {
		place(board.Black, pt, 9-i, 9)
		place(board.White, pt, 9-i, 1)
	}
	place(board.Black, board.Bishop, 8, 8)
	place(board.White, board.Bishop, 2, 2)
	place(board.Black, board.Rook, 2, 8)
	place(board.White, board.Rook, 8, 2)
	for file := 9; file >= 1; file-- {
		place(board.Black, board.Pawn, file, 7)
		place(board.White, board.Pawn, file, 3)
	}
	return p
}

// Put places a stone on a cell, replacing whatever was there.
func (p *Position) Put(sq board.Square, s board.Stone) {
	if sq.IsValid() {
		p.cells[sq] = s
	}
}

// PutHand pushes a stone onto its owner's hand slot.
func (p *Position) PutHand(s board.Stone) {
	if s.IsEmpty() || s.Color >= board.NoColor {
		return
	}
	s.Promoted = false
	pt := s.Type()
	p.hands[s.Color][pt] = append(p.hands[s.Color][pt], s)
}

// StoneAt returns the occupant of a cell.
func (p *Position) StoneAt(sq board.Square) board.Stone {
	if !sq.IsValid() {
		return board.NoStone
	}
	return p.cells[sq]
}

// HandCount returns how many pieces lie in a hand slot.
func (p *Position) HandCount(c board.Color, pt board.PieceType) int {
	if c >= board.NoColor || pt >= board.NoPieceType {
		return 0
	}
	return len(p.hands[c][pt])
}

// PeekHand returns the stone a pick from the hand slot would take.
func (p *Position) PeekHand(c board.Color, pt board.PieceType) board.Stone {
	if p.HandCount(c, pt) == 0 {
		return board.NoStone
	}
	slot := p.hands[c][pt]
	return slot[len(slot)-1]
}

// Fingertip returns the held stone.
func (p *Position) Fingertip() board.Stone {
	return p.fingertip
}

// Touch applies one note. It returns false, leaving the position unchanged,
// when the note is impossible here.
func (p *Position) Touch(n note.Note) bool {
	switch n.Op.Kind {
	case note.KindAddress:
		if n.Op.Addr.IsSquare() {
			return p.touchCell(n.Op.Addr.Square(), n.ID)
		}
		if n.Op.Addr.IsHand() {
			c, pt := n.Op.Addr.Hand()
			return p.touchHand(c, pt, n.ID)
		}
		return false

	case note.KindTurnOver:
		if !p.holds(n.ID) || !p.fingertip.Type().CanPromote() {
			return false
		}
		p.fingertip.Promoted = !p.fingertip.Promoted
		return true

	case note.KindRotate:
		if !p.holds(n.ID) {
			return false
		}
		p.fingertip.Color = p.fingertip.Color.Other()
		return true

	case note.KindPhaseChange, note.KindResign:
		return true
	}
	return false
}

// holds reports whether a stone is held and, when the note names a piece,
// that it is that piece.
func (p *Position) holds(id board.PieceID) bool {
	if p.fingertip.IsEmpty() {
		return false
	}
	return !id.IsValid() || p.fingertip.ID == id
}

// touchCell swaps the cell with the fingertip. Exactly one of them must be
// occupied.
func (p *Position) touchCell(sq board.Square, id board.PieceID) bool {
	cell := p.cells[sq]
	if cell.IsEmpty() == p.fingertip.IsEmpty() {
		return false
	}

	moving := cell
	if cell.IsEmpty() {
		moving = p.fingertip
	}
	if id.IsValid() && moving.ID != id {
		return false
	}

	p.cells[sq], p.fingertip = p.fingertip, cell
	return true
}

// touchHand drops the held piece into the slot, or picks the top piece when
// nothing is held. Only an unpromoted piece of the slot's type and owner fits.
func (p *Position) touchHand(c board.Color, pt board.PieceType, id board.PieceID) bool {
	slot := p.hands[c][pt]

	if !p.fingertip.IsEmpty() {
		s := p.fingertip
		if s.Color != c || s.Type() != pt || s.Promoted {
			return false
		}
		if id.IsValid() && s.ID != id {
			return false
		}
		p.hands[c][pt] = append(slot, s)
		p.fingertip = board.NoStone
		return true
	}

	if len(slot) == 0 {
		return false
	}
	top := slot[len(slot)-1]
	if id.IsValid() && top.ID != id {
		return false
	}
	p.hands[c][pt] = slot[:len(slot)-1]
	p.fingertip = top
	return true
}

// Equal reports whether two positions hold the same stones in the same places.
func (p *Position) Equal(o *Position) bool {
	if p.cells != o.cells || p.fingertip != o.fingertip {
		return false
	}
	for c := range p.hands {
		for pt := range p.hands[c] {
			a, b := p.hands[c][pt], o.hands[c][pt]
			if len(a) != len(b) {
				return false
			}
			for i := range a {
				if a[i] != b[i] {
					return false
				}
			}
		}
	}
	return true
}

// Clone returns a deep copy.
func (p *Position) Clone() *Position {
	q := *p
	for c := range p.hands {
		for pt := range p.hands[c] {
			q.hands[c][pt] = append([]board.Stone(nil), p.hands[c][pt]...)
		}
	}
	return &q
}

// String returns a text diagram: White's hand, the board from rank a with
// file 9 on the left, Black's hand, and the held piece.
func (p *Position) String() string {
	var sb strings.Builder

	sb.WriteString("White hand:")
	p.writeHand(&sb, board.White)
	sb.WriteString("\n  9  8  7  6  5  4  3  2  1\n")

	for rank := 1; rank <= board.RankLen; rank++ {
		for file := board.FileLen; file >= 1; file-- {
			s := p.cells[board.NewSquare(file, rank)]
			switch {
			case s.IsEmpty():
				sb.WriteString("  .")
			case s.Promoted:
				sb.WriteString(" " + s.String())
			default:
				sb.WriteString("  " + s.String())
			}
		}
		sb.WriteByte(' ')
		sb.WriteByte(byte('a' + rank - 1))
		sb.WriteByte('\n')
	}

	sb.WriteString("Black hand:")
	p.writeHand(&sb, board.Black)
	sb.WriteString("\nFingertip: ")
	if p.fingertip.IsEmpty() {
		sb.WriteString("-")
	} else {
		sb.WriteString(p.fingertip.String() + " " + p.fingertip.ID.String())
	}
	sb.WriteByte('\n')
	return sb.String()
}

func (p *Position) writeHand(sb *strings.Builder, c board.Color) {
	for pt := board.King; pt < board.NoPieceType; pt++ {
		for _, s := range p.hands[c][pt] {
			sb.WriteByte(' ')
			sb.WriteString(s.String())
		}
	}
}
