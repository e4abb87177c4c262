// Package usi reads moves written in USI notation (7g7f, 7g7f+, P*5e,
// resign) or CSA records, turns them into notes against a physical position,
// and recovers a USI move from a replayed run of notes.
package usi

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hailam/tapedeck/internal/board"
)

// ErrSyntax is returned for text that is not a USI move.
var ErrSyntax = errors.New("usi: invalid move")

// Move is one USI move.
type Move struct {
	From board.Square // NoSquare for drops and resignation
	To   board.Square
	// Drop is the dropped piece type, NoPieceType for board moves.
	Drop    board.PieceType
	Promote bool
	Resign  bool
}

// Walk returns a board move.
func Walk(from, to board.Square, promote bool) Move {
	return Move{From: from, To: to, Drop: board.NoPieceType, Promote: promote}
}

// DropMove returns a drop from the hand.
func DropMove(pt board.PieceType, to board.Square) Move {
	return Move{From: board.NoSquare, To: to, Drop: pt}
}

// ResignMove returns a resignation.
func ResignMove() Move {
	return Move{From: board.NoSquare, To: board.NoSquare, Drop: board.NoPieceType, Resign: true}
}

// IsDrop returns true for a drop from the hand.
func (m Move) IsDrop() bool {
	return !m.Resign && m.Drop < board.NoPieceType
}

// String returns the USI text of the move.
func (m Move) String() string {
	switch {
	case m.Resign:
		return "resign"
	case m.IsDrop():
		return string(m.Drop.Char()) + "*" + m.To.String()
	case m.Promote:
		return m.From.String() + m.To.String() + "+"
	default:
		return m.From.String() + m.To.String()
	}
}

// Parse parses a USI move.
func Parse(s string) (Move, error) {
	if s == "resign" {
		return ResignMove(), nil
	}

	if len(s) == 4 && s[1] == '*' {
		pt := board.PieceTypeFromChar(s[0])
		if pt == board.NoPieceType || pt == board.King || s[0] >= 'a' {
			return Move{}, fmt.Errorf("%w: bad drop piece in %q", ErrSyntax, s)
		}
		to, err := board.ParseSquare(s[2:])
		if err != nil {
			return Move{}, fmt.Errorf("%w: %q", ErrSyntax, s)
		}
		return DropMove(pt, to), nil
	}

	if len(s) != 4 && !(len(s) == 5 && s[4] == '+') {
		return Move{}, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	from, err := board.ParseSquare(s[0:2])
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	to, err := board.ParseSquare(s[2:4])
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	if from == to {
		return Move{}, fmt.Errorf("%w: null move %q", ErrSyntax, s)
	}
	return Walk(from, to, len(s) == 5), nil
}

// ParseLine parses the moves on one line. A leading "position startpos
// moves" or "moves" is skipped.
func ParseLine(line string) ([]Move, error) {
	fields := strings.Fields(line)
	for len(fields) > 0 {
		switch fields[0] {
		case "position", "startpos", "moves":
			fields = fields[1:]
			continue
		}
		break
	}

	moves := make([]Move, 0, len(fields))
	for _, f := range fields {
		m, err := Parse(f)
		if err != nil {
			return nil, err
		}
		moves = append(moves, m)
	}
	return moves, nil
}

// ParseFile reads a game record: moves separated by whitespace over any
// number of lines. Blank lines and lines starting with '#' are ignored.
func ParseFile(r io.Reader) ([]Move, error) {
	var moves []Move
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ms, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		moves = append(moves, ms...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("usi: read: %w", err)
	}
	return moves, nil
}
