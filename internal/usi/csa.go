package usi

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/hailam/tapedeck/internal/board"
	"github.com/hailam/tapedeck/internal/note"
	"github.com/hailam/tapedeck/internal/position"
)

type csaPiece struct {
	pt       board.PieceType
	promoted bool
}

var csaPieces = map[string]csaPiece{
	"OU": {board.King, false},
	"HI": {board.Rook, false},
	"KA": {board.Bishop, false},
	"KI": {board.Gold, false},
	"GI": {board.Silver, false},
	"KE": {board.Knight, false},
	"KY": {board.Lance, false},
	"FU": {board.Pawn, false},
	"RY": {board.Rook, true},
	"UM": {board.Bishop, true},
	"NG": {board.Silver, true},
	"NK": {board.Knight, true},
	"NY": {board.Lance, true},
	"TO": {board.Pawn, true},
}

func csaSquare(file, rank byte) board.Square {
	return board.NewSquare(int(file-'0'), int(rank-'0'))
}

// ParseCSAMove reads one CSA move such as "+7776FU", "-0055KA" or "%TORYO".
// CSA names the piece after the move, so pos decides whether a board move
// promotes.
func ParseCSAMove(pos *position.Position, s string) (Move, error) {
	if s == "%TORYO" {
		return ResignMove(), nil
	}
	if len(s) != 7 || (s[0] != '+' && s[0] != '-') {
		return Move{}, fmt.Errorf("%w: %q", ErrSyntax, s)
	}

	p, ok := csaPieces[s[5:]]
	if !ok {
		return Move{}, fmt.Errorf("%w: unknown piece in %q", ErrSyntax, s)
	}
	to := csaSquare(s[3], s[4])
	if !to.IsValid() {
		return Move{}, fmt.Errorf("%w: bad square in %q", ErrSyntax, s)
	}

	if s[1:3] == "00" {
		if p.promoted {
			return Move{}, fmt.Errorf("%w: promoted drop %q", ErrSyntax, s)
		}
		return DropMove(p.pt, to), nil
	}

	from := csaSquare(s[1], s[2])
	if !from.IsValid() || from == to {
		return Move{}, fmt.Errorf("%w: bad square in %q", ErrSyntax, s)
	}
	stone := pos.StoneAt(from)
	if stone.IsEmpty() || stone.Type() != p.pt {
		return Move{}, fmt.Errorf("%w: %s: no %s on %s", ErrIllegal, s, p.pt, from)
	}
	if stone.Promoted && !p.promoted {
		return Move{}, fmt.Errorf("%w: %s: promoted piece cannot turn back", ErrIllegal, s)
	}
	return Walk(from, to, p.promoted && !stone.Promoted), nil
}

// ConvertCSA plays the moves of a CSA record from the start position on pos,
// beginning at firstPly, and returns their notes. Header, comment and
// position lines are skipped; reading stops at the first special move
// ("%TORYO" is played as a resignation). On error the notes of the moves
// played so far are returned with it.
func ConvertCSA(pos *position.Position, r io.Reader, firstPly int) ([]note.Note, error) {
	var all []note.Note
	ply := firstPly

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		for _, stmt := range strings.Split(scanner.Text(), ",") {
			stmt = strings.TrimSpace(stmt)

			switch {
			case strings.HasPrefix(stmt, "%"):
				if stmt != "%TORYO" {
					return all, nil
				}
			case len(stmt) == 7 && (stmt[0] == '+' || stmt[0] == '-'):
			default:
				continue
			}

			m, err := ParseCSAMove(pos, stmt)
			if err != nil {
				return all, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if !m.Resign && (stmt[0] == '+') != (Mover(ply) == board.Black) {
				return all, fmt.Errorf("line %d: %w: %s out of turn at ply %d", lineNo, ErrIllegal, stmt, ply)
			}

			notes, err := ConvertMove(pos, m, ply)
			if err != nil {
				return all, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if err := play(pos, notes); err != nil {
				return all, fmt.Errorf("line %d: %s: %w", lineNo, stmt, err)
			}
			all = append(all, notes...)
			ply++

			if m.Resign {
				return all, nil
			}
		}
	}
	return all, scanner.Err()
}
