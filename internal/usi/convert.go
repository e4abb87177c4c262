package usi

import (
	"errors"
	"fmt"

	"github.com/hailam/tapedeck/internal/board"
	"github.com/hailam/tapedeck/internal/note"
	"github.com/hailam/tapedeck/internal/position"
)

// ErrIllegal is returned when a move cannot be played on the position.
var ErrIllegal = errors.New("usi: illegal move")

// Mover returns the side that plays the given ply. Black plays odd plies.
func Mover(ply int) board.Color {
	if ply%2 == 1 {
		return board.Black
	}
	return board.White
}

// ConvertMove returns the notes that play m as ply on pos, bracketed by the
// phase changes [ply] and [ply+1]. Every touch names the piece it moves.
// The position is only read.
//
// A capture first lifts the captured piece, rotates it to the mover's side,
// turns it face down if it was promoted and lays it in the mover's hand.
func ConvertMove(pos *position.Position, m Move, ply int) ([]note.Note, error) {
	notes := []note.Note{note.PhaseChange(ply)}
	mover := Mover(ply)

	switch {
	case m.Resign:
		notes = append(notes, note.Resign())

	case m.IsDrop():
		s := pos.PeekHand(mover, m.Drop)
		if s.IsEmpty() {
			return nil, fmt.Errorf("%w: %s: no %s in %s's hand", ErrIllegal, m, m.Drop, mover)
		}
		if !pos.StoneAt(m.To).IsEmpty() {
			return nil, fmt.Errorf("%w: %s: %s is occupied", ErrIllegal, m, m.To)
		}
		notes = append(notes,
			note.AtHand(mover, m.Drop).WithID(s.ID),
			note.AtSquare(m.To).WithID(s.ID),
		)

	default:
		s := pos.StoneAt(m.From)
		if s.IsEmpty() {
			return nil, fmt.Errorf("%w: %s: %s is empty", ErrIllegal, m, m.From)
		}
		if s.Color != mover {
			return nil, fmt.Errorf("%w: %s: piece on %s is not %s's", ErrIllegal, m, m.From, mover)
		}

		if captured := pos.StoneAt(m.To); !captured.IsEmpty() {
			if captured.Color == mover {
				return nil, fmt.Errorf("%w: %s: captures own piece", ErrIllegal, m)
			}
			notes = append(notes,
				note.AtSquare(m.To).WithID(captured.ID),
				note.Rotate().WithID(captured.ID),
			)
			if captured.Promoted {
				notes = append(notes, note.TurnOver().WithID(captured.ID))
			}
			notes = append(notes, note.AtHand(mover, captured.Type()).WithID(captured.ID))
		}

		notes = append(notes, note.AtSquare(m.From).WithID(s.ID))
		if m.Promote {
			notes = append(notes, note.TurnOver().WithID(s.ID))
		}
		notes = append(notes, note.AtSquare(m.To).WithID(s.ID))
	}

	return append(notes, note.PhaseChange(ply+1)), nil
}

// Convert plays the moves on pos starting at firstPly and returns the notes
// of all of them in order. On error the position is left as it was before
// the failing move, with the earlier moves played.
func Convert(pos *position.Position, moves []Move, firstPly int) ([]note.Note, error) {
	var all []note.Note
	for i, m := range moves {
		ply := firstPly + i
		notes, err := ConvertMove(pos, m, ply)
		if err != nil {
			return all, fmt.Errorf("ply %d: %w", ply, err)
		}
		if err := play(pos, notes); err != nil {
			return all, fmt.Errorf("ply %d: %s: %w", ply, m, err)
		}
		all = append(all, notes...)
	}
	return all, nil
}

// play touches each note, reversing the applied ones when one is rejected.
func play(pos *position.Position, notes []note.Note) error {
	for i, n := range notes {
		if pos.Touch(n) {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			pos.Touch(notes[j])
		}
		return fmt.Errorf("%w: touch %s rejected", ErrIllegal, n)
	}
	return nil
}
