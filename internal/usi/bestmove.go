package usi

import (
	"errors"
	"fmt"

	"github.com/hailam/tapedeck/internal/note"
	"github.com/hailam/tapedeck/internal/tape"
)

// ErrUnrecognized is returned when a note run does not read as one move.
var ErrUnrecognized = errors.New("usi: unrecognized note run")

// FromMove reads the USI move a replayed run of notes stands for. Phase
// changes are ignored. The recognized shapes are
//
//	%resign
//	hand cell                    drop
//	cell [+] cell                board move
//	cell - [+] hand cell [+] cell capture
func FromMove(m tape.Move) (Move, error) {
	var body []note.Note
	for _, n := range m.Notes {
		if n.IsResign() {
			return ResignMove(), nil
		}
		if !n.IsPhaseChange() {
			body = append(body, n)
		}
	}

	fail := func(why string) (Move, error) {
		return Move{}, fmt.Errorf("%w: %s: [%s]", ErrUnrecognized, why, note.Join(m.Notes))
	}
	if len(body) < 2 {
		return fail("too short")
	}

	// Drop.
	if body[0].IsAddress() && body[0].Op.Addr.IsHand() {
		if len(body) != 2 || !isCell(body[1]) {
			return fail("drop must be hand then cell")
		}
		_, pt := body[0].Op.Addr.Hand()
		return DropMove(pt, body[1].Op.Addr.Square()), nil
	}

	// Capture prefix: cell, rotate, optional turn over, hand.
	if len(body) > 2 && isCell(body[0]) && body[1].Op.Kind == note.KindRotate {
		i := 2
		if body[i].Op.Kind == note.KindTurnOver {
			i++
		}
		if i >= len(body) || !body[i].IsAddress() || !body[i].Op.Addr.IsHand() {
			return fail("capture must end in a hand")
		}
		captured := body[0].Op.Addr.Square()
		body = body[i+1:]
		mv, err := walkFrom(body)
		if err != nil {
			return fail(err.Error())
		}
		if mv.To != captured {
			return fail("capturing piece lands elsewhere")
		}
		return mv, nil
	}

	mv, err := walkFrom(body)
	if err != nil {
		return fail(err.Error())
	}
	return mv, nil
}

// walkFrom reads "cell [+] cell".
func walkFrom(body []note.Note) (Move, error) {
	switch {
	case len(body) == 2 && isCell(body[0]) && isCell(body[1]):
		return Walk(body[0].Op.Addr.Square(), body[1].Op.Addr.Square(), false), nil
	case len(body) == 3 && isCell(body[0]) && body[1].Op.Kind == note.KindTurnOver && isCell(body[2]):
		return Walk(body[0].Op.Addr.Square(), body[2].Op.Addr.Square(), true), nil
	}
	return Move{}, errors.New("board move must be cell, optional turn over, cell")
}

func isCell(n note.Note) bool {
	return n.IsAddress() && n.Op.Addr.IsSquare()
}

