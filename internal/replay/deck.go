package replay

import (
	"fmt"

	"github.com/hailam/tapedeck/internal/note"
	"github.com/hailam/tapedeck/internal/tape"
)

// Deck pairs a training tape that is only read with a learning tape that
// records what was played from it. The two tapes are advanced one after the
// other; callers that share a deck must serialize access themselves.
type Deck struct {
	Training *tape.Tape
	Learning *tape.Tape

	engine *Engine
}

// NewDeck returns a deck over the two tapes.
func NewDeck(e *Engine, training, learning *tape.Tape) *Deck {
	return &Deck{Training: training, Learning: learning, engine: e}
}

// Step replays one move from the training tape and, when it closes, records
// it onto the learning tape.
func (d *Deck) Step(b Board) (Outcome, error) {
	out, err := d.engine.ReplayMove(d.Training, b)
	if err != nil || out.Result != Closed {
		return out, err
	}
	if err := tape.NewEditor(d.Learning).RecordMove(out.Move); err != nil {
		return out, fmt.Errorf("replay: learn move: %w", err)
	}
	return out, nil
}

// SyncNotes copies up to n notes from the training tape to the learning tape,
// touching the board with each before it is recorded. It stops early at the
// end of the training tape and returns the number of notes copied. A
// rejected touch records nothing and leaves the training caret on the
// rejected note.
func (d *Deck) SyncNotes(n int, b Board) (int, error) {
	ed := tape.NewEditor(d.Learning)
	for i := 0; i < n; i++ {
		nt, ok := d.Training.Fetch()
		if !ok {
			d.Training.Caret().Retreat()
			return i, nil
		}
		if !b.Touch(nt) {
			d.Training.Caret().Retreat()
			return i, fmt.Errorf("%w: %s at caret %d", ErrIllegalTouch, nt, d.Training.Caret().Position())
		}
		if err := ed.RecordNote(nt); err != nil {
			b.Touch(nt)
			d.Training.Caret().Retreat()
			return i, fmt.Errorf("replay: learn note: %w", err)
		}
	}
	return n, nil
}

// Rewind undoes the last move on the learning tape and steps the training
// caret back over the same number of notes.
func (d *Deck) Rewind(b Board) ([]note.Note, error) {
	undone, err := d.engine.UndoMove(d.Learning, b)
	for range undone {
		d.Training.Caret().Retreat()
	}
	return undone, err
}
