// Package replay drives a tape's caret across notes, applies them to a board
// and groups them into moves. A move is applied all or nothing: when the
// board rejects a touch, every note applied so far is touched again in
// reverse order and the caret is returned to where it started.
package replay

import (
	"fmt"
	"log/slog"

	"github.com/hailam/tapedeck/internal/note"
	"github.com/hailam/tapedeck/internal/tape"
)

// Board is the state a replay mutates. Touch applies a note and reports
// whether it was possible. Touching an accepted note again must reverse it,
// and a rejected touch must change nothing.
type Board interface {
	Touch(n note.Note) bool
}

// Engine replays moves. It holds no tape state of its own, so one engine can
// serve any number of tapes as long as each tape is driven by one caller at a
// time.
type Engine struct {
	Grouping Grouping
	Logger   *slog.Logger
}

// New returns an engine with the given grouping. A nil logger discards.
func New(g Grouping, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{Grouping: g, Logger: logger}
}

// NewDefault returns an engine with the default grouping and no logging.
func NewDefault() *Engine {
	return New(DefaultGrouping(), nil)
}

type state uint8

const (
	scanning state = iota
	rollback
	closed
	overflow
)

// ReplayMove reads notes from the caret onward, touching the board with each,
// until the grouping closes a move.
//
// It returns Closed with the applied move, Overflow when the tape ends before
// any note, or RolledBack when the board rejected a note; in the last case
// the board and caret are exactly as they were on entry. A tape that ends in
// the middle of a move, or a run the grouping cannot accept, is malformed:
// the applied notes are reversed and a *MalformedError is returned.
func (e *Engine) ReplayMove(t *tape.Tape, b Board) (Outcome, error) {
	caret := t.Caret()
	var (
		run      []note.Note
		span     tape.ClosedInterval
		rejected note.Note
	)

	st := scanning
	for {
		switch st {
		case scanning:
			at := caret.Position()
			n, ok := t.Fetch()
			if !ok {
				caret.Retreat()
				if len(run) == 0 {
					st = overflow
					continue
				}
				return Outcome{}, e.abandon(t, b, run, "tape ends inside a move")
			}

			if !b.Touch(n) {
				caret.Retreat()
				rejected = n
				st = rollback
				continue
			}
			run = append(run, n)
			span.Add(at)

			switch v, reason := e.Grouping.judge(run); v {
			case closeMove:
				st = closed
			case malformed:
				return Outcome{}, e.abandon(t, b, run, reason)
			}

		case rollback:
			e.Logger.Debug("touch rejected, rolling back",
				slog.String("note", rejected.String()),
				slog.Int("applied", len(run)),
				slog.Int("caret", caret.Position()))
			if err := e.unwind(t, b, len(run)); err != nil {
				return Outcome{}, err
			}
			return Outcome{Result: RolledBack, Rejected: rejected}, nil

		case closed:
			return Outcome{Result: Closed, Move: tape.Move{Span: span, Notes: run}}, nil

		case overflow:
			e.Logger.Debug("end of tape", slog.Int("caret", caret.Position()))
			return Outcome{Result: Overflow}, nil
		}
	}
}

// unwind reverses the last k applied notes behind the caret: it looks back,
// re-reads the same k notes touching each again, and looks back once more.
// The caret ends where it was before those k notes were read.
func (e *Engine) unwind(t *tape.Tape, b Board, k int) error {
	if k == 0 {
		return nil
	}
	caret := t.Caret()
	caret.LookBack()
	for i := 0; i < k; i++ {
		n, ok := t.Fetch()
		if !ok || !b.Touch(n) {
			return fmt.Errorf("%w: cannot reverse note %d of %d at caret %d", ErrIllegalTouch, i, k, caret.Position())
		}
	}
	caret.LookBack()
	return nil
}

// abandon reverses a malformed run and reports it. The run's notes stay on
// the tape.
func (e *Engine) abandon(t *tape.Tape, b Board, run []note.Note, reason string) error {
	merr := &MalformedError{Caret: t.Caret().Position(), Notes: run, Reason: reason}
	e.Logger.Warn("malformed tape", slog.String("error", merr.Error()))
	if err := e.unwind(t, b, len(run)); err != nil {
		return fmt.Errorf("%w (%w)", merr, err)
	}
	return merr
}

// ForceNotes reads and applies up to n notes without grouping them. It stops
// early at the end of the tape. A rejected touch is an error; the notes
// applied before it stay applied and the caret stays on the rejected note.
func (e *Engine) ForceNotes(t *tape.Tape, b Board, n int) (int, error) {
	for i := 0; i < n; i++ {
		nt, ok := t.Fetch()
		if !ok {
			t.Caret().Retreat()
			return i, nil
		}
		if !b.Touch(nt) {
			t.Caret().Retreat()
			return i, fmt.Errorf("%w: %s at caret %d", ErrIllegalTouch, nt, t.Caret().Position())
		}
	}
	return n, nil
}

// ForceMove replays one move and treats a rejected touch as an error.
func (e *Engine) ForceMove(t *tape.Tape, b Board) (Outcome, error) {
	out, err := e.ReplayMove(t, b)
	if err != nil {
		return out, err
	}
	if out.Result == RolledBack {
		return out, fmt.Errorf("%w: %s at caret %d", ErrIllegalTouch, out.Rejected, t.Caret().Position())
	}
	return out, nil
}

// ForceMoves replays up to n moves, stopping early at the end of the tape.
// It returns the moves applied.
func (e *Engine) ForceMoves(t *tape.Tape, b Board, n int) ([]tape.Move, error) {
	var moves []tape.Move
	for i := 0; i < n; i++ {
		out, err := e.ForceMove(t, b)
		if err != nil {
			return moves, fmt.Errorf("move %d: %w", i, err)
		}
		if out.Result == Overflow {
			break
		}
		moves = append(moves, out.Move)
	}
	return moves, nil
}

// ReplayAll replays moves until the tape ends or a touch is rejected.
func (e *Engine) ReplayAll(t *tape.Tape, b Board) ([]tape.Move, Outcome, error) {
	var moves []tape.Move
	for {
		out, err := e.ReplayMove(t, b)
		if err != nil || out.Result != Closed {
			return moves, out, err
		}
		moves = append(moves, out.Move)
	}
}

// UndoNote touches the board with the note behind the caret to reverse its
// effect, then deletes that note together with everything beyond it. It
// reports false when there is nothing behind the caret. When the board
// refuses, the tape and caret are left as they were and ErrIllegalTouch is
// returned.
func (e *Engine) UndoNote(t *tape.Tape, b Board) (note.Note, bool, error) {
	caret := t.Caret()
	caret.Retreat()

	n, ok := t.Store().At(caret.Position())
	if !ok {
		caret.Advance()
		return note.Note{}, false, nil
	}
	if !b.Touch(n) {
		at := caret.Position()
		caret.Advance()
		return n, false, fmt.Errorf("%w: cannot reverse %s at caret %d", ErrIllegalTouch, n, at)
	}
	tape.NewEditor(t).DeleteOneNote()
	return n, true, nil
}

// UndoMove undoes notes back to the start of the move behind the caret. Under
// a grouping that requires an opening phase change, that phase change is
// removed too; otherwise the previous move's closing phase change is kept.
// The removed notes are returned in tape order.
func (e *Engine) UndoMove(t *tape.Tape, b Board) ([]note.Note, error) {
	var undone []note.Note
	for {
		if len(undone) > 0 {
			prev, ok := behind(t)
			if !ok {
				break
			}
			if prev.IsPhaseChange() && !e.Grouping.RequireOpening {
				break
			}
		}

		n, ok, err := e.UndoNote(t, b)
		if err != nil {
			return reversed(undone), err
		}
		if !ok {
			break
		}
		undone = append(undone, n)
		if n.IsPhaseChange() && len(undone) > 1 {
			break
		}
	}
	return reversed(undone), nil
}

// behind returns the note one step behind the caret.
func behind(t *tape.Tape) (note.Note, bool) {
	c := *t.Caret()
	c.Retreat()
	return t.Store().At(c.Position())
}

func reversed(notes []note.Note) []note.Note {
	out := make([]note.Note, len(notes))
	for i, n := range notes {
		out[len(notes)-1-i] = n
	}
	return out
}
