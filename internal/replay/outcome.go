package replay

import (
	"errors"
	"fmt"

	"github.com/hailam/tapedeck/internal/note"
	"github.com/hailam/tapedeck/internal/tape"
)

var (
	// ErrMalformed marks structural corruption of a tape.
	ErrMalformed = errors.New("replay: malformed tape")
	// ErrIllegalTouch is returned when a forced advance or an undo meets a
	// touch the board rejects.
	ErrIllegalTouch = errors.New("replay: illegal touch")
)

// MalformedError describes a broken note run and where it was found.
type MalformedError struct {
	Caret  int
	Notes  []note.Note
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("replay: malformed tape at caret %d: %s: [%s]", e.Caret, e.Reason, note.Join(e.Notes))
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformed
}

// Result is how a replay attempt ended.
type Result uint8

const (
	// Failed is the result of an attempt that returned an error.
	Failed Result = iota
	// Closed means one bounded move was read and applied.
	Closed
	// Overflow means the tape ended before any note was read.
	Overflow
	// RolledBack means a touch was rejected and everything was undone.
	RolledBack
)

// String returns the result name.
func (r Result) String() string {
	switch r {
	case Failed:
		return "Failed"
	case Closed:
		return "Closed"
	case Overflow:
		return "Overflow"
	case RolledBack:
		return "RolledBack"
	default:
		return "Unknown"
	}
}

// Outcome is what ReplayMove reports.
type Outcome struct {
	Result Result
	// Move is the run that was applied; empty unless Closed.
	Move tape.Move
	// Rejected is the note the board refused; set only when RolledBack.
	Rejected note.Note
}

// IsMove returns true if the outcome carries an applied move.
func (o Outcome) IsMove() bool {
	return o.Result == Closed
}

// String returns a short description.
func (o Outcome) String() string {
	switch o.Result {
	case Closed:
		return fmt.Sprintf("Closed %s [%s]", o.Move.Span, o.Move)
	case RolledBack:
		return "RolledBack at " + o.Rejected.String()
	default:
		return o.Result.String()
	}
}
