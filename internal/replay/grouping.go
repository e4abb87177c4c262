package replay

import "github.com/hailam/tapedeck/internal/note"

// Grouping decides where a move starts and ends.
type Grouping struct {
	// RequireOpening makes every move start with a phase change.
	RequireOpening bool
	// CloseAfter is the number of notes a move must already hold before a
	// phase change closes it. A shorter run closing on a phase change is
	// malformed unless it contains a resignation.
	CloseAfter int
}

// DefaultGrouping is the shogi rule: "[n] src dst [n+1]" is the shortest
// ordinary move, "[n] %resign [n+1]" the only shorter one.
func DefaultGrouping() Grouping {
	return Grouping{RequireOpening: true, CloseAfter: 3}
}

// TrailingGrouping closes a move on the phase change that follows it, so
// "7g 7f |" is one move of length 3.
func TrailingGrouping() Grouping {
	return Grouping{RequireOpening: false, CloseAfter: 2}
}

// verdict is the grouping decision for the latest note of a run.
type verdict uint8

const (
	keepScanning verdict = iota
	closeMove
	malformed
)

// judge classifies the run after its last note has been applied. It returns
// a reason when the run is malformed.
func (g Grouping) judge(run []note.Note) (verdict, string) {
	last := run[len(run)-1]

	if len(run) == 1 && g.RequireOpening && !last.IsPhaseChange() {
		return malformed, "move does not open with a phase change"
	}
	if !last.IsPhaseChange() {
		return keepScanning, ""
	}

	switch {
	case len(run) > g.CloseAfter:
		return closeMove, ""
	case len(run) == 1 && g.RequireOpening:
		return keepScanning, ""
	case hasResign(run):
		return closeMove, ""
	}
	return malformed, "phase change closes a move that is too short"
}

func hasResign(run []note.Note) bool {
	for _, n := range run {
		if n.IsResign() {
			return true
		}
	}
	return false
}
