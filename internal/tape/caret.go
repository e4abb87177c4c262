// Package tape implements the reversible move tape: a caret-addressed,
// two-sided journal of notes that can be appended to at either end,
// overwritten in place, and scrubbed in both directions.
package tape

import "fmt"

// Facing is the direction a caret moves in.
type Facing uint8

const (
	Positive Facing = iota
	Negative
)

// Opposite returns the other facing.
func (f Facing) Opposite() Facing {
	return f ^ 1
}

// String returns the facing name.
func (f Facing) String() string {
	if f == Negative {
		return "Negative"
	}
	return "Positive"
}

// Caret is a directional cursor over the unbounded index line.
//
// Position 0 belongs to the positive half. There is no minus zero: the
// negative half starts at -1.
type Caret struct {
	facing   Facing
	position int
}

// NewCaret returns a caret at position 0 facing positive.
func NewCaret() Caret {
	return Caret{facing: Positive}
}

// NewCaretAt returns a caret at the given position facing positive.
func NewCaretAt(position int) Caret {
	return Caret{facing: Positive, position: position}
}

// NewCaretFacing returns a caret at the given position and facing.
func NewCaretFacing(position int, f Facing) Caret {
	return Caret{facing: f, position: position}
}

// Position returns the slot the caret will read or write next.
func (c *Caret) Position() int {
	return c.position
}

// Facing returns the current facing.
func (c *Caret) Facing() Facing {
	return c.facing
}

// step is +1 facing positive, -1 facing negative.
func (c *Caret) step() int {
	if c.facing == Negative {
		return -1
	}
	return 1
}

// Advance returns the position before moving, then moves one step along the facing.
func (c *Caret) Advance() int {
	old := c.position
	c.position += c.step()
	return old
}

// Retreat moves one step against the facing without turning, and returns the
// position before moving. It undoes a tentative Advance.
func (c *Caret) Retreat() int {
	old := c.position
	c.position -= c.step()
	return old
}

// TurnTo faces the given direction. A real turn also advances one step so the
// caret addresses the slot it just passed; turning to the current facing is a no-op.
func (c *Caret) TurnTo(f Facing) {
	if c.facing == f {
		return
	}
	c.facing = f
	c.Advance()
}

// LookBack turns to the opposite facing (turn and step).
func (c *Caret) LookBack() {
	c.TurnTo(c.facing.Opposite())
}

// TruncationIndex classifies the current position into a half and returns its
// index in that half's storage.
func (c *Caret) TruncationIndex() (positive bool, index int) {
	return fold(c.position)
}

// Within returns true if the position lies inside the interval.
func (c *Caret) Within(ci ClosedInterval) bool {
	return !ci.IsEmpty() && ci.Min() <= c.position && c.position <= ci.Max()
}

// String returns a compact debug form, e.g. "[Caret: 3-->]" or "[Caret: <--3]".
func (c *Caret) String() string {
	if c.facing == Negative {
		return fmt.Sprintf("[Caret: <--%d]", c.position)
	}
	return fmt.Sprintf("[Caret: %d-->]", c.position)
}

// fold maps a caret position to (is positive half, index in half).
// -1 is index 0 of the negative half.
func fold(position int) (bool, int) {
	if position >= 0 {
		return true, position
	}
	return false, -position - 1
}

// unfold is the inverse of fold.
func unfold(positive bool, index int) int {
	if positive {
		return index
	}
	return -index - 1
}
