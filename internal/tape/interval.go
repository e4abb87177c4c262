package tape

import "fmt"

// ClosedInterval accumulates the minimum and maximum caret positions visited
// during a scan. The zero value is empty.
type ClosedInterval struct {
	min, max int
	nonEmpty bool
}

// NewClosedInterval returns the interval [a, b] in either order.
func NewClosedInterval(a, b int) ClosedInterval {
	ci := ClosedInterval{}
	ci.Add(a)
	ci.Add(b)
	return ci
}

// Add widens the interval to include the position.
func (ci *ClosedInterval) Add(position int) {
	if !ci.nonEmpty {
		ci.min, ci.max, ci.nonEmpty = position, position, true
		return
	}
	if position < ci.min {
		ci.min = position
	}
	if position > ci.max {
		ci.max = position
	}
}

// IsEmpty returns true if no position was added.
func (ci ClosedInterval) IsEmpty() bool {
	return !ci.nonEmpty
}

// Min returns the smallest position. Meaningless when empty.
func (ci ClosedInterval) Min() int {
	return ci.min
}

// Max returns the largest position. Meaningless when empty.
func (ci ClosedInterval) Max() int {
	return ci.max
}

// Len returns the number of positions covered.
func (ci ClosedInterval) Len() int {
	if !ci.nonEmpty {
		return 0
	}
	return ci.max - ci.min + 1
}

// Contains returns true if the position lies inside.
func (ci ClosedInterval) Contains(position int) bool {
	return ci.nonEmpty && ci.min <= position && position <= ci.max
}

// String returns "[min, max]" or "[]".
func (ci ClosedInterval) String() string {
	if !ci.nonEmpty {
		return "[]"
	}
	return fmt.Sprintf("[%d, %d]", ci.min, ci.max)
}
