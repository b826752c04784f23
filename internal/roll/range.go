package roll

import (
	domerrors "github.com/must-gpa/chartlet/internal/errors"
)

// Range is a contiguous block of roll numbers in one class.
type Range struct {
	First Number
	Last  Number
}

// NewRange validates both endpoints and checks they describe a real range:
// same term and department (case-sensitive) and first <= last.
func NewRange(first, last string) (Range, error) {
	f, err := parseField("first_roll", first)
	if err != nil {
		return Range{}, err
	}
	l, err := parseField("last_roll", last)
	if err != nil {
		return Range{}, err
	}
	if f.Prefix() != l.Prefix() {
		return Range{}, domerrors.NewValidationError("last_roll",
			"prefix mismatch: "+f.Prefix()+" vs "+l.Prefix())
	}
	if l.sequence < f.sequence {
		return Range{}, domerrors.NewValidationError("last_roll",
			"last roll number "+l.String()+" comes before first "+f.String())
	}
	return Range{First: f, Last: l}, nil
}

// Len returns the number of rolls in the range.
func (r Range) Len() int {
	return r.Last.sequence - r.First.sequence + 1
}

// Prefix returns the class prefix shared by every roll in the range.
func (r Range) Prefix() string { return r.First.Prefix() }

// Rolls returns every roll number from First to Last inclusive, in order.
func (r Range) Rolls() []Number {
	out := make([]Number, 0, r.Len())
	for seq := r.First.sequence; seq <= r.Last.sequence; seq++ {
		n := r.First
		n.sequence = seq
		out = append(out, n)
	}
	return out
}

// Expand is shorthand for NewRange followed by Rolls.
func Expand(first, last string) ([]Number, error) {
	r, err := NewRange(first, last)
	if err != nil {
		return nil, err
	}
	return r.Rolls(), nil
}

// Strings renders a slice of roll numbers.
func Strings(rolls []Number) []string {
	out := make([]string, len(rolls))
	for i, r := range rolls {
		out[i] = r.String()
	}
	return out
}
