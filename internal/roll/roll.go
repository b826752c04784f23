// Package roll validates MUST student roll numbers and expands class ranges.
//
// A roll number has the fixed shape FA<term>-<dept>-<seq>, for example
// FA21-BCS-007. Strings are matched as given after trimming surrounding
// whitespace; they are never upper-cased or otherwise normalized.
package roll

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	domerrors "github.com/must-gpa/chartlet/internal/errors"
)

// MaxSequence is the largest sequence a three-digit suffix can hold.
const MaxSequence = 999

// Pattern is the exact roll number format.
// [0-9] instead of \d keeps the match ASCII-only.
var Pattern = regexp.MustCompile(`^FA[0-9]{2}-[A-Z]{3}-[0-9]{3}$`)

// Number is a validated roll number.
// The zero value is not a valid roll number; obtain one via Parse.
type Number struct {
	term       string // e.g. "FA21"
	department string // e.g. "BCS"
	sequence   int    // 0..999
}

// Validate reports whether s is a well-formed roll number.
func Validate(s string) bool {
	return Pattern.MatchString(strings.TrimSpace(s))
}

// Parse validates s and splits it into its components.
func Parse(s string) (Number, error) {
	return parseField("roll_number", s)
}

// MustParse is like Parse but panics on malformed input. Intended for tests
// and constants.
func MustParse(s string) Number {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

func parseField(field, s string) (Number, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Number{}, domerrors.NewValidationError(field, domerrors.MsgEmptyRoll)
	}
	if !Pattern.MatchString(s) {
		return Number{}, domerrors.NewValidationError(field, domerrors.MsgInvalidRoll)
	}

	// Pattern guarantees the layout: FAxx-AAA-nnn
	seq, _ := strconv.Atoi(s[9:12])
	return Number{
		term:       s[0:4],
		department: s[5:8],
		sequence:   seq,
	}, nil
}

// Term returns the intake term, e.g. "FA21".
func (n Number) Term() string { return n.term }

// Department returns the three-letter department code, e.g. "BCS".
func (n Number) Department() string { return n.department }

// Sequence returns the numeric suffix.
func (n Number) Sequence() int { return n.sequence }

// Prefix returns the shared part of every roll in a class, e.g. "FA21-BCS".
func (n Number) Prefix() string { return n.term + "-" + n.department }

// IsZero reports whether n was never parsed.
func (n Number) IsZero() bool { return n.term == "" }

// String renders the roll number with a zero-padded suffix.
func (n Number) String() string {
	return fmt.Sprintf("%s-%03d", n.Prefix(), n.sequence)
}

// WithSequence returns the roll number in the same class with suffix seq.
// Suffixes outside 0..999 are rejected instead of growing a fourth digit.
func (n Number) WithSequence(seq int) (Number, error) {
	if seq < 0 || seq > MaxSequence {
		return Number{}, domerrors.NewValidationError("roll_number",
			fmt.Sprintf("sequence %d is outside 000-%03d", seq, MaxSequence))
	}
	n.sequence = seq
	return n, nil
}

// ParseList splits a comma-separated list of roll numbers.
// Blank entries are skipped; the first malformed entry fails the whole list.
func ParseList(s string) ([]Number, error) {
	parts := strings.Split(s, ",")
	out := make([]Number, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		n, err := Parse(p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, domerrors.NewValidationError("roll_number", domerrors.MsgEmptyRoll)
	}
	return out, nil
}
