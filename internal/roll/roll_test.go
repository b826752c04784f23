package roll

import (
	"testing"

	domerrors "github.com/must-gpa/chartlet/internal/errors"
)

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  bool
	}{
		{"FA21-BCS-000", true},
		{"FA99-ZZZ-999", true},
		{"  FA21-BCS-000\t", true},
		{"FA21-BC-000", false},
		{"fa21-BCS-000", false},
		{"FA21-bcs-000", false},
		{"FA21-BCS-0000", false},
		{"FA21-BCS-00", false},
		{"SP21-BCS-000", false},
		{"FA2-BCS-000", false},
		{"FA21BCS000", false},
		{"FA21-BCS-000x", false},
		{"xFA21-BCS-000", false},
		{"FA21-BCS-00٣", false}, // Arabic-Indic digit
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := Validate(tt.input); got != tt.want {
				t.Errorf("Validate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	n, err := Parse(" FA21-BCS-042 ")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if n.Term() != "FA21" || n.Department() != "BCS" || n.Sequence() != 42 {
		t.Errorf("unexpected components: %q %q %d", n.Term(), n.Department(), n.Sequence())
	}
	if n.Prefix() != "FA21-BCS" {
		t.Errorf("Prefix() = %q", n.Prefix())
	}
	if n.String() != "FA21-BCS-042" {
		t.Errorf("String() = %q", n.String())
	}
}

func TestParseRejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input   string
		message string
	}{
		{"", domerrors.MsgEmptyRoll},
		{"   ", domerrors.MsgEmptyRoll},
		{"FA21-BCS-0000", domerrors.MsgInvalidRoll},
		{"fa21-bcs-000", domerrors.MsgInvalidRoll},
	}
	for _, tt := range tests {
		_, err := Parse(tt.input)
		if !domerrors.IsInvalidInput(err) {
			t.Fatalf("Parse(%q) error = %v, want validation error", tt.input, err)
		}
		if got := domerrors.GetUserMessage(err); got != tt.message {
			t.Errorf("Parse(%q) message = %q, want %q", tt.input, got, tt.message)
		}
	}
}

func TestWithSequence(t *testing.T) {
	t.Parallel()
	base := MustParse("FA21-BCS-998")

	next, err := base.WithSequence(999)
	if err != nil {
		t.Fatalf("WithSequence(999) failed: %v", err)
	}
	if next.String() != "FA21-BCS-999" {
		t.Errorf("got %s", next)
	}

	for _, seq := range []int{1000, -1} {
		if _, err := base.WithSequence(seq); !domerrors.IsInvalidInput(err) {
			t.Errorf("WithSequence(%d) error = %v, want validation error", seq, err)
		}
	}
}

func TestParseList(t *testing.T) {
	t.Parallel()

	rolls, err := ParseList("FA21-BCS-001, FA21-BCS-002,,FA22-CSE-010")
	if err != nil {
		t.Fatalf("ParseList failed: %v", err)
	}
	got := Strings(rolls)
	want := []string{"FA21-BCS-001", "FA21-BCS-002", "FA22-CSE-010"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %s, want %s", i, got[i], want[i])
		}
	}

	if _, err := ParseList("FA21-BCS-001, nope"); err == nil {
		t.Error("expected error for malformed entry")
	}
	if _, err := ParseList(" , "); err == nil {
		t.Error("expected error for empty list")
	}
}

func TestZeroNumber(t *testing.T) {
	t.Parallel()
	var n Number
	if !n.IsZero() {
		t.Error("zero value should report IsZero")
	}
	if MustParse("FA21-BCS-000").IsZero() {
		t.Error("parsed value should not report IsZero")
	}
}
