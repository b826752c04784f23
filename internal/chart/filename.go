package chart

import (
	"strings"
	"time"
)

// TimestampLayout is the suffix layout of timestamped download names.
const TimestampLayout = "20060102_150405"

// Filename returns the download name for a chart.
// A non-empty display name wins; otherwise the name is derived from the roll,
// with a timestamp when at is non-zero.
func Filename(rollNumber, name string, at time.Time) string {
	if name = SanitizeName(name); name != "" {
		return name + ".jpg"
	}
	if at.IsZero() {
		return "GPA_Chart_" + rollNumber + ".jpg"
	}
	return "GPA_Chart_" + rollNumber + "_" + at.Format(TimestampLayout) + ".jpg"
}

// SanitizeName keeps a user supplied file name to a safe character set.
// Path separators and anything else outside [A-Za-z0-9._-] become '_'.
// Leading dots are stripped so the result is never hidden or relative.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, ".jpg")
	name = strings.TrimSuffix(name, ".pdf")
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.TrimLeft(b.String(), ".")
}
