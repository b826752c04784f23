// Package chart resolves roll numbers to GPA chart images on the chart host:
// URL construction, availability probing, downloading and the generated
// images used when a chart is missing.
package chart

import (
	"github.com/must-gpa/chartlet/internal/roll"
)

// Default chart host settings.
const (
	DefaultScheme = "https"
	DefaultHost   = "cms.must.edu.pk:8082"
)

// URLBuilder derives the chart URL for a roll number.
// The roll is substituted verbatim; a validated roll number contains no
// characters that need escaping.
type URLBuilder struct {
	scheme string
	host   string
}

// NewURLBuilder creates a builder. Empty arguments fall back to the defaults.
func NewURLBuilder(scheme, host string) *URLBuilder {
	if scheme == "" {
		scheme = DefaultScheme
	}
	if host == "" {
		host = DefaultHost
	}
	return &URLBuilder{scheme: scheme, host: host}
}

// Build returns the chart URL for n.
func (b *URLBuilder) Build(n roll.Number) string {
	return b.scheme + "://" + b.host + "/Chartlet/MUST" + n.String() + "AJK/FanG_Chartlet_GPChart.Jpeg"
}

// Reference pairs a roll number with its chart URL.
// It is derived per request and never cached.
type Reference struct {
	Roll roll.Number
	URL  string
}

// Ref builds the Reference for n.
func (b *URLBuilder) Ref(n roll.Number) Reference {
	return Reference{Roll: n, URL: b.Build(n)}
}

// Refs builds References for rolls, preserving order.
func (b *URLBuilder) Refs(rolls []roll.Number) []Reference {
	out := make([]Reference, len(rolls))
	for i, n := range rolls {
		out[i] = b.Ref(n)
	}
	return out
}
