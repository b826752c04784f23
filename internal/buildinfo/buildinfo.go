// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

// Version is the semantic version or tag for this build.
// Inject via: -X github.com/must-gpa/chartlet/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA for this build.
// Inject via: -X github.com/must-gpa/chartlet/internal/buildinfo.Commit=...
var Commit = ""

// BuildDate is the RFC3339 build timestamp.
// Inject via: -X github.com/must-gpa/chartlet/internal/buildinfo.BuildDate=...
var BuildDate = ""

// Release is the Sentry release name: Version, else the short commit, else "dev".
func Release() string {
	switch {
	case Version != "":
		return Version
	case len(Commit) > 7:
		return Commit[:7]
	case Commit != "":
		return Commit
	default:
		return "dev"
	}
}

// String renders all fields on one line for `chartlet version`.
func String() string {
	s := Release()
	if Commit != "" {
		s += " (" + Commit + ")"
	}
	if BuildDate != "" {
		s += " built " + BuildDate
	}
	return s
}
