// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

// Injected with -X github.com/garyellow/interview-linebot-go/internal/buildinfo.<Name>=...
var (
	Version   = ""
	Commit    = ""
	BuildDate = ""
)

// Release returns the identifier reported to error tracking and /livez.
// It prefers Version, then a short Commit, then "dev".
func Release() string {
	switch {
	case Version != "":
		return Version
	case len(Commit) > 12:
		return Commit[:12]
	case Commit != "":
		return Commit
	default:
		return "dev"
	}
}
