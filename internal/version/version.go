// Package version carries build metadata set with -ldflags -X.
package version

import "fmt"

var (
	Version = "v0.1.0"
	Commit  = "none"
	Date    = "unknown"
)

// String is the one-line form printed by --version.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
