// Package buildinfo holds the version stamp injected at link time.
package buildinfo

// Overridden with -ldflags "-X github.com/wpdevtools/devtools/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
