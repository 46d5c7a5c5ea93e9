// Package build provides build information set at link time.
package build

// These variables are overwritten at build time with ldflags.
var (
	ProjectName = "quickdict"
	Version     = "dev"
	Commit      = "none"
	Date        = "unknown"
)
