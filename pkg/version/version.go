// Package version exposes the binary's build identity, injected at link
// time via -ldflags.
package version

// Build identity values, overridden by the release build.
//
//nolint:gochecknoglobals // set via -ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
