// Package version exposes the contentsync build version.
package version

// Version is the semantic version of the content pipeline. Overridden at
// release time via -ldflags "-X .../internal/version.Version=...".
var Version = "0.4.0-dev"
