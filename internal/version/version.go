// Package version holds the build version, set with
// -ldflags "-X cogs/internal/version.Version=...".
package version

var Version = "dev"
