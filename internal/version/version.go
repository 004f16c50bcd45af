// Package version holds the build version, set with -ldflags.
package version

// Version is the docket release.
var Version = "0.1.0-dev"
