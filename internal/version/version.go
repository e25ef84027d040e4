// Package version carries build identity for the gale CLI.
package version

import "github.com/fatih/color"

// These variables can be overridden at build time via -ldflags.
var (
	// Number is the plain semantic version, used for cache keying.
	Number = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Pretty renders the version with colored components for the banner.
func Pretty() string {
	return majorColor.Sprint("0") + "." + minorColor.Sprint("1") + "." + patchColor.Sprint("0") + "-dev"
}
