// Package version provides build version information for pdfbinder.
package version

import (
	"fmt"
	"runtime"
)

// Populated at build time via -ldflags, e.g.
// go build -ldflags "-X 'pdfbinder/pkg/version.Version=1.2.3'"
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// Info contains the full version information.
type Info struct {
	Version   string
	GitCommit string
	BuildTime string
	GoVersion string
	Platform  string
}

// Get returns the current version information.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns the version information in a single-line format.
func (i Info) String() string {
	return fmt.Sprintf(
		"pdfbinder version %s (commit: %s) built at %s with %s on %s",
		i.Version,
		i.GitCommit,
		i.BuildTime,
		i.GoVersion,
		i.Platform,
	)
}
