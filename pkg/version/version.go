// Package version carries build metadata injected with -ldflags -X.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the release of the tsfold binary.
var Version = "dev"

// Commit is the Git hash of the tsfold binary which is executing.
var Commit = "<unknown>"

// Date is the build timestamp.
var Date = "<unknown>"

// Info is a snapshot of the build metadata.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build metadata. A missing commit is filled from the VCS
// stamp of the Go build when available.
func Get() Info {
	commit := Commit
	if commit == "<unknown>" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" {
					commit = s.Value
				}
			}
		}
	}

	return Info{
		Version:   Version,
		Commit:    commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String formats i on one line.
func (i Info) String() string {
	return fmt.Sprintf("tsfold %s (commit %s, built %s, %s %s)", i.Version, i.Commit, i.Date, i.GoVersion, i.Platform)
}
