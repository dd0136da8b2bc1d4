// Package version holds the build metadata of the seekr binary.
package version

import (
	"fmt"
	"runtime"
)

// Set with -ldflags "-X github.com/Aman-CERP/seekr/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info is what `seekr version --json` prints.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	UserAgent string `json:"user_agent"`
}

// Get returns the metadata of the running binary.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		UserAgent: UserAgent(),
	}
}

func (i Info) String() string {
	return fmt.Sprintf("seekr %s (commit %s, built %s, %s %s)",
		i.Version, i.Commit, i.Date, i.GoVersion, i.Platform)
}

// String is Get().String().
func String() string { return Get().String() }

// UserAgent is sent to backends that do not configure their own.
func UserAgent() string {
	return "seekr/" + Version
}
