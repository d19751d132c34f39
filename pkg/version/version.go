package version

import "fmt"

// These variables are injected at build time via ldflags.
var (
	Version   = "dev"     // semantic version (e.g., v0.4.1)
	GitCommit = "unknown" // git commit hash
	BuildDate = "unknown" // build timestamp
)

// Info represents build version information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
}

// GetInfo returns version information as a struct
func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	}
}

// GetShortCommit returns the short git commit hash (first 7 characters)
func GetShortCommit() string {
	if len(GitCommit) >= 7 {
		return GitCommit[:7]
	}
	return GitCommit
}

// UserAgent returns the User-Agent string sent on every API request.
func UserAgent() string {
	return fmt.Sprintf("nodeboard/%s", Version)
}
