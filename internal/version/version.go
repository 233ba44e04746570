// Package version provides build information for the Songdle binaries.
package version

import "fmt"

// Set at build time with -ldflags "-X github.com/edumarques81/songdle/internal/version.Version=..."
var (
	Name      = "Songdle"
	Version   = "1.0.0"
	BuildTime = ""
	GitCommit = ""
)

// Info is the version payload served by /api/v1/version.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	BuildTime string `json:"buildTime,omitempty"`
	GitCommit string `json:"gitCommit,omitempty"`
}

// GetInfo returns the current version information.
func GetInfo() Info {
	return Info{
		Name:      Name,
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	}
}

// String returns a banner line such as "Songdle v1.0.0 (abc1234)".
func (i Info) String() string {
	s := fmt.Sprintf("%s v%s", i.Name, i.Version)
	if i.GitCommit != "" {
		s += fmt.Sprintf(" (%s)", i.GitCommit[:min(7, len(i.GitCommit))])
	}
	if i.BuildTime != "" {
		s += fmt.Sprintf(" built %s", i.BuildTime)
	}
	return s
}

// UserAgent is sent by outbound HTTP clients such as the audio prober.
func UserAgent() string {
	return fmt.Sprintf("%s/%s (+https://github.com/edumarques81/songdle)", Name, Version)
}
