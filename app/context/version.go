package context

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// VersionInfo describes the build of the running binary.
type VersionInfo struct {
	Semantic  string
	Commit    string
	Dirty     bool
	GoVersion string
}

// String returns the version in "<semver> (<commit>[-dirty], <go version>)"
// format, omitting unknown parts.
func (v *VersionInfo) String() string {
	if v.Commit == "" {
		return fmt.Sprintf("%s (%s)", v.Semantic, v.GoVersion)
	}

	commit := v.Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if v.Dirty {
		commit += "-dirty"
	}

	return fmt.Sprintf("%s (%s, %s)", v.Semantic, commit, v.GoVersion)
}

// GetVersion returns the version of the running binary from its embedded build
// information.
func GetVersion() (*VersionInfo, error) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, errors.New("failed reading build information")
	}

	vi := &VersionInfo{Semantic: bi.Main.Version, GoVersion: bi.GoVersion}
	if vi.Semantic == "" {
		vi.Semantic = "(devel)"
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			vi.Commit = s.Value
		case "vcs.modified":
			vi.Dirty = s.Value == "true"
		}
	}

	return vi, nil
}
