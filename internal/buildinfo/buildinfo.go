package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Info is the JSON shape printed by "devtools version --json".
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

// GetInfo returns the linked build information. When the binary was built
// without ldflags but from a module-aware "go install", the module version
// and VCS revision recorded by the toolchain are used instead.
func GetInfo() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "none" && len(s.Value) >= 7 {
				info.Commit = s.Value[:7]
			}
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = s.Value
			}
		}
	}
	return info
}

// String formats the info for "devtools version".
func (i Info) String() string {
	return fmt.Sprintf("devtools %s (commit %s, built %s, %s)", i.Version, i.Commit, i.Date, i.GoVersion)
}
