// Package version reports how the hotload binary was built.
//
// Values set with -ldflags win. Otherwise they are filled from the build
// info embedded by the Go toolchain (module version, VCS revision and time).
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const wazeroModule = "github.com/tetratelabs/wazero"

var (
	// Version is the semantic version (set by build flags)
	Version = "dev"
	// Commit is the git commit hash (set by build flags)
	Commit = "unknown"
	// BuildDate is the build date (set by build flags)
	BuildDate = "unknown"
)

// Info describes a hotload build.
type Info struct {
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	Platform  string
	// Wazero is the version of the WebAssembly runtime compiled in.
	Wazero   string
	Modified bool
}

// Get returns the build information of the running binary.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Wazero:    "unknown",
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.fill(bi)
	}
	return info
}

// fill copies what the linker flags left at their defaults from bi.
func (i *Info) fill(bi *debug.BuildInfo) {
	if i.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		i.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if i.Commit == "unknown" {
				i.Commit = shortRevision(s.Value)
			}
		case "vcs.time":
			if i.BuildDate == "unknown" {
				i.BuildDate = s.Value
			}
		case "vcs.modified":
			i.Modified = s.Value == "true"
		}
	}
	for _, dep := range bi.Deps {
		if dep.Path == wazeroModule {
			i.Wazero = dep.Version
			if dep.Replace != nil {
				i.Wazero = dep.Replace.Version
			}
		}
	}
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// String returns the version alone.
func (i Info) String() string {
	return i.Version
}

// Full returns the version followed by commit, date, toolchain and runtime.
func (i Info) Full() string {
	var b strings.Builder
	b.WriteString(i.Version)
	commit := i.Commit
	if i.Modified {
		commit += "-dirty"
	}
	fmt.Fprintf(&b, " (%s) built %s %s %s, wazero %s", commit, i.BuildDate, i.GoVersion, i.Platform, i.Wazero)
	return b.String()
}
