package version

import (
	"runtime/debug"
)

// You can set the version at build time using something like:
// go build -ldflags "-X github.com/vsariola/midisynth/version.Version=$(git describe --dirty)"

var Version string

// Hash is the short vcs revision the binary was built from, with -dirty
// appended for modified trees; empty if the build has no vcs information.
var Hash = hashOf(debug.ReadBuildInfo())

var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	if Hash != "" {
		return Hash
	}
	return "devel"
}()

func hashOf(info *debug.BuildInfo, ok bool) string {
	if !ok {
		return ""
	}
	var revision string
	modified := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if revision != "" && modified {
		return revision + "-dirty"
	}
	return revision
}
