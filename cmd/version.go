package cmd

import (
	"runtime/debug"
)

// Version can be set via:
// -ldflags="-X 'github.com/zeronorth-oss/znctl/cmd.Version=$TAG'"
var Version string

// CommitSHA can be set via:
// -ldflags="-X 'github.com/zeronorth-oss/znctl/cmd.CommitSHA=$SHA'"
var CommitSHA string

func init() {
	if Version == "" {
		i, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		Version = i.Main.Version
	}
}
