package main

import (
	"os"

	"github.com/farview/sshfm/internal/cli"
	"github.com/farview/sshfm/internal/version"
)

// Version information, overridden at release time via
// -ldflags "-X main.Version=... -X main.BuildTime=...".
var (
	Version   = "v1.4.0"
	BuildTime = "unknown"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
