package main

import (
	"github.com/tilt-dev/dockerci/internal/cli"
)

// Magic variables set by goreleaser
var version string
var commit string
var date string

func main() {
	cli.SetBuildInfo(cli.BuildInfo{
		Version:   version,
		Date:      date,
		CommitSHA: commit,
	})
	cli.Execute()
}
