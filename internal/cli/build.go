package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version for Go-compiled builds that didn't go through goreleaser.
//
// For distributed binaries, version is automatically baked
// into the binary with goreleaser.
const devVersion = "0.1.0"

// BuildInfo describes the dockerci binary.
type BuildInfo struct {
	Version   string
	Date      string
	CommitSHA string
	Dev       bool
}

func (b BuildInfo) Empty() bool {
	return b == BuildInfo{}
}

func (b BuildInfo) FullVersion() string {
	if b.Dev {
		return b.Version + "-dev"
	}
	return b.Version
}

var commitSHA string
var globalBuildInfo BuildInfo

func SetBuildInfo(info BuildInfo) {
	globalBuildInfo = info
}

func buildInfo() BuildInfo {
	info := globalBuildInfo
	if info.Empty() {
		return defaultBuildInfo()
	}
	return info
}

func buildStamp() string {
	info := buildInfo()
	date := info.Date
	timeIndex := strings.Index(date, "T")
	if timeIndex != -1 {
		date = date[0:timeIndex]
	}
	return fmt.Sprintf("v%s, built %s", info.FullVersion(), date)
}

// Returns a build datestamp in the format 2018-08-30
func defaultBuildDate() string {
	path, err := os.Executable()
	if err != nil {
		return "[unknown]"
	}

	info, err := os.Stat(path)
	if err != nil {
		return "[unknown]"
	}

	modTime := info.ModTime()
	return modTime.Format("2006-01-02")
}

func defaultBuildInfo() BuildInfo {
	return BuildInfo{
		Date:      defaultBuildDate(),
		Version:   devVersion,
		CommitSHA: commitSHA,
		Dev:       true,
	}
}
