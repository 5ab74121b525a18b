// ABOUTME: Version command to display build information
// ABOUTME: Falls back to the binary's embedded build info when unset
package commands

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// VersionInfo contains build information
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

var versionInfo = versionFromBuildInfo()

// versionFromBuildInfo reads the metadata Go embeds into the binary, so
// plain `go install` builds still report a useful commit and date.
func versionFromBuildInfo() VersionInfo {
	info := VersionInfo{Version: "dev", Commit: "none", Date: "unknown"}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			if len(setting.Value) >= 12 {
				info.Commit = setting.Value[:12]
			} else if setting.Value != "" {
				info.Commit = setting.Value
			}
		case "vcs.time":
			info.Date = setting.Value
		}
	}
	return info
}

// SetVersion overrides build metadata injected at link time (called from
// main). Placeholder values keep whatever the build info reported.
func SetVersion(version, commit, date string) {
	if version != "" && version != "dev" {
		versionInfo.Version = version
	}
	if commit != "" && commit != "none" {
		versionInfo.Commit = commit
	}
	if date != "" && date != "unknown" {
		versionInfo.Date = date
	}
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date for the clinrag CLI.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clinrag %s (commit %s, built %s)\n",
				versionInfo.Version, versionInfo.Commit, versionInfo.Date)
		},
	}
}
