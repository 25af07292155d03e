package main

import (
	"fmt"
	"io"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout())
	},
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "anchor version %s\n", version)

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	var vcsRevision, vcsTime, vcsModified string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			vcsRevision = setting.Value
		case "vcs.time":
			vcsTime = setting.Value
		case "vcs.modified":
			vcsModified = setting.Value
		}
	}

	if commit != "unknown" {
		fmt.Fprintf(w, "commit: %s\n", commit)
	} else if vcsRevision != "" {
		if len(vcsRevision) > 12 {
			vcsRevision = vcsRevision[:12]
		}
		fmt.Fprintf(w, "commit: %s\n", vcsRevision)
	}

	if date != "unknown" {
		fmt.Fprintf(w, "built: %s\n", date)
	} else if vcsTime != "" {
		if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
			fmt.Fprintf(w, "commit date: %s\n", t.Format("2006-01-02 15:04:05 MST"))
		}
	}

	if vcsModified == "true" {
		fmt.Fprintf(w, "modified: true (uncommitted changes)\n")
	}

	fmt.Fprintf(w, "go: %s\n", info.GoVersion)
}
