package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wippyai/suspendjs"
)

// Set at build time via -ldflags.
var (
	gitCommit = ""
	buildDate = ""
)

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "suspendjs %s\n", coloredVersion(suspendjs.Version, app.color))
		if gitCommit != "" {
			fmt.Fprintf(w, "commit:  %s\n", gitCommit)
		}
		if buildDate != "" {
			fmt.Fprintf(w, "built:   %s\n", buildDate)
		}
		fmt.Fprintf(w, "go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(w, "output:  %s\n", outputSupport())
		return nil
	},
}

// coloredVersion paints each component of a major.minor.patch version.
func coloredVersion(v string, on bool) string {
	parts := strings.SplitN(v, ".", 3)
	if !on || len(parts) != 3 {
		return v
	}
	return versionMajorColor.Sprint(parts[0]) + "." +
		versionMinorColor.Sprint(parts[1]) + "." +
		versionPatchColor.Sprint(parts[2])
}

func outputSupport() string {
	if suspendjs.CapabilitySupported() {
		return "native (async/await supported)"
	}
	return "cooperative (async/await unsupported)"
}
