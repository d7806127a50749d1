package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/suspendjs"
)

var rootCmd = &cobra.Command{
	Use:   "suspendjs",
	Short: "Rewrite JavaScript so suspending calls are awaited",
	Long: `suspendjs rewrites every call that can reach a suspending function into a
yield or await, turns the functions making such calls into coroutines, and can
run the result in an isolated sandbox.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func main() {
	rootCmd.Version = suspendjs.Version

	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "project file (default: nearest suspendjs.toml or suspendjs.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	err := rootCmd.Execute()
	if app.log != nil {
		_ = app.log.Sync()
	}
	if err != nil {
		if !app.reported {
			renderError(os.Stderr, "", "", err)
		}
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
