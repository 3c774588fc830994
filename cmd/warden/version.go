package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build identity, stamped via -ldflags at release time.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the warden build identity.

The commit and build date are stamped at release time; development builds
report them as "unknown".`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("warden %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		fmt.Printf("%s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
