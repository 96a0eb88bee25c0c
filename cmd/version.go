package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at link time with -ldflags "-X github.com/kamusis/aipkg/cmd.version=...".
var (
	version   = "dev"
	commit    = ""
	buildDate = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the aipkg release, commit and build platform",
	Long: `Print the aipkg release this binary was built from, the source commit
and build date stamped in at link time, and the Go toolchain and platform.
Include this output when reporting a problem with an install or refresh.`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(_ *cobra.Command, _ []string) error {
	fmt.Printf("aipkg %s\n", version)
	fmt.Printf("  commit:     %s\n", emptyAsNA(commit))
	fmt.Printf("  built:      %s\n", emptyAsNA(buildDate))
	fmt.Printf("  go:         %s\n", runtime.Version())
	fmt.Printf("  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
	return nil
}

// emptyAsNA renders an unset build field as "n/a".
func emptyAsNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
