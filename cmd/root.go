package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/kamusis/aipkg/internal/apperr"
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:          "aipkg",
	Short:        "aipkg - a package manager for AppImages",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `aipkg installs, upgrades and removes AppImages described by YAML
manifests published on any HTTP(S) server. Sources are index manifests
(which reference further manifests) or package manifests (which list
AppImages); every source is merged into one cached unified index.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level := log.InfoLevel
		if flagVerbose {
			level = log.DebugLevel
		}
		cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if code := apperr.CodeOf(err); code != "" {
			fmt.Fprintf(os.Stderr, "error [%s]: %v\n", code, err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
