package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <package>...",
	Aliases: []string{"uninstall"},
	Short:   "Remove installed packages",
	Long: `Remove each named package: its AppImage, its desktop entry and its
launcher symlink, then drop it from the package database. Dependencies
that were installed alongside it are kept.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	return e.locked(func() error {
		failed := 0
		for _, name := range args {
			pkg, err := e.installer.Uninstall(name)
			if err != nil {
				printErr(name, err.Error())
				failed++
				continue
			}
			printOK(pkg.Name, "removed "+pkg.Version)
		}
		if failed > 0 {
			return fmt.Errorf("%d package(s) could not be removed", failed)
		}
		return nil
	})
}
