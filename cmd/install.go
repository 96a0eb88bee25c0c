package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install <file.AppImage>",
	Short: "Install a local AppImage",
	Long: `Install an AppImage already on disk. The package name and version are
read from the desktop entry embedded in the file; the version is "unknown"
when none is declared.

The file is copied into the AppImages directory, a desktop entry is written
and a launcher symlink is created in the bin directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	return e.locked(func() error {
		pkg, err := e.installer.InstallFile(e.ctx, args[0])
		if err != nil {
			printErr("", err.Error())
			return fmt.Errorf("install failed")
		}
		printOK(pkg.Name, fmt.Sprintf("installed %s → %s", pkg.Version, pkg.Path))
		if pkg.Symlink != "" {
			printInfo(pkg.Name, "launcher: "+pkg.Symlink)
		}
		return nil
	})
}
