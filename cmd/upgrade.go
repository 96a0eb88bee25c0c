package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagUpgradeRefresh bool
	flagUpgradeDryRun  bool
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade installed packages to the newest indexed version",
	Long: `Compare every installed package with the unified index and install
any strictly newer semantic version. The new version is installed before
the old one is removed. Packages with non-semver versions are left alone.`,
	Args: cobra.NoArgs,
	RunE: runUpgrade,
}

func init() {
	upgradeCmd.Flags().BoolVarP(&flagUpgradeRefresh, "refresh", "y", false, "Refresh the index first")
	upgradeCmd.Flags().BoolVar(&flagUpgradeDryRun, "dry-run", false, "List available upgrades without installing")
	rootCmd.AddCommand(upgradeCmd)
}

func runUpgrade(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	return e.locked(func() error {
		idx, err := e.loadIndex()
		if flagUpgradeRefresh {
			res, rerr := e.refresh(false)
			if rerr != nil {
				return rerr
			}
			idx, err = res.Index, nil
		}
		if err != nil {
			return err
		}

		printSection("Upgrade")
		_, plan, err := e.installer.Candidates(idx)
		if err != nil {
			return err
		}
		if len(plan) == 0 {
			printOK("", "all packages are up to date")
			return nil
		}
		if flagUpgradeDryRun {
			for _, u := range plan {
				printUp(u.Name, u.From, u.To)
			}
			return nil
		}

		done, err := e.installer.Upgrade(e.ctx, idx)
		endDownloadProgress()
		for _, u := range done {
			printUp(u.Name, u.From, u.To)
		}
		if err != nil {
			printErr("", err.Error())
			return fmt.Errorf("upgraded %d of %d package(s)", len(done), len(plan))
		}
		return nil
	})
}
