package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamusis/aipkg/internal/deps"
	"github.com/kamusis/aipkg/internal/index"
	"github.com/kamusis/aipkg/internal/pkgdb"
)

var flagSyncRefresh bool

var syncCmd = &cobra.Command{
	Use:   "sync <package[@constraint]>...",
	Short: "Install packages from the unified index",
	Long: `Install one or more packages by name. Each name is looked up exactly
first, then by fuzzy match. An optional semver constraint may follow the
name, e.g. "krita@^5.0.0".

Dependencies are installed before the package that needs them. A
dependency that is not in the index is reported and skipped. Dependencies
already installed at the selected version are left alone.

Use -y to refresh the index before installing.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVarP(&flagSyncRefresh, "refresh", "y", false, "Refresh the index before installing")
	rootCmd.AddCommand(syncCmd)
}

// splitRequest splits "name@constraint" into its parts.
func splitRequest(arg string) (name, req string) {
	name, req, _ = strings.Cut(arg, "@")
	return strings.TrimSpace(name), strings.TrimSpace(req)
}

func runSync(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	return e.locked(func() error {
		var idx *index.Index
		if flagSyncRefresh {
			res, err := e.refresh(false)
			if err != nil {
				return err
			}
			idx = res.Index
		} else if idx, err = e.loadIndex(); err != nil {
			return err
		}

		db, err := pkgdb.Load(e.cfg.DatabaseFile)
		if err != nil {
			return err
		}

		failed := 0
		for _, arg := range args {
			name, req := splitRequest(arg)
			printSection(name)
			target, err := idx.Lookup(name, req)
			if err != nil {
				printErr(name, err.Error())
				failed++
				continue
			}
			if target.Name != name {
				printInfo(name, "matched "+target.Name)
			}

			resolved, missing := deps.Expand(idx, target)
			for _, m := range missing {
				printWarn(target.Name, "dependency not found, skipping: "+m)
			}
			if len(resolved) > 0 {
				printBullet("Dependencies:")
			}

			for _, p := range deps.InstallOrder(resolved, target) {
				isDep := p.Name != target.Name
				if cur, ok := db.Get(p.Name); ok && isDep && cur.Version == p.Version {
					printSkip(p.Name, "already installed "+cur.Version)
					continue
				}
				pkg, err := e.installer.Install(e.ctx, p)
				endDownloadProgress()
				if err != nil {
					printErr(p.Name, err.Error())
					failed++
					break
				}
				db.Add(pkg)
				printOK(pkg.Name, fmt.Sprintf("installed %s → %s", pkg.Version, pkg.Path))
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d package(s) failed to install", failed)
		}
		return nil
	})
}
