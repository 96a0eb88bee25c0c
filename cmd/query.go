package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kamusis/aipkg/internal/pkgdb"
)

var flagQueryInfo bool

var queryCmd = &cobra.Command{
	Use:     "query [package]",
	Aliases: []string{"list"},
	Short:   "List installed packages",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runQuery,
}

func init() {
	queryCmd.Flags().BoolVarP(&flagQueryInfo, "info", "i", false, "Show paths and install times")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	db, err := pkgdb.Load(e.cfg.DatabaseFile)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		pkg, ok := db.Get(args[0])
		if !ok {
			printMiss(args[0], "not installed")
			return nil
		}
		if !flagQueryInfo {
			fmt.Printf("%s %s\n", pkg.Name, pkg.Version)
			return nil
		}
		fmt.Printf("Name:         %s\n", pkg.Name)
		fmt.Printf("Version:      %s\n", pkg.Version)
		fmt.Printf("Path:         %s\n", pkg.Path)
		if pkg.DesktopFile != "" {
			fmt.Printf("Desktop file: %s\n", pkg.DesktopFile)
		}
		if pkg.Symlink != "" {
			fmt.Printf("Launcher:     %s\n", pkg.Symlink)
		}
		fmt.Printf("Installed at: %s\n", pkg.InstalledAt.Format("2006-01-02 15:04:05 MST"))
		return nil
	}

	pkgs := db.List()
	if len(pkgs) == 0 {
		printSkip("", "no packages installed")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, p := range pkgs {
		if flagQueryInfo {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.Version, p.Path)
		} else {
			fmt.Fprintf(w, "%s\t%s\n", p.Name, p.Version)
		}
	}
	return w.Flush()
}
