package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagRefreshForce bool

var refreshCmd = &cobra.Command{
	Use:     "refresh",
	Aliases: []string{"update"},
	Short:   "Rebuild the unified index from all sources",
	Long: `Fetch every configured source and collective and merge the manifests
they reference into the unified index.

Sources whose manifest has not changed since the last refresh are reused
from the cache without fetching the manifests they reference. Use --force
to fetch everything again.`,
	Args: cobra.NoArgs,
	RunE: runRefresh,
}

func init() {
	refreshCmd.Flags().BoolVar(&flagRefreshForce, "force", false, "Ignore cached source hashes")
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	return e.locked(func() error {
		res, err := e.refresh(flagRefreshForce)
		if err != nil {
			return err
		}
		printSection("Refresh")
		for _, r := range res.Changed {
			printOK("", "fetched "+r)
		}
		for _, r := range res.Unchanged {
			printSkip("", "unchanged "+r)
		}
		for _, r := range res.Pruned {
			printInfo("", "dropped "+r)
		}
		fmt.Printf("\n%d package(s), %d entries. Updated %s\n",
			len(res.Index.Apps), res.Index.Len(), res.Metadata.LastUpdated)
		return nil
	})
}
