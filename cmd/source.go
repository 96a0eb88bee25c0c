package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamusis/aipkg/internal/sources"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage manifest sources",
}

var sourceAddCmd = &cobra.Command{
	Use:   "add <url>...",
	Short: "Add index or package manifest URLs",
	Long: `Add one or more manifest URLs. A source may be an index manifest (a
list of further manifests) or a package manifest (a list of AppImages).

Run 'aipkg refresh' afterwards to fetch the new sources.

Examples:
  aipkg source add https://example.com/index.yaml
  aipkg source add https://github.com/you/apps/blob/main/appimage.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSourceAdd,
}

var sourceRemoveCmd = &cobra.Command{
	Use:     "remove <url>...",
	Aliases: []string{"rm"},
	Short:   "Remove manifest URLs",
	Long: `Remove one or more manifest URLs. Their packages leave the unified
index on the next refresh.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSourceRemove,
}

var sourceListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List sources and collectives",
	Args:    cobra.NoArgs,
	RunE:    runSourceList,
}

func init() {
	sourceCmd.AddCommand(sourceAddCmd, sourceRemoveCmd, sourceListCmd)
	rootCmd.AddCommand(sourceCmd)
}

func runSourceAdd(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	return e.locked(func() error {
		l, err := sources.LoadList(e.cfg.SourcesFile)
		if err != nil {
			return err
		}
		for _, raw := range args {
			u := strings.TrimSpace(raw)
			if err := sources.ValidateURL(u); err != nil {
				return err
			}
			if l.Add(u) {
				printOK("", "added "+u)
			} else {
				printSkip("", "already configured: "+u)
			}
		}
		if err := l.Save(e.cfg.SourcesFile); err != nil {
			return err
		}
		fmt.Println("\nRun 'aipkg refresh' to fetch the new sources.")
		return nil
	})
}

func runSourceRemove(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	return e.locked(func() error {
		l, err := sources.LoadList(e.cfg.SourcesFile)
		if err != nil {
			return err
		}
		for _, raw := range args {
			u := strings.TrimSpace(raw)
			if l.Remove(u) {
				printOK("", "removed "+u)
			} else {
				printMiss("", "not configured: "+u)
			}
		}
		return l.Save(e.cfg.SourcesFile)
	})
}

func runSourceList(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	l, err := sources.LoadList(e.cfg.SourcesFile)
	if err != nil {
		return err
	}
	c, err := sources.LoadCollectives(e.cfg.CollectivesFile)
	if err != nil {
		return err
	}

	printSection("Sources")
	if len(l.Sources) == 0 {
		printSkip("", "none")
	}
	for _, u := range l.Sources {
		fmt.Printf("  %s\n", u)
	}
	printCollectives(c)
	return nil
}

func printCollectives(c *sources.Collectives) {
	printSection("Collectives")
	if len(c.Collectives) == 0 {
		printSkip("", "none")
		return
	}
	for _, col := range c.Collectives {
		printBullet(fmt.Sprintf("%s (%d)", col.Name, len(col.Sources)))
		for _, u := range col.Sources {
			fmt.Printf("    %s\n", u)
		}
	}
}
