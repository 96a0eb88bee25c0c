package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamusis/aipkg/internal/sources"
)

var collectiveCmd = &cobra.Command{
	Use:   "collective",
	Short: "Manage named groups of sources",
	Long: `A collective is a named group of manifest URLs, typically shared by a
team or community. Every source of every collective is included in a
refresh alongside the plain sources.`,
}

var collectiveAddCmd = &cobra.Command{
	Use:   "add <name> <url>...",
	Short: "Create a collective or add URLs to it",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runCollectiveAdd,
}

var collectiveRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a collective",
	Args:    cobra.ExactArgs(1),
	RunE:    runCollectiveRemove,
}

var collectiveListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List collectives",
	Args:    cobra.NoArgs,
	RunE:    runCollectiveList,
}

func init() {
	collectiveCmd.AddCommand(collectiveAddCmd, collectiveRemoveCmd, collectiveListCmd)
	rootCmd.AddCommand(collectiveCmd)
}

func runCollectiveAdd(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(args[0])
	urls := make([]string, 0, len(args)-1)
	for _, raw := range args[1:] {
		u := strings.TrimSpace(raw)
		if err := sources.ValidateURL(u); err != nil {
			return err
		}
		urls = append(urls, u)
	}
	return e.locked(func() error {
		c, err := sources.LoadCollectives(e.cfg.CollectivesFile)
		if err != nil {
			return err
		}
		c.Add(name, urls)
		if err := c.Save(e.cfg.CollectivesFile); err != nil {
			return err
		}
		printOK(name, "collective saved")
		return nil
	})
}

func runCollectiveRemove(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	return e.locked(func() error {
		c, err := sources.LoadCollectives(e.cfg.CollectivesFile)
		if err != nil {
			return err
		}
		if !c.Remove(args[0]) {
			printMiss(args[0], "no such collective")
			return nil
		}
		if err := c.Save(e.cfg.CollectivesFile); err != nil {
			return err
		}
		printOK(args[0], "collective removed")
		return nil
	})
}

func runCollectiveList(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	c, err := sources.LoadCollectives(e.cfg.CollectivesFile)
	if err != nil {
		return err
	}
	printCollectives(c)
	return nil
}
