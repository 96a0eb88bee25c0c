package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kamusis/aipkg/internal/index"
)

var (
	flagSearchKeyword bool
	flagSearchK       int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the unified index",
	Long: `Search package names with fuzzy matching: the query must appear in the
name as an ordered run of characters, case-insensitive, and closer runs
rank higher.

With --keyword every word of the query must instead appear in the name,
description or provides list.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&flagSearchKeyword, "keyword", false, "Match words against names, descriptions and provides")
	searchCmd.Flags().IntVar(&flagSearchK, "k", 20, "Number of results to show")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	idx, err := e.loadIndex()
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	var matches []index.Match
	if flagSearchKeyword {
		matches = idx.KeywordSearch(query, flagSearchK)
	} else {
		matches = idx.FuzzyFind(query)
		if flagSearchK > 0 && len(matches) > flagSearchK {
			matches = matches[:flagSearchK]
		}
	}

	if len(matches) == 0 {
		printMiss("", "no packages found matching: "+query)
		return nil
	}
	printSearchResults(matches)
	return nil
}

func printSearchResults(matches []index.Match) {
	fmt.Printf("Found %d package(s):\n", len(matches))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, m := range matches {
		fmt.Fprintf(w, "  %d.\t%s\t%s\t%s\n", i+1, m.Name, m.Entry.Version, strings.TrimSpace(m.Entry.Description))
	}
	_ = w.Flush()
}
