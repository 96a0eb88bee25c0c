package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamusis/aipkg/internal/index"
	"github.com/kamusis/aipkg/internal/pkgdb"
)

var infoCmd = &cobra.Command{
	Use:   "info <package[@constraint]>",
	Short: "Show details of a package in the unified index",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	idx, err := e.loadIndex()
	if err != nil {
		return err
	}
	name, req := splitRequest(args[0])
	entry, err := idx.Lookup(name, req)
	if err != nil {
		return err
	}

	db, err := pkgdb.Load(e.cfg.DatabaseFile)
	if err != nil {
		return err
	}
	printEntry(entry, idx, db)
	return nil
}

func printEntry(entry index.Entry, idx *index.Index, db *pkgdb.Database) {
	fmt.Printf("Name:         %s\n", entry.Name)
	fmt.Printf("Version:      %s\n", entry.Version)
	if entry.Description != "" {
		fmt.Printf("Description:  %s\n", entry.Description)
	}
	if entry.Size > 0 {
		fmt.Printf("Size:         %d bytes (%s)\n", entry.Size, decimalMB(entry.Size))
	}
	fmt.Printf("SHA256:       %s\n", entry.SHA256)
	fmt.Printf("Source:       %s\n", entry.SourceURL)
	fmt.Printf("Dependencies: %s\n", joinOrNone(entry.Dependencies))
	fmt.Printf("Provides:     %s\n", joinOrNone(entry.Provides))

	var versions []string
	for _, v := range idx.Apps[entry.Name] {
		versions = append(versions, v.Version)
	}
	fmt.Printf("Available:    %s\n", joinOrNone(versions))

	if p, ok := db.Get(entry.Name); ok {
		fmt.Printf("Installed:    %s (%s)\n", p.Version, p.InstalledAt.Format("2006-01-02 15:04"))
	} else {
		fmt.Printf("Installed:    no\n")
	}
}
