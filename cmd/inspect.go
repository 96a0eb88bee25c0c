package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamusis/aipkg/internal/gen"
	"github.com/kamusis/aipkg/internal/metadata"
	"github.com/kamusis/aipkg/internal/pkgdb"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.AppImage | package>",
	Short: "Show the metadata embedded in an AppImage",
	Long: `Display what aipkg reads from an AppImage: the name, version and
categories of its desktop entry, plus its size and SHA-256 digest.

The argument can be either:
  - A path to an AppImage on disk
  - The name of an installed package

Example:
  aipkg inspect ./Krita-5.2.0-x86_64.AppImage
  aipkg inspect krita`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		e, lerr := loadEnv(cmd)
		if lerr != nil {
			return lerr
		}
		db, lerr := pkgdb.Load(e.cfg.DatabaseFile)
		if lerr != nil {
			return lerr
		}
		pkg, ok := db.Get(path)
		if !ok {
			return fmt.Errorf("%q is neither a file nor an installed package.\nTip: run 'aipkg query' to list installed packages.", path)
		}
		path = pkg.Path
	}
	return printInspect(path, metadata.DesktopEntryExtractor{})
}

func printInspect(path string, ex metadata.Extractor) error {
	info, err := ex.Extract(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	sum, err := gen.FileSHA256(path)
	if err != nil {
		return fmt.Errorf("cannot hash %s: %w", path, err)
	}

	fmt.Printf("📦 AppImage: %s\n", path)
	fmt.Printf("Package:  %s\n", metadata.PackageName(info.Name))
	if info.Name != "" {
		fmt.Printf("Name:     %s\n", info.Name)
	}
	if info.Version != "" {
		fmt.Printf("Version:  %s\n", info.Version)
	} else {
		fmt.Printf("Version:  (not declared)\n")
	}
	if info.Description != "" {
		fmt.Printf("Summary:  %s\n", info.Description)
	}
	if info.Exec != "" {
		fmt.Printf("Exec:     %s\n", info.Exec)
	}
	if info.Icon != "" {
		fmt.Printf("Icon:     %s\n", info.Icon)
	}
	if len(info.Categories) > 0 {
		fmt.Printf("Categories: %s\n", strings.Join(info.Categories, ", "))
	}
	fmt.Printf("Size:     %d bytes (%s)\n", info.Size, humanBytes(info.Size))
	fmt.Printf("SHA256:   %s\n", sum)
	return nil
}
