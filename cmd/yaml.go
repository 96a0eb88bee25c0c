package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamusis/aipkg/internal/gen"
)

var flagYAMLExclude []string

var yamlCmd = &cobra.Command{
	Use:   "yaml",
	Short: "Author package manifests",
}

var yamlNewCmd = &cobra.Command{
	Use:   "new <folder> <owner/repo>",
	Short: "Generate appimage.yaml for a folder of AppImages",
	Long: `Scan a folder for *.AppImage files and write an appimage.yaml package
manifest describing them: name and version from each file's desktop entry
(or its file name), size, and SHA-256 digest.

The manifest is meant to be committed next to the AppImages in the given
GitHub repository; the printed URL can then be added as a source.

Example:
  aipkg yaml new ./dist you/apps
  aipkg yaml new ./dist you/apps --exclude '*-debug.AppImage'`,
	Args: cobra.ExactArgs(2),
	RunE: runYAMLNew,
}

func init() {
	yamlNewCmd.Flags().StringArrayVar(&flagYAMLExclude, "exclude", nil, "Glob pattern of files to skip (repeatable)")
	yamlCmd.AddCommand(yamlNewCmd)
	rootCmd.AddCommand(yamlCmd)
}

func runYAMLNew(_ *cobra.Command, args []string) error {
	res, err := gen.Generate(args[0], args[1], gen.Options{Excludes: flagYAMLExclude})
	if err != nil {
		return err
	}
	printSection("Manifest")
	for _, a := range res.Manifest.Apps {
		printOK(a.Name, fmt.Sprintf("%s  %s  %s", a.Version, a.File, humanBytes(a.Size)))
	}
	fmt.Printf("\nWrote %s\n", res.Output)
	fmt.Printf("Once pushed, add it with:\n  aipkg source add %s\n", res.SourceURL)
	return nil
}
