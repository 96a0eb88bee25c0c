package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamusis/aipkg/internal/config"
	"github.com/kamusis/aipkg/internal/sources"
)

var initCmd = &cobra.Command{
	Use:   "init [source-url]...",
	Short: "Create aipkg's directories and default configuration",
	Long: `Create the config, cache, AppImages, desktop entry and bin directories,
write a default config.toml and a .env template, and optionally register
one or more manifest sources.

Existing files are never overwritten.

Example:
  aipkg init
  aipkg init https://example.com/index.yaml`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, args []string) error {
	for _, raw := range args {
		if err := sources.ValidateURL(raw); err != nil {
			return err
		}
	}

	// ── 1. Directories ────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}
	for _, d := range cfg.Dirs() {
		printOK("", "directory ready: "+d)
	}

	// ── 2. config.toml ────────────────────────────────────────────────────────
	if _, err := os.Stat(cfg.ConfigFile); os.IsNotExist(err) {
		f := config.File{
			AppImagesDir:    cfg.AppImagesDir,
			DesktopFilesDir: cfg.DesktopDir,
			BinDir:          cfg.BinDir,
			FetchTimeout:    cfg.FetchTimeout.String(),
			UserAgent:       cfg.UserAgent,
		}
		if err := config.WriteFile(cfg.ConfigFile, f); err != nil {
			return err
		}
		printOK("", "config written: "+cfg.ConfigFile)
	} else {
		printSkip("", "config already exists: "+cfg.ConfigFile)
	}

	// ── 3. .env template ──────────────────────────────────────────────────────
	envPath, err := config.DotEnvPath()
	if err != nil {
		return err
	}
	_, statErr := os.Stat(envPath)
	if err := config.EnsureDotEnvTemplate(); err != nil {
		return err
	}
	if os.IsNotExist(statErr) {
		printOK("", "env template written: "+envPath)
	} else {
		printSkip("", "env file already exists: "+envPath)
	}

	// ── 4. Sources ────────────────────────────────────────────────────────────
	if len(args) > 0 {
		l, err := sources.LoadList(cfg.SourcesFile)
		if err != nil {
			return err
		}
		for _, raw := range args {
			u := strings.TrimSpace(raw)
			if l.Add(u) {
				printOK("", "source added: "+u)
			} else {
				printSkip("", "source already configured: "+u)
			}
		}
		if err := l.Save(cfg.SourcesFile); err != nil {
			return err
		}
	}

	fmt.Println("\nNext: 'aipkg source add <url>' if needed, then 'aipkg refresh'.")
	return nil
}
