package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/kamusis/aipkg/internal/cache"
	"github.com/kamusis/aipkg/internal/config"
	"github.com/kamusis/aipkg/internal/index"
	"github.com/kamusis/aipkg/internal/installer"
	"github.com/kamusis/aipkg/internal/pkgdb"
	"github.com/kamusis/aipkg/internal/sources"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that aipkg's directories, caches and installed packages are in a
consistent state. Run this command when something seems wrong, or before
filing a bug report.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

var doctorFixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Automatically fix detected issues",
	Long: `Fix detected issues in the aipkg environment.

Currently fixes:
  - Interrupted installs: removes partially installed AppImages and clears
    the install journal

Run 'aipkg doctor' first to see what will be fixed.`,
	Args: cobra.NoArgs,
	RunE: runDoctorFix,
}

func init() {
	doctorCmd.AddCommand(doctorFixCmd)
	rootCmd.AddCommand(doctorCmd)
}

func runDoctorFix(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	printSection("aipkg doctor fix")
	fmt.Println("\n[ Interrupted installs ]")
	pending, err := e.installer.Pending()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		printOK("", "install journal is empty, nothing to fix")
		return nil
	}
	// locked runs Recover before the callback and reports what it cleaned.
	return e.locked(func() error {
		fmt.Printf("\n  ✓  %d interrupted install(s) cleaned up.\n", len(pending))
		return nil
	})
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("aipkg doctor")
	fmt.Println()

	// ── Check 1: configuration ────────────────────────────────────────────────
	fmt.Println("[ Configuration ]")
	cfg, loadErr := config.Load()
	if loadErr != nil {
		failD("cannot load configuration: %v", loadErr)
		fmt.Println()
		return summarizeDoctor(false)
	}
	if _, err := os.Stat(cfg.ConfigFile); os.IsNotExist(err) {
		printWarn("", fmt.Sprintf("%s not found, using defaults (run 'aipkg init')", cfg.ConfigFile))
	} else {
		printOK("", "config: "+cfg.ConfigFile)
	}
	printInfo("", fmt.Sprintf("fetch timeout %s, user agent %q", cfg.FetchTimeout, cfg.UserAgent))
	fmt.Println()

	// ── Check 2: directories ──────────────────────────────────────────────────
	fmt.Println("[ Directories ]")
	for _, d := range cfg.Dirs() {
		if _, err := os.Stat(d); os.IsNotExist(err) {
			failD("%s does not exist (run 'aipkg init')", d)
			continue
		}
		if err := config.Writable(d); err != nil {
			failD("%v", err)
			continue
		}
		printOK("", d)
	}
	if !onPath(cfg.BinDir) {
		printWarn("", fmt.Sprintf("%s is not on PATH; launchers will not be found by name", cfg.BinDir))
	}
	fmt.Println()

	// ── Check 3: sources and index ────────────────────────────────────────────
	fmt.Println("[ Sources ]")
	roots, err := sources.All(cfg.SourcesFile, cfg.CollectivesFile)
	switch {
	case err != nil:
		failD("cannot read sources: %v", err)
	case len(roots) == 0:
		printWarn("", "no sources configured (run 'aipkg source add <url>')")
	default:
		printOK("", fmt.Sprintf("%d source(s) configured", len(roots)))
	}
	idx, err := index.Load(cfg.IndexFile)
	if err != nil {
		printWarn("", err.Error())
	} else {
		meta := cache.LoadMetadata(cfg.MetadataFile)
		printOK("", fmt.Sprintf("unified index: %d package(s), %d entries, updated %s",
			len(idx.Apps), idx.Len(), emptyAsNA(idx.LastUpdated)))
		for _, r := range roots {
			if _, ok := meta.SourceHashes[r]; !ok {
				printWarn("", "not yet indexed: "+r)
			}
		}
	}
	fmt.Println()

	// ── Check 4: installed packages ───────────────────────────────────────────
	fmt.Println("[ Installed packages ]")
	db, err := pkgdb.Load(cfg.DatabaseFile)
	if err != nil {
		failD("cannot read package database: %v", err)
	} else {
		healthy := true
		for _, p := range db.List() {
			if msg := checkPackage(p); msg != "" {
				failD("[%s] %s", p.Name, msg)
				healthy = false
			}
		}
		if healthy {
			printOK("", fmt.Sprintf("%d package(s), all files present", len(db.Packages)))
		}
	}
	fmt.Println()

	// ── Check 5: interrupted installs ─────────────────────────────────────────
	fmt.Println("[ Install journal ]")
	pending, err := installer.New(cfg.Paths, nil, loggerFromContext(cmd.Context())).Pending()
	switch {
	case err != nil:
		failD("cannot read install journal: %v", err)
	case len(pending) > 0:
		for _, r := range pending {
			printWarn(r.Name, fmt.Sprintf("interrupted install of %s started %s", r.Version, r.StartedAt.Format("2006-01-02 15:04")))
		}
		failD("%d interrupted install(s); run 'aipkg doctor fix'", len(pending))
	default:
		printOK("", "no interrupted installs")
	}
	fmt.Println()

	// ── Check 6: symlink creation permission (Windows only) ───────────────────
	if runtime.GOOS == "windows" {
		fmt.Println("[ Windows symlink permission ]")
		if err := checkWindowsSymlinkPermission(); err != nil {
			failD("Symlink creation will fail in this terminal; launchers cannot be created.\n" +
				"   Run aipkg in an Administrator terminal or enable Developer Mode.")
		} else {
			printOK("", "symlink creation permitted")
		}
		fmt.Println()
	}

	return summarizeDoctor(allOK)
}

func summarizeDoctor(allOK bool) error {
	fmt.Println("===================")
	if allOK {
		fmt.Println("✓  All checks passed. aipkg is ready to use.")
		return nil
	}
	fmt.Fprintln(os.Stderr, "✗  One or more checks failed. See details above.")
	return fmt.Errorf("doctor found issues")
}

// checkPackage returns a description of what is wrong with p's files, or
// "" when everything is in place.
func checkPackage(p pkgdb.Package) string {
	if _, err := os.Stat(p.Path); err != nil {
		return "AppImage missing: " + p.Path
	}
	if p.DesktopFile != "" {
		if _, err := os.Stat(p.DesktopFile); err != nil {
			return "desktop entry missing: " + p.DesktopFile
		}
	}
	if p.Symlink != "" {
		got, err := os.Readlink(p.Symlink)
		if err != nil {
			return "launcher missing: " + p.Symlink
		}
		if got != p.Path {
			return fmt.Sprintf("launcher %s points to %s, want %s", p.Symlink, got, p.Path)
		}
	}
	return ""
}

// onPath reports whether dir is an entry of $PATH.
func onPath(dir string) bool {
	for _, p := range filepath.SplitList(os.Getenv("PATH")) {
		if filepath.Clean(p) == filepath.Clean(dir) {
			return true
		}
	}
	return false
}

// checkWindowsSymlinkPermission creates a throwaway symlink in the temp
// directory to probe whether the current process has symlink privileges.
func checkWindowsSymlinkPermission() error {
	tmp := os.TempDir()
	src := filepath.Join(tmp, "aipkg-doctor-src")
	dst := filepath.Join(tmp, "aipkg-doctor-link")

	if err := os.WriteFile(src, []byte("probe"), 0o644); err != nil {
		return err
	}
	defer os.Remove(src)
	defer os.Remove(dst)

	return os.Symlink(src, dst)
}
