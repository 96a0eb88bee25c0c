package cmd

import (
	"fmt"
	"os"
	"strings"
)

// ── Unified output helpers ────────────────────────────────────────────────────
// All commands use these functions to ensure consistent icon usage and
// indentation throughout aipkg's CLI output.
//
// Icon semantics:
//   ✓  success / healthy
//   ✗  error / failure          (written to stderr)
//   ⚠  warning
//   ○  skipped / not applicable
//   -  not found / missing
//   ~  neutral info / state change
//   ↑  upgraded

// printSection prints a top-level section header, e.g. "=== Install ===".
func printSection(title string) {
	fmt.Printf("\n=== %s ===\n", title)
}

// printBullet prints a grouped-section bullet, e.g. "● Dependencies:".
func printBullet(title string) {
	fmt.Printf("\n● %s\n", title)
}

// printOK prints a success line.
//   name = "" → "  ✓  msg"
//   name set  → "  ✓  [name] msg"
func printOK(name, msg string) {
	if name == "" {
		fmt.Printf("  ✓  %s\n", msg)
	} else {
		fmt.Printf("  ✓  [%s] %s\n", name, msg)
	}
}

// printErr prints an error line to stderr.
func printErr(name, msg string) {
	if name == "" {
		fmt.Fprintf(os.Stderr, "  ✗  %s\n", msg)
	} else {
		fmt.Fprintf(os.Stderr, "  ✗  [%s] %s\n", name, msg)
	}
}

// printWarn prints a warning line.
func printWarn(name, msg string) {
	if name == "" {
		fmt.Printf("  ⚠  %s\n", msg)
	} else {
		fmt.Printf("  ⚠  [%s] %s\n", name, msg)
	}
}

// printSkip prints a skipped / not-applicable line.
func printSkip(name, msg string) {
	if name == "" {
		fmt.Printf("  ○  %s\n", msg)
	} else {
		fmt.Printf("  ○  [%s] %s\n", name, msg)
	}
}

// printMiss prints a not-found / missing line.
func printMiss(name, msg string) {
	if name == "" {
		fmt.Printf("  -  %s\n", msg)
	} else {
		fmt.Printf("  -  [%s] %s\n", name, msg)
	}
}

// printInfo prints a neutral informational / state-change line.
func printInfo(name, msg string) {
	if name == "" {
		fmt.Printf("  ~  %s\n", msg)
	} else {
		fmt.Printf("  ~  [%s] %s\n", name, msg)
	}
}

// printUp prints an upgrade line, e.g. "  ↑  [krita] 5.1.0 → 5.2.0".
func printUp(name, from, to string) {
	fmt.Printf("  ↑  [%s] %s → %s\n", name, from, to)
}

// printDownloadProgress renders an in-place progress line on stderr.
func printDownloadProgress(downloaded, total int64) {
	if total > 0 {
		pct := float64(downloaded) / float64(total) * 100
		fmt.Fprintf(os.Stderr, "\rDownloading... %s / %s (%.1f%%)", humanBytes(downloaded), humanBytes(total), pct)
		return
	}
	fmt.Fprintf(os.Stderr, "\rDownloading... %s", humanBytes(downloaded))
}

// endDownloadProgress terminates the progress line.
func endDownloadProgress() {
	fmt.Fprintln(os.Stderr)
}

// humanBytes formats a byte count in a human-friendly binary unit.
func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	prefix := "KMGTPE"[exp]
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), prefix)
}

// decimalMB formats a byte count in decimal megabytes, as package
// manifests usually quote sizes.
func decimalMB(n int64) string {
	return fmt.Sprintf("%.2f MB", float64(n)/1_000_000)
}

// joinOrNone joins list with ", " or returns "(none)".
func joinOrNone(list []string) string {
	if len(list) == 0 {
		return "(none)"
	}
	return strings.Join(list, ", ")
}
