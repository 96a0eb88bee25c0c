// Package gen writes a package manifest (appimage.yaml) describing every
// AppImage in a folder.
package gen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kamusis/aipkg/internal/apperr"
	"github.com/kamusis/aipkg/internal/fsutil"
	"github.com/kamusis/aipkg/internal/manifest"
	"github.com/kamusis/aipkg/internal/metadata"
)

// ManifestName is the file Generate writes into the folder.
const ManifestName = "appimage.yaml"

// Options controls Generate.
type Options struct {
	// Excludes are glob patterns matched against file names.
	Excludes []string
	// Extractor defaults to metadata.DesktopEntryExtractor.
	Extractor metadata.Extractor
}

// Result is returned by Generate.
type Result struct {
	Manifest *manifest.PackageManifest
	Output   string
	// SourceURL is where the manifest will be served from once the folder
	// is pushed to the repository's default branch.
	SourceURL string
}

// Generate scans folder (not recursively) for *.AppImage files, hashes each
// one and writes folder/appimage.yaml. repo must be "owner/repo".
func Generate(folder, repo string, opts Options) (*Result, error) {
	owner, name, err := SplitRepo(repo)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(folder)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.New(apperr.CodeNotFound, "folder not found: %s", folder)
		}
		return nil, apperr.Wrap(apperr.CodeFilesystem, err, "cannot stat %s", folder)
	}
	if !info.IsDir() {
		return nil, apperr.New(apperr.CodeFilesystem, "path is not a directory: %s", folder)
	}
	ex := opts.Extractor
	if ex == nil {
		ex = metadata.DesktopEntryExtractor{}
	}

	m := &manifest.PackageManifest{}
	err = filepath.WalkDir(folder, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == folder {
			return nil
		}
		if d.IsDir() {
			return filepath.SkipDir
		}
		if filepath.Ext(d.Name()) != ".AppImage" || matchesExclude(d.Name(), opts.Excludes) {
			return nil
		}

		sum, err := FileSHA256(path)
		if err != nil {
			return fmt.Errorf("sha256 %s: %w", path, err)
		}
		meta, err := ex.Extract(path)
		if err != nil {
			return err
		}
		version := meta.Version
		if version == "" {
			version = VersionFromFilename(d.Name())
		}
		m.Apps = append(m.Apps, manifest.Entry{
			Name:        metadata.PackageName(meta.Name),
			Version:     version,
			File:        d.Name(),
			SHA256:      sum,
			Size:        meta.Size,
			Description: meta.Description,
		})
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeFilesystem, err, "cannot scan %s", folder)
	}
	if len(m.Apps) == 0 {
		return nil, apperr.New(apperr.CodeNotFound, "no AppImage files found in %s", folder)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	data, err := m.Marshal()
	if err != nil {
		return nil, err
	}
	out := filepath.Join(folder, ManifestName)
	if err := fsutil.WriteFileAtomic(out, data, 0o644); err != nil {
		return nil, apperr.Wrap(apperr.CodeFilesystem, err, "cannot write %s", out)
	}
	return &Result{
		Manifest:  m,
		Output:    out,
		SourceURL: fmt.Sprintf("https://github.com/%s/%s/raw/HEAD/%s", owner, name, ManifestName),
	}, nil
}

// SplitRepo parses "owner/repo".
func SplitRepo(s string) (string, string, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", apperr.New(apperr.CodeManifestValidation, "invalid repo format: expected owner/repo, got %q", s)
	}
	return parts[0], parts[1], nil
}

var (
	semverInName = regexp.MustCompile(`v?(\d+\.\d+\.\d+)`)
	shortInName  = regexp.MustCompile(`(\d+\.\d+)`)
)

// VersionFromFilename finds a version in names like app-v1.2.3-x86_64.AppImage.
func VersionFromFilename(name string) string {
	if m := semverInName.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	if m := shortInName.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return "unknown"
}

// matchesExclude reports whether name matches any of the given glob patterns.
func matchesExclude(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// FileSHA256 returns the hex-encoded SHA-256 digest of the file at path.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
