// Package installer downloads, verifies and installs packages, and removes
// them again.
//
// An install is committed in a fixed order: verify the artifact hash, open
// a journal record, write the artifact, write the desktop entry, point the
// bin symlink at the artifact, record the package in the database, close
// the journal record. A hash mismatch leaves no trace on disk.
package installer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"

	"github.com/kamusis/aipkg/internal/apperr"
	"github.com/kamusis/aipkg/internal/config"
	"github.com/kamusis/aipkg/internal/fetch"
	"github.com/kamusis/aipkg/internal/fsutil"
	"github.com/kamusis/aipkg/internal/index"
	"github.com/kamusis/aipkg/internal/metadata"
	"github.com/kamusis/aipkg/internal/pkgdb"
	"github.com/kamusis/aipkg/internal/resolver"
)

// UnknownVersion is recorded for local artifacts with no version metadata.
const UnknownVersion = "unknown"

// Installer owns the on-disk layout described by its Paths.
type Installer struct {
	paths     config.Paths
	fetcher   fetch.Fetcher
	extractor metadata.Extractor
	logger    *log.Logger
	now       func() time.Time
}

// New returns an Installer. A nil logger falls back to log.Default().
func New(paths config.Paths, f fetch.Fetcher, logger *log.Logger) *Installer {
	if logger == nil {
		logger = log.Default()
	}
	return &Installer{
		paths:     paths,
		fetcher:   f,
		extractor: metadata.DesktopEntryExtractor{},
		logger:    logger,
		now:       time.Now,
	}
}

// Install downloads e, verifies its hash and installs it.
func (in *Installer) Install(ctx context.Context, e index.Entry) (pkgdb.Package, error) {
	if e.File == "" {
		return pkgdb.Package{}, apperr.New(apperr.CodeManifestValidation, "no file given for %s %s", e.Name, e.Version)
	}
	u, err := resolver.ResolveReference(e.SourceURL, e.File)
	if err != nil {
		return pkgdb.Package{}, err
	}
	in.logger.Debug("downloading", "name", e.Name, "version", e.Version, "url", u)

	data, err := in.fetcher.FetchBinary(ctx, u, e.Size)
	if err != nil {
		return pkgdb.Package{}, err
	}
	if err := VerifySHA256(data, e.SHA256); err != nil {
		return pkgdb.Package{}, apperr.Wrap(apperr.CodeHashMismatch, err, "verification failed for %s %s", e.Name, e.Version)
	}
	return in.commit(e.Name, e.Version, data, nil)
}

// InstallFile installs a local artifact. Name and version come from its
// embedded desktop entry; the version is UnknownVersion when absent.
func (in *Installer) InstallFile(ctx context.Context, path string) (pkgdb.Package, error) {
	if err := ctx.Err(); err != nil {
		return pkgdb.Package{}, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return pkgdb.Package{}, apperr.New(apperr.CodeNotFound, "file not found: %s", path)
		}
		return pkgdb.Package{}, apperr.Wrap(apperr.CodeFilesystem, err, "cannot stat %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return pkgdb.Package{}, apperr.Wrap(apperr.CodeFilesystem, err, "cannot read %s", path)
	}
	info, err := metadata.ExtractFrom(in.extractor, path, data)
	if err != nil {
		return pkgdb.Package{}, apperr.Wrap(apperr.CodeFilesystem, err, "cannot read %s", path)
	}
	version := info.Version
	if version == "" {
		version = UnknownVersion
	}
	name := metadata.PackageName(info.Name)
	if info.Name == metadata.Stem(path) {
		// No declared name; let the desktop entry title-case the package name.
		info.Name = ""
	}
	return in.commit(name, version, data, info)
}

// VerifySHA256 compares the digest of data with the hex string want,
// ignoring case.
func VerifySHA256(data []byte, want string) error {
	sum := sha256.Sum256(data)
	got := hex.EncodeToString(sum[:])
	if !strings.EqualFold(got, strings.TrimSpace(want)) {
		return fmt.Errorf("sha256 mismatch: expected %s, got %s", strings.ToLower(want), got)
	}
	return nil
}

func checkPathElem(kind, s string) error {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
		return apperr.New(apperr.CodeManifestValidation, "invalid package %s %q", kind, s)
	}
	return nil
}

// commit writes data as name's artifact and records the install. info is
// the artifact's metadata when the caller already has it.
func (in *Installer) commit(name, version string, data []byte, info *metadata.Info) (pkgdb.Package, error) {
	if err := checkPathElem("name", name); err != nil {
		return pkgdb.Package{}, err
	}
	if err := checkPathElem("version", version); err != nil {
		return pkgdb.Package{}, err
	}

	dir := filepath.Join(in.paths.AppImagesDir, name, version)
	_, statErr := os.Stat(dir)
	fresh := errors.Is(statErr, os.ErrNotExist)

	txn, err := in.begin(name, version, dir, fresh)
	if err != nil {
		return pkgdb.Package{}, apperr.Wrap(apperr.CodeFilesystem, err, "cannot start install of %s", name)
	}

	target := filepath.Join(dir, name+".AppImage")
	if err := fsutil.WriteFileAtomic(target, data, 0o755); err != nil {
		return pkgdb.Package{}, apperr.Wrap(apperr.CodeFilesystem, err, "cannot write %s", target)
	}

	if info == nil {
		var err error
		if info, err = metadata.ExtractFrom(in.extractor, target, data); err != nil {
			in.logger.Warn("cannot read metadata", "path", target, "err", err)
			info = &metadata.Info{Name: name, Size: int64(len(data))}
		}
	}

	desktop, err := in.writeDesktopFile(name, info, target)
	if err != nil {
		return pkgdb.Package{}, err
	}
	link, err := in.linkBinary(name, target)
	if err != nil {
		return pkgdb.Package{}, err
	}

	pkg := pkgdb.Package{
		Name:        name,
		Version:     version,
		Path:        target,
		DesktopFile: desktop,
		Symlink:     link,
		InstalledAt: in.now().UTC().Truncate(time.Second),
	}
	if err := pkgdb.Update(in.paths.DatabaseFile, func(db *pkgdb.Database) error {
		db.Add(pkg)
		return nil
	}); err != nil {
		return pkgdb.Package{}, err
	}

	if err := in.end(txn); err != nil {
		in.logger.Warn("cannot close install journal record", "txn", txn, "err", err)
	}
	in.logger.Debug("installed", "name", name, "version", version, "path", target)
	return pkg, nil
}

// linkBinary points <bin>/<name> at target, replacing whatever was there.
func (in *Installer) linkBinary(name, target string) (string, error) {
	if err := os.MkdirAll(in.paths.BinDir, 0o755); err != nil {
		return "", apperr.Wrap(apperr.CodeFilesystem, err, "cannot create %s", in.paths.BinDir)
	}
	link := filepath.Join(in.paths.BinDir, name)
	if _, err := os.Lstat(link); err == nil {
		if err := os.Remove(link); err != nil {
			return "", apperr.Wrap(apperr.CodeFilesystem, err, "cannot remove old symlink %s", link)
		}
	}
	if err := os.Symlink(target, link); err != nil {
		return "", apperr.Wrap(apperr.CodeFilesystem, err, "symlink %s → %s", link, target)
	}
	return link, nil
}

// Uninstall removes name's artifact directory, desktop entry, symlink and
// database record.
func (in *Installer) Uninstall(name string) (pkgdb.Package, error) {
	db, err := pkgdb.Load(in.paths.DatabaseFile)
	if err != nil {
		return pkgdb.Package{}, err
	}
	pkg, err := db.MustGet(name)
	if err != nil {
		return pkgdb.Package{}, err
	}

	if pkg.Path != "" {
		if err := in.removeArtifact(pkg); err != nil {
			return pkgdb.Package{}, err
		}
	}
	if err := removeIfExists(pkg.DesktopFile); err != nil {
		return pkgdb.Package{}, apperr.Wrap(apperr.CodeFilesystem, err, "cannot remove desktop file")
	}
	if err := removeLinkIfOurs(pkg.Symlink, pkg.Path); err != nil {
		return pkgdb.Package{}, apperr.Wrap(apperr.CodeFilesystem, err, "cannot remove symlink")
	}

	db.Remove(name)
	if err := db.Save(in.paths.DatabaseFile); err != nil {
		return pkgdb.Package{}, err
	}
	in.logger.Debug("uninstalled", "name", name, "version", pkg.Version)
	return pkg, nil
}

// removeArtifact deletes pkg's version directory. An install made under a
// different appimages directory is still removed when its recorded path has
// the <root>/<name>/<version>/<name>.AppImage layout; any other path outside
// the current directory is left in place with a warning.
func (in *Installer) removeArtifact(pkg pkgdb.Package) error {
	dir := filepath.Dir(pkg.Path)
	if within(in.paths.AppImagesDir, dir) {
		return in.removeVersionDir(dir)
	}
	if filepath.Base(pkg.Path) == pkg.Name+".AppImage" &&
		filepath.Base(dir) == pkg.Version &&
		filepath.Base(filepath.Dir(dir)) == pkg.Name {
		return removeVersionDirUnder(filepath.Dir(filepath.Dir(dir)), dir)
	}
	in.logger.Warn("leaving artifact outside the appimages directory", "path", pkg.Path, "appimages_dir", in.paths.AppImagesDir)
	return nil
}

// within reports whether dir is strictly inside root.
func within(root, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), dir)
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}

// removeVersionDir deletes dir and its parent when that leaves the parent
// empty. Paths outside the appimages directory are never touched.
func (in *Installer) removeVersionDir(dir string) error {
	return removeVersionDirUnder(in.paths.AppImagesDir, dir)
}

func removeVersionDirUnder(root, dir string) error {
	root = filepath.Clean(root)
	if !within(root, dir) {
		return apperr.New(apperr.CodeFilesystem, "refusing to remove %s: outside %s", dir, root)
	}
	if err := os.RemoveAll(dir); err != nil {
		return apperr.Wrap(apperr.CodeFilesystem, err, "cannot remove %s", dir)
	}
	parent := filepath.Dir(dir)
	if parent != root {
		if entries, err := os.ReadDir(parent); err == nil && len(entries) == 0 {
			_ = os.Remove(parent)
		}
	}
	return nil
}

func removeIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// removeLinkIfOurs removes link unless it has since been repointed at
// something other than target.
func removeLinkIfOurs(link, target string) error {
	if link == "" {
		return nil
	}
	fi, err := os.Lstat(link)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		if cur, err := os.Readlink(link); err == nil && target != "" && cur != target {
			return nil
		}
	}
	return os.Remove(link)
}

// Upgraded describes one package moved to a newer version.
type Upgraded struct {
	Name string
	From string
	To   string
}

// Candidates returns the installed packages for which idx has a strictly
// newer semantic version. Non-semver versions are never upgraded.
func (in *Installer) Candidates(idx *index.Index) ([]index.Entry, []Upgraded, error) {
	db, err := pkgdb.Load(in.paths.DatabaseFile)
	if err != nil {
		return nil, nil, err
	}
	var (
		entries []index.Entry
		plan    []Upgraded
	)
	for _, pkg := range db.List() {
		latest, ok := idx.FindBestMatch(pkg.Name, "")
		if !ok {
			continue
		}
		cur, err := semver.StrictNewVersion(pkg.Version)
		if err != nil {
			continue
		}
		next, err := semver.StrictNewVersion(latest.Version)
		if err != nil {
			continue
		}
		if next.GreaterThan(cur) {
			entries = append(entries, latest)
			plan = append(plan, Upgraded{Name: pkg.Name, From: pkg.Version, To: latest.Version})
		}
	}
	return entries, plan, nil
}

// Upgrade installs every newer version found by Candidates. The new
// version is installed before the old artifact directory is removed, so a
// failed download leaves the old version in place.
func (in *Installer) Upgrade(ctx context.Context, idx *index.Index) ([]Upgraded, error) {
	entries, plan, err := in.Candidates(idx)
	if err != nil {
		return nil, err
	}
	db, err := pkgdb.Load(in.paths.DatabaseFile)
	if err != nil {
		return nil, err
	}

	var done []Upgraded
	for i, e := range entries {
		old, _ := db.Get(e.Name)
		if _, err := in.Install(ctx, e); err != nil {
			return done, fmt.Errorf("cannot upgrade %s: %w", e.Name, err)
		}
		if old.Path != "" {
			oldDir := filepath.Dir(old.Path)
			newDir := filepath.Join(in.paths.AppImagesDir, e.Name, e.Version)
			if oldDir != newDir {
				if err := in.removeVersionDir(oldDir); err != nil {
					in.logger.Warn("cannot remove previous version", "dir", oldDir, "err", err)
				}
			}
		}
		done = append(done, plan[i])
	}
	return done, nil
}

// Recover cleans up after installs that were interrupted before reaching
// the package database. Artifact directories created by such an install
// are removed; the journal is emptied. It returns the records it handled.
func (in *Installer) Recover() ([]Record, error) {
	j, err := loadJournal(in.paths.JournalFile)
	if err != nil {
		return nil, err
	}
	if len(j.Transactions) == 0 {
		return nil, nil
	}
	db, err := pkgdb.Load(in.paths.DatabaseFile)
	if err != nil {
		return nil, err
	}

	handled := make([]Record, 0, len(j.Transactions))
	for _, r := range j.Transactions {
		if p, ok := db.Get(r.Name); ok && p.Version == r.Version {
			// Committed; only the journal update was lost.
			handled = append(handled, r)
			continue
		}
		if r.Fresh {
			if err := in.removeVersionDir(r.Dir); err != nil {
				return handled, err
			}
			in.logger.Warn("removed partial install", "name", r.Name, "version", r.Version, "dir", r.Dir)
		}
		handled = append(handled, r)
	}

	j.Transactions = nil
	if err := j.save(in.paths.JournalFile); err != nil {
		return handled, err
	}
	return handled, nil
}
