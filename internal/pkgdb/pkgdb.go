// Package pkgdb records installed packages in database.yaml.
package pkgdb

import (
	"fmt"
	"sort"
	"time"

	"github.com/kamusis/aipkg/internal/apperr"
	"github.com/kamusis/aipkg/internal/fsutil"
)

// Package is one installed package.
type Package struct {
	Name        string    `yaml:"name"`
	Version     string    `yaml:"version"`
	Path        string    `yaml:"path"`
	DesktopFile string    `yaml:"desktop_file,omitempty"`
	Symlink     string    `yaml:"symlink,omitempty"`
	InstalledAt time.Time `yaml:"installed_at"`
}

// Database maps package name to its record. The file is read whole,
// mutated in memory and rewritten whole.
type Database struct {
	Packages map[string]Package `yaml:"packages"`
}

// Load reads the database at path. A missing file is an empty database.
func Load(path string) (*Database, error) {
	db := &Database{}
	if _, err := fsutil.ReadYAML(path, db); err != nil {
		return nil, apperr.Wrap(apperr.CodeFilesystem, err, "cannot load package database %s", path)
	}
	if db.Packages == nil {
		db.Packages = make(map[string]Package)
	}
	return db, nil
}

// Save rewrites the database at path atomically.
func (db *Database) Save(path string) error {
	if err := fsutil.WriteYAML(path, db); err != nil {
		return apperr.Wrap(apperr.CodeFilesystem, err, "cannot write package database")
	}
	return nil
}

// Add inserts or replaces p.
func (db *Database) Add(p Package) {
	if db.Packages == nil {
		db.Packages = make(map[string]Package)
	}
	db.Packages[p.Name] = p
}

// Remove deletes name and reports whether it was present.
func (db *Database) Remove(name string) bool {
	if _, ok := db.Packages[name]; !ok {
		return false
	}
	delete(db.Packages, name)
	return true
}

// Get returns the record for name.
func (db *Database) Get(name string) (Package, bool) {
	p, ok := db.Packages[name]
	return p, ok
}

// MustGet is Get returning a NotFound error for unknown names.
func (db *Database) MustGet(name string) (Package, error) {
	p, ok := db.Packages[name]
	if !ok {
		return Package{}, apperr.New(apperr.CodeNotFound, "package %s is not installed", name)
	}
	return p, nil
}

// List returns every record sorted by name.
func (db *Database) List() []Package {
	out := make([]Package, 0, len(db.Packages))
	for _, p := range db.Packages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Update loads the database at path, applies fn and saves the result.
func Update(path string, fn func(*Database) error) error {
	db, err := Load(path)
	if err != nil {
		return err
	}
	if err := fn(db); err != nil {
		return err
	}
	if err := db.Save(path); err != nil {
		return fmt.Errorf("cannot update package database: %w", err)
	}
	return nil
}
