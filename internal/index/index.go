// Package index implements the unified index: every package entry
// discovered from every configured source, keyed by package name.
package index

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/kamusis/aipkg/internal/apperr"
	"github.com/kamusis/aipkg/internal/fsutil"
	"github.com/kamusis/aipkg/internal/manifest"
)

// Entry is a manifest entry tagged with where it was declared.
type Entry struct {
	manifest.Entry `yaml:",inline"`

	// SourceURL is the absolute URL of the package manifest that declared
	// the entry; the artifact path is resolved against it.
	SourceURL string `yaml:"source_url"`
	// Root is the configured source through which the entry was reached.
	Root string `yaml:"root,omitempty"`
}

// Index maps package name to every known entry for that name.
type Index struct {
	Apps        map[string][]Entry `yaml:"apps"`
	LastUpdated string             `yaml:"last_updated,omitempty"`
}

// New returns an empty index.
func New() *Index {
	return &Index{Apps: make(map[string][]Entry)}
}

// Add inserts e. An entry with the same name, version and source URL is
// replaced rather than duplicated.
func (idx *Index) Add(e Entry) {
	if idx.Apps == nil {
		idx.Apps = make(map[string][]Entry)
	}
	list := idx.Apps[e.Name]
	for i := range list {
		if list[i].Version == e.Version && list[i].SourceURL == e.SourceURL {
			list[i] = e
			return
		}
	}
	idx.Apps[e.Name] = append(list, e)
}

// PurgeRoot removes every entry discovered through root and returns how
// many were removed.
func (idx *Index) PurgeRoot(root string) int {
	removed := 0
	for name, list := range idx.Apps {
		kept := list[:0]
		for _, e := range list {
			if e.Root == root {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(idx.Apps, name)
		} else {
			idx.Apps[name] = kept
		}
	}
	return removed
}

// SourceURLs returns the distinct manifests that contributed entries
// through root.
func (idx *Index) SourceURLs(root string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range idx.Apps {
		for _, e := range list {
			if e.Root != root {
				continue
			}
			if _, ok := seen[e.SourceURL]; !ok {
				seen[e.SourceURL] = struct{}{}
				out = append(out, e.SourceURL)
			}
		}
	}
	sort.Strings(out)
	return out
}

// HasSource reports whether any entry was declared by the manifest at u.
func (idx *Index) HasSource(u string) bool {
	for _, list := range idx.Apps {
		for _, e := range list {
			if e.SourceURL == u {
				return true
			}
		}
	}
	return false
}

// Roots returns the distinct roots that contributed entries, sorted.
func (idx *Index) Roots() []string {
	seen := make(map[string]struct{})
	for _, list := range idx.Apps {
		for _, e := range list {
			seen[e.Root] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Names returns all package names, sorted.
func (idx *Index) Names() []string {
	names := make([]string, 0, len(idx.Apps))
	for n := range idx.Apps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the total number of entries.
func (idx *Index) Len() int {
	n := 0
	for _, list := range idx.Apps {
		n += len(list)
	}
	return n
}

// Load reads the index cache at path.
func Load(path string) (*Index, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, apperr.New(apperr.CodeNotFound, "unified index not found at %s; run 'aipkg refresh' first", path)
	}
	idx := New()
	if _, err := fsutil.ReadYAML(path, idx); err != nil {
		return nil, fmt.Errorf("cannot load unified index: %w", err)
	}
	if idx.Apps == nil {
		idx.Apps = make(map[string][]Entry)
	}
	return idx, nil
}

// Save replaces the index cache at path.
func (idx *Index) Save(path string) error {
	if err := fsutil.WriteYAML(path, idx); err != nil {
		return fmt.Errorf("cannot write unified index cache: %w", err)
	}
	return nil
}
