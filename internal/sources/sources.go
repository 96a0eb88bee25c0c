// Package sources manages the user's configured roots: plain sources in
// sources.yaml and named groups of sources in collectives.yaml.
package sources

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/kamusis/aipkg/internal/apperr"
	"github.com/kamusis/aipkg/internal/fsutil"
)

// List is sources.yaml.
type List struct {
	Sources []string `yaml:"sources"`
}

// Collective is a named group of sources.
type Collective struct {
	Name    string   `yaml:"name"`
	Sources []string `yaml:"sources"`
}

// Collectives is collectives.yaml.
type Collectives struct {
	Collectives []Collective `yaml:"collectives"`
}

// LoadList reads sources.yaml. A missing or empty file is an empty list.
func LoadList(path string) (*List, error) {
	l := &List{}
	if _, err := fsutil.ReadYAML(path, l); err != nil {
		return nil, fmt.Errorf("cannot read sources file %s: %w", path, err)
	}
	return l, nil
}

// Save writes the list atomically.
func (l *List) Save(path string) error {
	if err := fsutil.WriteYAML(path, l); err != nil {
		return fmt.Errorf("cannot write sources file: %w", err)
	}
	return nil
}

// Add appends u unless already present and reports whether it was added.
func (l *List) Add(u string) bool {
	for _, s := range l.Sources {
		if s == u {
			return false
		}
	}
	l.Sources = append(l.Sources, u)
	return true
}

// Remove deletes u and reports whether it was present.
func (l *List) Remove(u string) bool {
	for i, s := range l.Sources {
		if s == u {
			l.Sources = append(l.Sources[:i], l.Sources[i+1:]...)
			return true
		}
	}
	return false
}

// LoadCollectives reads collectives.yaml. A missing or empty file has no
// collectives.
func LoadCollectives(path string) (*Collectives, error) {
	c := &Collectives{}
	if _, err := fsutil.ReadYAML(path, c); err != nil {
		return nil, fmt.Errorf("cannot read collectives file %s: %w", path, err)
	}
	return c, nil
}

// Save writes the collectives atomically.
func (c *Collectives) Save(path string) error {
	if err := fsutil.WriteYAML(path, c); err != nil {
		return fmt.Errorf("cannot write collectives file: %w", err)
	}
	return nil
}

// Add merges urls into the named collective, creating it if needed.
func (c *Collectives) Add(name string, urls []string) {
	for i := range c.Collectives {
		col := &c.Collectives[i]
		if col.Name != name {
			continue
		}
		for _, u := range urls {
			if !contains(col.Sources, u) {
				col.Sources = append(col.Sources, u)
			}
		}
		return
	}
	c.Collectives = append(c.Collectives, Collective{Name: name, Sources: dedupe(urls)})
}

// Remove deletes the named collective and reports whether it existed.
func (c *Collectives) Remove(name string) bool {
	for i, col := range c.Collectives {
		if col.Name == name {
			c.Collectives = append(c.Collectives[:i], c.Collectives[i+1:]...)
			return true
		}
	}
	return false
}

// Sources returns every source of every collective, sorted and deduplicated.
func (c *Collectives) Sources() []string {
	var all []string
	for _, col := range c.Collectives {
		all = append(all, col.Sources...)
	}
	return sortedUnique(all)
}

// All returns the union of sources.yaml and collectives.yaml, sorted and
// deduplicated. This is the root set handed to a refresh.
func All(sourcesPath, collectivesPath string) ([]string, error) {
	l, err := LoadList(sourcesPath)
	if err != nil {
		return nil, err
	}
	c, err := LoadCollectives(collectivesPath)
	if err != nil {
		return nil, err
	}
	return sortedUnique(append(append([]string(nil), l.Sources...), c.Sources()...)), nil
}

// ValidateURL rejects anything that is not an absolute http(s) URL.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return apperr.Wrap(apperr.CodeManifestValidation, err, "invalid URL: %s", raw)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperr.New(apperr.CodeManifestValidation, "source must be an absolute http(s) URL: %s", raw)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func dedupe(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if !contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func sortedUnique(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
