package index

import (
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/sahilm/fuzzy"

	"github.com/kamusis/aipkg/internal/apperr"
)

// FindBestMatch returns the entry for name with the highest semantic
// version, optionally restricted to those satisfying req (a semver
// constraint such as "^1.0.0"). An unparseable req is ignored.
//
// Entries whose version is not valid semver lose to any valid sibling.
// Equal versions from different sources resolve to the greatest source URL.
func (idx *Index) FindBestMatch(name, req string) (Entry, bool) {
	entries := idx.Apps[name]
	if len(entries) == 0 {
		return Entry{}, false
	}

	var constraint *semver.Constraints
	if req != "" {
		if c, err := semver.NewConstraint(req); err == nil {
			constraint = c
		}
	}

	var (
		best  *Entry
		bestV *semver.Version
	)
	for i := range entries {
		e := &entries[i]
		v, err := semver.StrictNewVersion(e.Version)
		if err != nil {
			continue
		}
		if constraint != nil && !constraint.Check(v) {
			continue
		}
		if best == nil || v.GreaterThan(bestV) || (v.Equal(bestV) && e.SourceURL > best.SourceURL) {
			best, bestV = e, v
		}
	}
	if best != nil {
		return *best, true
	}
	if constraint != nil {
		return Entry{}, false
	}

	// No valid semver at all: opaque strings, pick deterministically.
	pick := &entries[0]
	for i := 1; i < len(entries); i++ {
		e := &entries[i]
		if e.Version > pick.Version || (e.Version == pick.Version && e.SourceURL > pick.SourceURL) {
			pick = e
		}
	}
	return *pick, true
}

// Match is one fuzzy search hit.
type Match struct {
	Name  string
	Score int
	Entry Entry
}

// FuzzyFind scores query against every package name. Matching is
// case-insensitive and requires the query to be an ordered subsequence of
// the name; contiguous runs score higher. Results are best first, ties in
// name order.
func (idx *Index) FuzzyFind(query string) []Match {
	if query == "" {
		return nil
	}
	names := idx.Names()
	results := fuzzy.Find(query, names)
	out := make([]Match, 0, len(results))
	for _, r := range results {
		e, ok := idx.FindBestMatch(r.Str, "")
		if !ok {
			continue
		}
		out = append(out, Match{Name: r.Str, Score: r.Score, Entry: e})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].Name < out[j].Name
		}
		return out[i].Score > out[j].Score
	})
	return out
}

// Lookup resolves a user-supplied package name: exact name first, then the
// single best fuzzy match.
func (idx *Index) Lookup(query, req string) (Entry, error) {
	if e, ok := idx.FindBestMatch(query, req); ok {
		return e, nil
	}
	if _, exact := idx.Apps[query]; exact {
		return Entry{}, apperr.New(apperr.CodeNotFound, "no version of %s satisfies %q", query, req)
	}
	for _, m := range idx.FuzzyFind(query) {
		if e, ok := idx.FindBestMatch(m.Name, req); ok {
			return e, nil
		}
	}
	return Entry{}, apperr.New(apperr.CodeNotFound, "package not found: %s", query)
}
