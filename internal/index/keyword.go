package index

import (
	"sort"
	"strings"
)

// KeywordSearch matches query tokens case-insensitively against each
// package's name, description and provides list. All tokens must match.
// One hit per package name (its best entry), sorted by name.
func (idx *Index) KeywordSearch(query string, limit int) []Match {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return []Match{}
	}

	var out []Match
	for _, name := range idx.Names() {
		e, ok := idx.FindBestMatch(name, "")
		if !ok {
			continue
		}
		blob := strings.ToLower(strings.Join([]string{
			e.Name, e.Description, strings.Join(e.Provides, " "),
		}, "\n"))
		matched := true
		for _, tok := range tokens {
			if !strings.Contains(blob, tok) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		out = append(out, Match{Name: name, Score: len(tokens), Entry: e})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func tokenize(q string) []string {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	parts := strings.Fields(q)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
