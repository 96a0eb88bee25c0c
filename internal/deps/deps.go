// Package deps computes the dependency closure of a package.
package deps

import (
	"github.com/kamusis/aipkg/internal/index"
)

// Expand returns every transitive dependency of e, in discovery order,
// excluding e itself. Dependencies are looked up by exact name only. Names
// with no entry in idx are skipped and returned in missing.
func Expand(idx *index.Index, e index.Entry) (resolved []index.Entry, missing []string) {
	visited := map[string]struct{}{e.Name: {}}
	stack := append([]string(nil), e.Dependencies...)

	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[name]; seen {
			continue
		}
		visited[name] = struct{}{}

		dep, ok := idx.FindBestMatch(name, "")
		if !ok {
			missing = append(missing, name)
			continue
		}
		resolved = append(resolved, dep)
		stack = append(stack, dep.Dependencies...)
	}
	return resolved, missing
}

// InstallOrder returns resolved in reverse discovery order followed by e,
// so a dependency found through another dependency is installed first.
func InstallOrder(resolved []index.Entry, e index.Entry) []index.Entry {
	out := make([]index.Entry, 0, len(resolved)+1)
	for i := len(resolved) - 1; i >= 0; i-- {
		out = append(out, resolved[i])
	}
	return append(out, e)
}
