package deps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/aipkg/internal/index"
	"github.com/kamusis/aipkg/internal/manifest"
)

func add(idx *index.Index, name string, deps ...string) index.Entry {
	e := index.Entry{
		Entry:     manifest.Entry{Name: name, Version: "1.0.0", Dependencies: deps},
		SourceURL: "https://example.com/apps.yaml",
	}
	idx.Add(e)
	return e
}

func names(entries []index.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestExpand_Diamond(t *testing.T) {
	idx := index.New()
	p := add(idx, "P", "Q", "R")
	add(idx, "Q", "R")
	add(idx, "R")

	resolved, missing := Expand(idx, p)
	assert.Empty(t, missing)
	require.Len(t, resolved, 2)
	assert.ElementsMatch(t, []string{"Q", "R"}, names(resolved))
	// LIFO: R is pushed last so it is popped first.
	assert.Equal(t, []string{"R", "Q"}, names(resolved))
}

func TestExpand_MissingIsReported(t *testing.T) {
	idx := index.New()
	p := add(idx, "P", "Q", "ghost")
	add(idx, "Q", "phantom")

	resolved, missing := Expand(idx, p)
	assert.Equal(t, []string{"Q"}, names(resolved))
	assert.ElementsMatch(t, []string{"ghost", "phantom"}, missing)
}

func TestExpand_CycleBackToRoot(t *testing.T) {
	idx := index.New()
	p := add(idx, "P", "Q")
	add(idx, "Q", "P")

	resolved, missing := Expand(idx, p)
	assert.Empty(t, missing)
	assert.Equal(t, []string{"Q"}, names(resolved))
}

func TestExpand_NoFuzzyFallback(t *testing.T) {
	idx := index.New()
	p := add(idx, "P", "fire")
	add(idx, "firefox")

	resolved, missing := Expand(idx, p)
	assert.Empty(t, resolved)
	assert.Equal(t, []string{"fire"}, missing)
}

func TestInstallOrder(t *testing.T) {
	idx := index.New()
	p := add(idx, "P", "Q")
	add(idx, "Q", "R")
	add(idx, "R")

	resolved, _ := Expand(idx, p)
	assert.Equal(t, []string{"R", "Q", "P"}, names(InstallOrder(resolved, p)))
}
