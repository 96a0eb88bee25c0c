package resolver

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/aipkg/internal/apperr"
)

const hash = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

type fakeFetcher struct {
	docs   map[string]string
	counts map[string]int
}

func newFakeFetcher(docs map[string]string) *fakeFetcher {
	return &fakeFetcher{docs: docs, counts: make(map[string]int)}
}

func (f *fakeFetcher) FetchText(_ context.Context, u string) ([]byte, error) {
	f.counts[u]++
	d, ok := f.docs[u]
	if !ok {
		return nil, apperr.New(apperr.CodeNetwork, "fetch failed for %s: 404 Not Found", u)
	}
	return []byte(d), nil
}

func (f *fakeFetcher) FetchBinary(ctx context.Context, u string, _ int64) ([]byte, error) {
	return f.FetchText(ctx, u)
}

func apps(names ...string) string {
	s := "apps:\n"
	for _, n := range names {
		s += fmt.Sprintf("  - name: %s\n    version: 1.0.0\n    file: %s.AppImage\n    sha256: %s\n", n, n, hash)
	}
	return s
}

func quietLogger() *log.Logger { return log.New(io.Discard) }

func TestResolve_NestedIndexFetchesEachURLOnce(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"https://example.com/a/index.yaml": "sources:\n" +
			"  - type: index\n    url: b.yaml\n" +
			"  - type: appimage\n    url: ../c.yaml\n",
		"https://example.com/a/b.yaml": "sources:\n" +
			"  - type: appimage\n    url: d.yaml\n" +
			"  - type: appimage\n    url: https://example.com/c.yaml\n",
		"https://example.com/c.yaml":   apps("cee"),
		"https://example.com/a/d.yaml": apps("dee"),
	})

	idx, err := New(f, quietLogger()).Resolve(context.Background(), []string{"https://example.com/a/index.yaml"})
	require.NoError(t, err)

	for u, n := range f.counts {
		assert.Equal(t, 1, n, "fetch count for %s", u)
	}
	assert.Len(t, f.counts, 4)

	require.Len(t, idx.Apps["cee"], 1)
	require.Len(t, idx.Apps["dee"], 1)
	assert.Equal(t, "https://example.com/c.yaml", idx.Apps["cee"][0].SourceURL)
	assert.Equal(t, "https://example.com/a/d.yaml", idx.Apps["dee"][0].SourceURL)
	assert.Equal(t, "https://example.com/a/index.yaml", idx.Apps["dee"][0].Root)
}

func TestResolve_Cycle(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"https://example.com/a.yaml": "sources:\n  - type: index\n    url: b.yaml\n",
		"https://example.com/b.yaml": "sources:\n  - type: index\n    url: a.yaml\n  - type: appimage\n    url: apps.yaml\n",
		"https://example.com/apps.yaml": apps("x"),
	})

	idx, err := New(f, quietLogger()).Resolve(context.Background(), []string{"https://example.com/a.yaml"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.counts["https://example.com/a.yaml"])
	assert.Equal(t, 1, f.counts["https://example.com/b.yaml"])
	assert.Equal(t, 1, idx.Len())
}

func TestResolve_PackageRoot(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"https://example.com/apps.yaml": apps("one", "two"),
	})
	idx, err := New(f, quietLogger()).Resolve(context.Background(), []string{
		"https://EXAMPLE.com/apps.yaml",
		"https://example.com/apps.yaml#dup",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 1, f.counts["https://example.com/apps.yaml"])
}

func TestResolve_ParseErrorAborts(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"https://example.com/good.yaml": apps("good"),
		"https://example.com/bad.yaml":  "hello: world\n",
	})
	idx, err := New(f, quietLogger()).Resolve(context.Background(), []string{
		"https://example.com/good.yaml",
		"https://example.com/bad.yaml",
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeManifestParse), "got %v", err)
	// Entries emitted before the failure are kept.
	assert.Len(t, idx.Apps["good"], 1)
}

func TestResolve_NetworkErrorAborts(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"https://example.com/a.yaml": "sources:\n  - type: appimage\n    url: gone.yaml\n",
	})
	_, err := New(f, quietLogger()).Resolve(context.Background(), []string{"https://example.com/a.yaml"})
	assert.True(t, apperr.Is(err, apperr.CodeNetwork), "got %v", err)
}

func TestResolveReference(t *testing.T) {
	got, err := ResolveReference("https://example.com/repo/index.yaml", "sub/apps.yaml")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/repo/sub/apps.yaml", got)

	got, err = ResolveReference("https://example.com/repo/index.yaml", "https://other.org/x.yaml")
	require.NoError(t, err)
	assert.Equal(t, "https://other.org/x.yaml", got)
}
