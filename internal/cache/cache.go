// Package cache keeps the unified index up to date across refreshes.
//
// Each configured root's raw manifest bytes are hashed; a root whose hash
// matches the previous refresh is not walked again and its entries are
// reused from the cached index.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kamusis/aipkg/internal/fetch"
	"github.com/kamusis/aipkg/internal/fsutil"
	"github.com/kamusis/aipkg/internal/index"
	"github.com/kamusis/aipkg/internal/resolver"
)

// Metadata records when the index was built and the hash of every root.
type Metadata struct {
	LastUpdated  string            `yaml:"last_updated"`
	SourceHashes map[string]string `yaml:"source_hashes"`
}

// LoadMetadata reads cache metadata. A missing or unreadable file yields
// empty metadata, which makes every root look changed.
func LoadMetadata(path string) *Metadata {
	m := &Metadata{}
	if _, err := fsutil.ReadYAML(path, m); err != nil {
		m = &Metadata{}
	}
	if m.SourceHashes == nil {
		m.SourceHashes = make(map[string]string)
	}
	return m
}

// Save writes the metadata file atomically.
func (m *Metadata) Save(path string) error {
	if err := fsutil.WriteYAML(path, m); err != nil {
		return fmt.Errorf("cannot write cache metadata: %w", err)
	}
	return nil
}

// HashBytes returns the lowercase hex SHA-256 of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Refresher rebuilds the cached index from a set of roots.
type Refresher struct {
	fetcher      fetch.Fetcher
	resolver     *resolver.Resolver
	logger       *log.Logger
	indexPath    string
	metadataPath string
	now          func() time.Time
}

// New returns a Refresher persisting to indexPath and metadataPath.
func New(f fetch.Fetcher, logger *log.Logger, indexPath, metadataPath string) *Refresher {
	if logger == nil {
		logger = log.Default()
	}
	return &Refresher{
		fetcher:      f,
		resolver:     resolver.New(f, logger),
		logger:       logger,
		indexPath:    indexPath,
		metadataPath: metadataPath,
		now:          time.Now,
	}
}

// Result summarizes one refresh.
type Result struct {
	Index     *index.Index
	Metadata  *Metadata
	Changed   []string
	Unchanged []string
	Pruned    []string
}

// Refresh brings the cached index in line with roots. Unless force is set,
// roots whose manifest hash is unchanged keep their cached entries. Roots
// no longer configured are dropped. Nothing is written when any root fails.
func (r *Refresher) Refresh(ctx context.Context, roots []string, force bool) (*Result, error) {
	roots = normalizeRoots(roots)
	wanted := make(map[string]struct{}, len(roots))
	for _, root := range roots {
		wanted[root] = struct{}{}
	}

	idx, err := index.Load(r.indexPath)
	if err != nil {
		r.logger.Debug("no usable index cache, rebuilding", "err", err)
		idx = index.New()
		force = true
	}
	meta := LoadMetadata(r.metadataPath)

	res := &Result{Index: idx, Metadata: meta}

	stale := make(map[string]struct{})
	for root := range meta.SourceHashes {
		if _, ok := wanted[root]; !ok {
			stale[root] = struct{}{}
		}
	}
	for _, root := range idx.Roots() {
		if _, ok := wanted[root]; !ok {
			stale[root] = struct{}{}
		}
	}
	for root := range stale {
		delete(meta.SourceHashes, root)
		n := idx.PurgeRoot(root)
		res.Pruned = append(res.Pruned, root)
		r.logger.Debug("pruned source", "root", root, "entries", n)
	}
	sort.Strings(res.Pruned)
	if len(res.Pruned) > 0 {
		// Manifests shared with a pruned root may have been attributed to it.
		force = true
	}

	pass := r.resolver.NewPass(idx)
	unchanged := make(map[string][]byte)
	var purgedSources []string
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if pass.Visited(root) {
			continue
		}
		data, err := r.fetcher.FetchText(ctx, root)
		if err != nil {
			return nil, err
		}
		h := HashBytes(data)
		if prev, ok := meta.SourceHashes[root]; ok && prev == h && !force {
			res.Unchanged = append(res.Unchanged, root)
			unchanged[root] = data
			r.logger.Debug("source unchanged", "root", root)
			continue
		}

		purgedSources = append(purgedSources, idx.SourceURLs(root)...)
		purged := idx.PurgeRoot(root)
		before := pass.Emitted()
		if err := pass.ResolveRootData(ctx, root, data); err != nil {
			return nil, err
		}
		meta.SourceHashes[root] = h
		res.Changed = append(res.Changed, root)
		r.logger.Info("refreshed source", "root", root, "purged", purged, "entries", pass.Emitted()-before)
	}

	// A manifest shared with an unchanged root is attributed to one root
	// only. When a changed root no longer reaches it, walk the unchanged
	// roots again so their copy of it comes back.
	if lost := orphaned(idx, purgedSources); len(lost) > 0 && len(res.Unchanged) > 0 {
		r.logger.Debug("shared manifests dropped, re-resolving unchanged sources", "manifests", lost)
		for _, root := range res.Unchanged {
			idx.PurgeRoot(root)
			if err := pass.ResolveRootData(ctx, root, unchanged[root]); err != nil {
				return nil, err
			}
		}
		res.Changed = append(res.Changed, res.Unchanged...)
		sort.Strings(res.Changed)
		res.Unchanged = nil
	}

	stamp := r.now().UTC().Format(time.RFC3339)
	idx.LastUpdated = stamp
	meta.LastUpdated = stamp

	if err := idx.Save(r.indexPath); err != nil {
		return nil, err
	}
	if err := meta.Save(r.metadataPath); err != nil {
		return nil, err
	}
	return res, nil
}

// orphaned returns the manifests in sources that no longer declare any
// entry in idx.
func orphaned(idx *index.Index, sources []string) []string {
	var lost []string
	for _, u := range sources {
		if !idx.HasSource(u) {
			lost = append(lost, u)
		}
	}
	return lost
}

func normalizeRoots(roots []string) []string {
	seen := make(map[string]struct{}, len(roots))
	out := make([]string, 0, len(roots))
	for _, root := range roots {
		n := resolver.Normalize(root)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
