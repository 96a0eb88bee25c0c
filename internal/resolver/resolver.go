// Package resolver flattens a forest of source manifests into index entries.
//
// A root may be a package manifest (a list of apps) or an index manifest
// pointing at further manifests. Index children are walked with an explicit
// stack; appimage children are collected and read after the stack drains.
// Each URL is fetched at most once per pass.
package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/kamusis/aipkg/internal/apperr"
	"github.com/kamusis/aipkg/internal/fetch"
	"github.com/kamusis/aipkg/internal/index"
	"github.com/kamusis/aipkg/internal/manifest"
)

// Resolver walks source manifests through a Fetcher.
type Resolver struct {
	fetcher fetch.Fetcher
	logger  *log.Logger
}

// New returns a Resolver. A nil logger falls back to log.Default().
func New(f fetch.Fetcher, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{fetcher: f, logger: logger}
}

// Resolve runs a full pass over roots into a fresh index.
func (r *Resolver) Resolve(ctx context.Context, roots []string) (*index.Index, error) {
	idx := index.New()
	p := r.NewPass(idx)
	for _, root := range roots {
		if err := p.ResolveRoot(ctx, root); err != nil {
			return idx, err
		}
	}
	return idx, nil
}

// Pass is one resolution pass. Its visited set spans every root resolved
// through it, so a manifest shared by two roots is read once and its
// entries are attributed to the first root that reached it.
type Pass struct {
	r       *Resolver
	idx     *index.Index
	visited map[string]struct{}
	emitted int
}

// NewPass starts a pass that emits into idx.
func (r *Resolver) NewPass(idx *index.Index) *Pass {
	return &Pass{r: r, idx: idx, visited: make(map[string]struct{})}
}

// Emitted reports how many entries the pass has added so far.
func (p *Pass) Emitted() int { return p.emitted }

// Visited reports whether u was already reached in this pass.
func (p *Pass) Visited(u string) bool {
	_, ok := p.visited[Normalize(u)]
	return ok
}

// ResolveRoot fetches root and resolves everything reachable from it.
func (p *Pass) ResolveRoot(ctx context.Context, root string) error {
	u := Normalize(root)
	if _, seen := p.visited[u]; seen {
		return nil
	}
	data, err := p.r.fetcher.FetchText(ctx, u)
	if err != nil {
		return err
	}
	return p.ResolveRootData(ctx, root, data)
}

// ResolveRootData resolves root using its already fetched bytes.
func (p *Pass) ResolveRootData(ctx context.Context, root string, data []byte) error {
	u := Normalize(root)
	if _, seen := p.visited[u]; seen {
		return nil
	}
	p.visited[u] = struct{}{}

	doc, err := manifest.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", u, err)
	}
	if doc.Package != nil {
		p.emit(u, u, doc.Package)
		return nil
	}

	var stack, appimages []string
	stack, appimages, err = p.children(u, doc.Index, stack, appimages)
	if err != nil {
		return err
	}

	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := p.visited[next]; seen {
			continue
		}
		p.visited[next] = struct{}{}

		body, err := p.r.fetcher.FetchText(ctx, next)
		if err != nil {
			return err
		}
		sub, err := manifest.Parse(body)
		if err != nil {
			return fmt.Errorf("%s: %w", next, err)
		}
		if sub.Package != nil {
			p.emit(u, next, sub.Package)
			continue
		}
		p.r.logger.Debug("descending into index", "url", next)
		stack, appimages, err = p.children(next, sub.Index, stack, appimages)
		if err != nil {
			return err
		}
	}

	for _, next := range appimages {
		if _, seen := p.visited[next]; seen {
			continue
		}
		p.visited[next] = struct{}{}

		body, err := p.r.fetcher.FetchText(ctx, next)
		if err != nil {
			return err
		}
		pkg, err := manifest.ParsePackage(body)
		if err != nil {
			return fmt.Errorf("%s: %w", next, err)
		}
		p.emit(u, next, pkg)
	}
	return nil
}

func (p *Pass) children(base string, m *manifest.IndexManifest, stack, appimages []string) ([]string, []string, error) {
	for _, s := range m.Sources {
		resolved, err := ResolveReference(base, s.URL)
		if err != nil {
			return stack, appimages, err
		}
		switch s.Type {
		case manifest.SourceIndex:
			stack = append(stack, resolved)
		default:
			appimages = append(appimages, resolved)
		}
	}
	return stack, appimages, nil
}

func (p *Pass) emit(root, source string, m *manifest.PackageManifest) {
	for _, e := range m.Apps {
		p.idx.Add(index.Entry{Entry: e, SourceURL: source, Root: root})
		p.emitted++
	}
	p.r.logger.Debug("read package manifest", "url", source, "apps", len(m.Apps))
}

// Normalize returns the canonical form of a source URL: lower-case scheme
// and host, no fragment. Unparseable input is returned trimmed.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// ResolveReference resolves ref against the manifest URL base.
func ResolveReference(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeManifestValidation, err, "invalid base URL %s", base)
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", apperr.Wrap(apperr.CodeManifestValidation, err, "invalid URL %s", ref)
	}
	return Normalize(b.ResolveReference(r).String()), nil
}
