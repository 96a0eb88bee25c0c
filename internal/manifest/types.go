// Package manifest parses and validates the two remote document shapes:
// package manifests (appimage.yaml, an "apps" list) and index manifests
// (index.yaml, a "sources" list pointing at further manifests).
package manifest

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one installable package declared in a package manifest.
type Entry struct {
	Name         string   `yaml:"name"`
	Version      string   `yaml:"version"`
	File         string   `yaml:"file"`
	SHA256       string   `yaml:"sha256"`
	Size         int64    `yaml:"size,omitempty"`
	Description  string   `yaml:"description,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty"`
	Provides     []string `yaml:"provides,omitempty"`
}

// PackageManifest is the appimage.yaml document.
type PackageManifest struct {
	Apps []Entry `yaml:"apps"`
}

// SourceType tags an index child as another index or a package manifest.
type SourceType string

const (
	SourceIndex    SourceType = "index"
	SourceAppImage SourceType = "appimage"
)

// UnmarshalYAML accepts "index", "appimage" and the alias "package".
func (t *SourceType) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "index":
		*t = SourceIndex
	case "appimage", "package":
		*t = SourceAppImage
	default:
		return fmt.Errorf("line %d: unknown source type %q", node.Line, s)
	}
	return nil
}

// Source is one child reference inside an index manifest. URL may be
// relative to the manifest that declares it.
type Source struct {
	Type SourceType `yaml:"type"`
	URL  string     `yaml:"url"`
}

// IndexManifest is the index.yaml document.
type IndexManifest struct {
	Sources []Source `yaml:"sources"`
}

// Document is the tagged union produced by Parse: exactly one field is set.
type Document struct {
	Index   *IndexManifest
	Package *PackageManifest
}
