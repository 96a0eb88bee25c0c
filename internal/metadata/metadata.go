// Package metadata reads the desktop entry embedded in an AppImage.
package metadata

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Info is what could be learned about an artifact. Only Name and Size are
// always set.
type Info struct {
	Name        string
	Version     string
	Description string
	Exec        string
	Icon        string
	Categories  []string
	Size        int64
}

// Extractor reads metadata from an artifact on disk.
type Extractor interface {
	Extract(path string) (*Info, error)
}

// DesktopEntryExtractor scans the artifact bytes for a [Desktop Entry]
// section. Missing fields are left empty; Name falls back to the file stem.
type DesktopEntryExtractor struct{}

var desktopMarker = []byte("[Desktop Entry]")

// Extract implements Extractor.
func (DesktopEntryExtractor) Extract(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return FromBytes(path, data), nil
}

// ExtractBytes implements BytesExtractor.
func (DesktopEntryExtractor) ExtractBytes(path string, data []byte) (*Info, error) {
	return FromBytes(path, data), nil
}

// BytesExtractor is an Extractor that can work on artifact bytes already
// in memory.
type BytesExtractor interface {
	ExtractBytes(path string, data []byte) (*Info, error)
}

// ExtractFrom reads metadata for the artifact at path whose contents are
// data, without touching the disk when ex supports it.
func ExtractFrom(ex Extractor, path string, data []byte) (*Info, error) {
	if bx, ok := ex.(BytesExtractor); ok {
		return bx.ExtractBytes(path, data)
	}
	return ex.Extract(path)
}

// FromBytes is Extract over already loaded artifact bytes.
func FromBytes(path string, data []byte) *Info {
	info := &Info{Size: int64(len(data))}

	if section, ok := desktopSection(data); ok {
		h := parseDesktopEntry(section)
		info.Name = h["name"]
		info.Version = h["version"]
		info.Description = h["comment"]
		info.Exec = h["exec"]
		info.Icon = h["icon"]
		info.Categories = splitList(h["categories"])
	}
	if info.Name == "" {
		info.Name = Stem(path)
	}
	return info
}

// Stem returns the file name without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" {
		return stem
	}
	return "unknown"
}

// PackageName turns a display name into something usable as a directory
// and command name.
func PackageName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ' ' || r == '\t':
			return '-'
		case r < 0x20:
			return -1
		}
		return r
	}, s)
	if s == "" || s == "." || s == ".." {
		return "unknown"
	}
	return s
}

func desktopSection(data []byte) (string, bool) {
	start := bytes.Index(data, desktopMarker)
	if start < 0 {
		return "", false
	}
	rest := data[start+len(desktopMarker):]
	end := bytes.Index(rest, []byte("\n["))
	if end >= 0 {
		rest = rest[:end]
	}
	// Stop at the first NUL so trailing binary data is not parsed as keys.
	if nul := bytes.IndexByte(rest, 0); nul >= 0 {
		rest = rest[:nul]
	}
	return strings.ToValidUTF8(string(rest), ""), true
}

func parseDesktopEntry(section string) map[string]string {
	out := make(map[string]string)
	for _, ln := range strings.Split(section, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" || strings.HasPrefix(ln, "#") || strings.HasPrefix(ln, "[") {
			continue
		}
		k, v, ok := strings.Cut(ln, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		// Localized keys such as Name[de] are ignored.
		if strings.Contains(k, "[") {
			continue
		}
		out[strings.ToLower(k)] = strings.TrimSpace(v)
	}
	return out
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ";") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
