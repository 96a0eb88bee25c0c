package manifest

import (
	"strings"
	"testing"

	"github.com/kamusis/aipkg/internal/apperr"
)

const validHash = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func TestParse_PackageManifest(t *testing.T) {
	doc := "apps:\n" +
		"  - name: firefox\n" +
		"    version: 1.2.0\n" +
		"    file: Firefox.AppImage\n" +
		"    sha256: " + validHash + "\n" +
		"    size: 1024\n" +
		"    description: Browser\n" +
		"    dependencies: [libfoo]\n" +
		"    provides: [browser]\n" +
		"    homepage: https://example.com\n" // unknown fields are tolerated

	d, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Index != nil || d.Package == nil {
		t.Fatalf("expected package manifest, got %+v", d)
	}
	e := d.Package.Apps[0]
	if e.Name != "firefox" || e.Version != "1.2.0" || e.Size != 1024 {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if len(e.Dependencies) != 1 || e.Dependencies[0] != "libfoo" {
		t.Fatalf("dependencies not decoded: %+v", e.Dependencies)
	}
}

func TestParse_IndexManifest(t *testing.T) {
	doc := "sources:\n" +
		"  - type: index\n" +
		"    url: sub/index.yaml\n" +
		"  - type: appimage\n" +
		"    url: https://example.com/apps.yaml\n" +
		"  - type: package\n" +
		"    url: other.yaml\n"

	d, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Index == nil {
		t.Fatal("expected index manifest")
	}
	want := []SourceType{SourceIndex, SourceAppImage, SourceAppImage}
	for i, s := range d.Index.Sources {
		if s.Type != want[i] {
			t.Fatalf("source %d type = %q, want %q", i, s.Type, want[i])
		}
	}
}

func TestParse_NeitherShape(t *testing.T) {
	cases := []string{
		"",
		"just a string",
		"foo: bar\n",
		"sources:\n  - type: mirror\n    url: x.yaml\n",
	}
	for _, c := range cases {
		_, err := Parse([]byte(c))
		if err == nil {
			t.Fatalf("Parse(%q): expected error", c)
		}
		if !apperr.Is(err, apperr.CodeManifestParse) {
			t.Fatalf("Parse(%q): expected MANIFEST_PARSE, got %v", c, err)
		}
	}
}

func TestValidate_RejectsWholeManifest(t *testing.T) {
	cases := []struct {
		name  string
		entry Entry
	}{
		{"empty name", Entry{Name: "", Version: "1.0.0", SHA256: validHash}},
		{"empty version", Entry{Name: "a", Version: "", SHA256: validHash}},
		{"missing hash", Entry{Name: "a", Version: "1.0.0"}},
		{"short hash", Entry{Name: "a", Version: "1.0.0", SHA256: validHash[:63]}},
		{"long hash", Entry{Name: "a", Version: "1.0.0", SHA256: validHash + "a"}},
		{"non-hex hash", Entry{Name: "a", Version: "1.0.0", SHA256: strings.Repeat("z", 64)}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := PackageManifest{Apps: []Entry{
				{Name: "good", Version: "1.0.0", File: "good.AppImage", SHA256: validHash},
				c.entry,
			}}
			err := m.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !apperr.Is(err, apperr.CodeManifestValidation) {
				t.Fatalf("expected MANIFEST_VALIDATION, got %v", err)
			}
		})
	}
}

func TestPackageManifest_RoundTrip(t *testing.T) {
	orig := PackageManifest{Apps: []Entry{
		{
			Name:         "krita",
			Version:      "5.2.0",
			File:         "krita-5.2.0-x86_64.AppImage",
			SHA256:       validHash,
			Size:         300_000_000,
			Description:  "Digital painting",
			Dependencies: []string{"libkrita"},
			Provides:     []string{"painter"},
		},
		{Name: "tiny", Version: "0.1.0", File: "tiny.AppImage", SHA256: strings.ToUpper(validHash)},
	}}

	data, err := orig.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := ParsePackage(data)
	if err != nil {
		t.Fatalf("ParsePackage: %v\n%s", err, data)
	}
	if len(got.Apps) != len(orig.Apps) {
		t.Fatalf("apps = %d, want %d", len(got.Apps), len(orig.Apps))
	}
	a, b := orig.Apps[0], got.Apps[0]
	if a.Name != b.Name || a.Version != b.Version || a.File != b.File || a.SHA256 != b.SHA256 ||
		a.Size != b.Size || a.Description != b.Description ||
		strings.Join(a.Dependencies, ",") != strings.Join(b.Dependencies, ",") ||
		strings.Join(a.Provides, ",") != strings.Join(b.Provides, ",") {
		t.Fatalf("round trip lost fields:\nwant %+v\ngot  %+v", a, b)
	}
}

func TestParseIndex_EmptyURL(t *testing.T) {
	_, err := ParseIndex([]byte("sources:\n  - type: index\n    url: \"\"\n"))
	if !apperr.Is(err, apperr.CodeManifestValidation) {
		t.Fatalf("expected MANIFEST_VALIDATION, got %v", err)
	}
}
