package metadata

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestExtract_DesktopEntry(t *testing.T) {
	body := []byte("\x7fELF\x00\x01binary junk" +
		"[Desktop Entry]\n" +
		"Type=Application\n" +
		"Name=Krita\n" +
		"Name[de]=Krita DE\n" +
		"Version=5.2.0\n" +
		"Comment=Digital painting\n" +
		"Exec=krita %F\n" +
		"Icon=krita\n" +
		"Categories=Graphics;2DGraphics;;\n" +
		"\x00\x00more binary\n[Desktop Action New]\nName=New\n")
	path := filepath.Join(t.TempDir(), "krita-5.2.0-x86_64.AppImage")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := DesktopEntryExtractor{}.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if info.Name != "Krita" || info.Version != "5.2.0" || info.Description != "Digital painting" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.Exec != "krita %F" || info.Icon != "krita" {
		t.Fatalf("unexpected exec/icon: %+v", info)
	}
	if !reflect.DeepEqual(info.Categories, []string{"Graphics", "2DGraphics"}) {
		t.Fatalf("Categories = %v", info.Categories)
	}
	if info.Size != int64(len(body)) {
		t.Fatalf("Size = %d", info.Size)
	}
}

func TestExtract_FallsBackToStem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tool.AppImage")
	if err := os.WriteFile(path, []byte("no entry here"), 0o644); err != nil {
		t.Fatal(err)
	}
	info, err := DesktopEntryExtractor{}.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if info.Name != "tool" || info.Version != "" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestExtract_MissingFile(t *testing.T) {
	if _, err := (DesktopEntryExtractor{}).Extract(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error")
	}
}

func TestPackageName(t *testing.T) {
	cases := map[string]string{
		"My Editor": "My-Editor",
		" tool ":    "tool",
		"a/b":       "a-b",
		"..":        "unknown",
		"":          "unknown",
		"krita-5.2": "krita-5.2",
	}
	for in, want := range cases {
		if got := PackageName(in); got != want {
			t.Fatalf("PackageName(%q) = %q, want %q", in, got, want)
		}
	}
}
