package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

type doc struct {
	Name  string   `yaml:"name"`
	Items []string `yaml:"items"`
}

func TestWriteYAML_ThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.yaml")
	if err := WriteYAML(path, doc{Name: "x", Items: []string{"a", "b"}}); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	var got doc
	found, err := ReadYAML(path, &got)
	if err != nil || !found {
		t.Fatalf("ReadYAML: found=%v err=%v", found, err)
	}
	if got.Name != "x" || len(got.Items) != 2 {
		t.Fatalf("unexpected doc: %+v", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestReadYAML_MissingAndEmpty(t *testing.T) {
	dir := t.TempDir()
	var d doc
	found, err := ReadYAML(filepath.Join(dir, "nope.yaml"), &d)
	if err != nil || found {
		t.Fatalf("missing file: found=%v err=%v", found, err)
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	found, err = ReadYAML(empty, &d)
	if err != nil || found {
		t.Fatalf("empty file: found=%v err=%v", found, err)
	}
}

func TestReadYAML_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("name: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	var d doc
	if _, err := ReadYAML(path, &d); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}
