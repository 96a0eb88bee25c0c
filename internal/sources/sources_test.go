package sources

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kamusis/aipkg/internal/apperr"
)

func TestList_AddRemovePersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")

	l, err := LoadList(path)
	if err != nil {
		t.Fatalf("LoadList: %v", err)
	}
	if !l.Add("https://b.example.com/index.yaml") || !l.Add("https://a.example.com/index.yaml") {
		t.Fatal("Add returned false for new URL")
	}
	if l.Add("https://a.example.com/index.yaml") {
		t.Fatal("Add returned true for duplicate")
	}
	if err := l.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	l, err = LoadList(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Sources) != 2 {
		t.Fatalf("Sources = %v", l.Sources)
	}
	if !l.Remove("https://b.example.com/index.yaml") || l.Remove("https://nope.example.com") {
		t.Fatal("Remove result mismatch")
	}
}

func TestCollectives_AddMergesAndRemove(t *testing.T) {
	c := &Collectives{}
	c.Add("games", []string{"https://g1", "https://g2", "https://g1"})
	c.Add("games", []string{"https://g2", "https://g3"})
	c.Add("tools", []string{"https://t1"})

	if len(c.Collectives) != 2 {
		t.Fatalf("collectives = %+v", c.Collectives)
	}
	if want := []string{"https://g1", "https://g2", "https://g3"}; !reflect.DeepEqual(c.Collectives[0].Sources, want) {
		t.Fatalf("games sources = %v", c.Collectives[0].Sources)
	}
	if !c.Remove("tools") || c.Remove("tools") {
		t.Fatal("Remove result mismatch")
	}
}

func TestAll_UnionSortedDeduped(t *testing.T) {
	dir := t.TempDir()
	sp := filepath.Join(dir, "sources.yaml")
	cp := filepath.Join(dir, "collectives.yaml")

	l := &List{Sources: []string{"https://z.example.com", "https://a.example.com"}}
	if err := l.Save(sp); err != nil {
		t.Fatal(err)
	}
	c := &Collectives{}
	c.Add("x", []string{"https://a.example.com", "https://m.example.com"})
	if err := c.Save(cp); err != nil {
		t.Fatal(err)
	}

	got, err := All(sp, cp)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	want := []string{"https://a.example.com", "https://m.example.com", "https://z.example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("All = %v, want %v", got, want)
	}
}

func TestAll_NoFiles(t *testing.T) {
	dir := t.TempDir()
	got, err := All(filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yaml"))
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("All = %v", got)
	}
}

func TestValidateURL(t *testing.T) {
	if err := ValidateURL("https://example.com/index.yaml"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, bad := range []string{"example.com/index.yaml", "ftp://example.com/x", "https://"} {
		if err := ValidateURL(bad); !apperr.Is(err, apperr.CodeManifestValidation) {
			t.Fatalf("ValidateURL(%q) = %v", bad, err)
		}
	}
}
