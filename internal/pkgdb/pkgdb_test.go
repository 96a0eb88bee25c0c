package pkgdb

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kamusis/aipkg/internal/apperr"
)

func TestLoad_Missing(t *testing.T) {
	db, err := Load(filepath.Join(t.TempDir(), "database.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(db.List()) != 0 {
		t.Fatalf("expected empty database")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.yaml")
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	db, _ := Load(path)
	db.Add(Package{Name: "zeta", Version: "1.0.0", Path: "/a/zeta", InstalledAt: at})
	db.Add(Package{Name: "alpha", Version: "2.0.0", Path: "/a/alpha", Symlink: "/bin/alpha", InstalledAt: at})
	if err := db.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "installed_at: 2026-03-04T05:06:07Z") {
		t.Fatalf("installed_at not RFC 3339:\n%s", raw)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	list := got.List()
	if len(list) != 2 || list[0].Name != "alpha" || list[1].Name != "zeta" {
		t.Fatalf("List = %+v", list)
	}
	if !list[0].InstalledAt.Equal(at) || list[0].Symlink != "/bin/alpha" {
		t.Fatalf("record mismatch: %+v", list[0])
	}
}

func TestRemoveAndMustGet(t *testing.T) {
	db := &Database{}
	db.Add(Package{Name: "a", Version: "1"})
	if !db.Remove("a") {
		t.Fatal("Remove(a) = false")
	}
	if db.Remove("a") {
		t.Fatal("second Remove(a) = true")
	}
	if _, err := db.MustGet("a"); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestUpdate_AbortsOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.yaml")
	boom := errors.New("boom")
	err := Update(path, func(db *Database) error {
		db.Add(Package{Name: "x"})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("database should not be written on error")
	}
}
