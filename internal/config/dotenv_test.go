package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotEnv_NotExist(t *testing.T) {
	t.Setenv(EnvConfigDir, t.TempDir())

	m, err := LoadDotEnv()
	if err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if len(m) != 0 {
		t.Fatalf("expected empty map, got %v", m)
	}
}

func TestLoadDotEnv_ParsesKeyValue(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("# comment\nA=1\nB=two\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	m, err := LoadDotEnv()
	if err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if m["A"] != "1" || m["B"] != "two" {
		t.Fatalf("unexpected map: %v", m)
	}
}

func TestEnsureDotEnvTemplate_DoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)

	p := filepath.Join(dir, ".env")
	if err := os.WriteFile(p, []byte("AIPKG_BIN_DIR=keep\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDotEnvTemplate(); err != nil {
		t.Fatalf("EnsureDotEnvTemplate: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "AIPKG_BIN_DIR=keep\n" {
		t.Fatalf("template overwrote existing file: %q", string(b))
	}
}

func TestEnsureDotEnvTemplate_CreatesWhenMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	t.Setenv(EnvConfigDir, dir)

	if err := EnsureDotEnvTemplate(); err != nil {
		t.Fatalf("EnsureDotEnvTemplate: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatal(err)
	}
	if len(b) == 0 {
		t.Fatalf("expected non-empty template")
	}
}
