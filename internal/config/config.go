// Package config resolves where aipkg keeps its state and how it talks to
// remote sources.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variables recognised by Load. Each may also be set in the
// dotenv file inside the config directory.
const (
	EnvConfigDir    = "AIPKG_CONFIG_DIR"
	EnvCacheDir     = "AIPKG_CACHE_DIR"
	EnvDataDir      = "AIPKG_DATA_DIR"
	EnvAppImagesDir = "AIPKG_APPIMAGES_DIR"
	EnvDesktopDir   = "AIPKG_DESKTOP_DIR"
	EnvBinDir       = "AIPKG_BIN_DIR"
	EnvFetchTimeout = "AIPKG_FETCH_TIMEOUT"
	EnvUserAgent    = "AIPKG_USER_AGENT"
)

// Defaults for the network settings.
const (
	DefaultFetchTimeout = 30 * time.Second
	DefaultUserAgent    = "aipkg"
)

// Paths is every filesystem location aipkg reads or writes.
type Paths struct {
	AppImagesDir string
	DesktopDir   string
	BinDir       string
	ConfigDir    string
	CacheDir     string

	ConfigFile      string
	SourcesFile     string
	CollectivesFile string
	DatabaseFile    string
	JournalFile     string
	IndexFile       string
	MetadataFile    string
	LockFile        string
}

// Config is the effective configuration.
type Config struct {
	Paths
	FetchTimeout time.Duration
	UserAgent    string
}

// File is the on-disk config.toml. Every field is optional.
type File struct {
	AppImagesDir    string `toml:"appimages_dir"`
	DesktopFilesDir string `toml:"desktop_files_dir"`
	BinDir          string `toml:"bin_dir"`
	FetchTimeout    string `toml:"fetch_timeout"`
	UserAgent       string `toml:"user_agent"`
}

// ConfigDir returns the aipkg config directory, honouring AIPKG_CONFIG_DIR.
func ConfigDir() (string, error) {
	if v := os.Getenv(EnvConfigDir); v != "" {
		return ExpandPath(v)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(dir, "aipkg"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// Default returns the configuration before any overrides.
func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}
	configDir, err := ConfigDir()
	if err != nil {
		return nil, err
	}

	cacheBase, err := os.UserCacheDir()
	if err != nil {
		cacheBase = filepath.Join(home, ".cache")
	}
	dataBase := os.Getenv("XDG_DATA_HOME")
	if dataBase == "" {
		dataBase = filepath.Join(home, ".local", "share")
	}

	cfg := &Config{
		Paths: Paths{
			AppImagesDir: filepath.Join(dataBase, "aipkg", "appimages"),
			DesktopDir:   filepath.Join(dataBase, "applications"),
			BinDir:       filepath.Join(home, ".local", "bin"),
			ConfigDir:    configDir,
			CacheDir:     filepath.Join(cacheBase, "aipkg"),
		},
		FetchTimeout: DefaultFetchTimeout,
		UserAgent:    DefaultUserAgent,
	}
	return cfg, nil
}

// Load builds the effective configuration: defaults, then config.toml, then
// the dotenv file, then the process environment.
func Load() (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	cfg.ConfigFile = filepath.Join(cfg.ConfigDir, "config.toml")

	if err := cfg.applyFile(cfg.ConfigFile); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.derive()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("invalid TOML in %s: %w", path, err)
	}

	set := func(dst *string, v string) error {
		if v == "" {
			return nil
		}
		p, err := ExpandPath(v)
		if err != nil {
			return err
		}
		*dst = p
		return nil
	}
	if err := set(&c.AppImagesDir, f.AppImagesDir); err != nil {
		return err
	}
	if err := set(&c.DesktopDir, f.DesktopFilesDir); err != nil {
		return err
	}
	if err := set(&c.BinDir, f.BinDir); err != nil {
		return err
	}
	if f.FetchTimeout != "" {
		d, err := time.ParseDuration(f.FetchTimeout)
		if err != nil {
			return fmt.Errorf("invalid fetch_timeout in %s: %w", path, err)
		}
		c.FetchTimeout = d
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	return nil
}

func (c *Config) applyEnv() error {
	dotenv, err := LoadDotEnv()
	if err != nil {
		return err
	}
	get := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}

	dirs := []struct {
		key string
		dst *string
	}{
		{EnvCacheDir, &c.CacheDir},
		{EnvAppImagesDir, &c.AppImagesDir},
		{EnvDesktopDir, &c.DesktopDir},
		{EnvBinDir, &c.BinDir},
	}
	if v := get(EnvDataDir); v != "" {
		p, err := ExpandPath(v)
		if err != nil {
			return err
		}
		c.AppImagesDir = filepath.Join(p, "aipkg", "appimages")
		c.DesktopDir = filepath.Join(p, "applications")
	}
	for _, d := range dirs {
		v := get(d.key)
		if v == "" {
			continue
		}
		p, err := ExpandPath(v)
		if err != nil {
			return err
		}
		*d.dst = p
	}

	if v := get(EnvFetchTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvFetchTimeout, err)
		}
		c.FetchTimeout = d
	}
	if v := get(EnvUserAgent); v != "" {
		c.UserAgent = v
	}
	return nil
}

func (c *Config) derive() {
	c.ConfigFile = filepath.Join(c.ConfigDir, "config.toml")
	c.SourcesFile = filepath.Join(c.ConfigDir, "sources.yaml")
	c.CollectivesFile = filepath.Join(c.ConfigDir, "collectives.yaml")
	c.DatabaseFile = filepath.Join(c.ConfigDir, "database.yaml")
	c.JournalFile = filepath.Join(c.ConfigDir, "journal.yaml")
	c.IndexFile = filepath.Join(c.CacheDir, "unified_index.yaml")
	c.MetadataFile = filepath.Join(c.CacheDir, "cache_metadata.yaml")
	c.LockFile = filepath.Join(c.CacheDir, "aipkg.lock")
}

// Dirs returns every directory aipkg writes into.
func (p Paths) Dirs() []string {
	return []string{p.AppImagesDir, p.DesktopDir, p.BinDir, p.ConfigDir, p.CacheDir}
}

// EnsureDirs creates every directory in Dirs.
func (p Paths) EnsureDirs() error {
	for _, d := range p.Dirs() {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("cannot create %s: %w", d, err)
		}
	}
	return nil
}

// WriteFile writes f as config.toml at path.
func WriteFile(path string, f File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(path), err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	defer out.Close()
	if err := toml.NewEncoder(out).Encode(f); err != nil {
		return fmt.Errorf("cannot encode config: %w", err)
	}
	return nil
}
