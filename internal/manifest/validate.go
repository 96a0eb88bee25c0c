package manifest

import (
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/kamusis/aipkg/internal/apperr"
)

// SHA256HexLen is the length of a hex-encoded SHA-256 digest.
const SHA256HexLen = 64

// Validate checks the entry invariants: non-empty name and version and a
// 64-character hex sha256.
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return apperr.New(apperr.CodeManifestValidation, "app name cannot be empty")
	}
	if strings.TrimSpace(e.Version) == "" {
		return apperr.New(apperr.CodeManifestValidation, "version cannot be empty for app: %s", e.Name)
	}
	if e.SHA256 == "" {
		return apperr.New(apperr.CodeManifestValidation, "sha256 is mandatory for app: %s", e.Name)
	}
	if len(e.SHA256) != SHA256HexLen {
		return apperr.New(apperr.CodeManifestValidation, "invalid sha256 length %d for app: %s", len(e.SHA256), e.Name)
	}
	if _, err := hex.DecodeString(e.SHA256); err != nil {
		return apperr.New(apperr.CodeManifestValidation, "sha256 is not hex for app: %s", e.Name)
	}
	return nil
}

// Validate rejects the whole manifest when any entry is invalid.
func (m *PackageManifest) Validate() error {
	for i := range m.Apps {
		if err := m.Apps[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks every child URL is non-empty and parseable.
func (m *IndexManifest) Validate() error {
	for _, s := range m.Sources {
		if strings.TrimSpace(s.URL) == "" {
			return apperr.New(apperr.CodeManifestValidation, "source URL cannot be empty")
		}
		if _, err := url.Parse(s.URL); err != nil {
			return apperr.Wrap(apperr.CodeManifestValidation, err, "invalid URL: %s", s.URL)
		}
		if s.Type == "" {
			return apperr.New(apperr.CodeManifestValidation, "source %s has no type", s.URL)
		}
	}
	return nil
}
