package manifest

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kamusis/aipkg/internal/apperr"
)

// Parse decodes data as an index manifest and falls back to a package
// manifest. There is no discriminator field: the first shape that decodes
// wins. The winning shape is validated; a validation failure is returned
// as-is rather than trying the other shape.
func Parse(data []byte) (*Document, error) {
	idx, idxErr := decodeIndex(data)
	if idxErr == nil {
		if err := idx.Validate(); err != nil {
			return nil, err
		}
		return &Document{Index: idx}, nil
	}
	pkg, pkgErr := decodePackage(data)
	if pkgErr == nil {
		if err := pkg.Validate(); err != nil {
			return nil, err
		}
		return &Document{Package: pkg}, nil
	}
	return nil, apperr.Wrap(apperr.CodeManifestParse, errors.Join(idxErr, pkgErr),
		"document is neither an index nor a package manifest")
}

// ParseIndex decodes and validates an index manifest.
func ParseIndex(data []byte) (*IndexManifest, error) {
	m, err := decodeIndex(data)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeManifestParse, err, "invalid index.yaml")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ParsePackage decodes and validates a package manifest.
func ParsePackage(data []byte) (*PackageManifest, error) {
	m, err := decodePackage(data)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeManifestParse, err, "invalid appimage.yaml")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Marshal encodes m as YAML.
func (m *PackageManifest) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("cannot marshal package manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeIndex(data []byte) (*IndexManifest, error) {
	var m IndexManifest
	if err := decodeStrict(data, "sources", &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func decodePackage(data []byte) (*PackageManifest, error) {
	var m PackageManifest
	if err := decodeStrict(data, "apps", &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// decodeStrict requires the top-level mapping to carry key, so a package
// manifest never decodes as an empty index. Unknown fields are ignored.
func decodeStrict(data []byte, key string, out any) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return errors.New("empty document")
	}
	m := root.Content[0]
	if m.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: top level is not a mapping", m.Line)
	}
	found := false
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("missing %q key", key)
	}

	return root.Decode(out)
}
