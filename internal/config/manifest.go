package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/wpdevtools/devtools/internal/node"
)

// ManifestFileName is the project manifest devtools reads overrides from.
const ManifestFileName = "composer.json"

// Manifest is the parsed project manifest.
type Manifest struct {
	Path string
	Name string
	// Tools is the extra.dev-tools object: one override tree per generator.
	Tools node.Node
}

// FindManifest walks up from startDir looking for name (usually
// composer.json). It returns ErrConfigNotFound when no file exists.
func FindManifest(startDir, name string) (string, error) {
	if name == "" {
		name = ManifestFileName
	}
	path, err := findUp(startDir, name)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("finding %s from %s: %w", name, startDir, ErrConfigNotFound)
	}
	return path, nil
}

// LoadManifest reads the manifest at path. A manifest without an
// extra.dev-tools section yields an empty Tools mapping.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading manifest %s: %w", path, ErrConfigNotFound)
		}
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return ParseManifest(path, data)
}

// ParseManifest parses manifest bytes. path is used for messages only.
func ParseManifest(path string, data []byte) (*Manifest, error) {
	root, err := node.DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if !root.IsMapping() {
		return nil, fmt.Errorf("manifest %s: top level is a %s, want an object: %w", path, root.Kind(), ErrInvalidConfigShape)
	}

	m := &Manifest{Path: path, Tools: node.Map()}
	if name, ok := root.Get("name"); ok && name.IsScalar() {
		m.Name = name.String()
	}

	tools, ok := root.Lookup("extra", "dev-tools")
	if !ok || tools.IsNull() {
		return m, nil
	}
	if !tools.IsMapping() {
		if tools.IsSequence() && tools.Len() == 0 {
			return m, nil
		}
		return nil, fmt.Errorf("manifest %s: extra.dev-tools is a %s, want an object: %w", path, tools.Kind(), ErrInvalidConfigShape)
	}
	m.Tools = tools
	return m, nil
}

// Section returns the override tree for one tool, e.g. "phpunit". A
// missing section is an empty mapping. Sections must be objects or lists;
// a list switches the merge into append mode.
func (m *Manifest) Section(name string) (node.Node, error) {
	if m == nil {
		return node.Map(), nil
	}
	sec, ok := m.Tools.Get(name)
	if !ok || sec.IsNull() {
		return node.Map(), nil
	}
	if sec.IsScalar() {
		return node.Node{}, fmt.Errorf("manifest %s: extra.dev-tools.%s is a scalar, want an object: %w", m.Path, name, ErrInvalidConfigShape)
	}
	return sec, nil
}
