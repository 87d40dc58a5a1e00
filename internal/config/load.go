package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the name of the devtools settings file.
const ConfigFileName = "devtools.toml"

// FindConfigFile walks up from startDir looking for devtools.toml and
// returns its absolute path, or "" when the filesystem root is reached.
func FindConfigFile(startDir string) (string, error) {
	return findUp(startDir, ConfigFileName)
}

// LoadFromFile decodes the TOML file at path on top of NewDefaults, so keys
// absent from the file keep their default values. The metadata reports
// which keys were defined and which were not recognised.
func LoadFromFile(path string) (*Config, toml.MetaData, error) {
	cfg := NewDefaults()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, md, fmt.Errorf("loading config %s: %w", path, ErrConfigNotFound)
		}
		return nil, md, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, md, nil
}

func findUp(startDir, name string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
