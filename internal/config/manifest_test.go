package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const composerJSON = `{
  "name": "acme/plugin",
  "require-dev": {"phpunit/phpunit": "^9.6"},
  "extra": {
    "dev-tools": {
      "phpunit": {"colors": false, "testsuites": {"testsuite": [{"name": "unit"}]}},
      "codeception": {"settings": {"shuffle": true}},
      "env": ["WP_DEBUG", "SCRIPT_DEBUG"],
      "broken": "yes"
    }
  }
}`

func TestParseManifest(t *testing.T) {
	t.Parallel()

	m, err := ParseManifest("composer.json", []byte(composerJSON))
	require.NoError(t, err)

	assert.Equal(t, "acme/plugin", m.Name)
	assert.Equal(t, []string{"phpunit", "codeception", "env", "broken"}, m.Tools.Keys())

	phpunit, err := m.Section("phpunit")
	require.NoError(t, err)
	assert.Equal(t, []string{"colors", "testsuites"}, phpunit.Keys())

	envs, err := m.Section("env")
	require.NoError(t, err)
	assert.True(t, envs.IsSequence())

	missing, err := m.Section("vale")
	require.NoError(t, err)
	assert.True(t, missing.IsMapping())
	assert.Zero(t, missing.Len())

	_, err = m.Section("broken")
	require.ErrorIs(t, err, ErrInvalidConfigShape)
}

func TestParseManifest_Shapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		json    string
		wantErr error
		keys    int
	}{
		{name: "no extra", json: `{"name": "a/b"}`},
		{name: "empty list section", json: `{"extra": {"dev-tools": []}}`},
		{name: "null section", json: `{"extra": {"dev-tools": null}}`},
		{name: "scalar section", json: `{"extra": {"dev-tools": "x"}}`, wantErr: ErrInvalidConfigShape},
		{name: "array root", json: `[1, 2]`, wantErr: ErrInvalidConfigShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := ParseManifest("composer.json", []byte(tt.json))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.keys, m.Tools.Len())
		})
	}
}

func TestLoadManifest_NotFound(t *testing.T) {
	t.Parallel()

	_, err := LoadManifest(filepath.Join(t.TempDir(), ManifestFileName))
	require.ErrorIs(t, err, ErrConfigNotFound)
}

func TestFindManifest(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestFileName), composerJSON)
	sub := filepath.Join(root, "tests", "phpunit")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	path, err := FindManifest(sub, "")
	require.NoError(t, err)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "acme/plugin", m.Name)
}

func TestManifest_NilSection(t *testing.T) {
	t.Parallel()

	var m *Manifest
	sec, err := m.Section("phpunit")
	require.NoError(t, err)
	assert.True(t, sec.IsMapping())
}
