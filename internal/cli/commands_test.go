package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pluginComposer = `{
  "name": "acme/shop-plugin",
  "extra": {
    "dev-tools": {
      "phpunit": {"colors": false},
      "codeception": {"settings": {"shuffle": true}},
      "env": {"WP_URL": "http://localhost:8889"}
    }
  }
}`

// newPluginDir writes a small plugin layout into a temp dir and makes it
// the working directory for the rest of the test.
func newPluginDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"composer.json":                        pluginComposer,
		"tests/phpunit/bootstrap.php":          "<?php",
		"tests/phpunit/unit/CartTest.php":      "<?php",
		"tests/phpunit/integration/DbTest.php": "<?php",
		"tests/acceptance.suite.yml":           "actor: AcceptanceTester\nmodules:\n  enabled:\n    - WPWebDriver\n",
		"tests/wpunit.suite.yml":               "actor: WpunitTester\n",
		"docs/README.md":                       "# Shop\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	t.Chdir(dir)
	return dir
}

func TestPHPUnitCmd_DryRun(t *testing.T) {
	resetRootCmd(t)
	newPluginDir(t)

	code, out, stderr := runCmd(t, "--dry-run", "phpunit", "unit", "--filter", "test_total")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, out, filepath.Join(".devtools", "phpunit.xml"))
	assert.Contains(t, out, "<phpunit")
	assert.Contains(t, out, `colors="false"`)
	assert.Contains(t, out, `name="integration"`)
	assert.Contains(t, out, "CREATE DATABASE IF NOT EXISTS")
	assert.NotContains(t, out, "--password")
	assert.Contains(t, out, "--testsuite unit --filter test_total")
	assert.Contains(t, out, "DROP DATABASE IF EXISTS")
	assert.Less(t, strings.Index(out, "CREATE DATABASE"), strings.Index(out, "vendor/bin/phpunit"))
	assert.Less(t, strings.Index(out, "vendor/bin/phpunit"), strings.Index(out, "DROP DATABASE"))

	_, err := os.Stat(filepath.Join(".devtools", "phpunit.xml"))
	assert.True(t, os.IsNotExist(err), "dry run must not write files")
}

func TestPHPUnitCmd_FlagsOverrideSettings(t *testing.T) {
	resetRootCmd(t)
	newPluginDir(t)

	code, out, stderr := runCmd(t, "--dry-run", "phpunit", "--multisite", "--db-name", "shop_test", "--keep-db")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, out, "`shop_test`")
	assert.Contains(t, out, `name="WP_MULTISITE" value="1"`)
	assert.NotContains(t, out, "DROP DATABASE")
}

func TestPHPUnitCmd_NoDB(t *testing.T) {
	resetRootCmd(t)
	newPluginDir(t)

	code, out, stderr := runCmd(t, "--dry-run", "phpunit", "--no-db", "--", "--stop-on-failure")
	require.Equal(t, 0, code, stderr)

	assert.NotContains(t, out, "CREATE DATABASE")
	assert.Contains(t, out, "--stop-on-failure")
}

func TestPHPUnitCmd_UnknownSuite(t *testing.T) {
	resetRootCmd(t)
	newPluginDir(t)

	code, _, stderr := runCmd(t, "--dry-run", "phpunit", "e2e")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "available: integration, unit")
}

func TestPHPUnitCmd_BadCoverage(t *testing.T) {
	resetRootCmd(t)
	newPluginDir(t)

	code, _, stderr := runCmd(t, "--dry-run", "phpunit", "--coverage=pdf")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown coverage report")
}

func TestPHPUnitCmd_WritesFile(t *testing.T) {
	resetRootCmd(t)
	dir := newPluginDir(t)
	t.Setenv("DEVTOOLS_PHPUNIT_BIN", "true")

	code, _, stderr := runCmd(t, "phpunit", "--no-db")
	require.Equal(t, 0, code, stderr)

	data, err := os.ReadFile(filepath.Join(dir, ".devtools", "phpunit.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<testsuite name=\"unit\">")
}

func TestConfigDebug_ReportsEditedGeneratedFile(t *testing.T) {
	resetRootCmd(t)
	dir := newPluginDir(t)
	t.Setenv("DEVTOOLS_PHPUNIT_BIN", "true")

	code, _, stderr := runCmd(t, "phpunit", "--no-db")
	require.Equal(t, 0, code, stderr)

	resetRootCmd(t)
	code, out, stderr := runCmd(t, "--no-color", "config", "debug")
	require.Equal(t, 0, code, stderr)
	assert.Regexp(t, `phpunit\.xml\s+= current`, out)

	path := filepath.Join(dir, ".devtools", "phpunit.xml")
	require.NoError(t, os.WriteFile(path, []byte("<phpunit/>\n"), 0o644))

	resetRootCmd(t)
	code, out, stderr = runCmd(t, "--no-color", "config", "debug")
	require.Equal(t, 0, code, stderr)
	assert.Regexp(t, `phpunit\.xml\s+= edited`, out)
}

func TestCodeceptCmd_DryRun(t *testing.T) {
	resetRootCmd(t)
	newPluginDir(t)

	code, out, stderr := runCmd(t, "--dry-run", "codecept", "acceptance", "CheckoutCest")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, out, `WP_URL="http://localhost:8889"`)
	assert.Contains(t, out, "shuffle: true")
	assert.Contains(t, out, "docker run")
	assert.Contains(t, out, "run acceptance CheckoutCest -c")
	assert.Contains(t, out, "wp cache flush")
	assert.Contains(t, out, "docker rm -f devtools-selenium")
}

func TestCodeceptCmd_NoBrowser(t *testing.T) {
	resetRootCmd(t)
	newPluginDir(t)

	code, out, stderr := runCmd(t, "--dry-run", "codecept", "acceptance", "--no-browser")
	require.Equal(t, 0, code, stderr)
	assert.NotContains(t, out, "docker run")
}

func TestCodeceptCmd_TooManyArgs(t *testing.T) {
	resetRootCmd(t)
	newPluginDir(t)

	code, _, stderr := runCmd(t, "--dry-run", "codecept", "a", "b", "c")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "accepts at most 2 arg(s)")
}

func TestConfigShow(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"config", "show"}, want: "<phpunit"},
		{args: []string{"config", "show", "codeception"}, want: "actor_suffix: Tester"},
		{args: []string{"config", "show", "env"}, want: `WP_URL="http://localhost:8889"`},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, "_"), func(t *testing.T) {
			resetRootCmd(t)
			newPluginDir(t)

			code, out, stderr := runCmd(t, tt.args...)
			require.Equal(t, 0, code, stderr)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestConfigDebug_ShowsSources(t *testing.T) {
	resetRootCmd(t)
	dir := newPluginDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "devtools.toml"), []byte("[database]\nport = 3307\n"), 0o644))
	t.Setenv("DEVTOOLS_DB_USER", "ci")
	t.Setenv("DEVTOOLS_DB_PASSWORD", "hunter2")

	code, out, stderr := runCmd(t, "--no-color", "config", "debug")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, out, "composer.json")
	assert.Regexp(t, `port\s+= 3307\s+\(source: file\)`, out)
	assert.Regexp(t, `user\s+= "ci"\s+\(source: env\)`, out)
	assert.Regexp(t, `host\s+= "127.0.0.1"\s+\(source: default\)`, out)
	assert.NotContains(t, out, "hunter2")
	assert.Regexp(t, `phpunit\.xml\s+= missing`, out)
}

func TestConfigValidate(t *testing.T) {
	resetRootCmd(t)
	dir := newPluginDir(t)

	code, out, stderr := runCmd(t, "--no-color", "config", "validate")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "No issues found.")

	resetRootCmd(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "devtools.toml"), []byte("[database]\nport = 0\nbogus = 1\n"), 0o644))
	code, out, _ = runCmd(t, "--no-color", "config", "validate")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "[database.port]")
	assert.Contains(t, out, "[database.bogus] unknown configuration key")
}

func TestScaffoldCmd_RendersTemplate(t *testing.T) {
	resetRootCmd(t)
	dir := newPluginDir(t)

	code, out, stderr := runCmd(t, "--no-color", "scaffold", "docs-lint")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "created .vale.ini")
	_, err := os.Stat(filepath.Join(dir, ".markdownlint-cli2.yaml"))
	require.NoError(t, err)

	resetRootCmd(t)
	code, out, _ = runCmd(t, "--no-color", "scaffold", "docs-lint")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "skipped .vale.ini")
}

func TestScaffoldCmd_NoTemplateWithoutTerminal(t *testing.T) {
	resetRootCmd(t)
	newPluginDir(t)
	orig := isTerminal
	isTerminal = func() bool { return false }
	t.Cleanup(func() { isTerminal = orig })

	code, _, stderr := runCmd(t, "scaffold")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "available: devcontainer, docs-lint")
}

func TestScaffoldCmd_UnknownTemplate(t *testing.T) {
	resetRootCmd(t)
	newPluginDir(t)

	code, _, stderr := runCmd(t, "scaffold", "kubernetes")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, `"kubernetes"`)
}

func TestEnvCmd_DryRun(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"env", "start", "--update"}, want: "npx wp-env start --update"},
		{args: []string{"env", "stop"}, want: "npx wp-env stop"},
		{args: []string{"env", "clean"}, want: "npx wp-env clean tests"},
		{args: []string{"env", "run", "cli", "--", "wp", "plugin", "list"}, want: "npx wp-env run cli wp plugin list"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			resetRootCmd(t)
			newPluginDir(t)

			code, out, stderr := runCmd(t, append([]string{"--dry-run"}, tt.args...)...)
			require.Equal(t, 0, code, stderr)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestLintDocsCmd_DryRun(t *testing.T) {
	resetRootCmd(t)
	newPluginDir(t)

	code, out, stderr := runCmd(t, "--dry-run", "lint", "docs")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "vale docs/README.md")
	assert.Contains(t, out, "markdownlint-cli2 docs/README.md")
}
