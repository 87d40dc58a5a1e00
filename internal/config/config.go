// Package config loads devtools settings and the project manifest.
//
// Two sources feed every command. devtools.toml holds the tool's own
// settings (binary locations, database credentials, browser container,
// suite patterns) and is layered defaults < file < DEVTOOLS_* environment <
// CLI flags. composer.json holds the project's overrides for the generated
// test-runner configuration under extra.dev-tools; those are returned as a
// node.Node and merged by the generators.
package config

// Config is the top-level structure of devtools.toml.
type Config struct {
	Project  ProjectConfig  `toml:"project"`
	Binaries BinariesConfig `toml:"binaries"`
	Database DatabaseConfig `toml:"database"`
	Browser  BrowserConfig  `toml:"browser"`
	Suites   SuitesConfig   `toml:"suites"`
	Docs     DocsConfig     `toml:"docs"`
}

// ProjectConfig maps to [project].
type ProjectConfig struct {
	Name       string `toml:"name"`
	Manifest   string `toml:"manifest"`
	BuildDir   string `toml:"build_dir"`
	WPTestsDir string `toml:"wp_tests_dir"`
	Multisite  bool   `toml:"multisite"`
}

// BinariesConfig maps to [binaries]. Values may carry leading arguments,
// e.g. "npx wp-env".
type BinariesConfig struct {
	PHPUnit      string `toml:"phpunit"`
	Codecept     string `toml:"codecept"`
	Docker       string `toml:"docker"`
	MySQL        string `toml:"mysql"`
	WP           string `toml:"wp"`
	WPEnv        string `toml:"wp_env"`
	Vale         string `toml:"vale"`
	Markdownlint string `toml:"markdownlint"`
}

// DatabaseConfig maps to [database].
type DatabaseConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	User        string `toml:"user"`
	Password    string `toml:"password"`
	Name        string `toml:"name"`
	TablePrefix string `toml:"table_prefix"`
}

// BrowserConfig maps to [browser], the Selenium container used by
// WebDriver suites.
type BrowserConfig struct {
	Enabled   bool   `toml:"enabled"`
	Image     string `toml:"image"`
	Container string `toml:"container"`
	Port      int    `toml:"port"`
}

// SuitesConfig maps to [suites].
type SuitesConfig struct {
	PHPUnitDir         string `toml:"phpunit_dir"`
	PHPUnitPattern     string `toml:"phpunit_pattern"`
	CodeceptionDir     string `toml:"codeception_dir"`
	CodeceptionPattern string `toml:"codeception_pattern"`
}

// DocsConfig maps to [docs].
type DocsConfig struct {
	Paths   []string `toml:"paths"`
	Exclude []string `toml:"exclude"`
}
