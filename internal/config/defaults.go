package config

// NewDefaults returns a Config populated with the built-in defaults. They
// match a stock wp-env setup with tests under tests/.
func NewDefaults() *Config {
	return &Config{
		Project: ProjectConfig{
			Manifest:   ManifestFileName,
			BuildDir:   ".devtools",
			WPTestsDir: "/tmp/wordpress-tests-lib",
		},
		Binaries: BinariesConfig{
			PHPUnit:      "vendor/bin/phpunit",
			Codecept:     "vendor/bin/codecept",
			Docker:       "docker",
			MySQL:        "mysql",
			WP:           "wp",
			WPEnv:        "npx wp-env",
			Vale:         "vale",
			Markdownlint: "markdownlint-cli2",
		},
		Database: DatabaseConfig{
			Host:        "127.0.0.1",
			Port:        3306,
			User:        "root",
			Password:    "password",
			Name:        "wordpress_test",
			TablePrefix: "wptests_",
		},
		Browser: BrowserConfig{
			Enabled:   true,
			Image:     "selenium/standalone-chrome:latest",
			Container: "devtools-selenium",
			Port:      4444,
		},
		Suites: SuitesConfig{
			PHPUnitDir:         "tests/phpunit",
			PHPUnitPattern:     "**/*Test.php",
			CodeceptionDir:     "tests",
			CodeceptionPattern: "*.suite{,.dist}.yml",
		},
		Docs: DocsConfig{
			Paths:   []string{"**/*.md"},
			Exclude: []string{"vendor/**", "node_modules/**", ".devtools/**"},
		},
	}
}
