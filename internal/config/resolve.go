package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// ConfigSource identifies where a resolved value came from.
type ConfigSource string

const (
	SourceDefault ConfigSource = "default"
	SourceFile    ConfigSource = "file"
	SourceEnv     ConfigSource = "env"
	SourceCLI     ConfigSource = "cli"
)

// ResolvedConfig is the final configuration with per-key source tracking.
type ResolvedConfig struct {
	Config  *Config
	Sources map[string]ConfigSource // dotted key, e.g. "database.port"
	Path    string                  // devtools.toml used, "" when none
}

// EnvOverrides are the DEVTOOLS_* variables. A nil field means unset.
type EnvOverrides struct {
	BuildDir       *string `env:"BUILD_DIR"`
	Multisite      *bool   `env:"MULTISITE"`
	WPTestsDir     *string `env:"WP_TESTS_DIR"`
	PHPUnit        *string `env:"PHPUNIT_BIN"`
	Codecept       *string `env:"CODECEPT_BIN"`
	Docker         *string `env:"DOCKER_BIN"`
	MySQL          *string `env:"MYSQL_BIN"`
	WP             *string `env:"WP_BIN"`
	DBHost         *string `env:"DB_HOST"`
	DBPort         *int    `env:"DB_PORT"`
	DBUser         *string `env:"DB_USER"`
	DBPassword     *string `env:"DB_PASSWORD"`
	DBName         *string `env:"DB_NAME"`
	BrowserEnabled *bool   `env:"BROWSER"`
	BrowserImage   *string `env:"BROWSER_IMAGE"`
	BrowserPort    *int    `env:"BROWSER_PORT"`
}

// EnvPrefix is prepended to every EnvOverrides variable.
const EnvPrefix = "DEVTOOLS_"

// ParseEnv reads EnvOverrides from environ. A nil environ reads the
// process environment.
func ParseEnv(environ map[string]string) (*EnvOverrides, error) {
	var o EnvOverrides
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&o, opts); err != nil {
		return nil, fmt.Errorf("parsing %s environment: %w", EnvPrefix, err)
	}
	return &o, nil
}

// EnvVars lists the variables ParseEnv reads, with EnvPrefix applied, in
// declaration order.
func EnvVars() ([]string, error) {
	params, err := env.GetFieldParamsWithOptions(&EnvOverrides{}, env.Options{Prefix: EnvPrefix})
	if err != nil {
		return nil, fmt.Errorf("listing %s variables: %w", EnvPrefix, err)
	}
	names := make([]string, 0, len(params))
	for _, p := range params {
		names = append(names, p.Key)
	}
	return names, nil
}

// CLIOverrides are flag values that win over every other source.
type CLIOverrides struct {
	BuildDir  *string
	Multisite *bool
	DBName    *string
	NoBrowser *bool
}

// Resolve layers env and CLI overrides on top of cfg, which already holds
// defaults merged with the file (see LoadFromFile). md is nil when no file
// was loaded. cfg is not modified.
func Resolve(cfg *Config, md *toml.MetaData, envs *EnvOverrides, cli *CLIOverrides) *ResolvedConfig {
	if cfg == nil {
		cfg = NewDefaults()
	}
	out := cfg.clone()
	rc := &ResolvedConfig{Config: out, Sources: make(map[string]ConfigSource)}

	for _, key := range leafKeys(reflect.TypeOf(*out), "") {
		rc.Sources[key] = SourceDefault
		if md != nil && md.IsDefined(strings.Split(key, ".")...) {
			rc.Sources[key] = SourceFile
		}
	}

	if envs != nil {
		applyEnv(rc, envs)
	}
	if cli != nil {
		applyCLI(rc, cli)
	}
	return rc
}

func applyEnv(rc *ResolvedConfig, e *EnvOverrides) {
	c := rc.Config
	set(rc, SourceEnv, "project.build_dir", e.BuildDir, &c.Project.BuildDir)
	set(rc, SourceEnv, "project.multisite", e.Multisite, &c.Project.Multisite)
	set(rc, SourceEnv, "project.wp_tests_dir", e.WPTestsDir, &c.Project.WPTestsDir)
	set(rc, SourceEnv, "binaries.phpunit", e.PHPUnit, &c.Binaries.PHPUnit)
	set(rc, SourceEnv, "binaries.codecept", e.Codecept, &c.Binaries.Codecept)
	set(rc, SourceEnv, "binaries.docker", e.Docker, &c.Binaries.Docker)
	set(rc, SourceEnv, "binaries.mysql", e.MySQL, &c.Binaries.MySQL)
	set(rc, SourceEnv, "binaries.wp", e.WP, &c.Binaries.WP)
	set(rc, SourceEnv, "database.host", e.DBHost, &c.Database.Host)
	set(rc, SourceEnv, "database.port", e.DBPort, &c.Database.Port)
	set(rc, SourceEnv, "database.user", e.DBUser, &c.Database.User)
	set(rc, SourceEnv, "database.password", e.DBPassword, &c.Database.Password)
	set(rc, SourceEnv, "database.name", e.DBName, &c.Database.Name)
	set(rc, SourceEnv, "browser.enabled", e.BrowserEnabled, &c.Browser.Enabled)
	set(rc, SourceEnv, "browser.image", e.BrowserImage, &c.Browser.Image)
	set(rc, SourceEnv, "browser.port", e.BrowserPort, &c.Browser.Port)
}

func applyCLI(rc *ResolvedConfig, o *CLIOverrides) {
	c := rc.Config
	set(rc, SourceCLI, "project.build_dir", o.BuildDir, &c.Project.BuildDir)
	set(rc, SourceCLI, "project.multisite", o.Multisite, &c.Project.Multisite)
	set(rc, SourceCLI, "database.name", o.DBName, &c.Database.Name)
	if o.NoBrowser != nil && *o.NoBrowser {
		c.Browser.Enabled = false
		rc.Sources["browser.enabled"] = SourceCLI
	}
}

func set[T any](rc *ResolvedConfig, src ConfigSource, key string, from *T, to *T) {
	if from == nil {
		return
	}
	*to = *from
	rc.Sources[key] = src
}

// leafKeys lists the dotted TOML keys of every leaf field in t.
func leafKeys(t reflect.Type, prefix string) []string {
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.Split(f.Tag.Get("toml"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if f.Type.Kind() == reflect.Struct {
			keys = append(keys, leafKeys(f.Type, key)...)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

func (c *Config) clone() *Config {
	out := *c
	out.Docs.Paths = append([]string(nil), c.Docs.Paths...)
	out.Docs.Exclude = append([]string(nil), c.Docs.Exclude...)
	return &out
}
