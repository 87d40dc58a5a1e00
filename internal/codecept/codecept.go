// Package codecept generates codeception.yml, its inline suite settings and
// the .env.testing file the settings read their %PLACEHOLDERS% from.
//
// The tree for a run is built in layers: Defaults, then the project's
// extra.dev-tools.codeception section. Each suite is layered separately:
// SuiteDefaults, then the suite's own *.suite.yml, then
// extra.dev-tools.codeception.suites.<name>.
package codecept

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/wpdevtools/devtools/internal/config"
	"github.com/wpdevtools/devtools/internal/node"
	"github.com/wpdevtools/devtools/internal/suite"
)

const (
	// FileName is the generated configuration inside the build directory.
	FileName = "codeception.yml"
	// EnvFileName is the generated environment file.
	EnvFileName = ".env.testing"
	// SuitesKey holds per-suite overrides in the manifest section and the
	// inline suite settings in the generated file.
	SuitesKey = "suites"
	// WebDriverModule is the module that needs the browser container.
	WebDriverModule = "WPWebDriver"
)

// Defaults returns the codeception.yml default tree for a project rooted at
// root.
func Defaults(cfg *config.Config, root string) node.Node {
	tests := abs(root, cfg.Suites.CodeceptionDir)
	build := abs(root, cfg.Project.BuildDir)
	return node.Map(
		node.F("paths", node.Map(
			node.F("tests", node.String(tests)),
			node.F("output", node.String(build+"/_output")),
			node.F("data", node.String(tests+"/_data")),
			node.F("support", node.String(tests+"/_support")),
			node.F("envs", node.String(tests+"/_envs")),
		)),
		node.F("actor_suffix", node.String("Tester")),
		node.F("extensions", node.Map(
			node.F("enabled", node.Strings(`Codeception\Extension\RunFailed`)),
		)),
		node.F("params", node.Strings(build+"/"+EnvFileName)),
		node.F("settings", node.Map(
			node.F("colors", node.Bool(true)),
			node.F("memory_limit", node.String("1024M")),
		)),
	)
}

// SuiteDefaults returns the inline settings for s. Modules are chosen from
// the suite name the way wp-browser projects conventionally lay them out.
func SuiteDefaults(cfg *config.Config, s suite.Suite) node.Node {
	var enabled []string
	switch s.Name {
	case "acceptance", "e2e":
		enabled = []string{"WPDb", WebDriverModule}
	case "functional":
		enabled = []string{"WPDb", "WPBrowser"}
	case "wpunit", "integration":
		enabled = []string{"WPLoader"}
	default:
		enabled = []string{"Asserts"}
	}

	modules := node.Map()
	for _, m := range enabled {
		if conf, ok := moduleDefaults(cfg, m); ok {
			modules = modules.Set(m, conf)
		}
	}

	out := node.Map(
		node.F("actor", node.String(actorName(s.Name))),
		node.F("path", node.String(s.Name)),
		node.F("modules", node.Map(
			node.F("enabled", node.Strings(enabled...)),
		)),
	)
	if modules.Len() > 0 {
		out = out.SetPath(modules, "modules", "config")
	}
	return out
}

func moduleDefaults(cfg *config.Config, module string) (node.Node, bool) {
	switch module {
	case "WPDb":
		return node.Map(
			node.F("dsn", node.String("mysql:host=%DB_HOST%;port=%DB_PORT%;dbname=%DB_NAME%")),
			node.F("user", node.String("%DB_USER%")),
			node.F("password", node.String("%DB_PASSWORD%")),
			node.F("dump", node.String("%TESTS_DATA%/dump.sql")),
			node.F("populate", node.Bool(true)),
			node.F("cleanup", node.Bool(true)),
			node.F("url", node.String("%WP_URL%")),
			node.F("urlReplacement", node.Bool(true)),
			node.F("tablePrefix", node.String("%TABLE_PREFIX%")),
		), true
	case WebDriverModule:
		return node.Map(
			node.F("url", node.String("%WP_URL%")),
			node.F("adminUsername", node.String("%WP_ADMIN_USERNAME%")),
			node.F("adminPassword", node.String("%WP_ADMIN_PASSWORD%")),
			node.F("adminPath", node.String("/wp-admin")),
			node.F("browser", node.String("chrome")),
			node.F("host", node.String("%CHROMEDRIVER_HOST%")),
			node.F("port", node.String("%CHROMEDRIVER_PORT%")),
			node.F("window_size", node.Bool(false)),
			node.F("capabilities", node.Map(
				node.F("goog:chromeOptions", node.Map(
					node.F("args", node.Strings("--headless", "--disable-gpu", "--disable-dev-shm-usage", "--window-size=1280,1024")),
				)),
			)),
		), true
	case "WPBrowser":
		return node.Map(
			node.F("url", node.String("%WP_URL%")),
			node.F("adminUsername", node.String("%WP_ADMIN_USERNAME%")),
			node.F("adminPassword", node.String("%WP_ADMIN_PASSWORD%")),
			node.F("adminPath", node.String("/wp-admin")),
		), true
	case "WPLoader":
		return node.Map(
			node.F("wpRootFolder", node.String("%WP_ROOT_FOLDER%")),
			node.F("dbUrl", node.String("mysql://%DB_USER%:%DB_PASSWORD%@%DB_HOST%:%DB_PORT%/%DB_NAME%")),
			node.F("tablePrefix", node.String("%TABLE_PREFIX%")),
			node.F("domain", node.String("%WP_DOMAIN%")),
			node.F("adminEmail", node.String("admin@%WP_DOMAIN%")),
			node.F("title", node.String("Test")),
			node.F("multisite", node.Bool(cfg.Project.Multisite)),
			node.F("plugins", node.Seq()),
		), true
	default:
		return node.Node{}, false
	}
}

// EnvDefaults returns the default .env.testing entries.
func EnvDefaults(cfg *config.Config, root string) node.Node {
	db := cfg.Database
	return node.Map(
		node.F("DB_HOST", node.String(db.Host)),
		node.F("DB_PORT", node.Int(int64(db.Port))),
		node.F("DB_NAME", node.String(db.Name)),
		node.F("DB_USER", node.String(db.User)),
		node.F("DB_PASSWORD", node.String(db.Password)),
		node.F("TABLE_PREFIX", node.String(db.TablePrefix)),
		node.F("TESTS_DATA", node.String(abs(root, cfg.Suites.CodeceptionDir)+"/_data")),
		node.F("WP_ROOT_FOLDER", node.String(abs(root, "vendor/wordpress/wordpress"))),
		node.F("WP_URL", node.String("http://localhost:8889")),
		node.F("WP_DOMAIN", node.String("localhost:8889")),
		node.F("WP_ADMIN_USERNAME", node.String("admin")),
		node.F("WP_ADMIN_PASSWORD", node.String("password")),
		node.F("CHROMEDRIVER_HOST", node.String("localhost")),
		node.F("CHROMEDRIVER_PORT", node.Int(int64(cfg.Browser.Port))),
	)
}

// Generate merges the codeception section onto def. The section's suites
// key is left out; use SuiteOverride for it.
func Generate(def, section node.Node) node.Node {
	if section.IsMapping() {
		section = section.Delete(SuitesKey)
	}
	return node.Merge(def, section)
}

// SuiteOverride returns section.suites.<name>, or an empty mapping.
func SuiteOverride(section node.Node, name string) node.Node {
	if o, ok := section.Lookup(SuitesKey, name); ok && !o.IsScalar() {
		return o
	}
	return node.Map()
}

// ReadSuiteFile decodes the suite's own *.suite.yml from fsys. A suite
// without a file, or with an empty one, yields an empty mapping.
func ReadSuiteFile(fsys fs.FS, s suite.Suite) (node.Node, error) {
	if len(s.Files) == 0 {
		return node.Map(), nil
	}
	data, err := fs.ReadFile(fsys, s.Files[0])
	if err != nil {
		return node.Node{}, fmt.Errorf("reading suite %s: %w", s.Name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return node.Map(), nil
	}
	n, err := node.DecodeYAML(data)
	if err != nil {
		return node.Node{}, fmt.Errorf("parsing suite %s: %w", s.Files[0], err)
	}
	if n.IsNull() {
		return node.Map(), nil
	}
	if !n.IsMapping() {
		return node.Node{}, fmt.Errorf("suite %s is a %s, want a mapping: %w", s.Files[0], n.Kind(), config.ErrInvalidConfigShape)
	}
	return n, nil
}

// Build assembles the full codeception.yml tree: the merged main settings
// plus one inline entry per suite. suiteFiles maps suite names to their
// decoded *.suite.yml and may be nil.
func Build(cfg *config.Config, root string, suites []suite.Suite, suiteFiles map[string]node.Node, section node.Node) (node.Node, error) {
	tree := Generate(Defaults(cfg, root), section)
	if !tree.IsMapping() {
		return node.Node{}, fmt.Errorf("codeception configuration is a %s, want a mapping: %w", tree.Kind(), config.ErrInvalidConfigShape)
	}

	inline := node.Map()
	for _, s := range suites {
		inline = inline.Set(s.Name, node.MergeAll(
			SuiteDefaults(cfg, s),
			suiteFiles[s.Name],
			SuiteOverride(section, s.Name),
		))
	}
	return tree.Set(SuitesKey, inline), nil
}

// NeedsBrowser reports whether any suite in tree enables WPWebDriver.
// Enabled entries may be module names or single-key mappings.
func NeedsBrowser(tree node.Node) bool {
	suites, ok := tree.Get(SuitesKey)
	if !ok {
		return false
	}
	for _, s := range suites.Values() {
		if SuiteNeedsBrowser(s) {
			return true
		}
	}
	return false
}

// SuiteNeedsBrowser reports whether a single suite enables WPWebDriver.
func SuiteNeedsBrowser(s node.Node) bool {
	enabled, ok := s.Lookup("modules", "enabled")
	if !ok {
		return false
	}
	for _, m := range enabled.Values() {
		if m.IsScalar() && m.String() == WebDriverModule {
			return true
		}
		if _, ok := m.Get(WebDriverModule); ok {
			return true
		}
	}
	return false
}

// EncodeYAML writes tree as YAML with two-space indentation.
func EncodeYAML(w io.Writer, tree node.Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tree.ToYAML()); err != nil {
		return fmt.Errorf("encoding codeception.yml: %w", err)
	}
	return enc.Close()
}

// Marshal is EncodeYAML into a byte slice.
func Marshal(tree node.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeYAML(&buf, tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ArgsOptions controls the codecept command line.
type ArgsOptions struct {
	Suite string
	Test  string
	Debug bool
	Extra []string
}

// Args returns the "codecept run" arguments for the configuration at file.
func Args(file string, opts ArgsOptions) []string {
	args := []string{"run"}
	if opts.Suite != "" {
		args = append(args, opts.Suite)
		if opts.Test != "" {
			args = append(args, opts.Test)
		}
	}
	args = append(args, "-c", file)
	if opts.Debug {
		args = append(args, "--debug")
	}
	return append(args, opts.Extra...)
}

func actorName(suite string) string {
	var b strings.Builder
	upper := true
	for _, r := range suite {
		if r == '-' || r == '_' || r == ' ' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String() + "Tester"
}

func abs(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(filepath.Join(root, p))
}
