// Package phpunit generates phpunit.xml from built-in defaults merged with
// the project's extra.dev-tools.phpunit overrides, and builds the phpunit
// command line.
package phpunit

import (
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wpdevtools/devtools/internal/config"
	"github.com/wpdevtools/devtools/internal/node"
	"github.com/wpdevtools/devtools/internal/suite"
)

// FileName is the name of the generated configuration inside the build
// directory.
const FileName = "phpunit.xml"

// Defaults builds the default tree for a project rooted at root. Paths are
// absolute so the generated file works from the build directory.
func Defaults(cfg *config.Config, root string, suites []suite.Suite) node.Node {
	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.ToSlash(p)
		}
		return filepath.ToSlash(filepath.Join(root, p))
	}
	build := abs(cfg.Project.BuildDir)
	suffix := strings.TrimLeft(path.Base(cfg.Suites.PHPUnitPattern), "*")

	testsuites := make([]node.Node, 0, len(suites))
	for _, s := range suites {
		testsuites = append(testsuites, node.Map(
			node.F("name", node.String(s.Name)),
			node.F("directory", node.Seq(node.Map(
				node.F("suffix", node.String(suffix)),
				node.F("#text", node.String(abs(s.Dir))),
			))),
		))
	}

	db := cfg.Database
	multisite := "0"
	if cfg.Project.Multisite {
		multisite = "1"
	}
	env := func(name, value string) node.Node {
		return node.Map(
			node.F("name", node.String(name)),
			node.F("value", node.String(value)),
			node.F("force", node.Bool(true)),
		)
	}

	return node.Map(
		node.F("xmlns:xsi", node.String("http://www.w3.org/2001/XMLSchema-instance")),
		node.F("xsi:noNamespaceSchemaLocation", node.String(abs("vendor/phpunit/phpunit/phpunit.xsd"))),
		node.F("bootstrap", node.String(abs(path.Join(cfg.Suites.PHPUnitDir, "bootstrap.php")))),
		node.F("cacheDirectory", node.String(build+"/phpunit-cache")),
		node.F("colors", node.Bool(true)),
		node.F("backupGlobals", node.Bool(false)),
		node.F("beStrictAboutTestsThatDoNotTestAnything", node.Bool(true)),
		node.F("failOnWarning", node.Bool(true)),
		node.F("testsuites", node.Map(
			node.F("testsuite", node.Seq(testsuites...)),
		)),
		node.F("php", node.Map(
			node.F("env", node.Seq(
				env("WP_TESTS_DIR", cfg.Project.WPTestsDir),
				env("WP_TESTS_DB_NAME", db.Name),
				env("WP_TESTS_DB_USER", db.User),
				env("WP_TESTS_DB_PASSWORD", db.Password),
				env("WP_TESTS_DB_HOST", db.Host+":"+strconv.Itoa(db.Port)),
				env("WP_TESTS_TABLE_PREFIX", db.TablePrefix),
				env("WP_MULTISITE", multisite),
			)),
		)),
		node.F("source", node.Map(
			node.F("include", node.Map(
				node.F("directory", node.Seq(node.Map(
					node.F("suffix", node.String(".php")),
					node.F("#text", node.String(abs("."))),
				))),
			)),
			node.F("exclude", node.Map(
				node.F("directory", node.Seq(
					node.String(abs("vendor")),
					node.String(abs("node_modules")),
					node.String(abs("tests")),
					node.String(build),
				)),
			)),
		)),
	)
}

// Generate merges the project's overrides onto def.
func Generate(def, override node.Node) node.Node {
	return node.Merge(def, override)
}

// Coverage selects a coverage report.
type Coverage string

const (
	CoverageNone   Coverage = ""
	CoverageText   Coverage = "text"
	CoverageHTML   Coverage = "html"
	CoverageClover Coverage = "clover"
)

// ArgsOptions controls the phpunit command line.
type ArgsOptions struct {
	Suites      []string
	Filter      string
	Coverage    Coverage
	CoverageDir string
	// Extra is appended verbatim, usually everything after "--".
	Extra []string
}

// Args returns the phpunit arguments for the configuration at file.
func Args(file string, opts ArgsOptions) []string {
	args := []string{"-c", file}
	if len(opts.Suites) > 0 {
		args = append(args, "--testsuite", strings.Join(opts.Suites, ","))
	}
	if opts.Filter != "" {
		args = append(args, "--filter", opts.Filter)
	}
	switch opts.Coverage {
	case CoverageText:
		args = append(args, "--coverage-text")
	case CoverageHTML:
		args = append(args, "--coverage-html", opts.CoverageDir)
	case CoverageClover:
		args = append(args, "--coverage-clover", path.Join(filepath.ToSlash(opts.CoverageDir), "clover.xml"))
	}
	return append(args, opts.Extra...)
}
