package phpunit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wpdevtools/devtools/internal/config"
	"github.com/wpdevtools/devtools/internal/node"
	"github.com/wpdevtools/devtools/internal/suite"
)

func testSuites() []suite.Suite {
	return []suite.Suite{
		{Name: "integration", Dir: "tests/phpunit/integration"},
		{Name: "unit", Dir: "tests/phpunit/unit"},
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.NewDefaults()
	cfg.Project.Multisite = true
	def := Defaults(cfg, "/srv/plugin", testSuites())

	bootstrap, ok := def.Get("bootstrap")
	require.True(t, ok)
	assert.Equal(t, "/srv/plugin/tests/phpunit/bootstrap.php", bootstrap.Value())

	suites, ok := def.Lookup("testsuites", "testsuite")
	require.True(t, ok)
	require.Equal(t, 2, suites.Len())
	first := suites.Items()[0]
	name, _ := first.Get("name")
	assert.Equal(t, "integration", name.Value())
	dirs, _ := first.Get("directory")
	text, _ := dirs.Items()[0].Get(TextKey)
	assert.Equal(t, "/srv/plugin/tests/phpunit/integration", text.Value())
	suffix, _ := dirs.Items()[0].Get("suffix")
	assert.Equal(t, "Test.php", suffix.Value())

	env, ok := def.Lookup("php", "env")
	require.True(t, ok)
	values := map[string]string{}
	for _, e := range env.Items() {
		k, _ := e.Get("name")
		v, _ := e.Get("value")
		values[k.String()] = v.String()
	}
	assert.Equal(t, "1", values["WP_MULTISITE"])
	assert.Equal(t, "127.0.0.1:3306", values["WP_TESTS_DB_HOST"])
	assert.Equal(t, "wordpress_test", values["WP_TESTS_DB_NAME"])
	assert.Equal(t, "/tmp/wordpress-tests-lib", values["WP_TESTS_DIR"])
}

func TestGenerate_OverridesAttributesAndKeepsDefaults(t *testing.T) {
	t.Parallel()

	def := Defaults(config.NewDefaults(), "/srv/plugin", testSuites())
	override, err := node.DecodeJSON([]byte(`{
		"colors": false,
		"bootstrap": "tests/bootstrap.php",
		"php": {"ini": [{"name": "memory_limit", "value": "512M"}]}
	}`))
	require.NoError(t, err)

	got := Generate(def, override)

	colors, _ := got.Get("colors")
	assert.Equal(t, false, colors.Value())
	bootstrap, _ := got.Get("bootstrap")
	assert.Equal(t, "tests/bootstrap.php", bootstrap.Value())
	_, ok := got.Lookup("php", "env")
	assert.True(t, ok, "sibling keys survive a nested override")
	ini, ok := got.Lookup("php", "ini")
	require.True(t, ok)
	assert.Equal(t, 1, ini.Len())
	assert.Equal(t, def.Keys(), got.Keys()[:len(def.Keys())])
}

func TestEncodeXML(t *testing.T) {
	t.Parallel()

	tree := node.Map(
		node.F("bootstrap", node.String("bootstrap.php")),
		node.F("colors", node.Bool(true)),
		node.F("stopOnFailure", node.Null()),
		node.F("testsuites", node.Map(
			node.F("testsuite", node.Seq(
				node.Map(
					node.F("name", node.String("unit")),
					node.F("directory", node.Seq(node.Map(
						node.F("suffix", node.String("Test.php")),
						node.F(TextKey, node.String("tests/unit")),
					))),
					node.F("file", node.Strings("tests/a&b.php")),
				),
			)),
		)),
	)

	out, err := Marshal(tree)
	require.NoError(t, err)

	want := strings.Join([]string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<phpunit bootstrap="bootstrap.php" colors="true">`,
		`    <testsuites>`,
		`        <testsuite name="unit">`,
		`            <directory suffix="Test.php">tests/unit</directory>`,
		`            <file>tests/a&amp;b.php</file>`,
		`        </testsuite>`,
		`    </testsuites>`,
		`</phpunit>`,
		``,
	}, "\n")
	assert.Equal(t, want, string(out))
}

func TestEncodeXML_Defaults(t *testing.T) {
	t.Parallel()

	out, err := Marshal(Defaults(config.NewDefaults(), "/srv/plugin", testSuites()))
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, `xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"`)
	assert.Contains(t, text, `<testsuite name="unit">`)
	assert.Contains(t, text, `<env name="WP_MULTISITE" value="0" force="true"></env>`)
	assert.Contains(t, text, `<directory>/srv/plugin/vendor</directory>`)
}

func TestEncodeXML_RejectsNonMappingRoot(t *testing.T) {
	t.Parallel()

	_, err := Marshal(node.Strings("a"))
	require.ErrorIs(t, err, config.ErrInvalidConfigShape)
}

func TestEncodeXML_RejectsInvalidNames(t *testing.T) {
	t.Parallel()

	_, err := Marshal(node.Map(node.F("0", node.Map())))
	require.ErrorIs(t, err, ErrInvalidName)

	_, err = Marshal(node.Map(node.F("bad name", node.String("x"))))
	require.ErrorIs(t, err, ErrInvalidName)
}

func TestArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts ArgsOptions
		want []string
	}{
		{
			name: "config only",
			want: []string{"-c", ".devtools/phpunit.xml"},
		},
		{
			name: "suites and filter",
			opts: ArgsOptions{Suites: []string{"unit", "integration"}, Filter: "test_saves"},
			want: []string{"-c", ".devtools/phpunit.xml", "--testsuite", "unit,integration", "--filter", "test_saves"},
		},
		{
			name: "html coverage",
			opts: ArgsOptions{Coverage: CoverageHTML, CoverageDir: ".devtools/coverage"},
			want: []string{"-c", ".devtools/phpunit.xml", "--coverage-html", ".devtools/coverage"},
		},
		{
			name: "clover coverage with passthrough",
			opts: ArgsOptions{Coverage: CoverageClover, CoverageDir: "build", Extra: []string{"--debug"}},
			want: []string{"-c", ".devtools/phpunit.xml", "--coverage-clover", "build/clover.xml", "--debug"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Args(".devtools/phpunit.xml", tt.opts))
		})
	}
}
