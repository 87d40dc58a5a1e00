package e2e_test

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// testProject is an isolated WordPress plugin directory with mock tools on
// PATH and in vendor/bin.
type testProject struct {
	Dir        string
	BinaryPath string
	LogPath    string
	env        []string
	t          *testing.T
}

// pathTools are looked up on PATH; vendorTools live in the project.
var (
	pathTools   = []string{"mysql", "docker", "wp", "npx", "vale", "markdownlint-cli2"}
	vendorTools = []string{"phpunit", "codecept"}
)

// newTestProject builds the devtools binary, installs the mock tools and
// lays out a plugin with one PHPUnit suite and one Codeception suite.
func newTestProject(t *testing.T) *testProject {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}
	if runtime.GOOS == "windows" {
		t.Skip("E2E tests with shell mock tools are not supported on Windows")
	}

	dir := t.TempDir()
	work := filepath.Join(dir, "plugin")
	bin := filepath.Join(dir, "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))

	binary := filepath.Join(bin, "devtools")
	build := exec.Command("go", "build", "-o", binary, "./cmd/devtools")
	build.Dir = projectRoot()
	out, err := build.CombinedOutput()
	require.NoError(t, err, "building devtools: %s", string(out))

	mock, err := os.ReadFile(filepath.Join(projectRoot(), "tests", "e2e", "testdata", "mock-tool.sh"))
	require.NoError(t, err)
	for _, name := range pathTools {
		require.NoError(t, os.WriteFile(filepath.Join(bin, name), mock, 0o755))
	}
	for _, name := range vendorTools {
		path := filepath.Join(work, "vendor", "bin", name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, mock, 0o755))
	}

	tp := &testProject{
		Dir:        work,
		BinaryPath: binary,
		LogPath:    filepath.Join(dir, "calls.log"),
		t:          t,
	}
	tp.env = []string{
		"PATH=" + bin + string(os.PathListSeparator) + os.Getenv("PATH"),
		"DEVTOOLS_E2E_LOG=" + tp.LogPath,
		"NO_COLOR=1",
		"DEVTOOLS_LOG_FORMAT=json",
	}

	tp.writeFile("composer.json", `{
  "name": "acme/shop-plugin",
  "extra": {
    "dev-tools": {
      "env": {"WP_URL": "http://localhost:8889"}
    }
  }
}`)
	tp.writeFile("tests/phpunit/bootstrap.php", "<?php\n")
	tp.writeFile("tests/phpunit/unit/CartTest.php", "<?php\n")
	tp.writeFile("tests/acceptance.suite.yml", "actor: AcceptanceTester\nmodules:\n  enabled:\n    - WPDb\n    - WPWebDriver\n")
	tp.writeFile("docs/README.md", "# Shop\n")
	return tp
}

// projectRoot returns the root of the devtools repository.
func projectRoot() string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(thisFile), "..", "..")
}

func (tp *testProject) writeFile(rel, content string) {
	tp.t.Helper()
	path := filepath.Join(tp.Dir, filepath.FromSlash(rel))
	require.NoError(tp.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(tp.t, os.WriteFile(path, []byte(content), 0o644))
}

// writeConfig writes devtools.toml in the project.
func (tp *testProject) writeConfig(content string) {
	tp.t.Helper()
	tp.writeFile("devtools.toml", content)
}

// setEnv adds KEY=value to the environment of later runs.
func (tp *testProject) setEnv(kv ...string) {
	tp.env = append(tp.env, kv...)
}

func (tp *testProject) run(args ...string) *exec.Cmd {
	cmd := exec.Command(tp.BinaryPath, args...)
	cmd.Dir = tp.Dir
	cmd.Env = append(os.Environ(), tp.env...)
	return cmd
}

// runExpectSuccess runs devtools and asserts exit code 0.
func (tp *testProject) runExpectSuccess(args ...string) string {
	tp.t.Helper()
	out, err := tp.run(args...).CombinedOutput()
	require.NoError(tp.t, err, "devtools %v failed:\n%s", args, string(out))
	return string(out)
}

// runExpectFailure runs devtools and asserts a non-zero exit code.
func (tp *testProject) runExpectFailure(args ...string) (string, int) {
	tp.t.Helper()
	out, err := tp.run(args...).CombinedOutput()
	require.Error(tp.t, err, "devtools %v expected to fail but succeeded:\n%s", args, string(out))
	var exitErr *exec.ExitError
	require.True(tp.t, errors.As(err, &exitErr), "expected *exec.ExitError, got %T: %v", err, err)
	return string(out), exitErr.ExitCode()
}

// calls returns the recorded mock tool invocations in order.
func (tp *testProject) calls() []string {
	tp.t.Helper()
	data, err := os.ReadFile(tp.LogPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(tp.t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

// callIndex returns the index of the first call starting with prefix, or -1.
func callIndex(calls []string, prefix string) int {
	for i, c := range calls {
		if strings.HasPrefix(c, prefix) {
			return i
		}
	}
	return -1
}
