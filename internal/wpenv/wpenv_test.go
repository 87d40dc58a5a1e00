package wpenv

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wpdevtools/devtools/internal/runner"
)

// recorder is a Commander that records each command line and fails the
// ones whose line contains a key of fail. Lines run with RunEnv are
// prefixed with their variables; lines run with RunQuiet are also listed
// in quiet.
type recorder struct {
	mu    sync.Mutex
	calls []string
	quiet []string
	fail  map[string]error
}

func (r *recorder) Run(ctx context.Context, bin string, args ...string) error {
	return r.record(ctx, strings.Join(append([]string{bin}, args...), " "))
}

func (r *recorder) RunEnv(ctx context.Context, env []string, bin string, args ...string) error {
	return r.record(ctx, strings.Join(append(append(env, bin), args...), " "))
}

func (r *recorder) RunQuiet(ctx context.Context, bin string, args ...string) error {
	line := strings.Join(append([]string{bin}, args...), " ")
	r.mu.Lock()
	r.quiet = append(r.quiet, line)
	r.mu.Unlock()
	return r.record(ctx, line)
}

func (r *recorder) record(ctx context.Context, line string) error {
	r.mu.Lock()
	r.calls = append(r.calls, line)
	r.mu.Unlock()
	for substr, err := range r.fail {
		if strings.Contains(line, substr) {
			return err
		}
	}
	return ctx.Err()
}

func newSession(rec *recorder) *Session {
	return &Session{
		DB:      &Database{Cmd: rec, Binary: "mysql", Host: "127.0.0.1", Port: 3306, User: "root", Password: "pw"},
		DBName:  "wordpress_test",
		Browser: &Browser{Cmd: rec, Docker: "docker", Image: "selenium/standalone-chrome", Container: "devtools-selenium", Port: 4444},
		Cache:   &Cache{Cmd: rec, WP: "wp"},
	}
}

func TestDatabase_Commands(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	db := &Database{Cmd: rec, Binary: "mysql", Host: "db", Port: 3307, User: "wp"}
	require.NoError(t, db.Create(context.Background(), "wp_test"))
	require.NoError(t, db.Drop(context.Background(), "wp_test"))

	assert.Equal(t, []string{
		"mysql --host=db --port=3307 --user=wp -e CREATE DATABASE IF NOT EXISTS `wp_test`",
		"mysql --host=db --port=3307 --user=wp -e DROP DATABASE IF EXISTS `wp_test`",
	}, rec.calls)
}

func TestDatabase_PasswordStaysOutOfArgv(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	db := &Database{Cmd: rec, Binary: "mysql", Host: "db", Port: 3306, User: "root", Password: "hunter2"}
	require.NoError(t, db.Create(context.Background(), "wp_test"))

	require.Len(t, rec.calls, 1)
	assert.Equal(t, "MYSQL_PWD=hunter2 mysql --host=db --port=3306 --user=root -e CREATE DATABASE IF NOT EXISTS `wp_test`", rec.calls[0])
	assert.NotContains(t, rec.calls[0], "--password")
}

func TestDatabase_RejectsInvalidName(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	db := &Database{Cmd: rec, Binary: "mysql"}
	err := db.Create(context.Background(), "x`; DROP DATABASE mysql; --")
	require.ErrorIs(t, err, ErrInvalidName)
	assert.Empty(t, rec.calls)
}

func TestBrowser_StartRemovesStaleContainer(t *testing.T) {
	t.Parallel()

	rec := &recorder{fail: map[string]error{"rm -f": errors.New("no such container")}}
	b := &Browser{Cmd: rec, Docker: "docker", Image: "selenium/standalone-chrome:latest", Container: "sel", Port: 4445}
	require.NoError(t, b.Start(context.Background()))

	require.Len(t, rec.calls, 2)
	assert.Equal(t, "docker rm -f sel", rec.calls[0])
	assert.Equal(t, []string{"docker rm -f sel"}, rec.quiet, "stale container cleanup runs quietly")
	assert.True(t, strings.HasPrefix(rec.calls[1], "docker run -d --rm --name sel"))
	assert.Contains(t, rec.calls[1], "-p 4445:4444 selenium/standalone-chrome:latest")
}

func TestWPEnv_Commands(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	w := &WPEnv{Cmd: rec, Binary: "npx wp-env"}
	ctx := context.Background()
	require.NoError(t, w.Start(ctx, true))
	require.NoError(t, w.Stop(ctx))
	require.NoError(t, w.Clean(ctx, ""))
	require.NoError(t, w.Run(ctx, "cli", "wp", "plugin", "list"))
	require.Error(t, w.Clean(ctx, "staging"))
	require.Error(t, w.Run(ctx, ""))

	assert.Equal(t, []string{
		"npx wp-env start --update",
		"npx wp-env stop",
		"npx wp-env clean tests",
		"npx wp-env run cli wp plugin list",
	}, rec.calls)
}

func TestSession_Order(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	s := newSession(rec)
	var calledAt int
	err := s.Run(context.Background(), func(context.Context) error {
		calledAt = len(rec.calls)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 3, calledAt, "fn runs after create db and browser start")
	require.Len(t, rec.calls, 6)
	assert.Contains(t, rec.calls[0], "CREATE DATABASE")
	assert.Equal(t, "docker rm -f devtools-selenium", rec.calls[1])
	assert.Contains(t, rec.calls[2], "docker run")
	assert.Equal(t, "wp cache flush", rec.calls[3])
	assert.Contains(t, rec.calls[4], "DROP DATABASE")
	assert.Equal(t, "docker rm -f devtools-selenium", rec.calls[5])
	assert.Equal(t, []string{"docker rm -f devtools-selenium"}, rec.quiet, "only the pre-start cleanup is quiet")
}

func TestSession_TeardownAfterFailureKeepsFirstExitCode(t *testing.T) {
	t.Parallel()

	rec := &recorder{fail: map[string]error{
		"DROP DATABASE": &runner.ExitError{Command: "mysql", Code: 7},
	}}
	s := newSession(rec)
	err := s.Run(context.Background(), func(context.Context) error {
		return &runner.ExitError{Command: "phpunit", Code: 2}
	})
	require.Error(t, err)

	assert.Equal(t, 2, runner.ExitCode(err))
	assert.Contains(t, err.Error(), "phpunit")
	assert.Contains(t, err.Error(), "dropping database")
	assert.Equal(t, "docker rm -f devtools-selenium", rec.calls[len(rec.calls)-1], "browser still stopped")
}

func TestSession_SetupFailureSkipsRun(t *testing.T) {
	t.Parallel()

	rec := &recorder{fail: map[string]error{"docker run": &runner.ExitError{Command: "docker", Code: 125}}}
	s := newSession(rec)
	called := false
	err := s.Run(context.Background(), func(context.Context) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called)
	assert.Equal(t, 125, runner.ExitCode(err))
	last := rec.calls[len(rec.calls)-1]
	assert.Contains(t, last, "DROP DATABASE", "created database is dropped")
	for _, c := range rec.calls {
		assert.NotEqual(t, "wp cache flush", c)
	}
}

func TestSession_KeepDBAndNoBrowser(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	s := newSession(rec)
	s.KeepDB = true
	s.Browser = nil
	s.Cache = nil
	require.NoError(t, s.Run(context.Background(), func(context.Context) error { return nil }))

	require.Len(t, rec.calls, 1)
	assert.Contains(t, rec.calls[0], "CREATE DATABASE")
}

func TestSession_TeardownSurvivesCancellation(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	s := newSession(rec)
	ctx, cancel := context.WithCancel(context.Background())
	err := s.Run(ctx, func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})
	require.ErrorIs(t, err, context.Canceled)

	assert.Len(t, rec.calls, 6)
	assert.Equal(t, 1, runner.ExitCode(err))
}
