// Package wpenv drives the services a WordPress test run depends on: the
// test database, the Selenium browser container, the object cache and the
// wp-env development environment.
package wpenv

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Commander runs an external command. *runner.Runner implements it.
type Commander interface {
	Run(ctx context.Context, bin string, args ...string) error
	// RunEnv adds env to the command's environment only.
	RunEnv(ctx context.Context, env []string, bin string, args ...string) error
	// RunQuiet discards the command's output.
	RunQuiet(ctx context.Context, bin string, args ...string) error
}

// ErrInvalidName is returned for database or container names that cannot
// be passed to mysql or docker safely.
var ErrInvalidName = errors.New("invalid name")

var (
	identifier    = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	containerName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)
)

// Database creates and drops the test database through the mysql client.
type Database struct {
	Cmd      Commander
	Binary   string
	Host     string
	Port     int
	User     string
	Password string
}

// Create creates the database if it does not exist yet.
func (d *Database) Create(ctx context.Context, name string) error {
	if !identifier.MatchString(name) {
		return fmt.Errorf("database %q: %w", name, ErrInvalidName)
	}
	if err := d.exec(ctx, "CREATE DATABASE IF NOT EXISTS `"+name+"`"); err != nil {
		return fmt.Errorf("creating database %s: %w", name, err)
	}
	return nil
}

// Drop drops the database if it exists.
func (d *Database) Drop(ctx context.Context, name string) error {
	if !identifier.MatchString(name) {
		return fmt.Errorf("database %q: %w", name, ErrInvalidName)
	}
	if err := d.exec(ctx, "DROP DATABASE IF EXISTS `"+name+"`"); err != nil {
		return fmt.Errorf("dropping database %s: %w", name, err)
	}
	return nil
}

// exec runs one statement. The password travels in MYSQL_PWD so it never
// shows up in the process list.
func (d *Database) exec(ctx context.Context, stmt string) error {
	args := []string{"--host=" + d.Host, "--port=" + strconv.Itoa(d.Port), "--user=" + d.User, "-e", stmt}
	if d.Password == "" {
		return d.Cmd.Run(ctx, d.Binary, args...)
	}
	return d.Cmd.RunEnv(ctx, []string{"MYSQL_PWD=" + d.Password}, d.Binary, args...)
}

// Browser runs the Selenium container used by WebDriver suites.
type Browser struct {
	Cmd       Commander
	Docker    string
	Image     string
	Container string
	Port      int
}

// Start removes any stale container with the same name and starts a fresh
// one in the background.
func (b *Browser) Start(ctx context.Context) error {
	if !containerName.MatchString(b.Container) {
		return fmt.Errorf("container %q: %w", b.Container, ErrInvalidName)
	}
	// A container left over from a killed run would make "docker run" fail
	// on the name. Its absence is the normal case, so the output is dropped.
	_ = b.Cmd.RunQuiet(ctx, b.Docker, "rm", "-f", b.Container)

	err := b.Cmd.Run(ctx, b.Docker, "run", "-d", "--rm",
		"--name", b.Container,
		"--shm-size=2g",
		"--add-host=host.docker.internal:host-gateway",
		"-p", fmt.Sprintf("%d:4444", b.Port),
		b.Image,
	)
	if err != nil {
		return fmt.Errorf("starting browser %s: %w", b.Container, err)
	}
	return nil
}

// Stop force-removes the container.
func (b *Browser) Stop(ctx context.Context) error {
	if err := b.Cmd.Run(ctx, b.Docker, "rm", "-f", b.Container); err != nil {
		return fmt.Errorf("stopping browser %s: %w", b.Container, err)
	}
	return nil
}

// Cache flushes the WordPress object cache with WP-CLI.
type Cache struct {
	Cmd Commander
	WP  string
}

// Flush runs "wp cache flush".
func (c *Cache) Flush(ctx context.Context) error {
	if err := c.Cmd.Run(ctx, c.WP, "cache", "flush"); err != nil {
		return fmt.Errorf("flushing cache: %w", err)
	}
	return nil
}

// WPEnv wraps the @wordpress/env CLI.
type WPEnv struct {
	Cmd    Commander
	Binary string
}

// Start starts the environment. update also pulls WordPress and plugin
// sources.
func (w *WPEnv) Start(ctx context.Context, update bool) error {
	args := []string{"start"}
	if update {
		args = append(args, "--update")
	}
	return w.run(ctx, args...)
}

// Stop stops the environment.
func (w *WPEnv) Stop(ctx context.Context) error {
	return w.run(ctx, "stop")
}

// Clean resets the database of environment ("all", "development" or
// "tests").
func (w *WPEnv) Clean(ctx context.Context, environment string) error {
	switch environment {
	case "":
		environment = "tests"
	case "all", "development", "tests":
	default:
		return fmt.Errorf("wp-env clean: unknown environment %q (want all, development or tests)", environment)
	}
	return w.run(ctx, "clean", environment)
}

// Run runs a command inside one of the environment's containers, e.g.
// Run(ctx, "cli", "wp", "plugin", "list").
func (w *WPEnv) Run(ctx context.Context, container string, args ...string) error {
	if container == "" {
		return errors.New("wp-env run: container is required")
	}
	return w.run(ctx, append([]string{"run", container}, args...)...)
}

func (w *WPEnv) run(ctx context.Context, args ...string) error {
	if err := w.Cmd.Run(ctx, w.Binary, args...); err != nil {
		return fmt.Errorf("wp-env %s: %w", args[0], err)
	}
	return nil
}
