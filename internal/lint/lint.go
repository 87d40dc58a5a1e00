// Package lint runs the documentation linters over a project's markdown.
package lint

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/wpdevtools/devtools/internal/logging"
	"github.com/wpdevtools/devtools/internal/runner"
)

// Options configures Docs.
type Options struct {
	// FS is the project root. Paths are matched relative to it.
	FS fs.FS
	// Paths and Exclude are doublestar patterns.
	Paths   []string
	Exclude []string

	// Vale and Markdownlint are the linter commands. An empty command
	// disables that linter.
	Vale         string
	Markdownlint string

	// Runner is copied for each linter so their output does not
	// interleave.
	Runner *runner.Runner
	// Out receives each linter's buffered output once it finishes.
	Out io.Writer
}

// Files returns the markdown files matched by paths minus exclude, sorted
// and without duplicates.
func Files(fsys fs.FS, paths, exclude []string) ([]string, error) {
	for _, p := range append(append([]string{}, paths...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid docs pattern %q", p)
		}
	}

	seen := make(map[string]bool)
	var files []string
	for _, p := range paths {
		matches, err := doublestar.Glob(fsys, p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("globbing %s: %w", p, err)
		}
	next:
		for _, m := range matches {
			if seen[m] {
				continue
			}
			for _, ex := range exclude {
				if ok, _ := doublestar.Match(ex, m); ok {
					continue next
				}
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Docs lints the matched files with vale and markdownlint-cli2 in
// parallel. Both linters always run to completion; the first failure is
// returned.
func Docs(ctx context.Context, opts Options) error {
	logger := logging.New("lint")

	files, err := Files(opts.FS, opts.Paths, opts.Exclude)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Info("no markdown files matched", "paths", opts.Paths)
		return nil
	}
	logger.Debug("linting markdown", "files", len(files))

	type job struct {
		name string
		bin  string
		out  *syncBuffer
	}
	var jobs []*job
	for _, j := range []*job{{name: "vale", bin: opts.Vale}, {name: "markdownlint", bin: opts.Markdownlint}} {
		if strings.TrimSpace(j.bin) == "" {
			logger.Debug("linter disabled", "linter", j.name)
			continue
		}
		j.out = &syncBuffer{}
		jobs = append(jobs, j)
	}

	var g errgroup.Group
	for _, j := range jobs {
		r := *opts.Runner
		r.Stdin = nil
		r.Stdout = j.out
		r.Stderr = j.out
		g.Go(func() error {
			if err := r.Run(ctx, j.bin, files...); err != nil {
				return fmt.Errorf("%s: %w", j.name, err)
			}
			return nil
		})
	}
	err = g.Wait()

	if opts.Out != nil {
		for _, j := range jobs {
			if _, werr := j.out.WriteTo(opts.Out); werr != nil {
				return werr
			}
		}
	}
	return err
}

// syncBuffer is a bytes.Buffer safe for the concurrent stdout and stderr
// copies of one process.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) WriteTo(w io.Writer) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.WriteTo(w)
}
