// Package suite discovers test suites on disk by filename pattern.
package suite

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrUnknownSuite is returned by Filter for a name that was not discovered.
var ErrUnknownSuite = errors.New("unknown suite")

// Suite is a named group of test files.
type Suite struct {
	Name  string
	Dir   string   // slash-separated, relative to the discovery root
	Files []string // slash-separated, relative to the discovery root
}

// DiscoverPHPUnit globs pattern under dir and groups the matches by their
// first directory below dir: tests/phpunit/unit/FooTest.php belongs to
// suite "unit". Files directly in dir form a suite named after dir.
func DiscoverPHPUnit(fsys fs.FS, dir, pattern string) ([]Suite, error) {
	dir = cleanDir(dir)
	matches, err := glob(fsys, dir, pattern)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*Suite)
	for _, m := range matches {
		rel := strings.TrimPrefix(m, dir+"/")
		if dir == "." {
			rel = m
		}
		name, suiteDir := path.Base(dir), dir
		if first, rest, ok := strings.Cut(rel, "/"); ok && rest != "" {
			name, suiteDir = first, path.Join(dir, first)
		}
		s, ok := byName[name]
		if !ok {
			s = &Suite{Name: name, Dir: suiteDir}
			byName[name] = s
		}
		s.Files = append(s.Files, m)
	}
	return sorted(byName), nil
}

// DiscoverCodeception globs pattern (usually *.suite.yml) under dir. Each
// match is one suite named after the file without its suite suffix.
func DiscoverCodeception(fsys fs.FS, dir, pattern string) ([]Suite, error) {
	dir = cleanDir(dir)
	matches, err := glob(fsys, dir, pattern)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*Suite)
	for _, m := range matches {
		base := path.Base(m)
		stem := strings.TrimSuffix(base, path.Ext(base))
		dist := strings.HasSuffix(stem, ".dist")
		name := strings.TrimSuffix(strings.TrimSuffix(stem, ".dist"), ".suite")
		// foo.suite.yml wins over foo.suite.dist.yml.
		if _, dup := byName[name]; dup && dist {
			continue
		}
		byName[name] = &Suite{Name: name, Dir: path.Dir(m), Files: []string{m}}
	}
	return sorted(byName), nil
}

// Names returns the suite names in order.
func Names(suites []Suite) []string {
	names := make([]string, len(suites))
	for i, s := range suites {
		names[i] = s.Name
	}
	return names
}

// Filter returns the suites named in names, in the order requested. An
// empty names list selects every suite.
func Filter(suites []Suite, names []string) ([]Suite, error) {
	if len(names) == 0 {
		return suites, nil
	}
	index := make(map[string]Suite, len(suites))
	for _, s := range suites {
		index[s.Name] = s
	}
	out := make([]Suite, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		s, ok := index[n]
		if !ok {
			return nil, fmt.Errorf("%w %q; available: %s", ErrUnknownSuite, n, strings.Join(Names(suites), ", "))
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, s)
	}
	return out, nil
}

func cleanDir(dir string) string {
	if dir == "" {
		return "."
	}
	return path.Clean(filepath.ToSlash(dir))
}

func glob(fsys fs.FS, dir, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid suite pattern %q", pattern)
	}
	full := pattern
	if dir != "." {
		full = dir + "/" + pattern
	}
	matches, err := doublestar.Glob(fsys, full, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("globbing %s: %w", full, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func sorted(byName map[string]*Suite) []Suite {
	out := make([]Suite, 0, len(byName))
	for _, s := range byName {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
