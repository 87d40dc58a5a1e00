// Package genfile writes generated configuration files without touching
// files whose content is already up to date.
//
// Every directory that receives a generated file also gets a SumFile
// listing the xxhash digest of each file as it was last written. When a
// file no longer matches its recorded digest someone edited it by hand,
// and Write reports that before replacing it.
package genfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// SumFile is the name of the per-directory digest list.
const SumFile = ".devtools.sum"

// Result describes the outcome of a Write.
type Result struct {
	// Changed is true when the file was (re)written.
	Changed bool
	// Edited is true when the file on disk did not match the digest
	// recorded at the previous write.
	Edited bool
	// Digest is the fingerprint of the new content.
	Digest uint64
}

// Fingerprint returns the xxhash digest of data.
func Fingerprint(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// FormatDigest renders a digest the way it is stored in SumFile.
func FormatDigest(d uint64) string {
	return fmt.Sprintf("%016x", d)
}

// Write writes data to path, creating parent directories as needed. A file
// that already holds data is left alone so runners that watch mtimes do not
// see spurious changes.
func Write(path string, data []byte) (Result, error) {
	res := Result{Digest: Fingerprint(data)}
	dir, base := filepath.Dir(path), filepath.Base(path)

	current, err := os.ReadFile(path)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return res, fmt.Errorf("genfile: reading %s: %w", path, err)
	}

	sums, err := readSums(dir)
	if err != nil {
		return res, err
	}
	recorded, known := sums[base]

	if exists && bytes.Equal(current, data) {
		if !known || recorded != res.Digest {
			sums[base] = res.Digest
			return res, writeSums(dir, sums)
		}
		return res, nil
	}
	if exists && known && recorded != Fingerprint(current) {
		res.Edited = true
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, fmt.Errorf("genfile: creating directory for %s: %w", path, err)
	}
	if err := writeAtomic(path, data); err != nil {
		return res, err
	}
	res.Changed = true

	sums[base] = res.Digest
	return res, writeSums(dir, sums)
}

// State is the condition of a generated file relative to its recorded
// digest.
type State int

const (
	Missing   State = iota // the file does not exist
	Untracked              // no digest was recorded for it
	Current                // it matches the recorded digest
	Edited                 // it was changed after it was written
)

func (s State) String() string {
	switch s {
	case Missing:
		return "missing"
	case Untracked:
		return "untracked"
	case Current:
		return "current"
	case Edited:
		return "edited"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// Check compares the file at path with the digest recorded for it.
func Check(path string) (State, error) {
	current, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Missing, nil
	}
	if err != nil {
		return Missing, fmt.Errorf("genfile: reading %s: %w", path, err)
	}
	sums, err := readSums(filepath.Dir(path))
	if err != nil {
		return Missing, err
	}
	recorded, ok := sums[filepath.Base(path)]
	switch {
	case !ok:
		return Untracked, nil
	case recorded != Fingerprint(current):
		return Edited, nil
	default:
		return Current, nil
	}
}

// readSums parses dir's SumFile. Lines are "<digest>  <name>"; malformed
// lines are ignored so a damaged file only costs edit detection.
func readSums(dir string) (map[string]uint64, error) {
	sums := make(map[string]uint64)
	f, err := os.Open(filepath.Join(dir, SumFile))
	if errors.Is(err, fs.ErrNotExist) {
		return sums, nil
	}
	if err != nil {
		return nil, fmt.Errorf("genfile: reading %s: %w", SumFile, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		digest, name, ok := strings.Cut(sc.Text(), "  ")
		if !ok || name == "" {
			continue
		}
		d, err := strconv.ParseUint(digest, 16, 64)
		if err != nil {
			continue
		}
		sums[name] = d
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("genfile: reading %s: %w", SumFile, err)
	}
	return sums, nil
}

func writeSums(dir string, sums map[string]uint64) error {
	names := make([]string, 0, len(sums))
	for name := range sums {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	for _, name := range names {
		fmt.Fprintf(&buf, "%s  %s\n", FormatDigest(sums[name]), name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("genfile: creating directory for %s: %w", SumFile, err)
	}
	return writeAtomic(filepath.Join(dir, SumFile), buf.Bytes())
}

// writeAtomic writes to a sibling temp file and renames it over path so a
// runner never reads a half-written config.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("genfile: creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("genfile: writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("genfile: closing %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("genfile: chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("genfile: renaming into %s: %w", path, err)
	}
	return nil
}
