// Package scaffold copies boilerplate files into a project from templates
// embedded in the binary.
package scaffold

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/wpdevtools/devtools/internal/logging"
)

//go:embed all:templates
var templateFS embed.FS

const templatesRoot = "templates"

// ErrUnknownTemplate is returned for a template name that is not embedded.
var ErrUnknownTemplate = errors.New("unknown template")

// Vars are available to .tmpl files. Other files are copied verbatim.
type Vars struct {
	ProjectName  string
	Slug         string
	PHPVersion   string
	DBName       string
	DBUser       string
	DBPassword   string
	BrowserImage string
	BrowserPort  int
}

// Result lists what Render did, with paths relative to the destination.
type Result struct {
	Created []string
	Skipped []string
}

// List returns the embedded template names, sorted.
func List() ([]string, error) {
	entries, err := templateFS.ReadDir(templatesRoot)
	if err != nil {
		return nil, fmt.Errorf("reading templates: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Exists reports whether name is an embedded template.
func Exists(name string) bool {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return false
	}
	info, err := fs.Stat(templateFS, path.Join(templatesRoot, name))
	return err == nil && info.IsDir()
}

// Render writes template name into destDir. Files ending in .tmpl are
// executed with vars and written without the suffix. Existing files are
// skipped unless force is set.
func Render(name, destDir string, vars Vars, force bool) (Result, error) {
	var res Result
	if !Exists(name) {
		return res, fmt.Errorf("%w %q", ErrUnknownTemplate, name)
	}
	logger := logging.New("scaffold")
	root := path.Join(templatesRoot, name)

	err := fs.WalkDir(templateFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking template %s: %w", p, err)
		}
		if d.IsDir() {
			return nil
		}

		rel := strings.TrimPrefix(p, root+"/")
		isTmpl := strings.HasSuffix(rel, ".tmpl")
		rel = strings.TrimSuffix(rel, ".tmpl")
		dest := filepath.Join(destDir, filepath.FromSlash(rel))

		if _, statErr := os.Stat(dest); statErr == nil && !force {
			logger.Debug("skipping existing file", "path", dest)
			res.Skipped = append(res.Skipped, rel)
			return nil
		}

		content, err := templateFS.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading embedded file %s: %w", p, err)
		}
		if isTmpl {
			tmpl, err := template.New(d.Name()).Option("missingkey=error").Parse(string(content))
			if err != nil {
				return fmt.Errorf("parsing template %s: %w", p, err)
			}
			var buf bytes.Buffer
			if err := tmpl.Execute(&buf, vars); err != nil {
				return fmt.Errorf("executing template %s: %w", p, err)
			}
			content = buf.Bytes()
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", dest, err)
		}
		if err := os.WriteFile(dest, content, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", dest, err)
		}
		logger.Debug("created file", "path", dest)
		res.Created = append(res.Created, rel)
		return nil
	})
	return res, err
}

// Slugify lowercases s and replaces runs of characters outside [a-z0-9]
// with a single '-'. "acme/My Plugin" becomes "acme-my-plugin".
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
