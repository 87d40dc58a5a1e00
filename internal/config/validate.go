package config

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
)

// ValidationSeverity distinguishes fatal issues from advisories.
type ValidationSeverity string

const (
	SeverityError   ValidationSeverity = "error"
	SeverityWarning ValidationSeverity = "warning"
)

// ValidationIssue is a single finding against a dotted key.
type ValidationIssue struct {
	Severity ValidationSeverity
	Field    string
	Message  string
}

// ValidationResult holds all findings.
type ValidationResult struct {
	Issues []ValidationIssue
}

// HasErrors reports whether any issue is an error.
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors()) > 0
}

// Errors returns the error-severity issues.
func (vr *ValidationResult) Errors() []ValidationIssue {
	return vr.filter(SeverityError)
}

// Warnings returns the warning-severity issues.
func (vr *ValidationResult) Warnings() []ValidationIssue {
	return vr.filter(SeverityWarning)
}

func (vr *ValidationResult) filter(sev ValidationSeverity) []ValidationIssue {
	var out []ValidationIssue
	for _, issue := range vr.Issues {
		if issue.Severity == sev {
			out = append(out, issue)
		}
	}
	return out
}

// identRe matches names that are safe to splice into SQL and container
// names without quoting.
var identRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

var containerRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// Validate checks cfg and reports unknown keys from md (nil when no file
// was loaded).
func Validate(cfg *Config, md *toml.MetaData) *ValidationResult {
	vr := &ValidationResult{}
	if cfg == nil {
		vr.add(SeverityError, "", "configuration is nil")
		return vr
	}

	validateBinaries(vr, &cfg.Binaries)
	validateDatabase(vr, &cfg.Database)
	validateBrowser(vr, &cfg.Browser)
	validateSuites(vr, &cfg.Suites)
	validateDocs(vr, &cfg.Docs)

	if strings.TrimSpace(cfg.Project.BuildDir) == "" {
		vr.add(SeverityError, "project.build_dir", "must not be empty")
	}
	if md != nil {
		undecoded := md.Undecoded()
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		for _, k := range keys {
			vr.add(SeverityWarning, k, "unknown configuration key")
		}
	}
	return vr
}

func validateBinaries(vr *ValidationResult, b *BinariesConfig) {
	bins := []struct {
		key, val string
	}{
		{"binaries.phpunit", b.PHPUnit},
		{"binaries.codecept", b.Codecept},
		{"binaries.docker", b.Docker},
		{"binaries.mysql", b.MySQL},
		{"binaries.wp", b.WP},
		{"binaries.wp_env", b.WPEnv},
	}
	for _, bin := range bins {
		if len(strings.Fields(bin.val)) == 0 {
			vr.add(SeverityError, bin.key, "must not be empty")
		}
	}
	// An empty linter disables it in "lint docs".
	if strings.TrimSpace(b.Vale) == "" {
		vr.add(SeverityWarning, "binaries.vale", "empty, vale is skipped")
	}
	if strings.TrimSpace(b.Markdownlint) == "" {
		vr.add(SeverityWarning, "binaries.markdownlint", "empty, markdownlint-cli2 is skipped")
	}
}

func validateDatabase(vr *ValidationResult, d *DatabaseConfig) {
	if d.Host == "" {
		vr.add(SeverityError, "database.host", "must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		vr.add(SeverityError, "database.port", fmt.Sprintf("port %d out of range 1-65535", d.Port))
	}
	if !identRe.MatchString(d.Name) {
		vr.add(SeverityError, "database.name", fmt.Sprintf("%q must contain only letters, digits and underscores", d.Name))
	}
	if d.TablePrefix != "" && !identRe.MatchString(d.TablePrefix) {
		vr.add(SeverityError, "database.table_prefix", fmt.Sprintf("%q must contain only letters, digits and underscores", d.TablePrefix))
	}
	if d.User == "root" && d.Password == "" {
		vr.add(SeverityWarning, "database.password", "root user without a password")
	}
}

func validateBrowser(vr *ValidationResult, b *BrowserConfig) {
	if !b.Enabled {
		return
	}
	if b.Image == "" {
		vr.add(SeverityError, "browser.image", "must not be empty when the browser is enabled")
	}
	if !containerRe.MatchString(b.Container) {
		vr.add(SeverityError, "browser.container", fmt.Sprintf("invalid container name %q", b.Container))
	}
	if b.Port < 1 || b.Port > 65535 {
		vr.add(SeverityError, "browser.port", fmt.Sprintf("port %d out of range 1-65535", b.Port))
	}
}

func validateSuites(vr *ValidationResult, s *SuitesConfig) {
	if !doublestar.ValidatePattern(s.PHPUnitPattern) {
		vr.add(SeverityError, "suites.phpunit_pattern", fmt.Sprintf("invalid glob %q", s.PHPUnitPattern))
	}
	if !doublestar.ValidatePattern(s.CodeceptionPattern) {
		vr.add(SeverityError, "suites.codeception_pattern", fmt.Sprintf("invalid glob %q", s.CodeceptionPattern))
	}
}

func validateDocs(vr *ValidationResult, d *DocsConfig) {
	if len(d.Paths) == 0 {
		vr.add(SeverityWarning, "docs.paths", "no documentation paths configured")
	}
	for i, p := range d.Paths {
		if !doublestar.ValidatePattern(p) {
			vr.add(SeverityError, fmt.Sprintf("docs.paths[%d]", i), fmt.Sprintf("invalid glob %q", p))
		}
	}
	for i, p := range d.Exclude {
		if !doublestar.ValidatePattern(p) {
			vr.add(SeverityError, fmt.Sprintf("docs.exclude[%d]", i), fmt.Sprintf("invalid glob %q", p))
		}
	}
}

func (vr *ValidationResult) add(sev ValidationSeverity, field, msg string) {
	vr.Issues = append(vr.Issues, ValidationIssue{Severity: sev, Field: field, Message: msg})
}
