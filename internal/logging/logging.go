// Package logging configures the charmbracelet/log default logger for
// devtools and hands out component loggers.
//
// Everything logs to stderr. Stdout belongs to the child processes whose
// output devtools relays, and to machine-readable command output such as
// "config show" and "version --json".
//
// Setup must run before New: charmbracelet/log copies the default logger's
// settings into a child at creation time.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Format selects the log line encoding.
type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatLogfmt Format = "logfmt"
)

// ParseFormat maps a DEVTOOLS_LOG_FORMAT value to a Format. The empty
// string means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatLogfmt:
		return f, nil
	default:
		return FormatText, fmt.Errorf("unknown log format %q (want text, json or logfmt)", s)
	}
}

// Setup configures the default logger. quiet wins over verbose so scripted
// runs stay silent.
func Setup(verbose, quiet bool, format Format) {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	if quiet {
		level = log.ErrorLevel
	}

	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(verbose && !quiet)

	switch format {
	case FormatJSON:
		log.SetFormatter(log.JSONFormatter)
	case FormatLogfmt:
		log.SetFormatter(log.LogfmtFormatter)
	default:
		log.SetFormatter(log.TextFormatter)
	}
}

// New returns a logger prefixed with component, e.g. "phpunit".
func New(component string) *log.Logger {
	return log.WithPrefix(component)
}

// SetOutput redirects the default logger. Tests use it with a buffer.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}
