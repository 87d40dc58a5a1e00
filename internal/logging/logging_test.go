package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetDefaults restores the global charmbracelet logger after a test.
func resetDefaults(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		log.SetLevel(log.InfoLevel)
		log.SetOutput(os.Stderr)
		log.SetFormatter(log.TextFormatter)
		log.SetReportTimestamp(false)
	})
}

func TestSetup_Levels(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		quiet   bool
		want    log.Level
	}{
		{name: "default", want: log.InfoLevel},
		{name: "verbose", verbose: true, want: log.DebugLevel},
		{name: "quiet", quiet: true, want: log.ErrorLevel},
		{name: "quiet wins", verbose: true, quiet: true, want: log.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetDefaults(t)
			Setup(tt.verbose, tt.quiet, FormatText)
			assert.Equal(t, tt.want, log.GetLevel())
		})
	}
}

func TestSetup_JSONFormat(t *testing.T) {
	resetDefaults(t)

	Setup(false, false, FormatJSON)
	var buf bytes.Buffer
	SetOutput(&buf)

	New("phpunit").Info("generated config", "path", "phpunit.xml")

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry), "output: %s", line)
	assert.Equal(t, "generated config", entry["msg"])
	assert.Equal(t, "phpunit.xml", entry["path"])
	assert.Equal(t, "phpunit", entry["prefix"])
}

func TestNew_PrefixInTextOutput(t *testing.T) {
	resetDefaults(t)

	Setup(true, false, FormatText)
	var buf bytes.Buffer
	SetOutput(&buf)

	New("wpenv").Debug("creating database", "name", "wp_tests")

	out := buf.String()
	assert.Contains(t, out, "wpenv")
	assert.Contains(t, out, "creating database")
	assert.Contains(t, out, "wp_tests")
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "text", want: FormatText},
		{in: "JSON", want: FormatJSON},
		{in: " logfmt ", want: FormatLogfmt},
		{in: "xml", want: FormatText, wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
		} else {
			assert.NoError(t, err, tt.in)
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}
