// Command gen-manpages renders devtools(1) and one page per subcommand
// (devtools-phpunit(1), devtools-codecept(1), ...) with cobra's doc package
// for the release archives. The root page gains an ENVIRONMENT section
// listing every DEVTOOLS_* variable the binary reads.
//
// Usage:
//
//	go run ./scripts/gen-manpages [output-dir]
//
// The default output directory is "man/man1".
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra/doc"

	"github.com/wpdevtools/devtools/internal/buildinfo"
	"github.com/wpdevtools/devtools/internal/cli"
	"github.com/wpdevtools/devtools/internal/config"
)

// globalEnv are read by the root command rather than the settings layer.
var globalEnv = []string{
	"DEVTOOLS_VERBOSE",
	"DEVTOOLS_QUIET",
	"DEVTOOLS_DRY_RUN",
	"DEVTOOLS_NO_COLOR",
	"DEVTOOLS_LOG_FORMAT",
}

func main() {
	outDir := "man/man1"
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output dir %q: %v\n", outDir, err)
		os.Exit(1)
	}

	settings, err := config.EnvVars()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error listing environment variables: %v\n", err)
		os.Exit(1)
	}

	rootCmd := cli.NewRootCmd()
	rootCmd.Long += "\n\nENVIRONMENT\n\n" +
		"Flags fall back to " + strings.Join(globalEnv, ", ") + ".\n\n" +
		"Settings from devtools.toml are overridden by " + strings.Join(settings, ", ") + "."
	rootCmd.DisableAutoGenTag = true

	info := buildinfo.GetInfo()
	header := &doc.GenManHeader{
		Title:   "DEVTOOLS",
		Section: "1",
		Source:  "devtools " + info.Version,
		Manual:  "WordPress Test Tooling",
	}
	// Pin the page date to the build so release archives are reproducible.
	if t, err := time.Parse(time.RFC3339, info.Date); err == nil {
		header.Date = &t
	}

	if err := doc.GenManTree(rootCmd, header, outDir); err != nil {
		fmt.Fprintf(os.Stderr, "error generating man pages: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Man pages generated in %s/\n", outDir)
}
