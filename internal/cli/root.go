// Package cli implements the devtools command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/wpdevtools/devtools/internal/logging"
	"github.com/wpdevtools/devtools/internal/runner"
)

// Global flag values accessible to all subcommands.
var (
	flagVerbose bool
	flagQuiet   bool
	flagConfig  string
	flagDir     string
	flagDryRun  bool
	flagNoColor bool
)

var rootCmd = &cobra.Command{
	Use:   "devtools",
	Short: "Test and docs tooling for WordPress projects",
	Long: `devtools generates PHPUnit and Codeception configuration for a WordPress
plugin or theme from built-in defaults merged with the extra.dev-tools section
of composer.json, then runs the test runners, the test database, the Selenium
browser container and wp-env around them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("verbose") && os.Getenv("DEVTOOLS_VERBOSE") != "" {
			flagVerbose = true
		}
		if !cmd.Flags().Changed("quiet") && os.Getenv("DEVTOOLS_QUIET") != "" {
			flagQuiet = true
		}
		if !cmd.Flags().Changed("dry-run") && os.Getenv("DEVTOOLS_DRY_RUN") != "" {
			flagDryRun = true
		}
		if !cmd.Flags().Changed("no-color") && (os.Getenv("NO_COLOR") != "" || os.Getenv("DEVTOOLS_NO_COLOR") != "") {
			flagNoColor = true
		}

		format, err := logging.ParseFormat(os.Getenv("DEVTOOLS_LOG_FORMAT"))
		if err != nil {
			return err
		}
		logging.Setup(flagVerbose, flagQuiet, format)

		if flagNoColor {
			lipgloss.SetColorProfile(termenv.Ascii)
		}

		if flagDir != "" {
			if err := os.Chdir(flagDir); err != nil {
				return fmt.Errorf("changing directory to %s: %w", flagDir, err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose (debug) output (env: DEVTOOLS_VERBOSE)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress all output except errors (env: DEVTOOLS_QUIET)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to devtools.toml")
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "Run as if started in this directory")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "Print commands and generated files instead of running them (env: DEVTOOLS_DRY_RUN)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output (env: DEVTOOLS_NO_COLOR, NO_COLOR)")
}

// NewRootCmd returns the root command for doc and completion generators.
func NewRootCmd() *cobra.Command {
	return rootCmd
}

// Execute runs the root command and returns the process exit code. When a
// test runner or other tool fails, its exit code is returned unchanged.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx)
}

func execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(rootCmd.ErrOrStderr(), styleErrorLbl.Render("interrupted"))
		return 130
	}
	fmt.Fprintln(rootCmd.ErrOrStderr(), styleErrorLbl.Render("error:"), err)
	return runner.ExitCode(err)
}
