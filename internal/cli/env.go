package cli

import (
	"github.com/spf13/cobra"

	"github.com/wpdevtools/devtools/internal/wpenv"
)

var envStartUpdate bool

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage the wp-env development environment",
	Long:  "Start, stop, reset and run commands in the @wordpress/env environment.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var envStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the environment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := newWPEnv(cmd)
		if err != nil {
			return err
		}
		return w.Start(cmd.Context(), envStartUpdate)
	},
}

var envStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the environment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := newWPEnv(cmd)
		if err != nil {
			return err
		}
		return w.Stop(cmd.Context())
	},
}

var envCleanCmd = &cobra.Command{
	Use:       "clean [all|development|tests]",
	Short:     "Reset an environment's database (default: tests)",
	ValidArgs: []string{"all", "development", "tests"},
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := newWPEnv(cmd)
		if err != nil {
			return err
		}
		target := ""
		if len(args) == 1 {
			target = args[0]
		}
		return w.Clean(cmd.Context(), target)
	},
}

var envRunCmd = &cobra.Command{
	Use:   "run <container> -- <command...>",
	Short: "Run a command in an environment container",
	Example: `  devtools env run cli -- wp plugin list
  devtools env run tests-cli -- wp cache flush`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := newWPEnv(cmd)
		if err != nil {
			return err
		}
		positional, rest := splitDash(cmd, args)
		if len(positional) == 0 {
			return cmd.Usage()
		}
		return w.Run(cmd.Context(), positional[0], append(positional[1:], rest...)...)
	},
}

func init() {
	envStartCmd.Flags().BoolVar(&envStartUpdate, "update", false, "Download WordPress and plugin sources again")
	envCmd.AddCommand(envStartCmd, envStopCmd, envCleanCmd, envRunCmd)
	rootCmd.AddCommand(envCmd)
}

func newWPEnv(cmd *cobra.Command) (*wpenv.WPEnv, error) {
	p, err := loadProject(nil)
	if err != nil {
		return nil, err
	}
	return &wpenv.WPEnv{Cmd: newRunner(cmd, p.Root), Binary: p.Config().Binaries.WPEnv}, nil
}
