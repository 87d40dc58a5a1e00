package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wpdevtools/devtools/internal/lint"
)

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Run linters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var lintDocsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Lint markdown with vale and markdownlint-cli2",
	Long: `Lint the markdown files matched by [docs] paths, minus [docs] exclude, with
vale and markdownlint-cli2 in parallel. Set a linter's binary to "" in
devtools.toml to skip it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(nil)
		if err != nil {
			return err
		}
		cfg := p.Config()
		return lint.Docs(cmd.Context(), lint.Options{
			FS:           os.DirFS(p.Root),
			Paths:        cfg.Docs.Paths,
			Exclude:      cfg.Docs.Exclude,
			Vale:         cfg.Binaries.Vale,
			Markdownlint: cfg.Binaries.Markdownlint,
			Runner:       newRunner(cmd, p.Root),
			Out:          cmd.OutOrStdout(),
		})
	},
}

func init() {
	lintCmd.AddCommand(lintDocsCmd)
	rootCmd.AddCommand(lintCmd)
}
