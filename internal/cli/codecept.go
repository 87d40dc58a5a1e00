package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/wpdevtools/devtools/internal/codecept"
	"github.com/wpdevtools/devtools/internal/config"
	"github.com/wpdevtools/devtools/internal/node"
	"github.com/wpdevtools/devtools/internal/suite"
	"github.com/wpdevtools/devtools/internal/wpenv"
)

var (
	codeceptDebug  bool
	codeceptKeepDB bool
)

var codeceptCmd = &cobra.Command{
	Use:   "codecept [suite [test]] [-- codecept args]",
	Short: "Generate codeception.yml and run Codeception",
	Long: `Discover Codeception suites, generate codeception.yml and .env.testing in
the build directory, then run the suite between the test database and, for
suites using WPWebDriver, the Selenium browser container.

Settings are layered: built-in defaults, each suite's own *.suite.yml, then
extra.dev-tools.codeception (per-suite settings under its "suites" key).
Environment values come from extra.dev-tools.env.`,
	Example: `  devtools codecept
  devtools codecept acceptance
  devtools codecept acceptance LoginCest --no-browser
  devtools codecept wpunit -- --fail-fast`,
	Args: func(cmd *cobra.Command, args []string) error {
		positional, _ := splitDash(cmd, args)
		return cobra.MaximumNArgs(2)(cmd, positional)
	},
	RunE: runCodecept,
}

func init() {
	codeceptCmd.Flags().Bool("no-browser", false, "Do not start the Selenium container (env: DEVTOOLS_BROWSER=false)")
	codeceptCmd.Flags().String("db-name", "", "Test database name (env: DEVTOOLS_DB_NAME)")
	codeceptCmd.Flags().BoolVar(&codeceptDebug, "debug", false, "Run codecept with --debug")
	codeceptCmd.Flags().BoolVar(&codeceptKeepDB, "keep-db", false, "Leave the test database in place after the run")
	rootCmd.AddCommand(codeceptCmd)
}

// generateCodecept builds the codeception.yml and .env.testing trees.
func generateCodecept(p *project, only string) (tree, env node.Node, err error) {
	cfg := p.Config()
	fsys := os.DirFS(p.Root)

	all, err := suite.DiscoverCodeception(fsys, cfg.Suites.CodeceptionDir, cfg.Suites.CodeceptionPattern)
	if err != nil {
		return node.Node{}, node.Node{}, err
	}
	selected := all
	if only != "" {
		if selected, err = suite.Filter(all, []string{only}); err != nil {
			return node.Node{}, node.Node{}, err
		}
	}

	files := make(map[string]node.Node, len(selected))
	for _, s := range selected {
		n, err := codecept.ReadSuiteFile(fsys, s)
		if err != nil {
			return node.Node{}, node.Node{}, err
		}
		files[s.Name] = n
	}

	section, err := p.Manifest.Section("codeception")
	if err != nil {
		return node.Node{}, node.Node{}, err
	}
	tree, err = codecept.Build(cfg, p.Root, selected, files, section)
	if err != nil {
		return node.Node{}, node.Node{}, err
	}

	envSection, err := p.Manifest.Section("env")
	if err != nil {
		return node.Node{}, node.Node{}, err
	}
	env = node.Merge(codecept.EnvDefaults(cfg, p.Root), envSection)
	return tree, env, nil
}

func runCodecept(cmd *cobra.Command, args []string) error {
	positional, extra := splitDash(cmd, args)
	var suiteName, test string
	if len(positional) > 0 {
		suiteName = positional[0]
	}
	if len(positional) > 1 {
		test = positional[1]
	}

	p, err := loadProject(&config.CLIOverrides{
		DBName:    stringFlag(cmd, "db-name"),
		NoBrowser: boolFlag(cmd, "no-browser"),
	})
	if err != nil {
		return err
	}
	cfg := p.Config()

	tree, env, err := generateCodecept(p, suiteName)
	if err != nil {
		return err
	}
	envData, err := codecept.EnvFile(env)
	if err != nil {
		return err
	}
	if err := writeGenerated(cmd, p.BuildPath(codecept.EnvFileName), envData); err != nil {
		return err
	}
	data, err := codecept.Marshal(tree)
	if err != nil {
		return err
	}
	file := p.BuildPath(codecept.FileName)
	if err := writeGenerated(cmd, file, data); err != nil {
		return err
	}

	r := newRunner(cmd, p.Root)
	session := &wpenv.Session{
		DB:     databaseFor(r, cfg),
		DBName: cfg.Database.Name,
		KeepDB: codeceptKeepDB,
		Cache:  &wpenv.Cache{Cmd: r, WP: cfg.Binaries.WP},
	}
	if cfg.Browser.Enabled && codecept.NeedsBrowser(tree) {
		session.Browser = &wpenv.Browser{
			Cmd:       r,
			Docker:    cfg.Binaries.Docker,
			Image:     cfg.Browser.Image,
			Container: cfg.Browser.Container,
			Port:      cfg.Browser.Port,
		}
	}

	codeArgs := codecept.Args(file, codecept.ArgsOptions{
		Suite: suiteName,
		Test:  test,
		Debug: codeceptDebug,
		Extra: extra,
	})
	return session.Run(cmd.Context(), func(ctx context.Context) error {
		return r.Run(ctx, cfg.Binaries.Codecept, codeArgs...)
	})
}
