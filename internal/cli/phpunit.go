package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wpdevtools/devtools/internal/config"
	"github.com/wpdevtools/devtools/internal/logging"
	"github.com/wpdevtools/devtools/internal/node"
	"github.com/wpdevtools/devtools/internal/phpunit"
	"github.com/wpdevtools/devtools/internal/suite"
	"github.com/wpdevtools/devtools/internal/wpenv"
)

var (
	phpunitCoverage string
	phpunitFilter   string
	phpunitKeepDB   bool
	phpunitNoDB     bool
)

var phpunitCmd = &cobra.Command{
	Use:   "phpunit [suite...] [-- phpunit args]",
	Short: "Generate phpunit.xml and run PHPUnit",
	Long: `Discover PHPUnit suites, generate phpunit.xml in the build directory from
the defaults merged with extra.dev-tools.phpunit, create the test database,
run PHPUnit and drop the database again.

Suites are the directories directly below [suites] phpunit_dir. Arguments
after "--" are passed to phpunit unchanged.`,
	Example: `  devtools phpunit
  devtools phpunit unit --filter test_saves_meta
  devtools phpunit --coverage=html
  devtools phpunit integration -- --stop-on-failure`,
	RunE: runPHPUnit,
}

func init() {
	phpunitCmd.Flags().StringVar(&phpunitCoverage, "coverage", "", "Coverage report: text, html or clover")
	phpunitCmd.Flags().Lookup("coverage").NoOptDefVal = string(phpunit.CoverageHTML)
	phpunitCmd.Flags().StringVar(&phpunitFilter, "filter", "", "Only run tests matching this pattern")
	phpunitCmd.Flags().Bool("multisite", false, "Run the WordPress test suite as multisite (env: DEVTOOLS_MULTISITE)")
	phpunitCmd.Flags().String("db-name", "", "Test database name (env: DEVTOOLS_DB_NAME)")
	phpunitCmd.Flags().BoolVar(&phpunitKeepDB, "keep-db", false, "Leave the test database in place after the run")
	phpunitCmd.Flags().BoolVar(&phpunitNoDB, "no-db", false, "Do not create or drop the test database")
	rootCmd.AddCommand(phpunitCmd)
}

// generatePHPUnit discovers suites, merges the configuration and returns
// the tree together with the selected suites.
func generatePHPUnit(p *project, names []string) (node.Node, []suite.Suite, error) {
	cfg := p.Config()
	all, err := suite.DiscoverPHPUnit(os.DirFS(p.Root), cfg.Suites.PHPUnitDir, cfg.Suites.PHPUnitPattern)
	if err != nil {
		return node.Node{}, nil, err
	}
	if len(all) == 0 {
		logging.New("phpunit").Warn("no test files found", "dir", cfg.Suites.PHPUnitDir, "pattern", cfg.Suites.PHPUnitPattern)
	}
	selected, err := suite.Filter(all, names)
	if err != nil {
		return node.Node{}, nil, err
	}

	section, err := p.Manifest.Section("phpunit")
	if err != nil {
		return node.Node{}, nil, err
	}
	// Every suite stays in the file so --testsuite can pick from it.
	return phpunit.Generate(phpunit.Defaults(cfg, p.Root, all), section), selected, nil
}

func runPHPUnit(cmd *cobra.Command, args []string) error {
	names, extra := splitDash(cmd, args)

	switch phpunit.Coverage(phpunitCoverage) {
	case phpunit.CoverageNone, phpunit.CoverageText, phpunit.CoverageHTML, phpunit.CoverageClover:
	default:
		return fmt.Errorf("unknown coverage report %q (want text, html or clover)", phpunitCoverage)
	}

	p, err := loadProject(&config.CLIOverrides{
		Multisite: boolFlag(cmd, "multisite"),
		DBName:    stringFlag(cmd, "db-name"),
	})
	if err != nil {
		return err
	}
	cfg := p.Config()

	tree, selected, err := generatePHPUnit(p, names)
	if err != nil {
		return err
	}
	data, err := phpunit.Marshal(tree)
	if err != nil {
		return err
	}
	file := p.BuildPath(phpunit.FileName)
	if err := writeGenerated(cmd, file, data); err != nil {
		return err
	}

	var suiteNames []string
	if len(names) > 0 {
		suiteNames = suite.Names(selected)
	}
	phpArgs := phpunit.Args(file, phpunit.ArgsOptions{
		Suites:      suiteNames,
		Filter:      phpunitFilter,
		Coverage:    phpunit.Coverage(phpunitCoverage),
		CoverageDir: p.BuildPath("coverage"),
		Extra:       extra,
	})

	r := newRunner(cmd, p.Root)
	session := &wpenv.Session{KeepDB: phpunitKeepDB, DBName: cfg.Database.Name}
	if !phpunitNoDB {
		session.DB = databaseFor(r, cfg)
	}
	return session.Run(cmd.Context(), func(ctx context.Context) error {
		return r.Run(ctx, cfg.Binaries.PHPUnit, phpArgs...)
	})
}

func databaseFor(r wpenv.Commander, cfg *config.Config) *wpenv.Database {
	return &wpenv.Database{
		Cmd:      r,
		Binary:   cfg.Binaries.MySQL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
	}
}
