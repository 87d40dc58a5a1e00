package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/wpdevtools/devtools/internal/scaffold"
)

var (
	scaffoldForce bool
	scaffoldPHP   string
)

// isTerminal is replaced in tests.
var isTerminal = func() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold [template]",
	Short: "Copy boilerplate files into the project",
	Long: `Copy an embedded template into the project root. Existing files are left
alone unless --force is given. Without a template name, devtools asks which
one to use when running in a terminal.`,
	Example: `  devtools scaffold devcontainer
  devtools scaffold docs-lint --force`,
	Args: cobra.MaximumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		names, _ := scaffold.List()
		return names, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runScaffold,
}

func init() {
	scaffoldCmd.Flags().BoolVar(&scaffoldForce, "force", false, "Overwrite existing files")
	scaffoldCmd.Flags().StringVar(&scaffoldPHP, "php", "8.2", "PHP version for the devcontainer image")
	rootCmd.AddCommand(scaffoldCmd)
}

func runScaffold(cmd *cobra.Command, args []string) error {
	names, err := scaffold.List()
	if err != nil {
		return err
	}

	var name string
	switch {
	case len(args) == 1:
		name = args[0]
	case isTerminal():
		if name, err = scaffold.Choose(names); err != nil {
			return err
		}
	default:
		return fmt.Errorf("no template given; available: %s", strings.Join(names, ", "))
	}
	if !scaffold.Exists(name) {
		return fmt.Errorf("%w %q; available: %s", scaffold.ErrUnknownTemplate, name, strings.Join(names, ", "))
	}

	p, err := loadProject(nil)
	if err != nil {
		return err
	}
	cfg := p.Config()

	projectName := cfg.Project.Name
	if projectName == "" && p.Manifest != nil {
		projectName = p.Manifest.Name
	}
	if projectName == "" {
		projectName = filepath.Base(p.Root)
	}
	vars := scaffold.Vars{
		ProjectName:  projectName,
		Slug:         scaffold.Slugify(projectName),
		PHPVersion:   scaffoldPHP,
		DBName:       cfg.Database.Name,
		DBUser:       cfg.Database.User,
		DBPassword:   cfg.Database.Password,
		BrowserImage: cfg.Browser.Image,
		BrowserPort:  cfg.Browser.Port,
	}

	out := cmd.OutOrStdout()
	if flagDryRun {
		fmt.Fprintf(out, "would render template %s into %s\n", name, p.Root)
		return nil
	}
	res, err := scaffold.Render(name, p.Root, vars, scaffoldForce)
	if err != nil {
		return err
	}
	for _, f := range res.Created {
		fmt.Fprintf(out, "%s %s\n", styleSuccess.Render("created"), f)
	}
	for _, f := range res.Skipped {
		fmt.Fprintf(out, "%s %s (exists, use --force to overwrite)\n", styleWarnLbl.Render("skipped"), f)
	}
	return nil
}
