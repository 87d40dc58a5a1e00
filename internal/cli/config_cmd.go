package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wpdevtools/devtools/internal/codecept"
	"github.com/wpdevtools/devtools/internal/config"
	"github.com/wpdevtools/devtools/internal/genfile"
	"github.com/wpdevtools/devtools/internal/phpunit"
)

// configCmd groups the show, debug and validate subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect devtools settings and generated configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// configShowCmd prints a generated file without writing it or running
// anything.
var configShowCmd = &cobra.Command{
	Use:       "show [phpunit|codeception|env]",
	Short:     "Print the generated configuration",
	Long:      "Print the merged phpunit.xml, codeception.yml or .env.testing to stdout.",
	ValidArgs: []string{"phpunit", "codeception", "env"},
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		which := "phpunit"
		if len(args) == 1 {
			which = args[0]
		}
		p, err := loadProject(nil)
		if err != nil {
			return err
		}

		var data []byte
		switch which {
		case "phpunit":
			tree, _, err := generatePHPUnit(p, nil)
			if err != nil {
				return err
			}
			data, err = phpunit.Marshal(tree)
			if err != nil {
				return err
			}
		default:
			tree, env, err := generateCodecept(p, "")
			if err != nil {
				return err
			}
			if which == "env" {
				data, err = codecept.EnvFile(env)
			} else {
				data, err = codecept.Marshal(tree)
			}
			if err != nil {
				return err
			}
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

// configDebugCmd prints the resolved devtools.toml settings with the
// source of each value.
var configDebugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Show resolved settings with source annotations",
	Long: `Display every devtools setting and where its value came from: a CLI flag,
a DEVTOOLS_* environment variable, devtools.toml, or the built-in default.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(nil)
		if err != nil {
			return err
		}
		printResolvedConfig(cmd, p)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate settings and report issues",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resolved, meta, err := loadAndResolveConfig(nil)
		if err != nil {
			return err
		}
		result := config.Validate(resolved.Config, meta)
		printValidationResult(cmd, result)
		if result.HasErrors() {
			return fmt.Errorf("configuration has %d error(s)", len(result.Errors()))
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configDebugCmd, configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func sourceStyle(src config.ConfigSource) lipgloss.Style {
	switch src {
	case config.SourceFile:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	case config.SourceEnv:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	case config.SourceCLI:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	}
}

var (
	styleHeader   = lipgloss.NewStyle().Bold(true)
	styleSection  = lipgloss.NewStyle().Bold(true)
	styleErrorLbl = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleWarnLbl  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	styleSuccess  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

const fieldWidth = 20

type field struct {
	name  string
	value string
}

func printResolvedConfig(cmd *cobra.Command, p *project) {
	out := cmd.OutOrStdout()
	rc := p.Resolved
	c := rc.Config

	fmt.Fprintln(out, styleHeader.Render("Configuration Debug"))
	fmt.Fprintln(out, strings.Repeat("=", len("Configuration Debug")))
	fmt.Fprintln(out)
	if rc.Path != "" {
		fmt.Fprintf(out, "Config file: %s\n", rc.Path)
	} else {
		fmt.Fprintln(out, "Config file: none found")
	}
	if p.Manifest != nil {
		fmt.Fprintf(out, "Manifest:    %s\n", p.Manifest.Path)
	} else {
		fmt.Fprintln(out, "Manifest:    none found")
	}
	fmt.Fprintln(out)

	sections := []struct {
		name   string
		fields []field
	}{
		{"project", []field{
			{"name", fmtStr(c.Project.Name)},
			{"manifest", fmtStr(c.Project.Manifest)},
			{"build_dir", fmtStr(c.Project.BuildDir)},
			{"wp_tests_dir", fmtStr(c.Project.WPTestsDir)},
			{"multisite", strconv.FormatBool(c.Project.Multisite)},
		}},
		{"binaries", []field{
			{"phpunit", fmtStr(c.Binaries.PHPUnit)},
			{"codecept", fmtStr(c.Binaries.Codecept)},
			{"docker", fmtStr(c.Binaries.Docker)},
			{"mysql", fmtStr(c.Binaries.MySQL)},
			{"wp", fmtStr(c.Binaries.WP)},
			{"wp_env", fmtStr(c.Binaries.WPEnv)},
			{"vale", fmtStr(c.Binaries.Vale)},
			{"markdownlint", fmtStr(c.Binaries.Markdownlint)},
		}},
		{"database", []field{
			{"host", fmtStr(c.Database.Host)},
			{"port", strconv.Itoa(c.Database.Port)},
			{"user", fmtStr(c.Database.User)},
			{"password", fmtSecret(c.Database.Password)},
			{"name", fmtStr(c.Database.Name)},
			{"table_prefix", fmtStr(c.Database.TablePrefix)},
		}},
		{"browser", []field{
			{"enabled", strconv.FormatBool(c.Browser.Enabled)},
			{"image", fmtStr(c.Browser.Image)},
			{"container", fmtStr(c.Browser.Container)},
			{"port", strconv.Itoa(c.Browser.Port)},
		}},
		{"suites", []field{
			{"phpunit_dir", fmtStr(c.Suites.PHPUnitDir)},
			{"phpunit_pattern", fmtStr(c.Suites.PHPUnitPattern)},
			{"codeception_dir", fmtStr(c.Suites.CodeceptionDir)},
			{"codeception_pattern", fmtStr(c.Suites.CodeceptionPattern)},
		}},
		{"docs", []field{
			{"paths", fmtSlice(c.Docs.Paths)},
			{"exclude", fmtSlice(c.Docs.Exclude)},
		}},
	}
	for _, s := range sections {
		fmt.Fprintln(out, styleSection.Render("["+s.name+"]"))
		for _, f := range s.fields {
			printField(out, f.name, f.value, rc.Sources[s.name+"."+f.name])
		}
		fmt.Fprintln(out)
	}
	printGenerated(out, p)
}

// printGenerated reports whether each generated file still matches what
// devtools last wrote.
func printGenerated(out io.Writer, p *project) {
	fmt.Fprintln(out, styleSection.Render("[generated]"))
	for _, name := range []string{phpunit.FileName, codecept.FileName, codecept.EnvFileName} {
		state, err := genfile.Check(p.BuildPath(name))
		value := state.String()
		if err != nil {
			value = "error: " + err.Error()
		}
		fmt.Fprintf(out, "  %-*s = %s\n", fieldWidth, name, value)
	}
	fmt.Fprintln(out)
}

func printField(out io.Writer, name, value string, src config.ConfigSource) {
	if src == "" {
		src = config.SourceDefault
	}
	label := sourceStyle(src).Render(fmt.Sprintf("(source: %s)", src))
	fmt.Fprintf(out, "  %-*s = %-40s %s\n", fieldWidth, name, value, label)
}

func fmtStr(s string) string {
	return strconv.Quote(s)
}

func fmtSecret(s string) string {
	if s == "" {
		return `""`
	}
	return `"********"`
}

func fmtSlice(ss []string) string {
	if len(ss) == 0 {
		return "[]"
	}
	quoted := make([]string, len(ss))
	for i, s := range ss {
		quoted[i] = strconv.Quote(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func printValidationResult(cmd *cobra.Command, result *config.ValidationResult) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, styleHeader.Render("Configuration Validation"))
	fmt.Fprintln(out, strings.Repeat("=", len("Configuration Validation")))
	fmt.Fprintln(out)

	errs := result.Errors()
	warns := result.Warnings()
	if len(errs) == 0 && len(warns) == 0 {
		fmt.Fprintln(out, styleSuccess.Render("No issues found."))
		return
	}

	if len(errs) > 0 {
		fmt.Fprintln(out, styleErrorLbl.Render("Errors:"))
		for _, issue := range errs {
			fmt.Fprintf(out, "  [%s] %s\n", issue.Field, issue.Message)
		}
		fmt.Fprintln(out)
	}
	if len(warns) > 0 {
		fmt.Fprintln(out, styleWarnLbl.Render("Warnings:"))
		for _, issue := range warns {
			fmt.Fprintf(out, "  [%s] %s\n", issue.Field, issue.Message)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "%d error(s), %d warning(s)\n", len(errs), len(warns))
}
