package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wpdevtools/devtools/internal/buildinfo"
)

var (
	versionJSON  bool
	versionShort bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show devtools version and build information",
	Long: `Print the devtools release together with the commit and date it was built
from. Binaries installed with "go install" report the module version and
VCS revision recorded by the Go toolchain.

Use --short in CI scripts that pin a minimum devtools release and --json
when filing bug reports.`,
	Example: `  devtools version
  devtools version --short
  devtools version --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionJSON && versionShort {
			return fmt.Errorf("--json and --short cannot be combined")
		}
		info := buildinfo.GetInfo()
		out := cmd.OutOrStdout()
		switch {
		case versionJSON:
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		case versionShort:
			fmt.Fprintln(out, info.Version)
		default:
			fmt.Fprintln(out, info.String())
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Output version info as JSON")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
	rootCmd.AddCommand(versionCmd)
}
