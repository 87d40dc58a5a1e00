// Command gen-completions writes the devtools completion scripts that are
// bundled into release archives, one file per shell in the layout each
// shell expects:
//
//	devtools.bash  bash-completion (sourced or dropped into bash_completion.d)
//	_devtools      zsh, placed on $fpath
//	devtools.fish  fish, placed in ~/.config/fish/completions
//	devtools.ps1   PowerShell, dot-sourced from the profile
//
// Usage:
//
//	go run ./scripts/gen-completions [output-dir]
//
// The default output directory is "completions".
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wpdevtools/devtools/internal/cli"
)

var fileNames = map[string]string{
	"bash":       "devtools.bash",
	"zsh":        "_devtools",
	"fish":       "devtools.fish",
	"powershell": "devtools.ps1",
}

func main() {
	outDir := "completions"
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}
	if err := run(outDir); err != nil {
		fmt.Fprintf(os.Stderr, "gen-completions: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("All completions written to %s/\n", outDir)
}

func run(outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir %q: %w", outDir, err)
	}
	for _, shell := range cli.Shells {
		path := filepath.Join(outDir, fileNames[shell])
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := cli.GenCompletion(f, shell); err != nil {
			f.Close()
			return fmt.Errorf("generating %s completion: %w", shell, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("Generated %s\n", path)
	}
	return nil
}
