package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/wpdevtools/devtools/internal/config"
	"github.com/wpdevtools/devtools/internal/genfile"
	"github.com/wpdevtools/devtools/internal/logging"
	"github.com/wpdevtools/devtools/internal/runner"
)

// project is everything a command needs to know about the directory it
// runs in.
type project struct {
	// Root is the directory holding composer.json, or the working
	// directory when there is none.
	Root     string
	Resolved *config.ResolvedConfig
	Meta     *toml.MetaData
	Manifest *config.Manifest
}

// Config returns the resolved settings.
func (p *project) Config() *config.Config { return p.Resolved.Config }

// BuildPath joins elem onto the absolute build directory.
func (p *project) BuildPath(elem ...string) string {
	dir := p.Config().Project.BuildDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(p.Root, dir)
	}
	return filepath.Join(append([]string{dir}, elem...)...)
}

// loadAndResolveConfig loads devtools.toml (from --config or by walking up
// from the working directory) and layers DEVTOOLS_* variables and cli on
// top.
func loadAndResolveConfig(cli *config.CLIOverrides) (*config.ResolvedConfig, *toml.MetaData, error) {
	cfg := config.NewDefaults()
	var meta *toml.MetaData

	cfgPath := flagConfig
	if cfgPath == "" {
		found, err := config.FindConfigFile(".")
		if err != nil {
			return nil, nil, fmt.Errorf("finding config file: %w", err)
		}
		cfgPath = found
	}
	if cfgPath != "" {
		fc, md, err := config.LoadFromFile(cfgPath)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
		cfg, meta = fc, &md
	}

	envs, err := config.ParseEnv(nil)
	if err != nil {
		return nil, nil, err
	}
	resolved := config.Resolve(cfg, meta, envs, cli)
	resolved.Path = cfgPath
	return resolved, meta, nil
}

// loadProject resolves settings and reads the project manifest. A project
// without composer.json still works with built-in defaults, unless
// [project] manifest names a file explicitly.
func loadProject(cli *config.CLIOverrides) (*project, error) {
	resolved, meta, err := loadAndResolveConfig(cli)
	if err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	p := &project{Root: cwd, Resolved: resolved, Meta: meta}

	manifestPath := resolved.Config.Project.Manifest
	if manifestPath == "" {
		manifestPath, err = config.FindManifest(cwd, config.ManifestFileName)
		if errors.Is(err, config.ErrConfigNotFound) {
			logging.New("config").Debug("no composer.json found, using defaults", "dir", cwd)
			return p, nil
		}
		if err != nil {
			return nil, err
		}
	} else if resolved.Path != "" && !filepath.IsAbs(manifestPath) {
		manifestPath = filepath.Join(filepath.Dir(resolved.Path), manifestPath)
	}

	m, err := config.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	p.Manifest = m
	p.Root = filepath.Dir(manifestPath)
	if !filepath.IsAbs(p.Root) {
		p.Root = filepath.Join(cwd, p.Root)
	}
	return p, nil
}

// newRunner returns a runner rooted at dir that writes to cmd's streams.
func newRunner(cmd *cobra.Command, dir string) *runner.Runner {
	r := runner.New(dir)
	r.Stdout = cmd.OutOrStdout()
	r.Stderr = cmd.ErrOrStderr()
	r.DryRun = flagDryRun
	return r
}

// writeGenerated writes a generated file, or prints it under --dry-run.
func writeGenerated(cmd *cobra.Command, path string, data []byte) error {
	logger := logging.New("generate")
	if flagDryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", path, data)
		return nil
	}
	res, err := genfile.Write(path, data)
	if err != nil {
		return err
	}
	digest := genfile.FormatDigest(res.Digest)
	switch {
	case res.Edited:
		logger.Warn("replaced local edits", "path", path, "digest", digest)
	case res.Changed:
		logger.Info("wrote", "path", path, "digest", digest)
	default:
		logger.Debug("unchanged", "path", path, "digest", digest)
	}
	return nil
}

// boolFlag returns a pointer to the flag's value when it was set on the
// command line, so it can override lower layers.
func boolFlag(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return nil
	}
	return &v
}

func stringFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil
	}
	return &v
}

// splitDash separates positional args from everything after "--".
func splitDash(cmd *cobra.Command, args []string) (positional, passthrough []string) {
	if i := cmd.ArgsLenAtDash(); i >= 0 {
		return args[:i], args[i:]
	}
	return args, nil
}
