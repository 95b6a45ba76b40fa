package cli

import (
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/roach88/contentpipe/internal/config"
	"github.com/roach88/contentpipe/internal/logging"
	"github.com/roach88/contentpipe/internal/project"
)

// env is what every project command starts from.
type env struct {
	cfg     *config.Config
	project *project.Project
	logger  *log.Logger
	out     *OutputFormatter
}

// addProjectFlags defines the flags that override project settings.
func addProjectFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "output directory (overrides the manifest)")
	cmd.Flags().String("intermediate", "", "intermediate directory (overrides the manifest)")
	cmd.Flags().String("namespace", "", "namespace of generated types (overrides the manifest)")
}

// loadEnv layers the configuration for cmd, loads the project it names
// and builds the logger. Failures are command errors.
func loadEnv(cmd *cobra.Command, args []string, opts *RootOptions) (*env, error) {
	loader := config.NewLoader()
	loader.ConfigFile = opts.ConfigFile
	cfg, err := loader.LoadForCommand(cmd, args)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	logger, err := logging.NewFromString(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	p, err := cfg.LoadProject()
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			return nil, WrapExitError(ExitCommandError, "project not found", err)
		case errors.Is(err, project.ErrNoAssets):
			return nil, WrapExitError(ExitCommandError, "project has no assets", err)
		}
		return nil, WrapExitError(ExitCommandError, "failed to load project", err)
	}
	logger.Debug("project loaded", "name", p.Name, "root", p.Root, "assets", len(p.Assets))

	return &env{
		cfg:     cfg,
		project: p,
		logger:  logger,
		out:     &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()},
	}, nil
}
