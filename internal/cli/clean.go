package cli

import (
	"fmt"
	"io"
	"path"

	"github.com/spf13/cobra"

	"github.com/roach88/contentpipe/internal/pipeline"
)

// CleanOptions holds flags for the clean command.
type CleanOptions struct {
	*RootOptions
	File string
}

// NewCleanCommand creates the clean command.
func NewCleanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CleanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clean [project]",
		Short: "Remove generated types, outputs and cache entries",
		Long: `Remove the generated types and markers of every build-file, their
output files and their cache entries. With --file only that build-file
is cleaned.

Example:
  contentpipe clean
  contentpipe clean --file effects/lit.fx.cue`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd, args, opts.RootOptions)
			if err != nil {
				return err
			}
			return runClean(cmd, e, opts)
		},
	}

	addProjectFlags(cmd)
	cmd.Flags().StringVar(&opts.File, "file", "", "build-file to clean, relative to the project root")

	return cmd
}

type cleanReport struct {
	Types   []string `json:"types"`
	Outputs []string `json:"outputs"`
}

func runClean(cmd *cobra.Command, e *env, opts *CleanOptions) error {
	file := opts.File
	if file != "" {
		file = path.Clean(file)
	}
	res, err := pipeline.Clean(commandContext(cmd), e.project, file, e.logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "clean failed", err)
	}

	report := cleanReport{Types: res.Types, Outputs: make([]string, 0, len(res.Outputs))}
	for _, o := range res.Outputs {
		report.Outputs = append(report.Outputs, relTo(e.project.Root, o))
	}
	if report.Types == nil {
		report.Types = []string{}
	}
	return e.out.Result(report, func(w io.Writer) error {
		for _, t := range report.Types {
			fmt.Fprintf(w, "removed type   %s\n", t)
		}
		for _, o := range report.Outputs {
			fmt.Fprintf(w, "removed output %s\n", o)
		}
		_, err := fmt.Fprintf(w, "cleaned %d types, %d outputs\n", len(report.Types), len(report.Outputs))
		return err
	})
}
