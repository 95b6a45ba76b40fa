package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	LogLevel   string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the contentpipe CLI.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRoot()
	return cmd
}

// Execute runs the CLI with args and returns the process exit code.
// Failures go to stderr, or to stdout as an error envelope when the
// format is json.
func Execute(args []string, stdout, stderr io.Writer) int {
	cmd, opts := newRoot()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}
	var ee *ExitError
	if opts.Format == "json" && !(errors.As(err, &ee) && ee.Reported) {
		out := &OutputFormatter{Format: opts.Format, Writer: stdout}
		if out.ReportError(err) == nil {
			return GetExitCode(err)
		}
	}
	fmt.Fprintln(stderr, "contentpipe:", err)
	return GetExitCode(err)
}

func newRoot() (*cobra.Command, *RootOptions) {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "contentpipe",
		Short: "contentpipe - content build pipeline",
		Long: `Build game content into binary content files.

Effect descriptions are compiled, their shaders reflected and a typed
effect class is generated into the project's host module for each one.
Generated types are tracked per build-file so that incremental builds
replace exactly what changed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (skips global and local discovery)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewCleanCommand(opts))
	cmd.AddCommand(NewLedgerCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd, opts
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
