package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/contentpipe/internal/pipeline"
	"github.com/roach88/contentpipe/internal/project"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	BuildID string

	// BuildIDs overrides the build id generator (for testing).
	BuildIDs pipeline.BuildIDGenerator
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build [project]",
		Short: "Build every asset of a content project",
		Long: `Build every asset of a content project.

The project is a content.yaml manifest or the directory holding it.
Unchanged assets are skipped unless --rebuild is given. The command
exits with 1 when any asset failed.

Example:
  contentpipe build
  contentpipe build ./game --rebuild
  contentpipe build --format json --build-id ci-1234`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd, args, opts.RootOptions)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBuild(ctx, e, opts)
		},
	}

	addProjectFlags(cmd)
	cmd.Flags().Bool("rebuild", false, "ignore the asset cache and rebuild everything")
	cmd.Flags().StringVar(&opts.BuildID, "build-id", "", "build id to stamp generated types with (default: a new UUIDv7)")

	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// buildOptions turns the command settings into builder options.
func buildOptions(e *env, opts *BuildOptions) []pipeline.Option {
	bo := []pipeline.Option{pipeline.WithLogger(e.logger)}
	if opts.BuildID != "" {
		bo = append(bo, pipeline.WithBuildID(opts.BuildID))
	}
	if opts.BuildIDs != nil {
		bo = append(bo, pipeline.WithBuildIDs(opts.BuildIDs))
	}
	if e.cfg.NoCache {
		bo = append(bo, pipeline.WithoutCache())
	}
	return bo
}

func runBuild(ctx context.Context, e *env, opts *BuildOptions) error {
	b, err := pipeline.New(buildOptions(e, opts)...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up pipeline", err)
	}
	res, err := b.Build(ctx, e.project)
	if res == nil {
		return WrapExitError(ExitCommandError, "build failed", err)
	}

	report := newBuildReport(e.project, res)
	if outErr := e.out.Result(report, report.writeText); outErr != nil {
		return outErr
	}
	if err != nil {
		return reported(WrapExitError(ExitFailure, "build interrupted", err))
	}
	if res.Failed() {
		return reported(NewExitError(ExitFailure, fmt.Sprintf("%d of %d assets failed", res.Count(pipeline.StatusFailed), len(res.Assets))))
	}
	return nil
}

// buildReport is the output form of a build result.
type buildReport struct {
	BuildID  string          `json:"build_id"`
	Elapsed  string          `json:"elapsed"`
	Assets   []assetReport   `json:"assets"`
	Retired  []string        `json:"retired,omitempty"`
	Purged   []string        `json:"purged,omitempty"`
	Messages []messageReport `json:"messages,omitempty"`
	Summary  map[string]int  `json:"summary"`
}

type assetReport struct {
	File    string   `json:"file"`
	Status  string   `json:"status"`
	Output  string   `json:"output,omitempty"`
	Types   []string `json:"types,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

type messageReport struct {
	File     string `json:"file,omitempty"`
	Severity string `json:"severity"`
	Text     string `json:"text"`
}

func newBuildReport(p *project.Project, res *pipeline.Result) *buildReport {
	r := &buildReport{
		BuildID: res.BuildID,
		Elapsed: res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond).String(),
		Retired: res.Retired,
		Summary: map[string]int{},
	}
	for _, a := range res.Assets {
		ar := assetReport{File: a.BuildFile, Status: string(a.Status), Types: a.Types, Removed: a.Removed}
		if a.Output != "" {
			ar.Output = relTo(p.Root, a.Output)
		}
		r.Assets = append(r.Assets, ar)
		r.Summary[string(a.Status)]++
	}
	for _, m := range res.Purged {
		r.Purged = append(r.Purged, m.TypeName)
	}
	for _, m := range res.Messages {
		r.Messages = append(r.Messages, messageReport{File: m.File, Severity: m.Severity.String(), Text: m.Text})
	}
	return r
}

func (r *buildReport) writeText(w io.Writer) error {
	for _, a := range r.Assets {
		fmt.Fprintf(w, "%-8s %s", a.Status, a.File)
		if a.Output != "" {
			fmt.Fprintf(w, " -> %s", a.Output)
		}
		fmt.Fprintln(w)
		for _, t := range a.Removed {
			fmt.Fprintf(w, "         removed %s\n", t)
		}
	}
	for _, t := range r.Retired {
		fmt.Fprintf(w, "retired  %s\n", t)
	}
	for _, m := range r.Messages {
		if m.File != "" {
			fmt.Fprintf(w, "%s: %s: %s\n", m.File, m.Severity, m.Text)
		} else {
			fmt.Fprintf(w, "%s: %s\n", m.Severity, m.Text)
		}
	}
	_, err := fmt.Fprintf(w, "build %s: %d built, %d skipped, %d failed in %s\n",
		r.BuildID, r.Summary["built"], r.Summary["skipped"], r.Summary["failed"], r.Elapsed)
	return err
}

// relTo shortens path for display when it lies below root.
func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
