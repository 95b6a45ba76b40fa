package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/contentpipe/internal/pipeline"
)

// LedgerOptions holds flags for the ledger command.
type LedgerOptions struct {
	*RootOptions
	Purge   bool
	History int
}

// NewLedgerCommand creates the ledger command.
func NewLedgerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LedgerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ledger [project]",
		Short: "Show the generated-type ledger of a project",
		Long: `List the markers of the project's host module grouped by build-file,
with the build id consistency of each file and the fingerprint of each
generated type. Markers whose type is gone are flagged as dangling;
--purge removes them.

Example:
  contentpipe ledger
  contentpipe ledger --purge --history 5`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd, args, opts.RootOptions)
			if err != nil {
				return err
			}
			return runLedger(cmd, e, opts)
		},
	}

	addProjectFlags(cmd)
	cmd.Flags().BoolVar(&opts.Purge, "purge", false, "remove markers whose generated type is missing")
	cmd.Flags().IntVar(&opts.History, "history", 3, "number of recent builds to show (0 for all)")

	return cmd
}

type ledgerReport struct {
	Module string        `json:"module"`
	Files  []ledgerFile  `json:"files"`
	Purged []string      `json:"purged,omitempty"`
	Builds []ledgerBuild `json:"builds,omitempty"`
}

type ledgerFile struct {
	File    string         `json:"file"`
	State   string         `json:"state"`
	BuildID string         `json:"build_id,omitempty"`
	Markers []ledgerMarker `json:"markers"`
}

type ledgerMarker struct {
	Type        string `json:"type"`
	BuildID     string `json:"build_id"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Dangling    bool   `json:"dangling,omitempty"`
}

type ledgerBuild struct {
	ID       string `json:"id"`
	Started  string `json:"started"`
	Assets   int    `json:"assets"`
	Skipped  int    `json:"skipped"`
	Errors   int    `json:"errors"`
	Warnings int    `json:"warnings"`
}

func runLedger(cmd *cobra.Command, e *env, opts *LedgerOptions) error {
	rep, err := pipeline.InspectLedger(commandContext(cmd), e.project, opts.Purge, opts.History, e.logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read ledger", err)
	}

	out := ledgerReport{Module: rep.Module, Files: []ledgerFile{}}
	for _, f := range rep.Files {
		lf := ledgerFile{File: f.BuildFile, State: f.Consistency.State.String(), BuildID: f.Consistency.BuildID}
		for _, m := range f.Markers {
			lf.Markers = append(lf.Markers, ledgerMarker{
				Type:        m.TypeName,
				BuildID:     m.BuildID,
				Fingerprint: m.Fingerprint,
				Dangling:    m.Dangling,
			})
		}
		out.Files = append(out.Files, lf)
	}
	for _, m := range rep.Purged {
		out.Purged = append(out.Purged, m.TypeName)
	}
	for _, b := range rep.Builds {
		out.Builds = append(out.Builds, ledgerBuild{
			ID:       b.ID,
			Started:  b.StartedAt.Format(time.RFC3339),
			Assets:   b.Assets,
			Skipped:  b.Skipped,
			Errors:   b.Errors,
			Warnings: b.Warnings,
		})
	}
	return e.out.Result(out, out.writeText)
}

func (r ledgerReport) writeText(w io.Writer) error {
	fmt.Fprintf(w, "module %s\n", r.Module)
	for _, f := range r.Files {
		fmt.Fprintf(w, "\n%s (%s", f.File, f.State)
		if f.BuildID != "" {
			fmt.Fprintf(w, " %s", f.BuildID)
		}
		fmt.Fprintln(w, ")")
		for _, m := range f.Markers {
			fp := m.Fingerprint
			if len(fp) > 12 {
				fp = fp[:12]
			}
			if m.Dangling {
				fp = "dangling"
			}
			fmt.Fprintf(w, "  %-40s %-38s %s\n", m.Type, m.BuildID, fp)
		}
	}
	for _, p := range r.Purged {
		fmt.Fprintf(w, "purged marker for %s\n", p)
	}
	if len(r.Builds) > 0 {
		fmt.Fprintln(w, "\nrecent builds")
	}
	for _, b := range r.Builds {
		fmt.Fprintf(w, "  %s  %s  %d assets, %d skipped, %d errors, %d warnings\n",
			b.Started, b.ID, b.Assets, b.Skipped, b.Errors, b.Warnings)
	}
	return nil
}
