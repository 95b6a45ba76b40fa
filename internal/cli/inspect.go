package cli

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/contentpipe/internal/content"
	"github.com/roach88/contentpipe/internal/effect"
	"github.com/roach88/contentpipe/internal/ir"
	"github.com/roach88/contentpipe/internal/pipeline"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Source  bool
	Project string
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <file.ecf>",
		Short: "Decode a content file",
		Long: `Decode a content file and print its root record.

With --source the type generated for the content is looked up in the
project's host module and printed as a listing.

Example:
  contentpipe inspect bin/effects/lit.ecf
  contentpipe inspect bin/effects/lit.ecf --source --project .`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Source, "source", false, "print the generated type listing")
	cmd.Flags().StringVar(&opts.Project, "project", ".", "project whose host module holds the generated type")

	return cmd
}

type inspectReport struct {
	File    string `json:"file"`
	Tag     string `json:"tag"`
	Version uint32 `json:"version"`
	Value   any    `json:"value"`
	Source  string `json:"source,omitempty"`
}

func runInspect(cmd *cobra.Command, file string, opts *InspectOptions) error {
	reg, err := content.NewStandardRegistry()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up content registry", err)
	}
	rec, err := content.Load(file, reg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read content file", err)
	}

	rep := inspectReport{File: file, Tag: rec.Tag, Version: rec.Version, Value: rec.Value}
	if opts.Source {
		c, ok := rec.Value.(*effect.Content)
		if !ok || c.GeneratedType == "" {
			return NewExitError(ExitFailure, "content has no generated type")
		}
		e, err := loadEnv(cmd, []string{opts.Project}, opts.RootOptions)
		if err != nil {
			return err
		}
		mod, err := pipeline.OpenModule(commandContext(cmd), e.project)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open host module", err)
		}
		t := mod.Type(c.GeneratedType)
		if t == nil {
			return NewExitError(ExitFailure, fmt.Sprintf("generated type %s is not in the host module", c.GeneratedType))
		}
		var buf bytes.Buffer
		if err := ir.WriteListing(&buf, t); err != nil {
			return WrapExitError(ExitFailure, "failed to render listing", err)
		}
		rep.Source = buf.String()
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Result(rep, rep.writeText)
}

func (r inspectReport) writeText(w io.Writer) error {
	fmt.Fprintf(w, "%s: %s v%d\n", r.File, r.Tag, r.Version)
	if c, ok := r.Value.(*effect.Content); ok {
		writeEffect(w, c)
	} else {
		fmt.Fprintf(w, "%+v\n", r.Value)
	}
	if r.Source != "" {
		fmt.Fprintln(w)
		_, err := io.WriteString(w, r.Source)
		return err
	}
	return nil
}

func writeEffect(w io.Writer, c *effect.Content) {
	fmt.Fprintf(w, "effect %s", c.Name)
	if c.GeneratedType != "" {
		fmt.Fprintf(w, " (%s)", c.GeneratedType)
	}
	fmt.Fprintln(w)
	for _, tech := range c.Techniques {
		fmt.Fprintf(w, "  technique %s\n", tech.Name)
		for _, pass := range tech.Passes {
			fmt.Fprintf(w, "    pass %s\n", pass.Name)
			for _, sh := range pass.Shaders {
				fmt.Fprintf(w, "      %-15s %s\n", sh.Stage, sh.File)
			}
			for _, p := range pass.Parameters {
				writeParameter(w, p, 6)
			}
		}
	}
}

func writeParameter(w io.Writer, p effect.Parameter, indent int) {
	pad := strings.Repeat(" ", indent)
	switch p.Kind {
	case effect.KindArray:
		fmt.Fprintf(w, "%s@%-3d %s %s[%d]\n", pad, p.Location, p.Type, p.Name, p.Length)
	case effect.KindStruct:
		fmt.Fprintf(w, "%s@%-3d struct %s\n", pad, p.Location, p.Name)
		for _, f := range p.Fields {
			writeParameter(w, f, indent+2)
		}
	default:
		fmt.Fprintf(w, "%s@%-3d %s %s\n", pad, p.Location, p.Type, p.Name)
	}
}
