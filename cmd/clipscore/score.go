package main

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/okian/clipscore/internal/domain/schema"
	"github.com/okian/clipscore/internal/report"
)

type scoreOptions struct {
	format  string
	pretty  bool
	color   bool
	explain bool
}

func addScoreFlags(cmd *cobra.Command, opts *scoreOptions) {
	cmd.Flags().StringVar(&opts.format, "format", string(report.JSON), "output format: json, yaml or text")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent JSON output")
	cmd.Flags().BoolVar(&opts.color, "color", false, "colorize text output")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "emit the per-dimension rule trail with json or yaml output")
}

func (c *cli) scoreCmd() *cobra.Command {
	var opts scoreOptions

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one JSON document read from stdin",
		Long: `Reads one JSON document from stdin and writes the scored result to stdout.

On failure an error body {"error","kind","fields"?,"stack"?} is written to
stderr and the exit code is 1 for malformed input, 2 for a schema violation
and 3 for an internal error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runScore(cmd.Context(), opts)
		},
	}
	addScoreFlags(cmd, &opts)
	return cmd
}

func (c *cli) runScore(_ context.Context, opts scoreOptions) error {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	raw, err := io.ReadAll(c.in)
	if err != nil {
		return c.fail(errors.Wrap(err, "read stdin"))
	}
	doc, err := schema.Parse(raw)
	if err != nil {
		return c.fail(errors.WithStack(err))
	}

	exp := c.engine.Explain(doc)
	c.normalizer.Annotate(&exp.Result)

	if err := report.Write(c.out, format, exp, report.Options{
		Pretty:  opts.pretty,
		Color:   opts.color,
		Explain: opts.explain,
	}); err != nil {
		return c.fail(errors.Wrap(err, "write result"))
	}
	return nil
}
