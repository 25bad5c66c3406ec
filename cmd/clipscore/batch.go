package main

import (
	"context"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/okian/clipscore/internal/domain/normalize"
	"github.com/okian/clipscore/internal/domain/schema"
	"github.com/okian/clipscore/internal/report"
	"github.com/okian/clipscore/pkg/logger"
)

type batchOptions struct {
	inputs    []string
	workers   int
	normalize bool
	output    string
}

// itemError is the JSON Lines record written for an item that failed.
type itemError struct {
	Source string              `json:"source"`
	Error  string              `json:"error"`
	Kind   string              `json:"kind"`
	Fields []schema.FieldError `json:"fields,omitempty"`
}

func (c *cli) batchCmd() *cobra.Command {
	var opts batchOptions

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Score many documents and write JSON Lines",
		Long: `Scores every document matched by --input (doublestar globs such as
"data/**/*.json"; .jsonl files hold one document per line) or, without
--input, every JSON Lines record on stdin.

One line is written per input, in input order: the result, or an error
object {"source","error","kind","fields"?}. The exit code is 1 when any
item failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runBatch(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.inputs, "input", "i", nil, "input glob (repeatable)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", runtime.NumCPU(), "number of scoring workers")
	cmd.Flags().BoolVar(&opts.normalize, "normalize", false, "annotate results with normalized scores")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func (c *cli) runBatch(ctx context.Context, opts batchOptions) error {
	log := logger.Named("batch")
	start := time.Now()

	items, err := collectInputs(opts.inputs, c.in)
	if err != nil {
		return err
	}
	results, err := scoreAll(ctx, c.engine, items, opts.workers)
	if err != nil {
		return err
	}

	normalizer := c.normalizer
	if opts.normalize {
		normalizer, err = c.batchNormalizer(ctx, results)
		if err != nil {
			return err
		}
	}

	var out io.Writer = c.out
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return errors.Wrap(err, "create output")
		}
		defer f.Close()
		out = f
	}

	failed := 0
	for i := range results {
		r := &results[i]
		if r.err != nil {
			failed++
			log.Debug(ctx, "item failed", logger.String("source", r.source), logger.Error(r.err))
			if err := report.WriteJSONLine(out, itemError{
				Source: r.source,
				Error:  r.err.Error(),
				Kind:   schema.Kind(r.err),
				Fields: schema.Fields(r.err),
			}); err != nil {
				return errors.Wrap(err, "write output")
			}
			continue
		}
		normalizer.Annotate(&r.result)
		if err := report.WriteJSONLine(out, r.result); err != nil {
			return errors.Wrap(err, "write output")
		}
	}

	log.Info(ctx, "batch complete",
		logger.Int("items", len(results)),
		logger.Int("scored", len(results)-failed),
		logger.Int("failed", failed),
		logger.Bool("normalized", normalizer.Enabled()),
		logger.Duration("elapsed", time.Since(start)),
	)
	if failed > 0 {
		return &exitError{code: exitFailure}
	}
	return nil
}

// batchNormalizer uses the configured raw distribution when one is set and
// otherwise the distribution of this batch. A batch without spread cannot
// be normalized and is left as is.
func (c *cli) batchNormalizer(ctx context.Context, results []itemResult) (*normalize.Normalizer, error) {
	cfg := c.cfg.Normalization()
	if cfg.RawStd > 0 {
		cfg.Enabled = true
		return normalize.New(cfg)
	}

	stats, err := normalize.Reference(overalls(results))
	if err != nil || stats.Std == 0 {
		logger.Named("batch").Warn(ctx, "batch has no score spread, skipping normalization",
			logger.Int("scored", stats.Count))
		return normalize.New(normalize.Config{})
	}
	return normalize.New(stats.Config(cfg.TargetMean, cfg.TargetStd))
}

func overalls(results []itemResult) []float64 {
	scores := make([]float64, 0, len(results))
	for _, r := range results {
		if r.err == nil {
			scores = append(scores, r.result.Overall)
		}
	}
	return scores
}
