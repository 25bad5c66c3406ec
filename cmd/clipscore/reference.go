package main

import (
	"context"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/okian/clipscore/internal/domain/normalize"
	"github.com/okian/clipscore/internal/report"
	"github.com/okian/clipscore/pkg/logger"
)

func (c *cli) referenceCmd() *cobra.Command {
	var (
		inputs  []string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Compute normalization reference statistics for a population",
		Long: `Scores a population of documents and prints {"count","raw_mean","raw_std"}.
The values feed normalize_raw_mean and normalize_raw_std in the config.
Documents that fail validation are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runReference(cmd.Context(), inputs, workers)
		},
	}

	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "input glob (repeatable)")
	cmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "number of scoring workers")
	return cmd
}

func (c *cli) runReference(ctx context.Context, inputs []string, workers int) error {
	items, err := collectInputs(inputs, c.in)
	if err != nil {
		return err
	}
	results, err := scoreAll(ctx, c.engine, items, workers)
	if err != nil {
		return err
	}

	scores := overalls(results)
	if skipped := len(results) - len(scores); skipped > 0 {
		logger.Named("reference").Warn(ctx, "skipped invalid documents", logger.Int("skipped", skipped))
	}
	stats, err := normalize.Reference(scores)
	if err != nil {
		return err
	}
	return report.WriteJSONLine(c.out, stats)
}
