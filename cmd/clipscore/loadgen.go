package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/okian/clipscore/internal/loadgen"
	"github.com/okian/clipscore/internal/report"
)

func (c *cli) loadgenCmd() *cobra.Command {
	cfg := loadgen.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Drive a running service with synthetic videos and verify the ranks",
		Long: `Generates synthetic video documents across quality tiers, submits them
concurrently to POST /videos, waits for scoring to finish, then checks every
rank and the leaderboard against locally computed scores. Run statistics
are printed as JSON; the exit code is 1 when verification fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runLoadgen(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "service base URL")
	cmd.Flags().IntVar(&cfg.NumVideos, "videos", cfg.NumVideos, "number of documents to generate")
	cmd.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent HTTP workers")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-request timeout")
	cmd.Flags().DurationVar(&cfg.Wait, "wait", cfg.Wait, "how long to wait for asynchronous scoring")
	cmd.Flags().IntVar(&cfg.TopN, "top", cfg.TopN, "leaderboard entries to fetch and verify")
	cmd.Flags().StringVar(&cfg.OutputFile, "output", "", "write generated documents as JSON Lines")
	return cmd
}

func (c *cli) runLoadgen(ctx context.Context, cfg loadgen.Config) error {
	stats, err := loadgen.Run(ctx, cfg, c.engine)
	if stats != nil {
		if werr := report.WriteJSONLine(c.out, stats); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}
