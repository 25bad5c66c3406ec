package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/clipscore/internal/config"
	"github.com/okian/clipscore/internal/domain/normalize"
	"github.com/okian/clipscore/internal/domain/scoring"
	"github.com/okian/clipscore/pkg/logger"
)

// cli carries the streams and the state shared by every command. A fresh
// value is built per execution so tests can drive commands in-process.
type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configPath string
	logLevel   string
	profile    string
	stack      bool

	cfg        *config.Config
	engine     *scoring.Engine
	normalizer *normalize.Normalizer
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	c := &cli{in: in, out: out, errOut: errOut}

	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(errOut, "Error:", err)
	return exitFailure
}

func (c *cli) rootCmd() *cobra.Command {
	var opts scoreOptions

	root := &cobra.Command{
		Use:   "clipscore",
		Short: "Deterministic content scoring for short-form videos",
		Long: `clipscore reads a video document (metadata plus measured signals) and
produces nine subscores, penalties, a weighted overall score in [0,100] and
diagnostics about missing data.

Without a subcommand it behaves like "clipscore score".`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: c.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runScore(cmd.Context(), opts)
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $CLIPSCORE_CONFIG)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error (default: from config)")
	root.PersistentFlags().StringVar(&c.profile, "profile", "", "weight profile version (default: from config)")
	root.PersistentFlags().BoolVar(&c.stack, "stack", false, "include a stack trace in error bodies")
	addScoreFlags(root, &opts)

	root.AddCommand(c.scoreCmd())
	root.AddCommand(c.batchCmd())
	root.AddCommand(c.referenceCmd())
	root.AddCommand(c.serveCmd())
	root.AddCommand(c.versionCmd())
	root.AddCommand(c.loadgenCmd())

	return root
}

// setup loads configuration, applies flag overrides and builds the engine
// shared by every command.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx, c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if c.profile != "" {
		cfg.Profile = c.profile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.Init(
		logger.WithOutput(c.errOut),
		logger.WithFormat(cfg.LogFormat),
		logger.WithLevel(cfg.LogLevel),
	); err != nil {
		return err
	}

	scoringOpts, err := cfg.ScoringOptions()
	if err != nil {
		return err
	}
	engine, err := scoring.New(scoringOpts...)
	if err != nil {
		return err
	}
	normalizer, err := normalize.New(cfg.Normalization())
	if err != nil {
		return err
	}

	c.cfg = cfg
	c.engine = engine
	c.normalizer = normalizer
	return nil
}
