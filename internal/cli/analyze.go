package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/wpr/internal/domain/engine"
	"github.com/okian/wpr/internal/domain/forecast"
)

type analyzeOptions struct {
	file     string
	format   string
	rate     float64
	strategy string
	horizons []int
}

func newAnalyzeCommand(now func() time.Time) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score a profile file and report its bottleneck and projection",
		Long: `Score a profile file and report its bottleneck and projection.

Examples:
  wprctl analyze --file athlete.yaml
  wprctl analyze --file athlete.json --format json --rate 0.03
  wprctl analyze --file athlete.yaml --strategy exponential --horizons 30,60`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, opts, now())
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "profile file (yaml or json)")
	cmd.Flags().StringVar(&opts.format, "format", FormatText, "output format: text or json")
	cmd.Flags().Float64Var(&opts.rate, "rate", 0, "monthly score improvement rate; overrides the file, <= 0 means no forecast")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "linear", "forecast strategy: linear or exponential")
	cmd.Flags().IntSliceVar(&opts.horizons, "horizons", nil, "extra projection horizons in days")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions, now time.Time) error {
	if opts.format != FormatText && opts.format != FormatJSON {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.format)
	}
	strategy, err := forecast.ParseStrategy(opts.strategy)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	for _, h := range opts.horizons {
		if h < 1 {
			return fmt.Errorf("%w: horizons must be positive", ErrInvalidInput)
		}
	}

	in, err := LoadAnalysisFile(opts.file, now)
	if err != nil {
		return err
	}

	// an explicit rate wins even when it is not positive, which reports the
	// target as unreachable
	var rate float64
	switch {
	case cmd.Flags().Changed("rate"):
		rate = opts.rate
	case in.Rate != nil:
		rate = *in.Rate
	default:
		rate = forecast.EstimateRate(in.Profile.History, forecast.DefaultRate)
	}

	eng := engine.New(
		engine.WithForecaster(forecast.New(forecast.WithStrategy(strategy))),
		engine.WithHorizons(opts.horizons...),
	)
	a := eng.Analyze(in.Profile, in.Snapshots, rate)

	if opts.format == FormatJSON {
		return writeJSON(cmd.OutOrStdout(), a)
	}
	return writeAnalysisText(cmd.OutOrStdout(), a)
}
