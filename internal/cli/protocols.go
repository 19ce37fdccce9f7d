package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/wpr/internal/domain/protocol"
	"github.com/okian/wpr/internal/domain/types"
)

type protocolsOptions struct {
	dimension string
	severity  string
	gap       float64
	format    string
	all       bool
}

func newProtocolsCommand() *cobra.Command {
	opts := &protocolsOptions{}
	cmd := &cobra.Command{
		Use:   "protocols",
		Short: "List the training protocols recommended for a bottleneck",
		Long: `List the training protocols recommended for a bottleneck.

Examples:
  wprctl protocols --dimension strength --severity major --gap 40
  wprctl protocols --dimension power_profile --all`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProtocols(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.dimension, "dimension", "d", "", "dimension name")
	cmd.Flags().StringVarP(&opts.severity, "severity", "s", "major", "severity tier")
	cmd.Flags().Float64Var(&opts.gap, "gap", 0, "gap to target in percent")
	cmd.Flags().StringVar(&opts.format, "format", FormatText, "output format: text or json")
	cmd.Flags().BoolVar(&opts.all, "all", false, "list the whole catalog of the dimension")
	_ = cmd.MarkFlagRequired("dimension")
	return cmd
}

func runProtocols(cmd *cobra.Command, opts *protocolsOptions) error {
	if opts.format != FormatText && opts.format != FormatJSON {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.format)
	}
	d, err := types.ParseDimension(opts.dimension)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	var list []protocol.TrainingProtocol
	if opts.all {
		list = protocol.Catalog(d)
	} else {
		sev, err := types.ParseSeverity(opts.severity)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		if opts.gap < 0 {
			return fmt.Errorf("%w: gap must not be negative", ErrInvalidInput)
		}
		list = protocol.Recommend(d, sev, opts.gap)
	}

	if opts.format == FormatJSON {
		if list == nil {
			list = []protocol.TrainingProtocol{}
		}
		return writeJSON(cmd.OutOrStdout(), list)
	}
	return writeProtocolsText(cmd.OutOrStdout(), list)
}
