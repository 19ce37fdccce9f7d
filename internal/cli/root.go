// Package cli implements wprctl, the offline analysis tool.
package cli

import (
	"io"
	"time"

	"github.com/spf13/cobra"
)

// format names accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// NewRootCommand builds the wprctl command tree writing to out.
func NewRootCommand(out io.Writer, now func() time.Time) *cobra.Command {
	if now == nil {
		now = time.Now
	}
	root := &cobra.Command{
		Use:           "wprctl",
		Short:         "Analyze athlete progress offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.AddCommand(newAnalyzeCommand(now), newProtocolsCommand())
	return root
}
