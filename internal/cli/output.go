package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/okian/wpr/internal/domain/engine"
	"github.com/okian/wpr/internal/domain/forecast"
	"github.com/okian/wpr/internal/domain/protocol"
	"github.com/okian/wpr/internal/domain/types"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// writeAnalysisText renders an analysis as aligned sections.
func writeAnalysisText(w io.Writer, a engine.Analysis) error { //nolint:gocritic // hugeParam
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Athlete:\t%s\n", a.Profile.AthleteID)
	fmt.Fprintf(tw, "Overall progress:\t%.3f\n", a.Overall)
	fmt.Fprintf(tw, "Valid dimensions:\t%d\n", a.ValidCount)
	fmt.Fprintf(tw, "Monthly rate:\t%.3f\n", a.Rate)
	fmt.Fprintf(tw, "Risk score:\t%.1f\n", a.RiskScore)

	fmt.Fprintln(tw, "\nDimension\tScore\tSeverity")
	for _, d := range types.AllDimensions() {
		score, ok := a.Scores[d]
		if !ok {
			fmt.Fprintf(tw, "%s\t-\t-\n", d)
			continue
		}
		sev := "-"
		for _, r := range a.Reports {
			if r.Dimension == d {
				sev = r.Severity.String()
			}
		}
		fmt.Fprintf(tw, "%s\t%.3f\t%s\n", d, score, sev)
	}

	fmt.Fprintln(tw)
	if a.Bottleneck != nil {
		fmt.Fprintf(tw, "Bottleneck:\t%s (%s, z=%.2f)\n", a.Bottleneck.Dimension, a.Bottleneck.Severity, a.Bottleneck.ZScore)
	} else {
		fmt.Fprintf(tw, "Bottleneck:\tnone\n")
	}

	fmt.Fprintln(tw, "\nHorizon\tScore\tWPR\tGain\tConfidence\tDays to target")
	writeProjection(tw, a.Projection)
	for _, p := range a.Horizons {
		writeProjection(tw, p)
	}

	if len(a.Protocols) > 0 {
		fmt.Fprintln(tw, "\nRecommended protocols:")
		writeProtocolRows(tw, a.Protocols)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func writeProjection(w io.Writer, p forecast.Projection) {
	days := "unreachable"
	if p.DaysToTarget != nil {
		days = fmt.Sprintf("%d", *p.DaysToTarget)
	}
	fmt.Fprintf(w, "%dd\t%.3f\t%.2f\t%+.2f\t%.2f\t%s\n",
		p.HorizonDays, p.ProjectedScore, p.ProjectedWPR, p.ProjectedGain, p.Confidence, days)
}

func writeProtocolsText(w io.Writer, list []protocol.TrainingProtocol) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No protocols recommended.")
		return err //nolint:wrapcheck // writer error
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeProtocolRows(tw, list)
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func writeProtocolRows(w io.Writer, list []protocol.TrainingProtocol) {
	fmt.Fprintln(w, "Name\tFrequency\tDuration\tIntensity\tExpected\tRisk")
	for _, p := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f%%\t%s\n",
			p.Name, p.Frequency, p.Duration, p.Intensity, p.ExpectedImprovement*100, p.Risk)
	}
}
