package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"weighttracker/internal/app"
	"weighttracker/internal/domain"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func statsCmd() *cobra.Command {
	var (
		rangeName string
		unit      string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print statistics and trend for a time range",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			r, err := domain.ParseTimeRange(rangeName)
			if err != nil {
				return err
			}

			cfg, closeLogs, err := loadConfig()
			if err != nil {
				return err
			}
			defer closeLogs()

			ctx := cmd.Context()
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, st.close(ctx)) }()

			summary, err := app.NewChartsService(st.weights).GetSummary(ctx, r, unit)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}

	cmd.Flags().StringVar(&rangeName, "range", string(domain.RangeMonth), "time range [week | month | year | all]")
	cmd.Flags().StringVar(&unit, "unit", domain.UnitKg, "display unit [kg | lb]")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func printSummary(out io.Writer, s *app.Summary) error {
	if s.Stats == nil {
		_, err := fmt.Fprintf(out, "No entries in range %s\n", s.Range)
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Range\t%s\n", s.Range)
	fmt.Fprintf(tw, "Entries\t%d\n", s.Count)
	fmt.Fprintf(tw, "Initial\t%.1f %s\n", s.Stats.InitialWeight, s.Unit)
	fmt.Fprintf(tw, "Current\t%.1f %s\n", s.Stats.CurrentWeight, s.Unit)
	fmt.Fprintf(tw, "Change\t%+.1f %s (%+.1f%%)\n", s.Stats.WeightDifference, s.Unit, s.Stats.PercentageChange)
	fmt.Fprintf(tw, "Weekly\t%+.2f %s/week\n", s.Stats.WeeklyChange, s.Unit)
	if n := len(s.Points); n > 1 && s.Points[n-1].Trend != nil {
		fmt.Fprintf(tw, "Trend\t%.1f %s\n", *s.Points[n-1].Trend, s.Unit)
	}
	return tw.Flush()
}
