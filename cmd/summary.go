package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/attain/internal/cli"
	"github.com/theirongolddev/attain/internal/model"
	"github.com/theirongolddev/attain/internal/pipeline"
	"github.com/theirongolddev/attain/internal/source"
)

var flagSummaryAll bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Target, completion and forecast for one time range",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().BoolVar(&flagSummaryAll, "all", false, "Show one line per time range")
	rootCmd.Flags().BoolVar(&flagSummaryAll, "all", false, "Show one line per time range")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	if flagSummaryAll {
		all, err := source.LoadAll(cmd.Context(), src)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(cli.RenderTitle("TARGET ACHIEVEMENT  All ranges"))
		fmt.Println()
		fmt.Print(cli.RenderTable(rangesTable(all)))
		return nil
	}

	rng := selectedRange(cfg)
	recs, err := src.MetricsForRange(cmd.Context(), rng)
	if err != nil {
		return fmt.Errorf("loading %s: %w", rng, err)
	}
	dash := pipeline.Compute(recs)

	fmt.Println()
	fmt.Println(cli.RenderTitle("TARGET ACHIEVEMENT  " + rng.Label()))
	fmt.Println()
	fmt.Print(cli.RenderTable(aggregateTable(dash)))
	fmt.Println()
	fmt.Print(cli.RenderTable(categoryTable(dash)))

	if u, ok := src.(updatedSource); ok {
		if at, err := u.LastUpdated(cmd.Context()); err == nil && !at.IsZero() {
			fmt.Printf("\n  Figures updated %s\n", cli.FormatAge(time.Since(at)))
		}
	}
	return nil
}

// updatedSource is implemented by sources that know when their figures
// last changed.
type updatedSource interface {
	LastUpdated(ctx context.Context) (time.Time, error)
}

func aggregateTable(d pipeline.Dashboard) cli.Table {
	agg := d.Aggregate

	status := "on track"
	if !agg.CanComplete() {
		status = "short by " + cli.FormatAmount(agg.Gap())
	}

	return cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Target", cli.FormatAmount(agg.Target)},
			{"Completed", cli.FormatAmount(agg.Completed)},
			{"Pipeline", cli.FormatAmount(agg.Pipeline)},
			{"Forecast", cli.FormatAmount(agg.ForecastCompletion)},
			{"Gap", cli.FormatAmount(agg.Gap())},
			{"Achievement", cli.RenderRateBar(d.Rates.Achievement, 20, d.Severity)},
			{"Forecast Rate", cli.RenderRateBar(d.Rates.Forecast, 20, d.ForecastSeverity)},
			{"Status", status},
		},
	}
}

func categoryTable(d pipeline.Dashboard) cli.Table {
	rows := make([][]string, 0, len(d.Rows))
	for _, r := range d.Rows {
		rows = append(rows, cli.CategoryCells(r.Category.Label(), r))
	}

	agg := d.Aggregate
	total := model.Row{
		Target:             agg.Target,
		Completed:          agg.Completed,
		ForecastCompletion: agg.ForecastCompletion,
		Gap:                agg.Gap(),
		Pipeline:           agg.Pipeline,
		Achievement:        d.Rates.Achievement,
	}

	return cli.Table{
		Title:   "By Category",
		Headers: cli.CategoryHeaders,
		Rows:    rows,
		Totals:  cli.CategoryCells("Total", total),
		CellColor: func(row, col int) (lipgloss.Color, bool) {
			if col != cli.RateCol || row >= len(d.Rows) {
				return "", false
			}
			return cli.SeverityColor(d.Rows[row].Severity), true
		},
	}
}

func rangesTable(all []model.RangeRecords) cli.Table {
	rows := make([][]string, 0, len(all))
	sev := make([]model.Severity, 0, len(all))
	for _, recs := range all {
		d := pipeline.Compute(recs)
		rows = append(rows, []string{
			recs.Range.Label(),
			cli.FormatCompact(d.Aggregate.Target),
			cli.FormatCompact(d.Aggregate.Completed),
			cli.FormatCompact(d.Aggregate.ForecastCompletion),
			cli.FormatRate(d.Rates.Achievement),
			cli.FormatRate(d.Rates.Forecast),
			cli.RenderSeverity(d.Severity),
		})
		sev = append(sev, d.Severity)
	}

	return cli.Table{
		Headers: []string{"Range", "Target", "Completed", "Forecast", "Rate", "Forecast Rate", "Status"},
		Rows:    rows,
		CellColor: func(row, col int) (lipgloss.Color, bool) {
			if col != 4 || row >= len(sev) {
				return "", false
			}
			return cli.SeverityColor(sev[row]), true
		},
	}
}
