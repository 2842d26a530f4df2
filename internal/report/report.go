package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/DevSkits916/campaign-autopilot/internal/campaign"
)

// Render writes a self-contained HTML report for a run to w: a pie of
// submissions per target group and a bar of item outcomes.
func Render(w io.Writer, tally campaign.Tally) error {
	subtitle := fmt.Sprintf("run %s (%s)", tally.RunID, tally.State)

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Submissions by Target Group", Subtitle: subtitle}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)

	groups := make([]string, 0, len(tally.Submitted))
	for g := range tally.Submitted {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	pieItems := make([]opts.PieData, 0, len(groups))
	for _, g := range groups {
		pieItems = append(pieItems, opts.PieData{Name: g, Value: tally.Submitted[g]})
	}
	pie.AddSeries("Submissions", pieItems)

	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Run Outcomes", Subtitle: subtitle}))

	remaining := tally.Total - tally.Consumed
	if remaining < 0 {
		remaining = 0
	}
	bar.SetXAxis([]string{"submitted", "errors", "remaining"}).
		AddSeries("Items", []opts.BarData{
			{Value: tally.Consumed},
			{Value: tally.Errors},
			{Value: remaining},
		})

	if err := pie.Render(w); err != nil {
		return fmt.Errorf("render submissions chart: %w", err)
	}
	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render outcomes chart: %w", err)
	}
	return nil
}
