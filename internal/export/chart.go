package export

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/piwi3910/BoxFit/internal/engine"
	"github.com/piwi3910/BoxFit/internal/model"
)

// RenderComparisonChart writes an HTML bar chart of floor coverage and
// volume utilization per strategy. Failed strategies show as zero.
func RenderComparisonChart(w io.Writer, box model.Box, results []engine.StrategyResult) error {
	if len(results) == 0 {
		return fmt.Errorf("no strategy results to chart")
	}

	names := make([]string, len(results))
	coverage := make([]opts.BarData, len(results))
	util := make([]opts.BarData, len(results))
	for i, r := range results {
		names[i] = r.Name
		coverage[i] = opts.BarData{Value: r.FloorCoverage}
		util[i] = opts.BarData{Value: r.VolumeUtil}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Strategy comparison",
			Subtitle: fmt.Sprintf("%s (%.0f x %.0f x %.0f cm)", boxName(box), box.Width, box.Depth, box.Height),
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "%"}),
	)
	bar.SetXAxis(names).
		AddSeries("Floor coverage", coverage).
		AddSeries("Volume utilization", util)

	return bar.Render(w)
}

// ExportComparisonChart writes the comparison chart to an HTML file.
func ExportComparisonChart(path string, box model.Box, results []engine.StrategyResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := RenderComparisonChart(f, box, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
