package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/pictag/internal/core/domain"
	"github.com/kamal-hamza/pictag/internal/core/services"
	"github.com/kamal-hamza/pictag/pkg/ui"
)

var (
	tagsChart     bool
	tagsTop       int
	tagsNoRefresh bool
	tagsPlain     bool
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Show all tags with usage counts",
	Long: `Show every distinct tag in the catalog with the number of images carrying it,
plus untagged and provenance (ai / manual) totals.

Use --chart to write an HTML bar chart of tag usage and open it.
Use --plain to print one tag per line in lexicographic order.`,
	RunE: runTags,
}

func init() {
	tagsCmd.Flags().BoolVarP(&tagsChart, "chart", "c", false, "Write an HTML chart and open it")
	tagsCmd.Flags().IntVarP(&tagsTop, "top", "n", 0, "Only show the N most used tags")
	tagsCmd.Flags().BoolVar(&tagsNoRefresh, "no-refresh", false, "Skip scanning for new images")
	tagsCmd.Flags().BoolVar(&tagsPlain, "plain", false, "Print sorted tag names only")
}

func runTags(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	refreshIfEnabled(ctx, tagsNoRefresh || tagsPlain)

	if tagsPlain {
		tags, err := catalogService.AllTags(ctx)
		if err != nil {
			return err
		}
		for _, t := range tags {
			fmt.Println(t)
		}
		return nil
	}

	records, err := catalogService.Records(ctx)
	if err != nil {
		return err
	}
	stats := services.ComputeStats(records)

	if tagsChart {
		return writeAndOpenChart(stats)
	}

	if len(stats.Tags) == 0 {
		fmt.Println(ui.FormatWarning("No tags yet"))
		fmt.Println(ui.FormatInfo("Tag an image with: pictag tag set <path> \"tag1;tag2\""))
		return nil
	}

	fmt.Println(ui.FormatTitle(fmt.Sprintf("%s Tags (%d)", ui.IconTag, len(stats.Tags))))
	fmt.Println()

	table := ui.NewTable([]ui.TableColumn{
		{Header: "Tag", Width: 20},
		{Header: "Images", Width: 6, Align: "right"},
	})
	for _, tc := range stats.Top(tagsTop) {
		table.AddRow([]string{tc.Tag, strconv.Itoa(tc.Count)})
	}
	fmt.Print(table.Render())
	fmt.Println()

	fmt.Println(ui.RenderKeyValue("Images", strconv.Itoa(stats.TotalAssets)))
	fmt.Println(ui.RenderKeyValue("Untagged", strconv.Itoa(stats.Untagged)))
	fmt.Println(ui.RenderKeyValue("Manual", strconv.Itoa(stats.BySource[domain.TagSourceManual])))
	fmt.Println(ui.RenderKeyValue("Projects", strconv.Itoa(len(stats.ByProject))))

	return nil
}

// renderChart writes tag usage, provenance and per-project charts as one page
func renderChart(w io.Writer, stats services.CatalogStats, top int) error {
	tagCounts := stats.Top(top)

	names := make([]string, len(tagCounts))
	values := make([]opts.BarData, len(tagCounts))
	for i, tc := range tagCounts {
		names[i] = tc.Tag
		values[i] = opts.BarData{Value: tc.Count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "pictag tags", Width: "1100px", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Tag usage",
			Subtitle: fmt.Sprintf("%d images, %d untagged", stats.TotalAssets, stats.Untagged),
		}),
	)
	bar.SetXAxis(names).AddSeries("Images", values)

	pie := charts.NewPie()
	pie.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Tag source"}))
	pie.AddSeries("Source", []opts.PieData{
		{Name: string(domain.TagSourceAI), Value: stats.BySource[domain.TagSourceAI]},
		{Name: string(domain.TagSourceManual), Value: stats.BySource[domain.TagSourceManual]},
	})

	projects := stats.SortedProjects()
	projectValues := make([]opts.BarData, len(projects))
	for i, p := range projects {
		projectValues[i] = opts.BarData{Value: stats.ByProject[p]}
	}
	perProject := charts.NewBar()
	perProject.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Images per project"}))
	perProject.SetXAxis(projects).AddSeries("Images", projectValues)

	page := components.NewPage()
	page.PageTitle = "pictag tags"
	page.AddCharts(bar, pie, perProject)
	return page.Render(w)
}

func writeAndOpenChart(stats services.CatalogStats) error {
	if err := os.MkdirAll(appLibrary.CachePath, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	path := appLibrary.ChartPath()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart: %w", err)
	}

	if err := renderChart(f, stats, tagsTop); err != nil {
		f.Close()
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Println(ui.FormatSuccess("Tag chart written"))
	fmt.Println(ui.FormatMuted(path))

	return OpenFile(path, "")
}
