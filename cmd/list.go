package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kamal-hamza/pictag/internal/core/domain"
	"github.com/kamal-hamza/pictag/internal/core/services"
	"github.com/kamal-hamza/pictag/pkg/ui"
)

var (
	listTags        []string
	listProject     string
	listUntagged    bool
	listCheck       bool
	listGallery     bool
	listInteractive bool
	listNoRefresh   bool
	listPathsOnly   bool
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List images, optionally filtered by tag",
	Aliases: []string{"ls"},
	Long: `List cataloged images in a table.

Tag filters use any-of semantics: an image is shown when it carries at least
one of the selected tags. Tags are compared as whole tokens, so "cat" does
not match "category" (set match_mode: substring in the config to opt in).

Examples:
  pictag list
  pictag list --tag hero --tag villain
  pictag list --tag "hero;villain" --project ProjectA
  pictag list --interactive
  pictag list --tag hero --gallery
  pictag list --untagged --check`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringArrayVarP(&listTags, "tag", "t", nil, "Filter by tag (repeatable, or ';'-separated)")
	listCmd.Flags().StringVarP(&listProject, "project", "p", "", "Only images of this project")
	listCmd.Flags().BoolVarP(&listUntagged, "untagged", "u", false, "Only images without tags")
	listCmd.Flags().BoolVar(&listCheck, "check", false, "Verify each listed image can be decoded")
	listCmd.Flags().BoolVarP(&listGallery, "gallery", "g", false, "Write an HTML gallery and open it")
	listCmd.Flags().BoolVarP(&listInteractive, "interactive", "i", false, "Pick tags with a fuzzy finder")
	listCmd.Flags().BoolVar(&listNoRefresh, "no-refresh", false, "Skip scanning for new images")
	listCmd.Flags().BoolVar(&listPathsOnly, "paths", false, "Print relative paths only")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	refreshIfEnabled(ctx, listNoRefresh || listPathsOnly)

	selected := splitTagArgs(listTags)
	if listInteractive {
		all, err := catalogService.AllTags(ctx)
		if err != nil {
			return err
		}
		picked, err := pickTags(all)
		if err != nil {
			if errors.Is(err, errPickerAborted) {
				return nil
			}
			return err
		}
		selected = domain.NormalizeTags(append(selected, picked...))
	}

	resp, err := catalogService.Search(ctx, services.QueryRequest{
		Tags:     selected,
		Project:  listProject,
		Untagged: listUntagged,
	})
	if err != nil {
		fmt.Println(ui.FormatError("Failed to list images"))
		return err
	}

	if listPathsOnly {
		for _, r := range resp.Records {
			fmt.Println(r.RelativePath)
		}
		return nil
	}

	var unreadable map[string]*domain.AssetUnreadableError
	if listCheck {
		issues, err := inspectService.Inspect(ctx, resp.Records)
		if err != nil {
			return err
		}
		unreadable = make(map[string]*domain.AssetUnreadableError, len(issues))
		for _, is := range issues {
			unreadable[is.Record.RelativePath] = is.Err
		}
	}

	if listGallery {
		return writeAndOpenGallery(resp.Records, selected, unreadable)
	}

	if resp.Total == 0 {
		switch {
		case len(selected) > 0:
			fmt.Println(ui.FormatWarning("No images found with tags: " + strings.Join(selected, ", ")))
		case listProject != "" || listUntagged:
			fmt.Println(ui.FormatWarning("No images match the filter"))
		default:
			fmt.Println(ui.FormatWarning("No images found"))
			fmt.Println(ui.FormatInfo("Put images in " + appLibrary.AssetsPath + "/<project>/ and run: pictag refresh"))
		}
		return nil
	}

	if len(selected) > 0 {
		fmt.Println(ui.FormatTitle("Images (any of: " + strings.Join(selected, ", ") + ")"))
	} else {
		fmt.Println(ui.FormatTitle("Images"))
	}
	fmt.Println()

	fmt.Print(renderAssetTable(resp.Records, unreadable))
	fmt.Println()

	fmt.Println(ui.FormatMuted(fmt.Sprintf("Found %d images", resp.Total)))
	if len(unreadable) > 0 {
		fmt.Println(ui.FormatWarning(fmt.Sprintf("%d images could not be opened", len(unreadable))))
	}

	return nil
}

func renderAssetTable(records []domain.AssetRecord, unreadable map[string]*domain.AssetUnreadableError) string {
	columns := []ui.TableColumn{
		{Header: "Project", Width: 12, MaxWidth: 24},
		{Header: "File", Width: 20, MaxWidth: 40},
		{Header: "Source", Width: 6},
	}
	if unreadable != nil {
		columns = append(columns, ui.TableColumn{Header: "OK", Width: 2})
	}
	columns = append(columns, ui.TableColumn{Header: "Tags", Width: 20})

	table := ui.NewTable(columns)
	for _, r := range records {
		row := []string{r.Project, r.Filename, string(r.TagSource)}
		if unreadable != nil {
			status := ui.IconSuccess
			if _, bad := unreadable[r.RelativePath]; bad {
				status = ui.IconError
			}
			row = append(row, status)
		}
		row = append(row, r.GetTagsString())
		table.AddRow(row)
	}

	table.FitWidth(tableWidth())
	return table.Render()
}

// tableWidth honors table_width, then the terminal size
func tableWidth() int {
	if appConfig != nil && appConfig.TableWidth > 0 {
		return appConfig.TableWidth
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		return w
	}
	return 0
}
