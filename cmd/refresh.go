package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/pictag/internal/core/domain"
	"github.com/kamal-hamza/pictag/pkg/ui"
)

var refreshShowNew bool

var refreshCmd = &cobra.Command{
	Use:     "refresh",
	Short:   "Discover new images under the asset root",
	Aliases: []string{"scan"},
	Long: `Scan every project folder under the asset root and add images that are
not in the catalog yet. New images start with no tags (source: ai).

Existing rows are never modified or removed, and the catalog file is not
rewritten when nothing new was found.`,
	RunE: runRefresh,
}

func init() {
	refreshCmd.Flags().BoolVarP(&refreshShowNew, "show", "s", false, "List the newly discovered images")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	fmt.Println(ui.FormatScan("Scanning " + appLibrary.AssetsPath))

	resp, err := catalogService.Refresh(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAssetRootMissing) {
			fmt.Println(ui.FormatError("Asset root not found"))
			fmt.Println(ui.FormatInfo("Run 'pictag init' or pass --root"))
		} else {
			fmt.Println(ui.FormatError("Refresh failed"))
		}
		return err
	}

	if resp.Added == 0 {
		fmt.Println(ui.FormatSuccess(fmt.Sprintf("Catalog up to date (%d images)", resp.Total)))
		return nil
	}

	fmt.Println(ui.FormatSuccess(fmt.Sprintf("Added %d new images (%d total)", resp.Added, resp.Total)))
	if refreshShowNew {
		paths := make([]string, len(resp.New))
		for i, r := range resp.New {
			paths[i] = r.RelativePath
		}
		fmt.Print(ui.RenderSimpleList(paths))
	}
	fmt.Println(ui.FormatMuted(fmt.Sprintf("Took %s", resp.Duration.Round(time.Millisecond))))

	return nil
}
