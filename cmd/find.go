package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/pictag/internal/core/services"
	"github.com/kamal-hamza/pictag/pkg/ui"
)

var (
	findLimit     int
	findPathsOnly bool
)

var findCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Fuzzy search images by name",
	Long: `Rank images by how well their filename, relative path or tags match a
free-text query. This is a name lookup; use 'pictag list --tag' for exact
tag filtering.`,
	Example: `  pictag find hero
  pictag find dsc01 --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

func init() {
	findCmd.Flags().IntVarP(&findLimit, "limit", "n", 20, "Maximum number of results (0 for all)")
	findCmd.Flags().BoolVar(&findPathsOnly, "paths", false, "Print relative paths only")
}

func runFind(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	resp, err := catalogService.Find(ctx, services.FindRequest{
		Query: args[0],
		Limit: findLimit,
	})
	if err != nil {
		return err
	}

	if findPathsOnly {
		for _, r := range resp.Records {
			fmt.Println(r.RelativePath)
		}
		return nil
	}

	if resp.Total == 0 {
		fmt.Println(ui.FormatWarning("No images found matching: " + args[0]))
		return nil
	}

	fmt.Println(ui.FormatTitle("Matches for: " + args[0]))
	fmt.Println()
	fmt.Print(renderAssetTable(resp.Records, nil))
	fmt.Println()
	fmt.Println(ui.FormatMuted(fmt.Sprintf("Found %d images", resp.Total)))

	return nil
}
