package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/pictag/pkg/ui"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove generated galleries, charts and logs",
	Long: `Clear the cache directory.

This removes generated HTML galleries, tag charts and default log files.
The catalog and your images are never touched.`,
	RunE: runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(appLibrary.CachePath); os.IsNotExist(err) {
		fmt.Println(ui.FormatInfo("Cache is already empty"))
		return nil
	}

	fmt.Print(ui.StyleWarning.Render("Cleaning cache... "))

	if err := appLibrary.CleanCache(); err != nil {
		fmt.Println(ui.FormatError("Failed"))
		return err
	}

	fmt.Println(ui.FormatSuccess("Done"))
	fmt.Println(ui.FormatMuted("Generated galleries and charts removed."))
	return nil
}
