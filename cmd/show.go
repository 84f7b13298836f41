package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/pictag/pkg/ui"
)

var (
	showCopy bool
	showOpen bool
)

var showCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Show details of one image",
	Long: `Show the project, tags, provenance and file details of a single image.

The argument may be a relative path (ProjectA/hero.png) or a fuzzy name.
Without an argument an interactive picker opens.`,
	Example: `  pictag show ProjectA/hero.png
  pictag show hero --copy
  pictag show --open`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVarP(&showCopy, "copy", "c", false, "Copy the absolute path to the clipboard")
	showCmd.Flags().BoolVarP(&showOpen, "open", "o", false, "Open the image in the configured viewer")
}

func runShow(cmd *cobra.Command, args []string) error {
	target, err := resolveTarget(args)
	if err != nil {
		if errors.Is(err, errPickerAborted) {
			return nil
		}
		return err
	}

	path := catalogService.AssetPath(target.RelativePath)

	fmt.Println(ui.FormatTitle(fmt.Sprintf("%s %s", ui.IconImage, target.RelativePath)))
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Project", target.Project))
	fmt.Println(ui.RenderKeyValue("File", target.Filename))
	fmt.Println(ui.RenderKeyValue("Tags", ui.FormatTags(target.Tags, target.IsManual())))
	fmt.Println(ui.RenderKeyValue("Source", ui.FormatSource(string(target.TagSource))))
	fmt.Println(ui.RenderKeyValue("Path", path))

	info, issue := inspectService.Probe(target)
	if issue != nil {
		fmt.Println(ui.FormatWarning(issue.Error()))
	} else {
		fmt.Println(ui.RenderKeyValue("Format", info.Format))
		fmt.Println(ui.RenderKeyValue("Size", fmt.Sprintf("%dx%d", info.Width, info.Height)))
		fmt.Println(ui.RenderKeyValue("Bytes", strconv.FormatInt(info.Size, 10)))
	}

	if showCopy {
		if err := clipboard.WriteAll(path); err != nil {
			fmt.Println(ui.FormatWarning("Clipboard unavailable: " + err.Error()))
		} else {
			fmt.Println(ui.FormatSuccess("Path copied to clipboard"))
		}
	}

	if showOpen {
		return OpenFile(path, appConfig.ImageViewer)
	}

	return nil
}
