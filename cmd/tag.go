package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/pictag/internal/core/domain"
	"github.com/kamal-hamza/pictag/pkg/ui"
)

var tagCmd = &cobra.Command{
	Use:   "tag [command]",
	Short: "Edit the tags of an image",
	Long: `Replace, add or remove tags on a cataloged image.

Any edit that changes the tag set marks the image as manually tagged.
Tags are separated by ';' and compared case-sensitively.`,
}

var tagSetCmd = &cobra.Command{
	Use:   "set [path] [tags]",
	Short: "Replace all tags of an image",
	Example: `  pictag tag set ProjectA/hero.png "hero;villain"
  pictag tag set ProjectB/duel.jpg "hero; poster"
  pictag tag set ProjectA/hero.png ""`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := resolveEditTarget(args)
		if err != nil {
			return err
		}

		var text string
		if len(args) == 2 {
			text = args[1]
		} else {
			text, err = promptTags(target)
			if err != nil {
				return err
			}
		}

		changed, err := catalogService.UpdateTags(getContext(), target.RelativePath, text)
		return reportTagEdit(target.RelativePath, changed, err, "Updated")
	},
}

var tagAddCmd = &cobra.Command{
	Use:   "add [path] [tags...]",
	Short: "Add tags to an image",
	Example: `  pictag tag add ProjectA/hero.png poster
  pictag tag add ProjectA/hero.png "poster;final"`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := resolveEditTarget(args[:1])
		if err != nil {
			return err
		}
		changed, err := catalogService.AddTags(getContext(), target.RelativePath, splitTagArgs(args[1:]))
		return reportTagEdit(target.RelativePath, changed, err, "Added")
	},
}

var tagRemoveCmd = &cobra.Command{
	Use:     "remove [path] [tags...]",
	Short:   "Remove tags from an image",
	Aliases: []string{"rm"},
	Example: `  pictag tag remove ProjectA/hero.png villain`,
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := resolveEditTarget(args[:1])
		if err != nil {
			return err
		}
		changed, err := catalogService.RemoveTags(getContext(), target.RelativePath, splitTagArgs(args[1:]))
		return reportTagEdit(target.RelativePath, changed, err, "Removed")
	},
}

func init() {
	tagCmd.AddCommand(tagSetCmd)
	tagCmd.AddCommand(tagAddCmd)
	tagCmd.AddCommand(tagRemoveCmd)
}

// resolveTarget finds the image named by the first argument, or asks the user to pick one
func resolveTarget(args []string) (domain.AssetRecord, error) {
	ctx := getContext()

	if len(args) > 0 && args[0] != "" {
		target, err := catalogService.Resolve(ctx, args[0])
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				fmt.Println(ui.FormatWarning("No image found matching: " + args[0]))
			}
			return domain.AssetRecord{}, err
		}
		return target, nil
	}

	records, err := catalogService.Records(ctx)
	if err != nil {
		return domain.AssetRecord{}, err
	}
	return pickAsset(records)
}

// resolveEditTarget looks up the image for a tag edit by its exact relative path.
// Near misses are not guessed; without a path the user picks one.
func resolveEditTarget(args []string) (domain.AssetRecord, error) {
	ctx := getContext()

	if len(args) > 0 && args[0] != "" {
		target, err := catalogService.Get(ctx, args[0])
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				fmt.Println(ui.FormatWarning("No image cataloged at: " + args[0]))
				fmt.Println(ui.FormatInfo("Use 'pictag find' to look up the relative path"))
			}
			return domain.AssetRecord{}, err
		}
		return target, nil
	}

	records, err := catalogService.Records(ctx)
	if err != nil {
		return domain.AssetRecord{}, err
	}
	return pickAsset(records)
}

// promptTags reads a replacement tag line from stdin, showing the current tags first
func promptTags(target domain.AssetRecord) (string, error) {
	fmt.Println(ui.RenderKeyValue("Image", target.RelativePath))
	fmt.Println(ui.RenderKeyValue("Current Tags", target.Tags.String()))
	fmt.Print(ui.FormatInfo("New tags (';'-separated): "))

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read tags: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func reportTagEdit(relPath string, changed bool, err error, action string) error {
	if err != nil {
		if errors.Is(err, domain.ErrPersistFailure) {
			fmt.Println(ui.FormatError("Could not save the catalog, tags unchanged"))
		}
		return err
	}

	if !changed {
		fmt.Println(ui.FormatInfo("No changes to tags."))
		return nil
	}

	record, err := catalogService.Get(getContext(), relPath)
	if err != nil {
		return err
	}

	fmt.Printf("%s tags for '%s'\n", ui.FormatSuccess(action), record.RelativePath)
	fmt.Println(ui.RenderKeyValue("Current Tags", ui.FormatTags(record.Tags, record.IsManual())))
	return nil
}
