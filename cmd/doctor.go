package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/pictag/internal/core/domain"
	"github.com/kamal-hamza/pictag/internal/core/services"
	"github.com/kamal-hamza/pictag/pkg/ui"
)

var doctorSkipImages bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the health of your pictag setup",
	Long: `Diagnose issues with your pictag setup.

Checks for:
  - Asset root and configuration file
  - Catalog readability
  - Images that are cataloged but missing or undecodable
  - Editor and viewer availability`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorSkipImages, "skip-images", false, "Don't decode every cataloged image")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	fmt.Println(ui.FormatTitle("🩺 pictag Doctor"))
	fmt.Println()

	// 1. Library structure
	checkStep("Asset Root", func() error {
		if !appLibrary.Exists() {
			return fmt.Errorf("not found at %s", appLibrary.AssetsPath)
		}
		return nil
	})

	checkStep("Configuration File", func() error {
		if !fileExists(appLibrary.ConfigPath) {
			return fmt.Errorf("missing at %s (defaults in use)", appLibrary.ConfigPath)
		}
		return nil
	})

	// 2. Catalog
	var records []domain.AssetRecord
	checkStep("Catalog ("+catalogService.StoreLocation()+")", func() error {
		var err error
		records, err = catalogStore.Load(ctx)
		switch {
		case errors.Is(err, domain.ErrStoreUnavailable):
			return fmt.Errorf("not created yet (run 'pictag refresh')")
		case err != nil:
			return err
		}
		return nil
	})

	// 3. Environment
	checkStep("Editor", func() error {
		editor := GetPreferredEditor()
		if _, err := exec.LookPath(editor); err != nil {
			return fmt.Errorf("'%s' not found in PATH", editor)
		}
		if appConfig.Editor == "" && os.Getenv("EDITOR") == "" {
			return fmt.Errorf("EDITOR not set (using fallback 'vi')")
		}
		return nil
	})

	if appConfig.ImageViewer != "" {
		checkStep("Image Viewer", func() error {
			if _, err := exec.LookPath(appConfig.ImageViewer); err != nil {
				return fmt.Errorf("'%s' not found in PATH", appConfig.ImageViewer)
			}
			return nil
		})
	}

	if doctorSkipImages || len(records) == 0 {
		return nil
	}

	fmt.Println()
	fmt.Println(ui.FormatInfo(fmt.Sprintf("Checking %d images...", len(records))))

	var issues []services.AssetIssue
	checkStep("Image Integrity", func() error {
		var err error
		issues, err = inspectService.InspectWithProgress(ctx, records, func(p services.InspectProgress) {
			if p.Current%100 == 0 || p.Current == p.Total {
				fmt.Printf("\r    %s", ui.StyleMuted.Render(fmt.Sprintf("%d/%d", p.Current, p.Total)))
			}
		})
		fmt.Print("\r")
		if err != nil {
			return err
		}
		if len(issues) > 0 {
			return fmt.Errorf("%d of %d images could not be opened", len(issues), len(records))
		}
		return nil
	})

	for _, is := range issues {
		fmt.Printf("    %s\n", ui.StyleMuted.Render(is.Err.Error()))
	}

	return nil
}

// checkStep runs a check function and prints the result nicely
func checkStep(name string, check func() error) {
	err := check()
	if err == nil {
		fmt.Printf("%s %s\n", ui.StyleSuccess.Render(ui.IconSuccess), name)
	} else {
		fmt.Printf("%s %s\n", ui.StyleError.Render(ui.IconError), name)
		fmt.Printf("    %s\n", ui.StyleMuted.Render(err.Error()))
	}
}
