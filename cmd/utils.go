package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"

	"github.com/kamal-hamza/pictag/internal/core/domain"
)

// GetPreferredEditor returns the editor command from config, env, or default
func GetPreferredEditor() string {
	// 1. Check Config
	if appConfig != nil && appConfig.Editor != "" {
		return appConfig.Editor
	}
	// 2. Check Environment
	if env := os.Getenv("EDITOR"); env != "" {
		return env
	}
	// 3. Fallback
	return "vi"
}

// OpenFile opens a file using a custom viewer or the OS default application.
func OpenFile(path string, viewer string) error {
	var cmd *exec.Cmd

	if viewer != "" {
		cmd = exec.Command(viewer, path)
	} else {
		switch runtime.GOOS {
		case "darwin":
			cmd = exec.Command("open", path)
		case "windows":
			cmd = exec.Command("cmd", "/c", "start", path)
		default:
			cmd = exec.Command("xdg-open", path)
		}
	}

	// Start() detaches so pictag can exit while the viewer stays open
	if err := cmd.Start(); err != nil {
		if viewer != "" {
			return fmt.Errorf("failed to open '%s' with '%s': %w", path, viewer, err)
		}
		return fmt.Errorf("failed to open '%s': %w", path, err)
	}

	return nil
}

// OpenInEditor runs the preferred editor in the foreground
func OpenInEditor(path string) error {
	c := exec.Command(GetPreferredEditor(), path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}

// errPickerAborted is returned when the user closes a picker
var errPickerAborted = errors.New("selection cancelled")

// pickAsset lets the user choose one asset with a fuzzy finder
func pickAsset(records []domain.AssetRecord) (domain.AssetRecord, error) {
	if len(records) == 0 {
		return domain.AssetRecord{}, fmt.Errorf("%w: catalog is empty", domain.ErrNotFound)
	}

	idx, err := fuzzyfinder.Find(
		records,
		func(i int) string { return records[i].RelativePath },
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			return assetPreview(records[i])
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return domain.AssetRecord{}, errPickerAborted
		}
		return domain.AssetRecord{}, err
	}
	return records[idx], nil
}

// pickTags lets the user choose any number of tags
func pickTags(tags []string) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	idxs, err := fuzzyfinder.FindMulti(
		tags,
		func(i int) string { return tags[i] },
		fuzzyfinder.WithHeader("Tab to select, Enter to confirm (any-of)"),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, errPickerAborted
		}
		return nil, err
	}

	selected := make([]string, 0, len(idxs))
	for _, i := range idxs {
		selected = append(selected, tags[i])
	}
	return selected, nil
}

func assetPreview(r domain.AssetRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project:  %s\n", r.Project)
	fmt.Fprintf(&b, "File:     %s\n", r.Filename)
	fmt.Fprintf(&b, "Source:   %s\n\n", r.TagSource)
	b.WriteString("Tags:\n")
	if r.IsUntagged() {
		b.WriteString("  (none)\n")
	}
	for _, t := range r.Tags {
		fmt.Fprintf(&b, "  • %s\n", t)
	}
	return b.String()
}

// splitTagArgs accepts "a;b" and repeated arguments alike
func splitTagArgs(args []string) []string {
	return domain.ParseTokens(args)
}
