package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/pictag/pkg/config"
	"github.com/kamal-hamza/pictag/pkg/library"
	"github.com/kamal-hamza/pictag/pkg/ui"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the pictag library",
	Long: `Initialize the pictag library directory structure.

This creates the managed library at ~/.local/share/pictag/ with:
  - precedents/     : Asset root, one folder per project
  - cache/          : Generated galleries, charts and logs
  - image_tags.csv  : The catalog (created on the first refresh)

A commented config file is written to ~/.config/pictag/config.yaml.
Passing --root or --store records them in the config.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	l, err := library.New()
	if err != nil {
		fmt.Println(ui.FormatError("Failed to determine library location"))
		return err
	}

	cfg, err := config.Load(l.ConfigPath)
	if err != nil {
		return err
	}

	store := firstNonEmpty(flagStore, cfg.Store)
	l.Override(firstNonEmpty(flagRoot, cfg.AssetRoot), firstNonEmpty(flagCatalog, cfg.CatalogPath), store)

	if l.Exists() && fileExists(l.ConfigPath) && flagRoot == "" && flagStore == "" && flagCatalog == "" {
		fmt.Println(ui.FormatWarning("Library already initialized"))
		fmt.Println(ui.FormatMuted("Asset root: " + l.AssetsPath))
		return nil
	}

	fmt.Println(ui.FormatScan("Initializing pictag library..."))
	fmt.Println()

	if err := l.Initialize(); err != nil {
		fmt.Println(ui.FormatError("Failed to initialize library"))
		return err
	}

	switch {
	case flagRoot != "" || flagStore != "" || flagCatalog != "":
		if flagRoot != "" {
			cfg.AssetRoot = l.AssetsPath
		}
		if flagCatalog != "" {
			cfg.CatalogPath = l.CatalogPath
		}
		cfg.Store = store
		if err := cfg.Save(l.ConfigPath); err != nil {
			fmt.Println(ui.FormatWarning("Failed to save config: " + err.Error()))
		} else {
			fmt.Println(ui.FormatSuccess("Config updated"))
		}
	case !fileExists(l.ConfigPath):
		if err := createDefaultConfig(l.ConfigPath); err != nil {
			// Config is optional
			fmt.Println(ui.FormatWarning("Failed to create default config: " + err.Error()))
		} else {
			fmt.Println(ui.FormatSuccess("Default config created"))
		}
	}

	fmt.Println(ui.FormatSuccess("Library initialized successfully!"))
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Asset root", l.AssetsPath))
	fmt.Println(ui.RenderKeyValue("Catalog", l.CatalogPath))
	fmt.Println(ui.RenderKeyValue("Config", l.ConfigPath))
	fmt.Println()
	fmt.Println(ui.FormatInfo("Next steps:"))
	fmt.Println(ui.FormatMuted("  1. Copy images into " + filepath.Join(l.AssetsPath, "<project>") + "/"))
	fmt.Println(ui.FormatMuted("  2. Discover them: pictag refresh"))
	fmt.Println(ui.FormatMuted("  3. Tag one: pictag tag set <project>/<file> \"tag1;tag2\""))

	return nil
}

const defaultConfigTemplate = `# pictag configuration
# This file is optional - all settings have sensible defaults

# Folder holding one sub-folder per project (default: ~/.local/share/pictag/precedents)
# asset_root: ""

# Catalog location and backend (csv or sqlite)
# catalog_path: ""
# store: csv

# File extensions treated as images (case-insensitive)
# extensions: [".jpg", ".jpeg", ".png"]

# Tag comparison: exact tokens, or substring to let "cat" match "category"
# match_mode: exact

# Scan for new images before list / tags
# auto_refresh: true

# Command run when pictag is called without a subcommand (list, browse, tags, refresh)
# default_action: list

# Programs (fall back to $EDITOR and the OS default viewer)
# editor: ""
# image_viewer: ""

# Parallel image checks for list --check and doctor
# max_workers: 4

# HTML gallery layout
# gallery_columns: 4
# max_gallery_items: 500

# auto, dark or light
# color_theme: auto

# Milliseconds of quiet before watch refreshes the catalog
# watch_debounce_ms: 500

# JSON log file (browse and watch log to the cache directory by default)
# log_file: ""
`

func createDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigTemplate), 0644)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
