package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Library Settings
	AssetRoot   string   `yaml:"asset_root"`
	CatalogPath string   `yaml:"catalog_path"`
	Store       string   `yaml:"store"`
	Extensions  []string `yaml:"extensions"`

	// Query Settings
	MatchMode string `yaml:"match_mode"`

	// Feature Flags
	AutoRefresh bool `yaml:"auto_refresh"`

	Editor        string `yaml:"editor"`
	ImageViewer   string `yaml:"image_viewer"`
	DefaultAction string `yaml:"default_action"`
	MaxWorkers    int    `yaml:"max_workers"`

	// Gallery Settings
	GalleryColumns  int `yaml:"gallery_columns"`
	MaxGalleryItems int `yaml:"max_gallery_items"`

	// UI Settings
	ColorTheme string `yaml:"color_theme"`
	TableWidth int    `yaml:"table_width"`

	// Performance
	WatchDebounceMS int `yaml:"watch_debounce_ms"`

	// Logging
	LogFile string `yaml:"log_file"`
}

// DefaultConfig returns a Config struct with default values
func DefaultConfig() *Config {
	return &Config{
		AssetRoot:       "",
		CatalogPath:     "",
		Store:           "csv",
		Extensions:      []string{".jpg", ".jpeg", ".png"},
		MatchMode:       "exact",
		AutoRefresh:     true,
		Editor:          "",
		ImageViewer:     "",
		DefaultAction:   "list",
		MaxWorkers:      4,
		GalleryColumns:  4,
		MaxGalleryItems: 500,
		ColorTheme:      "auto",
		TableWidth:      0,
		WatchDebounceMS: 500,
		LogFile:         "",
	}
}

// Load reads configuration from the specified file path
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		// A missing file means defaults
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply defaults for essential values if missing
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".jpg", ".jpeg", ".png"}
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	if cfg.GalleryColumns <= 0 {
		cfg.GalleryColumns = 4
	}
	if cfg.MaxGalleryItems <= 0 {
		cfg.MaxGalleryItems = 500
	}
	if cfg.WatchDebounceMS <= 0 {
		cfg.WatchDebounceMS = 500
	}

	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	if !isValid(cfg.Store, validStores) {
		cfg.Store = "csv"
	}
	cfg.MatchMode = strings.ToLower(strings.TrimSpace(cfg.MatchMode))
	if !isValid(cfg.MatchMode, validMatchModes) {
		cfg.MatchMode = "exact"
	}
	if !isValid(cfg.DefaultAction, validDefaultActions) {
		cfg.DefaultAction = "list"
	}

	return cfg, nil
}

// Save persists the current configuration to the specified file path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

var (
	validStores         = []string{"csv", "sqlite"}
	validMatchModes     = []string{"exact", "substring"}
	validDefaultActions = []string{"list", "browse", "tags", "refresh"}
)

func isValid(value string, allowed []string) bool {
	for _, v := range allowed {
		if value == v {
			return true
		}
	}
	return false
}
