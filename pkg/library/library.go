package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultAssetDir is the asset root below the data directory
	DefaultAssetDir = "precedents"
	// DefaultCatalogName is the catalog file name without extension
	DefaultCatalogName = "image_tags"
)

// Library represents the directories pictag reads and writes
type Library struct {
	RootPath    string
	AssetsPath  string
	CatalogPath string
	CachePath   string
	ConfigPath  string
}

// New creates a new Library instance with XDG-compliant paths
func New() (*Library, error) {
	rootPath, rootErr := getDataRoot()
	configPath, configErr := getConfigPath()
	if rootErr != nil {
		return nil, fmt.Errorf("failed to determine data root: %w", rootErr)
	}
	if configErr != nil {
		return nil, fmt.Errorf("failed to determine config path: %w", configErr)
	}

	return &Library{
		RootPath:    rootPath,
		AssetsPath:  filepath.Join(rootPath, DefaultAssetDir),
		CatalogPath: filepath.Join(rootPath, DefaultCatalogName+".csv"),
		CachePath:   filepath.Join(rootPath, "cache"),
		ConfigPath:  configPath,
	}, nil
}

// getDataRoot returns the data directory path
// Follows XDG Base Directory specification on Unix and uses AppData on Windows
func getDataRoot() (string, error) {
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return filepath.Join(xdgDataHome, "pictag"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "pictag"), nil
	}

	return filepath.Join(homeDir, ".local", "share", "pictag"), nil
}

func getConfigPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "pictag", "config.yaml"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "pictag-config", "config.yaml"), nil
	}

	return filepath.Join(homeDir, ".config", "pictag", "config.yaml"), nil
}

// Override replaces the asset root and catalog location when set.
// When only the backend changes, the default catalog gets the matching extension.
func (l *Library) Override(assetRoot, catalogPath, store string) {
	if assetRoot != "" {
		l.AssetsPath = ExpandPath(assetRoot)
	}
	switch {
	case catalogPath != "":
		l.CatalogPath = ExpandPath(catalogPath)
	case store == "sqlite":
		l.CatalogPath = filepath.Join(l.RootPath, DefaultCatalogName+".db")
	}
}

// Initialize creates the library directory structure if it doesn't exist
func (l *Library) Initialize() error {
	directories := []string{
		l.RootPath,
		l.AssetsPath,
		l.CachePath,
		filepath.Dir(l.CatalogPath),
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Exists checks if the asset root is a directory
func (l *Library) Exists() bool {
	info, err := os.Stat(l.AssetsPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// GetCachePath returns the full path for a cached file
func (l *Library) GetCachePath(filename string) string {
	return filepath.Join(l.CachePath, filename)
}

// GalleryPath returns the path of the generated HTML gallery
func (l *Library) GalleryPath() string {
	return l.GetCachePath("gallery.html")
}

// ChartPath returns the path of the generated tag chart
func (l *Library) ChartPath() string {
	return l.GetCachePath("tags.html")
}

// LogPath returns the default JSON log file
func (l *Library) LogPath() string {
	return l.GetCachePath("pictag.log")
}

// CleanCache removes all files in the cache directory
func (l *Library) CleanCache() error {
	entries, err := os.ReadDir(l.CachePath)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		path := filepath.Join(l.CachePath, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	return nil
}

// ExpandPath resolves a leading ~ to the home directory
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
