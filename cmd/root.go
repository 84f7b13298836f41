package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kamal-hamza/pictag/internal/adapters/repository"
	"github.com/kamal-hamza/pictag/internal/adapters/scanner"
	"github.com/kamal-hamza/pictag/internal/core/ports"
	"github.com/kamal-hamza/pictag/internal/core/services"
	"github.com/kamal-hamza/pictag/internal/logger"
	"github.com/kamal-hamza/pictag/pkg/config"
	"github.com/kamal-hamza/pictag/pkg/library"
	"github.com/kamal-hamza/pictag/pkg/ui"
)

var (
	// Global library and config
	appLibrary *library.Library
	appConfig  *config.Config
	appLogger  *zap.Logger

	// Adapters
	catalogStore ports.CatalogStore
	assetScanner *scanner.FSScanner

	// Services
	catalogService *services.CatalogService
	inspectService *services.InspectService

	// Global flags
	flagRoot    string
	flagCatalog string
	flagStore   string
	flagVerbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pictag",
	Short: "pictag - tag and find image assets",
	Long: ui.StyleTitle.Render("pictag") + " - Image Asset Catalog\n\n" +
		"Keeps a tag catalog for a folder of images organized by project.\n" +
		"New images are discovered on refresh; tags are filtered with any-of semantics.",
	SilenceUsage:      true,
	PersistentPreRunE: initializeApp,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync(appLogger)
	},
	RunE: runDefaultAction,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "Asset root directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagCatalog, "catalog", "", "Catalog file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", "", "Catalog backend: csv or sqlite (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "V", false, "Enable debug logging")
}

// initializeApp wires config, logging, the catalog store and services
func initializeApp(cmd *cobra.Command, args []string) error {
	// These commands work without a library or a valid config
	switch cmd.Name() {
	case "init", "version", "help", "config":
		return nil
	}

	l, err := library.New()
	if err != nil {
		return fmt.Errorf("failed to initialize library: %w", err)
	}
	appLibrary = l

	cfg, err := config.Load(appLibrary.ConfigPath)
	if err != nil {
		return err
	}
	appConfig = cfg
	ui.SetTheme(appConfig.ColorTheme)

	store := appConfig.Store
	if flagStore != "" {
		store = flagStore
	}
	assetRoot := firstNonEmpty(flagRoot, appConfig.AssetRoot)
	catalogPath := firstNonEmpty(flagCatalog, appConfig.CatalogPath)
	appLibrary.Override(assetRoot, catalogPath, store)

	appLogger, err = newLogger(cmd)
	if err != nil {
		return err
	}

	catalogStore, err = repository.NewCatalogStore(store, appLibrary.CatalogPath, appLogger.Named("store"))
	if err != nil {
		return err
	}

	mode, err := services.ParseMatchMode(appConfig.MatchMode)
	if err != nil {
		return err
	}

	assetScanner = scanner.NewFSScanner(appConfig.Extensions, appLogger.Named("scanner"))
	catalogService = services.NewCatalogService(catalogStore, assetScanner, appLibrary.AssetsPath, mode, appLogger.Named("catalog"))
	inspectService = services.NewInspectService(appLibrary.AssetsPath)
	inspectService.SetWorkers(appConfig.MaxWorkers)

	appLogger.Debug("initialized",
		zap.String("command", cmd.Name()),
		zap.String("asset_root", appLibrary.AssetsPath),
		zap.String("catalog", appLibrary.CatalogPath),
		zap.String("store", store),
		zap.String("match_mode", string(mode)))

	return nil
}

// newLogger picks the log sink. Full-screen commands log to a file so
// stderr output doesn't tear the terminal UI.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	logFile := appConfig.LogFile
	if logFile == "" && (cmd.Name() == "browse" || cmd.Name() == "watch") {
		if err := os.MkdirAll(appLibrary.CachePath, 0755); err == nil {
			logFile = appLibrary.LogPath()
		}
	}

	if logFile == "" {
		return logger.NewCLILogger(flagVerbose), nil
	}

	l, err := logger.NewFileLogger(library.ExpandPath(logFile), flagVerbose)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return l, nil
}

// runDefaultAction runs the configured command when pictag is called bare
func runDefaultAction(cmd *cobra.Command, args []string) error {
	switch appConfig.DefaultAction {
	case "browse":
		return runBrowse(cmd, args)
	case "tags":
		return runTags(cmd, args)
	case "refresh":
		return runRefresh(cmd, args)
	default:
		return runList(cmd, args)
	}
}

// refreshIfEnabled runs one Refresh per session when auto_refresh is on
func refreshIfEnabled(ctx context.Context, skip bool) {
	if skip || appConfig == nil || !appConfig.AutoRefresh {
		return
	}

	resp, err := catalogService.Refresh(ctx)
	if err != nil {
		// Listing still works on the stored catalog
		appLogger.Warn("refresh failed", zap.Error(err))
		fmt.Println(ui.FormatWarning("Refresh skipped: " + err.Error()))
		return
	}
	if resp.Added > 0 {
		fmt.Println(ui.FormatInfo(fmt.Sprintf("Discovered %d new images", resp.Added)))
	}
}

// getContext returns a context for operations
func getContext() context.Context {
	return context.Background()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
